package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/dopatch/cmd/dopatch"
	"github.com/arthur-debert/dopatch/internal/version"
)

func main() {
	rootCmd := dopatch.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "DOPATCH",
		Section: "1",
		Source:  "dopatch " + version.Version,
		Manual:  "dopatch manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
