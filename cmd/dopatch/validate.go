package dopatch

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/orchestrator"
	"github.com/arthur-debert/dopatch/pkg/rules"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		target string
		strict bool
	)

	cmd := &cobra.Command{
		Use:     "validate RULES",
		Short:   MsgValidateShort,
		Long:    MsgValidateLong,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rulesPath := args[0]
			file, err := rules.NewLoader(a.fs).Load(rulesPath)
			if err != nil {
				return err
			}
			if file.Halt != "" {
				if _, err := orchestrator.ParseHalt(file.Halt); err != nil {
					return err
				}
			}
			scope, err := a.cfg.VerifierScope()
			if err != nil {
				return err
			}
			list, err := file.ToRules(scope)
			if err != nil {
				return err
			}
			compiled, err := orchestrator.Prepare(list, a.cfg.MatcherOptions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgRulesValid, len(compiled), rulesPath)
			table, err := ruleTable(compiled)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, table)

			if target == "" {
				return nil
			}
			store := document.NewStore(a.fs, a.cfg.StoreOptions())
			doc, err := a.loadTarget(cmd, store, target)
			if err != nil {
				return err
			}
			overlaps, err := orchestrator.CheckDisjoint(doc, compiled)
			if err != nil {
				return err
			}
			if len(overlaps) == 0 {
				fmt.Fprintf(out, MsgNoOverlaps, target)
				return nil
			}

			fmt.Fprintf(out, MsgOverlapsFound, len(overlaps), target)
			text := doc.Text()
			for _, o := range overlaps {
				fmt.Fprintf(out, MsgOverlapFormat,
					o.First, lineOf(text, o.FirstSpan.Start),
					o.Second, lineOf(text, o.SecondSpan.Start))
			}
			if strict {
				return errors.Newf(errors.ErrInvalidInput, MsgErrOverlaps, len(overlaps))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", MsgFlagTarget)
	cmd.Flags().BoolVar(&strict, "strict", false, MsgFlagStrict)

	return cmd
}

func ruleTable(compiled []*rules.Compiled) (string, error) {
	plain := pterm.NewStyle()
	data := pterm.TableData{{"RULE", "POLICY", "MATCH", "VERIFY"}}
	for _, c := range compiled {
		verify := "-"
		if c.Check != nil {
			verify = c.Check.Spec().String()
		}
		data = append(data, []string{c.ID, c.Policy.String(), c.Match.String(), verify})
	}
	return pterm.DefaultTable.
		WithHasHeader().
		WithData(data).
		WithStyle(plain).
		WithHeaderStyle(plain).
		WithSeparatorStyle(plain).
		WithSeparator("  ").
		Srender()
}

func lineOf(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
