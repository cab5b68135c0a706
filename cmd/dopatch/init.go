package dopatch

import (
	"fmt"
	"path/filepath"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/arthur-debert/dopatch/pkg/rules"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// DefaultRulesFile is the file `dopatch init` writes without an argument
const DefaultRulesFile = "dopatch.toml"

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init [FILE]",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultRulesFile
			if len(args) == 1 {
				path = args[0]
			}

			data, err := rules.Encode(rules.Starter())
			if err != nil {
				return err
			}
			if path == stdio {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if exists, _ := afero.Exists(a.fs, path); exists && !force {
				return errors.Newf(errors.ErrInvalidInput, MsgErrFileExists, path).
					WithDetail("path", path)
			}
			if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot create directory for %s", path)
			}
			if err := afero.WriteFile(a.fs, path, data, a.cfg.Store.FileMode); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
			}

			logger := logging.GetLogger("cmd.init")
			logger.Info().Str("path", path).Msg("Starter rules written")
			fmt.Fprintf(cmd.OutOrStdout(), MsgStarterWritten, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)
	return cmd
}
