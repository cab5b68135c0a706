package dopatch

import (
	"fmt"

	"github.com/arthur-debert/dopatch/pkg/config"
	"github.com/arthur-debert/dopatch/pkg/errors"
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// configView is the printable form of config.Config
type configView struct {
	Run    config.Run    `toml:"run"`
	Output config.Output `toml:"output"`
	Store  struct {
		Backup       bool   `toml:"backup"`
		BackupSuffix string `toml:"backup_suffix"`
		FileMode     string `toml:"file_mode"`
	} `toml:"store"`
	Matcher struct {
		RegexTimeout string `toml:"regex_timeout"`
	} `toml:"matcher"`
	Verifier config.Verifier `toml:"verifier"`
}

func newConfigView(cfg *config.Config) configView {
	v := configView{Run: cfg.Run, Output: cfg.Output, Verifier: cfg.Verifier}
	v.Store.Backup = cfg.Store.Backup
	v.Store.BackupSuffix = cfg.Store.BackupSuffix
	v.Store.FileMode = fmt.Sprintf("%04o", uint32(cfg.Store.FileMode.Perm()))
	v.Matcher.RegexTimeout = cfg.Matcher.RegexTimeout.String()
	return v
}

func newConfigCmd(a *app) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if defaults {
				_, err := fmt.Fprintln(out, config.GenerateConfigContent())
				return err
			}
			data, err := gotoml.Marshal(newConfigView(a.cfg))
			if err != nil {
				return errors.Wrap(err, errors.ErrInternal, "cannot encode configuration")
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)
	return cmd
}
