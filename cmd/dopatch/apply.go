package dopatch

import (
	"fmt"
	"io"
	"time"

	"github.com/arthur-debert/dopatch/pkg/diff"
	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/arthur-debert/dopatch/pkg/orchestrator"
	"github.com/arthur-debert/dopatch/pkg/report"
	"github.com/arthur-debert/dopatch/pkg/rules"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// stdio stands for stdin as a target and stdout as an output
const stdio = "-"

type applyOptions struct {
	dryRun        bool
	cont          bool
	halt          string
	showDiff      bool
	format        string
	backup        bool
	acceptPartial bool
	output        string
	timeout       time.Duration
}

func newApplyCmd(a *app) *cobra.Command {
	var opts applyOptions

	cmd := &cobra.Command{
		Use:     "apply RULES TARGET",
		Short:   MsgApplyShort,
		Long:    MsgApplyLong,
		Example: MsgApplyExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("backup") {
				opts.backup = a.cfg.Store.Backup
			}
			if !flags.Changed("accept-partial") {
				opts.acceptPartial = a.cfg.Run.AcceptPartial
			}
			if !flags.Changed("format") {
				opts.format = a.cfg.Output.Format
			}
			return a.runApply(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, MsgFlagDryRun)
	cmd.Flags().BoolVar(&opts.cont, "continue", false, MsgFlagContinue)
	cmd.Flags().StringVar(&opts.halt, "halt", "", MsgFlagHalt)
	cmd.Flags().BoolVarP(&opts.showDiff, "diff", "d", false, MsgFlagDiff)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "auto", MsgFlagFormat)
	cmd.Flags().BoolVar(&opts.backup, "backup", false, MsgFlagBackup)
	cmd.Flags().BoolVar(&opts.acceptPartial, "accept-partial", false, MsgFlagAcceptPartial)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", MsgFlagOutput)
	cmd.Flags().DurationVar(&opts.timeout, "regex-timeout", 0, MsgFlagTimeout)
	cmd.MarkFlagsMutuallyExclusive("continue", "halt")

	return cmd
}

func (a *app) runApply(cmd *cobra.Command, rulesPath, target string, opts applyOptions) error {
	logger := logging.WithFields(map[string]interface{}{"component": "cmd.apply", "rules": rulesPath, "target": target})
	ctx := cmd.Context()

	file, err := rules.NewLoader(a.fs).Load(rulesPath)
	if err != nil {
		return err
	}

	halt, err := a.resolveHalt(opts, file)
	if err != nil {
		return err
	}
	scope, err := a.cfg.VerifierScope()
	if err != nil {
		return err
	}
	list, err := file.ToRules(scope)
	if err != nil {
		return err
	}

	matcherOpts := a.cfg.MatcherOptions()
	if opts.timeout > 0 {
		matcherOpts.Timeout = opts.timeout
	}
	compiled, err := orchestrator.Prepare(list, matcherOpts)
	if err != nil {
		return err
	}

	storeOpts := a.cfg.StoreOptions()
	storeOpts.Backup = opts.backup
	store := document.NewStore(a.fs, storeOpts)

	doc, err := a.loadTarget(cmd, store, target)
	if err != nil {
		return err
	}

	logger.Info().
		Str("rules", rulesPath).
		Str("target", target).
		Int("count", len(compiled)).
		Str("halt", string(halt)).
		Bool("dryRun", opts.dryRun).
		Msg("Applying rules")

	result, err := orchestrator.Run(ctx, doc, compiled, orchestrator.Options{Halt: halt})
	if err != nil {
		return err
	}

	summary := report.Summarize(target, result)
	summary.DryRun = opts.dryRun

	// The report goes to stderr when stdout carries the document
	dest := target
	if opts.output != "" {
		dest = opts.output
	}
	reportOut := cmd.OutOrStdout()
	if dest == stdio {
		reportOut = cmd.ErrOrStderr()
	}

	if !opts.dryRun && summary.Accepted(opts.acceptPartial) {
		written, backup, err := a.persist(cmd, store, target, dest, result)
		if err != nil {
			return err
		}
		summary.Written = written
		summary.Backup = backup
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	format = report.Resolve(format, reportOut)

	if opts.showDiff {
		if err := writeDiff(reportOut, target, result, a.cfg.Output.DiffContext, format == report.FormatTerminal); err != nil {
			return err
		}
	}

	renderer, err := report.NewRenderer(format, reportOut)
	if err != nil {
		return err
	}
	if err := renderer.Render(summary); err != nil {
		return err
	}

	logger.Info().
		Str("status", string(summary.Status)).
		Int("applied", summary.Applied).
		Int("failed", summary.Failed).
		Bool("written", summary.Written).
		Msg("Run finished")

	if code := summary.ExitCode(); code != report.ExitSuccess {
		return &ExitError{
			Code:   code,
			Status: summary.Status,
			Err:    fmt.Errorf(MsgRunNotAccepted, summary.Status, summary.Failed),
		}
	}
	return nil
}

// resolveHalt picks the halt policy: flags, then the rules file, then config
func (a *app) resolveHalt(opts applyOptions, file *rules.File) (orchestrator.HaltPolicy, error) {
	switch {
	case opts.cont:
		return orchestrator.HaltContinue, nil
	case opts.halt != "":
		return orchestrator.ParseHalt(opts.halt)
	case file.Halt != "":
		return orchestrator.ParseHalt(file.Halt)
	default:
		return a.cfg.HaltPolicy()
	}
}

func (a *app) loadTarget(cmd *cobra.Command, store *document.Store, target string) (document.Document, error) {
	if target != stdio {
		return store.Load(cmd.Context(), target)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return document.Document{}, errors.Wrap(err, errors.ErrFileRead, "cannot read stdin")
	}
	return document.New(string(data)), nil
}

// persist writes the final document. An unchanged document is only written
// when it goes somewhere other than the target.
func (a *app) persist(cmd *cobra.Command, store *document.Store, target, dest string, result *orchestrator.Result) (bool, string, error) {
	if dest == stdio {
		_, err := io.WriteString(cmd.OutOrStdout(), result.Final.Text())
		if err != nil {
			return false, "", errors.Wrap(err, errors.ErrFileWrite, "cannot write stdout")
		}
		return true, "", nil
	}
	if dest == target && !result.Changed() {
		return false, "", nil
	}

	_, statErr := a.fs.Stat(dest)
	existed := statErr == nil

	if err := store.Save(cmd.Context(), dest, result.Final); err != nil {
		return false, "", err
	}

	var backup string
	if existed && store.Backup() {
		backup = store.BackupPath(dest)
	}
	return true, backup, nil
}

func writeDiff(w io.Writer, target string, result *orchestrator.Result, context int, styled bool) error {
	d := diff.Compute(target, target+" (patched)", result.Initial.Text(), result.Final.Text(), context)
	if d.Empty() {
		_, err := io.WriteString(w, MsgDiffUnchanged)
		return err
	}

	var color diff.Colorizer
	if styled {
		color = func(t diff.LineType, line string) string {
			switch t {
			case diff.LineAdded:
				return pterm.FgGreen.Sprint(line)
			case diff.LineRemoved:
				return pterm.FgRed.Sprint(line)
			default:
				return line
			}
		}
	}
	if err := d.Write(w, color); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
