package dopatch

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/verifier"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	kind  string
	open  string
	close string
	pairs []string
	start string
	end   string
}

func newCheckCmd(a *app) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:     "check TARGET",
		Short:   MsgCheckShort,
		Long:    MsgCheckLong,
		Example: MsgCheckExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := opts.spec()
			if err != nil {
				return err
			}
			v, err := verifier.Build(spec)
			if err != nil {
				return err
			}

			store := document.NewStore(a.fs, a.cfg.StoreOptions())
			doc, err := a.loadTarget(cmd, store, args[0])
			if err != nil {
				return err
			}
			if err := verifier.CheckDocument(v, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgCheckPassed, v.Spec())
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", string(verifier.KindPairs), MsgFlagKind)
	cmd.Flags().StringVar(&opts.open, "open", "", MsgFlagOpen)
	cmd.Flags().StringVar(&opts.close, "close", "", MsgFlagClose)
	cmd.Flags().StringArrayVar(&opts.pairs, "pair", nil, MsgFlagPair)
	cmd.Flags().StringVar(&opts.start, "start", "", MsgFlagStart)
	cmd.Flags().StringVar(&opts.end, "end", "", MsgFlagEnd)

	return cmd
}

func (o checkOptions) spec() (verifier.Spec, error) {
	spec := verifier.Spec{
		Kind:  verifier.Kind(strings.ToLower(o.kind)),
		Open:  o.open,
		Close: o.close,
		Scope: verifier.ScopeWholeDocument,
	}

	for _, p := range o.pairs {
		open, closeToken, ok := strings.Cut(p, ":")
		if !ok || open == "" || closeToken == "" {
			return spec, errors.Newf(errors.ErrInvalidInput, MsgErrPairFormat, p)
		}
		if spec.Open == "" && spec.Close == "" {
			spec.Open, spec.Close = open, closeToken
			continue
		}
		spec.Pairs = append(spec.Pairs, verifier.Pair{Open: open, Close: closeToken})
	}
	if spec.Kind != verifier.KindXML && (spec.Open == "" || spec.Close == "") {
		return spec, errors.New(errors.ErrInvalidInput, MsgErrNoPair)
	}

	switch {
	case o.start != "" && o.end != "":
		spec.Scope = verifier.ScopeBetweenMarkers
		spec.Start, spec.End = o.start, o.end
	case o.start != "" || o.end != "":
		return spec, errors.New(errors.ErrInvalidInput, MsgErrMarkersPaired)
	}
	return spec, nil
}
