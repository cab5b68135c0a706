package orchestrator

import (
	"context"
	"strings"

	"github.com/arthur-debert/dopatch/pkg/apply"
	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/rules"
)

// HaltPolicy decides whether a failed rule ends the run
type HaltPolicy string

const (
	// HaltStop ends the run at the first failure. The default.
	HaltStop HaltPolicy = "stop"
	// HaltContinue attempts every rule
	HaltContinue HaltPolicy = "continue"
)

// ParseHalt parses a halt policy; the empty string selects HaltStop
func ParseHalt(s string) (HaltPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop", "stop-on-first-failure":
		return HaltStop, nil
	case "continue", "continue-past-failures":
		return HaltContinue, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown halt policy %q", s).
			WithDetail("halt", s)
	}
}

// ReasonNotAttempted marks the rules left over after a halted run
const ReasonNotAttempted = "not-attempted"

// Options configure a run
type Options struct {
	Halt HaltPolicy
}

// RuleReport is the record of one rule in one run
type RuleReport struct {
	RuleID      string                 `json:"rule" yaml:"rule"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Outcome     apply.Outcome          `json:"outcome" yaml:"outcome"`
	Reason      string                 `json:"reason,omitempty" yaml:"reason,omitempty"`
	Detail      string                 `json:"detail,omitempty" yaml:"detail,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	MatchCount  int                    `json:"matches" yaml:"matches"`
	Replaced    int                    `json:"replaced" yaml:"replaced"`
	Verified    *bool                  `json:"verified,omitempty" yaml:"verified,omitempty"`
	Revision    int                    `json:"revision" yaml:"revision"`
}

// Result is the outcome of a run. Reports are in rule order, one per rule.
type Result struct {
	Initial document.Document
	Final   document.Document
	Reports []RuleReport
	Halt    HaltPolicy
	Halted  bool
}

// Count returns how many reports have the given outcome
func (r *Result) Count(outcome apply.Outcome) int {
	n := 0
	for _, report := range r.Reports {
		if report.Outcome == outcome {
			n++
		}
	}
	return n
}

// Changed reports whether the final document differs from the initial one
func (r *Result) Changed() bool {
	return r.Final.Text() != r.Initial.Text()
}

// Prepare validates a rule list before anything is applied. Any error is
// fatal for the whole batch.
func Prepare(list []rules.Rule, opts matcher.Options) ([]*rules.Compiled, error) {
	logger := logging.GetLogger("orchestrator")

	compiled, err := rules.CompileAll(list, opts)
	if err != nil {
		logger.Error().Err(err).Msg("Rule list is invalid")
		return nil, err
	}
	logger.Debug().Int("rules", len(compiled)).Msg("Rule list prepared")
	return compiled, nil
}

// Run applies the rules in order, threading each applied result into the
// next rule. Rules are never retried or reordered. A cancelled context
// returns a CANCELLED error and no result.
func Run(ctx context.Context, doc document.Document, list []*rules.Compiled, opts Options) (*Result, error) {
	logger := logging.GetLogger("orchestrator")

	halt, err := ParseHalt(string(opts.Halt))
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int("rules", len(list)).
		Str("halt", string(halt)).
		Int("bytes", doc.Len()).
		Msg("Starting run")
	done := logging.LogOperationStart(logger, "run")
	defer done()

	result := &Result{
		Initial: doc,
		Halt:    halt,
		Reports: make([]RuleReport, 0, len(list)),
	}

	current := doc
	for i, rule := range list {
		if err := ctx.Err(); err != nil {
			logger.Warn().Int("completed", i).Msg("Run cancelled, discarding candidate")
			return nil, errors.Wrap(err, errors.ErrCancelled, "run cancelled").
				WithDetail("completed", i)
		}

		if result.Halted {
			result.Reports = append(result.Reports, RuleReport{
				RuleID:      rule.ID,
				Description: rule.Description,
				Outcome:     apply.OutcomeSkipped,
				Reason:      ReasonNotAttempted,
				Revision:    current.Revision(),
			})
			continue
		}

		applied, err := apply.Apply(current, rule)
		report := RuleReport{
			RuleID:      rule.ID,
			Description: rule.Description,
			Outcome:     applied.Outcome,
			Reason:      applied.Reason,
			MatchCount:  applied.MatchCount,
			Replaced:    applied.Replaced,
			Verified:    applied.Verified,
			Revision:    applied.Doc.Revision(),
		}
		if err != nil {
			report.Detail = errors.GetMessage(err)
			report.Details = reportDetails(err)
			logger.Info().
				Str("rule", rule.ID).
				Str("reason", report.Reason).
				Msg(report.Detail)
			if halt == HaltStop {
				result.Halted = true
			}
		} else {
			logger.Debug().
				Str("rule", rule.ID).
				Str("outcome", string(report.Outcome)).
				Int("revision", report.Revision).
				Msg("Rule finished")
		}
		result.Reports = append(result.Reports, report)
		current = applied.Doc
	}

	result.Final = current
	logger.Info().
		Int("applied", result.Count(apply.OutcomeApplied)).
		Int("skipped", result.Count(apply.OutcomeSkipped)).
		Int("failed", result.Count(apply.OutcomeFailed)).
		Bool("halted", result.Halted).
		Msg("Run completed")
	return result, nil
}

// reportDetails copies the error details without the rule id, which the
// report already carries
func reportDetails(err error) map[string]interface{} {
	details := errors.GetErrorDetails(err)
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		if k != "rule" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
