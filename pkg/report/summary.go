package report

import (
	"github.com/arthur-debert/dopatch/pkg/apply"
	"github.com/arthur-debert/dopatch/pkg/internal/hashutil"
	"github.com/arthur-debert/dopatch/pkg/orchestrator"
)

// Status is the overall verdict of a run
type Status string

const (
	// StatusSuccess means every rule applied or was intentionally skipped
	StatusSuccess Status = "success"
	// StatusPartial means some rules failed under the continue halt policy
	StatusPartial Status = "partial"
	// StatusHalted means the run stopped at a failure
	StatusHalted Status = "halted"
)

// Process exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
	ExitHalted  = 3
)

// Failure names a rule that did not apply and why
type Failure struct {
	Rule   string `json:"rule" yaml:"rule"`
	Reason string `json:"reason" yaml:"reason"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Summary is everything the CLI reports about one run
type Summary struct {
	Status   Status                    `json:"status" yaml:"status"`
	Target   string                    `json:"target,omitempty" yaml:"target,omitempty"`
	Halt     string                    `json:"halt" yaml:"halt"`
	Applied  int                       `json:"applied" yaml:"applied"`
	Skipped  int                       `json:"skipped" yaml:"skipped"`
	Failed   int                       `json:"failed" yaml:"failed"`
	Revision int                       `json:"revision" yaml:"revision"`
	Changed  bool                      `json:"changed" yaml:"changed"`
	Checksum string                    `json:"checksum" yaml:"checksum"`
	Written  bool                      `json:"written" yaml:"written"`
	DryRun   bool                      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Backup   string                    `json:"backup,omitempty" yaml:"backup,omitempty"`
	Failures []Failure                 `json:"failures,omitempty" yaml:"failures,omitempty"`
	Rules    []orchestrator.RuleReport `json:"rules" yaml:"rules"`
}

// Summarize derives the summary of a run
func Summarize(target string, result *orchestrator.Result) Summary {
	s := Summary{
		Target:   target,
		Halt:     string(result.Halt),
		Applied:  result.Count(apply.OutcomeApplied),
		Skipped:  result.Count(apply.OutcomeSkipped),
		Failed:   result.Count(apply.OutcomeFailed),
		Revision: result.Final.Revision(),
		Changed:  result.Changed(),
		Checksum: hashutil.Checksum(result.Final.Text()),
		Rules:    result.Reports,
	}

	for _, r := range result.Reports {
		if r.Outcome == apply.OutcomeFailed {
			s.Failures = append(s.Failures, Failure{Rule: r.RuleID, Reason: r.Reason, Detail: r.Detail})
		}
	}

	switch {
	case result.Halted:
		s.Status = StatusHalted
	case s.Failed > 0:
		s.Status = StatusPartial
	default:
		s.Status = StatusSuccess
	}
	return s
}

// ExitCode maps the status to the process exit code
func (s Summary) ExitCode() int {
	switch s.Status {
	case StatusSuccess:
		return ExitSuccess
	case StatusPartial:
		return ExitPartial
	case StatusHalted:
		return ExitHalted
	default:
		return ExitError
	}
}

// Accepted reports whether the final document may be persisted. A partial
// run is only accepted when the caller opts in.
func (s Summary) Accepted(acceptPartial bool) bool {
	switch s.Status {
	case StatusSuccess:
		return true
	case StatusPartial:
		return acceptPartial
	default:
		return false
	}
}
