package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/arthur-debert/dopatch/pkg/apply"
	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/internal/hashutil"
	"github.com/arthur-debert/dopatch/pkg/orchestrator"
	"github.com/arthur-debert/dopatch/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runResult(t *testing.T, halted bool, outcomes ...apply.Outcome) *orchestrator.Result {
	t.Helper()
	initial := document.New("before")
	final, _, err := initial.Apply([]document.Edit{{Start: 0, End: 6, Text: "after"}})
	require.NoError(t, err)

	result := &orchestrator.Result{Initial: initial, Final: final, Halt: orchestrator.HaltContinue, Halted: halted}
	if halted {
		result.Halt = orchestrator.HaltStop
	}
	for i, o := range outcomes {
		rep := orchestrator.RuleReport{RuleID: string(rune('a' + i)), Outcome: o, Revision: 1}
		if o == apply.OutcomeFailed {
			rep.Reason = "no-match"
			rep.Detail = "exact \"x\" matches nothing"
			rep.Details = map[string]interface{}{"closest_line": 7}
		}
		result.Reports = append(result.Reports, rep)
	}
	return result
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		halted     bool
		outcomes   []apply.Outcome
		wantStatus report.Status
		wantExit   int
	}{
		{"all_applied", false, []apply.Outcome{apply.OutcomeApplied, apply.OutcomeApplied}, report.StatusSuccess, report.ExitSuccess},
		{"skips_are_success", false, []apply.Outcome{apply.OutcomeApplied, apply.OutcomeSkipped}, report.StatusSuccess, report.ExitSuccess},
		{"failure_under_continue", false, []apply.Outcome{apply.OutcomeApplied, apply.OutcomeFailed}, report.StatusPartial, report.ExitPartial},
		{"halted", true, []apply.Outcome{apply.OutcomeFailed, apply.OutcomeSkipped}, report.StatusHalted, report.ExitHalted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := report.Summarize("App.tsx", runResult(t, tt.halted, tt.outcomes...))
			assert.Equal(t, tt.wantStatus, s.Status)
			assert.Equal(t, tt.wantExit, s.ExitCode())
			assert.Equal(t, len(tt.outcomes), len(s.Rules))
			assert.Equal(t, 1, s.Revision)
			assert.True(t, s.Changed)
			assert.Equal(t, hashutil.Checksum("after"), s.Checksum)
		})
	}

	t.Run("failures_list_rule_and_reason", func(t *testing.T) {
		s := report.Summarize("", runResult(t, false, apply.OutcomeApplied, apply.OutcomeFailed))
		require.Len(t, s.Failures, 1)
		assert.Equal(t, report.Failure{Rule: "b", Reason: "no-match", Detail: "exact \"x\" matches nothing"}, s.Failures[0])
	})
}

func TestAccepted(t *testing.T) {
	assert.True(t, report.Summary{Status: report.StatusSuccess}.Accepted(false))
	assert.False(t, report.Summary{Status: report.StatusPartial}.Accepted(false))
	assert.True(t, report.Summary{Status: report.StatusPartial}.Accepted(true))
	assert.False(t, report.Summary{Status: report.StatusHalted}.Accepted(true))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    report.Format
		wantErr bool
	}{
		{"", report.FormatAuto, false},
		{"term", report.FormatTerminal, false},
		{"plain", report.FormatText, false},
		{"JSON", report.FormatJSON, false},
		{"yml", report.FormatYAML, false},
		{"xml", report.FormatAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := report.ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.input != "" {
				assert.NotEqual(t, "unknown", got.String())
			}
		})
	}
}

func TestResolve(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, report.FormatText, report.Resolve(report.FormatAuto, &buf))
	assert.Equal(t, report.FormatJSON, report.Resolve(report.FormatJSON, &buf))

	// a regular file is never a terminal
	f, err := os.CreateTemp(t.TempDir(), "report")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, report.FormatText, report.Resolve(report.FormatAuto, f))
	assert.Equal(t, report.FormatTerminal, report.Resolve(report.FormatTerminal, f))
}

func TestRender_JSON(t *testing.T) {
	s := report.Summarize("App.tsx", runResult(t, true, apply.OutcomeFailed, apply.OutcomeSkipped))

	var buf bytes.Buffer
	r, err := report.NewRenderer(report.FormatJSON, &buf)
	require.NoError(t, err)
	require.NoError(t, r.Render(s))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "halted", decoded["status"])
	assert.Equal(t, "stop", decoded["halt"])
	rulesOut, ok := decoded["rules"].([]interface{})
	require.True(t, ok)
	require.Len(t, rulesOut, 2)
	first := rulesOut[0].(map[string]interface{})
	assert.Equal(t, "a", first["rule"])
	assert.Equal(t, "failed", first["outcome"])
	assert.Equal(t, "no-match", first["reason"])
}

func TestRender_YAML(t *testing.T) {
	s := report.Summarize("App.tsx", runResult(t, false, apply.OutcomeApplied))

	var buf bytes.Buffer
	r, err := report.NewRenderer(report.FormatYAML, &buf)
	require.NoError(t, err)
	require.NoError(t, r.Render(s))

	var decoded struct {
		Status string `yaml:"status"`
		Target string `yaml:"target"`
		Rules  []struct {
			Rule    string `yaml:"rule"`
			Outcome string `yaml:"outcome"`
		} `yaml:"rules"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "success", decoded.Status)
	assert.Equal(t, "App.tsx", decoded.Target)
	require.Len(t, decoded.Rules, 1)
	assert.Equal(t, "applied", decoded.Rules[0].Outcome)
}

func TestRender_Text(t *testing.T) {
	s := report.Summarize("App.tsx", runResult(t, true, apply.OutcomeApplied, apply.OutcomeFailed, apply.OutcomeSkipped))

	var buf bytes.Buffer
	r, err := report.NewRenderer(report.FormatText, &buf)
	require.NoError(t, err)
	require.NoError(t, r.Render(s))

	out := buf.String()
	assert.Contains(t, out, "dopatch App.tsx [halted]")
	assert.Contains(t, out, "RULE")
	assert.Contains(t, out, "failed (no-match)")
	assert.Contains(t, out, "closest: line 7")
	assert.Contains(t, out, "1 applied, 1 skipped, 1 failed")
	assert.Contains(t, out, "nothing written")

	t.Run("written_with_backup", func(t *testing.T) {
		s := report.Summarize("App.tsx", runResult(t, false, apply.OutcomeApplied))
		s.Written = true
		s.Backup = "App.tsx.backup"

		var buf bytes.Buffer
		r, err := report.NewRenderer(report.FormatText, &buf)
		require.NoError(t, err)
		require.NoError(t, r.Render(s))
		assert.Contains(t, buf.String(), "written at revision 1, backup in App.tsx.backup")
	})
}
