package orchestrator_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/dopatch/pkg/apply"
	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/orchestrator"
	"github.com/arthur-debert/dopatch/pkg/rules"
	"github.com/arthur-debert/dopatch/pkg/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepare(t *testing.T, list ...rules.Rule) []*rules.Compiled {
	t.Helper()
	compiled, err := orchestrator.Prepare(list, matcher.Options{})
	require.NoError(t, err)
	return compiled
}

func exact(id, find, replace string) rules.Rule {
	return rules.Rule{ID: id, Match: matcher.Exact{Literal: find}, Replacement: replace}
}

func outcomes(r *orchestrator.Result) []apply.Outcome {
	out := make([]apply.Outcome, len(r.Reports))
	for i, report := range r.Reports {
		out[i] = report.Outcome
	}
	return out
}

// r2 only matches after r1 ran
var (
	r1 = exact("r1", "<Dashboard />", "<Dashboard />\n<Promos />")
	r2 = exact("r2", "<Promos />", "<Promos admin />")
)

func TestRun_OrderSensitivity(t *testing.T) {
	doc := document.New("<main>\n<Dashboard />\n</main>")

	t.Run("r1_then_r2", func(t *testing.T) {
		result, err := orchestrator.Run(context.Background(), doc, prepare(t, r1, r2), orchestrator.Options{})
		require.NoError(t, err)
		assert.Equal(t, []apply.Outcome{apply.OutcomeApplied, apply.OutcomeApplied}, outcomes(result))
		assert.Equal(t, "<main>\n<Dashboard />\n<Promos admin />\n</main>", result.Final.Text())
		assert.Equal(t, 2, result.Final.Revision())
		assert.False(t, result.Halted)
	})

	t.Run("r2_then_r1_stops", func(t *testing.T) {
		result, err := orchestrator.Run(context.Background(), doc, prepare(t, r2, r1), orchestrator.Options{Halt: orchestrator.HaltStop})
		require.NoError(t, err)
		assert.Equal(t, []apply.Outcome{apply.OutcomeFailed, apply.OutcomeSkipped}, outcomes(result))
		assert.Equal(t, "wrong-match-count", result.Reports[0].Reason)
		assert.Equal(t, orchestrator.ReasonNotAttempted, result.Reports[1].Reason)
		assert.True(t, result.Halted)
		assert.True(t, doc.Equal(result.Final))
	})

	t.Run("r2_then_r1_continues", func(t *testing.T) {
		first := r2
		first.Policy = rules.ReplaceFirst
		result, err := orchestrator.Run(context.Background(), doc, prepare(t, first, r1), orchestrator.Options{Halt: orchestrator.HaltContinue})
		require.NoError(t, err)
		assert.Equal(t, []apply.Outcome{apply.OutcomeFailed, apply.OutcomeApplied}, outcomes(result))
		assert.Equal(t, "no-match", result.Reports[0].Reason)
		assert.Equal(t, 1, result.Final.Revision())
		assert.False(t, result.Halted)
	})
}

func TestRun_FailuresDoNotAdvanceTheDocument(t *testing.T) {
	doc := document.New("a b c")
	list := prepare(t,
		exact("to-A", "a", "A"),
		rules.Rule{
			ID: "unbalanced", Match: matcher.Exact{Literal: "b"}, Replacement: "(b",
			Verifier: &verifier.Spec{Open: "(", Close: ")"},
		},
		exact("to-C", "c", "C"),
		rules.Rule{ID: "maybe", Match: matcher.Exact{Literal: "zzz"}, Policy: rules.OptionalSkipIfAbsent},
	)

	result, err := orchestrator.Run(context.Background(), doc, list, orchestrator.Options{Halt: orchestrator.HaltContinue})
	require.NoError(t, err)
	require.Len(t, result.Reports, 4)

	assert.Equal(t, "A b C", result.Final.Text())
	assert.Equal(t, []int{1, 1, 2, 2}, []int{
		result.Reports[0].Revision, result.Reports[1].Revision,
		result.Reports[2].Revision, result.Reports[3].Revision,
	})

	failed := result.Reports[1]
	assert.Equal(t, "verification-failed", failed.Reason)
	assert.NotEmpty(t, failed.Detail)
	assert.Equal(t, 1, failed.Details["open"])
	assert.NotContains(t, failed.Details, "rule")
	require.NotNil(t, failed.Verified)
	assert.False(t, *failed.Verified)

	assert.Equal(t, apply.ReasonAbsent, result.Reports[3].Reason)
	assert.Equal(t, 2, result.Count(apply.OutcomeApplied))
	assert.Equal(t, 1, result.Count(apply.OutcomeFailed))
	assert.Equal(t, 1, result.Count(apply.OutcomeSkipped))
	assert.True(t, result.Changed())
}

func TestRun_StopReportsEveryRule(t *testing.T) {
	list := prepare(t,
		exact("one", "x", "y"),
		exact("two", "missing", "z"),
		exact("three", "y", "w"),
		exact("four", "y", "v"),
	)
	result, err := orchestrator.Run(context.Background(), document.New("x"), list, orchestrator.Options{})
	require.NoError(t, err)
	require.Len(t, result.Reports, 4)

	ids := make([]string, len(result.Reports))
	for i, r := range result.Reports {
		ids[i] = r.RuleID
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, ids)
	assert.Equal(t, []apply.Outcome{apply.OutcomeApplied, apply.OutcomeFailed, apply.OutcomeSkipped, apply.OutcomeSkipped}, outcomes(result))
	assert.Equal(t, "y", result.Final.Text(), "document after the last applied rule")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := orchestrator.Run(ctx, document.New("x"), prepare(t, exact("one", "x", "y")), orchestrator.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	assert.Nil(t, result)
}

func TestRun_InvalidHalt(t *testing.T) {
	_, err := orchestrator.Run(context.Background(), document.New("x"), nil, orchestrator.Options{Halt: "retry"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRun_EmptyList(t *testing.T) {
	doc := document.New("x")
	result, err := orchestrator.Run(context.Background(), doc, nil, orchestrator.Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Reports)
	assert.True(t, doc.Equal(result.Final))
	assert.False(t, result.Changed())
}

func TestPrepare_FailsFast(t *testing.T) {
	_, err := orchestrator.Prepare([]rules.Rule{
		exact("ok", "x", "y"),
		{ID: "bad", Match: matcher.Pattern{Expr: "(unclosed"}},
	}, matcher.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPattern))
}

func TestParseHalt(t *testing.T) {
	h, err := orchestrator.ParseHalt("")
	require.NoError(t, err)
	assert.Equal(t, orchestrator.HaltStop, h)

	h, err = orchestrator.ParseHalt("Continue")
	require.NoError(t, err)
	assert.Equal(t, orchestrator.HaltContinue, h)
}

func TestCheckDisjoint(t *testing.T) {
	doc := document.New("<header><nav>menu</nav></header><footer/>")
	list := prepare(t,
		exact("nav", "<nav>menu</nav>", ""),
		exact("menu", "menu", "items"),
		exact("footer", "<footer/>", ""),
		rules.Rule{ID: "tags", Match: matcher.Pattern{Expr: `<header>`}, Policy: rules.ReplaceAll},
	)

	overlaps, err := orchestrator.CheckDisjoint(doc, list)
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "nav", overlaps[0].First)
	assert.Equal(t, "menu", overlaps[0].Second)
	assert.Equal(t, "menu", overlaps[0].SecondSpan.Text())

	t.Run("disjoint_list", func(t *testing.T) {
		overlaps, err := orchestrator.CheckDisjoint(doc, list[2:])
		require.NoError(t, err)
		assert.Empty(t, overlaps)
	})

	t.Run("insertion_at_replacement_edge", func(t *testing.T) {
		doc := document.New("<main></main>")
		list := prepare(t,
			rules.Rule{ID: "prepend", Match: matcher.Pattern{Expr: `\A`}, Policy: rules.ReplaceFirst, Replacement: "<!-- app -->"},
			exact("open", "<main>", `<main id="app">`),
			rules.Rule{ID: "append", Match: matcher.Pattern{Expr: `\z`}, Policy: rules.ReplaceFirst, Replacement: "\n"},
		)

		overlaps, err := orchestrator.CheckDisjoint(doc, list)
		require.NoError(t, err)
		require.Len(t, overlaps, 1)
		assert.Equal(t, "prepend", overlaps[0].First)
		assert.Equal(t, "open", overlaps[0].Second)
		assert.Equal(t, 0, overlaps[0].FirstSpan.Start)
		assert.Equal(t, 0, overlaps[0].FirstSpan.End)
	})
}
