package apply

import (
	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/rules"
	"github.com/arthur-debert/dopatch/pkg/verifier"
)

// Outcome is how a rule ended
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// ReasonAbsent is the skip reason of an optional rule that found nothing
const ReasonAbsent = "absent"

// Result describes one rule application. Doc is always the document to
// continue from: the candidate when the rule applied, the input otherwise.
type Result struct {
	Doc        document.Document
	Outcome    Outcome
	Reason     string
	MatchCount int
	Replaced   int

	// Verified is nil when the rule has no verifier or never reached it
	Verified *bool
}

// Apply runs one compiled rule against doc. doc is never modified. A failed
// rule returns a Result with OutcomeFailed together with the error that
// explains it.
func Apply(doc document.Document, rule *rules.Compiled) (Result, error) {
	logger := logging.GetLogger("apply").With().Str("rule", rule.ID).Logger()

	result := Result{Doc: doc, Outcome: OutcomeFailed}
	fail := func(err *errors.DopatchError) (Result, error) {
		result.Reason = errors.Reason(err.Code)
		logger.Debug().Str("reason", result.Reason).Msg(err.Message)
		return result, err.WithDetail("rule", rule.ID)
	}

	spans, err := rule.Matcher.Find(doc.Text())
	if err != nil {
		return fail(asDopatchError(err))
	}
	result.MatchCount = len(spans)

	var selected []matcher.Span
	switch rule.Policy {
	case rules.RequireExactlyOne:
		if len(spans) != 1 {
			return fail(errors.Newf(errors.ErrWrongMatchCount,
				"expected exactly one match of %s, found %d", rule.Match.String(), len(spans)).
				WithDetail("count", len(spans)))
		}
		selected = spans
	case rules.ReplaceAll:
		if len(spans) == 0 {
			return fail(noMatch(doc, rule))
		}
		selected = spans
	case rules.ReplaceFirst:
		if len(spans) == 0 {
			return fail(noMatch(doc, rule))
		}
		selected = spans[:1]
	case rules.OptionalSkipIfAbsent:
		if len(spans) == 0 {
			result.Outcome = OutcomeSkipped
			result.Reason = ReasonAbsent
			logger.Debug().Msg("No match, optional rule skipped")
			return result, nil
		}
		selected = spans[:1]
	default:
		return fail(errors.Newf(errors.ErrInternal, "unknown policy %d", rule.Policy))
	}

	edits := make([]document.Edit, len(selected))
	removed := make([]string, len(selected))
	for i, span := range selected {
		text, err := rule.Template.Expand(span)
		if err != nil {
			return fail(asDopatchError(err).WithDetail("match", i))
		}
		edits[i] = document.Edit{Start: span.Start, End: span.End, Text: text}
		removed[i] = span.Text()
	}

	candidate, inserted, err := doc.Apply(edits)
	if err != nil {
		return fail(asDopatchError(err))
	}

	if rule.Check != nil {
		verr := rule.Check.Check(verifier.Candidate{
			Before:   doc,
			After:    candidate,
			Inserted: inserted,
			Removed:  removed,
		})
		verified := verr == nil
		result.Verified = &verified
		if verr != nil {
			return fail(asDopatchError(verr))
		}
	}

	result.Doc = candidate
	result.Outcome = OutcomeApplied
	result.Replaced = len(edits)
	logger.Debug().
		Int("matches", result.MatchCount).
		Int("replaced", result.Replaced).
		Int("revision", candidate.Revision()).
		Msg("Rule applied")
	return result, nil
}

func asDopatchError(err error) *errors.DopatchError {
	if de, ok := err.(*errors.DopatchError); ok {
		return de
	}
	return errors.Wrap(err, errors.GetErrorCode(err), errors.GetMessage(err))
}
