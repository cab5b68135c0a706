package apply

import (
	"sort"
	"strings"

	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/rules"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

func noMatch(doc document.Document, rule *rules.Compiled) *errors.DopatchError {
	err := errors.Newf(errors.ErrNoMatch, "%s matches nothing", rule.Match.String())
	if line, text, ok := closestLine(doc.Text(), rule.Match); ok {
		err.WithDetail("closest_line", line).WithDetail("closest_text", text)
	}
	return err
}

// closestLine looks for the document line nearest to the first non-blank
// line of an exact literal. Patterns get no hint.
func closestLine(text string, spec matcher.Spec) (int, string, bool) {
	literal := firstLiteral(spec)
	if literal == "" {
		return 0, "", false
	}

	var probe string
	for _, l := range strings.Split(literal, "\n") {
		if strings.TrimSpace(l) != "" {
			probe = strings.TrimSpace(l)
			break
		}
	}
	if probe == "" {
		return 0, "", false
	}

	lines := strings.Split(text, "\n")
	ranks := fuzzy.RankFindFold(probe, lines)
	if len(ranks) == 0 {
		return 0, "", false
	}
	sort.Stable(ranks)
	best := ranks[0]
	return best.OriginalIndex + 1, strings.TrimSpace(best.Target), true
}

func firstLiteral(spec matcher.Spec) string {
	switch s := spec.(type) {
	case matcher.Exact:
		return s.Literal
	case matcher.Fallback:
		for _, alt := range s.Alternatives {
			if lit := firstLiteral(alt); lit != "" {
				return lit
			}
		}
	}
	return ""
}
