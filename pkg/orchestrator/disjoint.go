package orchestrator

import (
	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/rules"
)

// Overlap is a pair of rules whose spans intersect in the same document
type Overlap struct {
	First      string       `json:"first" yaml:"first"`
	Second     string       `json:"second" yaml:"second"`
	FirstSpan  matcher.Span `json:"-" yaml:"-"`
	SecondSpan matcher.Span `json:"-" yaml:"-"`
}

// CheckDisjoint matches every rule against the same revision of doc and
// reports each pair of rules with intersecting spans. Only rules whose
// match ranges are pairwise disjoint could be applied independently of each
// other. Every span counts, whatever the rule's policy.
func CheckDisjoint(doc document.Document, list []*rules.Compiled) ([]Overlap, error) {
	spans := make([][]matcher.Span, len(list))
	for i, rule := range list {
		found, err := rule.Matcher.Find(doc.Text())
		if err != nil {
			if de, ok := err.(*errors.DopatchError); ok {
				return nil, de.WithDetail("rule", rule.ID)
			}
			return nil, err
		}
		spans[i] = found
	}

	var overlaps []Overlap
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if a, b, ok := firstOverlap(spans[i], spans[j]); ok {
				overlaps = append(overlaps, Overlap{
					First:      list[i].ID,
					Second:     list[j].ID,
					FirstSpan:  a,
					SecondSpan: b,
				})
			}
		}
	}
	return overlaps, nil
}

func firstOverlap(a, b []matcher.Span) (matcher.Span, matcher.Span, bool) {
	for _, x := range a {
		for _, y := range b {
			if x.Overlaps(y) {
				return x, y, true
			}
		}
	}
	return matcher.Span{}, matcher.Span{}, false
}
