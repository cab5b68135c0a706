package verifier

import (
	"strings"

	"github.com/arthur-debert/dopatch/pkg/errors"
)

// region is a piece of scoped text and its byte offset in the source text
type region struct {
	text   string
	offset int
}

// afterRegions returns the scoped text of the candidate
func afterRegions(spec Spec, c Candidate) ([]region, error) {
	text := c.After.Text()
	switch spec.Scope {
	case ScopeBetweenMarkers:
		r, err := betweenMarkers(text, spec.Start, spec.End)
		if err != nil {
			return nil, err
		}
		return []region{r}, nil
	case ScopeReplacement:
		regions := make([]region, 0, len(c.Inserted))
		for _, rng := range c.Inserted {
			regions = append(regions, region{text: text[rng.Start:rng.End], offset: rng.Start})
		}
		return regions, nil
	default:
		return []region{{text: text}}, nil
	}
}

// beforeRegions returns the text the same scope covered before the rule ran.
// For the replacement scope that is the text the rule removed.
func beforeRegions(spec Spec, c Candidate) ([]region, error) {
	switch spec.Scope {
	case ScopeBetweenMarkers:
		r, err := betweenMarkers(c.Before.Text(), spec.Start, spec.End)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrMarkerNotFound, "markers missing before the rule ran")
		}
		return []region{r}, nil
	case ScopeReplacement:
		regions := make([]region, 0, len(c.Removed))
		for _, removed := range c.Removed {
			regions = append(regions, region{text: removed})
		}
		return regions, nil
	default:
		return []region{{text: c.Before.Text()}}, nil
	}
}

// betweenMarkers locates the first start marker and the first end marker
// after it. The region runs from the beginning of the start marker's line to
// the beginning of the end marker's line, or up to the end marker itself when
// both share a line.
func betweenMarkers(text, start, end string) (region, error) {
	i := strings.Index(text, start)
	if i < 0 {
		return region{}, errors.Newf(errors.ErrMarkerNotFound, "start marker %q not found", start).
			WithDetail("marker", start)
	}
	j := strings.Index(text[i+len(start):], end)
	if j < 0 {
		return region{}, errors.Newf(errors.ErrMarkerNotFound, "end marker %q not found after start marker %q", end, start).
			WithDetail("marker", end)
	}
	j += i + len(start)

	from := lineStart(text, i)
	to := lineStart(text, j)
	if to <= i {
		to = j
	}
	return region{text: text[from:to], offset: from}, nil
}

func lineStart(text string, offset int) int {
	return strings.LastIndexByte(text[:offset], '\n') + 1
}

// lineAt returns the 1-based line number of offset
func lineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}

func describeScope(spec Spec) string {
	switch spec.Scope {
	case ScopeBetweenMarkers:
		return "between " + quote(spec.Start) + " and " + quote(spec.End)
	case ScopeReplacement:
		return "the inserted text"
	default:
		return "the whole document"
	}
}

func quote(s string) string { return "\"" + s + "\"" }
