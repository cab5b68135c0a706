package matcher

import (
	"iter"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single backtracking match
const DefaultTimeout = 5 * time.Second

// Span is one located occurrence. Start and End are byte offsets with
// 0 <= Start <= End <= len(text). Groups[0] is the whole match and Groups[i]
// the i-th capture group ("" when the group did not participate). Names is
// parallel to Groups, with "" for unnamed groups.
type Span struct {
	Start  int
	End    int
	Groups []string
	Names  []string
}

// Text returns the matched text
func (s Span) Text() string {
	if len(s.Groups) == 0 {
		return ""
	}
	return s.Groups[0]
}

// Overlaps reports whether two spans share at least one byte. An empty span
// overlaps any span whose range includes its offset, boundaries included:
// an insertion at either edge of a replacement depends on which runs first.
func (s Span) Overlaps(other Span) bool {
	switch {
	case s.Start == s.End:
		return s.Start >= other.Start && s.Start <= other.End
	case other.Start == other.End:
		return other.Start >= s.Start && other.Start <= s.End
	default:
		return s.Start < other.End && other.Start < s.End
	}
}

// Matcher finds the spans of a compiled Spec. Every call is independent and
// free of side effects, so iterating twice yields the same spans.
type Matcher interface {
	// Spec returns the spec this matcher was compiled from
	Spec() Spec

	// All yields the spans in order. A non-nil error ends the sequence.
	// Exact and backtrack matchers search on demand as the sequence is
	// consumed; the re2 matcher runs its search when iteration starts.
	All(text string) iter.Seq2[Span, error]

	// Find collects all spans
	Find(text string) ([]Span, error)
}

// Options tune compilation
type Options struct {
	// Timeout bounds each backtracking match; 0 means DefaultTimeout
	Timeout time.Duration
}

// Compile validates a spec and builds its matcher. Invalid specs return an
// ErrPattern error.
func Compile(spec Spec) (Matcher, error) {
	return CompileWithOptions(spec, Options{})
}

// CompileWithOptions is Compile with explicit options
func CompileWithOptions(spec Spec, opts Options) (Matcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	switch s := spec.(type) {
	case Exact:
		if s.Literal == "" {
			return nil, errors.New(errors.ErrPattern, "exact matcher needs a non-empty literal")
		}
		return &exactMatcher{spec: s}, nil
	case Pattern:
		return compilePattern(s, opts)
	case Fallback:
		return compileFallback(s, opts)
	case nil:
		return nil, errors.New(errors.ErrPattern, "missing matcher")
	default:
		return nil, errors.Newf(errors.ErrPattern, "unsupported matcher kind %q", spec.Kind())
	}
}

func collect(seq iter.Seq2[Span, error]) ([]Span, error) {
	var spans []Span
	for span, err := range seq {
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}

type exactMatcher struct {
	spec Exact
}

func (m *exactMatcher) Spec() Spec { return m.spec }

func (m *exactMatcher) All(text string) iter.Seq2[Span, error] {
	lit := m.spec.Literal
	return func(yield func(Span, error) bool) {
		pos := 0
		for pos <= len(text) {
			i := strings.Index(text[pos:], lit)
			if i < 0 {
				return
			}
			start := pos + i
			end := start + len(lit)
			if !yield(Span{Start: start, End: end, Groups: []string{lit}, Names: []string{""}}, nil) {
				return
			}
			pos = end
		}
	}
}

func (m *exactMatcher) Find(text string) ([]Span, error) { return collect(m.All(text)) }

func compilePattern(p Pattern, opts Options) (Matcher, error) {
	for _, f := range p.Flags {
		if _, err := ParseFlag(string(f)); err != nil {
			return nil, err
		}
	}
	engine, err := ParseEngine(string(p.Engine))
	if err != nil {
		return nil, err
	}
	p.Engine = engine

	switch engine {
	case EngineBacktrack:
		var ropts regexp2.RegexOptions
		if p.has(FlagMultiline) {
			ropts |= regexp2.Multiline
		}
		if p.has(FlagDotAll) {
			ropts |= regexp2.Singleline
		}
		if p.has(FlagIgnoreCase) {
			ropts |= regexp2.IgnoreCase
		}
		re, err := regexp2.Compile(p.Expr, ropts)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPattern, "invalid pattern %s", p.String()).
				WithDetail("expr", p.Expr)
		}
		re.MatchTimeout = opts.Timeout
		return &backtrackMatcher{spec: p, re: re}, nil
	default:
		var modes string
		if p.has(FlagMultiline) {
			modes += "m"
		}
		if p.has(FlagDotAll) {
			modes += "s"
		}
		if p.has(FlagIgnoreCase) {
			modes += "i"
		}
		expr := p.Expr
		if modes != "" {
			expr = "(?" + modes + ")" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPattern, "invalid pattern %s", p.String()).
				WithDetail("expr", p.Expr)
		}
		return &re2Matcher{spec: p, re: re}, nil
	}
}

type re2Matcher struct {
	spec Pattern
	re   *regexp.Regexp
}

func (m *re2Matcher) Spec() Spec { return m.spec }

// All runs FindAllStringSubmatchIndex once iteration starts: regexp has no
// resumable search that keeps anchors and word boundaries intact.
func (m *re2Matcher) All(text string) iter.Seq2[Span, error] {
	return func(yield func(Span, error) bool) {
		names := m.re.SubexpNames()
		for _, loc := range m.re.FindAllStringSubmatchIndex(text, -1) {
			groups := make([]string, len(loc)/2)
			for g := range groups {
				if loc[2*g] >= 0 {
					groups[g] = text[loc[2*g]:loc[2*g+1]]
				}
			}
			if !yield(Span{Start: loc[0], End: loc[1], Groups: groups, Names: names}, nil) {
				return
			}
		}
	}
}

func (m *re2Matcher) Find(text string) ([]Span, error) { return collect(m.All(text)) }

type backtrackMatcher struct {
	spec Pattern
	re   *regexp2.Regexp
}

func (m *backtrackMatcher) Spec() Spec { return m.spec }

// All converts regexp2's rune offsets to byte offsets. Groups are sliced
// from text so bytes that are not valid UTF-8 come back unchanged.
func (m *backtrackMatcher) All(text string) iter.Seq2[Span, error] {
	return func(yield func(Span, error) bool) {
		offsets := runeOffsets(text)
		match, err := m.re.FindStringMatch(text)
		for {
			if err != nil {
				yield(Span{}, errors.Wrapf(err, errors.ErrMatchTimeout,
					"pattern %s gave up after %s", m.spec.String(), m.re.MatchTimeout))
				return
			}
			if match == nil {
				return
			}

			groups := match.Groups()
			span := Span{
				Start:  offsets[match.Index],
				End:    offsets[match.Index+match.Length],
				Groups: make([]string, len(groups)),
				Names:  make([]string, len(groups)),
			}
			for i, g := range groups {
				if len(g.Captures) > 0 {
					span.Groups[i] = text[offsets[g.Index]:offsets[g.Index+g.Length]]
				}
				if !isNumber(g.Name) {
					span.Names[i] = g.Name
				}
			}
			if !yield(span, nil) {
				return
			}
			match, err = m.re.FindNextMatch(match)
		}
	}
}

func (m *backtrackMatcher) Find(text string) ([]Span, error) { return collect(m.All(text)) }

// runeOffsets maps rune index i to its byte offset; the last entry is len(text)
func runeOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func compileFallback(f Fallback, opts Options) (Matcher, error) {
	if len(f.Alternatives) == 0 {
		return nil, errors.New(errors.ErrPattern, "fallback matcher needs at least one alternative")
	}
	alts := make([]Matcher, len(f.Alternatives))
	for i, spec := range f.Alternatives {
		if _, nested := spec.(Fallback); nested {
			return nil, errors.New(errors.ErrPattern, "fallback alternatives cannot be fallbacks")
		}
		m, err := CompileWithOptions(spec, opts)
		if err != nil {
			return nil, err
		}
		alts[i] = m
	}
	return &fallbackMatcher{
		spec:   f,
		alts:   alts,
		logger: logging.GetLogger("matcher.fallback"),
	}, nil
}

type fallbackMatcher struct {
	spec   Fallback
	alts   []Matcher
	logger zerolog.Logger
}

func (m *fallbackMatcher) Spec() Spec { return m.spec }

func (m *fallbackMatcher) All(text string) iter.Seq2[Span, error] {
	return func(yield func(Span, error) bool) {
		spans, err := m.Find(text)
		if err != nil {
			yield(Span{}, err)
			return
		}
		for _, span := range spans {
			if !yield(span, nil) {
				return
			}
		}
	}
}

func (m *fallbackMatcher) Find(text string) ([]Span, error) {
	for i, alt := range m.alts {
		spans, err := alt.Find(text)
		if err != nil {
			return nil, err
		}
		if len(spans) > 0 {
			m.logger.Trace().
				Int("alternative", i).
				Str("matcher", alt.Spec().String()).
				Int("matches", len(spans)).
				Msg("Fallback alternative matched")
			return spans, nil
		}
	}
	return nil, nil
}
