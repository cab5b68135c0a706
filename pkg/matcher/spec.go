package matcher

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arthur-debert/dopatch/pkg/errors"
)

// Kind identifies the variant of a Spec
type Kind string

const (
	KindExact    Kind = "exact"
	KindPattern  Kind = "pattern"
	KindFallback Kind = "fallback"
)

// Spec describes what to search for. It is one of Exact, Pattern or Fallback.
type Spec interface {
	Kind() Kind
	String() string
}

// Exact matches literal, case-sensitive, non-overlapping occurrences
type Exact struct {
	Literal string
}

// Kind implements Spec
func (Exact) Kind() Kind { return KindExact }

func (e Exact) String() string { return fmt.Sprintf("exact %q", abbreviate(e.Literal)) }

// Flag is an explicit regular expression mode
type Flag string

const (
	// FlagMultiline makes ^ and $ match at line boundaries
	FlagMultiline Flag = "multiline"
	// FlagDotAll makes . match newlines
	FlagDotAll Flag = "dotall"
	// FlagIgnoreCase matches case-insensitively
	FlagIgnoreCase Flag = "ignorecase"
)

// ParseFlag parses a flag name as written in rule files
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiline", "m":
		return FlagMultiline, nil
	case "dotall", "s", "singleline":
		return FlagDotAll, nil
	case "ignorecase", "i":
		return FlagIgnoreCase, nil
	default:
		return "", errors.Newf(errors.ErrPattern, "unknown pattern flag %q", s)
	}
}

// Engine selects the regular expression implementation
type Engine string

const (
	// EngineRE2 is Go's linear-time regexp package. The default.
	EngineRE2 Engine = "re2"
	// EngineBacktrack supports lookaround and backreferences, bounded by a match timeout
	EngineBacktrack Engine = "backtrack"
)

// ParseEngine parses an engine name; the empty string selects EngineRE2
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "re2":
		return EngineRE2, nil
	case "backtrack", "regexp2", "pcre":
		return EngineBacktrack, nil
	default:
		return "", errors.Newf(errors.ErrPattern, "unknown pattern engine %q", s)
	}
}

// Pattern matches a regular expression over the whole text. No mode is
// implicit: dot-all and multiline behavior must be requested through Flags.
type Pattern struct {
	Expr   string
	Flags  []Flag
	Engine Engine
}

// Kind implements Spec
func (Pattern) Kind() Kind { return KindPattern }

func (p Pattern) String() string {
	engine := p.Engine
	if engine == "" {
		engine = EngineRE2
	}
	s := fmt.Sprintf("pattern /%s/", abbreviate(p.Expr))
	if len(p.Flags) > 0 {
		names := make([]string, len(p.Flags))
		for i, f := range p.Flags {
			names[i] = string(f)
		}
		s += " [" + strings.Join(names, ",") + "]"
	}
	if engine != EngineRE2 {
		s += " (" + string(engine) + ")"
	}
	return s
}

func (p Pattern) has(flag Flag) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Fallback tries its alternatives in the declared order. The first
// alternative that matches at least once provides all the spans.
type Fallback struct {
	Alternatives []Spec
}

// Kind implements Spec
func (Fallback) Kind() Kind { return KindFallback }

func (f Fallback) String() string {
	parts := make([]string, len(f.Alternatives))
	for i, alt := range f.Alternatives {
		parts[i] = alt.String()
	}
	return "first of (" + strings.Join(parts, " | ") + ")"
}

func abbreviate(s string) string {
	const max = 40
	s = strings.ReplaceAll(s, "\n", `\n`)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
