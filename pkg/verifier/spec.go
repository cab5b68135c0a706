package verifier

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/errors"
)

// Kind selects the verification algorithm
type Kind string

const (
	// KindPairs counts open and close tokens
	KindPairs Kind = "pairs"
	// KindNesting walks open and close tokens with a stack
	KindNesting Kind = "nesting"
	// KindXML parses the scoped text as XML
	KindXML Kind = "xml"
)

// Scope selects the text a verifier looks at
type Scope string

const (
	// ScopeWholeDocument checks the entire candidate
	ScopeWholeDocument Scope = "whole-document"
	// ScopeBetweenMarkers checks the lines from the start marker up to the end marker
	ScopeBetweenMarkers Scope = "between-markers"
	// ScopeReplacement checks only the text the rule inserted
	ScopeReplacement Scope = "replacement"
)

// ParseScope parses a scope name
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeWholeDocument:
		return ScopeWholeDocument, nil
	case ScopeBetweenMarkers:
		return ScopeBetweenMarkers, nil
	case ScopeReplacement:
		return ScopeReplacement, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown verifier scope %q", s)
	}
}

// Mode selects what a pairs verifier compares
type Mode string

const (
	// ModeBalanced requires as many close tokens as open tokens
	ModeBalanced Mode = "balanced"
	// ModePreserve requires the rule to leave the open/close difference unchanged
	ModePreserve Mode = "preserve"
)

// Pair is an open/close token pair
type Pair struct {
	Open  string `koanf:"open" toml:"open" yaml:"open" json:"open"`
	Close string `koanf:"close" toml:"close" yaml:"close" json:"close"`
}

// Spec describes a verifier. Open and Close name the primary pair; Pairs adds
// more for the nesting kind.
type Spec struct {
	Kind  Kind
	Open  string
	Close string
	Pairs []Pair
	Scope Scope
	Start string
	End   string
	Mode  Mode
}

func (s Spec) withDefaults() Spec {
	if s.Kind == "" {
		s.Kind = KindPairs
	}
	if s.Scope == "" {
		s.Scope = ScopeWholeDocument
	}
	if s.Mode == "" {
		s.Mode = ModeBalanced
	}
	return s
}

func (s Spec) allPairs() []Pair {
	var pairs []Pair
	if s.Open != "" || s.Close != "" {
		pairs = append(pairs, Pair{Open: s.Open, Close: s.Close})
	}
	return append(pairs, s.Pairs...)
}

func (s Spec) String() string {
	s = s.withDefaults()
	var b strings.Builder
	b.WriteString(string(s.Kind))
	if s.Kind != KindXML {
		names := make([]string, 0, len(s.allPairs()))
		for _, p := range s.allPairs() {
			names = append(names, p.Open+" "+p.Close)
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(names, ", "))
	}
	b.WriteString(" over " + string(s.Scope))
	if s.Scope == ScopeBetweenMarkers {
		fmt.Fprintf(&b, " %q..%q", s.Start, s.End)
	}
	if s.Kind == KindPairs && s.Mode != ModeBalanced {
		b.WriteString(" (" + string(s.Mode) + ")")
	}
	return b.String()
}

// Candidate is what a verifier judges: the document before a rule, the
// document the rule would produce, the ranges of After holding inserted text,
// and the texts those insertions replaced.
type Candidate struct {
	Before   document.Document
	After    document.Document
	Inserted []document.Range
	Removed  []string
}

// Verifier is a post-condition on a candidate document. A nil error means the
// candidate is acceptable; otherwise the error is VERIFICATION_FAILED or
// MARKER_NOT_FOUND with a human-readable diagnostic.
type Verifier interface {
	Check(c Candidate) error
	Spec() Spec
}

// Build validates a spec and returns its verifier. Invalid specs return an
// INVALID_INPUT error.
func Build(spec Spec) (Verifier, error) {
	spec = spec.withDefaults()

	switch spec.Scope {
	case ScopeWholeDocument, ScopeReplacement:
	case ScopeBetweenMarkers:
		if spec.Start == "" || spec.End == "" {
			return nil, invalid(spec, "between-markers scope needs both start and end markers")
		}
	default:
		return nil, invalid(spec, fmt.Sprintf("unknown verifier scope %q", spec.Scope))
	}

	switch spec.Mode {
	case ModeBalanced, ModePreserve:
	default:
		return nil, invalid(spec, fmt.Sprintf("unknown verifier mode %q", spec.Mode))
	}

	switch spec.Kind {
	case KindPairs:
		if spec.Open == "" || spec.Close == "" {
			return nil, invalid(spec, "pairs verifier needs open and close tokens")
		}
		if len(spec.Pairs) > 0 {
			return nil, invalid(spec, "pairs verifier counts a single pair; use the nesting kind for several")
		}
		return &pairsVerifier{spec: spec}, nil
	case KindNesting:
		pairs := spec.allPairs()
		if len(pairs) == 0 {
			return nil, invalid(spec, "nesting verifier needs at least one pair")
		}
		for _, p := range pairs {
			if p.Open == "" || p.Close == "" || p.Open == p.Close {
				return nil, invalid(spec, fmt.Sprintf("nesting pair %q %q needs distinct open and close tokens", p.Open, p.Close))
			}
		}
		if spec.Mode != ModeBalanced {
			return nil, invalid(spec, "nesting verifier only supports the balanced mode")
		}
		return &nestingVerifier{spec: spec, pairs: pairs}, nil
	case KindXML:
		if spec.Mode != ModeBalanced {
			return nil, invalid(spec, "xml verifier only supports the balanced mode")
		}
		return &xmlVerifier{spec: spec}, nil
	default:
		return nil, invalid(spec, fmt.Sprintf("unknown verifier kind %q", spec.Kind))
	}
}

func invalid(spec Spec, msg string) error {
	return errors.New(errors.ErrInvalidInput, msg).WithDetail("verifier", string(spec.Kind))
}

// CheckDocument runs a verifier on a standalone document, as if a rule had
// produced it without changing anything. The replacement scope and the
// preserve mode have nothing to compare against and are rejected.
func CheckDocument(v Verifier, doc document.Document) error {
	spec := v.Spec()
	if spec.Scope == ScopeReplacement || spec.Mode == ModePreserve {
		return errors.Newf(errors.ErrInvalidInput,
			"%s cannot check a document outside a rule", spec.String())
	}
	return v.Check(Candidate{Before: doc, After: doc})
}

func failed(spec Spec, format string, args ...interface{}) *errors.DopatchError {
	return errors.Newf(errors.ErrVerificationFailed, format, args...).
		WithDetail("verifier", spec.String()).
		WithDetail("scope", string(spec.Scope))
}
