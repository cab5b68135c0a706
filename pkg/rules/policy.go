package rules

import (
	"strings"

	"github.com/arthur-debert/dopatch/pkg/errors"
)

// Policy governs how many matches a rule accepts and which it replaces
type Policy int

const (
	// RequireExactlyOne fails unless the matcher finds exactly one span
	RequireExactlyOne Policy = iota
	// ReplaceFirst replaces the first span and fails when there is none
	ReplaceFirst
	// ReplaceAll replaces every span and fails when there is none
	ReplaceAll
	// OptionalSkipIfAbsent skips the rule when there is no span, otherwise
	// behaves like ReplaceFirst
	OptionalSkipIfAbsent
)

var policyNames = map[Policy]string{
	RequireExactlyOne:    "exactly-one",
	ReplaceFirst:         "first",
	ReplaceAll:           "all",
	OptionalSkipIfAbsent: "optional",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePolicy parses a policy as written in rule files. The empty string
// selects RequireExactlyOne.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exactly-one", "exactly_one", "one":
		return RequireExactlyOne, nil
	case "first":
		return ReplaceFirst, nil
	case "all":
		return ReplaceAll, nil
	case "optional", "skip-if-absent":
		return OptionalSkipIfAbsent, nil
	default:
		return 0, errors.Newf(errors.ErrInvalidInput, "unknown policy %q", s).
			WithDetail("policy", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
