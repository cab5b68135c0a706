package rules

import (
	"fmt"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/verifier"
)

// File is the on-disk shape of a rules file
type File struct {
	Halt  string       `koanf:"halt" toml:"halt,omitempty" yaml:"halt,omitempty"`
	Rules []Definition `koanf:"rules" toml:"rules" yaml:"rules"`
}

// Definition is one [[rules]] entry. Find and Pattern are shorthands for a
// single Match alternative and cannot be combined with Match.
type Definition struct {
	ID          string              `koanf:"id" toml:"id" yaml:"id"`
	Description string              `koanf:"description" toml:"description,omitempty" yaml:"description,omitempty"`
	Policy      string              `koanf:"policy" toml:"policy,omitempty" yaml:"policy,omitempty"`
	Find        string              `koanf:"find" toml:"find,multiline,omitempty" yaml:"find,omitempty"`
	Pattern     string              `koanf:"pattern" toml:"pattern,omitempty" yaml:"pattern,omitempty"`
	Flags       []string            `koanf:"flags" toml:"flags,omitempty" yaml:"flags,omitempty"`
	Engine      string              `koanf:"engine" toml:"engine,omitempty" yaml:"engine,omitempty"`
	Replace     string              `koanf:"replace" toml:"replace,multiline" yaml:"replace"`
	Expand      *bool               `koanf:"expand" toml:"expand,omitempty" yaml:"expand,omitempty"`
	Match       []MatchDefinition   `koanf:"match" toml:"match,omitempty" yaml:"match,omitempty"`
	Verify      *VerifierDefinition `koanf:"verify" toml:"verify,omitempty" yaml:"verify,omitempty"`
}

// MatchDefinition is one alternative of a fallback matcher
type MatchDefinition struct {
	Find    string   `koanf:"find" toml:"find,multiline,omitempty" yaml:"find,omitempty"`
	Pattern string   `koanf:"pattern" toml:"pattern,omitempty" yaml:"pattern,omitempty"`
	Flags   []string `koanf:"flags" toml:"flags,omitempty" yaml:"flags,omitempty"`
	Engine  string   `koanf:"engine" toml:"engine,omitempty" yaml:"engine,omitempty"`
}

// VerifierDefinition is the [rules.verify] table
type VerifierDefinition struct {
	Kind  string          `koanf:"kind" toml:"kind,omitempty" yaml:"kind,omitempty"`
	Open  string          `koanf:"open" toml:"open,omitempty" yaml:"open,omitempty"`
	Close string          `koanf:"close" toml:"close,omitempty" yaml:"close,omitempty"`
	Pairs []verifier.Pair `koanf:"pairs" toml:"pairs,omitempty" yaml:"pairs,omitempty"`
	Scope string          `koanf:"scope" toml:"scope,omitempty" yaml:"scope,omitempty"`
	Start string          `koanf:"start" toml:"start,omitempty" yaml:"start,omitempty"`
	End   string          `koanf:"end" toml:"end,omitempty" yaml:"end,omitempty"`
	Mode  string          `koanf:"mode" toml:"mode,omitempty" yaml:"mode,omitempty"`
}

// ToRules converts the definitions into rules. defaultScope applies to
// verifiers that do not name a scope.
func (f *File) ToRules(defaultScope verifier.Scope) ([]Rule, error) {
	rules := make([]Rule, 0, len(f.Rules))
	for i, def := range f.Rules {
		rule, err := def.toRule(defaultScope)
		if err != nil {
			label := def.ID
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			return nil, errors.Wrapf(err, errors.GetErrorCode(err), "rule %s", label).
				WithDetail("rule", label)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (d Definition) toRule(defaultScope verifier.Scope) (Rule, error) {
	policy, err := ParsePolicy(d.Policy)
	if err != nil {
		return Rule{}, err
	}

	spec, err := d.matchSpec()
	if err != nil {
		return Rule{}, err
	}

	rule := Rule{
		ID:          d.ID,
		Description: d.Description,
		Match:       spec,
		Replacement: d.Replace,
		Expand:      d.Expand,
		Policy:      policy,
	}
	if d.Verify != nil {
		v := d.Verify.spec()
		if v.Scope == "" {
			v.Scope = defaultScope
		}
		rule.Verifier = &v
	}
	return rule, nil
}

func (d Definition) matchSpec() (matcher.Spec, error) {
	shorthand := d.Find != "" || d.Pattern != ""
	switch {
	case shorthand && len(d.Match) > 0:
		return nil, errors.New(errors.ErrRulesParse, "use either find/pattern or match alternatives, not both")
	case shorthand:
		return MatchDefinition{Find: d.Find, Pattern: d.Pattern, Flags: d.Flags, Engine: d.Engine}.spec()
	case len(d.Match) == 1:
		return d.Match[0].spec()
	case len(d.Match) > 1:
		alts := make([]matcher.Spec, 0, len(d.Match))
		for _, m := range d.Match {
			spec, err := m.spec()
			if err != nil {
				return nil, err
			}
			alts = append(alts, spec)
		}
		return matcher.Fallback{Alternatives: alts}, nil
	default:
		return nil, errors.New(errors.ErrRulesParse, "rule needs find, pattern or match")
	}
}

func (m MatchDefinition) spec() (matcher.Spec, error) {
	switch {
	case m.Find != "" && m.Pattern != "":
		return nil, errors.New(errors.ErrRulesParse, "an alternative has either find or pattern, not both")
	case m.Find != "":
		if len(m.Flags) > 0 || m.Engine != "" {
			return nil, errors.New(errors.ErrRulesParse, "flags and engine only apply to patterns")
		}
		return matcher.Exact{Literal: m.Find}, nil
	case m.Pattern != "":
		flags := make([]matcher.Flag, 0, len(m.Flags))
		for _, name := range m.Flags {
			flag, err := matcher.ParseFlag(name)
			if err != nil {
				return nil, err
			}
			flags = append(flags, flag)
		}
		engine, err := matcher.ParseEngine(m.Engine)
		if err != nil {
			return nil, err
		}
		return matcher.Pattern{Expr: m.Pattern, Flags: flags, Engine: engine}, nil
	default:
		return nil, errors.New(errors.ErrRulesParse, "an alternative needs find or pattern")
	}
}

func (v VerifierDefinition) spec() verifier.Spec {
	return verifier.Spec{
		Kind:  verifier.Kind(v.Kind),
		Open:  v.Open,
		Close: v.Close,
		Pairs: v.Pairs,
		Scope: verifier.Scope(v.Scope),
		Start: v.Start,
		End:   v.End,
		Mode:  verifier.Mode(v.Mode),
	}
}
