package rules

import (
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/template"
	"github.com/arthur-debert/dopatch/pkg/verifier"
)

// Rule is a named find-and-replace transformation
type Rule struct {
	ID          string
	Description string
	Match       matcher.Spec
	Replacement string

	// Expand forces template expansion on or off. Nil expands for patterns
	// and inserts exact replacements literally.
	Expand *bool

	Policy   Policy
	Verifier *verifier.Spec
}

// Expands reports whether the replacement is a template
func (r Rule) Expands() bool {
	if r.Expand != nil {
		return *r.Expand
	}
	return usesPattern(r.Match)
}

func usesPattern(spec matcher.Spec) bool {
	switch s := spec.(type) {
	case matcher.Pattern:
		return true
	case matcher.Fallback:
		for _, alt := range s.Alternatives {
			if usesPattern(alt) {
				return true
			}
		}
	}
	return false
}

// Compiled is a validated rule ready to apply
type Compiled struct {
	Rule
	Matcher  matcher.Matcher
	Template template.Template
	Check    verifier.Verifier
}

// Compile validates one rule. Every error carries the rule id.
func Compile(rule Rule, opts matcher.Options) (*Compiled, error) {
	if rule.ID == "" {
		return nil, errors.New(errors.ErrInvalidInput, "rule has no id")
	}
	if _, ok := policyNames[rule.Policy]; !ok {
		return nil, withRule(errors.Newf(errors.ErrInvalidInput, "rule %s has an unknown policy", rule.ID), rule.ID)
	}

	m, err := matcher.CompileWithOptions(rule.Match, opts)
	if err != nil {
		return nil, withRule(err, rule.ID)
	}

	tmpl := template.Literal(rule.Replacement)
	if rule.Expands() {
		tmpl, err = template.Parse(rule.Replacement)
		if err != nil {
			return nil, withRule(err, rule.ID)
		}
	}

	compiled := &Compiled{Rule: rule, Matcher: m, Template: tmpl}
	if rule.Verifier != nil {
		compiled.Check, err = verifier.Build(*rule.Verifier)
		if err != nil {
			return nil, withRule(err, rule.ID)
		}
	}
	return compiled, nil
}

// CompileAll validates a rule list and stops at the first invalid rule.
// Ids must be unique and non-empty.
func CompileAll(rules []Rule, opts matcher.Options) ([]*Compiled, error) {
	logger := logging.GetLogger("rules.compile")

	seen := make(map[string]int, len(rules))
	compiled := make([]*Compiled, 0, len(rules))
	for i, rule := range rules {
		if rule.ID == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, "rule #%d has no id", i+1).
				WithDetail("index", i)
		}
		if first, dup := seen[rule.ID]; dup {
			return nil, errors.Newf(errors.ErrDuplicateRule,
				"rule id %q is used by rules #%d and #%d", rule.ID, first+1, i+1).
				WithDetail("rule", rule.ID)
		}
		seen[rule.ID] = i

		c, err := Compile(rule, opts)
		if err != nil {
			return nil, err
		}
		logger.Trace().
			Str("rule", rule.ID).
			Str("matcher", rule.Match.String()).
			Str("policy", rule.Policy.String()).
			Bool("expand", rule.Expands()).
			Msg("Rule compiled")
		compiled = append(compiled, c)
	}
	return compiled, nil
}

func withRule(err error, id string) error {
	if de, ok := err.(*errors.DopatchError); ok {
		return de.WithDetail("rule", id)
	}
	return errors.Wrapf(err, errors.GetErrorCode(err), "rule %s", id).WithDetail("rule", id)
}
