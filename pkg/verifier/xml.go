package verifier

import (
	"github.com/beevik/etree"
)

// fragmentRoot wraps scoped fragments so several sibling elements parse
const fragmentRoot = "dopatch-scope"

type xmlVerifier struct {
	spec Spec
}

func (v *xmlVerifier) Spec() Spec { return v.spec }

func (v *xmlVerifier) Check(c Candidate) error {
	regions, err := afterRegions(v.spec, c)
	if err != nil {
		return err
	}
	for _, r := range regions {
		text := r.text
		if v.spec.Scope != ScopeWholeDocument {
			text = "<" + fragmentRoot + ">" + text + "</" + fragmentRoot + ">"
		}

		doc := etree.NewDocument()
		doc.ReadSettings.Permissive = false
		if err := doc.ReadFromString(text); err != nil {
			return failed(v.spec, "not well-formed XML in %s: %v", describeScope(v.spec), err).
				WithDetail("line", lineAt(c.After.Text(), r.offset))
		}
		if doc.Root() == nil {
			return failed(v.spec, "no root element in %s", describeScope(v.spec))
		}
	}
	return nil
}
