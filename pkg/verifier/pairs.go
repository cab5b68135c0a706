package verifier

import "strings"

// pairsVerifier counts token occurrences. It is a balance heuristic and
// accepts any arrangement whose counts add up.
type pairsVerifier struct {
	spec Spec
}

func (v *pairsVerifier) Spec() Spec { return v.spec }

func (v *pairsVerifier) Check(c Candidate) error {
	after, err := afterRegions(v.spec, c)
	if err != nil {
		return err
	}
	opens, closes := v.count(after)

	if v.spec.Mode == ModeBalanced {
		if opens != closes {
			return failed(v.spec, "%d %q against %d %q in %s",
				opens, v.spec.Open, closes, v.spec.Close, describeScope(v.spec)).
				WithDetail("open", opens).
				WithDetail("close", closes)
		}
		return nil
	}

	before, err := beforeRegions(v.spec, c)
	if err != nil {
		return err
	}
	beforeOpens, beforeCloses := v.count(before)
	if opens-closes != beforeOpens-beforeCloses {
		return failed(v.spec, "rule changes the %q/%q balance in %s from %+d to %+d",
			v.spec.Open, v.spec.Close, describeScope(v.spec),
			beforeOpens-beforeCloses, opens-closes).
			WithDetail("open", opens).
			WithDetail("close", closes).
			WithDetail("balance_before", beforeOpens-beforeCloses)
	}
	return nil
}

func (v *pairsVerifier) count(regions []region) (opens, closes int) {
	for _, r := range regions {
		opens += strings.Count(r.text, v.spec.Open)
		closes += strings.Count(r.text, v.spec.Close)
	}
	return opens, closes
}
