package verifier

import "strings"

type nestingVerifier struct {
	spec  Spec
	pairs []Pair
}

func (v *nestingVerifier) Spec() Spec { return v.spec }

type opened struct {
	pair   int
	offset int
}

func (v *nestingVerifier) Check(c Candidate) error {
	regions, err := afterRegions(v.spec, c)
	if err != nil {
		return err
	}
	text := c.After.Text()
	for _, r := range regions {
		if err := v.walk(r, text); err != nil {
			return err
		}
	}
	return nil
}

// walk matches every close token against the innermost open token. Close
// tokens are tried before open tokens at the same offset.
func (v *nestingVerifier) walk(r region, full string) error {
	var stack []opened

	for i := 0; i < len(r.text); {
		advanced := false
		for pi, p := range v.pairs {
			if !strings.HasPrefix(r.text[i:], p.Close) {
				continue
			}
			if len(stack) == 0 {
				return failed(v.spec, "%q at line %d closes nothing",
					p.Close, lineAt(full, r.offset+i)).
					WithDetail("line", lineAt(full, r.offset+i))
			}
			top := stack[len(stack)-1]
			if top.pair != pi {
				return failed(v.spec, "%q at line %d closes %q opened at line %d",
					p.Close, lineAt(full, r.offset+i),
					v.pairs[top.pair].Open, lineAt(full, r.offset+top.offset)).
					WithDetail("line", lineAt(full, r.offset+i))
			}
			stack = stack[:len(stack)-1]
			i += len(p.Close)
			advanced = true
			break
		}
		if advanced {
			continue
		}
		for pi, p := range v.pairs {
			if strings.HasPrefix(r.text[i:], p.Open) {
				stack = append(stack, opened{pair: pi, offset: i})
				i += len(p.Open)
				advanced = true
				break
			}
		}
		if !advanced {
			i++
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return failed(v.spec, "%d unclosed, innermost %q at line %d",
			len(stack), v.pairs[top.pair].Open, lineAt(full, r.offset+top.offset)).
			WithDetail("unclosed", len(stack)).
			WithDetail("line", lineAt(full, r.offset+top.offset))
	}
	return nil
}
