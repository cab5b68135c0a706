// Package template expands rule replacements against matched spans.
//
// Placeholders:
//
//	$N      capture group N ($0 is the whole match)
//	${N}    the same, delimited
//	${name} a named capture group
//	$$      a literal dollar sign
//
// A dollar sign followed by anything else is kept as-is. Syntax errors are
// reported by Parse; a placeholder the match cannot satisfy is reported by
// Expand, because only the match knows how many groups it has.
package template

import (
	"strconv"
	"strings"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/matcher"
)

type partKind int

const (
	partLiteral partKind = iota
	partIndex
	partName
)

type part struct {
	kind  partKind
	text  string
	index int
}

// Template is a parsed replacement
type Template struct {
	source  string
	literal bool
	parts   []part
}

// Literal returns a template that inserts s verbatim
func Literal(s string) Template {
	return Template{source: s, literal: true, parts: []part{{kind: partLiteral, text: s}}}
}

// Parse parses a replacement with placeholders
func Parse(s string) (Template, error) {
	t := Template{source: s}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{kind: partLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' || i+1 >= len(s) {
			lit.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch {
		case next == '$':
			lit.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return Template{}, errors.Newf(errors.ErrTemplate,
					"unterminated placeholder at offset %d", i).WithDetail("offset", i)
			}
			ref := s[i+2 : i+2+end]
			p, err := parseRef(ref, i)
			if err != nil {
				return Template{}, err
			}
			flush()
			t.parts = append(t.parts, p)
			i += 2 + end
		case isDigit(next):
			j := i + 1
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			n, _ := strconv.Atoi(s[i+1 : j])
			flush()
			t.parts = append(t.parts, part{kind: partIndex, index: n})
			i = j - 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

func parseRef(ref string, offset int) (part, error) {
	if ref == "" {
		return part{}, errors.Newf(errors.ErrTemplate, "empty placeholder at offset %d", offset).
			WithDetail("offset", offset)
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 0 {
		return part{kind: partIndex, index: n}, nil
	}
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		if !(c == '_' || isDigit(c) || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return part{}, errors.Newf(errors.ErrTemplate, "invalid group name %q at offset %d", ref, offset).
				WithDetail("offset", offset)
		}
	}
	return part{kind: partName, text: ref}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Source returns the replacement as written
func (t Template) Source() string { return t.source }

// IsLiteral reports whether the template performs no expansion
func (t Template) IsLiteral() bool { return t.literal }

// Expand renders the template for one match
func (t Template) Expand(span matcher.Span) (string, error) {
	if t.literal {
		return t.source, nil
	}

	var b strings.Builder
	for _, p := range t.parts {
		switch p.kind {
		case partLiteral:
			b.WriteString(p.text)
		case partIndex:
			if p.index >= len(span.Groups) {
				return "", errors.Newf(errors.ErrTemplate,
					"placeholder $%d refers to a group the match does not have (%d groups)",
					p.index, len(span.Groups)-1).
					WithDetail("group", p.index)
			}
			b.WriteString(span.Groups[p.index])
		case partName:
			idx := -1
			for i, name := range span.Names {
				if name == p.text {
					idx = i
					break
				}
			}
			if idx < 0 || idx >= len(span.Groups) {
				return "", errors.Newf(errors.ErrTemplate,
					"placeholder ${%s} refers to an unknown group", p.text).
					WithDetail("group", p.text)
			}
			b.WriteString(span.Groups[idx])
		}
	}
	return b.String(), nil
}
