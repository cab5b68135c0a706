// Package diff renders line-level previews of what a run changed.
//
// It is used by `dopatch apply --diff` and by dry runs: the initial and final
// documents are compared line by line and grouped into unified-diff hunks.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines kept around each change
const DefaultContext = 3

// LineType represents the type of a diff line
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is a single line of a hunk
type Line struct {
	Type    LineType
	Content string
}

// Hunk is a group of nearby changes with surrounding context
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Diff is the line diff between two versions of a document
type Diff struct {
	OldName string
	NewName string
	Hunks   []Hunk
}

// Empty reports whether the two versions are identical
func (d *Diff) Empty() bool { return len(d.Hunks) == 0 }

// Stats counts added and removed lines
func (d *Diff) Stats() (added, removed int) {
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Compute diffs two texts line by line. A negative context uses
// DefaultContext.
func Compute(oldName, newName, oldText, newText string, context int) *Diff {
	if context < 0 {
		context = DefaultContext
	}
	d := &Diff{OldName: oldName, NewName: newName}
	if oldText == newText {
		return d
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	d.Hunks = group(toOps(diffs), context)
	return d
}

type op struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func toOps(diffs []diffmatchpatch.Diff) []op {
	var ops []op
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if d.Text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, op{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, op{LineRemoved, oldLine, newLine, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, op{LineAdded, oldLine, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

func group(ops []op, context int) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(ops) {
		if ops[i].typ == LineContext {
			i++
			continue
		}

		start := i - context
		if start < 0 {
			start = 0
		}

		// extend while the next change is within 2*context lines
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].typ != LineContext {
				end = j
				continue
			}
			if j-end > 2*context {
				break
			}
		}
		stop := end + context + 1
		if stop > len(ops) {
			stop = len(ops)
		}

		h := Hunk{OldStart: ops[start].oldLine + 1, NewStart: ops[start].newLine + 1}
		for _, o := range ops[start:stop] {
			h.Lines = append(h.Lines, Line{Type: o.typ, Content: o.content})
			if o.typ != LineAdded {
				h.OldCount++
			}
			if o.typ != LineRemoved {
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

// Unified returns the diff in unified format
func (d *Diff) Unified() string {
	var b strings.Builder
	_ = d.write(&b, nil)
	return b.String()
}

// Colorizer styles a rendered diff line by type
type Colorizer func(t LineType, line string) string

// Write renders the diff in unified format, passing each line through
// color when it is not nil.
func (d *Diff) Write(w io.Writer, color Colorizer) error {
	return d.write(w, color)
}

func (d *Diff) write(w io.Writer, color Colorizer) error {
	if d.Empty() {
		return nil
	}
	paint := func(t LineType, s string) string {
		if color == nil {
			return s
		}
		return color(t, s)
	}

	if _, err := fmt.Fprintf(w, "--- %s\n+++ %s\n", d.OldName, d.NewName); err != nil {
		return err
	}
	for _, h := range d.Hunks {
		if _, err := fmt.Fprintf(w, "@@ -%s +%s @@\n", span(h.OldStart, h.OldCount), span(h.NewStart, h.NewCount)); err != nil {
			return err
		}
		for _, l := range h.Lines {
			prefix := " "
			switch l.Type {
			case LineAdded:
				prefix = "+"
			case LineRemoved:
				prefix = "-"
			}
			if _, err := fmt.Fprintln(w, paint(l.Type, prefix+l.Content)); err != nil {
				return err
			}
		}
	}
	return nil
}

func span(start, count int) string {
	if count == 0 {
		// unified diffs point at the line before an empty range
		start--
	}
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
