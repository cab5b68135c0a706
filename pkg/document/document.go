package document

import (
	"sort"

	"github.com/arthur-debert/dopatch/pkg/errors"
)

// Document is an immutable snapshot of text plus its revision. The zero value
// is an empty document at revision 0.
type Document struct {
	text     string
	revision int
}

// New creates a document at revision 0
func New(text string) Document {
	return Document{text: text}
}

// Text returns the document content
func (d Document) Text() string { return d.text }

// Revision returns the number of successfully applied edits since load
func (d Document) Revision() int { return d.revision }

// Len returns the content length in bytes
func (d Document) Len() int { return len(d.text) }

// Slice returns the text in [start, end)
func (d Document) Slice(start, end int) string { return d.text[start:end] }

// Equal reports whether both documents have the same text and revision
func (d Document) Equal(other Document) bool {
	return d.text == other.text && d.revision == other.revision
}

// Edit replaces the byte range [Start, End) with Text
type Edit struct {
	Start int
	End   int
	Text  string
}

// Range is a half-open byte range
type Range struct {
	Start int
	End   int
}

// Len returns the range length
func (r Range) Len() int { return r.End - r.Start }

// Apply substitutes the edits and returns the next revision together with the
// ranges the inserted texts occupy in the new content. Edits must not overlap.
// They are substituted right to left so earlier offsets stay valid.
func (d Document) Apply(edits []Edit) (Document, []Range, error) {
	if len(edits) == 0 {
		return d, nil, errors.New(errors.ErrInvalidInput, "no edits to apply")
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	prevEnd := 0
	for _, e := range sorted {
		if e.Start < prevEnd || e.Start > e.End || e.End > len(d.text) {
			return d, nil, errors.Newf(errors.ErrInvalidInput,
				"edit [%d,%d) is out of bounds or overlaps a previous edit", e.Start, e.End)
		}
		prevEnd = e.End
	}

	text := d.text
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		text = text[:e.Start] + e.Text + text[e.End:]
	}

	// Inserted ranges shift by the size delta of every edit before them.
	ranges := make([]Range, len(sorted))
	shift := 0
	for i, e := range sorted {
		start := e.Start + shift
		ranges[i] = Range{Start: start, End: start + len(e.Text)}
		shift += len(e.Text) - (e.End - e.Start)
	}

	return Document{text: text, revision: d.revision + 1}, ranges, nil
}
