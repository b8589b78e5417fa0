// Package source provides byte-level source positions: packed spans,
// line/column positions, and a line index for offset resolution.
package source

import "fmt"

// Span is a compact (offset, length) pair over the original source bytes.
type Span struct {
	Start uint32
	Len   uint32
}

// NewSpan creates a span starting at start covering len bytes.
func NewSpan(start, length uint32) Span {
	return Span{Start: start, Len: length}
}

// End returns the exclusive end offset of the span.
func (s Span) End() uint32 {
	return s.Start + s.Len
}

// Overlaps reports whether the span intersects the half-open byte range
// [start, end). A zero-width range is an insertion point and hits spans
// that contain or abut the position.
func (s Span) Overlaps(start, end uint32) bool {
	if end == start {
		return start >= s.Start && start <= s.End()
	}

	return start < s.End() && end > s.Start
}

// Covers reports whether the span fully contains the half-open range
// [start, end).
func (s Span) Covers(start, end uint32) bool {
	return start >= s.Start && end <= s.End()
}

// Position is a resolved line/column location in source text.
// Line and Column are zero-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String renders the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
