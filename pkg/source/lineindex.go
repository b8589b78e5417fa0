package source

import "sort"

// LineIndex maps byte offsets to line/column positions. It records the byte
// offset at which each line starts and answers lookups with binary search.
type LineIndex struct {
	lineStarts []uint32
}

// NewLineIndex builds a line index for text.
func NewLineIndex(text string) *LineIndex {
	starts := make([]uint32, 1, len(text)/32+1)

	for i := range len(text) {
		if text[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}

	return &LineIndex{lineStarts: starts}
}

// LineCount returns the number of lines in the indexed text.
func (li *LineIndex) LineCount() int {
	return len(li.lineStarts)
}

// ToPosition resolves a byte offset to a zero-based line/column position.
// Offsets past the last line start resolve within the final line.
func (li *LineIndex) ToPosition(offset uint32) Position {
	line := sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > offset
	}) - 1

	return Position{
		Line:   line,
		Column: int(offset - li.lineStarts[line]),
		Offset: int(offset),
	}
}

// SpanPositions resolves a span to its start and end positions.
func (li *LineIndex) SpanPositions(s Span) (start, end Position) {
	return li.ToPosition(s.Start), li.ToPosition(s.End())
}
