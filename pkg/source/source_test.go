package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanOverlaps(t *testing.T) {
	t.Parallel()

	span := NewSpan(10, 5) // [10, 15)

	t.Run("inside", func(t *testing.T) {
		t.Parallel()
		assert.True(t, span.Overlaps(11, 12))
	})

	t.Run("left_edge", func(t *testing.T) {
		t.Parallel()
		assert.True(t, span.Overlaps(5, 11))
	})

	t.Run("disjoint_right", func(t *testing.T) {
		t.Parallel()
		assert.False(t, span.Overlaps(15, 20))
	})

	t.Run("insertion_inside", func(t *testing.T) {
		t.Parallel()
		assert.True(t, span.Overlaps(12, 12))
	})

	t.Run("insertion_at_end_abuts", func(t *testing.T) {
		t.Parallel()
		assert.True(t, span.Overlaps(15, 15))
	})

	t.Run("insertion_past_end", func(t *testing.T) {
		t.Parallel()
		assert.False(t, span.Overlaps(16, 16))
	})
}

func TestSpanCovers(t *testing.T) {
	t.Parallel()

	span := NewSpan(10, 10)

	assert.True(t, span.Covers(10, 20))
	assert.True(t, span.Covers(12, 15))
	assert.False(t, span.Covers(9, 15))
	assert.False(t, span.Covers(12, 21))
}

func TestLineIndexToPosition(t *testing.T) {
	t.Parallel()

	li := NewLineIndex("abc\ndef\n\nxyz")

	t.Run("first_line", func(t *testing.T) {
		t.Parallel()

		pos := li.ToPosition(1)
		assert.Equal(t, 0, pos.Line)
		assert.Equal(t, 1, pos.Column)
	})

	t.Run("second_line_start", func(t *testing.T) {
		t.Parallel()

		pos := li.ToPosition(4)
		assert.Equal(t, 1, pos.Line)
		assert.Equal(t, 0, pos.Column)
	})

	t.Run("empty_line", func(t *testing.T) {
		t.Parallel()

		pos := li.ToPosition(8)
		assert.Equal(t, 2, pos.Line)
		assert.Equal(t, 0, pos.Column)
	})

	t.Run("last_line", func(t *testing.T) {
		t.Parallel()

		pos := li.ToPosition(11)
		assert.Equal(t, 3, pos.Line)
		assert.Equal(t, 2, pos.Column)
	})

	t.Run("line_count", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 4, li.LineCount())
	})
}
