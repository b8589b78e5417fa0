package workspace

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/bslcheck/pkg/safeconv"
)

// dirtyRange computes the half-open byte range of oldText affected by the
// edit to newText. A pure insertion yields start == end. changed is false
// when the texts are identical.
func dirtyRange(oldText, newText string) (start, end uint32, changed bool) {
	if oldText == newText {
		return 0, 0, false
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)

	// Leading equal run fixes the start; everything after the last
	// non-equal chunk is the trailing equal run.
	offset := 0
	firstSet := false
	first, last := 0, 0

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if !firstSet {
				first = offset
				firstSet = true
			}
			offset += len(d.Text)
			last = offset
		case diffmatchpatch.DiffInsert:
			if !firstSet {
				first = offset
				firstSet = true
			}
			if offset > last {
				last = offset
			}
		}
	}

	if !firstSet {
		return 0, 0, false
	}

	return safeconv.MustIntToUint32(first), safeconv.MustIntToUint32(last), true
}
