package ast

import "sort"

// Dirty-boundary location: given the byte range of an edit, find the minimal
// set of nodes that must be considered stale, expressed at routine
// granularity because routines are the unit of incremental rebuild.

// OverlappingNodes returns every node whose span intersects the half-open
// byte range [start, end). A zero-width range is treated as an insertion
// point and matches nodes it falls inside or immediately after.
func (t *BuiltAST) OverlappingNodes(start, end uint32) []NodeID {
	var out []NodeID
	for id := NodeID(0); int(id) < t.Arena.Len(); id++ {
		if t.Arena.Node(id).Span.Overlaps(start, end) {
			out = append(out, id)
		}
	}

	return out
}

// OverlappingLeafNodes returns the deepest overlapping nodes: those with no
// overlapping child of their own.
func (t *BuiltAST) OverlappingLeafNodes(start, end uint32) []NodeID {
	overlaps := t.OverlappingNodes(start, end)
	if len(overlaps) == 0 {
		return nil
	}

	isOverlap := make([]bool, t.Arena.Len())
	for _, id := range overlaps {
		isOverlap[id] = true
	}

	out := overlaps[:0]
	for _, id := range overlaps {
		deepest := true
		for c := t.Arena.Node(id).FirstChild; c != NoNode; c = t.Arena.Node(c).NextSibling {
			if isOverlap[c] {
				deepest = false

				break
			}
		}
		if deepest {
			out = append(out, id)
		}
	}

	return out
}

// DirtyRebuildBoundaries maps a dirty byte range to rebuild boundary nodes:
// each deepest overlapping node is climbed to its enclosing Procedure or
// Function; edits outside any routine (module-level declarations) report the
// Module root instead. The result is deduplicated and sorted by NodeID. An
// empty result means the edit touched no known node and is a no-op.
func (t *BuiltAST) DirtyRebuildBoundaries(start, end uint32) []NodeID {
	leaves := t.OverlappingLeafNodes(start, end)
	if len(leaves) == 0 {
		return nil
	}

	parents := t.ParentMap()
	seen := make(map[NodeID]bool)
	var out []NodeID

	for _, leaf := range leaves {
		boundary := t.Root

		for cur := leaf; cur != NoNode; cur = parents[cur] {
			if t.Arena.Node(cur).Kind.IsRoutine() {
				boundary = cur

				break
			}
		}

		if !seen[boundary] {
			seen[boundary] = true
			out = append(out, boundary)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
