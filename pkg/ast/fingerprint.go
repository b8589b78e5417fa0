package ast

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprints are 64-bit content hashes: a leaf hashes its kind and payload
// content, an internal node additionally folds in the ordered fingerprints of
// its children. Any subtree change therefore propagates to every ancestor.
//
// Payload content is hashed by resolved text rather than symbol index, and
// spans are excluded, so two builds of the same source (or of shifted but
// textually identical routines) produce identical fingerprints. That makes
// fingerprints comparable across build sessions, which the selective rebuild
// reuse metric depends on.

// RecomputeFingerprints computes fingerprints for every node from scratch.
func (t *BuiltAST) RecomputeFingerprints() {
	t.Fingerprints = make([]uint64, t.Arena.Len())
	t.dirty = make([]bool, t.Arena.Len())

	for _, id := range t.postorder() {
		t.Fingerprints[id] = t.hashNode(id)
	}

	t.LastPartialRecomputed = t.Arena.Len()
}

// RecomputeFingerprintsPartial recomputes only nodes whose fingerprint is
// missing or marked dirty, leaving every other entry untouched. Children are
// visited before parents, so a clean subtree under a dirty ancestor is never
// rehashed.
func (t *BuiltAST) RecomputeFingerprintsPartial() {
	if len(t.Fingerprints) != t.Arena.Len() {
		fps := make([]uint64, t.Arena.Len())
		copy(fps, t.Fingerprints)
		t.Fingerprints = fps
	}

	if len(t.dirty) != t.Arena.Len() {
		t.dirty = make([]bool, t.Arena.Len())
		for i := range t.dirty {
			t.dirty[i] = true
		}
	}

	recomputed := 0

	for _, id := range t.postorder() {
		if t.Fingerprints[id] != 0 && !t.dirty[id] {
			continue
		}

		t.Fingerprints[id] = t.hashNode(id)
		t.dirty[id] = false
		recomputed++
	}

	t.LastPartialRecomputed = recomputed
}

// MarkDirtyUpwards marks a node and all of its ancestors as needing
// fingerprint recomputation. Marking is idempotent: repeated calls on the
// same node or its descendants leave the same dirty set.
func (t *BuiltAST) MarkDirtyUpwards(id NodeID) {
	if len(t.dirty) != t.Arena.Len() {
		t.dirty = make([]bool, t.Arena.Len())
	}

	parents := t.ParentMap()
	for cur := id; cur != NoNode; cur = parents[cur] {
		t.dirty[cur] = true
	}
}

// postorder returns all node IDs children-first via the two-stack trick.
func (t *BuiltAST) postorder() []NodeID {
	if t.Arena.Len() == 0 {
		return nil
	}

	order := make([]NodeID, 0, t.Arena.Len())
	stack := []NodeID{t.Root}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)

		for c := t.Arena.Node(id).FirstChild; c != NoNode; c = t.Arena.Node(c).NextSibling {
			stack = append(stack, c)
		}
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	return order
}

func (t *BuiltAST) hashNode(id NodeID) uint64 {
	n := t.Arena.Node(id)

	d := xxhash.New()

	var buf [8]byte
	buf[0] = byte(n.Kind)
	buf[1] = byte(n.Payload.Kind)
	_, _ = d.Write(buf[:2])

	switch n.Payload.Kind {
	case PayloadIdent, PayloadLiteral:
		_, _ = d.WriteString(t.Interner.Resolve(n.Payload.Sym))
	case PayloadError:
		if msg, ok := t.ErrorMessage(id); ok {
			_, _ = d.WriteString(msg)
		}
	case PayloadCall:
		if cd, ok := t.CallInfo(id); ok {
			binary.LittleEndian.PutUint16(buf[:2], cd.ArgCount)
			buf[2] = 0
			if cd.IsMethod {
				buf[2] = 1
			}
			_, _ = d.Write(buf[:3])
		}
	case PayloadNone:
	}

	for c := n.FirstChild; c != NoNode; c = t.Arena.Node(c).NextSibling {
		binary.LittleEndian.PutUint64(buf[:], t.Fingerprints[c])
		_, _ = d.Write(buf[:])
	}

	return d.Sum64()
}

// DescendantFingerprints collects the fingerprints of every node strictly
// below root, as a multiset counted by value.
func (t *BuiltAST) DescendantFingerprints(root NodeID) map[uint64]int {
	out := make(map[uint64]int)
	for _, id := range t.Arena.Preorder(root) {
		if id == root {
			continue
		}
		if int(id) < len(t.Fingerprints) {
			out[t.Fingerprints[id]]++
		}
	}

	return out
}
