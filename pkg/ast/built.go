package ast

// BuiltAST is the product of one build session: the arena, its root, the
// session interner, the error-message and call-data side tables, and the
// per-node fingerprint vector aligned 1:1 with the arena.
//
// A BuiltAST is exclusively owned by its holder. Clone produces a fully
// independent deep copy; nothing is shared across builds.
type BuiltAST struct {
	Arena         *Arena
	Root          NodeID
	Interner      *Interner
	ErrorMessages []string
	CallData      []CallData

	// Fingerprints[id] is the content hash of the subtree at id. Zero means
	// not yet computed.
	Fingerprints []uint64

	dirty []bool

	// LastPartialRecomputed counts nodes rehashed by the most recent
	// partial recomputation, for telemetry.
	LastPartialRecomputed int
}

// IdentText returns the identifier text of a node, or "" when the node
// carries no identifier payload.
func (t *BuiltAST) IdentText(id NodeID) string {
	n := t.Arena.Node(id)
	if n.Payload.Kind != PayloadIdent {
		return ""
	}

	return t.Interner.Resolve(n.Payload.Sym)
}

// LiteralText returns the literal text of a node, or "" when the node
// carries no literal payload.
func (t *BuiltAST) LiteralText(id NodeID) string {
	n := t.Arena.Node(id)
	if n.Payload.Kind != PayloadLiteral {
		return ""
	}

	return t.Interner.Resolve(n.Payload.Sym)
}

// ErrorMessage returns the diagnostic message of an Error node.
func (t *BuiltAST) ErrorMessage(id NodeID) (string, bool) {
	n := t.Arena.Node(id)
	if n.Payload.Kind != PayloadError || int(n.Payload.Index) >= len(t.ErrorMessages) {
		return "", false
	}

	return t.ErrorMessages[n.Payload.Index], true
}

// CallInfo returns the call shape of a Call node.
func (t *BuiltAST) CallInfo(id NodeID) (CallData, bool) {
	n := t.Arena.Node(id)
	if n.Payload.Kind != PayloadCall || int(n.Payload.Index) >= len(t.CallData) {
		return CallData{}, false
	}

	return t.CallData[n.Payload.Index], true
}

// CountKind counts nodes of the given kind in the whole tree.
func (t *BuiltAST) CountKind(kind Kind) int {
	count := 0
	for _, id := range t.Arena.Preorder(t.Root) {
		if t.Arena.Node(id).Kind == kind {
			count++
		}
	}

	return count
}

// CountRoutines counts Procedure and Function nodes.
func (t *BuiltAST) CountRoutines() int {
	return t.CountKind(KindProcedure) + t.CountKind(KindFunction)
}

// TopLevelRoutines returns the routine children of the module root in
// declaration order.
func (t *BuiltAST) TopLevelRoutines() []NodeID {
	var out []NodeID
	for _, c := range t.Arena.Children(t.Root) {
		if t.Arena.Node(c).Kind.IsRoutine() {
			out = append(out, c)
		}
	}

	return out
}

// RootFingerprint returns the fingerprint of the root node, or zero when
// fingerprints have not been computed.
func (t *BuiltAST) RootFingerprint() uint64 {
	if int(t.Root) >= len(t.Fingerprints) {
		return 0
	}

	return t.Fingerprints[t.Root]
}

// ParentMap builds a parent lookup table indexed by NodeID, with NoNode for
// the root. Parents are never stored on nodes; callers that need ancestry
// build this once per operation.
func (t *BuiltAST) ParentMap() []NodeID {
	parents := make([]NodeID, t.Arena.Len())
	for i := range parents {
		parents[i] = NoNode
	}

	for id := NodeID(0); int(id) < t.Arena.Len(); id++ {
		for c := t.Arena.Node(id).FirstChild; c != NoNode; c = t.Arena.Node(c).NextSibling {
			parents[c] = id
		}
	}

	return parents
}

// Clone returns a fully independent deep copy.
func (t *BuiltAST) Clone() *BuiltAST {
	msgs := make([]string, len(t.ErrorMessages))
	copy(msgs, t.ErrorMessages)

	calls := make([]CallData, len(t.CallData))
	copy(calls, t.CallData)

	fps := make([]uint64, len(t.Fingerprints))
	copy(fps, t.Fingerprints)

	return &BuiltAST{
		Arena:         t.Arena.Clone(),
		Root:          t.Root,
		Interner:      t.Interner.Clone(),
		ErrorMessages: msgs,
		CallData:      calls,
		Fingerprints:  fps,
	}
}
