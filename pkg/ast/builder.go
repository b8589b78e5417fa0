package ast

import (
	"github.com/Sumatoshi-tech/bslcheck/pkg/safeconv"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// Builder appends nodes to an arena depth-first through a cursor stack. The
// first node ever started becomes the root. Builders are single-use: Build
// consumes the accumulated state.
type Builder struct {
	arena    *Arena
	stack    []NodeID
	root     NodeID
	interner *Interner
	errMsgs  []string
	callData []CallData
}

// NewBuilder returns an empty builder with a fresh arena and interner.
func NewBuilder() *Builder {
	return &Builder{
		arena:    NewArena(),
		root:     NoNode,
		interner: NewInterner(),
	}
}

// Intern interns text into the builder's session interner.
func (b *Builder) Intern(text string) Symbol {
	return b.interner.Intern(text)
}

// StartNode opens a new node as a child of the current cursor (or as root)
// and makes it the cursor.
func (b *Builder) StartNode(kind Kind, span source.Span) {
	b.StartNodeWithPayload(kind, span, NoPayload())
}

// StartNodeWithPayload is StartNode with an explicit payload.
func (b *Builder) StartNodeWithPayload(kind Kind, span source.Span, payload Payload) {
	id := b.arena.Alloc(Node{Kind: kind, Payload: payload, Span: span, FirstChild: NoNode, NextSibling: NoNode})
	b.attach(id)
	b.stack = append(b.stack, id)

	if b.root == NoNode {
		b.root = id
	}
}

// StartIdentNode opens a node carrying an interned identifier payload, used
// for Procedure/Function/Param heads.
func (b *Builder) StartIdentNode(kind Kind, span source.Span, name string) {
	b.StartNodeWithPayload(kind, span, IdentPayload(b.interner.Intern(name)))
}

// FinishNode closes the current cursor node. A Block whose span was opened
// zero-length gets its span repaired to the union of its children's spans;
// synthetic block wrappers from the converter start out with no extent.
func (b *Builder) FinishNode() {
	if len(b.stack) > 0 {
		id := b.stack[len(b.stack)-1]
		n := b.arena.Node(id)

		if n.Kind == KindBlock && n.Span.Len == 0 {
			haveChild := false
			var minStart, maxEnd uint32

			for c := n.FirstChild; c != NoNode; c = b.arena.Node(c).NextSibling {
				cs := b.arena.Node(c).Span
				if !haveChild || cs.Start < minStart {
					minStart = cs.Start
				}
				if cs.End() > maxEnd {
					maxEnd = cs.End()
				}
				haveChild = true
			}

			if haveChild && maxEnd >= minStart {
				n.Span = source.NewSpan(minStart, maxEnd-minStart)
			}
		}

		b.stack = b.stack[:len(b.stack)-1]
	}
}

// Leaf appends a childless node under the current cursor without moving it.
func (b *Builder) Leaf(kind Kind, span source.Span, payload Payload) NodeID {
	id := b.arena.Alloc(Node{Kind: kind, Payload: payload, Span: span, FirstChild: NoNode, NextSibling: NoNode})
	b.attach(id)

	if b.root == NoNode {
		b.root = id
	}

	return id
}

// IdentLeaf appends an Identifier leaf, interning its text.
func (b *Builder) IdentLeaf(span source.Span, name string) NodeID {
	return b.Leaf(KindIdentifier, span, IdentPayload(b.interner.Intern(name)))
}

// LiteralLeaf appends a Literal leaf, interning its text.
func (b *Builder) LiteralLeaf(span source.Span, text string) NodeID {
	return b.Leaf(KindLiteral, span, LiteralPayload(b.interner.Intern(text)))
}

// ErrorLeaf appends an Error leaf recording a diagnostic message in the
// side table.
func (b *Builder) ErrorLeaf(span source.Span, message string) NodeID {
	idx := safeconv.MustIntToUint32(len(b.errMsgs))
	b.errMsgs = append(b.errMsgs, message)

	return b.Leaf(KindError, span, ErrorPayload(idx))
}

// StartCall opens a Call node. Its payload is filled in by FinishCall once
// the callee and arguments have been attached.
func (b *Builder) StartCall(span source.Span) {
	b.StartNode(KindCall, span)
}

// FinishCall closes a Call node, guessing the call shape from the attached
// children: a call looks like a method call when its second child is an
// Identifier and its first is not. Front ends that know the call form should
// use FinishCallAs instead; the guess cannot tell a method call on an
// identifier receiver from a function call with an identifier argument.
func (b *Builder) FinishCall() {
	isMethod := false

	if len(b.stack) > 0 {
		id := b.stack[len(b.stack)-1]
		if b.arena.Node(id).Kind == KindCall {
			children := b.arena.Children(id)
			if len(children) >= 2 &&
				b.arena.Node(children[1]).Kind == KindIdentifier &&
				b.arena.Node(children[0]).Kind != KindIdentifier {
				isMethod = true
			}
		}
	}

	b.FinishCallAs(isMethod)
}

// FinishCallAs closes a Call node with an explicitly known shape. For method
// calls the first child is the receiver and the second the method name; for
// function calls the first child is the callee. Remaining children are
// arguments.
func (b *Builder) FinishCallAs(isMethod bool) {
	if len(b.stack) > 0 {
		id := b.stack[len(b.stack)-1]

		if b.arena.Node(id).Kind == KindCall {
			children := b.arena.Children(id)

			argStart := 1
			if isMethod {
				argStart = 2
			}

			argCount := 0
			if len(children) > argStart {
				argCount = len(children) - argStart
			}

			dataIdx := safeconv.MustIntToUint32(len(b.callData))
			b.callData = append(b.callData, CallData{ArgCount: uint16(argCount), IsMethod: isMethod})
			b.arena.Node(id).Payload = CallPayload(dataIdx)
		}
	}

	b.FinishNode()
}

// attach links id as the last child of the current cursor node.
func (b *Builder) attach(id NodeID) {
	if len(b.stack) == 0 {
		return
	}

	parent := b.stack[len(b.stack)-1]
	pn := b.arena.Node(parent)

	if pn.FirstChild == NoNode {
		pn.FirstChild = id

		return
	}

	cur := pn.FirstChild
	for b.arena.Node(cur).NextSibling != NoNode {
		cur = b.arena.Node(cur).NextSibling
	}
	b.arena.Node(cur).NextSibling = id
}

// Build finalizes the session into a BuiltAST and computes all fingerprints.
// It panics if no node was ever started; calling Build on an empty builder is
// a programming error, not a recoverable condition.
func (b *Builder) Build() *BuiltAST {
	built := b.BuildWithoutFingerprints()
	built.RecomputeFingerprints()

	return built
}

// BuildWithoutFingerprints finalizes the session but leaves fingerprints
// empty, for callers that assemble hybrid trees and recompute partially.
func (b *Builder) BuildWithoutFingerprints() *BuiltAST {
	if b.root == NoNode {
		panic("ast: Build called with no root node")
	}

	return &BuiltAST{
		Arena:         b.arena,
		Root:          b.root,
		Interner:      b.interner,
		ErrorMessages: b.errMsgs,
		CallData:      b.callData,
	}
}
