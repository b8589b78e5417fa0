// Package ast implements the arena-based syntax tree for BSL modules: a flat
// append-only node store addressed by dense NodeIDs, a stack-based builder,
// per-session string interning, content fingerprints with dirty-only
// recomputation, and dirty-range boundary location.
//
// A NodeID is only meaningful relative to the arena that produced it. Nodes
// link children through first-child/next-sibling chains and carry no parent
// pointers; ancestry is reconstructed on demand via ParentMap.
package ast

import (
	"math"

	"github.com/Sumatoshi-tech/bslcheck/pkg/safeconv"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// NodeID is a dense zero-based handle into one Arena.
type NodeID uint32

// NoNode marks an absent node link (no child, no sibling, no parent).
const NoNode NodeID = math.MaxUint32

// PayloadKind tags the variant stored in a Payload.
type PayloadKind uint8

// Payload variants.
const (
	PayloadNone PayloadKind = iota
	PayloadIdent
	PayloadLiteral
	PayloadError
	PayloadCall
)

// Payload carries per-kind node data: an interned symbol for identifiers and
// literals, an index into the error-message table for Error nodes, or an
// index into the call-data table for Call nodes.
type Payload struct {
	Kind  PayloadKind
	Sym   Symbol
	Index uint32
}

// NoPayload is the empty payload.
func NoPayload() Payload { return Payload{Kind: PayloadNone} }

// IdentPayload wraps an identifier symbol.
func IdentPayload(sym Symbol) Payload { return Payload{Kind: PayloadIdent, Sym: sym} }

// LiteralPayload wraps a literal symbol.
func LiteralPayload(sym Symbol) Payload { return Payload{Kind: PayloadLiteral, Sym: sym} }

// ErrorPayload wraps an index into the error-message table.
func ErrorPayload(index uint32) Payload { return Payload{Kind: PayloadError, Index: index} }

// CallPayload wraps an index into the call-data table.
func CallPayload(index uint32) Payload { return Payload{Kind: PayloadCall, Index: index} }

// CallData records the shape of one call expression.
type CallData struct {
	ArgCount uint16
	IsMethod bool
}

// Node is one arena entry. Children form a singly linked list through
// FirstChild and NextSibling.
type Node struct {
	Kind        Kind
	Payload     Payload
	Span        source.Span
	FirstChild  NodeID
	NextSibling NodeID
}

// Arena is an append-only node store. IDs are assigned in allocation order
// and never reused.
type Arena struct {
	nodes []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc appends a node and returns its ID.
func (a *Arena) Alloc(n Node) NodeID {
	id := NodeID(safeconv.MustIntToUint32(len(a.nodes)))
	a.nodes = append(a.nodes, n)

	return id
}

// Node returns a pointer to the node with the given ID. The pointer stays
// valid until the next Alloc.
func (a *Arena) Node(id NodeID) *Node {
	return &a.nodes[id]
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Children collects the child IDs of a node in sibling order.
func (a *Arena) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := a.nodes[id].FirstChild; c != NoNode; c = a.nodes[c].NextSibling {
		out = append(out, c)
	}

	return out
}

// Preorder returns all node IDs in the subtree rooted at root, parents before
// children, siblings left to right. Uses an explicit stack so nesting depth
// is not bounded by the goroutine stack.
func (a *Arena) Preorder(root NodeID) []NodeID {
	if a.Len() == 0 {
		return nil
	}

	out := make([]NodeID, 0, a.Len())
	stack := []NodeID{root}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, id)

		children := a.Children(id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return out
}

// Clone returns an independent deep copy of the arena.
func (a *Arena) Clone() *Arena {
	nodes := make([]Node, len(a.nodes))
	copy(nodes, a.nodes)

	return &Arena{nodes: nodes}
}
