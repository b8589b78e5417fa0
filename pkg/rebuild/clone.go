package rebuild

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/bslcheck/pkg/ast"
)

// ErrUnsupportedPayload is returned when a subtree contains a Call or Error
// payload node. Those carry side-table indices (call shapes, diagnostic
// messages) that cloning does not reproduce; the caller must discard the
// partial tree and fall back to a full rebuild.
var ErrUnsupportedPayload = errors.New("rebuild: unsupported payload in subtree")

// cloneSubtree re-builds the subtree rooted at id from src into b, re-interning
// symbol payloads into the destination session. It fails on the first Call or
// Error payload anywhere in the walk.
func cloneSubtree(src *ast.BuiltAST, id ast.NodeID, b *ast.Builder) error {
	n := src.Arena.Node(id)

	var payload ast.Payload

	switch n.Payload.Kind {
	case ast.PayloadNone:
		payload = ast.NoPayload()
	case ast.PayloadIdent:
		payload = ast.IdentPayload(b.Intern(src.Interner.Resolve(n.Payload.Sym)))
	case ast.PayloadLiteral:
		payload = ast.LiteralPayload(b.Intern(src.Interner.Resolve(n.Payload.Sym)))
	case ast.PayloadError, ast.PayloadCall:
		return fmt.Errorf("clone %s node %d: %w", n.Kind, id, ErrUnsupportedPayload)
	}

	if n.FirstChild == ast.NoNode {
		b.Leaf(n.Kind, n.Span, payload)

		return nil
	}

	b.StartNodeWithPayload(n.Kind, n.Span, payload)

	for c := n.FirstChild; c != ast.NoNode; c = src.Arena.Node(c).NextSibling {
		if err := cloneSubtree(src, c, b); err != nil {
			return err
		}
	}

	b.FinishNode()

	return nil
}
