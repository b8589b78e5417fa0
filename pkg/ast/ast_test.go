package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bslcheck/pkg/ast"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// buildSample builds a module with procedure A and function B. The literal
// assigned inside B is parameterized so tests can produce a one-token edit.
func buildSample(secondLit string) *ast.BuiltAST {
	b := ast.NewBuilder()

	b.StartNode(ast.KindModule, source.NewSpan(0, 100))

	b.StartIdentNode(ast.KindProcedure, source.NewSpan(0, 40), "A")
	b.StartNode(ast.KindBlock, source.NewSpan(0, 0))
	b.StartNode(ast.KindAssignment, source.NewSpan(5, 10))
	b.IdentLeaf(source.NewSpan(5, 1), "X")
	b.LiteralLeaf(source.NewSpan(9, 1), "1")
	b.FinishNode()
	b.FinishNode()
	b.FinishNode()

	b.StartIdentNode(ast.KindFunction, source.NewSpan(50, 40), "B")
	b.StartNode(ast.KindBlock, source.NewSpan(0, 0))
	b.StartNode(ast.KindAssignment, source.NewSpan(55, 10))
	b.IdentLeaf(source.NewSpan(55, 1), "Y")
	b.LiteralLeaf(source.NewSpan(59, 1), secondLit)
	b.FinishNode()
	b.FinishNode()
	b.FinishNode()

	b.FinishNode()

	return b.Build()
}

func findNode(t *ast.BuiltAST, match func(ast.NodeID) bool) ast.NodeID {
	for _, id := range t.Arena.Preorder(t.Root) {
		if match(id) {
			return id
		}
	}

	return ast.NoNode
}

func routineByName(t *ast.BuiltAST, name string) ast.NodeID {
	return findNode(t, func(id ast.NodeID) bool {
		return t.Arena.Node(id).Kind.IsRoutine() && t.IdentText(id) == name
	})
}

func TestBuilderChildOrder(t *testing.T) {
	t.Parallel()

	tree := buildSample("2")
	children := tree.Arena.Children(tree.Root)

	require.Len(t, children, 2)
	assert.Equal(t, ast.KindProcedure, tree.Arena.Node(children[0]).Kind)
	assert.Equal(t, "A", tree.IdentText(children[0]))
	assert.Equal(t, ast.KindFunction, tree.Arena.Node(children[1]).Kind)
	assert.Equal(t, "B", tree.IdentText(children[1]))
}

func TestBuilderRepairsZeroLengthBlockSpans(t *testing.T) {
	t.Parallel()

	tree := buildSample("2")
	blockA := findNode(tree, func(id ast.NodeID) bool {
		return tree.Arena.Node(id).Kind == ast.KindBlock
	})

	require.NotEqual(t, ast.NoNode, blockA)
	assert.Equal(t, source.NewSpan(5, 10), tree.Arena.Node(blockA).Span)
}

func TestBuilderPanicsWithoutRoot(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "ast: Build called with no root node", func() {
		ast.NewBuilder().Build()
	})
}

func TestFinishCallShapes(t *testing.T) {
	t.Parallel()

	t.Run("function_call", func(t *testing.T) {
		t.Parallel()

		b := ast.NewBuilder()
		b.StartCall(source.NewSpan(0, 10))
		b.IdentLeaf(source.NewSpan(0, 1), "F")
		b.LiteralLeaf(source.NewSpan(2, 1), "1")
		b.LiteralLeaf(source.NewSpan(4, 1), "2")
		b.FinishCall()
		tree := b.Build()

		cd, ok := tree.CallInfo(tree.Root)
		require.True(t, ok)
		assert.False(t, cd.IsMethod)
		assert.Equal(t, uint16(2), cd.ArgCount)
	})

	t.Run("method_call", func(t *testing.T) {
		t.Parallel()

		b := ast.NewBuilder()
		b.StartCall(source.NewSpan(0, 12))
		b.StartNode(ast.KindMember, source.NewSpan(0, 5))
		b.IdentLeaf(source.NewSpan(0, 3), "Obj")
		b.IdentLeaf(source.NewSpan(4, 1), "P")
		b.FinishNode()
		b.IdentLeaf(source.NewSpan(6, 3), "Add")
		b.LiteralLeaf(source.NewSpan(10, 1), "1")
		b.FinishCall()
		tree := b.Build()

		cd, ok := tree.CallInfo(tree.Root)
		require.True(t, ok)
		assert.True(t, cd.IsMethod)
		assert.Equal(t, uint16(1), cd.ArgCount)
	})
}

func TestInternerDeduplicates(t *testing.T) {
	t.Parallel()

	in := ast.NewInterner()
	a := in.Intern("Значение")
	b := in.Intern("Другое")
	c := in.Intern("Значение")

	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, in.Count())
	assert.Equal(t, "Значение", in.Resolve(a))
}

func TestFingerprintDeterminism(t *testing.T) {
	t.Parallel()

	first := buildSample("2")
	second := buildSample("2")

	require.Equal(t, first.Arena.Len(), second.Arena.Len())
	assert.Equal(t, first.Fingerprints, second.Fingerprints)
}

func TestFingerprintSensitivity(t *testing.T) {
	t.Parallel()

	before := buildSample("2")
	after := buildSample("3")

	procA := routineByName(before, "A")
	funcB := routineByName(before, "B")
	require.NotEqual(t, ast.NoNode, procA)
	require.NotEqual(t, ast.NoNode, funcB)

	// Same construction order, so node IDs line up across the two builds.
	assert.Equal(t, before.Fingerprints[procA], after.Fingerprints[procA])
	assert.NotEqual(t, before.Fingerprints[funcB], after.Fingerprints[funcB])
	assert.NotEqual(t, before.RootFingerprint(), after.RootFingerprint())
}

func TestPartialRecomputeVisitsOnlyDirtyPath(t *testing.T) {
	t.Parallel()

	tree := buildSample("2")
	lit := findNode(tree, func(id ast.NodeID) bool {
		return tree.LiteralText(id) == "2"
	})
	require.NotEqual(t, ast.NoNode, lit)

	want := append([]uint64(nil), tree.Fingerprints...)

	// Marking twice must not grow the dirty set.
	tree.MarkDirtyUpwards(lit)
	tree.MarkDirtyUpwards(lit)
	tree.RecomputeFingerprintsPartial()

	// literal, assignment, block, function, module
	assert.Equal(t, 5, tree.LastPartialRecomputed)
	assert.Equal(t, want, tree.Fingerprints)
}

func TestDirtyRebuildBoundaries(t *testing.T) {
	t.Parallel()

	tree := buildSample("2")
	procA := routineByName(tree, "A")
	funcB := routineByName(tree, "B")

	t.Run("inside_one_routine", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []ast.NodeID{procA}, tree.DirtyRebuildBoundaries(6, 8))
	})

	t.Run("insertion_point", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []ast.NodeID{funcB}, tree.DirtyRebuildBoundaries(57, 57))
	})

	t.Run("between_routines_reports_module", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []ast.NodeID{tree.Root}, tree.DirtyRebuildBoundaries(42, 44))
	})

	t.Run("spanning_both_routines", func(t *testing.T) {
		t.Parallel()

		got := tree.DirtyRebuildBoundaries(6, 58)
		assert.Contains(t, got, procA)
		assert.Contains(t, got, funcB)
	})

	t.Run("past_end_is_noop", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, tree.DirtyRebuildBoundaries(200, 201))
	})
}
