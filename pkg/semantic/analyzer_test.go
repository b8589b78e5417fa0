package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bslcheck/pkg/ast"
	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
	"github.com/Sumatoshi-tech/bslcheck/pkg/semantic"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

func sp(start, length uint32) source.Span {
	return source.NewSpan(start, length)
}

func codesOf(diags []diag.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}

	return out
}

func declX(b *ast.Builder, at uint32) {
	b.StartNode(ast.KindVarDecl, sp(at, 7))
	b.IdentLeaf(sp(at+6, 1), "X")
	b.FinishNode()
}

func assignX(b *ast.Builder, at uint32, lit string) {
	b.StartNode(ast.KindAssignment, sp(at, 8))
	b.IdentLeaf(sp(at, 1), "X")
	b.LiteralLeaf(sp(at+4, uint32(len(lit))), lit)
	b.FinishNode()
}

func useX(b *ast.Builder, at uint32) {
	b.StartCall(sp(at, 12))
	b.IdentLeaf(sp(at, 8), "Сообщить")
	b.IdentLeaf(sp(at+9, 1), "X")
	b.FinishCallAs(false)
}

// buildIfModule builds: Перем X; Если <УСЛОВИЕ> Тогда X=1 [Иначе <else>]
// КонецЕсли; Сообщить(X);
func buildIfModule(withElse, elseReturns bool) *ast.BuiltAST {
	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, sp(0, 120))
	declX(b, 0)

	b.StartNode(ast.KindIf, sp(10, 60))
	b.LiteralLeaf(sp(15, 6), "Истина")
	b.StartNode(ast.KindBlock, sp(0, 0))
	assignX(b, 25, "1")
	b.FinishNode()

	if withElse {
		b.StartNode(ast.KindBlock, sp(0, 0))
		if elseReturns {
			b.StartNode(ast.KindReturn, sp(40, 7))
			b.FinishNode()
		} else {
			assignX(b, 40, "2")
		}
		b.FinishNode()
	}
	b.FinishNode()

	useX(b, 80)
	b.FinishNode()

	return b.Build()
}

func TestIfBranchInitialization(t *testing.T) {
	t.Parallel()

	t.Run("both_branches_initialize", func(t *testing.T) {
		t.Parallel()

		diags := semantic.NewAnalyzer().Analyze(buildIfModule(true, false))

		assert.Empty(t, diags)
	})

	t.Run("no_else_keeps_uninitialized", func(t *testing.T) {
		t.Parallel()

		diags := semantic.NewAnalyzer().Analyze(buildIfModule(false, false))

		assert.Contains(t, codesOf(diags), diag.CodeUninitializedVariable)
	})

	t.Run("returning_branch_does_not_constrain", func(t *testing.T) {
		t.Parallel()

		diags := semantic.NewAnalyzer().Analyze(buildIfModule(true, true))

		assert.NotContains(t, codesOf(diags), diag.CodeUninitializedVariable)
	})
}

func buildWhileModule(cond string) *ast.BuiltAST {
	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, sp(0, 120))
	declX(b, 0)

	b.StartNode(ast.KindWhile, sp(10, 50))
	b.LiteralLeaf(sp(15, uint32(len(cond))), cond)
	b.StartNode(ast.KindBlock, sp(0, 0))
	assignX(b, 30, "1")
	b.FinishNode()
	b.FinishNode()

	useX(b, 70)
	b.FinishNode()

	return b.Build()
}

func TestWhileTruePropagation(t *testing.T) {
	t.Parallel()

	t.Run("literal_true_promotes", func(t *testing.T) {
		t.Parallel()

		diags := semantic.NewAnalyzer().Analyze(buildWhileModule("Истина"))

		assert.NotContains(t, codesOf(diags), diag.CodeUninitializedVariable)
	})

	t.Run("other_condition_restores", func(t *testing.T) {
		t.Parallel()

		diags := semantic.NewAnalyzer().Analyze(buildWhileModule("0"))

		assert.Contains(t, codesOf(diags), diag.CodeUninitializedVariable)
	})
}

func TestDuplicateDeclarations(t *testing.T) {
	t.Parallel()

	t.Run("duplicate_parameter", func(t *testing.T) {
		t.Parallel()

		b := ast.NewBuilder()
		b.StartNode(ast.KindModule, sp(0, 60))
		b.StartIdentNode(ast.KindProcedure, sp(0, 50), "Ф")
		b.Leaf(ast.KindParam, sp(10, 1), ast.IdentPayload(b.Intern("П")))
		b.Leaf(ast.KindParam, sp(13, 1), ast.IdentPayload(b.Intern("П")))
		b.FinishNode()
		b.FinishNode()

		diags := semantic.NewAnalyzer().Analyze(b.Build())

		assert.Contains(t, codesOf(diags), diag.CodeDuplicateParameter)
	})

	t.Run("duplicate_module_variable", func(t *testing.T) {
		t.Parallel()

		b := ast.NewBuilder()
		b.StartNode(ast.KindModule, sp(0, 30))
		declX(b, 0)
		declX(b, 10)
		b.FinishNode()

		diags := semantic.NewAnalyzer().Analyze(b.Build())

		assert.Contains(t, codesOf(diags), diag.CodeDuplicateVariable)
	})

	t.Run("shadowing_is_a_hint", func(t *testing.T) {
		t.Parallel()

		b := ast.NewBuilder()
		b.StartNode(ast.KindModule, sp(0, 60))
		declX(b, 0)
		b.StartIdentNode(ast.KindProcedure, sp(10, 40), "Ф")
		b.StartNode(ast.KindBlock, sp(0, 0))
		declX(b, 20)
		assignX(b, 30, "1")
		b.FinishNode()
		b.FinishNode()
		useX(b, 52)
		b.FinishNode()

		diags := semantic.NewAnalyzer().Analyze(b.Build())

		var hint *diag.Diagnostic
		for i, d := range diags {
			if d.Severity == diag.SeverityHint {
				hint = &diags[i]
			}
		}

		require.NotNil(t, hint)
		assert.Equal(t, diag.CodeDuplicateVariable, hint.Code)
	})
}

func TestTypeMismatchAnchoredAtSecondTarget(t *testing.T) {
	t.Parallel()

	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, sp(0, 60))
	declX(b, 0)
	assignX(b, 10, "1")
	assignX(b, 30, "строка")
	b.FinishNode()

	diags := semantic.NewAnalyzer().Analyze(b.Build())

	var mismatches []diag.Diagnostic
	for _, d := range diags {
		if d.Code == diag.CodeTypeMismatch {
			mismatches = append(mismatches, d)
		}
	}

	require.Len(t, mismatches, 1)
	assert.Equal(t, 30, mismatches[0].Location.Offset)
	assert.Equal(t, diag.SeverityError, mismatches[0].Severity)
}

func TestUndeclaredVariable(t *testing.T) {
	t.Parallel()

	build := func() *ast.BuiltAST {
		b := ast.NewBuilder()
		b.StartNode(ast.KindModule, sp(0, 30))
		b.StartNode(ast.KindAssignment, sp(0, 8))
		b.IdentLeaf(sp(0, 1), "Z")
		b.LiteralLeaf(sp(4, 1), "1")
		b.FinishNode()
		b.FinishNode()

		return b.Build()
	}

	t.Run("reported", func(t *testing.T) {
		t.Parallel()

		diags := semantic.NewAnalyzer().Analyze(build())

		assert.Contains(t, codesOf(diags), diag.CodeUndeclaredVariable)
	})

	t.Run("togglable", func(t *testing.T) {
		t.Parallel()

		a := semantic.NewAnalyzer()
		a.Checks.Undeclared = false
		diags := a.Analyze(build())

		assert.NotContains(t, codesOf(diags), diag.CodeUndeclaredVariable)
	})
}

func TestUnusedVariable(t *testing.T) {
	t.Parallel()

	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, sp(0, 60))
	declX(b, 0)
	b.StartIdentNode(ast.KindProcedure, sp(10, 40), "Ф")
	b.Leaf(ast.KindParam, sp(20, 1), ast.IdentPayload(b.Intern("П")))
	b.FinishNode()
	b.FinishNode()

	diags := semantic.NewAnalyzer().Analyze(b.Build())

	// The unused module variable is reported; the unused parameter is not.
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeUnusedVariable, diags[0].Code)
	assert.Equal(t, diag.SeverityWarning, diags[0].Severity)
}

func TestWriteOnlyVariableUnused(t *testing.T) {
	t.Parallel()

	t.Run("assignment_target_is_not_a_use", func(t *testing.T) {
		t.Parallel()

		b := ast.NewBuilder()
		b.StartNode(ast.KindModule, sp(0, 30))
		declX(b, 0)
		assignX(b, 10, "1")
		b.FinishNode()

		diags := semantic.NewAnalyzer().Analyze(b.Build())

		assert.Equal(t, []string{diag.CodeUnusedVariable}, codesOf(diags))
	})

	t.Run("read_after_assignment_is_a_use", func(t *testing.T) {
		t.Parallel()

		b := ast.NewBuilder()
		b.StartNode(ast.KindModule, sp(0, 50))
		declX(b, 0)
		assignX(b, 10, "1")
		useX(b, 25)
		b.FinishNode()

		diags := semantic.NewAnalyzer().Analyze(b.Build())

		assert.Empty(t, diags)
	})
}

func TestAnalyzeWithChecks(t *testing.T) {
	t.Parallel()

	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, sp(0, 10))
	declX(b, 0)
	b.FinishNode()
	tree := b.Build()

	a := semantic.NewAnalyzer()

	assert.Empty(t, a.AnalyzeWithChecks(tree, semantic.Checks{}))
	assert.NotEmpty(t, a.AnalyzeWithChecks(tree, semantic.Checks{Unused: true}))

	// The analyzer's own selection is untouched.
	assert.Equal(t, semantic.AllChecks(), a.Checks)
}

// buildMethodCall builds: Перем А; А = Новый Массив(); А.<метод>(1);
func buildMethodCall(method string, methodAt uint32) *ast.BuiltAST {
	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, sp(0, 100))

	b.StartNode(ast.KindVarDecl, sp(0, 7))
	b.IdentLeaf(sp(6, 1), "А")
	b.FinishNode()

	b.StartNode(ast.KindAssignment, sp(10, 20))
	b.IdentLeaf(sp(10, 1), "А")
	b.StartNode(ast.KindNew, sp(14, 15))
	b.IdentLeaf(sp(20, 6), "Массив")
	b.FinishNode()
	b.FinishNode()

	b.StartCall(sp(40, 30))
	b.IdentLeaf(sp(40, 1), "А")
	b.IdentLeaf(sp(methodAt, uint32(len([]byte(method)))), method)
	b.LiteralLeaf(sp(methodAt+20, 1), "1")
	b.FinishCallAs(true)

	b.FinishNode()

	return b.Build()
}

func TestMethodResolution(t *testing.T) {
	t.Parallel()

	t.Run("unknown_method_anchored_at_name", func(t *testing.T) {
		t.Parallel()

		a := semantic.NewAnalyzer()
		a.Checks.Methods = true
		diags := a.Analyze(buildMethodCall("Чужой", 42))

		require.Len(t, diags, 1)
		assert.Equal(t, diag.CodeUnknownMethod, diags[0].Code)
		assert.Equal(t, 42, diags[0].Location.Offset)
		assert.Equal(t, len([]byte("Чужой")), diags[0].Location.Length)
	})

	t.Run("known_method_passes", func(t *testing.T) {
		t.Parallel()

		a := semantic.NewAnalyzer()
		a.Checks.Methods = true
		diags := a.Analyze(buildMethodCall("Добавить", 42))

		assert.Empty(t, diags)
	})

	t.Run("disabled_by_default", func(t *testing.T) {
		t.Parallel()

		diags := semantic.NewAnalyzer().Analyze(buildMethodCall("Чужой", 42))

		assert.Empty(t, diags)
	})
}

func TestPropertyResolution(t *testing.T) {
	t.Parallel()

	build := func(prop string) *ast.BuiltAST {
		b := ast.NewBuilder()
		b.StartNode(ast.KindModule, sp(0, 100))

		b.StartNode(ast.KindVarDecl, sp(0, 7))
		b.IdentLeaf(sp(6, 1), "А")
		b.FinishNode()

		b.StartNode(ast.KindAssignment, sp(10, 20))
		b.IdentLeaf(sp(10, 1), "А")
		b.StartNode(ast.KindNew, sp(14, 15))
		b.IdentLeaf(sp(20, 6), "Массив")
		b.FinishNode()
		b.FinishNode()

		b.StartNode(ast.KindAssignment, sp(40, 20))
		b.IdentLeaf(sp(40, 1), "А")
		b.StartNode(ast.KindMember, sp(44, 12))
		b.IdentLeaf(sp(44, 1), "А")
		b.IdentLeaf(sp(46, uint32(len([]byte(prop)))), prop)
		b.FinishNode()
		b.FinishNode()

		b.FinishNode()

		return b.Build()
	}

	t.Run("unknown_property", func(t *testing.T) {
		t.Parallel()

		a := semantic.NewAnalyzer()
		a.Checks.Methods = true
		diags := a.Analyze(build("Чего"))

		require.NotEmpty(t, diags)
		assert.Equal(t, diag.CodeUnknownProperty, diags[0].Code)
		assert.Equal(t, 46, diags[0].Location.Offset)
	})

	t.Run("known_property", func(t *testing.T) {
		t.Parallel()

		a := semantic.NewAnalyzer()
		a.Checks.Methods = true
		diags := a.Analyze(build("Количество"))

		assert.Empty(t, diags)
	})
}
