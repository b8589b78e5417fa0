package bsl

import (
	"github.com/Sumatoshi-tech/bslcheck/pkg/ast"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// BuildArena lowers a legacy Module into the arena form with fingerprints
// computed. Bad statements and expressions become Error leaves.
func BuildArena(m *Module) *ast.BuiltAST {
	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, m.Span)
	for _, st := range m.Body {
		convertStmt(b, st)
	}
	b.FinishNode()

	return b.Build()
}

// ParseToAST recognizes src and converts it in one step, discarding syntax
// diagnostics. Callers that surface them use Parse and BuildArena directly.
func ParseToAST(src string) *ast.BuiltAST {
	m, _ := Parse(src, "")

	return BuildArena(m)
}

func convertStmt(b *ast.Builder, st Stmt) {
	switch s := st.(type) {
	case *VarStmt:
		b.StartNode(ast.KindVarDecl, s.Span)
		for _, name := range s.Names {
			b.IdentLeaf(name.Span, name.Name)
		}
		b.FinishNode()
	case *Routine:
		kind := ast.KindProcedure
		if s.IsFunction {
			kind = ast.KindFunction
		}
		b.StartIdentNode(kind, s.Span, s.Name.Name)
		for _, p := range s.Params {
			b.Leaf(ast.KindParam, p.Span, ast.IdentPayload(b.Intern(p.Name)))
		}
		convertBlock(b, s.Body)
		b.FinishNode()
	case *AssignStmt:
		b.StartNode(ast.KindAssignment, s.Span)
		b.IdentLeaf(s.Target.Span, s.Target.Name)
		convertExpr(b, s.Value)
		b.FinishNode()
	case *ExprStmt:
		convertExpr(b, s.X)
	case *IfStmt:
		b.StartNode(ast.KindIf, s.Span)
		convertExpr(b, s.Cond)
		convertBlock(b, s.Then)
		for i := range s.ElseIfs {
			ei := &s.ElseIfs[i]
			b.StartNode(ast.KindIf, ei.Span)
			convertExpr(b, ei.Cond)
			convertBlock(b, ei.Body)
			b.FinishNode()
		}
		if s.HasElse {
			convertBlock(b, s.Else)
		}
		b.FinishNode()
	case *WhileStmt:
		b.StartNode(ast.KindWhile, s.Span)
		convertExpr(b, s.Cond)
		convertBlock(b, s.Body)
		b.FinishNode()
	case *ReturnStmt:
		b.StartNode(ast.KindReturn, s.Span)
		if s.Value != nil {
			convertExpr(b, s.Value)
		}
		b.FinishNode()
	case *BadStmt:
		b.ErrorLeaf(s.Span, s.Reason)
	}
}

// convertBlock wraps stmts in a Block node. The zero span is repaired to
// the union of the children when the block is finished.
func convertBlock(b *ast.Builder, stmts []Stmt) {
	b.StartNode(ast.KindBlock, source.Span{})
	for _, st := range stmts {
		convertStmt(b, st)
	}
	b.FinishNode()
}

func convertExpr(b *ast.Builder, e Expr) {
	switch x := e.(type) {
	case *Literal:
		b.LiteralLeaf(x.Span, x.Text)
	case *Ident:
		b.IdentLeaf(x.Span, x.Name)
	case *CallExpr:
		b.StartCall(x.Span)
		b.IdentLeaf(x.Name.Span, x.Name.Name)
		for _, arg := range x.Args {
			convertExpr(b, arg)
		}
		b.FinishCallAs(false)
	case *MethodCallExpr:
		b.StartCall(x.Span)
		convertExpr(b, x.Receiver)
		b.IdentLeaf(x.Method.Span, x.Method.Name)
		for _, arg := range x.Args {
			convertExpr(b, arg)
		}
		b.FinishCallAs(true)
	case *PropertyExpr:
		b.StartNode(ast.KindMember, x.Span)
		convertExpr(b, x.Receiver)
		b.IdentLeaf(x.Prop.Span, x.Prop.Name)
		b.FinishNode()
	case *NewExpr:
		b.StartNode(ast.KindNew, x.Span)
		b.IdentLeaf(x.TypeName.Span, x.TypeName.Name)
		for _, arg := range x.Args {
			convertExpr(b, arg)
		}
		b.FinishNode()
	case *BinaryExpr:
		b.StartNode(ast.KindBinary, x.Span)
		convertExpr(b, x.Left)
		b.IdentLeaf(x.OpSpan, x.Op)
		convertExpr(b, x.Right)
		b.FinishNode()
	case *UnaryExpr:
		b.StartNode(ast.KindUnary, x.Span)
		b.IdentLeaf(x.OpSpan, x.Op)
		convertExpr(b, x.Inner)
		b.FinishNode()
	case *BadExpr:
		b.ErrorLeaf(x.Span, "unparsed expression")
	}
}
