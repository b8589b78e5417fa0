// Package bsl is the parsing front end: a line-oriented recognizer for a
// practical subset of 1C:Enterprise BSL that produces a simplified legacy
// syntax tree, and a converter from that tree into the arena form.
//
// The recognizer is deliberately not a grammar-correct parser. Every node
// carries a best-effort byte span; constructs it cannot represent become
// BadStmt/BadExpr entries and survive conversion as Error leaves instead of
// being dropped.
package bsl

import "github.com/Sumatoshi-tech/bslcheck/pkg/source"

// NameRef is an identifier occurrence with its span.
type NameRef struct {
	Name string
	Span source.Span
}

// Module is the root of the legacy tree. Routines, module variables, and
// top-level statements all live in Body in source order.
type Module struct {
	Body []Stmt
	Span source.Span
}

// Stmt is a legacy-tree statement.
type Stmt interface {
	Pos() source.Span
}

// VarStmt is a Перем declaration of one or more names.
type VarStmt struct {
	Names []NameRef
	Span  source.Span
}

// Routine is a procedure or function declaration.
type Routine struct {
	IsFunction bool
	Name       NameRef
	Params     []NameRef
	Export     bool
	Body       []Stmt
	Span       source.Span
}

// AssignStmt is an assignment to a simple identifier target.
type AssignStmt struct {
	Target NameRef
	Value  Expr
	Span   source.Span
}

// ExprStmt is a bare expression statement, usually a call.
type ExprStmt struct {
	X    Expr
	Span source.Span
}

// ElseIf is one ИначеЕсли arm.
type ElseIf struct {
	Cond Expr
	Body []Stmt
	Span source.Span
}

// IfStmt is a conditional with optional else-if arms and else branch.
type IfStmt struct {
	Cond    Expr
	Then    []Stmt
	ElseIfs []ElseIf
	Else    []Stmt
	HasElse bool
	Span    source.Span
}

// WhileStmt is a Пока loop.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Span source.Span
}

// ReturnStmt is a Возврат with an optional value.
type ReturnStmt struct {
	Value Expr
	Span  source.Span
}

// BadStmt records a line the recognizer could not interpret.
type BadStmt struct {
	Reason string
	Span   source.Span
}

// Pos implementations.
func (s *VarStmt) Pos() source.Span    { return s.Span }
func (s *Routine) Pos() source.Span    { return s.Span }
func (s *AssignStmt) Pos() source.Span { return s.Span }
func (s *ExprStmt) Pos() source.Span   { return s.Span }
func (s *IfStmt) Pos() source.Span     { return s.Span }
func (s *WhileStmt) Pos() source.Span  { return s.Span }
func (s *ReturnStmt) Pos() source.Span { return s.Span }
func (s *BadStmt) Pos() source.Span    { return s.Span }

// Expr is a legacy-tree expression.
type Expr interface {
	Pos() source.Span
}

// Literal is a number, string, boolean, date, Null, or Неопределено literal.
// Text is the normalized content (string literals lose their quotes).
type Literal struct {
	Text string
	Span source.Span
}

// Ident is an identifier expression.
type Ident struct {
	Name string
	Span source.Span
}

// CallExpr is a plain function or procedure call.
type CallExpr struct {
	Name NameRef
	Args []Expr
	Span source.Span
}

// MethodCallExpr is a method call on a receiver expression.
type MethodCallExpr struct {
	Receiver Expr
	Method   NameRef
	Args     []Expr
	Span     source.Span
}

// PropertyExpr is a property access on a receiver expression.
type PropertyExpr struct {
	Receiver Expr
	Prop     NameRef
	Span     source.Span
}

// NewExpr is a Новый constructor expression.
type NewExpr struct {
	TypeName NameRef
	Args     []Expr
	Span     source.Span
}

// BinaryExpr is a binary operation; Op is the surface operator text with
// logical operators normalized to И/ИЛИ.
type BinaryExpr struct {
	Left   Expr
	Op     string
	OpSpan source.Span
	Right  Expr
	Span   source.Span
}

// UnaryExpr is a unary operation (НЕ or numeric negation).
type UnaryExpr struct {
	Op     string
	OpSpan source.Span
	Inner  Expr
	Span   source.Span
}

// BadExpr marks an expression the recognizer gave up on.
type BadExpr struct {
	Span source.Span
}

// Pos implementations.
func (e *Literal) Pos() source.Span        { return e.Span }
func (e *Ident) Pos() source.Span          { return e.Span }
func (e *CallExpr) Pos() source.Span       { return e.Span }
func (e *MethodCallExpr) Pos() source.Span { return e.Span }
func (e *PropertyExpr) Pos() source.Span   { return e.Span }
func (e *NewExpr) Pos() source.Span        { return e.Span }
func (e *BinaryExpr) Pos() source.Span     { return e.Span }
func (e *UnaryExpr) Pos() source.Span      { return e.Span }
func (e *BadExpr) Pos() source.Span        { return e.Span }
