package semantic

import (
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/bslcheck/pkg/ast"
	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// maxLoopIterations bounds the fixed-point simulation of loop bodies. Four
// passes reach a fixed point for straight-line bodies.
const maxLoopIterations = 4

// Checks selects which diagnostics a run emits. Disabling a check suppresses
// only its diagnostics; the underlying tracking always runs because later
// checks depend on it.
type Checks struct {
	Unused        bool
	Uninitialized bool
	Undeclared    bool
	// Methods enables method and property resolution against the catalog.
	Methods bool
}

// AllChecks enables the three variable checks; method resolution stays
// opt-in because it needs a populated catalog to be useful.
func AllChecks() Checks {
	return Checks{Unused: true, Uninitialized: true, Undeclared: true}
}

// VarInfo tracks one variable through a single analysis run.
type VarInfo struct {
	Name        string
	Declared    ast.NodeID
	Used        bool
	Initialized bool
	IsParam     bool
	Type        SimpleType
}

// Analyzer walks a built tree once and accumulates diagnostics. The variable
// table is flat across nested scopes: the scope stack only records which
// names were first declared where, for duplicate and shadowing detection.
//
// An Analyzer is reusable across runs but not concurrency-safe; run one
// analyzer per document.
type Analyzer struct {
	FileName  string
	LineIndex *source.LineIndex
	Catalog   *Catalog
	Checks    Checks

	tree      *ast.BuiltAST
	vars      map[string]*VarInfo
	scopes    [][]string
	exprTypes map[ast.NodeID]SimpleType
	skipIdent map[ast.NodeID]bool
	diags     []diag.Diagnostic
}

// NewAnalyzer returns an analyzer with all variable checks enabled.
func NewAnalyzer() *Analyzer {
	return &Analyzer{FileName: "<arena>", Checks: AllChecks()}
}

// Analyze runs one pass over the tree and returns the diagnostics in
// declaration order for end-of-run checks, emission order otherwise.
func (a *Analyzer) Analyze(tree *ast.BuiltAST) []diag.Diagnostic {
	a.tree = tree
	a.vars = make(map[string]*VarInfo)
	a.scopes = nil
	a.exprTypes = make(map[ast.NodeID]SimpleType)
	a.skipIdent = make(map[ast.NodeID]bool)
	a.diags = nil

	if a.Catalog == nil {
		a.Catalog = BuiltinCatalog()
	}

	a.walk(tree.Root)
	a.finalize()

	return a.diags
}

// AnalyzeWithChecks runs one pass with the given check selection, leaving
// the analyzer's own selection untouched.
func (a *Analyzer) AnalyzeWithChecks(tree *ast.BuiltAST, checks Checks) []diag.Diagnostic {
	saved := a.Checks
	a.Checks = checks

	diags := a.Analyze(tree)
	a.Checks = saved

	return diags
}

func (a *Analyzer) finalize() {
	infos := make([]*VarInfo, 0, len(a.vars))
	for _, v := range a.vars {
		infos = append(infos, v)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Declared < infos[j].Declared })

	for _, v := range infos {
		if a.Checks.Unused && !v.Used && !v.IsParam {
			a.report(diag.SeverityWarning, v.Declared, diag.CodeUnusedVariable,
				fmt.Sprintf("Переменная не используется: %s", v.Name))
		}
		if a.Checks.Uninitialized && v.Used && !v.Initialized && !v.IsParam {
			a.report(diag.SeverityWarning, v.Declared, diag.CodeUninitializedVariable,
				fmt.Sprintf("Переменная может быть неинициализирована: %s", v.Name))
		}
	}
}

func (a *Analyzer) report(sev diag.Severity, id ast.NodeID, code, message string) {
	span := a.tree.Arena.Node(id).Span
	a.diags = append(a.diags, diag.New(sev, diag.ResolveLocation(a.FileName, span, a.LineIndex), code, message))
}

// walk visits the subtree at id pre-order. Control-flow nodes (If, While)
// take over traversal of their own children.
func (a *Analyzer) walk(id ast.NodeID) {
	if a.enter(id) {
		for _, c := range a.tree.Arena.Children(id) {
			a.walk(c)
		}
	}

	a.leave(id)
}

// enter handles one node and reports whether the walk should descend.
func (a *Analyzer) enter(id ast.NodeID) bool {
	n := a.tree.Arena.Node(id)

	switch n.Kind {
	case ast.KindModule:
		a.pushScope()
	case ast.KindProcedure, ast.KindFunction:
		a.pushScope()
		for _, c := range a.tree.Arena.Children(id) {
			if a.tree.Arena.Node(c).Kind == ast.KindParam {
				a.declare(a.tree.IdentText(c), c, true)
			}
		}
	case ast.KindVarDecl:
		for _, c := range a.tree.Arena.Children(id) {
			if a.tree.Arena.Node(c).Kind == ast.KindIdentifier {
				a.declare(a.tree.IdentText(c), c, false)
			}
		}

		return false
	case ast.KindAssignment:
		a.enterAssignment(id)
	case ast.KindCall:
		a.enterCall(id)
	case ast.KindMember:
		a.enterMember(id)
	case ast.KindNew:
		if children := a.tree.Arena.Children(id); len(children) > 0 {
			a.skipIdent[children[0]] = true
		}
	case ast.KindBinary:
		if children := a.tree.Arena.Children(id); len(children) >= 2 {
			a.skipIdent[children[1]] = true
		}
	case ast.KindUnary:
		if children := a.tree.Arena.Children(id); len(children) >= 1 {
			a.skipIdent[children[0]] = true
		}
	case ast.KindIf:
		a.enterIf(id)

		return false
	case ast.KindWhile:
		a.enterWhile(id)

		return false
	case ast.KindIdentifier:
		a.enterIdentifier(id)
	}

	return true
}

func (a *Analyzer) leave(id ast.NodeID) {
	switch a.tree.Arena.Node(id).Kind {
	case ast.KindModule, ast.KindProcedure, ast.KindFunction:
		a.popScope()
	}
}

func (a *Analyzer) enterIdentifier(id ast.NodeID) {
	if a.skipIdent[id] {
		return
	}

	name := a.tree.IdentText(id)
	if name == "" {
		return
	}

	if v, ok := a.vars[name]; ok {
		if id != v.Declared {
			v.Used = true
		}

		return
	}

	if a.Checks.Undeclared {
		a.report(diag.SeverityError, id, diag.CodeUndeclaredVariable,
			fmt.Sprintf("Необъявленная переменная: %s", name))
	}
}

func (a *Analyzer) enterAssignment(id ast.NodeID) {
	children := a.tree.Arena.Children(id)
	if len(children) == 0 || a.tree.Arena.Node(children[0]).Kind != ast.KindIdentifier {
		return
	}

	target := children[0]
	name := a.tree.IdentText(target)
	if name == "" {
		return
	}

	valueTy := Unknown
	if len(children) >= 2 {
		valueTy = a.inferExprType(children[1])
	}

	// The target is a write position, not a use; keep the identifier visit
	// from marking it used (or re-reporting an undeclared target).
	a.skipIdent[target] = true

	v, ok := a.vars[name]
	if !ok {
		if a.Checks.Undeclared {
			a.report(diag.SeverityError, target, diag.CodeUndeclaredVariable,
				fmt.Sprintf("Необъявленная переменная: %s", name))
		}

		return
	}

	if v.Type.Kind != TypeUnknown && valueTy.Kind != TypeUnknown && v.Type != valueTy {
		a.report(diag.SeverityError, target, diag.CodeTypeMismatch,
			fmt.Sprintf("Несовместимое присваивание для %s: %s -> %s", name, v.Type, valueTy))
	}

	v.Initialized = true
	if v.Type.Kind == TypeUnknown {
		v.Type = valueTy
	}
}

func (a *Analyzer) enterCall(id ast.NodeID) {
	children := a.tree.Arena.Children(id)
	info, _ := a.tree.CallInfo(id)

	if info.IsMethod && len(children) >= 2 {
		// The method-name identifier is not a variable use; resolution is
		// checked against the catalog instead.
		a.skipIdent[children[1]] = true

		if a.Checks.Methods {
			a.checkMethod(children[0], children[1])
		}

		return
	}

	// Plain function call: the callee identifier names a routine, not a
	// variable.
	if len(children) >= 1 && a.tree.Arena.Node(children[0]).Kind == ast.KindIdentifier {
		a.skipIdent[children[0]] = true
	}
}

func (a *Analyzer) checkMethod(objID, methodID ast.NodeID) {
	method := a.tree.IdentText(methodID)
	if method == "" {
		return
	}

	objTy := a.inferExprType(objID)

	switch {
	case objTy.Kind == TypeObject:
		if !a.Catalog.HasMethod(objTy.Name, method) {
			a.report(diag.SeverityError, methodID, diag.CodeUnknownMethod,
				fmt.Sprintf("Тип '%s' не содержит метод '%s'", objTy.Name, method))
		}
	case objTy.Kind != TypeUnknown:
		a.report(diag.SeverityError, methodID, diag.CodeUnknownMethod,
			fmt.Sprintf("Метод '%s' недопустим для типа %s", method, objTy))
	}
}

func (a *Analyzer) enterMember(id ast.NodeID) {
	children := a.tree.Arena.Children(id)
	if len(children) < 2 || a.tree.Arena.Node(children[1]).Kind != ast.KindIdentifier {
		return
	}

	a.skipIdent[children[1]] = true

	if !a.Checks.Methods {
		return
	}

	prop := a.tree.IdentText(children[1])
	objTy := a.inferExprType(children[0])

	switch {
	case objTy.Kind == TypeObject:
		if !a.Catalog.HasProperty(objTy.Name, prop) {
			a.report(diag.SeverityError, children[1], diag.CodeUnknownProperty,
				fmt.Sprintf("Тип '%s' не содержит свойство '%s'", objTy.Name, prop))
		}
	case objTy.Kind != TypeUnknown:
		a.report(diag.SeverityError, children[1], diag.CodeUnknownProperty,
			fmt.Sprintf("Свойство '%s' недопустимо для типа %s", prop, objTy))
	}
}

type branchState struct {
	inits   map[string]bool
	returns bool
}

// enterIf visits the condition, then every branch independently from the
// same pre-branch snapshot. A variable is promoted to initialized after the
// whole construct only when an else branch exists and every non-returning
// branch initialized it; branches that return do not constrain the result.
func (a *Analyzer) enterIf(id ast.NodeID) {
	children := a.tree.Arena.Children(id)
	if len(children) == 0 {
		return
	}

	a.walk(children[0])

	pre := a.snapshotInits()
	var branches []branchState
	blockCount := 0

	for _, c := range children[1:] {
		switch a.tree.Arena.Node(c).Kind {
		case ast.KindBlock:
			blockCount++
			a.restoreInits(pre)
			a.visitBranch(c)
			branches = append(branches, branchState{inits: a.snapshotInits(), returns: a.blockReturns(c)})
		case ast.KindIf:
			// Else-if arm: condition plus block.
			a.restoreInits(pre)
			ei := a.tree.Arena.Children(c)
			if len(ei) >= 1 {
				a.walk(ei[0])
			}
			if len(ei) >= 2 && a.tree.Arena.Node(ei[1]).Kind == ast.KindBlock {
				a.visitBranch(ei[1])
				branches = append(branches, branchState{inits: a.snapshotInits(), returns: a.blockReturns(ei[1])})
			}
		}
	}

	a.restoreInits(pre)

	hasElse := blockCount >= 2
	if !hasElse || len(branches) == 0 {
		return
	}

	for name, v := range a.vars {
		all := true
		constrained := false

		for _, b := range branches {
			if b.returns {
				continue
			}
			constrained = true
			if !b.inits[name] {
				all = false

				break
			}
		}

		if all && constrained {
			v.Initialized = true
		}
	}
}

// enterWhile simulates the body a bounded number of times. Variables that
// become initialized inside the loop are promoted past it only when the
// condition is literally true, because such a loop is guaranteed entered;
// any other condition may run the body zero times.
func (a *Analyzer) enterWhile(id ast.NodeID) {
	children := a.tree.Arena.Children(id)
	if len(children) == 0 {
		return
	}

	cond := children[0]
	a.walk(cond)

	guaranteed := a.tree.Arena.Node(cond).Kind == ast.KindLiteral && isTrueLiteral(a.tree.LiteralText(cond))

	pre := a.snapshotInits()
	loopInited := make(map[string]bool)

	if len(children) >= 2 && a.tree.Arena.Node(children[1]).Kind == ast.KindBlock {
		body := children[1]

		for i := 0; i < maxLoopIterations; i++ {
			before := a.snapshotInits()
			a.visitBranch(body)

			changed := false
			for name, init := range a.snapshotInits() {
				if init && !before[name] {
					loopInited[name] = true
				}
				if init != before[name] {
					changed = true
				}
			}

			if !changed {
				break
			}
		}
	}

	a.restoreInits(pre)

	if guaranteed {
		for name := range loopInited {
			if v, ok := a.vars[name]; ok {
				v.Initialized = true
			}
		}
	}
}

// visitBranch walks a block in its own declaration scope.
func (a *Analyzer) visitBranch(block ast.NodeID) {
	a.pushScope()
	for _, c := range a.tree.Arena.Children(block) {
		a.walk(c)
	}
	a.popScope()
}

func (a *Analyzer) blockReturns(block ast.NodeID) bool {
	for _, c := range a.tree.Arena.Children(block) {
		if a.tree.Arena.Node(c).Kind == ast.KindReturn {
			return true
		}
	}

	return false
}

func (a *Analyzer) snapshotInits() map[string]bool {
	out := make(map[string]bool, len(a.vars))
	for name, v := range a.vars {
		out[name] = v.Initialized
	}

	return out
}

func (a *Analyzer) restoreInits(snapshot map[string]bool) {
	for name, init := range snapshot {
		if v, ok := a.vars[name]; ok {
			v.Initialized = init
		}
	}
}

func (a *Analyzer) pushScope() {
	a.scopes = append(a.scopes, nil)
}

func (a *Analyzer) popScope() {
	if len(a.scopes) > 0 {
		a.scopes = a.scopes[:len(a.scopes)-1]
	}
}

// declare records a variable in the current scope. A second declaration in
// the same scope is an error and keeps the first definition; a name already
// known from an outer scope is a shadowing hint.
func (a *Analyzer) declare(name string, id ast.NodeID, isParam bool) {
	if name == "" {
		return
	}

	if len(a.scopes) > 0 {
		for _, existing := range a.scopes[len(a.scopes)-1] {
			if existing == name {
				code := diag.CodeDuplicateVariable
				if isParam {
					code = diag.CodeDuplicateParameter
				}
				a.report(diag.SeverityError, id, code,
					fmt.Sprintf("Дублированное объявление: %s", name))

				return
			}
		}
	}

	if _, ok := a.vars[name]; ok {
		a.report(diag.SeverityHint, id, diag.CodeDuplicateVariable,
			fmt.Sprintf("Тень имени: %s", name))
	} else {
		a.vars[name] = &VarInfo{
			Name:        name,
			Declared:    id,
			Initialized: isParam,
			IsParam:     isParam,
			Type:        Unknown,
		}
	}

	if len(a.scopes) > 0 {
		a.scopes[len(a.scopes)-1] = append(a.scopes[len(a.scopes)-1], name)
	}
}

// inferExprType infers and memoizes the type of an expression node.
func (a *Analyzer) inferExprType(id ast.NodeID) SimpleType {
	if t, ok := a.exprTypes[id]; ok {
		return t
	}

	n := a.tree.Arena.Node(id)
	t := Unknown

	switch n.Kind {
	case ast.KindLiteral:
		t = LiteralType(a.tree.LiteralText(id))
	case ast.KindIdentifier:
		if v, ok := a.vars[a.tree.IdentText(id)]; ok {
			t = v.Type
		}
	case ast.KindNew:
		if children := a.tree.Arena.Children(id); len(children) > 0 {
			if name := a.tree.IdentText(children[0]); name != "" {
				t = ObjectType(name)
			}
		}
	case ast.KindBinary:
		if children := a.tree.Arena.Children(id); len(children) >= 3 {
			t = BinaryResult(a.inferExprType(children[0]), a.tree.IdentText(children[1]), a.inferExprType(children[2]))
		}
	case ast.KindUnary:
		if children := a.tree.Arena.Children(id); len(children) >= 2 {
			t = UnaryResult(a.tree.IdentText(children[0]), a.inferExprType(children[1]))
		}
	}

	a.exprTypes[id] = t

	return t
}
