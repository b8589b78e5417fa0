package bsl

import (
	"strings"

	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
	"github.com/Sumatoshi-tech/bslcheck/pkg/safeconv"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

type frameKind uint8

const (
	frameModule frameKind = iota
	frameRoutine
	frameIf
	frameWhile
)

// frame is one level of the open-construct stack. Statements accumulate in
// stmts until the closing keyword attaches them to the owning node.
type frame struct {
	kind    frameKind
	open    source.Span
	stmts   []Stmt
	routine *Routine
	ifStmt  *IfStmt
	ifMode  int // 0 then, 1 else-if, 2 else
	while   *WhileStmt
}

type scanner struct {
	file   string
	index  *source.LineIndex
	frames []*frame
	diags  []diag.Diagnostic
}

// Parse recognizes src into a legacy Module. The recognizer is line
// oriented: a statement ends at a semicolon or at the end of its line.
// Constructs left open at end of input are closed implicitly. Lines and
// expressions the recognizer cannot interpret become Bad nodes and are
// reported as syntax diagnostics, never dropped.
func Parse(src, file string) (*Module, []diag.Diagnostic) {
	s := &scanner{
		file:   file,
		index:  source.NewLineIndex(src),
		frames: []*frame{{kind: frameModule}},
	}

	offset := 0
	for _, raw := range strings.SplitAfter(src, "\n") {
		line := strings.TrimSuffix(raw, "\n")
		toks := lexLine(line, safeconv.MustIntToUint32(offset))
		offset += len(raw)

		start := 0
		for i, t := range toks {
			if t.isPunct(";") {
				s.dispatch(toks[start:i])
				start = i + 1
			}
		}
		s.dispatch(toks[start:])
	}

	for len(s.frames) > 1 {
		s.closeTop(source.Span{})
	}

	root := s.frames[0]
	m := &Module{Body: root.stmts, Span: source.NewSpan(0, safeconv.MustIntToUint32(len(src)))}

	return m, s.diags
}

func (s *scanner) top() *frame {
	return s.frames[len(s.frames)-1]
}

func (s *scanner) append(st Stmt) {
	f := s.top()
	f.stmts = append(f.stmts, st)
}

func segSpan(toks []token) source.Span {
	first := toks[0].span()
	last := toks[len(toks)-1].span()

	return joinSpans(first, last)
}

func (s *scanner) bad(toks []token, reason string) {
	span := segSpan(toks)
	s.append(&BadStmt{Reason: reason, Span: span})
	s.reportSyntax(span, reason)
}

// badExpr records a syntax diagnostic and returns the placeholder expression.
func (s *scanner) badExpr(span source.Span, reason string) Expr {
	s.reportSyntax(span, reason)

	return &BadExpr{Span: span}
}

func (s *scanner) reportSyntax(span source.Span, reason string) {
	s.diags = append(s.diags, diag.New(diag.SeverityError,
		diag.ResolveLocation(s.file, span, s.index), diag.CodeSyntaxError, reason))
}

// dispatch interprets one semicolon- or line-delimited token segment.
func (s *scanner) dispatch(toks []token) {
	if len(toks) == 0 {
		return
	}

	head := toks[0]
	if head.kind == tokIdent {
		switch head.fold() {
		case "перем", "var":
			s.varDecl(toks)

			return
		case "процедура", "procedure":
			s.routineDecl(toks, false)

			return
		case "функция", "function":
			s.routineDecl(toks, true)

			return
		case "конецпроцедуры", "endprocedure", "конецфункции", "endfunction":
			s.closeRoutine(toks)

			return
		case "если", "if":
			s.openIf(toks)

			return
		case "иначеесли", "elsif", "elseif":
			s.elseIfArm(toks)

			return
		case "иначе", "else":
			s.elseArm(toks)

			return
		case "конецесли", "endif":
			s.closeKind(toks, frameIf)

			return
		case "пока", "while":
			s.openWhile(toks)

			return
		case "конеццикла", "enddo":
			s.closeKind(toks, frameWhile)

			return
		case "возврат", "return":
			s.returnStmt(toks)

			return
		}
	}

	s.plainStmt(toks)
}

func (s *scanner) varDecl(toks []token) {
	st := &VarStmt{Span: segSpan(toks)}

	expectName := true
	for _, t := range toks[1:] {
		if expectName {
			if t.kind != tokIdent {
				s.bad(toks, "malformed variable declaration")

				return
			}
			st.Names = append(st.Names, NameRef{Name: t.text, Span: t.span()})
			expectName = false

			continue
		}
		if !t.isPunct(",") {
			s.bad(toks, "malformed variable declaration")

			return
		}
		expectName = true
	}

	if expectName || len(st.Names) == 0 {
		s.bad(toks, "malformed variable declaration")

		return
	}

	s.append(st)
}

func (s *scanner) routineDecl(toks []token, isFunction bool) {
	if s.top().kind != frameModule {
		s.bad(toks, "nested routine declaration")

		return
	}
	if len(toks) < 2 || toks[1].kind != tokIdent {
		s.bad(toks, "routine without a name")

		return
	}

	r := &Routine{
		IsFunction: isFunction,
		Name:       NameRef{Name: toks[1].text, Span: toks[1].span()},
	}

	rest := toks[2:]
	if len(rest) > 0 && rest[0].isPunct("(") {
		var ok bool
		rest, ok = parseParams(rest, r)
		if !ok {
			s.bad(toks, "malformed parameter list")

			return
		}
	}

	if len(rest) > 0 && rest[0].kind == tokIdent {
		switch rest[0].fold() {
		case "экспорт", "export":
			r.Export = true
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		s.bad(toks, "trailing tokens after routine header")

		return
	}

	s.frames = append(s.frames, &frame{kind: frameRoutine, open: segSpan(toks), routine: r})
}

// parseParams consumes "(" params ")" from rest and fills r.Params.
// Each parameter may carry a Знач modifier and a default value, both of
// which the recognizer accepts and discards.
func parseParams(rest []token, r *Routine) ([]token, bool) {
	i := 1 // past "("

	for i < len(rest) {
		if rest[i].isPunct(")") {
			return rest[i+1:], true
		}

		if rest[i].kind == tokIdent {
			switch rest[i].fold() {
			case "знач", "val":
				i++
			}
		}
		if i >= len(rest) || rest[i].kind != tokIdent {
			return nil, false
		}

		r.Params = append(r.Params, NameRef{Name: rest[i].text, Span: rest[i].span()})
		i++

		// Skip "= default" up to the next comma or the closing paren.
		for i < len(rest) && !rest[i].isPunct(",") && !rest[i].isPunct(")") {
			i++
		}
		if i < len(rest) && rest[i].isPunct(",") {
			i++
		}
	}

	return nil, false
}

func (s *scanner) closeRoutine(toks []token) {
	end := segSpan(toks)

	for s.top().kind == frameIf || s.top().kind == frameWhile {
		s.closeTop(end)
	}

	if s.top().kind != frameRoutine {
		s.bad(toks, "routine end without a routine")

		return
	}

	s.closeTop(end)
}

// condUntil splits toks[1:] at the first identifier matching one of the
// terminator keywords, returning the parsed condition and the tokens after
// the terminator.
func (s *scanner) condUntil(toks []token, terms ...string) (Expr, []token, bool) {
	for i := 1; i < len(toks); i++ {
		if toks[i].kind != tokIdent {
			continue
		}
		fold := toks[i].fold()
		for _, term := range terms {
			if fold != term {
				continue
			}

			cond, ok := parseExprTokens(toks[1:i])
			if !ok {
				cond = s.badExpr(segSpan(toks[:i+1]), "malformed condition")
			}

			return cond, toks[i+1:], true
		}
	}

	return nil, nil, false
}

func (s *scanner) openIf(toks []token) {
	cond, rest, ok := s.condUntil(toks, "тогда", "then")
	if !ok {
		s.bad(toks, "if without then")

		return
	}

	st := &IfStmt{Cond: cond, Span: segSpan(toks)}
	s.frames = append(s.frames, &frame{kind: frameIf, open: segSpan(toks), ifStmt: st})

	s.dispatch(rest)
}

// flushIfBranch moves the accumulated statements of an if frame into the
// branch it is currently filling.
func flushIfBranch(f *frame) {
	switch f.ifMode {
	case 0:
		f.ifStmt.Then = f.stmts
	case 1:
		f.ifStmt.ElseIfs[len(f.ifStmt.ElseIfs)-1].Body = f.stmts
	case 2:
		f.ifStmt.Else = f.stmts
	}
	f.stmts = nil
}

func (s *scanner) elseIfArm(toks []token) {
	f := s.top()
	if f.kind != frameIf || f.ifMode == 2 {
		s.bad(toks, "else-if outside of if")

		return
	}

	cond, rest, ok := s.condUntil(toks, "тогда", "then")
	if !ok {
		s.bad(toks, "else-if without then")

		return
	}

	flushIfBranch(f)
	f.ifStmt.ElseIfs = append(f.ifStmt.ElseIfs, ElseIf{Cond: cond, Span: segSpan(toks)})
	f.ifMode = 1

	s.dispatch(rest)
}

func (s *scanner) elseArm(toks []token) {
	f := s.top()
	if f.kind != frameIf || f.ifMode == 2 {
		s.bad(toks, "else outside of if")

		return
	}

	flushIfBranch(f)
	f.ifStmt.HasElse = true
	f.ifMode = 2

	s.dispatch(toks[1:])
}

func (s *scanner) openWhile(toks []token) {
	cond, rest, ok := s.condUntil(toks, "цикл", "do")
	if !ok {
		s.bad(toks, "while without do")

		return
	}

	st := &WhileStmt{Cond: cond, Span: segSpan(toks)}
	s.frames = append(s.frames, &frame{kind: frameWhile, open: segSpan(toks), while: st})

	s.dispatch(rest)
}

func (s *scanner) closeKind(toks []token, kind frameKind) {
	if s.top().kind != kind {
		s.bad(toks, "unmatched end keyword")

		return
	}

	s.closeTop(segSpan(toks))
}

// closeTop pops the innermost frame and attaches its node to the parent.
// end is the span of the closing keyword; a zero span means an implicit
// close at end of input.
func (s *scanner) closeTop(end source.Span) {
	f := s.top()
	s.frames = s.frames[:len(s.frames)-1]

	if end.Len == 0 && len(f.stmts) > 0 {
		end = f.stmts[len(f.stmts)-1].Pos()
	}
	if end.Len == 0 {
		end = f.open
	}

	switch f.kind {
	case frameRoutine:
		f.routine.Body = f.stmts
		f.routine.Span = joinSpans(f.open, end)
		s.append(f.routine)
	case frameIf:
		flushIfBranch(f)
		if len(f.ifStmt.ElseIfs) > 0 {
			last := &f.ifStmt.ElseIfs[len(f.ifStmt.ElseIfs)-1]
			last.Span = joinSpans(last.Span, end)
		}
		f.ifStmt.Span = joinSpans(f.open, end)
		s.append(f.ifStmt)
	case frameWhile:
		f.while.Body = f.stmts
		f.while.Span = joinSpans(f.open, end)
		s.append(f.while)
	case frameModule:
	}
}

func (s *scanner) returnStmt(toks []token) {
	st := &ReturnStmt{Span: segSpan(toks)}

	if len(toks) > 1 {
		value, ok := parseExprTokens(toks[1:])
		if !ok {
			value = s.badExpr(segSpan(toks[1:]), "malformed return value")
		}
		st.Value = value
	}

	s.append(st)
}

func (s *scanner) plainStmt(toks []token) {
	if len(toks) >= 2 && toks[0].kind == tokIdent && toks[1].isPunct("=") {
		value, ok := parseExprTokens(toks[2:])
		if !ok {
			value = s.badExpr(segSpan(toks), "malformed assignment value")
		}

		s.append(&AssignStmt{
			Target: NameRef{Name: toks[0].text, Span: toks[0].span()},
			Value:  value,
			Span:   segSpan(toks),
		})

		return
	}

	x, ok := parseExprTokens(toks)
	if !ok {
		s.bad(toks, "unrecognized statement")

		return
	}

	s.append(&ExprStmt{X: x, Span: segSpan(toks)})
}
