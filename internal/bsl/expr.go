package bsl

import "github.com/Sumatoshi-tech/bslcheck/pkg/source"

// exprParser is a small precedence-climbing parser over the tokens of one
// line segment. Any failure surfaces as a nil expression; the caller decides
// between BadStmt and BadExpr.
type exprParser struct {
	toks []token
	pos  int
}

// parseExprTokens parses a full token slice as one expression.
func parseExprTokens(toks []token) (Expr, bool) {
	if len(toks) == 0 {
		return nil, false
	}

	p := &exprParser{toks: toks}
	e := p.parseOr()
	if e == nil || p.pos != len(p.toks) {
		return nil, false
	}

	return e, true
}

func joinSpans(a, b source.Span) source.Span {
	return source.NewSpan(a.Start, b.End()-a.Start)
}

func (p *exprParser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}

	return p.toks[p.pos], true
}

func (p *exprParser) matchPunct(variants ...string) (token, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokPunct {
		return token{}, false
	}
	for _, v := range variants {
		if t.text == v {
			p.pos++

			return t, true
		}
	}

	return token{}, false
}

func (p *exprParser) matchKeyword(variants ...string) (token, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokIdent {
		return token{}, false
	}
	fold := t.fold()
	for _, v := range variants {
		if fold == v {
			p.pos++

			return t, true
		}
	}

	return token{}, false
}

func (p *exprParser) parseOr() Expr {
	left := p.parseAnd()

	for left != nil {
		op, ok := p.matchKeyword("или", "or")
		if !ok {
			break
		}

		right := p.parseAnd()
		if right == nil {
			return nil
		}

		left = &BinaryExpr{Left: left, Op: "ИЛИ", OpSpan: op.span(), Right: right, Span: joinSpans(left.Pos(), right.Pos())}
	}

	return left
}

func (p *exprParser) parseAnd() Expr {
	left := p.parseNot()

	for left != nil {
		op, ok := p.matchKeyword("и", "and")
		if !ok {
			break
		}

		right := p.parseNot()
		if right == nil {
			return nil
		}

		left = &BinaryExpr{Left: left, Op: "И", OpSpan: op.span(), Right: right, Span: joinSpans(left.Pos(), right.Pos())}
	}

	return left
}

func (p *exprParser) parseNot() Expr {
	if op, ok := p.matchKeyword("не", "not"); ok {
		inner := p.parseNot()
		if inner == nil {
			return nil
		}

		return &UnaryExpr{Op: "НЕ", OpSpan: op.span(), Inner: inner, Span: joinSpans(op.span(), inner.Pos())}
	}

	return p.parseCompare()
}

func (p *exprParser) parseCompare() Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}

	op, ok := p.matchPunct("=", "<>", "<", ">", "<=", ">=")
	if !ok {
		return left
	}

	right := p.parseAdditive()
	if right == nil {
		return nil
	}

	return &BinaryExpr{Left: left, Op: op.text, OpSpan: op.span(), Right: right, Span: joinSpans(left.Pos(), right.Pos())}
}

func (p *exprParser) parseAdditive() Expr {
	left := p.parseMultiplicative()

	for left != nil {
		op, ok := p.matchPunct("+", "-")
		if !ok {
			break
		}

		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}

		left = &BinaryExpr{Left: left, Op: op.text, OpSpan: op.span(), Right: right, Span: joinSpans(left.Pos(), right.Pos())}
	}

	return left
}

func (p *exprParser) parseMultiplicative() Expr {
	left := p.parseUnary()

	for left != nil {
		op, ok := p.matchPunct("*", "/", "%")
		if !ok {
			break
		}

		right := p.parseUnary()
		if right == nil {
			return nil
		}

		left = &BinaryExpr{Left: left, Op: op.text, OpSpan: op.span(), Right: right, Span: joinSpans(left.Pos(), right.Pos())}
	}

	return left
}

func (p *exprParser) parseUnary() Expr {
	if op, ok := p.matchPunct("-"); ok {
		inner := p.parseUnary()
		if inner == nil {
			return nil
		}

		return &UnaryExpr{Op: "-", OpSpan: op.span(), Inner: inner, Span: joinSpans(op.span(), inner.Pos())}
	}

	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() Expr {
	e := p.parsePrimary()

	for e != nil {
		if _, ok := p.matchPunct("."); !ok {
			break
		}

		name, ok := p.peek()
		if !ok || name.kind != tokIdent {
			return nil
		}
		p.pos++

		ref := NameRef{Name: name.text, Span: name.span()}

		if t, ok := p.peek(); ok && t.isPunct("(") {
			args, last, ok := p.parseArgs()
			if !ok {
				return nil
			}

			e = &MethodCallExpr{Receiver: e, Method: ref, Args: args, Span: joinSpans(e.Pos(), last)}

			continue
		}

		e = &PropertyExpr{Receiver: e, Prop: ref, Span: joinSpans(e.Pos(), ref.Span)}
	}

	return e
}

func (p *exprParser) parsePrimary() Expr {
	t, ok := p.peek()
	if !ok {
		return nil
	}

	switch t.kind {
	case tokNumber:
		p.pos++

		return &Literal{Text: t.text, Span: t.span()}
	case tokString:
		p.pos++

		return &Literal{Text: t.text, Span: t.span()}
	case tokPunct:
		if t.text == "(" {
			p.pos++
			inner := p.parseOr()
			if inner == nil {
				return nil
			}
			if _, ok := p.matchPunct(")"); !ok {
				return nil
			}

			return inner
		}

		return nil
	case tokIdent:
		return p.parseIdentExpr(t)
	}

	return nil
}

func (p *exprParser) parseIdentExpr(t token) Expr {
	switch t.fold() {
	case "истина", "ложь", "true", "false", "null", "неопределено", "undefined":
		p.pos++

		return &Literal{Text: t.text, Span: t.span()}
	case "новый", "new":
		p.pos++

		name, ok := p.peek()
		if !ok || name.kind != tokIdent {
			return nil
		}
		p.pos++

		ref := NameRef{Name: name.text, Span: name.span()}
		end := ref.Span

		var args []Expr
		if nt, ok := p.peek(); ok && nt.isPunct("(") {
			var ok2 bool
			args, end, ok2 = p.parseArgs()
			if !ok2 {
				return nil
			}
		}

		return &NewExpr{TypeName: ref, Args: args, Span: joinSpans(t.span(), end)}
	}

	p.pos++
	ref := NameRef{Name: t.text, Span: t.span()}

	if nt, ok := p.peek(); ok && nt.isPunct("(") {
		args, end, ok := p.parseArgs()
		if !ok {
			return nil
		}

		return &CallExpr{Name: ref, Args: args, Span: joinSpans(ref.Span, end)}
	}

	return &Ident{Name: ref.Name, Span: ref.Span}
}

// parseArgs consumes a parenthesized argument list and returns the span of
// the closing parenthesis.
func (p *exprParser) parseArgs() ([]Expr, source.Span, bool) {
	if _, ok := p.matchPunct("("); !ok {
		return nil, source.Span{}, false
	}

	var args []Expr

	if t, ok := p.matchPunct(")"); ok {
		return args, t.span(), true
	}

	for {
		arg := p.parseOr()
		if arg == nil {
			return nil, source.Span{}, false
		}
		args = append(args, arg)

		if t, ok := p.matchPunct(")"); ok {
			return args, t.span(), true
		}
		if _, ok := p.matchPunct(","); !ok {
			return nil, source.Span{}, false
		}
	}
}
