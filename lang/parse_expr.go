package lang

import "fmt"

// Expression parsing follows the VBA operator table, lowest first:
// Imp, Eqv, Xor, Or, And, Not, comparisons, &, + -, Mod, \, * /, unary -, ^.

func (p *parser) parseExpression() Expr {
	return p.parseImp()
}

func (p *parser) parseImp() Expr {
	expr := p.parseEqv()
	for p.match(IMP) {
		op := p.previous()
		right := p.parseEqv()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseEqv() Expr {
	expr := p.parseXor()
	for p.match(EQV) {
		op := p.previous()
		right := p.parseXor()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseXor() Expr {
	expr := p.parseOr()
	for p.match(XOR) {
		op := p.previous()
		right := p.parseOr()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseOr() Expr {
	expr := p.parseAnd()
	for p.match(OR, ORELSE) {
		op := p.previous()
		right := p.parseAnd()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseAnd() Expr {
	expr := p.parseNot()
	for p.match(AND, ANDALSO) {
		op := p.previous()
		right := p.parseNot()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseNot() Expr {
	if p.match(NOT) {
		op := p.previous()
		return &UnaryExpr{Op: op.Type, Expr: p.parseNot(), pos: op.Pos}
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() Expr {
	expr := p.parseConcat()
	for p.match(EQ, NEQ, LT, LTEQ, GT, GTEQ, IS, LIKE) {
		op := p.previous()
		right := p.parseConcat()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseConcat() Expr {
	expr := p.parseTerm()
	for p.match(AMPERSAND) {
		op := p.previous()
		right := p.parseTerm()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseTerm() Expr {
	expr := p.parseMod()
	for p.match(PLUS, MINUS) {
		op := p.previous()
		right := p.parseMod()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseMod() Expr {
	expr := p.parseIntDiv()
	for p.match(MOD) {
		op := p.previous()
		right := p.parseIntDiv()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseIntDiv() Expr {
	expr := p.parseFactor()
	for p.match(BACKSLASH) {
		op := p.previous()
		right := p.parseFactor()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parseFactor() Expr {
	expr := p.parseUnary()
	for p.match(STAR, SLASH) {
		op := p.previous()
		right := p.parseUnary()
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

// parseUnary binds looser than ^, so -2^2 is -(2^2).
func (p *parser) parseUnary() Expr {
	if p.match(MINUS, PLUS) {
		op := p.previous()
		return &UnaryExpr{Op: op.Type, Expr: p.parseUnary(), pos: op.Pos}
	}
	return p.parsePower()
}

func (p *parser) parsePower() Expr {
	expr := p.parsePrimary()
	for p.match(CARET) {
		op := p.previous()
		var right Expr
		if p.match(MINUS, PLUS) {
			sign := p.previous()
			right = &UnaryExpr{Op: sign.Type, Expr: p.parsePrimary(), pos: sign.Pos}
		} else {
			right = p.parsePrimary()
		}
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, pos: op.Pos}
	}
	return expr
}

func (p *parser) parsePrimary() Expr {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		return &Literal{Kind: NumberLit, Value: tok.Literal, pos: tok.Pos}
	case STRING:
		p.advance()
		return &Literal{Kind: StringLit, Value: tok.Literal, pos: tok.Pos}
	case TRUE, FALSE:
		p.advance()
		return &Literal{Kind: BoolLit, Value: boolText(tok.Type == TRUE), pos: tok.Pos}
	case NOTHING:
		p.advance()
		return &Literal{Kind: NothingLit, pos: tok.Pos}
	case EMPTY:
		p.advance()
		return &Literal{Kind: EmptyLit, pos: tok.Pos}
	case NULL:
		p.advance()
		return &Literal{Kind: NullLit, pos: tok.Pos}
	case IDENT, TYPED_IDENT, FOREIGN_IDENT, DOT:
		return p.parseStatementTarget(false)
	case LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.expect(RPAREN, "expected ')' after expression")
		return p.finishPostfix(&ParenExpr{Expr: inner, pos: tok.Pos}, false)
	case NEW:
		p.advance()
		var typ Expr = p.parseIdent()
		for p.match(DOT) {
			name := p.expectWord("expected type name after '.'")
			typ = &MemberExpr{Object: typ, Name: name.Literal, pos: name.Pos}
		}
		return &NewExpr{Type: typ, pos: tok.Pos}
	}
	p.failAtCurrent(fmt.Sprintf("unexpected %s in expression", p.describe(tok)))
	return nil
}

// parseStatementTarget parses a name, a member chain or a call/index chain.
// At the head of a statement a '(' preceded by blanks starts the arguments of
// an unparenthesised call instead of continuing the chain.
func (p *parser) parseStatementTarget(stmtHead bool) Expr {
	var expr Expr
	if p.check(DOT) {
		dot := p.advance()
		name := p.expectWord("expected member name after '.'")
		expr = &MemberExpr{Name: name.Literal, pos: dot.Pos}
	} else {
		expr = p.parseIdent()
	}
	return p.finishPostfix(expr, stmtHead)
}

func (p *parser) finishPostfix(expr Expr, stmtHead bool) Expr {
	for {
		tok := p.peek()
		switch {
		case tok.Type == DOT && !tok.Spaced:
			p.advance()
			name := p.expectWord("expected member name after '.'")
			expr = &MemberExpr{Object: expr, Name: name.Literal, pos: name.Pos}
		case tok.Type == LPAREN && !(stmtHead && tok.Spaced):
			p.advance()
			expr = &CallExpr{Callee: expr, Args: p.parseArgs(), pos: tok.Pos}
		default:
			return expr
		}
	}
}

// parseArgs reads a parenthesised argument list after its '('.
func (p *parser) parseArgs() []*Arg {
	args := []*Arg{}
	if p.match(RPAREN) {
		return args
	}
	for {
		if p.check(COMMA) || p.check(RPAREN) {
			args = append(args, &Arg{Pos: p.peek().Pos})
		} else {
			args = append(args, p.parseArg())
		}
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RPAREN, "expected ')' to close argument list")
	return args
}

func (p *parser) parseArg() *Arg {
	tok := p.peek()
	if (tok.Type == IDENT || tok.Type == TYPED_IDENT) && p.peekAt(1).Type == NAMEDARG {
		p.advance()
		p.advance()
		return &Arg{Name: identFromToken(tok).Name, Value: p.parseExpression(), Pos: tok.Pos}
	}
	p.match(BYVAL)
	return &Arg{Value: p.parseExpression(), Pos: tok.Pos}
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
