package translator

import (
	"strings"

	"vba2py/lang"
)

// Python operator precedence, lowest first.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCmp
	precXor
	precAdd
	precMul
	precUnary
	precPow
	precAtom
)

// rendered is a Python fragment with the precedence of its outermost
// operator. str is set when the value is known to be a string.
type rendered struct {
	text string
	prec int
	str  bool
}

func atom(text string) rendered {
	return rendered{text: text, prec: precAtom}
}

// exprToString renders e as a Python expression. It only reads the context.
func (t *translator) exprToString(e lang.Expr) string {
	return t.expr(e).text
}

func (t *translator) expr(expr lang.Expr) rendered {
	switch e := expr.(type) {
	case nil:
		t.faultf("missing expression")
	case *lang.Literal:
		return t.literal(e)
	case *lang.Ident:
		r := atom(t.resolveName(e))
		r.str = e.Suffix == '$'
		if sym, ok := t.ctx.active().lookup(e.Name); ok && !sym.Array && sym.Type.isString() {
			r.str = true
		}
		return r
	case *lang.MemberExpr:
		return atom(t.memberObject(e) + "." + pyName(e.Name))
	case *lang.CallExpr:
		return t.call(e)
	case *lang.BinaryExpr:
		return t.binary(e)
	case *lang.UnaryExpr:
		return t.unary(e)
	case *lang.ParenExpr:
		inner := t.expr(e.Expr)
		return rendered{text: "(" + inner.text + ")", prec: precAtom, str: inner.str}
	case *lang.NewExpr:
		if id, ok := e.Type.(*lang.Ident); ok {
			return atom(pyName(id.Name) + "()")
		}
		if name, ok := dottedName(e.Type); ok {
			return atom("CreateObject(" + pyString(name) + ")")
		}
		t.faultf("malformed New expression")
	}
	t.faultf("unexpected expression %T", expr)
	return rendered{}
}

func (t *translator) literal(e *lang.Literal) rendered {
	switch e.Kind {
	case lang.StringLit:
		return rendered{text: pyString(e.Value), prec: precAtom, str: true}
	case lang.NumberLit:
		return atom(pyNumber(e.Value))
	case lang.BoolLit:
		if strings.EqualFold(e.Value, "true") {
			return atom("True")
		}
		return atom("False")
	}
	return atom("None")
}

// resolveName reuses the declared spelling of a name, so Total and TOTAL
// render identically.
func (t *translator) resolveName(id *lang.Ident) string {
	if sym, ok := t.ctx.active().lookup(id.Name); ok {
		return pyName(sym.Name)
	}
	if t.ctx.isAccumulator(id.Name) {
		return pyName(t.ctx.proc.name)
	}
	return pyName(id.Name)
}

func (t *translator) memberObject(e *lang.MemberExpr) string {
	if e.Object != nil {
		obj := t.expr(e.Object)
		return parenIf(obj, obj.prec < precAtom)
	}
	alias, ok := t.ctx.receiver()
	if !ok {
		t.violate(e.Pos(), "member shorthand .%s used outside a With block", e.Name)
	}
	return alias
}

// call decides between indexing and calling. A declared variable, or a
// callee that is itself an index or call, is indexed one bracket group per
// argument; anything else is called.
func (t *translator) call(e *lang.CallExpr) rendered {
	callee := t.expr(e.Callee)
	if t.indexable(e.Callee, callee.text) {
		return t.index(e, callee)
	}
	r := atom(callee.text + "(" + t.argList(e.Args) + ")")
	if id, ok := e.Callee.(*lang.Ident); ok && id.Suffix == '$' {
		r.str = true
	}
	return r
}

func (t *translator) indexable(callee lang.Expr, text string) bool {
	if id, ok := callee.(*lang.Ident); ok {
		if _, declared := t.ctx.active().lookup(id.Name); declared {
			return true
		}
	}
	return strings.HasSuffix(text, "]") || strings.HasSuffix(text, ")")
}

func (t *translator) index(e *lang.CallExpr, callee rendered) rendered {
	var b strings.Builder
	b.WriteString(parenIf(callee, callee.prec < precAtom))
	for _, a := range e.Args {
		b.WriteString("[")
		b.WriteString(t.argValue(a))
		b.WriteString("]")
	}
	r := atom(b.String())
	if id, ok := e.Callee.(*lang.Ident); ok {
		if sym, found := t.ctx.active().lookup(id.Name); found && sym.Type.isString() {
			r.str = true
		}
	}
	return r
}

// targetString renders an assignment target. A call shape on the left of
// '=' can only be an element store, so it is always indexed.
func (t *translator) targetString(e lang.Expr) string {
	if c, ok := e.(*lang.CallExpr); ok {
		return t.index(c, t.expr(c.Callee)).text
	}
	return t.exprToString(e)
}

func (t *translator) argList(args []*lang.Arg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a.Name != "" && a.Value != nil {
			parts = append(parts, pyName(a.Name)+"="+t.argValue(a))
			continue
		}
		parts = append(parts, t.argValue(a))
	}
	return strings.Join(parts, ", ")
}

// argValue renders one argument. Omitted arguments keep their position as
// None; a parenthesised whole argument loses its redundant parentheses.
func (t *translator) argValue(a *lang.Arg) string {
	switch v := a.Value.(type) {
	case nil:
		return "None"
	case *lang.ParenExpr:
		return t.exprToString(v.Expr)
	}
	return t.exprToString(a.Value)
}

var binaryOps = map[lang.TokenType]struct {
	op   string
	prec int
}{
	lang.OR:        {"or", precOr},
	lang.ORELSE:    {"or", precOr},
	lang.AND:       {"and", precAnd},
	lang.ANDALSO:   {"and", precAnd},
	lang.XOR:       {"^", precXor},
	lang.EQ:        {"==", precCmp},
	lang.NEQ:       {"!=", precCmp},
	lang.LT:        {"<", precCmp},
	lang.LTEQ:      {"<=", precCmp},
	lang.GT:        {">", precCmp},
	lang.GTEQ:      {">=", precCmp},
	lang.IS:        {"is", precCmp},
	lang.PLUS:      {"+", precAdd},
	lang.MINUS:     {"-", precAdd},
	lang.STAR:      {"*", precMul},
	lang.SLASH:     {"/", precMul},
	lang.BACKSLASH: {"//", precMul},
	lang.MOD:       {"%", precMul},
	lang.CARET:     {"**", precPow},
}

func (t *translator) binary(e *lang.BinaryExpr) rendered {
	switch e.Op {
	case lang.LIKE:
		t.unsupported(e.Pos(), "operator Like")
	case lang.EQV:
		t.unsupported(e.Pos(), "operator Eqv")
	case lang.IMP:
		t.unsupported(e.Pos(), "operator Imp")
	case lang.AMPERSAND:
		left, right := t.expr(e.Left), t.expr(e.Right)
		return rendered{
			text: t.strOperand(left, false) + " + " + t.strOperand(right, true),
			prec: precAdd,
			str:  true,
		}
	}
	op, ok := binaryOps[e.Op]
	if !ok {
		t.faultf("unknown binary operator %s", e.Op)
	}
	left, right := t.expr(e.Left), t.expr(e.Right)
	// Python chains comparisons and groups ** to the right; VBA does neither.
	leftParen := left.prec < op.prec ||
		(op.prec == precCmp || op.prec == precPow) && left.prec == op.prec
	rightParen := right.prec <= op.prec
	return rendered{
		text: parenIf(left, leftParen) + " " + op.op + " " + parenIf(right, rightParen),
		prec: op.prec,
	}
}

func (t *translator) strOperand(r rendered, right bool) string {
	if !r.str {
		return "str(" + r.text + ")"
	}
	if right {
		return parenIf(r, r.prec <= precAdd)
	}
	return parenIf(r, r.prec < precAdd)
}

func (t *translator) unary(e *lang.UnaryExpr) rendered {
	operand := t.expr(e.Expr)
	switch e.Op {
	case lang.NOT:
		return rendered{text: "not " + parenIf(operand, operand.prec < precNot), prec: precNot}
	case lang.MINUS:
		return rendered{text: "-" + parenIf(operand, operand.prec < precUnary), prec: precUnary}
	case lang.PLUS:
		return rendered{text: "+" + parenIf(operand, operand.prec < precUnary), prec: precUnary}
	}
	t.faultf("unknown unary operator %s", e.Op)
	return rendered{}
}

// negate renders the logical negation of a condition.
func (t *translator) negate(e lang.Expr) string {
	if u, ok := e.(*lang.UnaryExpr); ok && u.Op == lang.NOT {
		return t.exprToString(u.Expr)
	}
	r := t.expr(e)
	return "not " + parenIf(r, r.prec < precAtom)
}

func parenIf(r rendered, cond bool) string {
	if cond {
		return "(" + r.text + ")"
	}
	return r.text
}

func dottedName(e lang.Expr) (string, bool) {
	switch e := e.(type) {
	case *lang.Ident:
		return e.Name, true
	case *lang.MemberExpr:
		if e.Object == nil {
			return "", false
		}
		obj, ok := dottedName(e.Object)
		return obj + "." + e.Name, ok
	}
	return "", false
}
