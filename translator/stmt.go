package translator

import (
	"fmt"
	"strconv"
	"strings"

	"vba2py/lang"
)

func (t *translator) writeStmt(stmt lang.Stmt) {
	switch s := stmt.(type) {
	case *lang.OptionStmt:
		t.writeOption(s)
	case *lang.DimStmt:
		t.writeDim(s)
	case *lang.ProcDecl:
		t.writeProc(s)
	case *lang.DeclareStmt:
		t.writeDeclare(s)
	case *lang.AssignStmt:
		t.writeAssign(s)
	case *lang.CallStmt:
		callee := t.expr(s.Callee)
		t.emit(callee.text + "(" + t.argList(s.Args) + ")")
	case *lang.IfStmt:
		t.writeIf(s)
	case *lang.ForStmt:
		t.writeFor(s)
	case *lang.ForEachStmt:
		name := t.loopVar(s.Var)
		t.emitHeader(fmt.Sprintf("for %s in %s:", name, t.exprToString(s.In)))
		t.genBody(s.Body)
	case *lang.LoopStmt:
		t.writeLoop(s)
	case *lang.WithStmt:
		target := t.exprToString(s.Target)
		t.ctx.withCount++
		alias := fmt.Sprintf("_with%d", t.ctx.withCount)
		t.emitHeader(fmt.Sprintf("with vba_with(%s) as %s:", target, alias))
		t.ctx.withReceiver(alias, func() { t.genBody(s.Body) })
	case *lang.OnErrorStmt:
		t.writeOnError(s)
	case *lang.LabelStmt:
		t.writeLabel(s)
	case *lang.ExitStmt:
		t.writeExit(s)
	case *lang.GotoStmt:
		t.unsupported(s.Pos(), "GoTo "+s.Label)
	case *lang.ResumeStmt:
		t.unsupported(s.Pos(), strings.TrimSpace("Resume "+s.Target))
	case *lang.OpenStmt:
		t.unsupported(s.Pos(), "file I/O (Open)")
	case *lang.CloseStmt:
		t.unsupported(s.Pos(), "file I/O (Close)")
	case *lang.FileIOStmt:
		t.unsupported(s.Pos(), fmt.Sprintf("file I/O (%s #)", s.Verb))
	case *lang.PreprocIfStmt:
		t.unsupported(s.Pos(), "conditional compilation (#If)")
	case *lang.CommentStmt:
		t.writeComment(s)
	case *lang.BlankStmt:
		t.emit("")
	default:
		t.faultf("unexpected statement %T", stmt)
	}
}

func (t *translator) writeOption(s *lang.OptionStmt) {
	switch s.Kind {
	case lang.OptionExplicit:
		t.ctx.explicit = true
	case lang.OptionBase:
		switch s.Value {
		case "0":
			t.ctx.base = 0
		case "1":
			t.ctx.base = 1
		default:
			t.violate(s.Pos(), "Option Base must be 0 or 1, got %s", s.Value)
		}
	case lang.OptionCompare:
		t.ctx.compare = strings.ToLower(s.Value)
	}
}

func (t *translator) writeDim(s *lang.DimStmt) {
	if s.Keyword == "#const" {
		t.unsupported(s.Pos(), "conditional compilation constant (#Const)")
	}
	for _, v := range s.Vars {
		switch {
		case s.IsConst():
			typ := inferType(v.Type, v.Name.Suffix)
			if !typ.Known {
				typ = literalType(v.Value)
			}
			value := t.exprToString(v.Value)
			sym := t.ctx.active().define(&symbol{Name: v.Name.Name, Type: typ})
			t.emit(pyName(sym.Name) + " = " + value)
		case s.IsReDim():
			t.writeReDim(s, v)
		default:
			typ := inferType(v.Type, v.Name.Suffix)
			init := typ.initializer(v.New)
			if v.IsArray() {
				init = t.arrayInit(v.Bounds, typ, v.New)
			}
			sym := t.ctx.active().define(&symbol{Name: v.Name.Name, Type: typ, Array: v.IsArray()})
			t.emit(pyName(sym.Name) + " = " + init)
		}
	}
}

func (t *translator) writeReDim(s *lang.DimStmt, v *lang.VarDecl) {
	if len(v.Bounds) == 0 {
		t.faultf("ReDim of %s without bounds", v.Name.Name)
	}
	sym, ok := t.ctx.active().lookup(v.Name.Name)
	switch {
	case !ok:
		sym = t.ctx.active().define(&symbol{Name: v.Name.Name, Type: inferType(v.Type, v.Name.Suffix), Array: true})
	case !sym.Array:
		sym = t.ctx.active().define(&symbol{Name: sym.Name, Type: sym.Type, Array: true})
	}
	name := pyName(sym.Name)
	if !s.Preserve {
		t.emit(name + " = " + t.arrayInit(v.Bounds, sym.Type, v.New))
		return
	}
	if len(v.Bounds) > 1 {
		t.unsupported(s.Pos(), "ReDim Preserve of a multi-dimensional array")
	}
	size := t.boundSize(v.Bounds[0])
	t.emit(fmt.Sprintf("%s = (%s + [%s for _ in range(%s)])[:%s]",
		name, name, sym.Type.initializer(v.New), size, size))
}

// arrayInit allocates one nested list per dimension. Every list is long
// enough to be indexed with the source's own indices.
func (t *translator) arrayInit(bounds []lang.Bound, typ InferredType, isNew bool) string {
	if len(bounds) == 0 {
		return "[]"
	}
	out := typ.initializer(isNew)
	for i := len(bounds) - 1; i >= 0; i-- {
		out = fmt.Sprintf("[%s for _ in range(%s)]", out, t.boundSize(bounds[i]))
	}
	return out
}

// boundSize is offset + extent for one dimension: the lower bound (or the
// Option Base) plus the element count.
func (t *translator) boundSize(b lang.Bound) string {
	offset, lowerConst := int64(t.ctx.base), true
	if b.Lower != nil {
		offset, lowerConst = constInt(b.Lower)
		if lowerConst && offset < 0 {
			t.unsupported(b.Lower.Pos(), "negative array lower bound")
		}
	}
	if upper, ok := constInt(b.Upper); ok && lowerConst {
		extent := upper - offset + 1
		if extent < 0 {
			t.faultf("array upper bound %d is below lower bound %d", upper, offset)
		}
		return strconv.FormatInt(offset+extent, 10)
	}
	upper := t.expr(b.Upper)
	return parenIf(upper, upper.prec < precAdd) + " + 1"
}

// constInt evaluates integer literals, optionally negated or parenthesised.
func constInt(e lang.Expr) (int64, bool) {
	switch e := e.(type) {
	case *lang.Literal:
		if e.Kind == lang.NumberLit {
			return intLiteral(e.Value)
		}
	case *lang.UnaryExpr:
		if v, ok := constInt(e.Expr); ok {
			switch e.Op {
			case lang.MINUS:
				return -v, true
			case lang.PLUS:
				return v, true
			}
		}
	case *lang.ParenExpr:
		return constInt(e.Expr)
	}
	return 0, false
}

func (t *translator) writeProc(s *lang.ProcDecl) {
	info := &procInfo{name: s.Name.Name, kind: s.Kind, ret: inferType(s.ReturnType, s.Name.Suffix)}
	globals := t.assignedGlobals(s)
	name := pyName(s.Name.Name)

	t.ctx.withProcedure(info, func() {
		header := "def " + name + "(" + t.params(s.Params) + ")"
		if hint := info.ret.hint(); s.Kind == lang.FunctionProc && hint != "" {
			header += " -> " + hint
		}
		t.emitHeader(header + ":")
		t.ctx.withIndent(func() {
			start := len(t.lines)
			if len(globals) > 0 {
				t.emit("global " + strings.Join(globals, ", "))
			}
			if s.Kind == lang.FunctionProc {
				t.emit(name + " = " + info.ret.initializer(false))
			}
			t.genBlock(s.Body)
			if s.Kind == lang.FunctionProc {
				t.emit("return " + name)
			}
			t.padBlock(start)
		})
	})
}

func (t *translator) params(params []*lang.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		typ := inferType(p.Type, p.Name.Suffix)
		sym := t.ctx.active().define(&symbol{Name: p.Name.Name, Type: typ, Array: p.IsArray || p.ParamArray})
		name := pyName(sym.Name)
		if p.ParamArray {
			parts = append(parts, "*"+name)
			continue
		}
		hint := ""
		if !p.IsArray {
			hint = typ.hint()
		}
		part := name
		if hint != "" {
			part += ": " + hint
		}
		if p.Optional || p.Default != nil {
			def := "None"
			if p.Default != nil {
				def = t.exprToString(p.Default)
			}
			if hint != "" {
				part += " = " + def
			} else {
				part += "=" + def
			}
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// assignedGlobals lists the module variables the procedure rebinds, in
// order of first assignment, so the def can declare them global.
func (t *translator) assignedGlobals(p *lang.ProcDecl) []string {
	local := map[string]bool{strings.ToLower(p.Name.Name): true}
	for _, prm := range p.Params {
		local[strings.ToLower(prm.Name.Name)] = true
	}
	lang.Inspect(p, func(n lang.Node) bool {
		if d, ok := n.(*lang.DimStmt); ok && !d.IsReDim() {
			for _, v := range d.Vars {
				local[strings.ToLower(v.Name.Name)] = true
			}
		}
		return true
	})

	var names []string
	seen := map[string]bool{}
	add := func(id *lang.Ident) {
		if id == nil {
			return
		}
		key := strings.ToLower(id.Name)
		sym, global := t.ctx.globals.lookup(id.Name)
		if !global || local[key] || seen[key] {
			return
		}
		seen[key] = true
		names = append(names, pyName(sym.Name))
	}
	lang.Inspect(p, func(n lang.Node) bool {
		switch n := n.(type) {
		case *lang.AssignStmt:
			id, _ := n.Target.(*lang.Ident)
			add(id)
		case *lang.ForStmt:
			add(n.Var)
		case *lang.ForEachStmt:
			add(n.Var)
		case *lang.DimStmt:
			if n.IsReDim() {
				for _, v := range n.Vars {
					add(v.Name)
				}
			}
		}
		return true
	})
	return names
}

func (t *translator) writeDeclare(s *lang.DeclareStmt) {
	name := pyName(s.Name.Name)
	var params string
	t.ctx.withProcedure(&procInfo{name: s.Name.Name, kind: s.Kind}, func() {
		params = t.params(s.Params)
	})
	construct := fmt.Sprintf("external procedure %s (Declare in %q)", s.Name.Name, s.Lib)
	t.emit("def " + name + "(" + params + "):")
	t.ctx.withIndent(func() {
		t.emit(fmt.Sprintf("raise NotImplementedError(%s)",
			pyString(fmt.Sprintf("vba2py: unsupported %s (line %d)", construct, s.Pos().Line))))
	})
	t.diag(lang.SeverityWarning, lang.CodeUnsupported, s.Pos(), "unsupported "+construct)
}

// writeAssign registers a plain target name on first assignment, except the
// enclosing function's own name, which only carries the return value.
func (t *translator) writeAssign(s *lang.AssignStmt) {
	value := t.exprToString(s.Value)
	if id, ok := s.Target.(*lang.Ident); ok && !t.ctx.isAccumulator(id.Name) {
		t.ctx.active().declare(&symbol{Name: id.Name, Type: inferType(nil, id.Suffix)})
	}
	t.emit(t.targetString(s.Target) + " = " + value)
}

func (t *translator) writeIf(s *lang.IfStmt) {
	for i, br := range s.Branches {
		keyword := "if"
		if i > 0 {
			keyword = "elif"
		}
		header := len(t.lines)
		t.emitHeader(keyword + " " + t.exprToString(br.Cond) + ":")
		t.genBody(br.Body)
		if s.Inline {
			t.collapse(header)
		}
	}
	if s.HasElse {
		header := len(t.lines)
		t.emitHeader("else:")
		t.genBody(s.Else)
		if s.Inline {
			t.collapse(header)
		}
	}
}

// collapse joins a branch header with its body when the body is a single
// simple line, giving the one-line form of an inline If.
func (t *translator) collapse(header int) {
	if len(t.lines) != header+2 {
		return
	}
	body := t.lines[header+1].text
	if !isCode(body) || strings.HasSuffix(body, ":") {
		return
	}
	t.lines[header].text += " " + body
	t.lines = t.lines[:header+1]
}

func (t *translator) loopVar(id *lang.Ident) string {
	if _, ok := t.ctx.active().lookup(id.Name); !ok && !t.ctx.isAccumulator(id.Name) {
		t.ctx.active().declare(&symbol{Name: id.Name, Type: inferType(nil, id.Suffix)})
	}
	return t.resolveName(id)
}

// writeFor maps the inclusive VBA bounds onto Python's exclusive range stop:
// the stop is hi + 1 for positive steps and hi - 1 for negative ones.
func (t *translator) writeFor(s *lang.ForStmt) {
	name := t.loopVar(s.Var)
	lo := t.exprToString(s.From)
	hi := t.expr(s.To)
	hiConst, hiIsConst := constInt(s.To)

	step, stepConst := int64(1), true
	stepText := ""
	if s.Step != nil {
		step, stepConst = constInt(s.Step)
		stepText = t.exprToString(s.Step)
	}

	var stop string
	switch {
	case !stepConst:
		stop = fmt.Sprintf("%s + (1 if %s > 0 else -1)", parenIf(hi, hi.prec < precAdd), stepText)
	case step == 0:
		t.faultf("For loop with Step 0 never terminates")
	case hiIsConst && step > 0:
		stop = strconv.FormatInt(hiConst+1, 10)
	case hiIsConst:
		stop = strconv.FormatInt(hiConst-1, 10)
	case step > 0:
		stop = parenIf(hi, hi.prec < precAdd) + " + 1"
	default:
		stop = parenIf(hi, hi.prec < precAdd) + " - 1"
	}

	args := lo + ", " + stop
	if !stepConst || step != 1 {
		args += ", " + stepText
	}
	t.emitHeader(fmt.Sprintf("for %s in range(%s):", name, args))
	t.genBody(s.Body)
}

// writeLoop lowers post-test loops to while True with a trailing break.
func (t *translator) writeLoop(s *lang.LoopStmt) {
	switch s.Kind {
	case lang.WhileWend, lang.DoWhile:
		t.emitHeader("while " + t.exprToString(s.Cond) + ":")
		t.genBody(s.Body)
	case lang.DoUntil:
		t.emitHeader("while " + t.negate(s.Cond) + ":")
		t.genBody(s.Body)
	case lang.DoForever:
		t.emitHeader("while True:")
		t.genBody(s.Body)
	case lang.LoopWhile, lang.LoopUntil:
		t.emitHeader("while True:")
		t.ctx.withIndent(func() {
			t.genBlock(s.Body)
			cond := t.exprToString(s.Cond)
			if s.Kind == lang.LoopWhile {
				cond = t.negate(s.Cond)
			}
			t.emit("if " + cond + ":")
			t.ctx.withIndent(func() { t.emit("break") })
		})
		t.prevSimple = -1
	default:
		t.faultf("unknown loop kind %d", s.Kind)
	}
}

func (t *translator) writeOnError(s *lang.OnErrorStmt) {
	switch s.Kind {
	case lang.OnErrorResumeNext:
		t.closeRegion(s.Pos())
		t.ctx.resumeNext = true
		t.emit("# On Error Resume Next")
	case lang.OnErrorGotoZero:
		t.closeRegion(s.Pos())
		t.ctx.resumeNext = false
		t.emit("# On Error GoTo 0")
	case lang.OnErrorGotoLabel:
		if p, ok := t.ctx.handler.(pendingHandler); ok {
			t.violate(s.Pos(), "On Error GoTo %s while the handler for %s is still open", s.Label, p.label)
		}
		t.ctx.resumeNext = false
		t.emit("try:")
		t.ctx.handler = pendingHandler{label: s.Label, depth: t.ctx.indent, pos: s.Pos(), start: len(t.lines)}
		t.ctx.indent++
	}
}

// closeRegion ends an open protected region with its recovery block.
func (t *translator) closeRegion(pos lang.Position) {
	p, ok := t.ctx.handler.(pendingHandler)
	if !ok {
		return
	}
	if t.ctx.indent != p.depth+1 {
		t.violate(pos, "error handler region for %s must close in the block that opened it", p.label)
	}
	t.padBlock(p.start)
	t.ctx.indent = p.depth
	t.emit("except Exception as _err:")
	t.ctx.withIndent(func() { t.emit("Err.capture(_err)") })
	t.ctx.handler = noHandler{}
}

func (t *translator) writeLabel(s *lang.LabelStmt) {
	if p, ok := t.ctx.handler.(pendingHandler); ok {
		if !strings.EqualFold(p.label, s.Name) {
			t.violate(s.Pos(), "label %s does not match the pending error handler %s", s.Name, p.label)
		}
		t.closeRegion(s.Pos())
	}
	t.emit("# " + s.Name + ":")
}

func (t *translator) writeExit(s *lang.ExitStmt) {
	proc := t.ctx.proc
	switch strings.ToLower(s.Target) {
	case "function":
		if proc == nil || proc.kind != lang.FunctionProc {
			t.unsupported(s.Pos(), "Exit Function outside a Function")
		}
		t.emit("return " + pyName(proc.name))
	case "sub":
		if proc == nil || proc.kind != lang.SubProc {
			t.unsupported(s.Pos(), "Exit Sub outside a Sub")
		}
		t.emit("return")
	case "for", "do", "while":
		t.emit("break")
	default:
		t.unsupported(s.Pos(), "Exit "+s.Target)
	}
}

func (t *translator) writeComment(s *lang.CommentStmt) {
	text := "#"
	switch {
	case s.Text == "":
	case strings.HasPrefix(s.Text, " "):
		text += s.Text
	default:
		text += " " + s.Text
	}
	if s.Trailing && t.prevSimple >= 0 {
		t.lines[t.prevSimple].text += "  " + text
		return
	}
	t.emit(text)
}
