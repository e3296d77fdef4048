package translator

import (
	"errors"
	"fmt"
	"strings"

	"vba2py/lang"
)

// Options control the shape of the generated module.
type Options struct {
	// Indent is one level of indentation.
	Indent string
	// Prelude lines are written before the translated module.
	Prelude []string
}

// DefaultOptions returns four-space indentation and the runtime import.
func DefaultOptions() Options {
	return Options{
		Indent:  "    ",
		Prelude: []string{"from vba_runtime import *"},
	}
}

// Translate converts a parsed module into Python source while collecting
// diagnostics for constructs it cannot express. A *ContractViolation error
// means the module's output must be discarded; its diagnostic is the last
// one returned.
func Translate(prog *lang.Program, opts Options) (code string, diags []lang.Diagnostic, err error) {
	if opts.Indent == "" {
		opts.Indent = DefaultOptions().Indent
	}
	t := &translator{opts: opts, ctx: newContext(), prevSimple: -1}
	defer func() {
		if r := recover(); r != nil {
			a, ok := r.(abort)
			if !ok {
				panic(r)
			}
			code, diags, err = "", t.diags, a.err
			var cv *ContractViolation
			if errors.As(a.err, &cv) {
				diags = append(diags, cv.Diagnostic())
			}
		}
	}()

	t.genBlock(prog.Body)
	if p, ok := t.ctx.handler.(pendingHandler); ok {
		t.violate(p.pos, "error handler %s is never reached", p.label)
	}
	return t.render(), t.diags, nil
}

// TranslateSource parses text and translates it. A syntax error is returned
// together with its terminal diagnostic.
func TranslateSource(text string, opts Options) (string, []lang.Diagnostic, error) {
	prog, err := lang.Parse(text)
	if err != nil {
		var syn *lang.SyntaxError
		if errors.As(err, &syn) {
			return "", []lang.Diagnostic{syn.Diagnostic()}, err
		}
		return "", nil, err
	}
	return Translate(prog, opts)
}

type line struct {
	indent int
	text   string
}

type translator struct {
	opts  Options
	ctx   *context
	lines []line
	diags []lang.Diagnostic
	// prevSimple is the index of the single line the previous statement
	// produced, or -1. Trailing comments attach to it.
	prevSimple int
}

func (t *translator) emit(text string) {
	t.lines = append(t.lines, line{indent: t.ctx.indent, text: text})
}

// emitHeader writes the opening line of a block. A comment trailing the
// block's first source line attaches to it.
func (t *translator) emitHeader(text string) {
	t.emit(text)
	t.prevSimple = len(t.lines) - 1
}

func (t *translator) diag(sev lang.Severity, code lang.Code, pos lang.Position, msg string) {
	t.diags = append(t.diags, lang.Diagnostic{Severity: sev, Code: code, Message: msg, Pos: pos})
}

func (t *translator) render() string {
	var sb strings.Builder
	for _, l := range t.opts.Prelude {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	if len(t.opts.Prelude) > 0 {
		sb.WriteString("\n")
	}
	for _, l := range t.lines {
		if l.text != "" {
			sb.WriteString(strings.Repeat(t.opts.Indent, l.indent))
			sb.WriteString(l.text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// genBlock generates a statement list at the current indentation. A
// protected region opened inside the block must also close inside it.
func (t *translator) genBlock(stmts []lang.Stmt) {
	depth := t.ctx.indent
	for _, s := range stmts {
		t.genStmt(s)
	}
	if p, ok := t.ctx.handler.(pendingHandler); ok && p.depth >= depth {
		t.violate(p.pos, "error handler region for %s is not closed by its label in the same block", p.label)
	}
}

// genBody generates the indented body of a compound statement and pads it
// with pass when it produced no code.
func (t *translator) genBody(stmts []lang.Stmt) {
	t.ctx.withIndent(func() {
		start := len(t.lines)
		t.genBlock(stmts)
		t.padBlock(start)
	})
	t.prevSimple = -1
}

func (t *translator) padBlock(start int) {
	for _, l := range t.lines[start:] {
		if isCode(l.text) {
			return
		}
	}
	t.emit("pass")
}

func isCode(text string) bool {
	return text != "" && !strings.HasPrefix(text, "#")
}

// genStmt is the statement boundary: unsupported constructs and internal
// faults are replaced by a raising marker and generation continues with the
// next statement. Contract violations keep unwinding to Translate.
func (t *translator) genStmt(s lang.Stmt) {
	snap := t.snapshot()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var unsupported *UnsupportedError
		a, ok := r.(abort)
		switch {
		case ok && isViolation(a.err):
			panic(r)
		case ok && errors.As(a.err, &unsupported):
			t.restore(snap)
			t.unsupportedMarker(unsupported.Pos, unsupported.Construct)
		case ok:
			t.restore(snap)
			t.faultMarker(s.Pos(), a.err.Error())
		default:
			t.restore(snap)
			t.faultMarker(s.Pos(), fmt.Sprint(r))
		}
		t.prevSimple = -1
	}()

	start := len(t.lines)
	t.writeStmt(s)
	if len(t.lines)-start == 1 && isSimple(s) {
		t.prevSimple = start
	} else {
		t.prevSimple = -1
	}
}

func isViolation(err error) bool {
	var cv *ContractViolation
	return errors.As(err, &cv)
}

func isSimple(s lang.Stmt) bool {
	switch s := s.(type) {
	case *lang.AssignStmt, *lang.CallStmt, *lang.DimStmt, *lang.ExitStmt:
		return true
	case *lang.IfStmt:
		return s.Inline
	}
	return false
}

func (t *translator) unsupportedMarker(pos lang.Position, construct string) {
	msg := "unsupported " + construct
	t.emit(fmt.Sprintf("raise NotImplementedError(%s)", pyString(fmt.Sprintf("vba2py: %s (line %d)", msg, pos.Line))))
	t.diag(lang.SeverityWarning, lang.CodeUnsupported, pos, msg)
}

func (t *translator) faultMarker(pos lang.Position, reason string) {
	msg := "could not translate statement: " + reason
	t.emit(fmt.Sprintf("raise RuntimeError(%s)", pyString(fmt.Sprintf("vba2py: %s (line %d)", msg, pos.Line))))
	t.diag(lang.SeverityError, lang.CodeStatementFault, pos, msg)
}

func (t *translator) snapshot() snapshot {
	return snapshot{
		lines:      len(t.lines),
		diags:      len(t.diags),
		indent:     t.ctx.indent,
		handler:    t.ctx.handler,
		resumeNext: t.ctx.resumeNext,
		withDepth:  len(t.ctx.withStack),
		symbols:    t.ctx.active().mark(),
		prevSimple: t.prevSimple,
	}
}

func (t *translator) restore(s snapshot) {
	t.lines = t.lines[:s.lines]
	t.diags = t.diags[:s.diags]
	t.ctx.indent = s.indent
	t.ctx.handler = s.handler
	t.ctx.resumeNext = s.resumeNext
	t.ctx.withStack = t.ctx.withStack[:s.withDepth]
	t.ctx.active().rollback(s.symbols)
	t.prevSimple = s.prevSimple
}
