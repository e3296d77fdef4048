package translator

import (
	"strings"

	"vba2py/lang"
)

// symbol is one declared name. Name keeps the declared spelling, which is
// reused for every later reference since VBA names are case-insensitive.
type symbol struct {
	Name  string
	Type  InferredType
	Array bool
}

// scope is the declared-variable set of a module or procedure. Entries are
// appended, or replaced by define; replacements are journaled so a failed
// statement can be rolled back.
type scope struct {
	order    []*symbol
	byKey    map[string]*symbol
	replaced []replacement
}

// replacement records the entry define overwrote at order[index].
type replacement struct {
	index int
	old   *symbol
}

// scopeMark is a rollback point of a scope.
type scopeMark struct {
	symbols  int
	replaced int
}

func newScope() *scope {
	return &scope{byKey: map[string]*symbol{}}
}

func (s *scope) lookup(name string) (*symbol, bool) {
	sym, ok := s.byKey[strings.ToLower(name)]
	return sym, ok
}

// declare registers name unless it is already present and returns the entry.
func (s *scope) declare(sym *symbol) *symbol {
	key := strings.ToLower(sym.Name)
	if existing, ok := s.byKey[key]; ok {
		return existing
	}
	s.order = append(s.order, sym)
	s.byKey[key] = sym
	return sym
}

// define registers a declaration. A later declaration of the same name
// replaces the earlier entry, so a local Dim shadows a module variable.
func (s *scope) define(sym *symbol) *symbol {
	key := strings.ToLower(sym.Name)
	if existing, ok := s.byKey[key]; ok {
		for i, o := range s.order {
			if o == existing {
				s.replaced = append(s.replaced, replacement{index: i, old: existing})
				s.order[i] = sym
			}
		}
		s.byKey[key] = sym
		return sym
	}
	s.order = append(s.order, sym)
	s.byKey[key] = sym
	return sym
}

func (s *scope) mark() scopeMark {
	return scopeMark{symbols: len(s.order), replaced: len(s.replaced)}
}

// rollback undoes every define and declare made after m.
func (s *scope) rollback(m scopeMark) {
	for i := len(s.replaced) - 1; i >= m.replaced; i-- {
		r := s.replaced[i]
		s.order[r.index] = r.old
		s.byKey[strings.ToLower(r.old.Name)] = r.old
	}
	s.replaced = s.replaced[:m.replaced]
	s.truncate(m.symbols)
}

// truncate drops every symbol declared after the first n.
func (s *scope) truncate(n int) {
	for _, sym := range s.order[n:] {
		delete(s.byKey, strings.ToLower(sym.Name))
	}
	s.order = s.order[:n]
}

func (s *scope) clone() *scope {
	out := &scope{
		order: make([]*symbol, len(s.order)),
		byKey: make(map[string]*symbol, len(s.byKey)),
	}
	copy(out.order, s.order)
	for k, v := range s.byKey {
		out.byKey[k] = v
	}
	return out
}

// Names returns the declared names in declaration order.
func (s *scope) Names() []string {
	names := make([]string, len(s.order))
	for i, sym := range s.order {
		names[i] = sym.Name
	}
	return names
}

// handlerState is either noHandler or pendingHandler.
type handlerState interface {
	handlerState()
}

type noHandler struct{}

// pendingHandler is an open protected region waiting for its label. depth is
// the indentation of the emitted try and start the first line of its body.
type pendingHandler struct {
	label string
	depth int
	start int
	pos   lang.Position
}

func (noHandler) handlerState()      {}
func (pendingHandler) handlerState() {}

type procInfo struct {
	name string
	kind lang.ProcKind
	ret  InferredType
}

// context is the per-file translation state. It is created by Translate and
// discarded with the output.
type context struct {
	indent     int
	proc       *procInfo
	globals    *scope
	locals     *scope
	handler    handlerState
	resumeNext bool
	explicit   bool
	compare    string
	base       int
	withStack  []string
	withCount  int
}

func newContext() *context {
	return &context{
		globals: newScope(),
		handler: noHandler{},
	}
}

// active is the scope declarations currently go to.
func (c *context) active() *scope {
	if c.proc != nil {
		return c.locals
	}
	return c.globals
}

func (c *context) withIndent(fn func()) {
	c.indent++
	defer func() { c.indent-- }()
	fn()
}

// withProcedure runs fn with a fresh local scope seeded from the globals and
// restores the enclosing state afterwards, also when fn panics.
func (c *context) withProcedure(p *procInfo, fn func()) {
	savedProc, savedLocals := c.proc, c.locals
	savedHandler, savedResume := c.handler, c.resumeNext
	c.proc, c.locals = p, c.globals.clone()
	c.handler, c.resumeNext = noHandler{}, false
	defer func() {
		c.proc, c.locals = savedProc, savedLocals
		c.handler, c.resumeNext = savedHandler, savedResume
	}()
	fn()
}

func (c *context) withReceiver(alias string, fn func()) {
	c.withStack = append(c.withStack, alias)
	defer func() { c.withStack = c.withStack[:len(c.withStack)-1] }()
	fn()
}

func (c *context) receiver() (string, bool) {
	if len(c.withStack) == 0 {
		return "", false
	}
	return c.withStack[len(c.withStack)-1], true
}

// isAccumulator reports whether name is the enclosing function's own name.
func (c *context) isAccumulator(name string) bool {
	return c.proc != nil && c.proc.kind == lang.FunctionProc && strings.EqualFold(c.proc.name, name)
}

// snapshot captures everything a failed statement may have changed.
type snapshot struct {
	lines      int
	diags      int
	indent     int
	handler    handlerState
	resumeNext bool
	withDepth  int
	symbols    scopeMark
	prevSimple int
}
