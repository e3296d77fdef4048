package lsp

import (
	"fmt"
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"vba2py/lang"
)

// SymbolKind classifies an indexed declaration.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolConstant
	SymbolParameter
	SymbolProcedure
	SymbolExternal
)

// Symbol is a declaration found in a document.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Detail string
	Pos    lang.Position
	// Proc names the enclosing procedure, empty for module level.
	Proc string
}

// SymbolIndex lists the declarations of a module together with the start
// line of each procedure.
type SymbolIndex struct {
	Symbols []Symbol
	procs   []procSpan
}

type procSpan struct {
	name string
	line int
}

func indexSymbols(prog *lang.Program) *SymbolIndex {
	idx := &SymbolIndex{}
	for _, stmt := range prog.Body {
		switch s := stmt.(type) {
		case *lang.DimStmt:
			idx.addDim(s, "")
		case *lang.ProcDecl:
			name := s.Name.Name
			idx.procs = append(idx.procs, procSpan{name: name, line: s.Pos().Line})
			idx.add(Symbol{Name: name, Kind: SymbolProcedure, Detail: procSignature(s.Kind, name, s.Params, s.ReturnType), Pos: s.Pos()})
			for _, p := range s.Params {
				idx.add(Symbol{Name: p.Name.Name, Kind: SymbolParameter, Detail: "param " + p.Name.Name + asClause(p.Type), Pos: p.Pos, Proc: name})
			}
			lang.Inspect(s, func(n lang.Node) bool {
				if d, ok := n.(*lang.DimStmt); ok {
					idx.addDim(d, name)
				}
				return true
			})
		case *lang.DeclareStmt:
			detail := fmt.Sprintf("Declare %s Lib %q", procSignature(s.Kind, s.Name.Name, s.Params, s.ReturnType), s.Lib)
			idx.add(Symbol{Name: s.Name.Name, Kind: SymbolExternal, Detail: detail, Pos: s.Pos()})
		}
	}
	sort.SliceStable(idx.procs, func(i, j int) bool { return idx.procs[i].line < idx.procs[j].line })
	return idx
}

func (idx *SymbolIndex) add(s Symbol) {
	idx.Symbols = append(idx.Symbols, s)
}

func (idx *SymbolIndex) addDim(d *lang.DimStmt, proc string) {
	kind := SymbolVariable
	keyword := "Dim"
	switch {
	case d.IsConst():
		kind, keyword = SymbolConstant, "Const"
	case d.IsReDim():
		return
	}
	for _, v := range d.Vars {
		shape := ""
		if v.IsArray() {
			shape = "()"
		}
		idx.add(Symbol{
			Name:   v.Name.Name,
			Kind:   kind,
			Detail: keyword + " " + v.Name.Name + shape + asClause(v.Type),
			Pos:    v.Pos,
			Proc:   proc,
		})
	}
}

func asClause(t *lang.TypeName) string {
	if t == nil {
		return ""
	}
	return " As " + t.Name
}

func procSignature(kind lang.ProcKind, name string, params []*lang.Param, ret *lang.TypeName) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name.Name
	}
	sig := fmt.Sprintf("%s %s(%s)", kind, name, strings.Join(names, ", "))
	if kind == lang.FunctionProc {
		sig += asClause(ret)
	}
	return sig
}

// enclosingProc returns the procedure whose definition starts last at or
// before the zero-based line.
func (idx *SymbolIndex) enclosingProc(line protocol.UInteger) string {
	name := ""
	for _, p := range idx.procs {
		if p.line-1 > int(line) {
			break
		}
		name = p.name
	}
	return name
}

// Lookup resolves a name as seen from a line: locals of the enclosing
// procedure first, then module-level declarations.
func (idx *SymbolIndex) Lookup(name string, line protocol.UInteger) (Symbol, bool) {
	proc := idx.enclosingProc(line)
	var module *Symbol
	for i, s := range idx.Symbols {
		if !strings.EqualFold(s.Name, name) {
			continue
		}
		if proc != "" && s.Proc == proc {
			return s, true
		}
		if s.Proc == "" && module == nil {
			module = &idx.Symbols[i]
		}
	}
	if module != nil {
		return *module, true
	}
	return Symbol{}, false
}

// Visible lists the symbols usable at a line, locals first.
func (idx *SymbolIndex) Visible(line protocol.UInteger) []Symbol {
	proc := idx.enclosingProc(line)
	var locals, module []Symbol
	for _, s := range idx.Symbols {
		switch {
		case s.Proc == "":
			module = append(module, s)
		case s.Proc == proc:
			locals = append(locals, s)
		}
	}
	return append(locals, module...)
}
