package lang

import "fmt"

// Position tracks a 1-based line and column inside the source file.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is implemented by every statement and expression.
type Node interface {
	Pos() Position
}

// Program is the root node for one source module.
type Program struct {
	Body []Stmt
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// OptionKind selects the module option an OptionStmt sets.
type OptionKind int

const (
	OptionExplicit OptionKind = iota
	OptionBase
	OptionCompare
	OptionPrivateModule
)

type OptionStmt struct {
	Kind  OptionKind
	Value string // number for Base, Binary/Text/Database for Compare
	pos   Position
}

// DimStmt covers Dim, ReDim, Static, Private, Public, Global and Const
// declarations. Keyword holds the lower-cased introducing word.
type DimStmt struct {
	Keyword  string
	Preserve bool
	Vars     []*VarDecl
	pos      Position
}

// IsConst reports whether the statement declares constants.
func (s *DimStmt) IsConst() bool { return s.Keyword == "const" }

// IsReDim reports whether the statement reallocates existing arrays.
func (s *DimStmt) IsReDim() bool { return s.Keyword == "redim" }

type VarDecl struct {
	Name *Ident
	// Bounds is nil for scalars and empty (non-nil) for dynamic arrays.
	Bounds []Bound
	Type   *TypeName
	New    bool
	Value  Expr // initializer, only for Const
	Pos    Position
}

// IsArray reports whether the declaration has a parenthesised shape.
func (v *VarDecl) IsArray() bool { return v.Bounds != nil }

// Bound is one array dimension; Lower is nil when only the upper bound is given.
type Bound struct {
	Lower Expr
	Upper Expr
}

type TypeName struct {
	Name string // possibly dotted, e.g. Excel.Range
	Pos  Position
}

// ProcKind distinguishes subroutines from functions.
type ProcKind int

const (
	SubProc ProcKind = iota
	FunctionProc
)

func (k ProcKind) String() string {
	if k == FunctionProc {
		return "Function"
	}
	return "Sub"
}

type Param struct {
	Name       *Ident
	Optional   bool
	ByVal      bool
	ParamArray bool
	IsArray    bool
	Type       *TypeName
	Default    Expr
	Pos        Position
}

// ProcDecl is a Sub or Function definition with its body.
type ProcDecl struct {
	Visibility string
	Static     bool
	Kind       ProcKind
	Name       *Ident
	Params     []*Param
	ReturnType *TypeName
	Body       []Stmt
	pos        Position
}

// DeclareStmt is an external (DLL) procedure declaration.
type DeclareStmt struct {
	Visibility string
	Kind       ProcKind
	Name       *Ident
	Lib        string
	Alias      string
	Params     []*Param
	ReturnType *TypeName
	pos        Position
}

type AssignStmt struct {
	Set    bool
	Target Expr
	Value  Expr
	pos    Position
}

// CallStmt is a procedure call used as a statement, with or without Call.
type CallStmt struct {
	Explicit bool
	Callee   Expr
	Args     []*Arg
	pos      Position
}

type CondBranch struct {
	Cond Expr
	Body []Stmt
	Pos  Position
}

// IfStmt holds the If branch followed by any ElseIf branches.
type IfStmt struct {
	Branches []*CondBranch
	Else     []Stmt
	HasElse  bool
	Inline   bool
	pos      Position
}

type ForStmt struct {
	Var  *Ident
	From Expr
	To   Expr
	Step Expr
	Body []Stmt
	pos  Position
}

type ForEachStmt struct {
	Var  *Ident
	In   Expr
	Body []Stmt
	pos  Position
}

// LoopKind enumerates the condition-controlled loop forms.
type LoopKind int

const (
	WhileWend LoopKind = iota
	DoWhile
	DoUntil
	LoopWhile
	LoopUntil
	DoForever
)

// PostTest reports whether the condition is checked after the body.
func (k LoopKind) PostTest() bool { return k == LoopWhile || k == LoopUntil }

// Until reports whether the loop runs while the condition is false.
func (k LoopKind) Until() bool { return k == DoUntil || k == LoopUntil }

type LoopStmt struct {
	Kind LoopKind
	Cond Expr
	Body []Stmt
	pos  Position
}

type WithStmt struct {
	Target Expr
	Body   []Stmt
	pos    Position
}

// OnErrorKind is the action an On Error directive installs.
type OnErrorKind int

const (
	OnErrorResumeNext OnErrorKind = iota
	OnErrorGotoZero
	OnErrorGotoLabel
)

type OnErrorStmt struct {
	Kind  OnErrorKind
	Label string
	pos   Position
}

type LabelStmt struct {
	Name string
	pos  Position
}

type GotoStmt struct {
	Label string
	pos   Position
}

type ResumeStmt struct {
	Target string // "", "Next", "0" or a label
	pos    Position
}

type ExitStmt struct {
	Target string // Sub, Function, For, Do, While, Property...
	pos    Position
}

type OpenStmt struct {
	Path    Expr
	Mode    string
	Access  string
	Lock    string
	FileNum Expr
	Len     Expr
	pos     Position
}

type CloseStmt struct {
	FileNums []Expr
	pos      Position
}

// FileIOStmt is Print #, Write #, Input #, Line Input #, Get # or Put #.
type FileIOStmt struct {
	Verb    string
	FileNum Expr
	Args    []*Arg
	pos     Position
}

// PreprocIfStmt is a conditional compilation block (#If ... #End If).
type PreprocIfStmt struct {
	Branches []*CondBranch
	Else     []Stmt
	pos      Position
}

type CommentStmt struct {
	Text     string
	Trailing bool
	pos      Position
}

type BlankStmt struct {
	pos Position
}

func (s *OptionStmt) stmtNode()    {}
func (s *DimStmt) stmtNode()       {}
func (s *ProcDecl) stmtNode()      {}
func (s *DeclareStmt) stmtNode()   {}
func (s *AssignStmt) stmtNode()    {}
func (s *CallStmt) stmtNode()      {}
func (s *IfStmt) stmtNode()        {}
func (s *ForStmt) stmtNode()       {}
func (s *ForEachStmt) stmtNode()   {}
func (s *LoopStmt) stmtNode()      {}
func (s *WithStmt) stmtNode()      {}
func (s *OnErrorStmt) stmtNode()   {}
func (s *LabelStmt) stmtNode()     {}
func (s *GotoStmt) stmtNode()      {}
func (s *ResumeStmt) stmtNode()    {}
func (s *ExitStmt) stmtNode()      {}
func (s *OpenStmt) stmtNode()      {}
func (s *CloseStmt) stmtNode()     {}
func (s *FileIOStmt) stmtNode()    {}
func (s *PreprocIfStmt) stmtNode() {}
func (s *CommentStmt) stmtNode()   {}
func (s *BlankStmt) stmtNode()     {}

func (s *OptionStmt) Pos() Position    { return s.pos }
func (s *DimStmt) Pos() Position       { return s.pos }
func (s *ProcDecl) Pos() Position      { return s.pos }
func (s *DeclareStmt) Pos() Position   { return s.pos }
func (s *AssignStmt) Pos() Position    { return s.pos }
func (s *CallStmt) Pos() Position      { return s.pos }
func (s *IfStmt) Pos() Position        { return s.pos }
func (s *ForStmt) Pos() Position       { return s.pos }
func (s *ForEachStmt) Pos() Position   { return s.pos }
func (s *LoopStmt) Pos() Position      { return s.pos }
func (s *WithStmt) Pos() Position      { return s.pos }
func (s *OnErrorStmt) Pos() Position   { return s.pos }
func (s *LabelStmt) Pos() Position     { return s.pos }
func (s *GotoStmt) Pos() Position      { return s.pos }
func (s *ResumeStmt) Pos() Position    { return s.pos }
func (s *ExitStmt) Pos() Position      { return s.pos }
func (s *OpenStmt) Pos() Position      { return s.pos }
func (s *CloseStmt) Pos() Position     { return s.pos }
func (s *FileIOStmt) Pos() Position    { return s.pos }
func (s *PreprocIfStmt) Pos() Position { return s.pos }
func (s *CommentStmt) Pos() Position   { return s.pos }
func (s *BlankStmt) Pos() Position     { return s.pos }

// LiteralKind classifies a Literal.
type LiteralKind int

const (
	StringLit LiteralKind = iota
	NumberLit
	BoolLit
	NothingLit
	EmptyLit
	NullLit
)

// Literal holds a constant. String values are already decoded; number
// values keep their source spelling (suffixes and &H prefixes included).
type Literal struct {
	Kind  LiteralKind
	Value string
	pos   Position
}

// Ident is a plain, typed (suffixed) or bracketed name.
type Ident struct {
	Name    string
	Suffix  rune // 0 when absent
	Foreign bool
	pos     Position
}

// MemberExpr is Object.Name; a nil Object is the With shorthand ".Name".
type MemberExpr struct {
	Object Expr
	Name   string
	pos    Position
}

// CallExpr is a name applied to an argument list. Whether it indexes an
// array or calls a procedure is decided by the translator.
type CallExpr struct {
	Callee Expr
	Args   []*Arg
	pos    Position
}

// Arg is one positional or named argument. Value is nil when omitted.
type Arg struct {
	Name  string
	Value Expr
	Pos   Position
}

type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	pos   Position
}

type UnaryExpr struct {
	Op   TokenType
	Expr Expr
	pos  Position
}

type ParenExpr struct {
	Expr Expr
	pos  Position
}

// NewExpr constructs an object: New Collection.
type NewExpr struct {
	Type Expr
	pos  Position
}

func (e *Literal) exprNode()    {}
func (e *Ident) exprNode()      {}
func (e *MemberExpr) exprNode() {}
func (e *CallExpr) exprNode()   {}
func (e *BinaryExpr) exprNode() {}
func (e *UnaryExpr) exprNode()  {}
func (e *ParenExpr) exprNode()  {}
func (e *NewExpr) exprNode()    {}

func (e *Literal) Pos() Position    { return e.pos }
func (e *Ident) Pos() Position      { return e.pos }
func (e *MemberExpr) Pos() Position { return e.pos }
func (e *CallExpr) Pos() Position   { return e.pos }
func (e *BinaryExpr) Pos() Position { return e.pos }
func (e *UnaryExpr) Pos() Position  { return e.pos }
func (e *ParenExpr) Pos() Position  { return e.pos }
func (e *NewExpr) Pos() Position    { return e.pos }
