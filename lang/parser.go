package lang

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Parse builds an AST for the given module text. The first failure aborts
// parsing and is returned as a *SyntaxError.
func Parse(source string) (prog *Program, err error) {
	p := &parser{
		tokens: Tokenize(source),
		lines:  strings.Split(source, "\n"),
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog, err = nil, p.err
		}
	}()

	for _, tok := range p.tokens {
		if tok.Type == ILLEGAL {
			p.fail(tok.Pos, illegalMessage(tok.Literal))
		}
	}
	return p.parseProgram(), nil
}

// bailout unwinds the parser after the first syntax error.
type bailout struct{}

type parser struct {
	tokens []Token
	pos    int
	lines  []string
	err    *SyntaxError
}

func (p *parser) parseProgram() *Program {
	body := p.parseBlock(nil, "")
	p.expect(EOF, "expected end of file")
	return &Program{Body: body}
}

// parseBlock reads statements until stop reports a closing keyword. A nil
// stop reads to the end of the file.
func (p *parser) parseBlock(stop func() bool, closing string) []Stmt {
	stmts := []Stmt{}
	for {
		if stop != nil && stop() {
			return stmts
		}
		switch p.peek().Type {
		case EOF:
			if stop != nil {
				p.failAtCurrent(fmt.Sprintf("expected %s before end of file", closing))
			}
			return stmts
		case NEWLINE:
			tok := p.advance()
			stmts = append(stmts, &BlankStmt{pos: tok.Pos})
			continue
		case COLON, LABEL_COLON:
			p.advance()
			continue
		}
		stmts = append(stmts, p.parseStatement())
		p.endStatement()
	}
}

func (p *parser) endStatement() {
	switch p.peek().Type {
	case NEWLINE, COLON:
		p.advance()
	case LABEL_COLON:
		p.advance()
		p.match(NEWLINE)
	case COMMENT, EOF:
	default:
		p.failAtCurrent(fmt.Sprintf("expected end of statement, found %s", p.describe(p.peek())))
	}
}

func (p *parser) atStatementEnd() bool {
	switch p.peek().Type {
	case NEWLINE, COLON, LABEL_COLON, COMMENT, EOF, ELSE:
		return true
	}
	return false
}

func (p *parser) parseStatement() Stmt {
	tok := p.peek()
	switch tok.Type {
	case COMMENT:
		p.advance()
		trailing := p.pos > 1 && p.tokens[p.pos-2].Type != NEWLINE
		return &CommentStmt{Text: tok.Literal, Trailing: trailing, pos: tok.Pos}
	case OPTION:
		return p.parseOption()
	case DIM, REDIM, CONST:
		p.advance()
		return p.parseDim(strings.ToLower(tok.Literal), tok.Pos)
	case STATIC:
		p.advance()
		if p.check(SUB) || p.check(FUNCTION) {
			return p.parseProc("", true, tok.Pos)
		}
		return p.parseDim("static", tok.Pos)
	case PRIVATE, PUBLIC, GLOBAL, FRIEND:
		p.advance()
		return p.parseVisibility(strings.ToLower(tok.Literal), tok.Pos)
	case DECLARE:
		return p.parseDeclare("", tok.Pos)
	case SUB, FUNCTION:
		return p.parseProc("", false, tok.Pos)
	case IF:
		return p.parseIf()
	case FOR:
		return p.parseFor()
	case WHILE:
		return p.parseWhileWend()
	case DO:
		return p.parseDo()
	case WITH:
		return p.parseWith()
	case ON:
		return p.parseOnError()
	case GOTO:
		p.advance()
		return &GotoStmt{Label: p.parseLabelRef(), pos: tok.Pos}
	case RESUME:
		return p.parseResume()
	case EXIT:
		p.advance()
		target := p.advance()
		if target.Type != IDENT && !target.Type.IsKeyword() {
			p.fail(target.Pos, "expected Sub, Function, For or Do after Exit")
		}
		return &ExitStmt{Target: target.Literal, pos: tok.Pos}
	case HASH_IF:
		return p.parsePreprocIf()
	case HASH_CONST:
		p.advance()
		decl := &VarDecl{Name: p.parseIdent(), Pos: tok.Pos}
		p.expect(EQ, "expected '=' in #Const")
		decl.Value = p.parseExpression()
		return &DimStmt{Keyword: "#const", Vars: []*VarDecl{decl}, pos: tok.Pos}
	case CALL:
		p.advance()
		target := p.parseStatementTarget(false)
		stmt := &CallStmt{Explicit: true, Callee: target, pos: tok.Pos}
		if call, ok := target.(*CallExpr); ok {
			stmt.Callee, stmt.Args = call.Callee, call.Args
		}
		return stmt
	case SET, LET:
		p.advance()
		target := p.parseStatementTarget(true)
		p.expect(EQ, fmt.Sprintf("expected '=' after %s target", tok.Literal))
		return &AssignStmt{Set: tok.Type == SET, Target: target, Value: p.parseExpression(), pos: tok.Pos}
	case IDENT:
		if p.peekAt(1).Type == LABEL_COLON {
			p.advance()
			return &LabelStmt{Name: tok.Literal, pos: tok.Pos}
		}
		if stmt := p.parseContextual(tok); stmt != nil {
			return stmt
		}
		return p.parseAssignOrCall()
	case TYPED_IDENT, FOREIGN_IDENT, DOT:
		return p.parseAssignOrCall()
	}
	p.failAtCurrent(fmt.Sprintf("unexpected %s at start of statement", p.describe(tok)))
	return nil
}

// parseContextual recognises statements introduced by words that are not
// reserved: file I/O verbs and Attribute lines. It returns nil when tok
// starts an ordinary assignment or call.
func (p *parser) parseContextual(tok Token) Stmt {
	next := p.peekAt(1)
	switch strings.ToLower(tok.Literal) {
	case "attribute":
		if next.Type == IDENT || next.Type == FOREIGN_IDENT {
			text := strings.TrimSpace(p.lineText(tok.Pos.Line))
			for !p.atStatementEnd() {
				p.advance()
			}
			return &CommentStmt{Text: text, pos: tok.Pos}
		}
	case "open":
		switch next.Type {
		case EQ, DOT, LPAREN, NEWLINE, COLON, LABEL_COLON, COMMENT, EOF:
			return nil
		}
		return p.parseOpen()
	case "close":
		if next.Type == HASH || next.Type == NUMBER || next.Type == NEWLINE || next.Type == EOF ||
			next.Type == COMMENT || next.Type == COLON {
			return p.parseClose()
		}
	case "print", "write", "input", "get", "put":
		if next.Type == HASH {
			p.advance()
			return p.parseFileIO(tok.Literal, tok.Pos)
		}
	case "line":
		if next.Type == IDENT && strings.EqualFold(next.Literal, "input") && p.peekAt(2).Type == HASH {
			p.advance()
			p.advance()
			return p.parseFileIO("Line Input", tok.Pos)
		}
	}
	return nil
}

func (p *parser) parseOption() Stmt {
	pos := p.advance().Pos
	word := p.expectWord("expected Explicit, Base or Compare after Option")
	switch strings.ToLower(word.Literal) {
	case "explicit":
		return &OptionStmt{Kind: OptionExplicit, pos: pos}
	case "base":
		num := p.expect(NUMBER, "expected 0 or 1 after Option Base")
		return &OptionStmt{Kind: OptionBase, Value: num.Literal, pos: pos}
	case "compare":
		mode := p.expectWord("expected Binary, Text or Database after Option Compare")
		return &OptionStmt{Kind: OptionCompare, Value: mode.Literal, pos: pos}
	case "private":
		p.expectWord("expected Module after Option Private")
		return &OptionStmt{Kind: OptionPrivateModule, pos: pos}
	}
	p.fail(word.Pos, fmt.Sprintf("unknown option %q", word.Literal))
	return nil
}

func (p *parser) parseVisibility(visibility string, pos Position) Stmt {
	switch p.peek().Type {
	case SUB, FUNCTION:
		return p.parseProc(visibility, false, pos)
	case STATIC:
		p.advance()
		return p.parseProc(visibility, true, pos)
	case DECLARE:
		return p.parseDeclare(visibility, pos)
	case CONST:
		p.advance()
		return p.parseDim("const", pos)
	}
	if p.check(IDENT) && strings.EqualFold(p.peek().Literal, "withevents") {
		p.advance()
	}
	return p.parseDim(visibility, pos)
}

func (p *parser) parseDim(keyword string, pos Position) *DimStmt {
	stmt := &DimStmt{Keyword: keyword, pos: pos}
	if keyword == "redim" && p.match(PRESERVE) {
		stmt.Preserve = true
	}
	for {
		stmt.Vars = append(stmt.Vars, p.parseVarDecl(keyword == "const"))
		if !p.match(COMMA) {
			break
		}
	}
	return stmt
}

func (p *parser) parseVarDecl(isConst bool) *VarDecl {
	name := p.parseIdent()
	decl := &VarDecl{Name: name, Pos: name.Pos()}
	if p.match(LPAREN) {
		decl.Bounds = []Bound{}
		if !p.check(RPAREN) {
			for {
				first := p.parseExpression()
				if p.match(TO) {
					decl.Bounds = append(decl.Bounds, Bound{Lower: first, Upper: p.parseExpression()})
				} else {
					decl.Bounds = append(decl.Bounds, Bound{Upper: first})
				}
				if !p.match(COMMA) {
					break
				}
			}
		}
		p.expect(RPAREN, "expected ')' to close array bounds")
	}
	if p.match(AS) {
		decl.New = p.match(NEW)
		decl.Type = p.parseTypeName()
		if p.match(STAR) {
			// fixed-length string: String * 10
			p.parseExpression()
		}
	}
	if isConst {
		p.expect(EQ, "expected '=' in constant declaration")
		decl.Value = p.parseExpression()
	}
	return decl
}

func (p *parser) parseTypeName() *TypeName {
	first := p.expectWord("expected type name")
	name := first.Literal
	for p.match(DOT) {
		name += "." + p.expectWord("expected type name after '.'").Literal
	}
	return &TypeName{Name: name, Pos: first.Pos}
}

func (p *parser) parseProc(visibility string, static bool, pos Position) *ProcDecl {
	kindTok := p.advance()
	proc := &ProcDecl{Visibility: visibility, Static: static, Kind: SubProc, pos: pos}
	if kindTok.Type == FUNCTION {
		proc.Kind = FunctionProc
	}
	proc.Name = p.parseIdent()
	proc.Params = p.parseParams()
	if proc.Kind == FunctionProc && p.match(AS) {
		proc.ReturnType = p.parseTypeName()
		if p.match(LPAREN) {
			p.expect(RPAREN, "expected ')' in array return type")
		}
	}
	p.endStatement()
	closing := "End " + proc.Kind.String()
	proc.Body = p.parseBlock(func() bool {
		return p.check(END) && (p.peekAt(1).Type == SUB || p.peekAt(1).Type == FUNCTION)
	}, closing)
	p.advance()
	if p.advance().Type != kindTok.Type {
		p.fail(p.previous().Pos, fmt.Sprintf("expected %s", closing))
	}
	return proc
}

func (p *parser) parseParams() []*Param {
	params := []*Param{}
	if !p.match(LPAREN) {
		return params
	}
	if p.match(RPAREN) {
		return params
	}
	for {
		params = append(params, p.parseParam())
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RPAREN, "expected ')' to close parameter list")
	return params
}

func (p *parser) parseParam() *Param {
	param := &Param{Pos: p.peek().Pos}
	for {
		switch {
		case p.match(OPTIONAL):
			param.Optional = true
		case p.match(BYVAL):
			param.ByVal = true
		case p.match(BYREF):
			param.ByVal = false
		case p.match(PARAMARRAY):
			param.ParamArray = true
		default:
			param.Name = p.parseIdent()
			if p.match(LPAREN) {
				p.expect(RPAREN, "expected ')' after array parameter")
				param.IsArray = true
			}
			if p.match(AS) {
				param.Type = p.parseTypeName()
			}
			if p.match(EQ) {
				param.Default = p.parseExpression()
			}
			return param
		}
	}
}

func (p *parser) parseDeclare(visibility string, pos Position) *DeclareStmt {
	p.expect(DECLARE, "expected Declare")
	if p.checkWord("ptrsafe") {
		p.advance()
	}
	stmt := &DeclareStmt{Visibility: visibility, Kind: SubProc, pos: pos}
	switch {
	case p.match(FUNCTION):
		stmt.Kind = FunctionProc
	case p.match(SUB):
	default:
		p.failAtCurrent("expected Sub or Function after Declare")
	}
	stmt.Name = p.parseIdent()
	if !p.checkWord("lib") {
		p.failAtCurrent("expected Lib in Declare statement")
	}
	p.advance()
	stmt.Lib = p.expect(STRING, "expected library name").Literal
	if p.checkWord("alias") {
		p.advance()
		stmt.Alias = p.expect(STRING, "expected alias name").Literal
	}
	stmt.Params = p.parseParams()
	if p.match(AS) {
		stmt.ReturnType = p.parseTypeName()
	}
	return stmt
}

func (p *parser) parseIf() Stmt {
	pos := p.advance().Pos
	cond := p.parseExpression()
	p.expect(THEN, "expected Then after If condition")

	if !p.check(NEWLINE) && !p.check(COMMENT) && !p.check(EOF) {
		stmt := &IfStmt{Inline: true, pos: pos}
		stmt.Branches = []*CondBranch{{Cond: cond, Body: p.parseInlineStatements(), Pos: pos}}
		if p.match(ELSE) {
			stmt.HasElse = true
			stmt.Else = p.parseInlineStatements()
		}
		return stmt
	}

	stopBranch := func() bool {
		return p.check(ELSEIF) || p.check(ELSE) || p.checkEnd(IF)
	}
	stmt := &IfStmt{pos: pos}
	p.endStatement()
	stmt.Branches = []*CondBranch{{Cond: cond, Body: p.parseBlock(stopBranch, "End If"), Pos: pos}}
	for p.check(ELSEIF) {
		branchPos := p.advance().Pos
		cond := p.parseExpression()
		p.expect(THEN, "expected Then after ElseIf condition")
		p.endStatement()
		stmt.Branches = append(stmt.Branches, &CondBranch{Cond: cond, Body: p.parseBlock(stopBranch, "End If"), Pos: branchPos})
	}
	if p.match(ELSE) {
		stmt.HasElse = true
		p.endStatement()
		stmt.Else = p.parseBlock(func() bool { return p.checkEnd(IF) }, "End If")
	}
	p.expectEnd(IF, "End If")
	return stmt
}

// parseInlineStatements reads the colon-separated statements of a single
// line If, stopping before Else or the end of the line.
func (p *parser) parseInlineStatements() []Stmt {
	stmts := []Stmt{}
	for {
		switch p.peek().Type {
		case NEWLINE, COMMENT, EOF, ELSE, LABEL_COLON:
			return stmts
		}
		stmts = append(stmts, p.parseStatement())
		if !p.match(COLON) {
			return stmts
		}
	}
}

func (p *parser) parseFor() Stmt {
	pos := p.advance().Pos
	stopNext := func() bool { return p.check(NEXT) }

	if p.match(EACH) {
		stmt := &ForEachStmt{Var: p.parseIdent(), pos: pos}
		p.expect(IN, "expected In after For Each variable")
		stmt.In = p.parseExpression()
		p.endStatement()
		stmt.Body = p.parseBlock(stopNext, "Next")
		p.advance()
		p.skipNextVar()
		return stmt
	}

	stmt := &ForStmt{Var: p.parseIdent(), pos: pos}
	p.expect(EQ, "expected '=' after For variable")
	stmt.From = p.parseExpression()
	p.expect(TO, "expected To in For statement")
	stmt.To = p.parseExpression()
	if p.match(STEP) {
		stmt.Step = p.parseExpression()
	}
	p.endStatement()
	stmt.Body = p.parseBlock(stopNext, "Next")
	p.advance()
	p.skipNextVar()
	return stmt
}

func (p *parser) skipNextVar() {
	switch p.peek().Type {
	case IDENT, TYPED_IDENT, FOREIGN_IDENT:
		p.advance()
	}
}

func (p *parser) parseWhileWend() Stmt {
	pos := p.advance().Pos
	stmt := &LoopStmt{Kind: WhileWend, Cond: p.parseExpression(), pos: pos}
	p.endStatement()
	stmt.Body = p.parseBlock(func() bool { return p.check(WEND) }, "Wend")
	p.advance()
	return stmt
}

func (p *parser) parseDo() Stmt {
	pos := p.advance().Pos
	stmt := &LoopStmt{Kind: DoForever, pos: pos}
	switch {
	case p.match(WHILE):
		stmt.Kind, stmt.Cond = DoWhile, p.parseExpression()
	case p.match(UNTIL):
		stmt.Kind, stmt.Cond = DoUntil, p.parseExpression()
	}
	p.endStatement()
	stmt.Body = p.parseBlock(func() bool { return p.check(LOOP) }, "Loop")
	p.advance()
	if stmt.Kind == DoForever {
		switch {
		case p.match(WHILE):
			stmt.Kind, stmt.Cond = LoopWhile, p.parseExpression()
		case p.match(UNTIL):
			stmt.Kind, stmt.Cond = LoopUntil, p.parseExpression()
		}
	}
	return stmt
}

func (p *parser) parseWith() Stmt {
	pos := p.advance().Pos
	stmt := &WithStmt{Target: p.parseExpression(), pos: pos}
	p.endStatement()
	stmt.Body = p.parseBlock(func() bool { return p.checkEnd(WITH) }, "End With")
	p.expectEnd(WITH, "End With")
	return stmt
}

func (p *parser) parseOnError() Stmt {
	pos := p.advance().Pos
	if !p.checkWord("error") {
		p.failAtCurrent("expected Error after On")
	}
	p.advance()
	if p.match(RESUME) {
		p.expect(NEXT, "expected Next after On Error Resume")
		return &OnErrorStmt{Kind: OnErrorResumeNext, pos: pos}
	}
	p.expect(GOTO, "expected GoTo or Resume Next after On Error")
	if p.match(MINUS) {
		p.expect(NUMBER, "expected 1 after On Error GoTo -")
		return &OnErrorStmt{Kind: OnErrorGotoZero, pos: pos}
	}
	if p.check(NUMBER) && p.peek().Literal == "0" {
		p.advance()
		return &OnErrorStmt{Kind: OnErrorGotoZero, pos: pos}
	}
	return &OnErrorStmt{Kind: OnErrorGotoLabel, Label: p.parseLabelRef(), pos: pos}
}

func (p *parser) parseLabelRef() string {
	tok := p.advance()
	if tok.Type != IDENT && tok.Type != NUMBER {
		p.fail(tok.Pos, "expected label name")
	}
	return tok.Literal
}

func (p *parser) parseResume() Stmt {
	pos := p.advance().Pos
	stmt := &ResumeStmt{pos: pos}
	switch {
	case p.match(NEXT):
		stmt.Target = "Next"
	case p.check(IDENT) || p.check(NUMBER):
		stmt.Target = p.advance().Literal
	}
	return stmt
}

func (p *parser) parseOpen() Stmt {
	pos := p.advance().Pos
	stmt := &OpenStmt{Path: p.parseExpression(), pos: pos}
	if p.match(FOR) {
		stmt.Mode = p.expectWord("expected file mode after For").Literal
	}
	if p.checkWord("access") {
		p.advance()
		stmt.Access = p.expectWord("expected Read or Write after Access").Literal
		if p.checkWord("write") {
			stmt.Access += " " + p.advance().Literal
		}
	}
	switch {
	case p.checkWord("shared"):
		stmt.Lock = p.advance().Literal
	case p.checkWord("lock"):
		p.advance()
		stmt.Lock = p.expectWord("expected Read or Write after Lock").Literal
		if p.checkWord("write") {
			stmt.Lock += " " + p.advance().Literal
		}
	}
	p.expect(AS, "expected As in Open statement")
	p.match(HASH)
	stmt.FileNum = p.parseExpression()
	if p.checkWord("len") {
		p.advance()
		p.expect(EQ, "expected '=' after Len")
		stmt.Len = p.parseExpression()
	}
	return stmt
}

func (p *parser) parseClose() Stmt {
	stmt := &CloseStmt{pos: p.advance().Pos}
	for !p.atStatementEnd() {
		p.match(HASH)
		stmt.FileNums = append(stmt.FileNums, p.parseExpression())
		if !p.match(COMMA) {
			break
		}
	}
	return stmt
}

func (p *parser) parseFileIO(verb string, pos Position) Stmt {
	p.expect(HASH, "expected '#' file number")
	stmt := &FileIOStmt{Verb: verb, FileNum: p.parseExpression(), pos: pos}
	if p.match(COMMA) {
		stmt.Args = p.parseStatementArgs()
	}
	return stmt
}

func (p *parser) parsePreprocIf() Stmt {
	pos := p.advance().Pos
	stop := func() bool { return p.check(HASH_ELSEIF) || p.check(HASH_ELSE) || p.check(HASH_END) }
	stmt := &PreprocIfStmt{pos: pos}
	cond := p.parseExpression()
	p.expect(THEN, "expected Then after #If condition")
	p.endStatement()
	stmt.Branches = []*CondBranch{{Cond: cond, Body: p.parseBlock(stop, "#End If"), Pos: pos}}
	for p.check(HASH_ELSEIF) {
		branchPos := p.advance().Pos
		cond := p.parseExpression()
		p.expect(THEN, "expected Then after #ElseIf condition")
		p.endStatement()
		stmt.Branches = append(stmt.Branches, &CondBranch{Cond: cond, Body: p.parseBlock(stop, "#End If"), Pos: branchPos})
	}
	if p.match(HASH_ELSE) {
		p.endStatement()
		stmt.Else = p.parseBlock(func() bool { return p.check(HASH_END) }, "#End If")
	}
	p.expect(HASH_END, "expected #End If")
	p.expect(IF, "expected If after #End")
	return stmt
}

// parseAssignOrCall handles the statement-level ambiguity: a target followed
// by '=' is an assignment, anything else is a call whose remaining tokens on
// the line are its arguments.
func (p *parser) parseAssignOrCall() Stmt {
	pos := p.peek().Pos
	target := p.parseStatementTarget(true)
	if p.match(EQ) {
		return &AssignStmt{Target: target, Value: p.parseExpression(), pos: pos}
	}
	if call, ok := target.(*CallExpr); ok {
		if p.atStatementEnd() {
			return &CallStmt{Callee: call.Callee, Args: call.Args, pos: pos}
		}
		// Foo (a), b: the parenthesised first argument was taken for a call.
		if len(call.Args) == 1 && call.Args[0].Value != nil && p.match(COMMA) {
			first := &Arg{Value: &ParenExpr{Expr: call.Args[0].Value, pos: call.Args[0].Pos}, Pos: call.Args[0].Pos}
			rest := p.parseStatementArgs()
			return &CallStmt{Callee: call.Callee, Args: append([]*Arg{first}, rest...), pos: pos}
		}
	}
	return &CallStmt{Callee: target, Args: p.parseStatementArgs(), pos: pos}
}

// parseStatementArgs reads unparenthesised arguments up to the end of the
// statement. Both ',' and ';' (Print) separate arguments.
func (p *parser) parseStatementArgs() []*Arg {
	args := []*Arg{}
	if p.atStatementEnd() {
		return args
	}
	for {
		if p.check(COMMA) || p.check(SEMICOLON) || p.atStatementEnd() {
			args = append(args, &Arg{Pos: p.peek().Pos})
		} else {
			args = append(args, p.parseArg())
		}
		if !p.match(COMMA, SEMICOLON) {
			return args
		}
	}
}

func (p *parser) parseIdent() *Ident {
	tok := p.peek()
	switch tok.Type {
	case IDENT, TYPED_IDENT, FOREIGN_IDENT:
		p.advance()
		return identFromToken(tok)
	}
	p.failAtCurrent(fmt.Sprintf("expected identifier, found %s", p.describe(tok)))
	return nil
}

func identFromToken(tok Token) *Ident {
	switch tok.Type {
	case TYPED_IDENT:
		suffix, size := utf8.DecodeLastRuneInString(tok.Literal)
		return &Ident{Name: tok.Literal[:len(tok.Literal)-size], Suffix: suffix, pos: tok.Pos}
	case FOREIGN_IDENT:
		return &Ident{Name: tok.Literal, Foreign: true, pos: tok.Pos}
	}
	return &Ident{Name: tok.Literal, pos: tok.Pos}
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) previous() Token {
	if p.pos == 0 {
		return Token{}
	}
	return p.tokens[p.pos-1]
}

func (p *parser) advance() Token {
	if !p.isAtEnd() {
		p.pos++
		return p.previous()
	}
	return p.peek()
}

func (p *parser) check(t TokenType) bool {
	return p.peek().Type == t
}

// checkWord matches a contextual (non-reserved) word case-insensitively.
func (p *parser) checkWord(word string) bool {
	tok := p.peek()
	return tok.Type == IDENT && strings.EqualFold(tok.Literal, word)
}

func (p *parser) checkEnd(closing TokenType) bool {
	return p.check(END) && p.peekAt(1).Type == closing
}

func (p *parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(t TokenType, msg string) Token {
	if p.check(t) {
		return p.advance()
	}
	p.failAtCurrent(msg)
	return Token{}
}

func (p *parser) expectEnd(closing TokenType, name string) {
	if !p.checkEnd(closing) {
		p.failAtCurrent("expected " + name)
	}
	p.advance()
	p.advance()
}

// expectWord accepts an identifier or any keyword, returning its token.
func (p *parser) expectWord(msg string) Token {
	tok := p.peek()
	if tok.Type == IDENT || tok.Type == TYPED_IDENT || tok.Type == FOREIGN_IDENT || tok.Type.IsKeyword() {
		return p.advance()
	}
	p.failAtCurrent(msg)
	return Token{}
}

func (p *parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

func (p *parser) describe(tok Token) string {
	switch {
	case tok.Type == IDENT || tok.Type == TYPED_IDENT || tok.Type == NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case tok.Type.IsKeyword():
		return fmt.Sprintf("'%s'", strings.ToLower(tok.Literal))
	}
	return tok.Type.String()
}

func (p *parser) lineText(line int) string {
	if line < 1 || line > len(p.lines) {
		return ""
	}
	return strings.TrimRight(p.lines[line-1], "\r")
}

func (p *parser) fail(pos Position, msg string) {
	p.err = &SyntaxError{Pos: pos, Message: msg, LineText: strings.TrimSpace(p.lineText(pos.Line))}
	panic(bailout{})
}

func (p *parser) failAtCurrent(msg string) {
	p.fail(p.peek().Pos, msg)
}

func illegalMessage(lit string) string {
	switch {
	case strings.HasPrefix(lit, `"`):
		return "unterminated string literal"
	case strings.HasPrefix(lit, "[") && len(lit) > 1:
		return "unterminated bracketed identifier"
	case strings.HasPrefix(lit, "#") && len(lit) > 1:
		return fmt.Sprintf("unknown preprocessor directive %s", lit)
	}
	return fmt.Sprintf("unexpected character %q", lit)
}
