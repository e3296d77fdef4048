package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input  string
	offset int // byte offset of the rune after ch
	line   int
	col    int
	ch     rune

	// lineStart is true until the first token of a physical line is produced.
	lineStart bool
	// spaced records blanks (but no line continuation) before the next token.
	spaced bool
}

func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:     input,
		line:      1,
		col:       0,
		lineStart: true,
	}
	l.read()
	return l
}

func (l *Lexer) read() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.offset >= len(l.input) {
		l.ch = 0
		l.col++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.ch = r
	l.offset += w
	l.col++
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n runes after ch without consuming anything.
func (l *Lexer) peekAt(n int) rune {
	off := l.offset
	for {
		if off >= len(l.input) {
			return 0
		}
		r, w := utf8.DecodeRuneInString(l.input[off:])
		if n == 0 {
			return r
		}
		off += w
		n--
	}
}

// Tokenize runs the lexer to completion. The returned slice always ends in EOF.
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	tokens := make([]Token, 0, 256)
	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	pos := Position{Line: l.line, Column: l.col}
	tok := l.scan(pos)
	tok.Spaced = l.spaced
	l.lineStart = tok.Type == NEWLINE
	return tok
}

func (l *Lexer) scan(pos Position) Token {
	single := func(tt TokenType) Token {
		tok := Token{Type: tt, Literal: string(l.ch), Pos: pos}
		l.read()
		return tok
	}

	switch l.ch {
	case 0:
		return Token{Type: EOF, Pos: pos}
	case '\n':
		return single(NEWLINE)
	case '\'':
		l.read()
		return Token{Type: COMMENT, Literal: l.readToEOL(), Pos: pos}
	case '"':
		lit, ok := l.readString()
		if !ok {
			return Token{Type: ILLEGAL, Literal: `"` + lit, Pos: pos}
		}
		return Token{Type: STRING, Literal: lit, Pos: pos}
	case '[':
		lit, ok := l.readForeign()
		if !ok {
			return Token{Type: ILLEGAL, Literal: "[" + lit, Pos: pos}
		}
		return Token{Type: FOREIGN_IDENT, Literal: lit, Pos: pos}
	case '(':
		return single(LPAREN)
	case ')':
		return single(RPAREN)
	case ',':
		return single(COMMA)
	case ';':
		return single(SEMICOLON)
	case '+':
		return single(PLUS)
	case '-':
		return single(MINUS)
	case '*':
		return single(STAR)
	case '/':
		return single(SLASH)
	case '\\':
		return single(BACKSLASH)
	case '^':
		return single(CARET)
	case '=':
		return single(EQ)
	case '.':
		if isDigit(l.peek()) {
			return Token{Type: NUMBER, Literal: l.readNumber(), Pos: pos}
		}
		return single(DOT)
	case ':':
		if l.peek() == '=' {
			l.read()
			l.read()
			return Token{Type: NAMEDARG, Literal: ":=", Pos: pos}
		}
		if l.colonEndsLine() {
			return single(LABEL_COLON)
		}
		return single(COLON)
	case '<':
		switch l.peek() {
		case '>':
			l.read()
			l.read()
			return Token{Type: NEQ, Literal: "<>", Pos: pos}
		case '=':
			l.read()
			l.read()
			return Token{Type: LTEQ, Literal: "<=", Pos: pos}
		}
		return single(LT)
	case '>':
		if l.peek() == '=' {
			l.read()
			l.read()
			return Token{Type: GTEQ, Literal: ">=", Pos: pos}
		}
		return single(GT)
	case '&':
		if p := unicode.ToLower(l.peek()); (p == 'h' || p == 'o') && isHexDigit(l.peekAt(1)) {
			return Token{Type: NUMBER, Literal: l.readRadixNumber(), Pos: pos}
		}
		return single(AMPERSAND)
	case '#':
		if l.lineStart && isLetter(l.peek()) {
			l.read()
			word := l.readIdentifier()
			if tt, ok := preprocessorWords[strings.ToLower(word)]; ok {
				return Token{Type: tt, Literal: "#" + word, Pos: pos}
			}
			return Token{Type: ILLEGAL, Literal: "#" + word, Pos: pos}
		}
		return single(HASH)
	}

	if isLetter(l.ch) {
		lit := l.readIdentifier()
		if strings.EqualFold(lit, "rem") && (l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' || l.ch == 0) {
			return Token{Type: COMMENT, Literal: strings.TrimPrefix(l.readToEOL(), " "), Pos: pos}
		}
		if isTypeSuffix(l.ch) && !isIdentChar(l.peek()) {
			lit += string(l.ch)
			l.read()
			return Token{Type: TYPED_IDENT, Literal: lit, Pos: pos}
		}
		return Token{Type: lookupIdent(lit), Literal: lit, Pos: pos}
	}
	if isDigit(l.ch) {
		return Token{Type: NUMBER, Literal: l.readNumber(), Pos: pos}
	}

	return single(ILLEGAL)
}

// skipWhitespace consumes blanks and line continuations. A continuation is an
// underscore followed by the end of the physical line; it joins the next line
// without producing a NEWLINE token.
func (l *Lexer) skipWhitespace() {
	l.spaced = false
	continued := false
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\f' || l.ch == '\v':
			l.spaced = !continued
			l.read()
		case l.ch == '_' && l.continuationAhead():
			for l.ch != '\n' {
				l.read()
			}
			l.read()
			continued = true
			l.spaced = false
		default:
			return
		}
	}
}

func (l *Lexer) continuationAhead() bool {
	for i := 0; ; i++ {
		switch l.peekAt(i) {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
}

// colonEndsLine reports whether the colon under the cursor is the last
// meaningful character on its line, which makes it a label anchor.
func (l *Lexer) colonEndsLine() bool {
	for i := 0; ; i++ {
		switch l.peekAt(i) {
		case ' ', '\t', '\r':
			continue
		case '\n', 0, '\'':
			return true
		default:
			return false
		}
	}
}

func (l *Lexer) readToEOL() string {
	var b strings.Builder
	for l.ch != '\n' && l.ch != 0 {
		b.WriteRune(l.ch)
		l.read()
	}
	return strings.TrimRight(b.String(), "\r")
}

func (l *Lexer) readIdentifier() string {
	var b strings.Builder
	for isIdentChar(l.ch) {
		b.WriteRune(l.ch)
		l.read()
	}
	return b.String()
}

func (l *Lexer) readNumber() string {
	var b strings.Builder
	for isDigit(l.ch) {
		b.WriteRune(l.ch)
		l.read()
	}
	if l.ch == '.' && isDigit(l.peek()) || l.ch == '.' && b.Len() > 0 && !isLetter(l.peek()) {
		b.WriteRune(l.ch)
		l.read()
		for isDigit(l.ch) {
			b.WriteRune(l.ch)
			l.read()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peek()) || (l.peek() == '+' || l.peek() == '-') && isDigit(l.peekAt(1))) {
		b.WriteRune(l.ch)
		l.read()
		if l.ch == '+' || l.ch == '-' {
			b.WriteRune(l.ch)
			l.read()
		}
		for isDigit(l.ch) {
			b.WriteRune(l.ch)
			l.read()
		}
	}
	if isNumberSuffix(l.ch) && !isIdentChar(l.peek()) {
		b.WriteRune(l.ch)
		l.read()
	}
	return b.String()
}

// readRadixNumber reads &H and &O literals, keeping the prefix.
func (l *Lexer) readRadixNumber() string {
	var b strings.Builder
	b.WriteRune(l.ch)
	l.read()
	b.WriteRune(l.ch)
	l.read()
	for isHexDigit(l.ch) {
		b.WriteRune(l.ch)
		l.read()
	}
	if l.ch == '&' || l.ch == '%' {
		b.WriteRune(l.ch)
		l.read()
	}
	return b.String()
}

// readString returns the decoded literal: a doubled quote stands for one quote.
func (l *Lexer) readString() (string, bool) {
	l.read()
	var b strings.Builder
	for {
		switch l.ch {
		case 0, '\n':
			return b.String(), false
		case '"':
			if l.peek() == '"' {
				b.WriteRune('"')
				l.read()
				l.read()
				continue
			}
			l.read()
			return b.String(), true
		}
		b.WriteRune(l.ch)
		l.read()
	}
}

func (l *Lexer) readForeign() (string, bool) {
	l.read()
	var b strings.Builder
	for l.ch != ']' {
		if l.ch == 0 || l.ch == '\n' {
			return b.String(), false
		}
		b.WriteRune(l.ch)
		l.read()
	}
	l.read()
	return b.String(), true
}

// UnquoteString decodes the body of a VBA string literal (without the
// surrounding quotes), turning each doubled quote into a single one.
func UnquoteString(raw string) string {
	return strings.ReplaceAll(raw, `""`, `"`)
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch)
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || isDigit(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// Type suffixes: $ String, % Integer, & Long, # Double, ! Single, @ Currency.
func isTypeSuffix(ch rune) bool {
	return strings.ContainsRune("$%&#!@", ch)
}

func isNumberSuffix(ch rune) bool {
	return strings.ContainsRune("%&#!@", ch)
}
