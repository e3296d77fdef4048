package lang

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

type lexed struct {
	Type    TokenType
	Literal string
}

func lexAll(input string) []lexed {
	var out []lexed
	for _, tok := range Tokenize(input) {
		out = append(out, lexed{tok.Type, tok.Literal})
	}
	return out
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []lexed
	}{
		{
			name:  "declaration",
			input: "Dim x As Long",
			want:  []lexed{{DIM, "Dim"}, {IDENT, "x"}, {AS, "As"}, {IDENT, "Long"}, {EOF, ""}},
		},
		{
			name:  "keywords are case-insensitive",
			input: "dIM x aS long",
			want:  []lexed{{DIM, "dIM"}, {IDENT, "x"}, {AS, "aS"}, {IDENT, "long"}, {EOF, ""}},
		},
		{
			name:  "typed identifier and doubled quote",
			input: `s$ = "a""b"`,
			want:  []lexed{{TYPED_IDENT, "s$"}, {EQ, "="}, {STRING, `a"b`}, {EOF, ""}},
		},
		{
			name:  "line continuation joins lines",
			input: "x = 1 + _\n    2",
			want:  []lexed{{IDENT, "x"}, {EQ, "="}, {NUMBER, "1"}, {PLUS, "+"}, {NUMBER, "2"}, {EOF, ""}},
		},
		{
			name:  "label colon versus separator",
			input: "ErrH:\nx = 1 : y = 2",
			want: []lexed{
				{IDENT, "ErrH"}, {LABEL_COLON, ":"}, {NEWLINE, "\n"},
				{IDENT, "x"}, {EQ, "="}, {NUMBER, "1"}, {COLON, ":"},
				{IDENT, "y"}, {EQ, "="}, {NUMBER, "2"}, {EOF, ""},
			},
		},
		{
			name:  "comments",
			input: "' note\nRem other",
			want:  []lexed{{COMMENT, " note"}, {NEWLINE, "\n"}, {COMMENT, "other"}, {EOF, ""}},
		},
		{
			name:  "foreign identifier and hex literal",
			input: "[Select] = &HFF",
			want:  []lexed{{FOREIGN_IDENT, "Select"}, {EQ, "="}, {NUMBER, "&HFF"}, {EOF, ""}},
		},
		{
			name:  "preprocessor directive",
			input: "#If VBA7 Then",
			want:  []lexed{{HASH_IF, "#If"}, {IDENT, "VBA7"}, {THEN, "Then"}, {EOF, ""}},
		},
		{
			name:  "named argument",
			input: "Foo a:=1",
			want:  []lexed{{IDENT, "Foo"}, {IDENT, "a"}, {NAMEDARG, ":="}, {NUMBER, "1"}, {EOF, ""}},
		},
		{
			name:  "comparison and suffixed number",
			input: "x <> 2.5#",
			want:  []lexed{{IDENT, "x"}, {NEQ, "<>"}, {NUMBER, "2.5#"}, {EOF, ""}},
		},
		{
			name:  "exponent is not a suffix",
			input: "y = 2^3",
			want:  []lexed{{IDENT, "y"}, {EQ, "="}, {NUMBER, "2"}, {CARET, "^"}, {NUMBER, "3"}, {EOF, ""}},
		},
		{
			name:  "file number hash",
			input: "Print #1, s",
			want:  []lexed{{IDENT, "Print"}, {HASH, "#"}, {NUMBER, "1"}, {COMMA, ","}, {IDENT, "s"}, {EOF, ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, lexAll(tt.input)); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexerIllegal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`x = "abc`, `"abc`},
		{"[Oops", "[Oops"},
		{"#Pragma x", "#Pragma"},
		{"x = $", "$"},
	}
	for _, tt := range tests {
		var got []string
		for _, tok := range Tokenize(tt.input) {
			if tok.Type == ILLEGAL {
				got = append(got, tok.Literal)
			}
		}
		assert.Equal(t, []string{tt.want}, got, "input %q", tt.input)
	}
}

func TestLexerPositions(t *testing.T) {
	toks := Tokenize("x = 1\n  y")
	last := toks[len(toks)-2]
	assert.Equal(t, IDENT, last.Type)
	assert.Equal(t, Position{Line: 2, Column: 3}, last.Pos)
	assert.Equal(t, Position{Line: 1, Column: 5}, toks[2].Pos)
}

func TestLexerSpacing(t *testing.T) {
	toks := Tokenize("Foo (1)")
	assert.False(t, toks[0].Spaced)
	assert.True(t, toks[1].Spaced, "blank before '('")
	assert.False(t, toks[2].Spaced)

	toks = Tokenize("obj _\n    .Value")
	assert.Equal(t, DOT, toks[1].Type)
	assert.False(t, toks[1].Spaced, "continuation is not a blank")
}

func TestUnquoteString(t *testing.T) {
	assert.Equal(t, `a"b`, UnquoteString(`a""b`))
	assert.Equal(t, `plain`, UnquoteString(`plain`))
}

func TestStripHeader(t *testing.T) {
	src := "Attribute VB_Name = \"Module1\"\nDim x\n"
	assert.Equal(t, "Dim x\n", StripHeader(src, 1))
	assert.Equal(t, src, StripHeader(src, 0))
	assert.Equal(t, "", StripHeader("only one line", 1))
	assert.Equal(t, "Dim x\n", StripHeader("\ufeffheader\nDim x\n", 1))
}
