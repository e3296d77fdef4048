package lang

import "strings"

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF
	NEWLINE
	COMMENT

	IDENT
	TYPED_IDENT
	FOREIGN_IDENT
	NUMBER
	STRING

	LPAREN
	RPAREN
	COMMA
	SEMICOLON
	COLON
	LABEL_COLON
	DOT
	HASH
	NAMEDARG

	PLUS
	MINUS
	STAR
	SLASH
	BACKSLASH
	CARET
	AMPERSAND
	EQ
	NEQ
	LT
	LTEQ
	GT
	GTEQ

	HASH_IF
	HASH_ELSEIF
	HASH_ELSE
	HASH_END
	HASH_CONST

	keywordStart
	AND
	ANDALSO
	AS
	BYREF
	BYVAL
	CALL
	CONST
	DECLARE
	DIM
	DO
	EACH
	ELSE
	ELSEIF
	EMPTY
	END
	EQV
	EXIT
	FALSE
	FOR
	FRIEND
	FUNCTION
	GLOBAL
	GOTO
	IF
	IMP
	IN
	IS
	LET
	LIKE
	LOOP
	MOD
	NEW
	NEXT
	NOT
	NOTHING
	NULL
	ON
	OPTION
	OPTIONAL
	OR
	ORELSE
	PARAMARRAY
	PRESERVE
	PRIVATE
	PUBLIC
	REDIM
	RESUME
	SET
	STATIC
	STEP
	SUB
	THEN
	TO
	TRUE
	UNTIL
	WEND
	WHILE
	WITH
	XOR
	keywordEnd
)

type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	// Spaced is set when blanks separate the token from the previous one on
	// the same physical line. "Foo (x)" and "Foo .Bar" depend on it.
	Spaced bool
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

var keywords = map[string]TokenType{
	"and":        AND,
	"andalso":    ANDALSO,
	"as":         AS,
	"byref":      BYREF,
	"byval":      BYVAL,
	"call":       CALL,
	"const":      CONST,
	"declare":    DECLARE,
	"dim":        DIM,
	"do":         DO,
	"each":       EACH,
	"else":       ELSE,
	"elseif":     ELSEIF,
	"empty":      EMPTY,
	"end":        END,
	"eqv":        EQV,
	"exit":       EXIT,
	"false":      FALSE,
	"for":        FOR,
	"friend":     FRIEND,
	"function":   FUNCTION,
	"global":     GLOBAL,
	"goto":       GOTO,
	"if":         IF,
	"imp":        IMP,
	"in":         IN,
	"is":         IS,
	"let":        LET,
	"like":       LIKE,
	"loop":       LOOP,
	"mod":        MOD,
	"new":        NEW,
	"next":       NEXT,
	"not":        NOT,
	"nothing":    NOTHING,
	"null":       NULL,
	"on":         ON,
	"option":     OPTION,
	"optional":   OPTIONAL,
	"or":         OR,
	"orelse":     ORELSE,
	"paramarray": PARAMARRAY,
	"preserve":   PRESERVE,
	"private":    PRIVATE,
	"public":     PUBLIC,
	"redim":      REDIM,
	"resume":     RESUME,
	"set":        SET,
	"static":     STATIC,
	"step":       STEP,
	"sub":        SUB,
	"then":       THEN,
	"to":         TO,
	"true":       TRUE,
	"until":      UNTIL,
	"wend":       WEND,
	"while":      WHILE,
	"with":       WITH,
	"xor":        XOR,
}

var preprocessorWords = map[string]TokenType{
	"if":     HASH_IF,
	"elseif": HASH_ELSEIF,
	"else":   HASH_ELSE,
	"end":    HASH_END,
	"const":  HASH_CONST,
}

// Keywords are matched case-insensitively.
func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

var tokenNames = map[TokenType]string{
	ILLEGAL:       "illegal character",
	EOF:           "end of file",
	NEWLINE:       "end of line",
	COMMENT:       "comment",
	IDENT:         "identifier",
	TYPED_IDENT:   "identifier",
	FOREIGN_IDENT: "identifier",
	NUMBER:        "number",
	STRING:        "string",
	LPAREN:        "'('",
	RPAREN:        "')'",
	COMMA:         "','",
	SEMICOLON:     "';'",
	COLON:         "':'",
	LABEL_COLON:   "':'",
	DOT:           "'.'",
	HASH:          "'#'",
	NAMEDARG:      "':='",
	PLUS:          "'+'",
	MINUS:         "'-'",
	STAR:          "'*'",
	SLASH:         "'/'",
	BACKSLASH:     "'\\'",
	CARET:         "'^'",
	AMPERSAND:     "'&'",
	EQ:            "'='",
	NEQ:           "'<>'",
	LT:            "'<'",
	LTEQ:          "'<='",
	GT:            "'>'",
	GTEQ:          "'>='",
	HASH_IF:       "#If",
	HASH_ELSEIF:   "#ElseIf",
	HASH_ELSE:     "#Else",
	HASH_END:      "#End",
	HASH_CONST:    "#Const",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	if t.IsKeyword() {
		for word, tok := range keywords {
			if tok == t {
				return "'" + word + "'"
			}
		}
	}
	return "token"
}
