package translator

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var pyKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// pyName makes a VBA name usable as a Python identifier.
func pyName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if pyKeywords[out] {
		return out + "_"
	}
	return out
}

// pyTypeName renders a possibly dotted class name.
func pyTypeName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pyName(p)
	}
	return strings.Join(parts, ".")
}

// pyString quotes s as a double-quoted Python string literal.
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\x`)
				b.WriteString(strconv.FormatInt(int64(r)&0xff|0x100, 16)[1:])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// pyNumber converts a VBA numeric literal: type suffixes are dropped, &H and
// &O prefixes become 0x and 0o, and floating suffixes keep a fractional part.
func pyNumber(lit string) string {
	lower := strings.ToLower(lit)
	switch {
	case strings.HasPrefix(lower, "&h"):
		return "0x" + strings.TrimRight(lit[2:], "&%")
	case strings.HasPrefix(lower, "&o"):
		return "0o" + strings.TrimRight(lit[2:], "&%")
	}
	floating := false
	if last, _ := utf8.DecodeLastRuneInString(lit); strings.ContainsRune("%&#!@", last) {
		floating = strings.ContainsRune("#!@", last)
		lit = lit[:len(lit)-1]
	}
	isFloat := strings.ContainsAny(lit, ".eE")
	if strings.HasSuffix(lit, ".") {
		lit += "0"
	}
	if strings.HasPrefix(lit, ".") {
		lit = "0" + lit
	}
	if !isFloat {
		lit = strings.TrimLeft(lit, "0")
		if lit == "" {
			lit = "0"
		}
		if floating {
			lit += ".0"
		}
	}
	return lit
}

// intLiteral returns the value of an integer literal, if the text is one.
func intLiteral(lit string) (int64, bool) {
	lit = strings.TrimRight(lit, "%&")
	v, err := strconv.ParseInt(lit, 10, 64)
	return v, err == nil
}
