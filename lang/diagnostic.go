package lang

import "fmt"

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	CodeSyntax         Code = "SYNTAX"
	CodeUnsupported    Code = "UNSUPPORTED"
	CodeStatementFault Code = "STATEMENT_FAULT"
	CodeContract       Code = "CONTRACT_VIOLATION"
)

// Diagnostic captures a parser or translator issue tied to a source position.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      Position
}

func (d Diagnostic) String() string {
	if d.Pos.Line > 0 {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// SyntaxError reports input that does not conform to the grammar. It is
// fatal to the file being parsed.
type SyntaxError struct {
	Pos      Position
	Message  string
	LineText string
}

func (e *SyntaxError) Error() string {
	if e.LineText == "" {
		return fmt.Sprintf("line %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("line %d:%d: %s: %s", e.Pos.Line, e.Pos.Column, e.Message, e.LineText)
}

// Diagnostic converts the error into the terminal diagnostic of a file.
func (e *SyntaxError) Diagnostic() Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     CodeSyntax,
		Message:  e.Message,
		Pos:      e.Pos,
	}
}
