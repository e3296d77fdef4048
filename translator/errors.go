package translator

import (
	"fmt"

	"vba2py/lang"
)

// ContractViolation reports a state the generator must never reach for a
// well-formed module, such as a mismatched error-handler label. It aborts
// the translation of the current file.
type ContractViolation struct {
	Pos     lang.Position
	Message string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("line %d: contract violation: %s", e.Pos.Line, e.Message)
}

// Diagnostic converts the violation into the terminal diagnostic of a file.
func (e *ContractViolation) Diagnostic() lang.Diagnostic {
	return lang.Diagnostic{
		Severity: lang.SeverityError,
		Code:     lang.CodeContract,
		Message:  e.Message,
		Pos:      e.Pos,
	}
}

// UnsupportedError marks a recognised construct that has no translation.
// The statement holding it is replaced by a raising marker.
type UnsupportedError struct {
	Pos       lang.Position
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("line %d: unsupported %s", e.Pos.Line, e.Construct)
}

// abort carries an error out of a nested generation call up to the nearest
// statement boundary.
type abort struct {
	err error
}

func (t *translator) violate(pos lang.Position, format string, args ...any) {
	panic(abort{&ContractViolation{Pos: pos, Message: fmt.Sprintf(format, args...)}})
}

func (t *translator) unsupported(pos lang.Position, construct string) {
	panic(abort{&UnsupportedError{Pos: pos, Construct: construct}})
}

func (t *translator) faultf(format string, args ...any) {
	panic(abort{fmt.Errorf(format, args...)})
}
