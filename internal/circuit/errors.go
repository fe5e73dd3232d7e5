package circuit

import "fmt"

// SyntaxError reports a malformed statement: wrong token count, unknown
// keyword, or a non-integer literal. Line numbers are 1-based.
type SyntaxError struct {
	Line   int
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Detail)
}

// DuplicateVariableError reports a second declaration of an identifier that
// already has an index.
type DuplicateVariableError struct {
	Name string
	Line int
}

func (e *DuplicateVariableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("duplicate variable %q at line %d", e.Name, e.Line)
	}
	return fmt.Sprintf("duplicate variable %q", e.Name)
}

// UndefinedVariableError reports a reference to an identifier that was never
// declared as an input, constant, or prior operation result.
type UndefinedVariableError struct {
	Name string
	Line int
}

func (e *UndefinedVariableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("undefined variable %q at line %d", e.Name, e.Line)
	}
	return fmt.Sprintf("undefined variable %q", e.Name)
}
