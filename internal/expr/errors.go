package expr

import "fmt"

// SyntaxError is returned when an expression cannot be tokenized or
// parsed. Offset is the byte position within the source text.
type SyntaxError struct {
	Msg    string
	Source string
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s in expression %q", e.Msg, e.Source)
}

func syntaxErrorf(source string, offset int, format string, args ...any) error {
	return &SyntaxError{
		Msg:    fmt.Sprintf(format, args...),
		Source: source,
		Offset: offset,
	}
}

// UndefinedError is returned when an expression references a name the
// scope cannot resolve. Callers distinguish it with errors.As.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%q not defined", e.Name)
}
