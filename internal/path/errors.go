package path

import "fmt"

// SyntaxError is raised when a path expression is syntactically
// malformed. It carries the source location of the expression so
// template-level errors can point at the offending attribute.
type SyntaxError struct {
	// Msg is the bare error description.
	Msg string

	// File is the name of the file the expression was found in, if any.
	File string

	// Line is the line the expression was found on, or -1.
	Line int

	// Offset is the token offset within the expression, or -1.
	Offset int
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s (%s, line %d)", e.Msg, e.File, e.Line)
	}
	return e.Msg
}

func syntaxErrorf(file string, line, offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Msg:    fmt.Sprintf(format, args...),
		File:   file,
		Line:   line,
		Offset: offset,
	}
}
