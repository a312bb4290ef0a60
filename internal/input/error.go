package input

import "fmt"

// ParseError reports malformed input, with the source location when the
// decoder could determine one.
type ParseError struct {
	Msg  string
	File string
	Line int
}

func (e *ParseError) Error() string {
	file := e.File
	if file == "" {
		file = "<string>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s (%s, line %d)", e.Msg, file, e.Line)
	}
	return fmt.Sprintf("%s (%s)", e.Msg, file)
}
