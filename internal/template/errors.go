package template

import (
	"errors"
	"fmt"

	"github.com/loomkit/weft/internal/markup"
)

// SyntaxError reports a malformed template: bad directive syntax, a bad
// embedded expression, or unbalanced directive markup.
type SyntaxError struct {
	Msg string
	Pos markup.Position
}

func (e *SyntaxError) Error() string {
	return posMessage(e.Msg, e.Pos)
}

func syntaxErrorf(pos markup.Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// BadDirectiveError reports an unknown directive name in the directive
// namespace. Misspelled directives fail at parse time rather than being
// silently passed through to output.
type BadDirectiveError struct {
	SyntaxError

	// Name is the unrecognized directive name.
	Name string
}

func badDirectiveError(name string, pos markup.Position) *BadDirectiveError {
	return &BadDirectiveError{
		SyntaxError: SyntaxError{Msg: fmt.Sprintf("bad directive %q", name), Pos: pos},
		Name:        name,
	}
}

// RuntimeError reports a failure while rendering: an expression that
// could not be evaluated, a non-iterable loop subject, or a directive
// used outside its required enclosing directive.
type RuntimeError struct {
	Msg string
	Pos markup.Position

	// Err is the underlying cause, if any.
	Err error
}

func (e *RuntimeError) Error() string {
	return posMessage(e.Msg, e.Pos)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func runtimeErrorf(pos markup.Position, format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// wrapRuntime attaches a position to an evaluation error, leaving
// errors that already carry one untouched.
func wrapRuntime(err error, pos markup.Position) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return &RuntimeError{Msg: err.Error(), Pos: pos, Err: err}
}

func posMessage(msg string, pos markup.Position) string {
	file := pos.File
	if file == "" {
		file = "<string>"
	}
	if pos.Known() {
		return fmt.Sprintf("%s (%s, line %d)", msg, file, pos.Line)
	}
	return fmt.Sprintf("%s (%s)", msg, file)
}
