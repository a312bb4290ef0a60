package template

import (
	"strings"

	"github.com/loomkit/weft/internal/expr"
	"github.com/loomkit/weft/internal/markup"
)

// interpolate splits text into literal runs and embedded expressions.
// Expressions are written `${expr}` or with the `$name` shorthand for
// dotted identifier chains; `$$` escapes a literal dollar sign.
func interpolate(text string, pos markup.Position) ([]part, error) {
	var parts []part
	var lit strings.Builder
	line := pos.Line
	litPos := pos

	at := func() markup.Position {
		p := pos
		p.Line = line
		return p
	}
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, part{text: lit.String(), pos: litPos})
			lit.Reset()
		}
		litPos = at()
	}

	i := 0
	for i < len(text) {
		c := text[i]
		if c != '$' {
			if c == '\n' && line >= 0 {
				line++
			}
			lit.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(text) {
			lit.WriteByte('$')
			i++
			continue
		}
		switch next := text[i+1]; {
		case next == '$':
			lit.WriteByte('$')
			i += 2

		case next == '{':
			exprPos := at()
			end, ok := matchingBrace(text, i+2)
			if !ok {
				return nil, syntaxErrorf(exprPos, "unterminated expression %q", text[i:])
			}
			src := text[i+2 : end]
			e, err := expr.Parse(src)
			if err != nil {
				return nil, syntaxErrorf(exprPos, "invalid expression %q: %v", src, bareMessage(err))
			}
			flush()
			parts = append(parts, part{expr: e, pos: exprPos})
			if line >= 0 {
				line += strings.Count(src, "\n")
			}
			i = end + 1

		case nameStart(next):
			exprPos := at()
			j := i + 1
			j = scanName(text, j)
			for j < len(text) && text[j] == '.' && j+1 < len(text) && nameStart(text[j+1]) {
				j = scanName(text, j+1)
			}
			src := text[i+1 : j]
			e, err := expr.Parse(src)
			if err != nil {
				return nil, syntaxErrorf(exprPos, "invalid expression %q: %v", src, bareMessage(err))
			}
			flush()
			parts = append(parts, part{expr: e, pos: exprPos})
			i = j

		default:
			lit.WriteByte('$')
			i++
		}
	}
	flush()
	return parts, nil
}

// matchingBrace returns the index of the brace closing the expression
// that starts at i, skipping braces inside string literals.
func matchingBrace(text string, i int) (int, bool) {
	depth := 1
	var quote byte
	for ; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func nameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func namePart(c byte) bool {
	return nameStart(c) || (c >= '0' && c <= '9')
}

func scanName(text string, i int) int {
	for i < len(text) && namePart(text[i]) {
		i++
	}
	return i
}

// bareMessage strips the location suffix other error types append, so
// nested errors read cleanly inside a template syntax error.
func bareMessage(err error) string {
	if se, ok := err.(*expr.SyntaxError); ok {
		return se.Msg
	}
	return err.Error()
}
