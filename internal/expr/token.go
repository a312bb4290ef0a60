package expr

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenOperator
	tokenLeftParen
	tokenRightParen
	tokenLeftBracket
	tokenRightBracket
	tokenComma
	tokenSemicolon
	tokenDot
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

var twoCharOperators = []string{"==", "!=", "<=", ">=", "&&", "||"}

const oneCharOperators = "=<>+-*/%!"

func lex(source string) ([]token, error) {
	var tokens []token
	pos := 0
	for pos < len(source) {
		c := source[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++

		case isIdentStart(c):
			start := pos
			for pos < len(source) && isIdentPart(source[pos]) {
				pos++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: source[start:pos], offset: start})

		case c >= '0' && c <= '9':
			start := pos
			for pos < len(source) && source[pos] >= '0' && source[pos] <= '9' {
				pos++
			}
			if pos+1 < len(source) && source[pos] == '.' && source[pos+1] >= '0' && source[pos+1] <= '9' {
				pos++
				for pos < len(source) && source[pos] >= '0' && source[pos] <= '9' {
					pos++
				}
			}
			tokens = append(tokens, token{kind: tokenNumber, text: source[start:pos], offset: start})

		case c == '"' || c == '\'':
			text, next, err := lexString(source, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, text: text, offset: pos})
			pos = next

		case c == '(':
			tokens = append(tokens, token{kind: tokenLeftParen, text: "(", offset: pos})
			pos++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRightParen, text: ")", offset: pos})
			pos++
		case c == '[':
			tokens = append(tokens, token{kind: tokenLeftBracket, text: "[", offset: pos})
			pos++
		case c == ']':
			tokens = append(tokens, token{kind: tokenRightBracket, text: "]", offset: pos})
			pos++
		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", offset: pos})
			pos++
		case c == ';':
			tokens = append(tokens, token{kind: tokenSemicolon, text: ";", offset: pos})
			pos++

		case c == '.':
			// A leading-dot decimal like .5 is a number; anything else
			// is field access.
			if pos+1 < len(source) && source[pos+1] >= '0' && source[pos+1] <= '9' {
				start := pos
				pos++
				for pos < len(source) && source[pos] >= '0' && source[pos] <= '9' {
					pos++
				}
				tokens = append(tokens, token{kind: tokenNumber, text: "0" + source[start:pos], offset: start})
				continue
			}
			tokens = append(tokens, token{kind: tokenDot, text: ".", offset: pos})
			pos++

		default:
			if pos+1 < len(source) {
				two := source[pos : pos+2]
				found := false
				for _, op := range twoCharOperators {
					if two == op {
						tokens = append(tokens, token{kind: tokenOperator, text: two, offset: pos})
						pos += 2
						found = true
						break
					}
				}
				if found {
					continue
				}
			}
			if strings.IndexByte(oneCharOperators, c) >= 0 {
				tokens = append(tokens, token{kind: tokenOperator, text: string(c), offset: pos})
				pos++
				continue
			}
			return nil, syntaxErrorf(source, pos, "unexpected character %q", c)
		}
	}
	return append(tokens, token{kind: tokenEOF, offset: len(source)}), nil
}

func lexString(source string, pos int) (string, int, error) {
	quote := source[pos]
	var sb strings.Builder
	i := pos + 1
	for i < len(source) {
		c := source[i]
		switch c {
		case quote:
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(source) {
				return "", 0, syntaxErrorf(source, i, "trailing backslash in string literal")
			}
			i++
			switch source[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(source[i])
			}
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", 0, syntaxErrorf(source, pos, "unterminated string literal")
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
