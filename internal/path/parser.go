package path

import (
	"strconv"
	"strings"
	"unicode"
)

// parser tokenizes and parses a path expression. The cursor always
// sits on the next unconsumed token; an empty cur() means the end of
// the expression.
type parser struct {
	source   string
	file     string
	line     int
	tokens   []string
	pos      int
	usesVars bool
}

func newParser(source, file string, line int) *parser {
	return &parser{source: source, file: file, line: line}
}

func (p *parser) errorf(format string, args ...any) error {
	return syntaxErrorf(p.file, p.line, -1, format, args...)
}

func (p *parser) cur() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) peek() string {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return ""
}

func (p *parser) advance() {
	p.pos++
}

// parse returns one step sequence per union alternative; expressions
// without | produce exactly one.
func (p *parser) parse() ([][]step, error) {
	tokens, err := tokenize(p.source, p.file, p.line)
	if err != nil {
		return nil, err
	}
	p.tokens = tokens

	steps, err := p.locationPath()
	if err != nil {
		return nil, err
	}
	paths := [][]step{steps}
	for p.cur() == "|" {
		p.advance()
		steps, err := p.locationPath()
		if err != nil {
			return nil, err
		}
		paths = append(paths, steps)
	}
	if p.cur() != "" {
		return nil, p.errorf("unexpected token %q after end of expression", p.cur())
	}
	return paths, nil
}

func (p *parser) locationPath() ([]step, error) {
	var steps []step
	for {
		if strings.HasPrefix(p.cur(), "/") {
			if len(steps) == 0 {
				if p.cur() != "//" {
					return nil, p.errorf("absolute location paths not supported")
				}
				// A leading // matches at any depth, the root included.
				p.advance()
				s, err := p.locationStep()
				if err != nil {
					return nil, err
				}
				steps = append(steps, step{axis: AxisDescendantOrSelf, test: s.test, predicates: s.predicates})
				if !strings.HasPrefix(p.cur(), "/") {
					break
				}
				continue
			}
			if p.cur() == "//" {
				steps = append(steps, step{axis: AxisDescendantOrSelf, test: anyNodeTest{}})
			}
			p.advance()
		}

		s, err := p.locationStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
		if !strings.HasPrefix(p.cur(), "/") {
			break
		}
	}
	return steps, nil
}

func (p *parser) locationStep() (step, error) {
	axis := AxisChild
	switch {
	case p.cur() == "@":
		axis = AxisAttribute
		p.advance()
	case p.cur() == ".":
		axis = AxisSelf
	case p.cur() == "..":
		return step{}, p.errorf(`unsupported axis "parent"`)
	case p.peek() == "::":
		a, ok := axisForName(p.cur())
		if !ok {
			return step{}, p.errorf("unsupported axis %q", p.cur())
		}
		axis = a
		p.advance()
		p.advance()
	}

	test, err := p.nodeTest(axis)
	if err != nil {
		return step{}, err
	}
	var predicates []guard
	for p.cur() == "[" {
		predicate, err := p.predicate()
		if err != nil {
			return step{}, err
		}
		predicates = append(predicates, predicate)
	}
	return step{axis: axis, test: test, predicates: predicates}, nil
}

func (p *parser) nodeTest(axis Axis) (nodeTest, error) {
	attr := axis == AxisAttribute
	switch {
	case p.peek() == "(" || p.peek() == "()":
		return p.nodeType()

	case p.peek() == ":":
		prefix := p.cur()
		p.advance()
		p.advance()
		local := p.cur()
		if local == "" {
			return nil, p.errorf("expected local name after %q", prefix+":")
		}
		p.advance()
		if local == "*" {
			return qualifiedPrincipalTypeTest{attr: attr, prefix: prefix}, nil
		}
		return qualifiedNameTest{attr: attr, prefix: prefix, name: local}, nil

	default:
		token := p.cur()
		if token == "" {
			return nil, p.errorf("expected a node test at end of expression")
		}
		p.advance()
		switch token {
		case "*":
			return principalTypeTest{attr: attr}, nil
		case ".":
			return anyNodeTest{}, nil
		default:
			return localNameTest{attr: attr, name: token}, nil
		}
	}
}

func (p *parser) nodeType() (nodeTest, error) {
	name := p.cur()
	p.advance()

	var args []string
	if p.cur() == "()" {
		p.advance()
	} else {
		p.advance() // (
		if p.cur() != ")" {
			// Only processing-instruction() takes an argument, and
			// only a literal string.
			args = append(args, unquote(p.cur()))
			p.advance()
		}
		if p.cur() != ")" {
			return nil, p.errorf(`expected ")" after %s() argument, but found %q`, name, p.cur())
		}
		p.advance()
	}

	switch name {
	case "comment":
		return commentNodeTest{}, nil
	case "node":
		return anyNodeTest{}, nil
	case "processing-instruction":
		t := piNodeTest{}
		if len(args) > 0 {
			t.target = args[0]
		}
		return t, nil
	case "text":
		return textNodeTest{}, nil
	default:
		return nil, p.errorf("%s() not allowed here", name)
	}
}

func (p *parser) predicate() (guard, error) {
	p.advance() // [
	expr, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if p.cur() != "]" {
		return nil, p.errorf(`expected "]" to close predicate, but found %q`, p.cur())
	}
	p.advance()
	return expr, nil
}

func (p *parser) orExpr() (guard, error) {
	expr, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.cur() == "or" {
		p.advance()
		rval, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		expr = orOperator{expr, rval}
	}
	return expr, nil
}

func (p *parser) andExpr() (guard, error) {
	expr, err := p.equalityExpr()
	if err != nil {
		return nil, err
	}
	for p.cur() == "and" {
		p.advance()
		rval, err := p.equalityExpr()
		if err != nil {
			return nil, err
		}
		expr = andOperator{expr, rval}
	}
	return expr, nil
}

func (p *parser) equalityExpr() (guard, error) {
	expr, err := p.relationalExpr()
	if err != nil {
		return nil, err
	}
	for p.cur() == "=" || p.cur() == "!=" {
		op := p.cur()
		p.advance()
		rval, err := p.relationalExpr()
		if err != nil {
			return nil, err
		}
		if op == "=" {
			expr = equalsOperator{expr, rval}
		} else {
			expr = notEqualsOperator{expr, rval}
		}
	}
	return expr, nil
}

func (p *parser) relationalExpr() (guard, error) {
	expr, err := p.subExpr()
	if err != nil {
		return nil, err
	}
	for {
		op := p.cur()
		if op != ">" && op != ">=" && op != "<" && op != "<=" {
			return expr, nil
		}
		p.advance()
		rval, err := p.subExpr()
		if err != nil {
			return nil, err
		}
		switch op {
		case ">":
			expr = greaterThanOperator{expr, rval}
		case ">=":
			expr = greaterThanOrEqualOperator{expr, rval}
		case "<":
			expr = lessThanOperator{expr, rval}
		case "<=":
			expr = lessThanOrEqualOperator{expr, rval}
		}
	}
}

func (p *parser) subExpr() (guard, error) {
	if p.cur() != "(" {
		return p.primaryExpr()
	}
	p.advance()
	expr, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if p.cur() != ")" {
		return nil, p.errorf(`expected ")" to close sub-expression, but found %q`, p.cur())
	}
	p.advance()
	return expr, nil
}

func (p *parser) primaryExpr() (guard, error) {
	token := p.cur()
	switch {
	case len(token) > 1 && isQuoted(token):
		p.advance()
		return stringLiteral{text: token[1 : len(token)-1]}, nil

	case token != "" && (unicode.IsDigit(rune(token[0])) || token[0] == '.'):
		p.advance()
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", token)
		}
		return numberLiteral{value: value}, nil

	case token == "$":
		p.advance()
		name := p.cur()
		if name == "" {
			return nil, p.errorf(`expected variable name after "$"`)
		}
		p.advance()
		p.usesVars = true
		return variableReference{name: name}, nil

	case strings.HasPrefix(p.peek(), "("):
		return p.functionCall()

	default:
		axis := AxisChild
		if token == "@" {
			axis = AxisAttribute
			p.advance()
		}
		return p.nodeTest(axis)
	}
}

func (p *parser) functionCall() (guard, error) {
	name := p.cur()
	p.advance()

	var args []guard
	if p.cur() == "()" {
		p.advance()
	} else {
		p.advance() // (
		arg, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.cur() == "," {
			p.advance()
			arg, err := p.orExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if p.cur() != ")" {
			return nil, p.errorf(`expected ")" to close function argument list, but found %q`, p.cur())
		}
		p.advance()
	}

	construct, ok := functionTable[name]
	if !ok {
		return nil, p.errorf("unsupported function %q", name)
	}
	fn, err := construct(args)
	if err != nil {
		return nil, p.errorf("%s", err)
	}
	return fn, nil
}

func isQuoted(token string) bool {
	return (token[0] == '"' && token[len(token)-1] == '"') ||
		(token[0] == '\'' && token[len(token)-1] == '\'')
}

func unquote(token string) string {
	if len(token) > 1 && isQuoted(token) {
		return token[1 : len(token)-1]
	}
	return token
}

// Characters that terminate a name token; each is the first character
// of some operator token.
const tokenChars = `:./[]()@=!|,><$'"`

func tokenize(text, file string, line int) ([]string, error) {
	var tokens []string
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++

		case c == '"' || c == '\'':
			j := i + 1
			for j < len(runes) && runes[j] != c {
				j++
			}
			if j == len(runes) {
				return nil, syntaxErrorf(file, line, i, "unterminated string literal")
			}
			tokens = append(tokens, string(runes[i:j+1]))
			i = j + 1

		case unicode.IsDigit(c) || (c == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			if j < len(runes) && runes[j] == '.' {
				j++
				for j < len(runes) && unicode.IsDigit(runes[j]) {
					j++
				}
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j

		default:
			if i+1 < len(runes) {
				switch two := string(runes[i : i+2]); two {
				case "::", "..", "//", "()", "!=", ">=", "<=":
					tokens = append(tokens, two)
					i += 2
					continue
				}
			}
			if strings.ContainsRune(tokenChars, c) {
				tokens = append(tokens, string(c))
				i++
				continue
			}
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) &&
				!strings.ContainsRune(tokenChars, runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		}
	}
	return tokens, nil
}
