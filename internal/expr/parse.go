package expr

import "strconv"

// Expression is a compiled expression, immutable and safe to evaluate
// concurrently against different scopes.
type Expression struct {
	source string
	root   node
}

// Parse compiles an expression source string.
func Parse(source string) (*Expression, error) {
	p, err := newExprParser(source)
	if err != nil {
		return nil, err
	}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokenEOF {
		return nil, p.errorf("unexpected trailing token %q", p.current().text)
	}
	return &Expression{source: source, root: root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(source string) *Expression {
	e, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the original expression text.
func (e *Expression) Source() string {
	return e.source
}

func (e *Expression) String() string {
	return e.source
}

// Evaluate resolves the expression against a scope. References to
// names the scope cannot resolve return an *UndefinedError.
func (e *Expression) Evaluate(scope Scope) (any, error) {
	return e.root.Evaluate(scope)
}

type exprParser struct {
	source string
	tokens []token
	pos    int
}

func newExprParser(source string) (*exprParser, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}
	return &exprParser{source: source, tokens: tokens}, nil
}

func (p *exprParser) current() token {
	return p.tokens[p.pos]
}

func (p *exprParser) peek() token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return token{kind: tokenEOF}
}

func (p *exprParser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *exprParser) errorf(format string, args ...any) error {
	return syntaxErrorf(p.source, p.current().offset, format, args...)
}

func (p *exprParser) atOperator(ops ...string) bool {
	t := p.current()
	if t.kind != tokenOperator {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

// atKeyword matches the word forms of the boolean operators, so both
// "a && b" and "a and b" parse.
func (p *exprParser) atKeyword(name string) bool {
	return p.current().kind == tokenIdent && p.current().text == name
}

func (p *exprParser) parseExpression() (node, error) {
	return p.parseOr()
}

func (p *exprParser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atOperator("||") || p.atKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{left: left, op: "||", right: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.atOperator("&&") || p.atKeyword("and") {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = binaryNode{left: left, op: "&&", right: right}
	}
	return left, nil
}

func (p *exprParser) parseEquality() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.atOperator("==", "!=") {
		op := p.current().text
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = binaryNode{left: left, op: op, right: right}
	}
	return left, nil
}

func (p *exprParser) parseComparison() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.atOperator("<", "<=", ">", ">=") {
		op := p.current().text
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{left: left, op: op, right: right}
	}
	return left, nil
}

func (p *exprParser) parseTerm() (node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.atOperator("+", "-") {
		op := p.current().text
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{left: left, op: op, right: right}
	}
	return left, nil
}

func (p *exprParser) parseFactor() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atOperator("*", "/", "%") {
		op := p.current().text
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{left: left, op: op, right: right}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (node, error) {
	if p.atOperator("!", "-", "+") {
		op := p.current().text
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses field access, indexing and calls, which all
// bind tighter than any operator.
func (p *exprParser) parsePostfix() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.current().kind == tokenDot:
			p.advance()
			if p.current().kind != tokenIdent {
				return nil, p.errorf(`expected identifier after "."`)
			}
			left = fieldAccessNode{object: left, field: p.current().text}
			p.advance()

		case p.current().kind == tokenLeftBracket:
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if p.current().kind != tokenRightBracket {
				return nil, p.errorf(`expected "]" after index`)
			}
			p.advance()
			left = indexAccessNode{object: left, index: index}

		case p.current().kind == tokenLeftParen:
			call, err := p.parseCall(left)
			if err != nil {
				return nil, err
			}
			left = call

		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseCall(fn node) (node, error) {
	p.advance() // (
	call := callNode{fn: fn}
	if p.current().kind == tokenRightParen {
		p.advance()
		return call, nil
	}
	for {
		// An identifier followed by a single = introduces a keyword
		// argument.
		if p.current().kind == tokenIdent &&
			p.peek().kind == tokenOperator && p.peek().text == "=" {
			name := p.current().text
			p.advance()
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.kwargs = append(call.kwargs, kwarg{name: name, value: value})
		} else {
			if len(call.kwargs) > 0 {
				return nil, p.errorf("positional argument after keyword argument")
			}
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.args = append(call.args, arg)
		}

		switch p.current().kind {
		case tokenComma:
			p.advance()
		case tokenRightParen:
			p.advance()
			return call, nil
		default:
			return nil, p.errorf(`expected "," or ")" in argument list, found %q`, p.current().text)
		}
	}
}

func (p *exprParser) parsePrimary() (node, error) {
	t := p.current()
	switch t.kind {
	case tokenNumber:
		p.advance()
		if i, err := strconv.Atoi(t.text); err == nil {
			return literalNode{value: i}, nil
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", t.text)
		}
		return literalNode{value: f}, nil

	case tokenString:
		p.advance()
		return literalNode{value: t.text}, nil

	case tokenIdent:
		p.advance()
		switch t.text {
		case "true", "True":
			return literalNode{value: true}, nil
		case "false", "False":
			return literalNode{value: false}, nil
		case "nil", "null", "None":
			return literalNode{value: nil}, nil
		case "not":
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return unaryNode{op: "!", operand: operand}, nil
		}
		return variableNode{name: t.text}, nil

	case tokenLeftParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.current().kind != tokenRightParen {
			return nil, p.errorf(`expected ")" after expression`)
		}
		p.advance()
		return inner, nil

	case tokenEOF:
		return nil, p.errorf("unexpected end of expression")

	default:
		return nil, p.errorf("unexpected token %q", t.text)
	}
}
