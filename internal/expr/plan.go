package expr

import (
	"fmt"
	"reflect"
	"strings"
)

// Target is the left-hand side of an assignment: a single name, or a
// tuple of nested targets for unpacking.
type Target struct {
	Name     string
	Elements []Target
}

// Tuple reports whether the target unpacks its value.
func (t Target) Tuple() bool {
	return len(t.Elements) > 0
}

func (t Target) String() string {
	if !t.Tuple() {
		return t.Name
	}
	parts := make([]string, len(t.Elements))
	for i, el := range t.Elements {
		parts[i] = el.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Bind assigns a value to the target, unpacking sequences into tuple
// targets element by element. bind is called once per leaf name.
func (t Target) Bind(v any, bind func(name string, value any)) error {
	if !t.Tuple() {
		bind(t.Name, v)
		return nil
	}
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("cannot unpack %T into %s", v, t)
	}
	if rv.Len() != len(t.Elements) {
		return fmt.Errorf("cannot unpack %d value(s) into %s", rv.Len(), t)
	}
	for i, el := range t.Elements {
		if err := el.Bind(rv.Index(i).Interface(), bind); err != nil {
			return err
		}
	}
	return nil
}

// Assign is one compiled assignment: target(s) and a value expression.
type Assign struct {
	Target Target
	Value  *Expression
}

// ParseAssigns compiles a semicolon-separated assignment list such as
// `x = 1; a, b = pair`.
func ParseAssigns(source string) ([]Assign, error) {
	p, err := newExprParser(source)
	if err != nil {
		return nil, err
	}
	var assigns []Assign
	for {
		target, err := p.parseTargetList()
		if err != nil {
			return nil, err
		}
		if !p.atOperator("=") {
			return nil, p.errorf(`expected "=" in assignment, found %q`, p.current().text)
		}
		p.advance()
		root, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, Assign{
			Target: target,
			Value:  &Expression{source: source, root: root},
		})
		switch p.current().kind {
		case tokenSemicolon:
			p.advance()
			if p.current().kind == tokenEOF {
				return assigns, nil
			}
		case tokenEOF:
			return assigns, nil
		default:
			return nil, p.errorf(`expected ";" between assignments, found %q`, p.current().text)
		}
	}
}

// ParseFor compiles an iteration plan of the form "target in expr",
// e.g. `item in items` or `k, (a, b) in pairs`.
func ParseFor(source string) (Target, *Expression, error) {
	p, err := newExprParser(source)
	if err != nil {
		return Target{}, nil, err
	}
	target, err := p.parseTargetList()
	if err != nil {
		return Target{}, nil, err
	}
	if !p.atKeyword("in") {
		return Target{}, nil, p.errorf(`expected "in" in iteration expression`)
	}
	p.advance()
	root, err := p.parseExpression()
	if err != nil {
		return Target{}, nil, err
	}
	if p.current().kind != tokenEOF {
		return Target{}, nil, p.errorf("unexpected trailing token %q", p.current().text)
	}
	return target, &Expression{source: source, root: root}, nil
}

// Param is one parameter of a definition signature.
type Param struct {
	Name    string
	Default *Expression
}

// Signature is a compiled definition header: the callable's name and
// its parameters with optional defaults.
type Signature struct {
	Name   string
	Params []Param
}

// ParseSignature compiles a definition header such as
// `greeting(name, punctuation="!")`. A bare name declares a
// zero-parameter definition.
func ParseSignature(source string) (*Signature, error) {
	p, err := newExprParser(source)
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokenIdent {
		return nil, p.errorf("expected definition name, found %q", p.current().text)
	}
	sig := &Signature{Name: p.current().text}
	p.advance()

	if p.current().kind == tokenEOF {
		return sig, nil
	}
	if p.current().kind != tokenLeftParen {
		return nil, p.errorf(`expected "(" after definition name, found %q`, p.current().text)
	}
	p.advance()

	for p.current().kind != tokenRightParen {
		if p.current().kind != tokenIdent {
			return nil, p.errorf("expected parameter name, found %q", p.current().text)
		}
		param := Param{Name: p.current().text}
		p.advance()
		if p.atOperator("=") {
			p.advance()
			root, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			param.Default = &Expression{source: source, root: root}
		}
		sig.Params = append(sig.Params, param)

		if p.current().kind == tokenComma {
			p.advance()
			continue
		}
		if p.current().kind != tokenRightParen {
			return nil, p.errorf(`expected "," or ")" in parameter list, found %q`, p.current().text)
		}
	}
	p.advance()
	if p.current().kind != tokenEOF {
		return nil, p.errorf("unexpected trailing token %q", p.current().text)
	}
	return sig, nil
}

func (p *exprParser) parseTargetList() (Target, error) {
	first, err := p.parseTarget()
	if err != nil {
		return Target{}, err
	}
	if p.current().kind != tokenComma {
		return first, nil
	}
	list := Target{Elements: []Target{first}}
	for p.current().kind == tokenComma {
		p.advance()
		next, err := p.parseTarget()
		if err != nil {
			return Target{}, err
		}
		list.Elements = append(list.Elements, next)
	}
	return list, nil
}

func (p *exprParser) parseTarget() (Target, error) {
	if p.current().kind == tokenLeftParen {
		p.advance()
		inner, err := p.parseTargetList()
		if err != nil {
			return Target{}, err
		}
		if p.current().kind != tokenRightParen {
			return Target{}, p.errorf(`expected ")" to close target tuple, found %q`, p.current().text)
		}
		p.advance()
		return inner, nil
	}
	if p.current().kind != tokenIdent {
		return Target{}, p.errorf("expected a name to assign to, found %q", p.current().text)
	}
	t := Target{Name: p.current().text}
	p.advance()
	return t, nil
}
