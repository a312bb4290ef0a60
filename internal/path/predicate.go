package path

import (
	"strconv"

	"github.com/loomkit/weft/internal/markup"
)

// stringLiteral is a quoted string inside a predicate.
type stringLiteral struct {
	text string
}

func (l stringLiteral) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return l.text
}

func (l stringLiteral) String() string { return `"` + l.text + `"` }

// numberLiteral is a numeric literal inside a predicate. A bare number
// used as a whole predicate selects by position.
type numberLiteral struct {
	value float64
}

func (l numberLiteral) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return l.value
}

func (l numberLiteral) String() string {
	return strconv.FormatFloat(l.value, 'g', -1, 64)
}

// variableReference reads a value from the variable bindings supplied
// at evaluation time. Written "$name".
type variableReference struct {
	name string
}

func (r variableReference) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return vars[r.name]
}

func (r variableReference) String() string { return "$" + r.name }

// andOperator evaluates to the conjunction of its operands.
type andOperator struct {
	lval guard
	rval guard
}

func (op andOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if !asBool(op.lval.eval(ev, ns, vars)) {
		return false
	}
	return asBool(op.rval.eval(ev, ns, vars))
}

func (op andOperator) String() string {
	return op.lval.String() + " and " + op.rval.String()
}

// orOperator evaluates to the disjunction of its operands.
type orOperator struct {
	lval guard
	rval guard
}

func (op orOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if asBool(op.lval.eval(ev, ns, vars)) {
		return true
	}
	return asBool(op.rval.eval(ev, ns, vars))
}

func (op orOperator) String() string {
	return op.lval.String() + " or " + op.rval.String()
}

// equalsOperator compares two operands for equality. Numbers compare
// numerically, everything else by string value.
type equalsOperator struct {
	lval guard
	rval guard
}

func (op equalsOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return scalarEquals(
		asScalar(op.lval.eval(ev, ns, vars)),
		asScalar(op.rval.eval(ev, ns, vars)),
	)
}

func (op equalsOperator) String() string {
	return op.lval.String() + "=" + op.rval.String()
}

// notEqualsOperator is the negation of equalsOperator.
type notEqualsOperator struct {
	lval guard
	rval guard
}

func (op notEqualsOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return !scalarEquals(
		asScalar(op.lval.eval(ev, ns, vars)),
		asScalar(op.rval.eval(ev, ns, vars)),
	)
}

func (op notEqualsOperator) String() string {
	return op.lval.String() + "!=" + op.rval.String()
}

func scalarEquals(lval, rval any) bool {
	if lval == nil || rval == nil {
		return lval == nil && rval == nil
	}
	lf, lok := lval.(float64)
	rf, rok := rval.(float64)
	if lok && rok {
		return lf == rf
	}
	return asString(lval) == asString(rval)
}

// The relational operators coerce both operands to numbers.

type greaterThanOperator struct {
	lval guard
	rval guard
}

func (op greaterThanOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return asFloat(op.lval.eval(ev, ns, vars)) > asFloat(op.rval.eval(ev, ns, vars))
}

func (op greaterThanOperator) String() string {
	return op.lval.String() + ">" + op.rval.String()
}

type greaterThanOrEqualOperator struct {
	lval guard
	rval guard
}

func (op greaterThanOrEqualOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return asFloat(op.lval.eval(ev, ns, vars)) >= asFloat(op.rval.eval(ev, ns, vars))
}

func (op greaterThanOrEqualOperator) String() string {
	return op.lval.String() + ">=" + op.rval.String()
}

type lessThanOperator struct {
	lval guard
	rval guard
}

func (op lessThanOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return asFloat(op.lval.eval(ev, ns, vars)) < asFloat(op.rval.eval(ev, ns, vars))
}

func (op lessThanOperator) String() string {
	return op.lval.String() + "<" + op.rval.String()
}

type lessThanOrEqualOperator struct {
	lval guard
	rval guard
}

func (op lessThanOrEqualOperator) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return asFloat(op.lval.eval(ev, ns, vars)) <= asFloat(op.rval.eval(ev, ns, vars))
}

func (op lessThanOrEqualOperator) String() string {
	return op.lval.String() + "<=" + op.rval.String()
}
