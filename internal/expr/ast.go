package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// node is one vertex of a compiled expression tree.
type node interface {
	Evaluate(scope Scope) (any, error)
	String() string
}

type literalNode struct {
	value any
}

func (n literalNode) Evaluate(scope Scope) (any, error) {
	return n.value, nil
}

func (n literalNode) String() string {
	if s, ok := n.value.(string); ok {
		return strconv.Quote(s)
	}
	return FormatValue(n.value)
}

type variableNode struct {
	name string
}

func (n variableNode) Evaluate(scope Scope) (any, error) {
	v, ok := scope.Lookup(n.name)
	if !ok {
		return nil, &UndefinedError{Name: n.name}
	}
	return v, nil
}

func (n variableNode) String() string { return n.name }

// fieldAccessNode resolves obj.field. Missing fields resolve to nil
// rather than an error; only top-level names are strict.
type fieldAccessNode struct {
	object node
	field  string
}

func (n fieldAccessNode) Evaluate(scope Scope) (any, error) {
	obj, err := n.object.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	return fieldValue(obj, n.field), nil
}

func (n fieldAccessNode) String() string {
	return n.object.String() + "." + n.field
}

type indexAccessNode struct {
	object node
	index  node
}

func (n indexAccessNode) Evaluate(scope Scope) (any, error) {
	obj, err := n.object.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	idx, err := n.index.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	switch i := idx.(type) {
	case int:
		return elementValue(obj, i), nil
	case int64:
		return elementValue(obj, int(i)), nil
	case float64:
		return elementValue(obj, int(i)), nil
	case string:
		return fieldValue(obj, i), nil
	default:
		return nil, fmt.Errorf("invalid index type %T", idx)
	}
}

func (n indexAccessNode) String() string {
	return n.object.String() + "[" + n.index.String() + "]"
}

type kwarg struct {
	name  string
	value node
}

type callNode struct {
	fn     node
	args   []node
	kwargs []kwarg
}

func (n callNode) Evaluate(scope Scope) (any, error) {
	fnVal, err := n.fn.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	callable, ok := fnVal.(Callable)
	if !ok {
		return nil, fmt.Errorf("%s is not callable", n.fn)
	}

	args := make([]any, len(n.args))
	for i, arg := range n.args {
		if args[i], err = arg.Evaluate(scope); err != nil {
			return nil, err
		}
	}
	var kwargs map[string]any
	if len(n.kwargs) > 0 {
		kwargs = make(map[string]any, len(n.kwargs))
		for _, kw := range n.kwargs {
			if kwargs[kw.name], err = kw.value.Evaluate(scope); err != nil {
				return nil, err
			}
		}
	}
	return callable(args, kwargs)
}

func (n callNode) String() string {
	parts := make([]string, 0, len(n.args)+len(n.kwargs))
	for _, arg := range n.args {
		parts = append(parts, arg.String())
	}
	for _, kw := range n.kwargs {
		parts = append(parts, kw.name+"="+kw.value.String())
	}
	return n.fn.String() + "(" + strings.Join(parts, ", ") + ")"
}

type unaryNode struct {
	op      string
	operand node
}

func (n unaryNode) Evaluate(scope Scope) (any, error) {
	v, err := n.operand.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		return !Truthy(v), nil
	case "-":
		if i, ok := toInt(v); ok {
			return int(-i), nil
		}
		if f, ok := toFloat(v); ok {
			return -f, nil
		}
		return nil, fmt.Errorf("cannot negate %T", v)
	case "+":
		if _, ok := toFloat(v); !ok {
			return nil, fmt.Errorf("cannot apply unary + to %T", v)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown unary operator %q", n.op)
	}
}

func (n unaryNode) String() string {
	return n.op + n.operand.String()
}

type binaryNode struct {
	left  node
	op    string
	right node
}

func (n binaryNode) Evaluate(scope Scope) (any, error) {
	left, err := n.left.Evaluate(scope)
	if err != nil {
		return nil, err
	}

	// Boolean operators short-circuit and yield an operand, so
	// expressions like "name || 'anonymous'" work as defaults.
	switch n.op {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
		return n.right.Evaluate(scope)
	case "||":
		if Truthy(left) {
			return left, nil
		}
		return n.right.Evaluate(scope)
	}

	right, err := n.right.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	return applyBinary(left, n.op, right)
}

func (n binaryNode) String() string {
	return n.left.String() + " " + n.op + " " + n.right.String()
}

func applyBinary(left any, op string, right any) (any, error) {
	switch op {
	case "==":
		return equalValues(left, right), nil
	case "!=":
		return !equalValues(left, right), nil
	case "<", "<=", ">", ">=":
		c, err := compareValues(left, right)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case "+":
		if ls, ok := left.(string); ok {
			return ls + FormatValue(right), nil
		}
		if rs, ok := right.(string); ok {
			return FormatValue(left) + rs, nil
		}
		return arithmetic(left, op, right)
	case "-", "*", "/", "%":
		return arithmetic(left, op, right)
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
}

// arithmetic keeps integer results integral when both operands are
// integers, except for division, which always yields a float.
func arithmetic(left any, op string, right any) (any, error) {
	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, fmt.Errorf("cannot apply %q to %T and %T", op, left, right)
	}
	ints := isInteger(left) && isInteger(right)
	switch op {
	case "+":
		if ints {
			return int(lf + rf), nil
		}
		return lf + rf, nil
	case "-":
		if ints {
			return int(lf - rf), nil
		}
		return lf - rf, nil
	case "*":
		if ints {
			return int(lf * rf), nil
		}
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		if ints {
			return int(lf) % int(rf), nil
		}
		return math.Mod(lf, rf), nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
}

// fieldValue resolves a named field against maps and structs; unknown
// fields and non-container values resolve to nil.
func fieldValue(obj any, field string) any {
	if obj == nil {
		return nil
	}
	switch v := obj.(type) {
	case map[string]any:
		return v[field]
	case map[string]string:
		return v[field]
	case MapScope:
		return v[field]
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		val := rv.MapIndex(reflect.ValueOf(field))
		if !val.IsValid() {
			return nil
		}
		return val.Interface()
	case reflect.Struct:
		val := rv.FieldByName(field)
		if !val.IsValid() || !val.CanInterface() {
			return nil
		}
		return val.Interface()
	}
	return nil
}

// elementValue resolves a positional index against slices and arrays;
// negative indexes count from the end.
func elementValue(obj any, index int) any {
	if obj == nil {
		return nil
	}
	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		if index < 0 {
			index += rv.Len()
		}
		if index < 0 || index >= rv.Len() {
			return nil
		}
		elem := rv.Index(index)
		if rv.Kind() == reflect.String {
			return string(rune(elem.Uint()))
		}
		return elem.Interface()
	}
	return nil
}
