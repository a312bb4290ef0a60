package path

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/loomkit/weft/internal/markup"
)

// The predicate function library. Each function compiles to a guard;
// construction validates the argument count, evaluation coerces the
// argument values as needed.

type functionConstructor func(args []guard) (guard, error)

var functionTable = map[string]functionConstructor{
	"boolean":          fixedArity("boolean", 1, func(a []guard) guard { return booleanFunction{a[0]} }),
	"ceiling":          fixedArity("ceiling", 1, func(a []guard) guard { return ceilingFunction{a[0]} }),
	"concat":           newConcatFunction,
	"contains":         fixedArity("contains", 2, func(a []guard) guard { return containsFunction{a[0], a[1]} }),
	"matches":          newMatchesFunction,
	"false":            fixedArity("false", 0, func(a []guard) guard { return falseFunction{} }),
	"floor":            fixedArity("floor", 1, func(a []guard) guard { return floorFunction{a[0]} }),
	"local-name":       fixedArity("local-name", 0, func(a []guard) guard { return localNameFunction{} }),
	"name":             fixedArity("name", 0, func(a []guard) guard { return nameFunction{} }),
	"namespace-uri":    fixedArity("namespace-uri", 0, func(a []guard) guard { return namespaceURIFunction{} }),
	"normalize-space":  fixedArity("normalize-space", 1, func(a []guard) guard { return normalizeSpaceFunction{a[0]} }),
	"number":           fixedArity("number", 1, func(a []guard) guard { return numberFunction{a[0]} }),
	"not":              fixedArity("not", 1, func(a []guard) guard { return notFunction{a[0]} }),
	"round":            fixedArity("round", 1, func(a []guard) guard { return roundFunction{a[0]} }),
	"starts-with":      fixedArity("starts-with", 2, func(a []guard) guard { return startsWithFunction{a[0], a[1]} }),
	"string-length":    fixedArity("string-length", 1, func(a []guard) guard { return stringLengthFunction{a[0]} }),
	"substring":        newSubstringFunction,
	"substring-after":  fixedArity("substring-after", 2, func(a []guard) guard { return substringAfterFunction{a[0], a[1]} }),
	"substring-before": fixedArity("substring-before", 2, func(a []guard) guard { return substringBeforeFunction{a[0], a[1]} }),
	"translate":        fixedArity("translate", 3, func(a []guard) guard { return translateFunction{a[0], a[1], a[2]} }),
	"true":             fixedArity("true", 0, func(a []guard) guard { return trueFunction{} }),
}

func fixedArity(name string, arity int, build func([]guard) guard) functionConstructor {
	return func(args []guard) (guard, error) {
		if len(args) != arity {
			return nil, fmt.Errorf("%s() expects %d argument(s), got %d", name, arity, len(args))
		}
		return build(args), nil
	}
}

func formatCall(name string, args ...guard) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

type booleanFunction struct{ expr guard }

func (f booleanFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return asBool(f.expr.eval(ev, ns, vars))
}

func (f booleanFunction) String() string { return formatCall("boolean", f.expr) }

type ceilingFunction struct{ number guard }

func (f ceilingFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return math.Ceil(asFloat(f.number.eval(ev, ns, vars)))
}

func (f ceilingFunction) String() string { return formatCall("ceiling", f.number) }

type concatFunction struct{ exprs []guard }

func newConcatFunction(args []guard) (guard, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("concat() expects at least 2 arguments, got %d", len(args))
	}
	return concatFunction{args}, nil
}

func (f concatFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	var sb strings.Builder
	for _, expr := range f.exprs {
		if v := expr.eval(ev, ns, vars); v != nil {
			sb.WriteString(asString(v))
		}
	}
	return sb.String()
}

func (f concatFunction) String() string { return formatCall("concat", f.exprs...) }

type containsFunction struct{ string1, string2 guard }

func (f containsFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return strings.Contains(
		asString(f.string1.eval(ev, ns, vars)),
		asString(f.string2.eval(ev, ns, vars)),
	)
}

func (f containsFunction) String() string { return formatCall("contains", f.string1, f.string2) }

// matchesFunction tests a string against a regular expression. The
// optional third argument holds flag characters: "i" for
// case-insensitive, "s" for dot-matches-newline, "m" for multi-line
// anchors. Patterns are compiled at evaluation time because both
// operands may be dynamic; a pattern that fails to compile matches
// nothing.
type matchesFunction struct {
	string1 guard
	string2 guard
	flags   guard
}

func newMatchesFunction(args []guard) (guard, error) {
	switch len(args) {
	case 2:
		return matchesFunction{args[0], args[1], nil}, nil
	case 3:
		return matchesFunction{args[0], args[1], args[2]}, nil
	default:
		return nil, fmt.Errorf("matches() expects 2 or 3 arguments, got %d", len(args))
	}
}

func (f matchesFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	pattern := asString(f.string2.eval(ev, ns, vars))
	if f.flags != nil {
		var inline strings.Builder
		for _, c := range asString(f.flags.eval(ev, ns, vars)) {
			switch c {
			case 'i', 's', 'm':
				inline.WriteRune(c)
			}
		}
		if inline.Len() > 0 {
			pattern = "(?" + inline.String() + ")" + pattern
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(asString(f.string1.eval(ev, ns, vars)))
}

func (f matchesFunction) String() string {
	if f.flags != nil {
		return formatCall("matches", f.string1, f.string2, f.flags)
	}
	return formatCall("matches", f.string1, f.string2)
}

type falseFunction struct{}

func (falseFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any { return false }

func (falseFunction) String() string { return "false()" }

type floorFunction struct{ number guard }

func (f floorFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return math.Floor(asFloat(f.number.eval(ev, ns, vars)))
}

func (f floorFunction) String() string { return formatCall("floor", f.number) }

type localNameFunction struct{}

func (localNameFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind == markup.Start {
		return ev.Tag.Local
	}
	return nil
}

func (localNameFunction) String() string { return "local-name()" }

type nameFunction struct{}

func (nameFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind == markup.Start {
		return ev.Tag
	}
	return nil
}

func (nameFunction) String() string { return "name()" }

type namespaceURIFunction struct{}

func (namespaceURIFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind == markup.Start {
		return ev.Tag.Namespace
	}
	return nil
}

func (namespaceURIFunction) String() string { return "namespace-uri()" }

type normalizeSpaceFunction struct{ expr guard }

func (f normalizeSpaceFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return strings.Join(strings.Fields(asString(f.expr.eval(ev, ns, vars))), " ")
}

func (f normalizeSpaceFunction) String() string { return formatCall("normalize-space", f.expr) }

type numberFunction struct{ expr guard }

func (f numberFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return asFloat(f.expr.eval(ev, ns, vars))
}

func (f numberFunction) String() string { return formatCall("number", f.expr) }

type notFunction struct{ expr guard }

func (f notFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return !asBool(f.expr.eval(ev, ns, vars))
}

func (f notFunction) String() string { return formatCall("not", f.expr) }

type roundFunction struct{ number guard }

func (f roundFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return math.Round(asFloat(f.number.eval(ev, ns, vars)))
}

func (f roundFunction) String() string { return formatCall("round", f.number) }

type startsWithFunction struct{ string1, string2 guard }

func (f startsWithFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return strings.HasPrefix(
		asString(f.string1.eval(ev, ns, vars)),
		asString(f.string2.eval(ev, ns, vars)),
	)
}

func (f startsWithFunction) String() string { return formatCall("starts-with", f.string1, f.string2) }

type stringLengthFunction struct{ expr guard }

func (f stringLengthFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return float64(len([]rune(asString(f.expr.eval(ev, ns, vars)))))
}

func (f stringLengthFunction) String() string { return formatCall("string-length", f.expr) }

// substringFunction extracts a run of characters starting at a
// zero-based offset, optionally limited to a length. Offsets and
// lengths are clamped to the string bounds.
type substringFunction struct {
	str    guard
	start  guard
	length guard
}

func newSubstringFunction(args []guard) (guard, error) {
	switch len(args) {
	case 2:
		return substringFunction{args[0], args[1], nil}, nil
	case 3:
		return substringFunction{args[0], args[1], args[2]}, nil
	default:
		return nil, fmt.Errorf("substring() expects 2 or 3 arguments, got %d", len(args))
	}
}

func (f substringFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	runes := []rune(asString(f.str.eval(ev, ns, vars)))
	start := asFloat(f.start.eval(ev, ns, vars))
	if math.IsNaN(start) {
		return ""
	}
	lo := int(start)
	if lo < 0 {
		lo = 0
	}
	if lo > len(runes) {
		lo = len(runes)
	}
	hi := len(runes)
	if f.length != nil {
		length := asFloat(f.length.eval(ev, ns, vars))
		if math.IsNaN(length) || length < 0 {
			return ""
		}
		if end := lo + int(length); end < hi {
			hi = end
		}
	}
	return string(runes[lo:hi])
}

func (f substringFunction) String() string {
	if f.length != nil {
		return formatCall("substring", f.str, f.start, f.length)
	}
	return formatCall("substring", f.str, f.start)
}

type substringAfterFunction struct{ string1, string2 guard }

func (f substringAfterFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	s1 := asString(f.string1.eval(ev, ns, vars))
	s2 := asString(f.string2.eval(ev, ns, vars))
	if i := strings.Index(s1, s2); i >= 0 {
		return s1[i+len(s2):]
	}
	return ""
}

func (f substringAfterFunction) String() string {
	return formatCall("substring-after", f.string1, f.string2)
}

type substringBeforeFunction struct{ string1, string2 guard }

func (f substringBeforeFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	s1 := asString(f.string1.eval(ev, ns, vars))
	s2 := asString(f.string2.eval(ev, ns, vars))
	if i := strings.Index(s1, s2); i >= 0 {
		return s1[:i]
	}
	return ""
}

func (f substringBeforeFunction) String() string {
	return formatCall("substring-before", f.string1, f.string2)
}

// translateFunction replaces characters pairwise: the Nth character of
// the from-string maps to the Nth character of the to-string. From
// characters beyond the length of the to-string are left untouched.
type translateFunction struct {
	str       guard
	fromChars guard
	toChars   guard
}

func (f translateFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	from := []rune(asString(f.fromChars.eval(ev, ns, vars)))
	to := []rune(asString(f.toChars.eval(ev, ns, vars)))
	mapping := make(map[rune]rune, len(to))
	for i, c := range from {
		if i >= len(to) {
			break
		}
		mapping[c] = to[i]
	}
	return strings.Map(func(c rune) rune {
		if r, ok := mapping[c]; ok {
			return r
		}
		return c
	}, asString(f.str.eval(ev, ns, vars)))
}

func (f translateFunction) String() string {
	return formatCall("translate", f.str, f.fromChars, f.toChars)
}

type trueFunction struct{}

func (trueFunction) eval(ev markup.Event, ns Namespaces, vars Variables) any { return true }

func (trueFunction) String() string { return "true()" }
