package template

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/loomkit/weft/internal/expr"
	"github.com/loomkit/weft/internal/markup"
	"github.com/loomkit/weft/internal/path"
)

// directive wraps the body of the element it annotated. Directives
// compose left to right: each one decides whether, and how often, the
// rest of the chain runs over the body.
type directive interface {
	apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream
}

// directiveSpec describes one directive name: the attribute carrying
// its value when the directive is written as an element, and its
// constructor. Table order is the canonical application order; an
// element carrying several directive attributes applies them in this
// order regardless of how the attributes were written.
type directiveSpec struct {
	name  string
	attr  string
	build func(value string, ns map[string]string, pos markup.Position) (directive, error)
}

var directiveTable = []directiveSpec{
	{"def", "function", buildDef},
	{"match", "path", buildMatch},
	{"when", "test", buildWhen},
	{"otherwise", "", buildOtherwise},
	{"for", "each", buildFor},
	{"if", "test", buildIf},
	{"choose", "test", buildChoose},
	{"with", "vars", buildWith},
	{"replace", "value", buildReplace},
	{"content", "", buildContent},
	{"attrs", "", buildAttrs},
	{"strip", "", buildStrip},
}

func directiveIndex(name string) int {
	for i, spec := range directiveTable {
		if spec.name == name {
			return i
		}
	}
	return -1
}

// parseDirectiveExpr compiles a directive value, converting expression
// syntax errors into positioned template syntax errors.
func parseDirectiveExpr(name, value string, pos markup.Position) (*expr.Expression, error) {
	e, err := expr.Parse(value)
	if err != nil {
		return nil, syntaxErrorf(pos, "bad %q directive: %v", name, bareMessage(err))
	}
	return e, nil
}

// for

type forDirective struct {
	target expr.Target
	seq    *expr.Expression
	pos    markup.Position
}

func buildFor(value string, ns map[string]string, pos markup.Position) (directive, error) {
	target, seq, err := expr.ParseFor(value)
	if err != nil {
		return nil, syntaxErrorf(pos, "bad %q directive: %v", "for", bareMessage(err))
	}
	return forDirective{target: target, seq: seq, pos: pos}, nil
}

func (d forDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		v, err := d.seq.Evaluate(ctx)
		if err != nil {
			yield(markup.Event{}, wrapRuntime(err, d.pos))
			return
		}
		items, err := iterate(v)
		if err != nil {
			yield(markup.Event{}, runtimeErrorf(d.pos, "%v", err))
			return
		}
		frame := map[string]any{}
		ctx.Push(frame)
		defer ctx.Pop()
		for _, elem := range items {
			err := d.target.Bind(elem, func(name string, value any) {
				frame[name] = value
			})
			if err != nil {
				yield(markup.Event{}, runtimeErrorf(d.pos, "%v", err))
				return
			}
			for ev, err := range t.applyDirectives(rest, body, ctx) {
				if !yield(ev, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}

// iterate turns a loop subject into a slice of elements. Maps iterate
// over their keys in sorted order so rendering stays deterministic.
func iterate(v any) ([]any, error) {
	switch v := v.(type) {
	case nil:
		return nil, fmt.Errorf("cannot iterate over nil")
	case string:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out, nil
	case []any:
		return v, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	case reflect.Map:
		keys := rv.MapKeys()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k.Interface()
		}
		sort.Slice(out, func(i, j int) bool {
			return expr.FormatValue(out[i]) < expr.FormatValue(out[j])
		})
		return out, nil
	default:
		return nil, fmt.Errorf("cannot iterate over %T", v)
	}
}

// if

type ifDirective struct {
	test *expr.Expression
	pos  markup.Position
}

func buildIf(value string, ns map[string]string, pos markup.Position) (directive, error) {
	e, err := parseDirectiveExpr("if", value, pos)
	if err != nil {
		return nil, err
	}
	return ifDirective{test: e, pos: pos}, nil
}

func (d ifDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		v, err := d.test.Evaluate(ctx)
		if err != nil {
			yield(markup.Event{}, wrapRuntime(err, d.pos))
			return
		}
		if !expr.Truthy(v) {
			return
		}
		forward(t.applyDirectives(rest, body, ctx), yield)
	}
}

// choose / when / otherwise

const (
	chooseMatchedKey = "_choose.matched"
	chooseValueKey   = "_choose.value"
)

type chooseDirective struct {
	value *expr.Expression
	pos   markup.Position
}

func buildChoose(value string, ns map[string]string, pos markup.Position) (directive, error) {
	d := chooseDirective{pos: pos}
	if value != "" {
		e, err := parseDirectiveExpr("choose", value, pos)
		if err != nil {
			return nil, err
		}
		d.value = e
	}
	return d, nil
}

func (d chooseDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		frame := map[string]any{chooseMatchedKey: false}
		if d.value != nil {
			v, err := d.value.Evaluate(ctx)
			if err != nil {
				yield(markup.Event{}, wrapRuntime(err, d.pos))
				return
			}
			frame[chooseValueKey] = v
		}
		ctx.Push(frame)
		defer ctx.Pop()
		forward(t.applyDirectives(rest, body, ctx), yield)
	}
}

type whenDirective struct {
	test *expr.Expression
	pos  markup.Position
}

func buildWhen(value string, ns map[string]string, pos markup.Position) (directive, error) {
	d := whenDirective{pos: pos}
	if value != "" {
		e, err := parseDirectiveExpr("when", value, pos)
		if err != nil {
			return nil, err
		}
		d.test = e
	}
	return d, nil
}

func (d whenDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		matched, frame := ctx.find(chooseMatchedKey)
		if frame == nil {
			yield(markup.Event{}, runtimeErrorf(d.pos, "%q directives can only be used inside a %q directive", "when", "choose"))
			return
		}
		if matched == true {
			return
		}
		value, hasValue := frame[chooseValueKey]
		if d.test == nil && !hasValue {
			yield(markup.Event{}, runtimeErrorf(d.pos, "either %q or %q directive must have a test expression", "choose", "when"))
			return
		}
		var hit bool
		switch {
		case hasValue && d.test != nil:
			v, err := d.test.Evaluate(ctx)
			if err != nil {
				yield(markup.Event{}, wrapRuntime(err, d.pos))
				return
			}
			hit = expr.Equal(value, v)
		case hasValue:
			hit = expr.Truthy(value)
		default:
			v, err := d.test.Evaluate(ctx)
			if err != nil {
				yield(markup.Event{}, wrapRuntime(err, d.pos))
				return
			}
			hit = expr.Truthy(v)
		}
		frame[chooseMatchedKey] = hit
		if !hit {
			return
		}
		forward(t.applyDirectives(rest, body, ctx), yield)
	}
}

type otherwiseDirective struct {
	pos markup.Position
}

func buildOtherwise(value string, ns map[string]string, pos markup.Position) (directive, error) {
	return otherwiseDirective{pos: pos}, nil
}

func (d otherwiseDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		matched, frame := ctx.find(chooseMatchedKey)
		if frame == nil {
			yield(markup.Event{}, runtimeErrorf(d.pos, "%q directives can only be used inside a %q directive", "otherwise", "choose"))
			return
		}
		if matched == true {
			return
		}
		frame[chooseMatchedKey] = true
		forward(t.applyDirectives(rest, body, ctx), yield)
	}
}

// with

type withDirective struct {
	assigns []expr.Assign
	pos     markup.Position
}

func buildWith(value string, ns map[string]string, pos markup.Position) (directive, error) {
	assigns, err := expr.ParseAssigns(value)
	if err != nil {
		return nil, syntaxErrorf(pos, "bad %q directive: %v", "with", bareMessage(err))
	}
	return withDirective{assigns: assigns, pos: pos}, nil
}

func (d withDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		// All values are computed against the surrounding scope before
		// any binding takes effect.
		values := make([]any, len(d.assigns))
		for i, a := range d.assigns {
			v, err := a.Value.Evaluate(ctx)
			if err != nil {
				yield(markup.Event{}, wrapRuntime(err, d.pos))
				return
			}
			values[i] = v
		}
		frame := map[string]any{}
		for i, a := range d.assigns {
			err := a.Target.Bind(values[i], func(name string, value any) {
				frame[name] = value
			})
			if err != nil {
				yield(markup.Event{}, runtimeErrorf(d.pos, "%v", err))
				return
			}
		}
		ctx.Push(frame)
		defer ctx.Pop()
		forward(t.applyDirectives(rest, body, ctx), yield)
	}
}

// def

type defDirective struct {
	sig *expr.Signature
	pos markup.Position
}

func buildDef(value string, ns map[string]string, pos markup.Position) (directive, error) {
	sig, err := expr.ParseSignature(value)
	if err != nil {
		return nil, syntaxErrorf(pos, "bad %q directive: %v", "def", bareMessage(err))
	}
	return defDirective{sig: sig, pos: pos}, nil
}

func (d defDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	fn := expr.Callable(func(args []any, kwargs map[string]any) (any, error) {
		frame := map[string]any{}
		for _, p := range d.sig.Params {
			var v any
			switch {
			case len(args) > 0:
				v, args = args[0], args[1:]
			default:
				kw, ok := kwargs[p.Name]
				switch {
				case ok:
					v = kw
				case p.Default != nil:
					var err error
					v, err = p.Default.Evaluate(ctx)
					if err != nil {
						return nil, wrapRuntime(err, d.pos)
					}
				}
			}
			frame[p.Name] = v
		}
		ctx.Push(frame)
		events, err := markup.Drain(t.applyDirectives(rest, body, ctx))
		ctx.Pop()
		if err != nil {
			return nil, err
		}
		return markup.NewBuffer(events...).Replay(), nil
	})
	ctx.Set(d.sig.Name, fn)
	return markup.EmptyStream()
}

// match

type matchDirective struct {
	path       *path.Path
	namespaces path.Namespaces
	pos        markup.Position
}

func buildMatch(value string, ns map[string]string, pos markup.Position) (directive, error) {
	p, err := path.CompileAt(value, pos.File, pos.Line)
	if err != nil {
		return nil, syntaxErrorf(pos, "bad %q directive: %v", "match", bareMessage(err))
	}
	namespaces := path.Namespaces{}
	for prefix, uri := range ns {
		namespaces[prefix] = uri
	}
	return matchDirective{path: p, namespaces: namespaces, pos: pos}, nil
}

func (d matchDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	ctx.matches.add(&matchTemplate{
		path:       d.path,
		matcher:    d.path.Matcher(true),
		namespaces: d.namespaces,
		body:       body,
		directives: rest,
		pos:        d.pos,
	})
	return markup.EmptyStream()
}

// replace

type replaceDirective struct {
	value *expr.Expression
	pos   markup.Position
}

func buildReplace(value string, ns map[string]string, pos markup.Position) (directive, error) {
	e, err := parseDirectiveExpr("replace", value, pos)
	if err != nil {
		return nil, err
	}
	return replaceDirective{value: e, pos: pos}, nil
}

func (d replaceDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	// The whole element is discarded; later directives have nothing
	// left to wrap.
	return t.evalItems([]item{exprItem(d.value, d.pos)}, ctx)
}

// content

type contentDirective struct {
	value *expr.Expression
	pos   markup.Position
}

func buildContent(value string, ns map[string]string, pos markup.Position) (directive, error) {
	e, err := parseDirectiveExpr("content", value, pos)
	if err != nil {
		return nil, err
	}
	return contentDirective{value: e, pos: pos}, nil
}

func (d contentDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	inner := make([]item, 0, 3)
	if len(body) > 0 && body[0].kind == itemStart {
		inner = append(inner, body[0])
	}
	inner = append(inner, exprItem(d.value, d.pos))
	if n := len(body); n > 1 && body[n-1].kind == itemEvent && body[n-1].event.Kind == markup.End {
		inner = append(inner, body[n-1])
	}
	return t.applyDirectives(rest, inner, ctx)
}

// attrs

type attrsDirective struct {
	value *expr.Expression
	pos   markup.Position
}

func buildAttrs(value string, ns map[string]string, pos markup.Position) (directive, error) {
	e, err := parseDirectiveExpr("attrs", value, pos)
	if err != nil {
		return nil, err
	}
	return attrsDirective{value: e, pos: pos}, nil
}

func (d attrsDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		if len(body) == 0 || body[0].kind != itemStart {
			yield(markup.Event{}, runtimeErrorf(d.pos, "%q directive can only be applied to an element", "attrs"))
			return
		}
		v, err := d.value.Evaluate(ctx)
		if err != nil {
			yield(markup.Event{}, wrapRuntime(err, d.pos))
			return
		}
		pairs, err := attrPairs(v)
		if err != nil {
			yield(markup.Event{}, runtimeErrorf(d.pos, "%v", err))
			return
		}
		start := body[0]
		attrs := make([]attrTemplate, len(start.attrs))
		copy(attrs, start.attrs)
		for _, p := range pairs {
			attrs = mergeAttr(attrs, p)
		}
		start.attrs = attrs
		inner := append([]item{start}, body[1:]...)
		forward(t.applyDirectives(rest, inner, ctx), yield)
	}
}

// attrPair is one merged attribute; a nil value deletes the attribute.
type attrPair struct {
	name  markup.QName
	value any
}

func attrPairs(v any) ([]attrPair, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]attrPair, len(names))
		for i, name := range names {
			pairs[i] = attrPair{name: markup.Name(name), value: v[name]}
		}
		return pairs, nil
	case map[string]string:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]attrPair, len(names))
		for i, name := range names {
			pairs[i] = attrPair{name: markup.Name(name), value: v[name]}
		}
		return pairs, nil
	case []any:
		pairs := make([]attrPair, 0, len(v))
		for _, elem := range v {
			pair, ok := elem.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("attribute pair %v is not a (name, value) pair", elem)
			}
			name, ok := pair[0].(string)
			if !ok {
				return nil, fmt.Errorf("attribute name %v is not a string", pair[0])
			}
			pairs = append(pairs, attrPair{name: markup.Name(name), value: pair[1]})
		}
		return pairs, nil
	default:
		return nil, fmt.Errorf("cannot merge %T into attributes", v)
	}
}

func mergeAttr(attrs []attrTemplate, p attrPair) []attrTemplate {
	if p.value == nil {
		out := attrs[:0]
		for _, a := range attrs {
			if a.name != p.name {
				out = append(out, a)
			}
		}
		return out
	}
	value := expr.FormatValue(p.value)
	for i, a := range attrs {
		if a.name == p.name {
			attrs[i] = literalAttr(p.name, value)
			return attrs
		}
	}
	return append(attrs, literalAttr(p.name, value))
}

// strip

type stripDirective struct {
	test *expr.Expression
	pos  markup.Position
}

func buildStrip(value string, ns map[string]string, pos markup.Position) (directive, error) {
	d := stripDirective{pos: pos}
	if value != "" {
		e, err := parseDirectiveExpr("strip", value, pos)
		if err != nil {
			return nil, err
		}
		d.test = e
	}
	return d, nil
}

func (d stripDirective) apply(t *Template, body []item, ctx *Context, rest []directive) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		strip := true
		if d.test != nil {
			v, err := d.test.Evaluate(ctx)
			if err != nil {
				yield(markup.Event{}, wrapRuntime(err, d.pos))
				return
			}
			strip = expr.Truthy(v)
		}
		inner := body
		if strip && len(body) >= 2 {
			inner = body[1 : len(body)-1]
		}
		forward(t.applyDirectives(rest, inner, ctx), yield)
	}
}

// forward drains a stream into a yield function, stopping on the first
// error or consumer stop.
func forward(s markup.Stream, yield func(markup.Event, error) bool) bool {
	for ev, err := range s {
		if !yield(ev, err) {
			return false
		}
		if err != nil {
			return false
		}
	}
	return true
}
