package template

import (
	"github.com/loomkit/weft/internal/expr"
	"github.com/loomkit/weft/internal/markup"
)

// Template is a compiled template. It is immutable after parsing and
// may be rendered concurrently; every rendering works against its own
// Context.
type Template struct {
	name  string
	items []item
}

// Name returns the file name the template was parsed from.
func (t *Template) Name() string {
	return t.name
}

// Generate renders the template against the given context, returning
// the resulting event stream. The stream is lazy: directives run and
// expressions evaluate as the consumer pulls events, and a render-time
// error ends the stream at the point it occurred.
func (t *Template) Generate(ctx *Context) markup.Stream {
	if ctx == nil {
		ctx = NewContext(nil)
	}
	return t.matchFilter(t.evalItems(t.items, ctx), ctx, openMatchSet())
}

// applyDirectives runs a directive chain over a body. An empty chain
// evaluates the body directly.
func (t *Template) applyDirectives(directives []directive, body []item, ctx *Context) markup.Stream {
	if len(directives) == 0 {
		return t.evalItems(body, ctx)
	}
	return directives[0].apply(t, body, ctx, directives[1:])
}

// evalItems expands compiled items into events: literal events pass
// through, start tags render their attribute templates, expressions
// substitute their values, and subprograms run their directive chains.
func (t *Template) evalItems(items []item, ctx *Context) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		t.emitItems(items, ctx, yield)
	}
}

func (t *Template) emitItems(items []item, ctx *Context, yield func(markup.Event, error) bool) bool {
	for i := range items {
		it := &items[i]
		switch it.kind {
		case itemEvent:
			if !yield(it.event, nil) {
				return false
			}

		case itemStart:
			attrs := make(markup.Attrs, 0, len(it.attrs))
			for _, a := range it.attrs {
				value, keep, err := a.eval(ctx)
				if err != nil {
					yield(markup.Event{}, err)
					return false
				}
				if keep {
					attrs = append(attrs, markup.Attr{Name: a.name, Value: value})
				}
			}
			if !yield(markup.StartEvent(it.event.Tag, attrs, it.event.Pos), nil) {
				return false
			}

		case itemExpr:
			v, err := it.expr.Evaluate(ctx)
			if err != nil {
				yield(markup.Event{}, wrapRuntime(err, it.pos))
				return false
			}
			if !t.emitValue(v, it.pos, yield) {
				return false
			}

		case itemSub:
			if !forward(t.applyDirectives(it.directives, it.body, ctx), yield) {
				return false
			}
		}
	}
	return true
}

// emitValue substitutes an expression result into the stream. Strings
// become text, events and streams splice in as markup, nil vanishes,
// and anything else renders through its text representation.
func (t *Template) emitValue(v any, pos markup.Position, yield func(markup.Event, error) bool) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return yield(markup.TextEvent(v, pos), nil)
	case markup.Event:
		return yield(v, nil)
	case []markup.Event:
		for _, ev := range v {
			if !yield(ev, nil) {
				return false
			}
		}
		return true
	case *markup.Buffer:
		for _, ev := range v.Events() {
			if !yield(ev, nil) {
				return false
			}
		}
		return true
	case markup.Stream:
		return forward(v, yield)
	default:
		return yield(markup.TextEvent(expr.FormatValue(v), pos), nil)
	}
}
