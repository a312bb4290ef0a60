package template

import (
	"strings"

	"github.com/loomkit/weft/internal/expr"
	"github.com/loomkit/weft/internal/markup"
)

// itemKind selects the variant of a compiled template item.
type itemKind int

const (
	// itemEvent is a literal markup event, emitted as-is.
	itemEvent itemKind = iota

	// itemStart is an element start tag whose attribute values may
	// embed expressions.
	itemStart

	// itemExpr is an embedded expression; its value is substituted at
	// render time, recursively flattened when it is itself a stream.
	itemExpr

	// itemSub is a directive-annotated element collapsed into a
	// subprogram: the directive chain plus the nested items it wraps.
	itemSub
)

// item is one node of a compiled template. A template is a flat list
// of items; directive elements nest through itemSub bodies.
type item struct {
	kind itemKind

	// event carries the literal event of itemEvent, and the tag and
	// position of itemStart.
	event markup.Event

	// attrs holds the templated attributes of itemStart.
	attrs []attrTemplate

	// expr and pos describe itemExpr.
	expr *expr.Expression
	pos  markup.Position

	// directives and body describe itemSub.
	directives []directive
	body       []item
}

func eventItem(ev markup.Event) item {
	return item{kind: itemEvent, event: ev}
}

func startItem(tag markup.QName, attrs []attrTemplate, pos markup.Position) item {
	return item{kind: itemStart, event: markup.Event{Kind: markup.Start, Tag: tag, Pos: pos}, attrs: attrs}
}

func exprItem(e *expr.Expression, pos markup.Position) item {
	return item{kind: itemExpr, expr: e, pos: pos}
}

func subItem(directives []directive, body []item, pos markup.Position) item {
	return item{kind: itemSub, directives: directives, body: body, pos: pos}
}

// part is one segment of interpolated text: either a literal run or an
// embedded expression.
type part struct {
	text string
	expr *expr.Expression
	pos  markup.Position
}

// attrTemplate is one attribute of a compiled start tag. Values
// without embedded expressions keep the literal string; interpolated
// values carry their parts.
type attrTemplate struct {
	name  markup.QName
	raw   string
	parts []part
}

func literalAttr(name markup.QName, value string) attrTemplate {
	return attrTemplate{name: name, raw: value}
}

// eval renders the attribute value. The second result is false when
// the attribute should be omitted entirely, which happens when every
// part is an expression and none produced a value.
func (a attrTemplate) eval(ctx *Context) (string, bool, error) {
	if a.parts == nil {
		return a.raw, true, nil
	}
	var b strings.Builder
	produced := false
	for _, p := range a.parts {
		if p.expr == nil {
			b.WriteString(p.text)
			produced = true
			continue
		}
		v, err := p.expr.Evaluate(ctx)
		if err != nil {
			return "", false, wrapRuntime(err, p.pos)
		}
		if v == nil {
			continue
		}
		text, err := valueText(v)
		if err != nil {
			return "", false, wrapRuntime(err, p.pos)
		}
		b.WriteString(text)
		produced = true
	}
	if !produced {
		return "", false, nil
	}
	return b.String(), true, nil
}

// valueText flattens a value to the text that represents it in an
// attribute: streams contribute their text events only.
func valueText(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case markup.Event:
		return eventText(v), nil
	case []markup.Event:
		var b strings.Builder
		for _, ev := range v {
			b.WriteString(eventText(ev))
		}
		return b.String(), nil
	case *markup.Buffer:
		var b strings.Builder
		for _, ev := range v.Events() {
			b.WriteString(eventText(ev))
		}
		return b.String(), nil
	case markup.Stream:
		var b strings.Builder
		for ev, err := range v {
			if err != nil {
				return "", err
			}
			b.WriteString(eventText(ev))
		}
		return b.String(), nil
	default:
		return expr.FormatValue(v), nil
	}
}

func eventText(ev markup.Event) string {
	if ev.Kind == markup.Text {
		return ev.Text
	}
	return ""
}
