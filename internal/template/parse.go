package template

import (
	"io"
	"sort"
	"strings"

	"github.com/loomkit/weft/internal/input"
	"github.com/loomkit/weft/internal/markup"
)

// Namespace is the reserved directive namespace. Attributes in it name
// directives; elements in it are directives applied to their own
// content. Declarations of this namespace never reach the output.
const Namespace = "http://loomkit.dev/ns/weft"

// Parse compiles a template from serialized markup.
func Parse(r io.Reader, filename string) (*Template, error) {
	return FromStream(input.Tokenize(r, filename), filename)
}

// ParseString compiles a template held in memory.
func ParseString(source, filename string) (*Template, error) {
	return FromStream(input.TokenizeString(source, filename), filename)
}

// FromStream compiles a template from an already tokenized event
// stream.
func FromStream(s markup.Stream, filename string) (*Template, error) {
	p := templateParser{
		name:     filename,
		prefixes: map[string][]string{},
	}
	for ev, err := range s {
		if err != nil {
			return nil, err
		}
		if err := p.consume(ev); err != nil {
			return nil, err
		}
	}
	return &Template{name: filename, items: p.items}, nil
}

// dirKey identifies the open element a directive annotation belongs
// to, so the matching end tag can collapse it.
type dirKey struct {
	depth int
	tag   markup.QName
}

type dirEntry struct {
	directives []directive
	offset     int
	strip      bool
}

type templateParser struct {
	name  string
	items []item
	depth int

	// prefixes tracks in-scope namespace declarations per prefix,
	// innermost last, so match paths compile against the right map.
	prefixes map[string][]string

	dirmap map[dirKey]dirEntry
}

func (p *templateParser) consume(ev markup.Event) error {
	switch ev.Kind {
	case markup.StartNS:
		p.prefixes[ev.Prefix] = append(p.prefixes[ev.Prefix], ev.URI)
		if ev.URI == Namespace {
			// The directive namespace itself is compile-time only.
			return nil
		}
		p.items = append(p.items, eventItem(ev))

	case markup.EndNS:
		stack := p.prefixes[ev.Prefix]
		var uri string
		if n := len(stack); n > 0 {
			uri = stack[n-1]
			p.prefixes[ev.Prefix] = stack[:n-1]
		}
		if uri == Namespace {
			return nil
		}
		p.items = append(p.items, eventItem(ev))

	case markup.Start:
		return p.consumeStart(ev)

	case markup.End:
		p.depth--
		p.items = append(p.items, eventItem(ev))
		key := dirKey{depth: p.depth + 1, tag: ev.Tag}
		if entry, ok := p.dirmap[key]; ok {
			delete(p.dirmap, key)
			p.collapse(entry)
		}

	case markup.Text:
		parts, err := interpolate(ev.Text, ev.Pos)
		if err != nil {
			return err
		}
		for _, part := range parts {
			if part.expr != nil {
				p.items = append(p.items, exprItem(part.expr, part.pos))
				continue
			}
			p.items = append(p.items, eventItem(markup.TextEvent(part.text, part.pos)))
		}

	case markup.Comment:
		if strings.HasPrefix(strings.TrimLeft(ev.Text, " \t\r\n"), "!") {
			return nil
		}
		p.items = append(p.items, eventItem(ev))

	default:
		p.items = append(p.items, eventItem(ev))
	}
	return nil
}

func (p *templateParser) consumeStart(ev markup.Event) error {
	p.depth++

	type dirAttr struct {
		index int
		value string
	}
	var found []dirAttr
	strip := false
	attrs := make([]attrTemplate, 0, len(ev.Attrs))

	if ev.Tag.Namespace == Namespace {
		// The element itself is a directive; its value sits in the
		// directive's conventional attribute and its own tags never
		// reach the output.
		idx := directiveIndex(ev.Tag.Local)
		if idx < 0 {
			return badDirectiveError(ev.Tag.Local, ev.Pos)
		}
		value, _ := ev.Attrs.GetLocal(directiveTable[idx].attr)
		found = append(found, dirAttr{index: idx, value: value})
		strip = true
	} else {
		for _, a := range ev.Attrs {
			if a.Name.Namespace == Namespace {
				idx := directiveIndex(a.Name.Local)
				if idx < 0 {
					return badDirectiveError(a.Name.Local, ev.Pos)
				}
				found = append(found, dirAttr{index: idx, value: a.Value})
				continue
			}
			tmpl, err := p.attrTemplate(a, ev.Pos)
			if err != nil {
				return err
			}
			attrs = append(attrs, tmpl)
		}
	}

	if len(found) > 0 {
		// Application order is fixed by the directive table, not by
		// how the attributes were written.
		sort.SliceStable(found, func(i, j int) bool {
			return found[i].index < found[j].index
		})
		ns := p.namespaceMap()
		directives := make([]directive, len(found))
		for i, da := range found {
			d, err := directiveTable[da.index].build(da.value, ns, ev.Pos)
			if err != nil {
				return err
			}
			directives[i] = d
		}
		if p.dirmap == nil {
			p.dirmap = map[dirKey]dirEntry{}
		}
		p.dirmap[dirKey{depth: p.depth, tag: ev.Tag}] = dirEntry{
			directives: directives,
			offset:     len(p.items),
			strip:      strip,
		}
	}

	p.items = append(p.items, startItem(ev.Tag, attrs, ev.Pos))
	return nil
}

func (p *templateParser) attrTemplate(a markup.Attr, pos markup.Position) (attrTemplate, error) {
	parts, err := interpolate(a.Value, pos)
	if err != nil {
		return attrTemplate{}, err
	}
	if len(parts) == 0 {
		return literalAttr(a.Name, ""), nil
	}
	if len(parts) == 1 && parts[0].expr == nil {
		return literalAttr(a.Name, parts[0].text), nil
	}
	return attrTemplate{name: a.Name, parts: parts}, nil
}

// collapse folds the items of a completed directive element into a
// single subprogram item.
func (p *templateParser) collapse(entry dirEntry) {
	body := make([]item, len(p.items)-entry.offset)
	copy(body, p.items[entry.offset:])
	pos := markup.UnknownPosition
	if len(body) > 0 {
		pos = body[0].position()
	}
	if entry.strip && len(body) >= 2 {
		body = body[1 : len(body)-1]
	}
	p.items = append(p.items[:entry.offset], subItem(entry.directives, body, pos))
}

func (p *templateParser) namespaceMap() map[string]string {
	ns := map[string]string{}
	for prefix, stack := range p.prefixes {
		if len(stack) == 0 {
			continue
		}
		if uri := stack[len(stack)-1]; uri != Namespace {
			ns[prefix] = uri
		}
	}
	return ns
}

func (it item) position() markup.Position {
	switch it.kind {
	case itemExpr, itemSub:
		return it.pos
	default:
		return it.event.Pos
	}
}
