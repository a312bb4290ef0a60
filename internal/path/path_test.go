package path

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/weft/internal/markup"
)

// issueDoc builds the event sequence of a small issue-tracker
// document used throughout the selection tests:
//
//	<doc>
//	  <items count="4">
//	    <item status="new"><summary>Foo</summary></item>
//	    <item status="closed"><summary>Bar</summary></item>
//	    <item status="closed" resolution="invalid"><summary>Baz</summary></item>
//	    <item status="closed" resolution="fixed"><summary>Waz</summary></item>
//	  </items>
//	</doc>
func issueDoc() []markup.Event {
	pos := markup.UnknownPosition
	el := func(name string, attrs ...string) markup.Event {
		var as markup.Attrs
		for i := 0; i+1 < len(attrs); i += 2 {
			as = append(as, markup.Attr{Name: markup.Name(attrs[i]), Value: attrs[i+1]})
		}
		return markup.StartEvent(markup.Name(name), as, pos)
	}
	end := func(name string) markup.Event {
		return markup.EndEvent(markup.Name(name), pos)
	}
	text := func(s string) markup.Event {
		return markup.TextEvent(s, pos)
	}
	return []markup.Event{
		el("doc"),
		el("items", "count", "4"),
		el("item", "status", "new"), el("summary"), text("Foo"), end("summary"), end("item"),
		el("item", "status", "closed"), el("summary"), text("Bar"), end("summary"), end("item"),
		el("item", "status", "closed", "resolution", "invalid"), el("summary"), text("Baz"), end("summary"), end("item"),
		el("item", "status", "closed", "resolution", "fixed"), el("summary"), text("Waz"), end("summary"), end("item"),
		end("items"),
		end("doc"),
	}
}

// render flattens a selection result into comparable strings.
func render(t *testing.T, s markup.Stream) []string {
	t.Helper()
	events, err := markup.Drain(s)
	require.NoError(t, err)
	out := make([]string, len(events))
	for i, ev := range events {
		switch ev.Kind {
		case markup.Start:
			out[i] = "<" + ev.Tag.Local + ">"
		case markup.End:
			out[i] = "</" + ev.Tag.Local + ">"
		case markup.Text:
			out[i] = ev.Text
		default:
			out[i] = fmt.Sprintf("%s:%s", ev.Kind, ev.Text)
		}
	}
	return out
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{
			name:    "parent axis",
			source:  "../item",
			wantErr: `unsupported axis "parent"`,
		},
		{
			name:    "absolute path",
			source:  "/doc/item",
			wantErr: "absolute location paths not supported",
		},
		{
			name:    "unknown axis",
			source:  "ancestor::item",
			wantErr: `unsupported axis "ancestor"`,
		},
		{
			name:    "unknown node type",
			source:  "frobnicate()",
			wantErr: "frobnicate() not allowed here",
		},
		{
			name:    "unclosed predicate",
			source:  "item[@status",
			wantErr: `expected "]"`,
		},
		{
			name:    "unknown function",
			source:  "item[frob(1)]",
			wantErr: `unsupported function "frob"`,
		},
		{
			name:    "wrong arity",
			source:  "item[contains(@a)]",
			wantErr: "contains() expects 2 argument(s), got 1",
		},
		{
			name:    "trailing tokens",
			source:  "item]",
			wantErr: "unexpected token",
		},
		{
			name:    "unterminated string",
			source:  `item[@status="open]`,
			wantErr: "unterminated string literal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
			var serr *SyntaxError
			assert.ErrorAs(t, err, &serr)
		})
	}
}

func TestCompileErrorsCarryLocation(t *testing.T) {
	_, err := CompileAt("../x", "page.html", 12)
	require.Error(t, err)
	assert.ErrorContains(t, err, "page.html, line 12")
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("/absolute") })
	assert.NotPanics(t, func() { MustCompile("items/item") })
}

func TestPathString(t *testing.T) {
	p, err := Compile("items/item[@status]/text()|@count")
	require.NoError(t, err)
	assert.Equal(t, "items/item[@status]/text()|@count", p.Source())
	assert.Equal(t,
		"child::items/child::item[@status]/child::text()|attribute::@count",
		p.String())
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		source string
		vars   Variables
		want   []string
	}{
		{
			name:   "child chain to text",
			source: "items/item/summary/text()",
			want:   []string{"Foo", "Bar", "Baz", "Waz"},
		},
		{
			name:   "boolean predicates",
			source: `items/item[@status="closed" and (@resolution="invalid" or not(@resolution))]/summary/text()`,
			want:   []string{"Bar", "Baz"},
		},
		{
			name:   "closed without resolution",
			source: `items/item[@status="closed" and not(@resolution)]/summary/text()`,
			want:   []string{"Bar"},
		},
		{
			name:   "attribute value",
			source: "items/@count",
			want:   []string{"4"},
		},
		{
			name:   "descendant subtrees",
			source: "//summary",
			want: []string{
				"<summary>", "Foo", "</summary>",
				"<summary>", "Bar", "</summary>",
				"<summary>", "Baz", "</summary>",
				"<summary>", "Waz", "</summary>",
			},
		},
		{
			name:   "numeric position predicate",
			source: "items/item[2]/summary/text()",
			want:   []string{"Bar"},
		},
		{
			name:   "union",
			source: "items/@count|items/item/summary/text()",
			want:   []string{"4", "Foo", "Bar", "Baz", "Waz"},
		},
		{
			name:   "relational predicate",
			source: "items[@count >= 4]/item[1]/summary/text()",
			want:   []string{"Foo"},
		},
		{
			name:   "variable reference",
			source: "items/item[@status=$status]/summary/text()",
			vars:   Variables{"status": "new"},
			want:   []string{"Foo"},
		},
		{
			name:   "string function predicate",
			source: `items/item[starts-with(@resolution, "inv")]/summary/text()`,
			want:   []string{"Baz"},
		},
		{
			name:   "no match",
			source: "items/missing",
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.source)
			require.NoError(t, err)
			got := render(t, p.Select(markup.StreamOf(issueDoc()...), nil, tt.vars))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectIdentity(t *testing.T) {
	doc := issueDoc()
	p := MustCompile(".")
	got, err := markup.Drain(p.Select(markup.StreamOf(doc...), nil, nil))
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestSelectPropagatesError(t *testing.T) {
	p := MustCompile("//summary")
	_, err := markup.Drain(p.Select(markup.FailedStream(assert.AnError), nil, nil))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSelectQualifiedNames(t *testing.T) {
	const uri = "urn:example:issues"
	pos := markup.UnknownPosition
	doc := []markup.Event{
		markup.StartEvent(markup.QName{Namespace: uri, Local: "doc"}, nil, pos),
		markup.StartEvent(markup.QName{Namespace: uri, Local: "item"}, nil, pos),
		markup.TextEvent("one", pos),
		markup.EndEvent(markup.QName{Namespace: uri, Local: "item"}, pos),
		markup.StartEvent(markup.QName{Local: "item"}, nil, pos),
		markup.TextEvent("two", pos),
		markup.EndEvent(markup.QName{Local: "item"}, pos),
		markup.EndEvent(markup.QName{Namespace: uri, Local: "doc"}, pos),
	}
	ns := Namespaces{"x": uri}

	p := MustCompile("//x:item/text()")
	assert.Equal(t, []string{"one"}, render(t, p.Select(markup.StreamOf(doc...), ns, nil)))

	p = MustCompile("//x:*/text()")
	assert.Equal(t, []string{"one"}, render(t, p.Select(markup.StreamOf(doc...), ns, nil)))
}

func TestSelectCommentAndPI(t *testing.T) {
	pos := markup.UnknownPosition
	doc := []markup.Event{
		markup.StartEvent(markup.Name("doc"), nil, pos),
		markup.CommentEvent(" note ", pos),
		markup.ProcInstEvent("weft", "do it", pos),
		markup.EndEvent(markup.Name("doc"), pos),
	}

	p := MustCompile("comment()")
	got, err := markup.Drain(p.Select(markup.StreamOf(doc...), nil, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, markup.Comment, got[0].Kind)
	assert.Equal(t, " note ", got[0].Text)

	p = MustCompile(`processing-instruction("weft")`)
	got, err = markup.Drain(p.Select(markup.StreamOf(doc...), nil, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, markup.ProcInst, got[0].Kind)

	p = MustCompile(`processing-instruction("other")`)
	got, err = markup.Drain(p.Select(markup.StreamOf(doc...), nil, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Both strategies must agree on every event of a traversal; one-step
// paths are compiled with the single-axis strategy, so force the
// generic one and compare.
func TestStrategiesAgree(t *testing.T) {
	sources := []string{
		"items",
		"item",
		"*",
		"text()",
		"node()",
		"@count",
		"//summary",
		"//item[2]",
		"self::doc",
		".",
	}
	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			p, err := Compile(source)
			require.NoError(t, err)
			require.Len(t, p.paths, 1)

			single := p.Matcher(false)
			generic := genericStrategy{p.paths[0]}.matcher(false)
			for i, ev := range issueDoc() {
				sres := single.Test(ev, nil, nil, false)
				gres := generic.Test(ev, nil, nil, false)
				assert.Equal(t, gres.Matched(), sres.Matched(), "event %d (%s)", i, ev.Kind)
				assert.Equal(t, gres.Subtree(), sres.Subtree(), "event %d (%s)", i, ev.Kind)
			}
		})
	}
}

func TestMatcherUpdateOnly(t *testing.T) {
	p := MustCompile("//summary")
	m := p.Matcher(false)
	for _, ev := range issueDoc() {
		assert.False(t, m.Test(ev, nil, nil, true).Matched())
	}
}

func TestMatcherIgnoreContext(t *testing.T) {
	// As a pattern, a plain child path matches at any depth.
	p := MustCompile("summary")
	m := p.Matcher(true)
	matched := 0
	for _, ev := range issueDoc() {
		if m.Test(ev, nil, nil, false).Matched() {
			matched++
		}
	}
	assert.Equal(t, 4, matched)

	// With context, the same path only matches children of the root.
	m = p.Matcher(false)
	matched = 0
	for _, ev := range issueDoc() {
		if m.Test(ev, nil, nil, false).Matched() {
			matched++
		}
	}
	assert.Zero(t, matched)
}

func TestSimpleLocalName(t *testing.T) {
	tests := []struct {
		source string
		want   string
		ok     bool
	}{
		{source: "item", want: "item", ok: true},
		{source: "child::item", want: "item", ok: true},
		{source: "item[@status]", ok: false},
		{source: "@status", ok: false},
		{source: "a/b", ok: false},
		{source: "a|b", ok: false},
		{source: "text()", ok: false},
		{source: "//item", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			name, ok := MustCompile(tt.source).SimpleLocalName()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}
