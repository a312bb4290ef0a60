package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/weft/internal/expr"
	"github.com/loomkit/weft/internal/markup"
)

// flatten renders an event slice as a compact string for assertions;
// serialization proper lives elsewhere.
func flatten(events []markup.Event) string {
	var b strings.Builder
	for _, ev := range events {
		switch ev.Kind {
		case markup.Start:
			b.WriteString("<" + ev.Tag.Local)
			for _, a := range ev.Attrs {
				b.WriteString(" " + a.Name.Local + `="` + a.Value + `"`)
			}
			b.WriteString(">")
		case markup.End:
			b.WriteString("</" + ev.Tag.Local + ">")
		case markup.Text:
			b.WriteString(ev.Text)
		case markup.Comment:
			b.WriteString("<!--" + ev.Text + "-->")
		}
	}
	return b.String()
}

func render(t *testing.T, source string, data map[string]any) string {
	t.Helper()
	tmpl, err := ParseString(source, "test.html")
	require.NoError(t, err)
	events, err := markup.Drain(tmpl.Generate(NewContext(data)))
	require.NoError(t, err)
	return flatten(events)
}

func renderError(t *testing.T, source string, data map[string]any) error {
	t.Helper()
	tmpl, err := ParseString(source, "test.html")
	require.NoError(t, err)
	_, err = markup.Drain(tmpl.Generate(NewContext(data)))
	require.Error(t, err)
	return err
}

const ns = ` xmlns:w="http://loomkit.dev/ns/weft"`

func TestInterpolation(t *testing.T) {
	data := map[string]any{
		"name": "World",
		"user": map[string]any{"email": "w@example.com"},
		"n":    3,
	}
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"expression", `<p>` + "${n + 1}" + `</p>`, `<p>4</p>`},
		{"shorthand", `<p>Hello $name!</p>`, `<p>Hello World!</p>`},
		{"dotted shorthand", `<p>$user.email</p>`, `<p>w@example.com</p>`},
		{"escaped dollar", `<p>cost: $$25</p>`, `<p>cost: $25</p>`},
		{"bare dollar", `<p>$ 25</p>`, `<p>$ 25</p>`},
		{"attribute value", `<p class="x-${n}">y</p>`, `<p class="x-3">y</p>`},
		{"string with brace", `<p>${"{" + name}</p>`, `<p>{World</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.source, data))
		})
	}
}

func TestAttributeOmittedWhenNil(t *testing.T) {
	out := render(t, `<p class="${missing_ok}">x</p>`, map[string]any{"missing_ok": nil})
	assert.Equal(t, `<p>x</p>`, out)

	// A literal part keeps the attribute even when expressions
	// produce nothing.
	out = render(t, `<p class="a${missing_ok}">x</p>`, map[string]any{"missing_ok": nil})
	assert.Equal(t, `<p class="a">x</p>`, out)
}

func TestForDirective(t *testing.T) {
	out := render(t, `<ul`+ns+`><li w:for="item in items">${item}</li></ul>`,
		map[string]any{"items": []any{"a", "b", "c"}})
	assert.Equal(t, `<ul><li>a</li><li>b</li><li>c</li></ul>`, out)
}

func TestForDirectiveUnpacking(t *testing.T) {
	out := render(t, `<dl`+ns+`><dt w:for="k, v in pairs">$k=$v</dt></dl>`,
		map[string]any{"pairs": []any{
			[]any{"a", 1},
			[]any{"b", 2},
		}})
	assert.Equal(t, `<dl><dt>a=1</dt><dt>b=2</dt></dl>`, out)
}

func TestForDirectiveNotIterable(t *testing.T) {
	err := renderError(t, `<ul`+ns+`><li w:for="x in n">$x</li></ul>`,
		map[string]any{"n": 42})

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), "cannot iterate")
	assert.Contains(t, err.Error(), "test.html, line 1")
}

func TestIfDirective(t *testing.T) {
	src := `<div` + ns + `><p w:if="ok">yes</p></div>`
	assert.Equal(t, `<div><p>yes</p></div>`, render(t, src, map[string]any{"ok": true}))
	assert.Equal(t, `<div></div>`, render(t, src, map[string]any{"ok": false}))
}

func TestDirectiveOrderCanonical(t *testing.T) {
	// for applies outside if regardless of attribute order, so the
	// condition may use the loop variable.
	data := map[string]any{"xs": []any{1, 2, 3}}
	a := render(t, `<i`+ns+` w:if="x != 2" w:for="x in xs">$x</i>`, data)
	b := render(t, `<i`+ns+` w:for="x in xs" w:if="x != 2">$x</i>`, data)
	assert.Equal(t, `<i>1</i><i>3</i>`, a)
	assert.Equal(t, a, b)
}

func TestChooseWhenOtherwise(t *testing.T) {
	src := `<div` + ns + ` w:choose="">` +
		`<span w:when="x == 0">zero</span>` +
		`<span w:when="x == 1">one</span>` +
		`<span w:otherwise="">many</span></div>`

	assert.Equal(t, `<div><span>zero</span></div>`, render(t, src, map[string]any{"x": 0}))
	assert.Equal(t, `<div><span>one</span></div>`, render(t, src, map[string]any{"x": 1}))
	assert.Equal(t, `<div><span>many</span></div>`, render(t, src, map[string]any{"x": 5}))
}

func TestChooseWithValue(t *testing.T) {
	src := `<div` + ns + ` w:choose="size">` +
		`<span w:when="0">small</span>` +
		`<span w:when="1">big</span></div>`

	assert.Equal(t, `<div><span>small</span></div>`, render(t, src, map[string]any{"size": 0}))
	assert.Equal(t, `<div><span>big</span></div>`, render(t, src, map[string]any{"size": 1}))
	assert.Equal(t, `<div></div>`, render(t, src, map[string]any{"size": 9}))
}

func TestWhenOutsideChoose(t *testing.T) {
	err := renderError(t, `<div`+ns+`><span w:when="1">x</span></div>`, nil)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), `"when" directives can only be used inside a "choose" directive`)

	err = renderError(t, `<div`+ns+`><span w:otherwise="">x</span></div>`, nil)
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), `"otherwise"`)
}

func TestWithDirective(t *testing.T) {
	out := render(t, `<span`+ns+` w:with="y = x + 7">$y</span>`, map[string]any{"x": 1})
	assert.Equal(t, `<span>8</span>`, out)
}

func TestWithDirectiveEvaluatesAgainstOuterScope(t *testing.T) {
	// All right-hand sides see the scope as it was before any of the
	// assignments took effect.
	out := render(t, `<span`+ns+` w:with="x = 2; y = x * 3">$x $y</span>`, map[string]any{"x": 1})
	assert.Equal(t, `<span>2 3</span>`, out)
}

func TestWithDirectiveScopePopped(t *testing.T) {
	out := render(t, `<div`+ns+`><span w:with="x = 2">$x</span>$x</div>`, map[string]any{"x": 1})
	assert.Equal(t, `<div><span>2</span>1</div>`, out)
}

func TestDefDirective(t *testing.T) {
	src := `<div` + ns + `>` +
		`<w:def function="greet(name, punct='!')">Hello ${name}${punct}</w:def>` +
		`${greet('World')}${greet('all', punct='?')}</div>`
	assert.Equal(t, `<div>Hello World!Hello all?</div>`, render(t, src, nil))
}

func TestDefDirectiveEmitsMarkup(t *testing.T) {
	src := `<ul` + ns + `>` +
		`<w:def function="entry(x)"><li>$x</li></w:def>` +
		`${entry(1)}${entry(2)}</ul>`
	assert.Equal(t, `<ul><li>1</li><li>2</li></ul>`, render(t, src, nil))
}

func TestReplaceDirective(t *testing.T) {
	out := render(t, `<div`+ns+`><p w:replace="msg">old</p></div>`, map[string]any{"msg": "new"})
	assert.Equal(t, `<div>new</div>`, out)
}

func TestContentDirective(t *testing.T) {
	out := render(t, `<p`+ns+` w:content="msg">old <b>stuff</b></p>`, map[string]any{"msg": "new"})
	assert.Equal(t, `<p>new</p>`, out)
}

func TestAttrsDirective(t *testing.T) {
	data := map[string]any{"atts": map[string]any{"class": "odd", "id": nil}}
	out := render(t, `<li`+ns+` id="x" w:attrs="atts">Foo</li>`, data)
	assert.Equal(t, `<li class="odd">Foo</li>`, out)

	// A nil value leaves the attributes untouched.
	out = render(t, `<li`+ns+` id="x" w:attrs="atts">Foo</li>`, map[string]any{"atts": nil})
	assert.Equal(t, `<li id="x">Foo</li>`, out)
}

func TestStripDirective(t *testing.T) {
	src := `<div` + ns + ` w:strip="flag"><b>kept</b></div>`
	assert.Equal(t, `<b>kept</b>`, render(t, src, map[string]any{"flag": true}))
	assert.Equal(t, `<div><b>kept</b></div>`, render(t, src, map[string]any{"flag": false}))

	// An empty value always strips.
	assert.Equal(t, `<b>kept</b>`, render(t, `<div`+ns+` w:strip=""><b>kept</b></div>`, nil))
}

func TestDirectiveElementForm(t *testing.T) {
	out := render(t, `<div`+ns+`><w:if test="ok"><b>yes</b></w:if></div>`, map[string]any{"ok": true})
	assert.Equal(t, `<div><b>yes</b></div>`, out)

	out = render(t, `<div`+ns+`><w:for each="x in xs">[$x]</w:for></div>`, map[string]any{"xs": []any{1, 2}})
	assert.Equal(t, `<div>[1][2]</div>`, out)
}

func TestUndefinedVariable(t *testing.T) {
	err := renderError(t, `<p>${nope}</p>`, nil)

	var ue *expr.UndefinedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "nope", ue.Name)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), "test.html, line 1")
}

func TestBuiltinFunctions(t *testing.T) {
	out := render(t, `<p>${defined('x')} ${defined('y')} ${value_of('y', 'd')}</p>`,
		map[string]any{"x": 1})
	assert.Equal(t, `<p>true false d</p>`, out)
}

func TestGenerateIdempotent(t *testing.T) {
	tmpl, err := ParseString(`<ul`+ns+`><li w:for="x in xs" w:if="x != 2">$x</li></ul>`, "t.html")
	require.NoError(t, err)

	data := map[string]any{"xs": []any{1, 2, 3}}
	first, err := markup.Drain(tmpl.Generate(NewContext(data)))
	require.NoError(t, err)
	second, err := markup.Drain(tmpl.Generate(NewContext(data)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateLazy(t *testing.T) {
	tmpl, err := ParseString(`<p>${boom}</p>`, "t.html")
	require.NoError(t, err)

	// Pulling only the leading start tag never evaluates the bad
	// expression.
	for ev, err := range tmpl.Generate(NewContext(nil)) {
		require.NoError(t, err)
		require.Equal(t, markup.Start, ev.Kind)
		break
	}
}
