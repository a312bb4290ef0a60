package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/weft/internal/markup"
)

func TestParseBadDirective(t *testing.T) {
	_, err := ParseString(`<p`+ns+` w:bogus="1">x</p>`, "t.html")
	require.Error(t, err)

	var bde *BadDirectiveError
	require.ErrorAs(t, err, &bde)
	assert.Equal(t, "bogus", bde.Name)
	assert.Contains(t, err.Error(), `bad directive "bogus"`)
	assert.Contains(t, err.Error(), "t.html, line 1")

	_, err = ParseString(`<p`+ns+`><w:bogus/></p>`, "t.html")
	require.ErrorAs(t, err, &bde)
}

func TestParseBadDirectiveValue(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"for without in", `<p` + ns + ` w:for="x">y</p>`, `bad "for" directive`},
		{"if empty", `<p` + ns + ` w:if="">y</p>`, `bad "if" directive`},
		{"bad with", `<p` + ns + ` w:with="x + 1">y</p>`, `bad "with" directive`},
		{"bad def", `<p` + ns + ` w:def="1x()">y</p>`, `bad "def" directive`},
		{"bad match path", `<p` + ns + ` w:match="item[">y</p>`, `bad "match" directive`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.source, "t.html")
			require.Error(t, err)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseBadInterpolation(t *testing.T) {
	_, err := ParseString(`<p>${1 +}</p>`, "t.html")
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "invalid expression")

	_, err = ParseString(`<p>${unterminated</p>`, "t.html")
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "unterminated expression")
}

func TestParseDirectiveNamespaceSuppressed(t *testing.T) {
	tmpl, err := ParseString(`<p`+ns+`>x</p>`, "t.html")
	require.NoError(t, err)

	events, err := markup.Drain(tmpl.Generate(NewContext(nil)))
	require.NoError(t, err)
	for _, ev := range events {
		assert.NotEqual(t, markup.StartNS, ev.Kind)
		assert.NotEqual(t, markup.EndNS, ev.Kind)
	}
}

func TestParseKeepsOtherNamespaces(t *testing.T) {
	tmpl, err := ParseString(`<p xmlns:a="urn:a"`+ns+`><a:q/></p>`, "t.html")
	require.NoError(t, err)

	events, err := markup.Drain(tmpl.Generate(NewContext(nil)))
	require.NoError(t, err)

	var prefixes []string
	for _, ev := range events {
		if ev.Kind == markup.StartNS {
			prefixes = append(prefixes, ev.Prefix)
		}
	}
	assert.Equal(t, []string{"a"}, prefixes)
}

func TestParseStripsBangComments(t *testing.T) {
	out := render(t, `<p><!-- !private --><!-- public -->x</p>`, nil)
	assert.Equal(t, `<p><!-- public -->x</p>`, out)
}

func TestParseErrorPosition(t *testing.T) {
	src := "<div" + ns + ">\n  <p w:for=\"broken\">x</p>\n</div>"
	_, err := ParseString(src, "list.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list.html, line 2")
}

func TestParsePropagatesTokenizerError(t *testing.T) {
	_, err := ParseString(`<a><b></a>`, "bad.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.html")
}

func TestTemplateName(t *testing.T) {
	tmpl, err := ParseString(`<p/>`, "page.html")
	require.NoError(t, err)
	assert.Equal(t, "page.html", tmpl.Name())
}

func TestMatchPathUsesDeclaredPrefixes(t *testing.T) {
	src := `<doc xmlns:v="urn:v"` + ns + `>` +
		`<w:match path="v:item">HIT</w:match>` +
		`<v:item>x</v:item></doc>`
	assert.Equal(t, `<doc>HIT</doc>`, render(t, src, nil))
}
