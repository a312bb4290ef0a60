package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/weft/internal/markup"
)

func kinds(events []markup.Event) []markup.Kind {
	out := make([]markup.Kind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestTokenize(t *testing.T) {
	events, err := markup.Drain(TokenizeString(`<doc id="1"><item>Foo</item></doc>`, "doc.xml"))
	require.NoError(t, err)

	require.Equal(t, []markup.Kind{
		markup.Start, markup.Start, markup.Text, markup.End, markup.End,
	}, kinds(events))

	assert.Equal(t, markup.Name("doc"), events[0].Tag)
	assert.Equal(t, markup.Attrs{{Name: markup.Name("id"), Value: "1"}}, events[0].Attrs)
	assert.Equal(t, "Foo", events[2].Text)
	assert.Equal(t, markup.Name("item"), events[3].Tag)
	assert.True(t, markup.Balanced(events))
}

func TestTokenizeNamespaces(t *testing.T) {
	src := `<doc xmlns="urn:a" xmlns:x="urn:b"><x:item x:id="1"/></doc>`
	events, err := markup.Drain(TokenizeString(src, ""))
	require.NoError(t, err)

	require.Equal(t, []markup.Kind{
		markup.StartNS, markup.StartNS, markup.Start,
		markup.Start, markup.End,
		markup.End, markup.EndNS, markup.EndNS,
	}, kinds(events))

	assert.Equal(t, "", events[0].Prefix)
	assert.Equal(t, "urn:a", events[0].URI)
	assert.Equal(t, "x", events[1].Prefix)
	assert.Equal(t, "urn:b", events[1].URI)

	// Tag and attribute names resolve to namespace URIs, and the xmlns
	// declarations do not survive as attributes.
	assert.Equal(t, markup.QName{Namespace: "urn:a", Local: "doc"}, events[2].Tag)
	assert.Empty(t, events[2].Attrs)
	assert.Equal(t, markup.QName{Namespace: "urn:b", Local: "item"}, events[3].Tag)
	assert.Equal(t, markup.Attrs{
		{Name: markup.QName{Namespace: "urn:b", Local: "id"}, Value: "1"},
	}, events[3].Attrs)

	// Mappings close innermost-first after the declaring element ends.
	assert.Equal(t, "x", events[6].Prefix)
	assert.Equal(t, "", events[7].Prefix)
}

func TestTokenizeCoalescesText(t *testing.T) {
	events, err := markup.Drain(TokenizeString(`<p>a &amp; b &lt; c</p>`, ""))
	require.NoError(t, err)

	require.Equal(t, []markup.Kind{markup.Start, markup.Text, markup.End}, kinds(events))
	assert.Equal(t, "a & b < c", events[1].Text)
}

func TestTokenizeCommentAndProcInst(t *testing.T) {
	src := `<?xml version="1.0"?><doc><!-- note --><?php echo ?></doc>`
	events, err := markup.Drain(TokenizeString(src, ""))
	require.NoError(t, err)

	require.Equal(t, []markup.Kind{
		markup.Start, markup.Comment, markup.ProcInst, markup.End,
	}, kinds(events))
	assert.Equal(t, " note ", events[1].Text)
	assert.Equal(t, "php", events[2].Target)
	assert.Equal(t, "echo ", events[2].Text)
}

func TestTokenizeDoctype(t *testing.T) {
	src := `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd"><html/>`
	events, err := markup.Drain(TokenizeString(src, ""))
	require.NoError(t, err)

	require.Equal(t, markup.Doctype, events[0].Kind)
	assert.Equal(t, "html", events[0].Name)
	assert.Equal(t, "-//W3C//DTD XHTML 1.0//EN", events[0].PubID)
	assert.Equal(t, "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd", events[0].SysID)

	events, err = markup.Drain(TokenizeString(`<!DOCTYPE svg SYSTEM "svg.dtd"><svg/>`, ""))
	require.NoError(t, err)
	assert.Equal(t, "svg", events[0].Name)
	assert.Equal(t, "", events[0].PubID)
	assert.Equal(t, "svg.dtd", events[0].SysID)
}

func TestTokenizePositions(t *testing.T) {
	src := "<doc>\n  <item>Foo</item>\n</doc>"
	events, err := markup.Drain(TokenizeString(src, "doc.xml"))
	require.NoError(t, err)

	byTag := map[string]markup.Position{}
	for _, ev := range events {
		if ev.Kind == markup.Start {
			byTag[ev.Tag.Local] = ev.Pos
		}
	}
	assert.Equal(t, markup.Position{File: "doc.xml", Line: 1, Column: 1}, byTag["doc"])
	assert.Equal(t, markup.Position{File: "doc.xml", Line: 2, Column: 3}, byTag["item"])
}

func TestTokenizeMalformed(t *testing.T) {
	_, err := markup.Drain(TokenizeString(`<a><b></a>`, "bad.xml"))
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad.xml", perr.File)
	assert.Equal(t, 1, perr.Line)
	assert.Contains(t, err.Error(), "bad.xml, line 1")
}

func TestTokenizeReplayable(t *testing.T) {
	s := TokenizeString(`<doc><item/></doc>`, "")

	first, err := markup.Drain(s)
	require.NoError(t, err)
	second, err := markup.Drain(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenizeReader(t *testing.T) {
	events, err := markup.Drain(Tokenize(strings.NewReader(`<doc/>`), ""))
	require.NoError(t, err)
	require.Equal(t, []markup.Kind{markup.Start, markup.End}, kinds(events))
}
