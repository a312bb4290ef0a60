package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/loomkit/weft/internal/markup"
)

// Method selects a serialization dialect.
type Method string

const (
	XML   Method = "xml"
	XHTML Method = "xhtml"
	HTML  Method = "html"
	Text  Method = "text"
)

// ParseMethod validates a method name from configuration or the
// command line.
func ParseMethod(name string) (Method, error) {
	switch Method(name) {
	case XML, XHTML, HTML, Text:
		return Method(name), nil
	default:
		return "", fmt.Errorf("unknown serialization method %q", name)
	}
}

// Serialize writes the stream to w using the given method.
func Serialize(w io.Writer, s markup.Stream, method Method) error {
	switch method {
	case XML:
		return (&markupSerializer{w: w}).run(s)
	case XHTML:
		return (&markupSerializer{w: w, xhtml: true}).run(s)
	case HTML:
		return (&htmlSerializer{w: w}).run(s)
	case Text:
		return textSerialize(w, s)
	default:
		return fmt.Errorf("unknown serialization method %q", method)
	}
}

// String renders the stream to a string.
func String(s markup.Stream, method Method) (string, error) {
	var b strings.Builder
	if err := Serialize(&b, s, method); err != nil {
		return "", err
	}
	return b.String(), nil
}

// voidElements are HTML elements with no content model; they never get
// an end tag in html output and self-close in xhtml output.
var voidElements = map[string]bool{
	"area": true, "base": true, "basefont": true, "br": true, "col": true,
	"embed": true, "frame": true, "hr": true, "img": true, "input": true,
	"isindex": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// booleanAttrs render as a bare name in html and repeat their name as
// value in xhtml.
var booleanAttrs = map[string]bool{
	"autofocus": true, "checked": true, "compact": true, "declare": true,
	"defer": true, "disabled": true, "ismap": true, "multiple": true,
	"nohref": true, "noresize": true, "noshade": true, "nowrap": true,
	"readonly": true, "selected": true,
}

// rawTextElements hold character data that html output must not
// escape.
var rawTextElements = map[string]bool{
	"script": true, "style": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// nsContext tracks in-scope namespace declarations and renders
// qualified names with the right prefixes.
type nsContext struct {
	// prefixes maps a URI to its declared prefixes, innermost last.
	prefixes map[string][]string

	// pending declarations waiting for the next start tag.
	pending []markup.Event
}

func newNSContext() *nsContext {
	return &nsContext{prefixes: map[string][]string{
		string(markup.XMLNamespace): {"xml"},
	}}
}

func (c *nsContext) declare(ev markup.Event) {
	c.prefixes[ev.URI] = append(c.prefixes[ev.URI], ev.Prefix)
	c.pending = append(c.pending, ev)
}

func (c *nsContext) undeclare(prefix string) {
	for uri, stack := range c.prefixes {
		if n := len(stack); n > 0 && stack[n-1] == prefix {
			c.prefixes[uri] = stack[:n-1]
			return
		}
	}
}

// qualify renders a QName using the declared prefix for its namespace;
// names in undeclared namespaces fall back to their local name.
func (c *nsContext) qualify(q markup.QName) string {
	if q.Namespace == "" {
		return q.Local
	}
	stack := c.prefixes[q.Namespace]
	if len(stack) == 0 {
		return q.Local
	}
	if prefix := stack[len(stack)-1]; prefix != "" {
		return prefix + ":" + q.Local
	}
	return q.Local
}

// takePending returns the namespace declarations to attach to the
// next start tag.
func (c *nsContext) takePending() []markup.Event {
	pending := c.pending
	c.pending = nil
	return pending
}

func writeDoctype(w io.Writer, ev markup.Event) error {
	var err error
	switch {
	case ev.PubID != "":
		_, err = fmt.Fprintf(w, "<!DOCTYPE %s PUBLIC %q %q>", ev.Name, ev.PubID, ev.SysID)
	case ev.SysID != "":
		_, err = fmt.Fprintf(w, "<!DOCTYPE %s SYSTEM %q>", ev.Name, ev.SysID)
	default:
		_, err = fmt.Fprintf(w, "<!DOCTYPE %s>", ev.Name)
	}
	return err
}
