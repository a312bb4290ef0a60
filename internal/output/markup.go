package output

import (
	"io"
	"iter"

	"github.com/loomkit/weft/internal/markup"
)

// markupSerializer writes xml and xhtml. The two dialects differ only
// in how empty elements collapse: xml self-closes any empty element,
// xhtml self-closes void HTML elements (with the compatibility space)
// and expands everything else to a start/end pair.
type markupSerializer struct {
	w     io.Writer
	xhtml bool
	ns    *nsContext
}

func (s *markupSerializer) run(stream markup.Stream) error {
	s.ns = newNSContext()
	next, stop := iter.Pull2(stream)
	defer stop()
	// pending holds an event pulled during lookahead but not yet written.
	var pending *markup.Event
	for {
		var ev markup.Event
		if pending != nil {
			ev, pending = *pending, nil
		} else {
			got, err, ok := next()
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
			ev = got
		}
		if ev.Kind != markup.Start {
			if err := s.event(ev); err != nil {
				return err
			}
			continue
		}
		// Look ahead one event so an immediately closed element
		// collapses into the empty-element form.
		nextEv, nextErr, nextOK := next()
		if nextErr != nil {
			return nextErr
		}
		selfClose := nextOK && nextEv.Kind == markup.End && nextEv.Tag == ev.Tag
		if s.xhtml && selfClose && !(ev.Tag.Namespace == "" && voidElements[ev.Tag.Local]) {
			// Non-void elements keep an explicit end tag in xhtml.
			selfClose = false
		}
		if err := s.startTag(ev, selfClose); err != nil {
			return err
		}
		if nextOK && !selfClose {
			pending = &nextEv
		}
	}
}

func (s *markupSerializer) event(ev markup.Event) error {
	switch ev.Kind {
	case markup.Start:
		return s.startTag(ev, false)
	case markup.End:
		_, err := io.WriteString(s.w, "</"+s.ns.qualify(ev.Tag)+">")
		return err
	case markup.Text:
		_, err := io.WriteString(s.w, textEscaper.Replace(ev.Text))
		return err
	case markup.Comment:
		_, err := io.WriteString(s.w, "<!--"+ev.Text+"-->")
		return err
	case markup.ProcInst:
		_, err := io.WriteString(s.w, "<?"+ev.Target+" "+ev.Text+"?>")
		return err
	case markup.Doctype:
		return writeDoctype(s.w, ev)
	case markup.StartNS:
		s.ns.declare(ev)
		return nil
	case markup.EndNS:
		s.ns.undeclare(ev.Prefix)
		return nil
	default:
		return nil
	}
}

func (s *markupSerializer) startTag(ev markup.Event, selfClose bool) error {
	out := "<" + s.ns.qualify(ev.Tag)
	for _, decl := range s.ns.takePending() {
		if decl.Prefix == "" {
			out += ` xmlns="` + attrEscaper.Replace(decl.URI) + `"`
		} else {
			out += " xmlns:" + decl.Prefix + `="` + attrEscaper.Replace(decl.URI) + `"`
		}
	}
	for _, a := range ev.Attrs {
		value := a.Value
		if s.xhtml && booleanAttrs[a.Name.Local] {
			value = a.Name.Local
		}
		out += " " + s.ns.qualify(a.Name) + `="` + attrEscaper.Replace(value) + `"`
	}
	switch {
	case selfClose && s.xhtml:
		out += " />"
	case selfClose:
		out += "/>"
	default:
		out += ">"
	}
	_, err := io.WriteString(s.w, out)
	return err
}
