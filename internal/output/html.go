package output

import (
	"io"

	"github.com/loomkit/weft/internal/markup"
)

// htmlSerializer writes plain HTML: local names only, no namespace
// declarations, bare boolean attributes, no end tags for void
// elements, and raw character data inside script and style.
type htmlSerializer struct {
	w   io.Writer
	raw int
}

func (s *htmlSerializer) run(stream markup.Stream) error {
	for ev, err := range stream {
		if err != nil {
			return err
		}
		if err := s.event(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *htmlSerializer) event(ev markup.Event) error {
	switch ev.Kind {
	case markup.Start:
		out := "<" + ev.Tag.Local
		for _, a := range ev.Attrs {
			if booleanAttrs[a.Name.Local] {
				if a.Value != "" {
					out += " " + a.Name.Local
				}
				continue
			}
			out += " " + a.Name.Local + `="` + attrEscaper.Replace(a.Value) + `"`
		}
		out += ">"
		if rawTextElements[ev.Tag.Local] {
			s.raw++
		}
		_, err := io.WriteString(s.w, out)
		return err

	case markup.End:
		if rawTextElements[ev.Tag.Local] {
			s.raw--
		}
		if voidElements[ev.Tag.Local] {
			return nil
		}
		_, err := io.WriteString(s.w, "</"+ev.Tag.Local+">")
		return err

	case markup.Text:
		text := ev.Text
		if s.raw == 0 {
			text = textEscaper.Replace(text)
		}
		_, err := io.WriteString(s.w, text)
		return err

	case markup.Comment:
		_, err := io.WriteString(s.w, "<!--"+ev.Text+"-->")
		return err

	case markup.ProcInst:
		_, err := io.WriteString(s.w, "<?"+ev.Target+" "+ev.Text+"?>")
		return err

	case markup.Doctype:
		return writeDoctype(s.w, ev)

	default:
		return nil
	}
}

// textSerialize concatenates the character data of the stream,
// dropping all markup.
func textSerialize(w io.Writer, stream markup.Stream) error {
	for ev, err := range stream {
		if err != nil {
			return err
		}
		if ev.Kind == markup.Text {
			if _, err := io.WriteString(w, ev.Text); err != nil {
				return err
			}
		}
	}
	return nil
}
