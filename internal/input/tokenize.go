package input

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/loomkit/weft/internal/markup"
)

// Tokenize reads the whole document up front and returns a stream over
// its events. The stream may be ranged over more than once; each pass
// decodes from the buffered bytes again.
func Tokenize(r io.Reader, filename string) markup.Stream {
	data, err := io.ReadAll(r)
	if err != nil {
		return markup.FailedStream(&ParseError{Msg: err.Error(), File: filename})
	}
	return TokenizeBytes(data, filename)
}

// TokenizeString tokenizes an in-memory document.
func TokenizeString(source, filename string) markup.Stream {
	return TokenizeBytes([]byte(source), filename)
}

// TokenizeBytes tokenizes an in-memory document.
func TokenizeBytes(data []byte, filename string) markup.Stream {
	lines := lineIndex(data)
	return func(yield func(markup.Event, error) bool) {
		t := &tokenizer{
			dec:   newDecoder(data),
			file:  filename,
			lines: lines,
			yield: yield,
		}
		t.run()
	}
}

func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charsetReader
	d.Entity = xml.HTMLEntity
	return d
}

func charsetReader(charset string, r io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

type tokenizer struct {
	dec   *xml.Decoder
	file  string
	lines []int
	yield func(markup.Event, error) bool

	// prefixes declared by each open element, innermost last. EndNS
	// events are emitted in reverse declaration order after the
	// element's end event.
	nsStack [][]string

	// pending character data; adjacent chunks coalesce into a single
	// text event so downstream interpolation sees whole runs.
	text    strings.Builder
	textPos markup.Position
}

func (t *tokenizer) run() {
	for {
		pos := t.position()
		tok, err := t.dec.Token()
		if err != nil {
			t.flushText()
			if errors.Is(err, io.EOF) {
				return
			}
			t.fail(err, pos)
			return
		}
		if !t.emit(tok, pos) {
			return
		}
	}
}

func (t *tokenizer) emit(tok xml.Token, pos markup.Position) bool {
	if _, ok := tok.(xml.CharData); !ok {
		if !t.flushText() {
			return false
		}
	}
	switch tok := tok.(type) {
	case xml.StartElement:
		var declared []string
		attrs := make(markup.Attrs, 0, len(tok.Attr))
		for _, a := range tok.Attr {
			if prefix, uri, ok := nsDeclaration(a); ok {
				if !t.yield(markup.StartNSEvent(prefix, uri, pos), nil) {
					return false
				}
				declared = append(declared, prefix)
				continue
			}
			name := markup.QName{Namespace: a.Name.Space, Local: a.Name.Local}
			attrs = append(attrs, markup.Attr{Name: name, Value: a.Value})
		}
		t.nsStack = append(t.nsStack, declared)
		tag := markup.QName{Namespace: tok.Name.Space, Local: tok.Name.Local}
		return t.yield(markup.StartEvent(tag, attrs, pos), nil)

	case xml.EndElement:
		tag := markup.QName{Namespace: tok.Name.Space, Local: tok.Name.Local}
		if !t.yield(markup.EndEvent(tag, pos), nil) {
			return false
		}
		if n := len(t.nsStack); n > 0 {
			declared := t.nsStack[n-1]
			t.nsStack = t.nsStack[:n-1]
			for i := len(declared) - 1; i >= 0; i-- {
				if !t.yield(markup.EndNSEvent(declared[i], pos), nil) {
					return false
				}
			}
		}
		return true

	case xml.CharData:
		if t.text.Len() == 0 {
			t.textPos = pos
		}
		t.text.Write(tok)
		return true

	case xml.Comment:
		return t.yield(markup.CommentEvent(string(tok), pos), nil)

	case xml.ProcInst:
		if tok.Target == "xml" {
			// The XML declaration is not part of the document content.
			return true
		}
		return t.yield(markup.ProcInstEvent(tok.Target, string(tok.Inst), pos), nil)

	case xml.Directive:
		if name, pubid, sysid, ok := parseDoctype(string(tok)); ok {
			return t.yield(markup.DoctypeEvent(name, pubid, sysid, pos), nil)
		}
		return true

	default:
		return true
	}
}

func (t *tokenizer) flushText() bool {
	if t.text.Len() == 0 {
		return true
	}
	text := t.text.String()
	t.text.Reset()
	return t.yield(markup.TextEvent(text, t.textPos), nil)
}

func (t *tokenizer) fail(err error, pos markup.Position) {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		t.yield(markup.Event{}, &ParseError{Msg: se.Msg, File: t.file, Line: se.Line})
		return
	}
	t.yield(markup.Event{}, &ParseError{Msg: err.Error(), File: t.file, Line: pos.Line})
}

func (t *tokenizer) position() markup.Position {
	off := t.dec.InputOffset()
	line := sort.Search(len(t.lines), func(i int) bool {
		return t.lines[i] > int(off)
	})
	col := int(off) - t.lines[line-1] + 1
	return markup.Position{File: t.file, Line: line, Column: col}
}

// lineIndex returns the byte offset of the start of each line, so
// positions can be recovered from decoder offsets by binary search.
func lineIndex(data []byte) []int {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// nsDeclaration reports whether the attribute is an xmlns declaration
// and returns the declared prefix (empty for the default namespace).
func nsDeclaration(a xml.Attr) (prefix, uri string, ok bool) {
	if a.Name.Space == "xmlns" {
		return a.Name.Local, a.Value, true
	}
	if a.Name.Space == "" && a.Name.Local == "xmlns" {
		return "", a.Value, true
	}
	return "", "", false
}

// parseDoctype extracts the root name and external identifiers from a
// DOCTYPE directive. Other directives and internal subsets are ignored.
func parseDoctype(s string) (name, pubid, sysid string, ok bool) {
	s = strings.TrimSpace(s)
	rest, found := strings.CutPrefix(s, "DOCTYPE")
	if !found {
		return "", "", "", false
	}
	fields := doctypeFields(rest)
	if len(fields) == 0 {
		return "", "", "", false
	}
	name = fields[0]
	if len(fields) >= 2 {
		switch fields[1] {
		case "PUBLIC":
			if len(fields) >= 3 {
				pubid = fields[2]
			}
			if len(fields) >= 4 {
				sysid = fields[3]
			}
		case "SYSTEM":
			if len(fields) >= 3 {
				sysid = fields[2]
			}
		}
	}
	return name, pubid, sysid, true
}

// doctypeFields splits a DOCTYPE body into tokens, honoring quoted
// identifiers and stopping at an internal subset.
func doctypeFields(s string) []string {
	var fields []string
	i := 0
	for i < len(s) {
		switch c := s[i]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '[':
			return fields
		case c == '"' || c == '\'':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return fields
			}
			fields = append(fields, s[i+1:i+1+end])
			i += end + 2
		default:
			start := i
			for i < len(s) && strings.IndexByte(" \t\r\n[\"'", s[i]) < 0 {
				i++
			}
			fields = append(fields, s[start:i])
		}
	}
	return fields
}
