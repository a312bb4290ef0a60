package markup

import "fmt"

// Kind identifies the kind of a stream event.
type Kind int

const (
	// Start is an element start tag. Carries Tag and Attrs.
	Start Kind = iota

	// End is an element end tag. Carries Tag.
	End

	// Text is a run of character data. Carries Text.
	Text

	// StartNS begins a namespace prefix mapping. Carries Prefix and URI.
	StartNS

	// EndNS ends a namespace prefix mapping. Carries Prefix.
	EndNS

	// Comment is a markup comment. Carries Text.
	Comment

	// ProcInst is a processing instruction. Carries Target and Text.
	ProcInst

	// Doctype is a document type declaration. Carries Name, PubID, SysID.
	Doctype

	// StartCDATA begins a CDATA section.
	StartCDATA

	// EndCDATA ends a CDATA section.
	EndCDATA
)

var kindNames = [...]string{
	Start:      "START",
	End:        "END",
	Text:       "TEXT",
	StartNS:    "START_NS",
	EndNS:      "END_NS",
	Comment:    "COMMENT",
	ProcInst:   "PI",
	Doctype:    "DOCTYPE",
	StartCDATA: "START_CDATA",
	EndCDATA:   "END_CDATA",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Position locates an event in its source document.
// A position with Line < 0 is unknown.
type Position struct {
	File   string
	Line   int
	Column int
}

// UnknownPosition is the sentinel for events with no source location.
var UnknownPosition = Position{Line: -1, Column: -1}

// Known reports whether the position carries a real source location.
func (p Position) Known() bool {
	return p.Line >= 0
}

func (p Position) String() string {
	file := p.File
	if file == "" {
		file = "<string>"
	}
	if !p.Known() {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, p.Line, p.Column)
}

// Event is one unit of a markup stream. Kind selects which of the other
// fields are meaningful; unused fields hold zero values.
type Event struct {
	Kind Kind

	// Tag is the element name of Start and End events.
	Tag QName

	// Attrs holds the ordered attributes of a Start event.
	Attrs Attrs

	// Text holds character data for Text and Comment events, and the
	// instruction data for ProcInst events.
	Text string

	// Target is the target of a ProcInst event.
	Target string

	// Prefix and URI describe StartNS events; EndNS carries only Prefix.
	Prefix string
	URI    string

	// Name, PubID and SysID describe Doctype events.
	Name  string
	PubID string
	SysID string

	Pos Position
}

// StartEvent builds an element start event.
func StartEvent(tag QName, attrs Attrs, pos Position) Event {
	return Event{Kind: Start, Tag: tag, Attrs: attrs, Pos: pos}
}

// EndEvent builds the end event balancing a start event with the same tag.
func EndEvent(tag QName, pos Position) Event {
	return Event{Kind: End, Tag: tag, Pos: pos}
}

// TextEvent builds a character data event.
func TextEvent(text string, pos Position) Event {
	return Event{Kind: Text, Text: text, Pos: pos}
}

// CommentEvent builds a comment event.
func CommentEvent(text string, pos Position) Event {
	return Event{Kind: Comment, Text: text, Pos: pos}
}

// ProcInstEvent builds a processing instruction event.
func ProcInstEvent(target, data string, pos Position) Event {
	return Event{Kind: ProcInst, Target: target, Text: data, Pos: pos}
}

// StartNSEvent builds a namespace mapping start event.
func StartNSEvent(prefix, uri string, pos Position) Event {
	return Event{Kind: StartNS, Prefix: prefix, URI: uri, Pos: pos}
}

// EndNSEvent builds a namespace mapping end event.
func EndNSEvent(prefix string, pos Position) Event {
	return Event{Kind: EndNS, Prefix: prefix, Pos: pos}
}

// DoctypeEvent builds a document type declaration event.
func DoctypeEvent(name, pubid, sysid string, pos Position) Event {
	return Event{Kind: Doctype, Name: name, PubID: pubid, SysID: sysid, Pos: pos}
}
