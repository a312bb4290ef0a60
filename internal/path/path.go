package path

import (
	"strings"

	"github.com/loomkit/weft/internal/markup"
)

// Axis identifies the tree relationship a location step navigates.
type Axis int

const (
	AxisChild Axis = iota
	AxisSelf
	AxisDescendant
	AxisDescendantOrSelf
	AxisAttribute
)

var axisNames = map[Axis]string{
	AxisChild:            "child",
	AxisSelf:             "self",
	AxisDescendant:       "descendant",
	AxisDescendantOrSelf: "descendant-or-self",
	AxisAttribute:        "attribute",
}

func (a Axis) String() string {
	return axisNames[a]
}

func axisForName(name string) (Axis, bool) {
	for axis, n := range axisNames {
		if n == name {
			return axis, true
		}
	}
	return 0, false
}

// step is one location step: an axis, a node test and zero or more
// predicate expressions.
type step struct {
	axis       Axis
	test       nodeTest
	predicates []guard
}

func (s step) String() string {
	var sb strings.Builder
	sb.WriteString(s.axis.String())
	sb.WriteString("::")
	sb.WriteString(s.test.String())
	for _, p := range s.predicates {
		sb.WriteString("[")
		sb.WriteString(p.String())
		sb.WriteString("]")
	}
	return sb.String()
}

// Namespaces maps namespace prefixes to URIs for prefixed name tests.
type Namespaces map[string]string

// Variables maps variable names to values for $name references.
type Variables map[string]any

// Path is a compiled path expression: one or more alternative step
// sequences (united by |). A Path is immutable and may be shared; all
// per-traversal state lives in the Matcher values it creates.
type Path struct {
	source     string
	paths      [][]step
	strategies []strategy
	usesVars   bool
}

// Compile parses a path expression.
func Compile(source string) (*Path, error) {
	return CompileAt(source, "", -1)
}

// CompileAt parses a path expression found at the given source
// location; the location is attached to any SyntaxError.
func CompileAt(source, file string, line int) (*Path, error) {
	pr := newParser(source, file, line)
	paths, err := pr.parse()
	if err != nil {
		return nil, err
	}
	p := &Path{source: source, paths: paths, usesVars: pr.usesVars}
	for _, steps := range paths {
		if len(steps) == 1 {
			p.strategies = append(p.strategies, singleAxisStrategy{steps})
		} else {
			p.strategies = append(p.strategies, genericStrategy{steps})
		}
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. It simplifies
// package-level path constants and tests.
func MustCompile(source string) *Path {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// UsesVariables reports whether any predicate references a $variable.
// Callers that would otherwise build a variable snapshot per event can
// skip the work when this is false.
func (p *Path) UsesVariables() bool {
	return p.usesVars
}

// Source returns the original expression text.
func (p *Path) Source() string {
	return p.source
}

func (p *Path) String() string {
	alts := make([]string, len(p.paths))
	for i, steps := range p.paths {
		parts := make([]string, len(steps))
		for j, s := range steps {
			parts[j] = s.String()
		}
		alts[i] = strings.Join(parts, "/")
	}
	return strings.Join(alts, "|")
}

// SimpleLocalName reports whether the whole path reduces to a single
// plain child-axis local-name test without predicates, and returns that
// name. The match resolver uses this to index templates by tag.
func (p *Path) SimpleLocalName() (string, bool) {
	if len(p.paths) != 1 || len(p.paths[0]) != 1 {
		return "", false
	}
	s := p.paths[0][0]
	if s.axis != AxisChild || len(s.predicates) > 0 {
		return "", false
	}
	lt, ok := s.test.(localNameTest)
	if !ok {
		return "", false
	}
	return lt.name, true
}

// Matcher returns a fresh matcher bound to one traversal of one
// stream. The matcher must be fed every event of that stream in order,
// via Test; see the Matcher type for the updateOnly contract.
//
// When ignoreContext is true the path is interpreted like an XSLT
// pattern and may match at any depth.
func (p *Path) Matcher(ignoreContext bool) Matcher {
	if len(p.strategies) == 1 {
		return p.strategies[0].matcher(ignoreContext)
	}
	u := &unionMatcher{}
	for _, s := range p.strategies {
		u.matchers = append(u.matchers, s.matcher(ignoreContext))
	}
	return u
}

// Select returns a substream of the given stream matching the path.
// A matched start event is yielded together with its whole subtree; a
// matched text, comment or processing-instruction event is yielded on
// its own; an attribute-axis match is yielded as a text event holding
// the joined attribute values.
func (p *Path) Select(s markup.Stream, ns Namespaces, vars Variables) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		test := p.Matcher(false)
		depth := 0
		for ev, err := range s {
			if err != nil {
				yield(markup.Event{}, err)
				return
			}
			if depth > 0 {
				// Inside a matched subtree: emit everything down to
				// the balancing end tag, still feeding the matcher so
				// its internal state stays consistent.
				switch ev.Kind {
				case markup.Start:
					depth++
				case markup.End:
					depth--
				}
				if !yield(ev, nil) {
					return
				}
				test.Test(ev, ns, vars, true)
				continue
			}
			res := test.Test(ev, ns, vars, false)
			switch {
			case res.Subtree():
				if !yield(ev, nil) {
					return
				}
				if ev.Kind == markup.Start {
					depth = 1
				}
			case res.Matched():
				if !yield(res.Event(), nil) {
					return
				}
			}
		}
	}
}

// strategy builds matchers for one alternative step sequence. The
// generic strategy handles arbitrary step counts; the single-axis
// strategy is a cheaper special case for one-step paths. Both must
// agree on every test input.
type strategy interface {
	matcher(ignoreContext bool) Matcher
}

// Matcher tracks whether a path matches the events of one stream
// traversal. It is a stateful value: it must observe every event of
// the stream, in order, even events the caller does not care about.
// Passing updateOnly=true performs the state transition but suppresses
// the result; skipping events instead would corrupt the matcher's
// depth and position state.
type Matcher interface {
	Test(ev markup.Event, ns Namespaces, vars Variables, updateOnly bool) Match
}

type matchKind int

const (
	matchNone matchKind = iota
	matchSubtree
	matchEvent
	matchAttrs
)

// Match is the result of testing one event against a path.
type Match struct {
	kind  matchKind
	event markup.Event
	attrs markup.Attrs
}

// Matched reports whether the event matched at all.
func (m Match) Matched() bool {
	return m.kind != matchNone
}

// Subtree reports whether the tested event itself is the match, so a
// start event should be emitted together with its whole subtree.
func (m Match) Subtree() bool {
	return m.kind == matchSubtree
}

// Event returns the matched value as an event: the matched event for
// node-type matches, or a text event holding the joined values for
// attribute matches.
func (m Match) Event() markup.Event {
	if m.kind == matchAttrs {
		return markup.TextEvent(m.attrs.JoinedValues(), markup.UnknownPosition)
	}
	return m.event
}

// Attrs returns the matched attributes of an attribute-axis match.
func (m Match) Attrs() markup.Attrs {
	return m.attrs
}

func matchedSubtree() Match {
	return Match{kind: matchSubtree}
}

// matchValue converts a truthy node-test result into a Match.
func matchValue(v any) Match {
	switch val := v.(type) {
	case nil:
		return Match{}
	case bool:
		if val {
			return matchedSubtree()
		}
		return Match{}
	case markup.Attrs:
		if len(val) == 0 {
			return Match{}
		}
		return Match{kind: matchAttrs, attrs: val}
	case markup.Event:
		return Match{kind: matchEvent, event: val}
	default:
		return Match{}
	}
}

// unionMatcher combines the matchers of a union expression. Every
// branch observes every event; the first branch that matches wins.
type unionMatcher struct {
	matchers []Matcher
}

func (u *unionMatcher) Test(ev markup.Event, ns Namespaces, vars Variables, updateOnly bool) Match {
	var retval Match
	for _, m := range u.matchers {
		res := m.Test(ev, ns, vars, updateOnly)
		if !retval.Matched() {
			retval = res
		}
	}
	return retval
}
