package path

import (
	"github.com/loomkit/weft/internal/markup"
)

// Synthetic steps prepended during matcher construction. dotSlash is
// "self::*", dotSlashSlash is "descendant-or-self::node()".
var (
	dotSlash      = step{axis: AxisSelf, test: principalTypeTest{}}
	dotSlashSlash = step{axis: AxisDescendantOrSelf, test: anyNodeTest{}}
)

// genericStrategy handles step sequences of any length. Its matcher
// keeps, per open element, the list of step positions a child event is
// eligible to continue from, plus per-step counters for numeric
// (position) predicates.
type genericStrategy struct {
	steps []step
}

func (g genericStrategy) matcher(ignoreContext bool) Matcher {
	p := g.steps
	var steps []step
	switch {
	case ignoreContext && p[0].axis == AxisAttribute:
		steps = append([]step{dotSlashSlash}, p...)
	case ignoreContext:
		steps = append([]step{{axis: AxisDescendantOrSelf, test: p[0].test, predicates: p[0].predicates}}, p[1:]...)
	case p[0].axis == AxisChild || p[0].axis == AxisAttribute:
		steps = append([]step{dotSlash}, p...)
	default:
		steps = p
	}

	// Positions of descendant-like axes; these may "jump" over any
	// number of tree levels, so they stay eligible for every child.
	var descendants []int
	for i, s := range steps {
		if s.axis == AxisDescendant || s.axis == AxisDescendantOrSelf {
			descendants = append(descendants, i)
		}
	}

	return &genericMatcher{
		steps:       steps,
		stack:       [][]int{{0}},
		counters:    make([][]int, len(steps)),
		descendants: descendants,
	}
}

type genericMatcher struct {
	steps       []step
	stack       [][]int
	counters    [][]int
	descendants []int
}

func (m *genericMatcher) Test(ev markup.Event, ns Namespaces, vars Variables, updateOnly bool) Match {
	switch ev.Kind {
	case markup.End:
		if len(m.stack) > 0 {
			m.stack = m.stack[:len(m.stack)-1]
		}
		return Match{}
	case markup.StartNS, markup.EndNS, markup.StartCDATA, markup.EndCDATA:
		return Match{}
	}

	var retval any
	var myPositions []int
	if len(m.stack) > 0 {
		myPositions = m.stack[len(m.stack)-1]
	}
	var nextPositions []int

	// The trailing attribute axis, if any, is not part of the element
	// walk; it is checked against the event that completes the rest of
	// the expression.
	realLen := len(m.steps)
	if m.steps[len(m.steps)-1].axis == AxisAttribute {
		realLen--
	}
	lastChecked := -1

	for _, position := range myPositions {
		// Self-like axes may already have covered this position.
		if position <= lastChecked {
			continue
		}

		x := position
		completed := true
		for ; x < realLen; x++ {
			cnum := 0
			s := m.steps[x]

			if x != position && s.axis != AxisSelf {
				nextPositions = append(nextPositions, x)
			}

			// Only self-like axes can consume further steps on the
			// same event.
			if s.axis != AxisDescendantOrSelf && s.axis != AxisSelf && x != position {
				x--
				completed = false
				break
			}

			matched := asBool(s.test.eval(ev, ns, vars))
			if matched {
				for _, predicate := range s.predicates {
					pretval := predicate.eval(ev, ns, vars)
					if f, isNum := pretval.(float64); isNum {
						// A numeric predicate selects by position
						// among the events that passed the node test.
						if len(m.counters[x]) < cnum+1 {
							m.counters[x] = append(m.counters[x], 0)
						}
						m.counters[x][cnum]++
						if m.counters[x][cnum] != int(f) {
							pretval = false
						}
						cnum++
					}
					if !asBool(pretval) {
						matched = false
						break
					}
				}
			}
			if !matched {
				completed = false
				break
			}
		}
		if completed {
			// Every step up to realLen matched on this event.
			last := m.steps[len(m.steps)-1]
			if last.axis == AxisAttribute {
				if v := last.test.eval(ev, ns, vars); asBool(v) {
					retval = v
				}
			} else {
				retval = true
			}
			x--
		}
		lastChecked = x
	}

	if ev.Kind == markup.Start {
		// Child positions are the ones implied by the current matches,
		// merged with every descendant-like position that was already
		// eligible at this level.
		i := 0
		var childPositions []int
		for _, pos := range nextPositions {
			for i != len(m.descendants) && m.descendants[i] < pos {
				childPositions = append(childPositions, m.descendants[i])
				i++
			}
			if i != len(m.descendants) && m.descendants[i] == pos {
				i++
			}
			childPositions = append(childPositions, pos)
		}
		if len(myPositions) > 0 {
			lastPos := myPositions[len(myPositions)-1]
			for i != len(m.descendants) && m.descendants[i] <= lastPos {
				childPositions = append(childPositions, m.descendants[i])
				i++
			}
		}
		m.stack = append(m.stack, childPositions)
	}

	if updateOnly {
		return Match{}
	}
	return matchValue(retval)
}

// singleAxisStrategy is the cheap path for one-step expressions: no
// eligibility stack, just a depth counter.
type singleAxisStrategy struct {
	steps []step
}

func (g singleAxisStrategy) matcher(ignoreContext bool) Matcher {
	p := g.steps
	steps := p
	if p[0].axis == AxisAttribute {
		steps = append([]step{dotSlash}, p...)
	}
	if ignoreContext && steps[0].axis != AxisDescendant {
		steps = []step{{axis: AxisDescendantOrSelf, test: p[0].test, predicates: p[0].predicates}}
	}
	return &singleMatcher{steps: steps}
}

type singleMatcher struct {
	steps    []step
	counters []int
	depth    int
}

func (m *singleMatcher) Test(ev markup.Event, ns Namespaces, vars Variables, updateOnly bool) Match {
	switch ev.Kind {
	case markup.End:
		m.depth--
		return Match{}
	case markup.StartNS, markup.EndNS, markup.StartCDATA, markup.EndCDATA:
		return Match{}
	}

	m.depth++
	badDepth := (m.steps[0].axis == AxisSelf && m.depth != 1) ||
		(m.steps[0].axis == AxisChild && m.depth != 2) ||
		(m.steps[0].axis == AxisDescendant && m.depth < 2)

	if ev.Kind != markup.Start {
		m.depth--
	}
	if badDepth {
		return Match{}
	}

	s := m.steps[0]
	if !asBool(s.test.eval(ev, ns, vars)) {
		return Match{}
	}

	cnum := 0
	for _, predicate := range s.predicates {
		pretval := predicate.eval(ev, ns, vars)
		if f, isNum := pretval.(float64); isNum {
			if len(m.counters) < cnum+1 {
				m.counters = append(m.counters, 0)
			}
			m.counters[cnum]++
			if m.counters[cnum] != int(f) {
				pretval = false
			}
			cnum++
		}
		if !asBool(pretval) {
			return Match{}
		}
	}

	var retval any = true
	if last := m.steps[len(m.steps)-1]; last.axis == AxisAttribute {
		retval = last.test.eval(ev, ns, vars)
	}
	if updateOnly {
		return Match{}
	}
	return matchValue(retval)
}
