package template

import (
	"fmt"
	"iter"

	"github.com/loomkit/weft/internal/expr"
	"github.com/loomkit/weft/internal/markup"
	"github.com/loomkit/weft/internal/path"
)

// matchTemplate is one registered match directive: the compiled path
// with its matcher, the body to replay, and the directives that were
// listed after match on the same element.
type matchTemplate struct {
	index      int
	path       *path.Path
	matcher    path.Matcher
	namespaces path.Namespaces
	body       []item
	directives []directive
	pos        markup.Position
}

// matchRegistry collects match templates in declaration order.
// Templates whose path reduces to a single plain child-tag test are
// additionally indexed by local name, so the resolver can look up
// candidates for a start tag without scanning every template; such
// matchers are depth-independent, which is what makes skipping
// unrelated events safe for them. Complex paths are always scanned.
type matchRegistry struct {
	templates []*matchTemplate
	byTag     map[string][]*matchTemplate
	other     []*matchTemplate
}

func (r *matchRegistry) add(mt *matchTemplate) {
	mt.index = len(r.templates)
	r.templates = append(r.templates, mt)
	if name, ok := mt.path.SimpleLocalName(); ok {
		if r.byTag == nil {
			r.byTag = map[string][]*matchTemplate{}
		}
		r.byTag[name] = append(r.byTag[name], mt)
		return
	}
	r.other = append(r.other, mt)
}

// matchSet is an ordered view of the registry: the templates with
// declaration index in [lo, hi), minus an excluded subset. Exclusions
// accumulate as match bodies expand recursively; that accumulation is
// what guarantees termination when several templates match the same
// element. hi < 0 leaves the view open, tracking templates registered
// while rendering is already underway; restricted views snapshot their
// bounds when created.
//
// Every excluded template's index lies within the bounds, so the size
// of the view is a pure index computation.
type matchSet struct {
	lo, hi  int
	exclude []*matchTemplate
}

func openMatchSet() matchSet {
	return matchSet{hi: -1}
}

func (s matchSet) bounds(r *matchRegistry) (int, int) {
	if s.hi < 0 {
		return s.lo, len(r.templates)
	}
	return s.lo, s.hi
}

// empty reports whether the view holds no template at all, in O(1).
func (s matchSet) empty(r *matchRegistry) bool {
	lo, hi := s.bounds(r)
	return hi-lo-len(s.exclude) <= 0
}

func (s matchSet) contains(r *matchRegistry, mt *matchTemplate) bool {
	lo, hi := s.bounds(r)
	if mt.index < lo || mt.index >= hi {
		return false
	}
	for _, ex := range s.exclude {
		if ex == mt {
			return false
		}
	}
	return true
}

// narrow rebuilds a view with the given bounds, keeping only the
// exclusions that still fall inside them.
func (s matchSet) narrow(lo, hi int, extra *matchTemplate) matchSet {
	if hi < lo {
		hi = lo
	}
	out := matchSet{lo: lo, hi: hi}
	for _, ex := range s.exclude {
		if ex.index >= lo && ex.index < hi {
			out.exclude = append(out.exclude, ex)
		}
	}
	if extra != nil && extra.index >= lo && extra.index < hi {
		out.exclude = append(out.exclude, extra)
	}
	return out
}

// only narrows the view to a single template.
func (s matchSet) only(mt *matchTemplate) matchSet {
	return matchSet{lo: mt.index, hi: mt.index + 1}
}

// without removes one more template from the view, freezing the
// bounds at the current registry size.
func (s matchSet) without(r *matchRegistry, mt *matchTemplate) matchSet {
	lo, hi := s.bounds(r)
	return s.narrow(lo, hi, mt)
}

// before restricts the view to templates declared earlier than the
// given one, optionally including it.
func (s matchSet) before(r *matchRegistry, mt *matchTemplate, inclusive bool) matchSet {
	lo, hi := s.bounds(r)
	cut := mt.index
	if inclusive {
		cut++
	}
	if cut < hi {
		hi = cut
	}
	return s.narrow(lo, hi, nil)
}

// after restricts the view to templates declared later than the given
// one.
func (s matchSet) after(r *matchRegistry, mt *matchTemplate) matchSet {
	lo, hi := s.bounds(r)
	if cut := mt.index + 1; cut > lo {
		lo = cut
	}
	return s.narrow(lo, hi, nil)
}

// candidates yields, in declaration order, the templates in the view
// whose matcher must see the given event: for a start tag, the ones
// indexed under its local name merged with every complex-path
// template; for anything else, the complex-path templates alone.
func (s matchSet) candidates(r *matchRegistry, ev markup.Event) iter.Seq[*matchTemplate] {
	return func(yield func(*matchTemplate) bool) {
		var tagged []*matchTemplate
		if ev.Kind == markup.Start {
			tagged = r.byTag[ev.Tag.Local]
		}
		other := r.other
		for len(tagged) > 0 || len(other) > 0 {
			var next *matchTemplate
			switch {
			case len(tagged) == 0:
				next, other = other[0], other[1:]
			case len(other) == 0:
				next, tagged = tagged[0], tagged[1:]
			case tagged[0].index < other[0].index:
				next, tagged = tagged[0], tagged[1:]
			default:
				next, other = other[0], other[1:]
			}
			if !s.contains(r, next) {
				continue
			}
			if !yield(next) {
				return
			}
		}
	}
}

// matchFilter runs the match resolver over a stream: subtrees matched
// by a registered template are consumed and replaced by the template's
// body, with select() bound to the captured subtree.
func (t *Template) matchFilter(s markup.Stream, ctx *Context, set matchSet) markup.Stream {
	return func(yield func(markup.Event, error) bool) {
		next, stop := iter.Pull2(s)
		defer stop()
		t.matchLoop(next, yield, ctx, set)
	}
}

func (t *Template) matchLoop(next func() (markup.Event, error, bool), yield func(markup.Event, error) bool, ctx *Context, set matchSet) bool {
	reg := &ctx.matches
	for {
		ev, err, ok := next()
		if !ok {
			return true
		}
		if err != nil {
			yield(markup.Event{}, err)
			return false
		}
		if (ev.Kind != markup.Start && ev.Kind != markup.End) || set.empty(reg) {
			if !yield(ev, nil) {
				return false
			}
			continue
		}

		var hit *matchTemplate
		for mt := range set.candidates(reg, ev) {
			if hit != nil {
				// Later templates track the event without producing a
				// result, so their state stays consistent with the
				// stream they never get to transform.
				mt.matcher.Test(ev, mt.namespaces, t.matchVars(ctx, mt), true)
				continue
			}
			if mt.matcher.Test(ev, mt.namespaces, t.matchVars(ctx, mt), false).Subtree() {
				hit = mt
			}
		}
		if hit == nil {
			if !yield(ev, nil) {
				return false
			}
			continue
		}
		if !t.expandMatch(ev, hit, next, yield, ctx, set) {
			return false
		}
	}
}

// expandMatch consumes the subtree opened by ev and replays the
// matched template's body in its place.
func (t *Template) expandMatch(ev markup.Event, hit *matchTemplate, next func() (markup.Event, error, bool), yield func(markup.Event, error) bool, ctx *Context, set matchSet) bool {
	reg := &ctx.matches

	// Capture the subtree. The triggering template alone stays active
	// inside, so nested matchable content is expanded without the
	// template re-matching its own invocation's boundary.
	var tail markup.Event
	interior := func(iyield func(markup.Event, error) bool) {
		depth := 1
		for {
			iev, ierr, iok := next()
			if !iok {
				return
			}
			if ierr != nil {
				iyield(markup.Event{}, ierr)
				return
			}
			switch iev.Kind {
			case markup.Start:
				depth++
			case markup.End:
				depth--
			}
			if depth == 0 {
				tail = iev
				return
			}
			if !iyield(iev, nil) {
				return
			}
		}
	}
	inner, err := markup.Drain(t.matchFilter(interior, ctx, set.only(hit)))
	if err != nil {
		yield(markup.Event{}, err)
		return false
	}
	content := make([]markup.Event, 0, len(inner)+2)
	content = append(content, ev)
	content = append(content, inner...)
	if tail.Kind == markup.End {
		content = append(content, tail)
		// The consumed end tag still advances every active matcher.
		for mt := range set.candidates(reg, tail) {
			mt.matcher.Test(tail, mt.namespaces, t.matchVars(ctx, mt), true)
		}
	}

	buf := markup.NewBuffer(content...)
	ctx.Push(map[string]any{"select": selectCallable(buf, hit, ctx)})
	body := t.applyDirectives(hit.directives, hit.body, ctx)
	ok := forward(t.matchFilter(body, ctx, set.without(reg, hit)), yield)
	ctx.Pop()
	return ok
}

func (t *Template) matchVars(ctx *Context, mt *matchTemplate) path.Variables {
	if !mt.path.UsesVariables() {
		return nil
	}
	return ctx.pathVariables()
}

// selectCallable binds select() over a captured subtree: evaluating a
// path expression against the buffer yields the matching events.
func selectCallable(buf *markup.Buffer, mt *matchTemplate, ctx *Context) expr.Callable {
	return func(args []any, kwargs map[string]any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("select() takes exactly one path argument")
		}
		src, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("select() wants a path string, got %T", args[0])
		}
		p, err := path.Compile(src)
		if err != nil {
			return nil, err
		}
		var vars path.Variables
		if p.UsesVariables() {
			vars = ctx.pathVariables()
		}
		return p.Select(buf.Replay(), mt.namespaces, vars), nil
	}
}
