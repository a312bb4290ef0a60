// Package markup provides the event model shared by every other package.
//
// A markup document flows through the engine as a stream of events, a
// linearization of the document tree: every Start event has exactly one
// matching End event at the same nesting depth. Producers and consumers
// must preserve this balance invariant.
//
// This package contains value types only (events, qualified names,
// ordered attribute sets, namespaces) plus the Stream type and a small
// set of stream helpers. All other internal packages import markup;
// markup imports nothing internal. This keeps the event model the
// foundational layer with no circular dependencies.
package markup
