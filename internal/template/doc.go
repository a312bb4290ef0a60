// Package template implements a streaming markup templating language:
// documents annotated with directive attributes and expression
// interpolation, compiled once and rendered against variable bindings
// as lazy event streams.
//
// A template is parsed into a compiled item tree. Rendering walks the
// tree applying directives, evaluates expressions in document order,
// and finally runs the match resolver, which rewrites subtrees selected
// by registered match templates.
package template
