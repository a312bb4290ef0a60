// Package path compiles a restricted XPath-like expression language and
// evaluates it against markup event streams.
//
// Because the engine operates on streams rather than tree structures,
// only a subset of XPath 1.0 is supported: the child (default), self,
// descendant, descendant-or-self and attribute axes; name, wildcard and
// node-type tests; and predicates built from comparison operators,
// and/or/not, numeric position tests, variable references and a fixed
// function library. Absolute paths and the parent axis are rejected at
// compile time.
//
// A compiled Path is immutable and reusable. Each call to Matcher()
// returns a fresh, independent state machine bound to one traversal of
// one stream; the Path itself holds no per-traversal state.
package path
