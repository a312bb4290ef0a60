// Package expr implements the embedded expression language used in
// template directives and ${...} interpolation. The language is a
// small, host-independent grammar: literals, variable references,
// field access, indexing, function calls and the usual boolean,
// comparison and arithmetic operators. Expressions are compiled once
// and evaluated many times against a Scope.
//
// The package also parses the two "plan" forms directives need:
// assignment plans ("x = expr", with tuple unpacking) and definition
// signatures ("name(arg, other=default)").
package expr
