// Package output serializes markup event streams. Four methods are
// supported: xml, xhtml, html and plain text. The serializer assumes a
// well-formed, balanced stream; escaping, empty-element syntax and
// namespace declarations are its concern, not the producer's.
package output
