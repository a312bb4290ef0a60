package markup

import "strings"

// QName is a qualified element or attribute name: an optional namespace
// URI plus a local name. Two QNames are equal iff both fields match, so
// the zero-value comparison operator does the right thing.
type QName struct {
	Namespace string
	Local     string
}

// Name builds a QName from either a bare local name or the
// "{uri}localname" form.
func Name(name string) QName {
	if strings.HasPrefix(name, "{") {
		if uri, local, ok := strings.Cut(name[1:], "}"); ok {
			return QName{Namespace: uri, Local: local}
		}
	}
	// Tolerate the brace-less "uri}local" form used by producers that
	// already split off the leading brace.
	if uri, local, ok := strings.Cut(name, "}"); ok && uri != "" {
		return QName{Namespace: uri, Local: local}
	}
	return QName{Local: name}
}

// String renders the QName in the "{uri}localname" form, or just the
// local name when there is no namespace.
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return "{" + q.Namespace + "}" + q.Local
}

// IsZero reports whether the QName is the zero value.
func (q QName) IsZero() bool {
	return q.Namespace == "" && q.Local == ""
}

// Namespace wraps a namespace URI and helps construct and test
// namespace-qualified names.
type Namespace string

// Contains reports whether the given QName belongs to this namespace.
func (ns Namespace) Contains(q QName) bool {
	return q.Namespace == string(ns)
}

// Name returns the QName for the given local name in this namespace.
func (ns Namespace) Name(local string) QName {
	return QName{Namespace: string(ns), Local: local}
}

// XMLNamespace is the namespace of attributes such as xml:lang.
const XMLNamespace = Namespace("http://www.w3.org/XML/1998/namespace")
