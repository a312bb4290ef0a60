package markup

import (
	"slices"
	"strings"
)

// Attr is a single (name, value) attribute pair.
type Attr struct {
	Name  QName
	Value string
}

// Attrs is an ordered sequence of attributes with unique names.
// Insertion order is significant and preserved by every operation.
//
// The derived operations Union and Difference are pure: they never
// mutate the receiver and always return a fresh slice.
type Attrs []Attr

// Get returns the value of the named attribute.
func (a Attrs) Get(name QName) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// GetLocal returns the value of the attribute whose un-namespaced name
// matches the given local name.
func (a Attrs) GetLocal(local string) (string, bool) {
	return a.Get(QName{Local: local})
}

// Has reports whether an attribute with the given name is present.
func (a Attrs) Has(name QName) bool {
	_, ok := a.Get(name)
	return ok
}

// Names returns the attribute names in order.
func (a Attrs) Names() []QName {
	names := make([]QName, len(a))
	for i, attr := range a {
		names[i] = attr.Name
	}
	return names
}

// With returns a copy of a with the named attribute set to value.
// An existing attribute keeps its position; a new one is appended.
func (a Attrs) With(name QName, value string) Attrs {
	out := slices.Clone(a)
	for i, attr := range out {
		if attr.Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Attr{Name: name, Value: value})
}

// Union merges two attribute sets. Values from other override values
// from a, but each surviving key of a keeps its original position; keys
// that only occur in other are appended in other's order.
func (a Attrs) Union(other Attrs) Attrs {
	out := make(Attrs, 0, len(a)+len(other))
	for _, attr := range a {
		if v, ok := other.Get(attr.Name); ok {
			out = append(out, Attr{Name: attr.Name, Value: v})
		} else {
			out = append(out, attr)
		}
	}
	for _, attr := range other {
		if !a.Has(attr.Name) {
			out = append(out, attr)
		}
	}
	return out
}

// Difference returns the attributes of a whose names are not in names,
// preserving order.
func (a Attrs) Difference(names ...QName) Attrs {
	out := make(Attrs, 0, len(a))
	for _, attr := range a {
		if !slices.Contains(names, attr.Name) {
			out = append(out, attr)
		}
	}
	return out
}

// JoinedValues concatenates all attribute values in order. Used when an
// attribute-axis path match is converted to a text event.
func (a Attrs) JoinedValues() string {
	var sb strings.Builder
	for _, attr := range a {
		sb.WriteString(attr.Value)
	}
	return sb.String()
}
