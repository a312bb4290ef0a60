package path

import (
	"github.com/loomkit/weft/internal/markup"
)

// guard is a compiled node test or predicate expression. Evaluation
// returns a dynamically typed value (see value.go); nil and false mean
// "no match".
type guard interface {
	eval(ev markup.Event, ns Namespaces, vars Variables) any
	String() string
}

// nodeTest is the guard used as the node test of a location step.
type nodeTest = guard

// principalTypeTest matches any event of the step's principal type:
// every element for element axes, every attribute for the attribute
// axis. Written "*".
type principalTypeTest struct {
	attr bool
}

func (t principalTypeTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind != markup.Start {
		return nil
	}
	if t.attr {
		if len(ev.Attrs) == 0 {
			return nil
		}
		return ev.Attrs
	}
	return true
}

func (t principalTypeTest) String() string { return attrPrefix(t.attr) + "*" }

// qualifiedPrincipalTypeTest matches any event of the principal type
// in a specific namespace. Written "prefix:*".
type qualifiedPrincipalTypeTest struct {
	attr   bool
	prefix string
}

func (t qualifiedPrincipalTypeTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind != markup.Start {
		return nil
	}
	namespace := markup.Namespace(ns[t.prefix])
	if t.attr {
		var matched markup.Attrs
		for _, attr := range ev.Attrs {
			if namespace.Contains(attr.Name) {
				matched = append(matched, attr)
			}
		}
		if len(matched) == 0 {
			return nil
		}
		return matched
	}
	return namespace.Contains(ev.Tag)
}

func (t qualifiedPrincipalTypeTest) String() string { return attrPrefix(t.attr) + t.prefix + ":*" }

// localNameTest matches events of the principal type with a given
// un-namespaced local name.
type localNameTest struct {
	attr bool
	name string
}

func (t localNameTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind != markup.Start {
		return nil
	}
	if t.attr {
		name := markup.QName{Local: t.name}
		if v, ok := ev.Attrs.Get(name); ok {
			return markup.Attrs{{Name: name, Value: v}}
		}
		return nil
	}
	return ev.Tag.Local == t.name
}

func (t localNameTest) String() string { return attrPrefix(t.attr) + t.name }

// qualifiedNameTest matches events of the principal type with a given
// prefixed name; the prefix is resolved through the namespace mapping
// at evaluation time.
type qualifiedNameTest struct {
	attr   bool
	prefix string
	name   string
}

func (t qualifiedNameTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind != markup.Start {
		return nil
	}
	qname := markup.QName{Namespace: ns[t.prefix], Local: t.name}
	if t.attr {
		if v, ok := ev.Attrs.Get(qname); ok {
			return markup.Attrs{{Name: markup.QName{Local: t.name}, Value: v}}
		}
		return nil
	}
	return ev.Tag == qname
}

func (t qualifiedNameTest) String() string { return attrPrefix(t.attr) + t.prefix + ":" + t.name }

func attrPrefix(attr bool) string {
	if attr {
		return "@"
	}
	return ""
}

// commentNodeTest matches comment events. Written "comment()".
type commentNodeTest struct{}

func (commentNodeTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return ev.Kind == markup.Comment
}

func (commentNodeTest) String() string { return "comment()" }

// anyNodeTest matches any node: true for start events (subtree match),
// the event itself otherwise. Written "node()" or ".".
type anyNodeTest struct{}

func (anyNodeTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	if ev.Kind == markup.Start {
		return true
	}
	return ev
}

func (anyNodeTest) String() string { return "node()" }

// piNodeTest matches processing instruction events, optionally only
// those with a given target.
type piNodeTest struct {
	target string
}

func (t piNodeTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return ev.Kind == markup.ProcInst && (t.target == "" || ev.Target == t.target)
}

func (t piNodeTest) String() string {
	if t.target != "" {
		return `processing-instruction("` + t.target + `")`
	}
	return "processing-instruction()"
}

// textNodeTest matches text events. Written "text()".
type textNodeTest struct{}

func (textNodeTest) eval(ev markup.Event, ns Namespaces, vars Variables) any {
	return ev.Kind == markup.Text
}

func (textNodeTest) String() string { return "text()" }
