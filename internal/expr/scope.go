package expr

// Scope resolves variable references during evaluation.
type Scope interface {
	Lookup(name string) (any, bool)
}

// LookupFunc adapts a plain function to the Scope interface.
type LookupFunc func(name string) (any, bool)

func (f LookupFunc) Lookup(name string) (any, bool) {
	return f(name)
}

// MapScope is a Scope backed by a single map.
type MapScope map[string]any

func (m MapScope) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Callable is the calling convention for functions exposed to
// expressions, including template-defined closures.
type Callable func(args []any, kwargs map[string]any) (any, error)
