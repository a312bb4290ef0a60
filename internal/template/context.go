package template

import (
	"fmt"

	"github.com/loomkit/weft/internal/expr"
	"github.com/loomkit/weft/internal/path"
)

// Context carries the variable bindings and match template registry of
// one rendering. Bindings live in a stack of scope frames; lookups walk
// from the innermost frame outward. A Context is not safe for
// concurrent use; renderings that must run in parallel each take their
// own Context.
type Context struct {
	frames  []map[string]any
	matches matchRegistry
}

var _ expr.Scope = (*Context)(nil)

// NewContext returns a context with the given bindings in its base
// frame. Built-in template functions occupy a frame below it, so user
// data may shadow them.
func NewContext(data map[string]any) *Context {
	c := &Context{}
	c.frames = append(c.frames, c.builtins())
	if data == nil {
		data = map[string]any{}
	}
	c.frames = append(c.frames, data)
	return c
}

// Push enters a new innermost scope frame.
func (c *Context) Push(frame map[string]any) {
	if frame == nil {
		frame = map[string]any{}
	}
	c.frames = append(c.frames, frame)
}

// Pop leaves the innermost scope frame.
func (c *Context) Pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

// Lookup resolves a name against the frame stack, innermost first.
func (c *Context) Lookup(name string) (any, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds a name in the innermost frame.
func (c *Context) Set(name string, value any) {
	c.frames[len(c.frames)-1][name] = value
}

// find returns the value of a name together with the frame holding it,
// so state keys can be updated in place where they were declared.
func (c *Context) find(name string) (any, map[string]any) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i][name]; ok {
			return v, c.frames[i]
		}
	}
	return nil, nil
}

// pathVariables snapshots the visible bindings as path variables.
// Inner frames shadow outer ones.
func (c *Context) pathVariables() path.Variables {
	vars := path.Variables{}
	for _, frame := range c.frames {
		for name, value := range frame {
			vars[name] = value
		}
	}
	return vars
}

// builtins are always in scope unless shadowed.
func (c *Context) builtins() map[string]any {
	return map[string]any{
		"defined": expr.Callable(func(args []any, kwargs map[string]any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("defined() takes exactly one argument")
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("defined() wants a variable name, got %T", args[0])
			}
			_, ok = c.Lookup(name)
			return ok, nil
		}),
		"value_of": expr.Callable(func(args []any, kwargs map[string]any) (any, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, fmt.Errorf("value_of() takes one or two arguments")
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("value_of() wants a variable name, got %T", args[0])
			}
			if v, ok := c.Lookup(name); ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, nil
		}),
	}
}
