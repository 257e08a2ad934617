package evaluator

import (
	"fmt"
	"sort"
)

// undefinedMarker is the type of Undefined.
type undefinedMarker struct{}

func (undefinedMarker) String() string { return "undefined" }

// Undefined marks a name that is known to be out of scope. Binding it makes
// Check report the identifier as not defined; Compute treats it as
// indeterminate.
var Undefined interface{} = undefinedMarker{}

// Binding is one name/value pair for EvalContext.Bind.
type Binding struct {
	Name  string
	Value interface{}
}

// EvalContext is the variable environment of an evaluation.
//
// Every name maps to a stack of values; the top of the stack is the visible
// binding. Nested scopes shadow outer ones by pushing and restore them by
// popping in reverse order. Bind returns a release function that performs
// those pops, so a scope is typically written as
//
//	defer ctx.Bind(evaluator.Binding{Name: "item", Value: v})()
//
// A value may be a concrete JSON-like value, a typesystem.Type (the name is
// known by type only) or Undefined.
//
// An EvalContext is not safe for concurrent mutation. Concurrent lookups
// without writers are fine.
type EvalContext struct {
	values map[string][]interface{}
}

// NewContext creates an empty evaluation context.
func NewContext() *EvalContext {
	return &EvalContext{
		values: make(map[string][]interface{}),
	}
}

// NewContextWith creates a context with one binding per map entry.
func NewContextWith(bindings map[string]interface{}) *EvalContext {
	c := NewContext()
	for name, value := range bindings {
		c.Push(name, value)
	}
	return c
}

// Push binds value to name, shadowing any previous binding.
func (c *EvalContext) Push(name string, value interface{}) {
	c.values[name] = append(c.values[name], value)
}

// Pop removes the innermost binding of name. It returns false when name
// is not bound.
func (c *EvalContext) Pop(name string) bool {
	stack := c.values[name]
	if len(stack) == 0 {
		return false
	}
	stack[len(stack)-1] = nil
	if len(stack) == 1 {
		delete(c.values, name)
	} else {
		c.values[name] = stack[:len(stack)-1]
	}
	return true
}

// Lookup returns the innermost binding of name.
func (c *EvalContext) Lookup(name string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	stack := c.values[name]
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1], true
}

// Depth returns how many bindings of name are stacked.
func (c *EvalContext) Depth(name string) int {
	if c == nil {
		return 0
	}
	return len(c.values[name])
}

// Names returns the bound names, sorted.
func (c *EvalContext) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind pushes the bindings in order and returns a function that pops them
// in reverse order. Calling the release function more than once has no
// further effect.
func (c *EvalContext) Bind(bindings ...Binding) (release func()) {
	for _, b := range bindings {
		c.Push(b.Name, b.Value)
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		for i := len(bindings) - 1; i >= 0; i-- {
			c.Pop(bindings[i].Name)
		}
	}
}

// String returns a string representation of the context.
func (c *EvalContext) String() string {
	if c == nil {
		return "Context{}"
	}
	return fmt.Sprintf("Context{names=%d}", len(c.values))
}
