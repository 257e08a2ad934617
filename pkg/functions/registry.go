// Package functions provides the host-callable implementations that back the
// properties and methods of registered types.
//
// A type registry describes what members exist and what they return; the
// definitions here supply Go code that computes a member's value when the
// evaluator has a concrete receiver. Members without an implementation are
// still type-checked, they just evaluate to an indeterminate result.
//
// # Example
//
//	reg.BindMethod(functions.MethodDef{
//	    Owner: "string",
//	    Name:  "repeat",
//	    Arity: 1,
//	    Fn: func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
//	        n, _ := args[0].(float64)
//	        return strings.Repeat(this.(string), int(n)), nil
//	    },
//	})
package functions

import "context"

// MethodFunc implements a method call. this is the receiver value (nil for
// global functions); args are the evaluated arguments in order.
// The function should return a JSON-compatible value or an error.
type MethodFunc func(ctx context.Context, this interface{}, args ...interface{}) (interface{}, error)

// PropertyFunc implements a computed property read on this.
type PropertyFunc func(ctx context.Context, this interface{}) (interface{}, error)

// MethodDef binds a MethodFunc to the overload of Owner.Name taking Arity
// arguments.
type MethodDef struct {
	// Owner is the registered type name ("string", "array", "global", …).
	Owner string
	// Name is the method name as it appears in expressions.
	Name string
	// Arity selects the overload by parameter count.
	Arity int
	// Fn is the implementation.
	Fn MethodFunc
}

// PropertyDef binds a PropertyFunc to the property Owner.Name.
type PropertyDef struct {
	// Owner is the registered type name.
	Owner string
	// Name is the property name.
	Name string
	// Fn is the implementation.
	Fn PropertyFunc
}

// Entry is a common marker interface implemented by both [MethodDef] and
// [PropertyDef]. It allows mixing both kinds in one library slice.
type Entry interface {
	isEntry()
}

func (MethodDef) isEntry()   {}
func (PropertyDef) isEntry() {}

// Binder accepts implementations; a type registry satisfies it.
type Binder interface {
	BindMethod(def MethodDef) error
	BindProperty(def PropertyDef) error
}

// BindAll binds every entry, stopping at the first error.
func BindAll(b Binder, entries ...Entry) error {
	for _, e := range entries {
		var err error
		switch d := e.(type) {
		case MethodDef:
			err = b.BindMethod(d)
		case PropertyDef:
			err = b.BindProperty(d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
