package evaluator

import "fmt"

// Result is the outcome of Compute: either a known value or indeterminate.
//
// Indeterminate means the value depends on information that is not
// available, typically an identifier bound only to a type. It is distinct
// from a known nil (null).
type Result struct {
	value interface{}
	known bool
}

// Known wraps a concrete value.
func Known(v interface{}) Result {
	return Result{value: v, known: true}
}

// Indeterminate returns the unknown result.
func Indeterminate() Result {
	return Result{}
}

// IsKnown reports whether the result carries a value.
func (r Result) IsKnown() bool {
	return r.known
}

// Value returns the value and whether it is known.
func (r Result) Value() (interface{}, bool) {
	return r.value, r.known
}

// ValueOr returns the value, or def when indeterminate.
func (r Result) ValueOr(def interface{}) interface{} {
	if !r.known {
		return def
	}
	return r.value
}

func (r Result) String() string {
	if !r.known {
		return "indeterminate"
	}
	return fmt.Sprintf("known(%v)", r.value)
}
