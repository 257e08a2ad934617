// Package exttypes implements the conversion and type predicate globals.
package exttypes

import (
	"context"

	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/functions"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// Owner is the registered type the functions belong to.
const Owner = "global"

// All returns every conversion and predicate implementation.
func All() []functions.Entry {
	return []functions.Entry{
		String(),
		Boolean(),
		TypeOf(),
		IsString(),
		IsNumber(),
		IsBoolean(),
		IsArray(),
		IsObject(),
		IsNull(),
		IsEmpty(),
	}
}

func global(name string, fn func(v interface{}) interface{}) functions.MethodDef {
	return functions.MethodDef{
		Owner: Owner,
		Name:  name,
		Arity: 1,
		Fn: func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
			return fn(typesystem.Normalize(args[0])), nil
		},
	}
}

// String returns the definition of String(value).
func String() functions.MethodDef {
	return global("String", func(v interface{}) interface{} {
		return evaluator.ToString(v)
	})
}

// Boolean returns the definition of Boolean(value).
func Boolean() functions.MethodDef {
	return global("Boolean", func(v interface{}) interface{} {
		return evaluator.BoolValue(v)
	})
}

// TypeOf returns the definition of typeOf(value), the runtime type name.
func TypeOf() functions.MethodDef {
	return global("typeOf", func(v interface{}) interface{} {
		return evaluator.TypeName(v)
	})
}

// IsString returns the definition of isString(value).
func IsString() functions.MethodDef {
	return global("isString", func(v interface{}) interface{} {
		_, ok := v.(string)
		return ok
	})
}

// IsNumber returns the definition of isNumber(value).
func IsNumber() functions.MethodDef {
	return global("isNumber", func(v interface{}) interface{} {
		_, ok := v.(float64)
		return ok
	})
}

// IsBoolean returns the definition of isBoolean(value).
func IsBoolean() functions.MethodDef {
	return global("isBoolean", func(v interface{}) interface{} {
		_, ok := v.(bool)
		return ok
	})
}

// IsArray returns the definition of isArray(value).
func IsArray() functions.MethodDef {
	return global("isArray", func(v interface{}) interface{} {
		_, ok := v.([]interface{})
		return ok
	})
}

// IsObject returns the definition of isObject(value).
func IsObject() functions.MethodDef {
	return global("isObject", func(v interface{}) interface{} {
		_, ok := v.(map[string]interface{})
		return ok
	})
}

// IsNull returns the definition of isNull(value).
func IsNull() functions.MethodDef {
	return global("isNull", func(v interface{}) interface{} {
		return v == nil
	})
}

// IsEmpty returns the definition of isEmpty(value): true for null, "",
// empty arrays and empty objects.
func IsEmpty() functions.MethodDef {
	return global("isEmpty", func(v interface{}) interface{} {
		switch x := v.(type) {
		case nil:
			return true
		case string:
			return x == ""
		case []interface{}:
			return len(x) == 0
		case map[string]interface{}:
			return len(x) == 0
		}
		return false
	})
}
