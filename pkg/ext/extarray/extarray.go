// Package extarray implements the members of the array type.
package extarray

import (
	"context"
	"reflect"
	"strings"

	"github.com/zhangrenfeng/axexpr/pkg/ext/extutil"
	"github.com/zhangrenfeng/axexpr/pkg/functions"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// Owner is the registered type the members belong to.
const Owner = "array"

// All returns every array member implementation.
func All() []functions.Entry {
	return []functions.Entry{
		Length(),
		IndexOf(),
		Includes(),
		Join(0),
		Join(1),
		Slice(1),
		Slice(2),
		Concat(),
	}
}

func method(name string, arity int, fn functions.MethodFunc) functions.MethodDef {
	return functions.MethodDef{Owner: Owner, Name: name, Arity: arity, Fn: fn}
}

// Length returns the definition of the length property.
func Length() functions.PropertyDef {
	return functions.PropertyDef{
		Owner: Owner,
		Name:  "length",
		Fn: func(_ context.Context, this interface{}) (interface{}, error) {
			a, err := extutil.Array("length", this)
			if err != nil {
				return nil, err
			}
			return float64(len(a)), nil
		},
	}
}

// IndexOf returns the definition of indexOf(value). Elements compare by
// kind and content, without numeric coercion.
func IndexOf() functions.MethodDef {
	return method("indexOf", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		a, err := extutil.Array("indexOf", this)
		if err != nil {
			return nil, err
		}
		return float64(find(a, args[0])), nil
	})
}

// Includes returns the definition of includes(value).
func Includes() functions.MethodDef {
	return method("includes", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		a, err := extutil.Array("includes", this)
		if err != nil {
			return nil, err
		}
		return find(a, args[0]) >= 0, nil
	})
}

func find(a []interface{}, v interface{}) int {
	v = typesystem.Normalize(v)
	for i, item := range a {
		if reflect.DeepEqual(typesystem.Normalize(item), v) {
			return i
		}
	}
	return -1
}

// Join returns the definition of join([separator]). The default separator
// is ","; null elements print as empty strings.
func Join(arity int) functions.MethodDef {
	return method("join", arity, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		a, err := extutil.Array("join", this)
		if err != nil {
			return nil, err
		}
		sep := ","
		if len(args) > 0 && args[0] != nil {
			sep = extutil.ToString(args[0])
		}
		parts := make([]string, len(a))
		for i, item := range a {
			if item != nil {
				parts[i] = extutil.ToString(item)
			}
		}
		return strings.Join(parts, sep), nil
	})
}

// Slice returns the definition of slice(start[, end]).
func Slice(arity int) functions.MethodDef {
	return method("slice", arity, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		a, err := extutil.Array("slice", this)
		if err != nil {
			return nil, err
		}
		start, end, err := extutil.SliceBounds("slice", args, len(a))
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, end-start)
		copy(out, a[start:end])
		return out, nil
	})
}

// Concat returns the definition of concat(...items). Array arguments are
// spread one level, other values are appended.
func Concat() functions.MethodDef {
	return method("concat", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		a, err := extutil.Array("concat", this)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(a), len(a)+len(args))
		copy(out, a)
		for _, arg := range args {
			if more, ok := typesystem.Normalize(arg).([]interface{}); ok {
				out = append(out, more...)
				continue
			}
			out = append(out, arg)
		}
		return out, nil
	})
}
