// Package extobject implements the members of the object type and the
// JSON globals.
//
// Object keys are returned in sorted order, since objects carry no key
// order of their own.
package extobject

import (
	"context"
	"fmt"
	"sort"

	"github.com/oarkflow/json"

	"github.com/zhangrenfeng/axexpr/pkg/ext/extutil"
	"github.com/zhangrenfeng/axexpr/pkg/functions"
)

// Owners of the members defined here.
const (
	Owner       = "object"
	GlobalOwner = "global"
)

// All returns every object implementation.
func All() []functions.Entry {
	return []functions.Entry{
		Keys(),
		Values(),
		HasOwnProperty(),
		Stringify(),
		ParseJSON(),
	}
}

func method(name string, arity int, fn functions.MethodFunc) functions.MethodDef {
	return functions.MethodDef{Owner: Owner, Name: name, Arity: arity, Fn: fn}
}

func sortedKeys(o map[string]interface{}) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns the definition of keys().
func Keys() functions.MethodDef {
	return method("keys", 0, func(_ context.Context, this interface{}, _ ...interface{}) (interface{}, error) {
		o, err := extutil.Object("keys", this)
		if err != nil {
			return nil, err
		}
		keys := sortedKeys(o)
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, nil
	})
}

// Values returns the definition of values(), ordered by key.
func Values() functions.MethodDef {
	return method("values", 0, func(_ context.Context, this interface{}, _ ...interface{}) (interface{}, error) {
		o, err := extutil.Object("values", this)
		if err != nil {
			return nil, err
		}
		keys := sortedKeys(o)
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = o[k]
		}
		return out, nil
	})
}

// HasOwnProperty returns the definition of hasOwnProperty(key).
func HasOwnProperty() functions.MethodDef {
	return method("hasOwnProperty", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		o, err := extutil.Object("hasOwnProperty", this)
		if err != nil {
			return nil, err
		}
		_, ok := o[extutil.ToString(args[0])]
		return ok, nil
	})
}

// Stringify returns the definition of the global stringify(value), which
// encodes a value as JSON text.
func Stringify() functions.MethodDef {
	return functions.MethodDef{
		Owner: GlobalOwner,
		Name:  "stringify",
		Arity: 1,
		Fn: func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
			data, err := json.Marshal(args[0])
			if err != nil {
				return nil, fmt.Errorf("stringify: %w", err)
			}
			return string(data), nil
		},
	}
}

// ParseJSON returns the definition of the global parseJSON(text).
func ParseJSON() functions.MethodDef {
	return functions.MethodDef{
		Owner: GlobalOwner,
		Name:  "parseJSON",
		Arity: 1,
		Fn: func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
			text, err := extutil.String("parseJSON", args[0])
			if err != nil {
				return nil, err
			}
			var v interface{}
			if err := json.Unmarshal([]byte(text), &v); err != nil {
				return nil, fmt.Errorf("parseJSON: %w", err)
			}
			return v, nil
		},
	}
}
