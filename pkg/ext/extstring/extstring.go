// Package extstring implements the members of the string type.
//
// Positions and lengths count characters (runes), so indexing, slicing and
// length agree with each other for non-ASCII text.
package extstring

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/zhangrenfeng/axexpr/pkg/ext/extutil"
	"github.com/zhangrenfeng/axexpr/pkg/functions"
)

// Owner is the registered type the members belong to.
const Owner = "string"

// All returns every string member implementation.
func All() []functions.Entry {
	return []functions.Entry{
		Length(),
		IndexOf(1),
		IndexOf(2),
		Slice(1),
		Slice(2),
		Substring(1),
		Substring(2),
		ToUpperCase(),
		ToLowerCase(),
		Trim(),
		Split(1),
		Split(2),
		Includes(),
		StartsWith(),
		EndsWith(),
		Replace(),
		CharAt(),
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
			s, err := extutil.String("length", this)
			if err != nil {
				return nil, err
			}
			return float64(utf8.RuneCountInString(s)), nil
		},
	}
}

// IndexOf returns the definition of indexOf(search[, from]).
// The result is -1 when search does not occur.
func IndexOf(arity int) functions.MethodDef {
	return method("indexOf", arity, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("indexOf", this)
		if err != nil {
			return nil, err
		}
		search := extutil.ToString(args[0])
		runes := []rune(s)
		from := 0
		if len(args) > 1 {
			if from, err = extutil.Integer("indexOf", args[1]); err != nil {
				return nil, err
			}
			if from < 0 {
				from = 0
			}
		}
		if from > len(runes) {
			from = len(runes)
		}
		idx := strings.Index(string(runes[from:]), search)
		if idx < 0 {
			return float64(-1), nil
		}
		return float64(from + utf8.RuneCountInString(string(runes[from:])[:idx])), nil
	})
}

// Slice returns the definition of slice(start[, end]). Negative positions
// count from the end.
func Slice(arity int) functions.MethodDef {
	return method("slice", arity, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("slice", this)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		start, end, err := extutil.SliceBounds("slice", args, len(runes))
		if err != nil {
			return nil, err
		}
		return string(runes[start:end]), nil
	})
}

// Substring returns the definition of substring(start[, end]). Negative
// positions clamp to zero and swapped bounds are reordered.
func Substring(arity int) functions.MethodDef {
	return method("substring", arity, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("substring", this)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		clamp := func(v interface{}) (int, error) {
			i, err := extutil.Integer("substring", v)
			if err != nil {
				return 0, err
			}
			if i < 0 {
				return 0, nil
			}
			if i > len(runes) {
				return len(runes), nil
			}
			return i, nil
		}
		start, err := clamp(args[0])
		if err != nil {
			return nil, err
		}
		end := len(runes)
		if len(args) > 1 && args[1] != nil {
			if end, err = clamp(args[1]); err != nil {
				return nil, err
			}
		}
		if start > end {
			start, end = end, start
		}
		return string(runes[start:end]), nil
	})
}

// ToUpperCase returns the definition of toUpperCase().
func ToUpperCase() functions.MethodDef {
	return method("toUpperCase", 0, func(_ context.Context, this interface{}, _ ...interface{}) (interface{}, error) {
		s, err := extutil.String("toUpperCase", this)
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(s), nil
	})
}

// ToLowerCase returns the definition of toLowerCase().
func ToLowerCase() functions.MethodDef {
	return method("toLowerCase", 0, func(_ context.Context, this interface{}, _ ...interface{}) (interface{}, error) {
		s, err := extutil.String("toLowerCase", this)
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil
	})
}

// Trim returns the definition of trim().
func Trim() functions.MethodDef {
	return method("trim", 0, func(_ context.Context, this interface{}, _ ...interface{}) (interface{}, error) {
		s, err := extutil.String("trim", this)
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(s), nil
	})
}

// Split returns the definition of split(separator[, limit]). An empty
// separator splits into characters.
func Split(arity int) functions.MethodDef {
	return method("split", arity, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("split", this)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(s, extutil.ToString(args[0]))
		if len(args) > 1 && args[1] != nil {
			limit, err := extutil.Integer("split", args[1])
			if err != nil {
				return nil, err
			}
			if limit >= 0 && limit < len(parts) {
				parts = parts[:limit]
			}
		}
		out := make([]interface{}, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	})
}

// Includes returns the definition of includes(search).
func Includes() functions.MethodDef {
	return method("includes", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("includes", this)
		if err != nil {
			return nil, err
		}
		return strings.Contains(s, extutil.ToString(args[0])), nil
	})
}

// StartsWith returns the definition of startsWith(prefix).
func StartsWith() functions.MethodDef {
	return method("startsWith", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("startsWith", this)
		if err != nil {
			return nil, err
		}
		return strings.HasPrefix(s, extutil.ToString(args[0])), nil
	})
}

// EndsWith returns the definition of endsWith(suffix).
func EndsWith() functions.MethodDef {
	return method("endsWith", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("endsWith", this)
		if err != nil {
			return nil, err
		}
		return strings.HasSuffix(s, extutil.ToString(args[0])), nil
	})
}

// Replace returns the definition of replace(search, replacement), which
// replaces the first occurrence only.
func Replace() functions.MethodDef {
	return method("replace", 2, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("replace", this)
		if err != nil {
			return nil, err
		}
		return strings.Replace(s, extutil.ToString(args[0]), extutil.ToString(args[1]), 1), nil
	})
}

// CharAt returns the definition of charAt(index). Out of range yields "".
func CharAt() functions.MethodDef {
	return method("charAt", 1, func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
		s, err := extutil.String("charAt", this)
		if err != nil {
			return nil, err
		}
		i, err := extutil.Integer("charAt", args[0])
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if i < 0 || i >= len(runes) {
			return "", nil
		}
		return string(runes[i]), nil
	})
}
