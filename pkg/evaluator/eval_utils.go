package evaluator

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// BoolValue converts a value to a boolean.
//
// null, false, 0, NaN and "" are falsy; arrays and objects are truthy
// even when empty.
func BoolValue(value interface{}) bool {
	switch v := typesystem.Normalize(value).(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	case undefinedMarker:
		return false
	default:
		return true
	}
}

// ToNumber coerces a value to a number. It fails for arrays, objects and
// strings that do not read as a number.
func ToNumber(value interface{}) (float64, bool) {
	switch v := typesystem.Normalize(value).(type) {
	case nil:
		return 0, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		return v, true
	case string:
		return parseNumeric(v)
	}
	return 0, false
}

// parseNumeric reads a string the way a numeric conversion does: blank
// strings are zero, surrounding whitespace is ignored.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		return float64(n), err == nil
	}
	// strconv also reads hex floats, underscores and inf/nan spellings.
	if strings.ContainsAny(s, "xXpP_nN") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// ToString converts a value to its string form.
func ToString(value interface{}) string {
	switch v := typesystem.Normalize(value).(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return types.FormatNumber(v)
	case string:
		return v
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			if item != nil {
				parts[i] = ToString(item)
			}
		}
		return strings.Join(parts, ",")
	case map[string]interface{}:
		return "[object Object]"
	case undefinedMarker:
		return "undefined"
	case typesystem.Type:
		return v.String()
	}
	return "null"
}

// IsEqual implements == between two values.
//
// Values of the same kind compare strictly; arrays and objects compare by
// content. Numbers, booleans and numeric strings are compared as numbers
// when their kinds differ. Anything else is unequal.
func IsEqual(a, b interface{}) bool {
	a = typesystem.Normalize(a)
	b = typesystem.Normalize(b)

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case bool:
		if y, ok := b.(bool); ok {
			return x == y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x == y
		}
	case string:
		if y, ok := b.(string); ok {
			return x == y
		}
	case []interface{}:
		if y, ok := b.([]interface{}); ok {
			return reflect.DeepEqual(x, y)
		}
		return false
	case map[string]interface{}:
		if y, ok := b.(map[string]interface{}); ok {
			return reflect.DeepEqual(x, y)
		}
		return false
	default:
		return false
	}

	if !isScalar(b) {
		return false
	}
	x, ok1 := ToNumber(a)
	y, ok2 := ToNumber(b)
	return ok1 && ok2 && x == y
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case bool, float64, string:
		return true
	}
	return false
}

// TypeName returns the runtime type name of a value as used in messages.
func TypeName(value interface{}) string {
	switch typesystem.Normalize(value).(type) {
	case nil:
		return typesystem.NameNull
	case bool:
		return typesystem.NameBoolean
	case float64:
		return typesystem.NameNumber
	case string:
		return typesystem.NameString
	case []interface{}:
		return typesystem.NameArray
	case map[string]interface{}:
		return typesystem.NameObject
	}
	return typesystem.NameAny
}
