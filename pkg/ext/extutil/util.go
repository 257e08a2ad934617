// Package extutil provides shared helpers for the ext sub-packages.
package extutil

import (
	"fmt"
	"math"

	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// String returns v as a string, failing with a message naming member when
// v has another type.
func String(member string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %s", member, evaluator.TypeName(v))
	}
	return s, nil
}

// Array returns v as an array.
func Array(member string, v interface{}) ([]interface{}, error) {
	a, ok := typesystem.Normalize(v).([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %s", member, evaluator.TypeName(v))
	}
	return a, nil
}

// Object returns v as an object.
func Object(member string, v interface{}) (map[string]interface{}, error) {
	o, ok := typesystem.Normalize(v).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected object, got %s", member, evaluator.TypeName(v))
	}
	return o, nil
}

// Number coerces v to a number.
func Number(member string, v interface{}) (float64, error) {
	n, ok := evaluator.ToNumber(v)
	if !ok {
		return 0, fmt.Errorf("%s: expected number, got %s", member, evaluator.TypeName(v))
	}
	return n, nil
}

// Integer coerces v to a number and truncates it toward zero. NaN reads as
// zero; infinities saturate.
func Integer(member string, v interface{}) (int, error) {
	n, err := Number(member, v)
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(n):
		return 0, nil
	case n > math.MaxInt32:
		return math.MaxInt32, nil
	case n < math.MinInt32:
		return math.MinInt32, nil
	}
	return int(n), nil
}

// Arg returns args[i], or nil when fewer arguments were passed.
func Arg(args []interface{}, i int) interface{} {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// RelativeIndex resolves a possibly negative index against length and
// clamps it to [0, length].
func RelativeIndex(i, length int) int {
	if i < 0 {
		i += length
		if i < 0 {
			return 0
		}
	}
	if i > length {
		return length
	}
	return i
}

// SliceBounds resolves slice(start[, end]) arguments against length.
func SliceBounds(member string, args []interface{}, length int) (int, int, error) {
	start, end := 0, length
	if len(args) > 0 {
		s, err := Integer(member, args[0])
		if err != nil {
			return 0, 0, err
		}
		start = RelativeIndex(s, length)
	}
	if len(args) > 1 && args[1] != nil {
		e, err := Integer(member, args[1])
		if err != nil {
			return 0, 0, err
		}
		end = RelativeIndex(e, length)
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

// ToString converts v to its string form.
func ToString(v interface{}) string {
	return evaluator.ToString(v)
}
