// Package extnumeric implements the number members and the numeric global
// functions (parseInt, parseFloat, isNaN, Number, abs, floor, ceil, round,
// min, max).
package extnumeric

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extutil"
	"github.com/zhangrenfeng/axexpr/pkg/functions"
)

// Owners of the members defined here.
const (
	Owner       = "number"
	GlobalOwner = "global"
)

// All returns every numeric implementation.
func All() []functions.Entry {
	return []functions.Entry{
		ToFixed(),
		ToString(0),
		ToString(1),
		ParseInt(1),
		ParseInt(2),
		ParseFloat(),
		IsNaN(),
		Number(),
		Abs(),
		Floor(),
		Ceil(),
		Round(),
		Min(),
		Max(),
	}
}

func global(name string, arity int, fn functions.MethodFunc) functions.MethodDef {
	return functions.MethodDef{Owner: GlobalOwner, Name: name, Arity: arity, Fn: fn}
}

// unary wraps a float function as a one-argument global.
func unary(name string, fn func(float64) float64) functions.MethodDef {
	return global(name, 1, func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
		n, err := extutil.Number(name, args[0])
		if err != nil {
			return nil, err
		}
		return fn(n), nil
	})
}

// ToFixed returns the definition of number.toFixed(digits).
func ToFixed() functions.MethodDef {
	return functions.MethodDef{
		Owner: Owner,
		Name:  "toFixed",
		Arity: 1,
		Fn: func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
			n, err := extutil.Number("toFixed", this)
			if err != nil {
				return nil, err
			}
			digits, err := extutil.Integer("toFixed", args[0])
			if err != nil {
				return nil, err
			}
			if digits < 0 || digits > 100 {
				return nil, fmt.Errorf("toFixed: digits %d out of range", digits)
			}
			if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) >= 1e21 {
				return evaluator.ToString(n), nil
			}
			return fixed(n, digits), nil
		},
	}
}

// ToString returns the definition of number.toString([radix]).
func ToString(arity int) functions.MethodDef {
	return functions.MethodDef{
		Owner: Owner,
		Name:  "toString",
		Arity: arity,
		Fn: func(_ context.Context, this interface{}, args ...interface{}) (interface{}, error) {
			n, err := extutil.Number("toString", this)
			if err != nil {
				return nil, err
			}
			if len(args) == 0 || args[0] == nil {
				return evaluator.ToString(n), nil
			}
			radix, err := extutil.Integer("toString", args[0])
			if err != nil {
				return nil, err
			}
			if radix < 2 || radix > 36 {
				return nil, fmt.Errorf("toString: radix %d out of range", radix)
			}
			if radix == 10 || math.IsNaN(n) || math.IsInf(n, 0) {
				return evaluator.ToString(n), nil
			}
			return radixString(n, radix), nil
		},
	}
}

// fixed formats x with digits decimals. The exact binary value is rounded,
// and ties round away from zero.
func fixed(x float64, digits int) string {
	r := new(big.Rat).SetFloat64(math.Abs(x))
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	s := new(big.Int).Quo(r.Num(), r.Denom()).String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if x < 0 {
		s = "-" + s
	}
	return s
}

// radixString formats a finite x in the given radix. Fraction digits stop
// once they no longer distinguish x from its neighbouring float64 values.
func radixString(x float64, radix int) string {
	neg := x < 0
	x = math.Abs(x)
	integer := math.Floor(x)
	fraction := x - integer

	delta := math.Max(0.5*(math.Nextafter(x, math.Inf(1))-x), math.SmallestNonzeroFloat64)
	var frac []byte
	if fraction >= delta {
		for {
			fraction *= float64(radix)
			delta *= float64(radix)
			digit := int(fraction)
			frac = append(frac, digitChars[digit])
			fraction -= float64(digit)
			if fraction > 0.5 || (fraction == 0.5 && digit&1 == 1) {
				if fraction+delta > 1 {
					frac, integer = roundUp(frac, integer, radix)
					break
				}
			}
			if fraction < delta {
				break
			}
		}
	}

	i, _ := new(big.Float).SetFloat64(integer).Int(nil)
	s := i.Text(radix)
	if len(frac) > 0 {
		s += "." + string(frac)
	}
	if neg {
		s = "-" + s
	}
	return s
}

const digitChars = "0123456789abcdefghijklmnopqrstuvwxyz"

// roundUp adds one unit in the last place of frac, dropping the digits that
// carry and carrying into integer when every digit does.
func roundUp(frac []byte, integer float64, radix int) ([]byte, float64) {
	for len(frac) > 0 {
		last := len(frac) - 1
		d := strings.IndexByte(digitChars, frac[last])
		if d+1 < radix {
			frac[last] = digitChars[d+1]
			return frac, integer
		}
		frac = frac[:last]
	}
	return frac, integer + 1
}

// ParseInt returns the definition of parseInt(text[, radix]). It reads the
// longest integer prefix and yields NaN when there is none. Without a radix,
// a "0x" prefix selects base 16.
func ParseInt(arity int) functions.MethodDef {
	return global("parseInt", arity, func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
		s := strings.TrimSpace(extutil.ToString(args[0]))
		radix := 0
		if len(args) > 1 && args[1] != nil {
			r, err := extutil.Integer("parseInt", args[1])
			if err != nil {
				return nil, err
			}
			radix = r
		}
		if radix != 0 && (radix < 2 || radix > 36) {
			return math.NaN(), nil
		}

		sign := 1.0
		if s != "" && (s[0] == '+' || s[0] == '-') {
			if s[0] == '-' {
				sign = -1
			}
			s = s[1:]
		}
		if (radix == 0 || radix == 16) && len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s, radix = s[2:], 16
		}
		if radix == 0 {
			radix = 10
		}

		result, digits := 0.0, 0
		for _, c := range strings.ToLower(s) {
			var d int
			switch {
			case c >= '0' && c <= '9':
				d = int(c - '0')
			case c >= 'a' && c <= 'z':
				d = int(c-'a') + 10
			default:
				d = radix
			}
			if d >= radix {
				break
			}
			result = result*float64(radix) + float64(d)
			digits++
		}
		if digits == 0 {
			return math.NaN(), nil
		}
		return sign * result, nil
	})
}

// ParseFloat returns the definition of parseFloat(text). It reads the
// longest decimal prefix and yields NaN when there is none.
func ParseFloat() functions.MethodDef {
	return global("parseFloat", 1, func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
		s := strings.TrimSpace(extutil.ToString(args[0]))
		end := floatPrefix(s)
		if end == 0 {
			if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") {
				return math.Inf(1), nil
			}
			if strings.HasPrefix(s, "-Infinity") {
				return math.Inf(-1), nil
			}
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
				return math.NaN(), nil
			}
		}
		return f, nil
	})
}

// floatPrefix returns the length of the longest prefix of s that is a
// decimal number.
func floatPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	mantissa := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			mantissa++
		}
		if mantissa > 0 {
			i = j
		}
	}
	if mantissa == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

// IsNaN returns the definition of isNaN(value).
func IsNaN() functions.MethodDef {
	return global("isNaN", 1, func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
		n, ok := evaluator.ToNumber(args[0])
		return !ok || math.IsNaN(n), nil
	})
}

// Number returns the definition of Number(value). Values that do not
// convert yield NaN.
func Number() functions.MethodDef {
	return global("Number", 1, func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
		n, ok := evaluator.ToNumber(args[0])
		if !ok {
			return math.NaN(), nil
		}
		return n, nil
	})
}

// Abs returns the definition of abs(x).
func Abs() functions.MethodDef { return unary("abs", math.Abs) }

// Floor returns the definition of floor(x).
func Floor() functions.MethodDef { return unary("floor", math.Floor) }

// Ceil returns the definition of ceil(x).
func Ceil() functions.MethodDef { return unary("ceil", math.Ceil) }

// Round returns the definition of round(x). Halves round up, toward
// positive infinity.
func Round() functions.MethodDef {
	return unary("round", func(x float64) float64 {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return x
		}
		return math.Floor(x + 0.5)
	})
}

// Min returns the definition of min(...values).
func Min() functions.MethodDef {
	return global("min", 1, func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
		return fold("min", args, math.Inf(1), math.Min)
	})
}

// Max returns the definition of max(...values).
func Max() functions.MethodDef {
	return global("max", 1, func(_ context.Context, _ interface{}, args ...interface{}) (interface{}, error) {
		return fold("max", args, math.Inf(-1), math.Max)
	})
}

func fold(name string, args []interface{}, acc float64, fn func(a, b float64) float64) (interface{}, error) {
	for _, arg := range args {
		n, err := extutil.Number(name, arg)
		if err != nil {
			return nil, err
		}
		acc = fn(acc, n)
	}
	return acc, nil
}
