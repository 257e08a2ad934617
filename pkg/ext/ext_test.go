package ext_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/zhangrenfeng/axexpr/pkg/dialect"
	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/ext"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extarray"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extnumeric"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extobject"
	"github.com/zhangrenfeng/axexpr/pkg/ext/extstring"
	"github.com/zhangrenfeng/axexpr/pkg/functions"
	"github.com/zhangrenfeng/axexpr/pkg/parser"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

var sample = map[string]interface{}{
	"s":     "Hello World",
	"u":     "héllo",
	"pad":   "  hi  ",
	"csv":   "a,b,,c",
	"n":     3.14159,
	"i":     255,
	"arr":   []interface{}{1.0, "two", nil, 3.0},
	"nums":  []interface{}{3.0, 1.0, 2.0},
	"obj":   map[string]interface{}{"b": 2.0, "a": 1.0},
	"empty": map[string]interface{}{},
}

func eval(t *testing.T, reg *typesystem.Registry, src string) interface{} {
	t.Helper()
	expr, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	ev := evaluator.New(evaluator.WithRegistry(reg))
	r := ev.Compute(context.Background(), expr, evaluator.NewContextWith(sample))
	v, ok := r.Value()
	if !ok {
		t.Fatalf("Compute(%q) is indeterminate", src)
	}
	return v
}

func runTable(t *testing.T, reg *typesystem.Registry, tests []struct {
	expr string
	want interface{}
}) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := eval(t, reg, tt.expr)
			if f, ok := tt.want.(float64); ok && math.IsNaN(f) {
				if g, ok := got.(float64); !ok || !math.IsNaN(g) {
					t.Fatalf("expected NaN, got %#v", got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

// ── String members ─────────────────────────────────────────────────────────

func TestStringMembers(t *testing.T) {
	runTable(t, dialect.AXML(), []struct {
		expr string
		want interface{}
	}{
		{`s.length`, 11.0},
		{`u.length`, 5.0},
		{`s.indexOf("o")`, 4.0},
		{`s.indexOf("o", 5)`, 7.0},
		{`s.indexOf("z")`, -1.0},
		{`u.indexOf("l")`, 2.0},
		{`s.slice(6)`, "World"},
		{`s.slice(0, 5)`, "Hello"},
		{`s.slice(-5, -1)`, "Worl"},
		{`s.slice(8, 2)`, ""},
		{`u.slice(1, 2)`, "é"},
		{`s.substring(6, 0)`, "Hello "},
		{`s.substring(-3, 2)`, "He"},
		{`s.toUpperCase()`, "HELLO WORLD"},
		{`s.toLowerCase()`, "hello world"},
		{`pad.trim()`, "hi"},
		{`csv.split(",")`, []interface{}{"a", "b", "", "c"}},
		{`csv.split(",", 2)`, []interface{}{"a", "b"}},
		{`"abc".split("")`, []interface{}{"a", "b", "c"}},
		{`s.includes("lo W")`, true},
		{`s.startsWith("Hello")`, true},
		{`s.endsWith("Hello")`, false},
		{`"a-b-c".replace("-", "+")`, "a+b-c"},
		{`u.charAt(1)`, "é"},
		{`s.charAt(99)`, ""},
	})
}

// ── Array members ──────────────────────────────────────────────────────────

func TestArrayMembers(t *testing.T) {
	runTable(t, dialect.AXML(), []struct {
		expr string
		want interface{}
	}{
		{`arr.length`, 4.0},
		{`arr.indexOf("two")`, 1.0},
		{`arr.indexOf("1")`, -1.0},
		{`arr.indexOf(null)`, 2.0},
		{`[[1], [2]].indexOf([2])`, 1.0},
		{`nums.includes(2)`, true},
		{`nums.includes(5)`, false},
		{`arr.join()`, "1,two,,3"},
		{`nums.join(" / ")`, "3 / 1 / 2"},
		{`nums.slice(1)`, []interface{}{1.0, 2.0}},
		{`nums.slice(-2, -1)`, []interface{}{1.0}},
		{`nums.concat()`, []interface{}{3.0, 1.0, 2.0}},
		{`nums.concat([4, 5], 6, [[7]])`, []interface{}{3.0, 1.0, 2.0, 4.0, 5.0, 6.0, []interface{}{7.0}}},
	})
}

// ── Numeric members and globals ────────────────────────────────────────────

func TestNumericMembers(t *testing.T) {
	runTable(t, dialect.AXML(), []struct {
		expr string
		want interface{}
	}{
		{`n.toFixed(2)`, "3.14"},
		{`n.toFixed(0)`, "3"},
		{`i.toString()`, "255"},
		{`i.toString(16)`, "ff"},
		{`i.toString(2)`, "11111111"},
		{`(255.5).toString(16)`, "ff.8"},
		{`(-255.5).toString(16)`, "-ff.8"},
		{`(0.5).toString(2)`, "0.1"},
		{`(2.25).toString(2)`, "10.01"},
		{`(1e21).toFixed(2)`, "1e+21"},
		{`(2.5).toFixed(0)`, "3"},
		{`(-1.5).toFixed(0)`, "-2"},
		{`(1.005).toFixed(2)`, "1.00"},
		{`(0.000001).toFixed(2)`, "0.00"},
		{`(12).toFixed(1)`, "12.0"},
		{`parseInt("42px")`, 42.0},
		{`parseInt("0x1f")`, 31.0},
		{`parseInt("-0x10")`, -16.0},
		{`parseInt("0x1f", 10)`, 0.0},
		{`parseInt("  -17")`, -17.0},
		{`parseInt("ff", 16)`, 255.0},
		{`parseInt("0x1A", 16)`, 26.0},
		{`parseInt("px")`, math.NaN()},
		{`parseFloat("3.5e2abc")`, 350.0},
		{`parseFloat(".5")`, 0.5},
		{`parseFloat("-Infinity")`, math.Inf(-1)},
		{`parseFloat("abc")`, math.NaN()},
		{`isNaN("abc")`, true},
		{`isNaN("12")`, false},
		{`Number("  8 ")`, 8.0},
		{`Number(arr)`, math.NaN()},
		{`abs(-2)`, 2.0},
		{`floor(-1.5)`, -2.0},
		{`ceil(1.2)`, 2.0},
		{`round(2.5)`, 3.0},
		{`round(-2.5)`, -2.0},
		{`min(3, 1, 2)`, 1.0},
		{`max()`, math.Inf(-1)},
	})
}

// ── Objects and type predicates ────────────────────────────────────────────

func TestObjectAndTypeMembers(t *testing.T) {
	runTable(t, dialect.AXML(), []struct {
		expr string
		want interface{}
	}{
		{`obj.keys()`, []interface{}{"a", "b"}},
		{`obj.values()`, []interface{}{1.0, 2.0}},
		{`obj.hasOwnProperty("a")`, true},
		{`obj.hasOwnProperty("z")`, false},
		{`String(12)`, "12"},
		{`String(nums)`, "3,1,2"},
		{`String(null)`, "null"},
		{`Boolean("")`, false},
		{`Boolean(empty)`, true},
		{`typeOf(null)`, "null"},
		{`typeOf(obj)`, "object"},
		{`typeOf(i)`, "number"},
		{`isString(s)`, true},
		{`isNumber("1")`, false},
		{`isBoolean(false)`, true},
		{`isArray(nums)`, true},
		{`isObject(nums)`, false},
		{`isNull(null)`, true},
	})
}

// ── Mist globals ───────────────────────────────────────────────────────────

func TestMistGlobals(t *testing.T) {
	runTable(t, dialect.Mist(), []struct {
		expr string
		want interface{}
	}{
		{`isEmpty(null)`, true},
		{`isEmpty("")`, true},
		{`isEmpty([])`, true},
		{`isEmpty(empty)`, true},
		{`isEmpty(0)`, false},
		{`isEmpty(obj)`, false},
		{`stringify(obj)`, `{"a":1,"b":2}`},
		{`stringify([1, "x", null])`, `[1,"x",null]`},
		{`parseJSON("[1, {\"a\": true}]")`, []interface{}{1.0, map[string]interface{}{"a": true}}},
		{`parseJSON("{\"k\": \"v\"}").k`, "v"},
	})
}

// ── Failures ───────────────────────────────────────────────────────────────

func TestHostErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() (interface{}, error)
	}{
		{"string receiver", func() (interface{}, error) {
			return extstring.ToUpperCase().Fn(ctx, 1.0)
		}},
		{"array receiver", func() (interface{}, error) {
			return extarray.Join(0).Fn(ctx, "abc")
		}},
		{"object receiver", func() (interface{}, error) {
			return extobject.Keys().Fn(ctx, []interface{}{})
		}},
		{"numeric argument", func() (interface{}, error) {
			return extstring.Slice(1).Fn(ctx, "abc", []interface{}{})
		}},
		{"toFixed range", func() (interface{}, error) {
			return extnumeric.ToFixed().Fn(ctx, 1.0, 101.0)
		}},
		{"radix range", func() (interface{}, error) {
			return extnumeric.ToString(1).Fn(ctx, 10.0, 1.0)
		}},
		{"bad JSON", func() (interface{}, error) {
			return extobject.ParseJSON().Fn(ctx, nil, "{")
		}},
		{"JSON of non-string", func() (interface{}, error) {
			return extobject.ParseJSON().Fn(ctx, nil, 1.0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	// A failing member evaluates to an indeterminate result.
	expr, err := parser.Parse("n.toFixed(500)")
	if err != nil {
		t.Fatal(err)
	}
	ev := evaluator.New(evaluator.WithRegistry(dialect.AXML()))
	if r := ev.Compute(ctx, expr, evaluator.NewContextWith(sample)); r.IsKnown() {
		t.Fatalf("expected indeterminate, got %v", r)
	}
}

// ── Binding ────────────────────────────────────────────────────────────────

type recordingBinder struct {
	methods []string
	err     error
}

func (b *recordingBinder) BindMethod(def functions.MethodDef) error {
	b.methods = append(b.methods, def.Owner+"."+def.Name)
	return b.err
}

func (b *recordingBinder) BindProperty(def functions.PropertyDef) error {
	return b.err
}

func TestBind(t *testing.T) {
	reg := typesystem.NewRegistry("partial")
	err := reg.String.DefineMethod(&typesystem.Method{Name: "trim", Return: reg.String})
	if err != nil {
		t.Fatal(err)
	}
	if err := ext.Bind(reg); err != nil {
		t.Fatalf("expected undeclared members to be skipped, got %v", err)
	}
	if reg.String.Methods("trim")[0].Impl == nil {
		t.Fatal("expected trim to be bound")
	}

	b := &recordingBinder{}
	if err := ext.BindEntries(b, extstring.Trim(), extarray.Concat()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.methods, []string{"string.trim", "array.concat"}) {
		t.Fatalf("unexpected bindings %v", b.methods)
	}

	boom := errors.New("boom")
	if err := ext.BindEntries(&recordingBinder{err: boom}, extstring.Trim()); !errors.Is(err, boom) {
		t.Fatalf("expected binder error, got %v", err)
	}

	sealed := typesystem.NewRegistry("sealed")
	sealed.Seal()
	if err := ext.Bind(sealed); !errors.Is(err, typesystem.ErrRegistrySealed) {
		t.Fatalf("expected ErrRegistrySealed, got %v", err)
	}
}

func TestAllUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, e := range ext.All() {
		var key string
		switch d := e.(type) {
		case functions.MethodDef:
			key = d.Owner + "." + d.Name + "/" + string(rune('0'+d.Arity))
		case functions.PropertyDef:
			key = d.Owner + "." + d.Name
		}
		if seen[key] {
			t.Fatalf("duplicate implementation %s", key)
		}
		seen[key] = true
	}
}
