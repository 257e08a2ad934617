package typesystem_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zhangrenfeng/axexpr/pkg/functions"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

func ann(t *testing.T, reg *typesystem.Registry, src string) typesystem.Type {
	t.Helper()
	typ, err := typesystem.ParseAnnotation(reg, src)
	if err != nil {
		t.Fatalf("ParseAnnotation(%q): %v", src, err)
	}
	return typ
}

func TestUnionNormalization(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	tests := []struct {
		name    string
		members []typesystem.Type
		want    string
	}{
		{"empty", nil, "any"},
		{"single", []typesystem.Type{reg.Number}, "number"},
		{"duplicates", []typesystem.Type{reg.Number, reg.Number}, "number"},
		{"ordered", []typesystem.Type{reg.Number, reg.String}, "number | string"},
		{"any absorbs", []typesystem.Type{reg.Number, reg.Any, reg.String}, "any"},
		{"literal then base", []typesystem.Type{reg.Literal("a"), reg.String}, "string"},
		{"base then literal", []typesystem.Type{reg.String, reg.Literal("a")}, "string"},
		{"null literal", []typesystem.Type{reg.String, reg.Literal(nil)}, "string"},
		{"null literal first", []typesystem.Type{reg.Literal(nil), reg.Number}, "number"},
		{"literals", []typesystem.Type{reg.Literal("left"), reg.Literal("right")}, `"left" | "right"`},
		{"nested", []typesystem.Type{reg.Union(reg.Number, reg.String), reg.Boolean}, "number | string | boolean"},
		{"array subsumed", []typesystem.Type{reg.ArrayOf(reg.Number), reg.Tuple(reg.Literal(1.0))}, "number[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Union(tt.members...).String(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIntersection(t *testing.T) {
	reg := typesystem.NewRegistry("test")
	a := ann(t, reg, "{a: number}")
	b := ann(t, reg, "{b: string}")

	x := reg.Intersection(a, b, a)
	if got := x.String(); got != "{a: number} & {b: string}" {
		t.Fatalf("unexpected intersection %q", got)
	}
	if got := reg.Intersection(a, reg.Any); !typesystem.IsAny(got) {
		t.Fatalf("expected any, got %s", got)
	}
	if p := x.Property("b"); p == nil || p.Type.String() != "string" {
		t.Fatalf("expected property b: string, got %v", p)
	}
	if !typesystem.KindOf(x, a, true) {
		t.Fatal("expected intersection to be a kind of its member")
	}
	value := ann(t, reg, `{a: 1; b: "x"}`)
	if !typesystem.KindOf(value, x, true) {
		t.Fatal("expected record with both fields to satisfy the intersection")
	}
	if typesystem.KindOf(a, x, true) {
		t.Fatal("expected a lone member not to satisfy the intersection")
	}
}

func TestKindOf(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	tests := []struct {
		src, target string
		want        bool
	}{
		{"number", "number", true},
		{"number", "string", false},
		{"1", "number", true},
		{"number", "1", false},
		{"null", "number", true},
		{"null", "{a: number}", true},
		{"number | string", "string | number | boolean", true},
		{"number | string", "number", false},
		{"string", "number | string", true},

		{"{id: number; name: string}", "{id: number}", true},
		{"{id: number}", "{id: number; name: string}", false},
		{"{id: number}", "{id: number; name?: string}", true},
		{"{id: string}", "{id: number}", false},
		{"{a: number; b: number}", "{[key]: number}", true},
		{"{a: string}", "{[key]: number}", false},
		{"{a: number}", "object", true},
		{"object", "{}", true},
		{"object", "{id?: number}", true},
		{"object", "{id: number}", false},

		{"[number, string]", "(number | string)[]", true},
		{"[number, string]", "number[]", false},
		{"number[]", "[number]", false},
		{"[number, string, boolean]", "[number, string]", true},
		{"[number]", "[number, string]", false},
		{"number[]", "array", true},
		{"array", "any[]", true},
		{"array", "number[]", false},

		{"fn(number): string", "fn(number): string", true},
		{`fn(number | string): "a"`, "fn(number): string", true},
		{"fn(number): string", `fn(number | string): "a"`, false},
		{"fn(number): string", "fn(number, number): string", false},
	}

	for _, tt := range tests {
		t.Run(tt.src+" <: "+tt.target, func(t *testing.T) {
			src, target := ann(t, reg, tt.src), ann(t, reg, tt.target)
			if got := typesystem.KindOf(src, target, true); got != tt.want {
				t.Fatalf("KindOf(%s, %s) = %v, want %v", src, target, got, tt.want)
			}
		})
	}
}

func TestKindOfAny(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	if typesystem.KindOf(reg.Any, reg.Number, true) {
		t.Fatal("expected any not to be a kind of number under union checks")
	}
	if !typesystem.KindOf(reg.Any, reg.Number, false) {
		t.Fatal("expected any to be a kind of number in loose mode")
	}
	if !typesystem.KindOf(reg.Number, reg.Any, true) {
		t.Fatal("expected everything to be a kind of any")
	}
	if !typesystem.KindOf(reg.Any, reg.Any, true) {
		t.Fatal("expected any to be a kind of any")
	}
}

func TestSame(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	if !typesystem.Same(reg.Union(reg.Number, reg.String), reg.Union(reg.String, reg.Number)) {
		t.Fatal("expected union equality to ignore member order")
	}
	if !typesystem.Same(ann(t, reg, "{a: number; b?: string}"), ann(t, reg, "{b?: string, a: number}")) {
		t.Fatal("expected object equality to ignore key order")
	}
	if typesystem.Same(ann(t, reg, "{a: number}"), ann(t, reg, "{a?: number}")) {
		t.Fatal("expected optional and required fields to differ")
	}
	if typesystem.Same(reg.Tuple(reg.Number), reg.ArrayOf(reg.Number)) {
		t.Fatal("expected tuple and array to differ")
	}
	if !typesystem.Same(reg.Literal(2), reg.Literal(2.0)) {
		t.Fatal("expected integer literals to normalize")
	}
	if typesystem.Same(reg.Literal("1"), reg.Literal(1.0)) {
		t.Fatal("expected string and number literals to differ")
	}
}

func TestIndexType(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	tests := []struct {
		name  string
		typ   string
		index typesystem.Type
		want  string
	}{
		{"tuple literal", "[number, string]", reg.Literal(1.0), "string"},
		{"tuple out of bounds", "[number, string]", reg.Literal(5.0), "number | string"},
		{"tuple non literal", "[number, string]", reg.Number, "number | string"},
		{"array", "boolean[]", reg.Literal(0.0), "boolean"},
		{"string", "string", reg.Number, "string"},
		{"number", "number", reg.Number, "any"},
		{"object field", "{a: number}", reg.Literal("a"), "number"},
		{"object numeric key", `{"1": boolean}`, reg.Literal(1.0), "boolean"},
		{"object missing", "{a: number}", reg.Literal("b"), "any"},
		{"object index", "{a: number; [key]: string}", reg.Literal("b"), "string"},
		{"union", "string[] | number[]", reg.Number, "string | number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ann(t, reg, tt.typ).IndexType(tt.index).String(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUnionMembers(t *testing.T) {
	reg := typesystem.NewRegistry("test")
	u := ann(t, reg, "{a: number; b: string} | {a: string}")

	p := u.Property("a")
	if p == nil {
		t.Fatal("expected property a on every member")
	}
	if got := p.Type.String(); got != "number | string" {
		t.Fatalf("unexpected property type %q", got)
	}
	if u.Property("b") != nil {
		t.Fatal("expected property b to be missing from the union")
	}
}

func TestTypeOf(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	tests := []struct {
		name    string
		value   interface{}
		isConst bool
		want    string
	}{
		{"null", nil, false, "null"},
		{"null const", nil, true, "null"},
		{"number", 3, false, "number"},
		{"number const", 3, true, "3"},
		{"string const", "hi", true, `"hi"`},
		{"bool", true, false, "boolean"},
		{"empty array", []interface{}{}, false, "any[]"},
		{"mixed array", []interface{}{1.0, "a", 2.0}, false, "(number | string)[]"},
		{"tuple", []interface{}{1.0, "a"}, true, `[1, "a"]`},
		{"typed slice", []int{1, 2}, false, "number[]"},
		{"object", map[string]interface{}{"b": 1.0, "a": true}, false, "{a: boolean; b: number}"},
		{"nested", map[string]interface{}{"tags": []interface{}{"x"}}, false, "{tags: string[]}"},
		{"unsupported", struct{}{}, false, "any"},
		{"type value", reg.Boolean, false, "boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.TypeOf(tt.value, tt.isConst).String(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	p, err := reg.Register("Event", "A DOM event.")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := reg.Lookup("Event"); !ok || got != p {
		t.Fatal("expected Lookup to return the registered type")
	}
	if p.Description() != "A DOM event." {
		t.Fatalf("unexpected description %q", p.Description())
	}

	if _, err := reg.Register("Event", ""); !errors.Is(err, typesystem.ErrDuplicateType) {
		t.Fatalf("expected ErrDuplicateType, got %v", err)
	}
	if _, err := reg.Register("number", ""); !errors.Is(err, typesystem.ErrDuplicateType) {
		t.Fatalf("expected built-in names to be taken, got %v", err)
	}

	types := reg.Types()
	if got := types[len(types)-1].Name(); got != "Event" {
		t.Fatalf("expected registration order, last is %q", got)
	}
	if got := types[0].Name(); got != typesystem.NameAny {
		t.Fatalf("expected any first, got %q", got)
	}
}

func TestRegistryMembers(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	if err := reg.String.DefineProperty(&typesystem.Property{Name: "length", Type: reg.Number}); err != nil {
		t.Fatal(err)
	}
	err := reg.String.DefineProperty(&typesystem.Property{Name: "length", Type: reg.Number})
	if !errors.Is(err, typesystem.ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}

	one := &typesystem.Method{
		Name:   "slice",
		Params: []typesystem.Param{{Name: "start", Type: reg.Number}},
		Return: reg.String,
	}
	two := &typesystem.Method{
		Name:   "slice",
		Params: []typesystem.Param{{Name: "start", Type: reg.Number}, {Name: "end", Type: reg.Number}},
		Return: reg.String,
	}
	if err := reg.String.DefineMethod(one); err != nil {
		t.Fatal(err)
	}
	if err := reg.String.DefineMethod(two); err != nil {
		t.Fatalf("expected overload by arity, got %v", err)
	}
	if err := reg.String.DefineMethod(one); !errors.Is(err, typesystem.ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}
	if got := len(reg.String.Methods("slice")); got != 2 {
		t.Fatalf("expected 2 overloads, got %d", got)
	}
	if got := ann(t, reg, `"abc"`).Methods("slice"); len(got) != 2 {
		t.Fatal("expected literal types to share their base members")
	}

	fn := func(context.Context, interface{}, ...interface{}) (interface{}, error) { return "x", nil }
	if err := reg.BindMethod(functions.MethodDef{Owner: "string", Name: "slice", Arity: 2, Fn: fn}); err != nil {
		t.Fatal(err)
	}
	if two.Impl == nil || one.Impl != nil {
		t.Fatal("expected only the two-argument overload to be bound")
	}

	err = reg.BindMethod(functions.MethodDef{Owner: "string", Name: "slice", Arity: 3, Fn: fn})
	if !errors.Is(err, typesystem.ErrUnknownMember) {
		t.Fatalf("expected ErrUnknownMember, got %v", err)
	}
	err = reg.BindMethod(functions.MethodDef{Owner: "Widget", Name: "slice", Fn: fn})
	if !errors.Is(err, typesystem.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	var merr *typesystem.MemberError
	if !errors.As(err, &merr) || merr.Owner != "Widget" || merr.Member != "slice" {
		t.Fatalf("expected MemberError for Widget.slice, got %v", err)
	}
}

func TestRegistrySeal(t *testing.T) {
	reg := typesystem.NewRegistry("test")
	reg.Seal()

	if !reg.Sealed() {
		t.Fatal("expected sealed registry")
	}
	if _, err := reg.Register("Event", ""); !errors.Is(err, typesystem.ErrRegistrySealed) {
		t.Fatalf("expected ErrRegistrySealed, got %v", err)
	}
	err := reg.Number.DefineProperty(&typesystem.Property{Name: "x", Type: reg.Number})
	if !errors.Is(err, typesystem.ErrRegistrySealed) {
		t.Fatalf("expected ErrRegistrySealed, got %v", err)
	}
	err = reg.BindProperty(functions.PropertyDef{Owner: "number", Name: "x"})
	if !errors.Is(err, typesystem.ErrRegistrySealed) {
		t.Fatalf("expected ErrRegistrySealed, got %v", err)
	}

	// Composite constructors keep working.
	if got := reg.ArrayOf(reg.Number).String(); got != "number[]" {
		t.Fatalf("unexpected array %q", got)
	}
}

func TestMethodSignature(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	m := &typesystem.Method{
		Name:   "slice",
		Params: []typesystem.Param{{Name: "start", Type: reg.Number}, {Name: "end", Type: reg.Number}},
		Return: reg.String,
	}
	if got := m.Signature(); got != "slice(start: number, end: number): string" {
		t.Fatalf("unexpected signature %q", got)
	}
	if m.Accepts(1) || !m.Accepts(2) {
		t.Fatal("expected exact arity")
	}

	v := &typesystem.Method{
		Name:     "max",
		Params:   []typesystem.Param{{Name: "values", Type: reg.Number}},
		Return:   reg.Number,
		Variadic: true,
	}
	if got := v.Signature(); got != "max(...values: number): number" {
		t.Fatalf("unexpected signature %q", got)
	}
	for _, n := range []int{0, 1, 5} {
		if !v.Accepts(n) {
			t.Fatalf("expected variadic method to accept %d arguments", n)
		}
	}
	if p, ok := v.Param(3); !ok || p.Name != "values" {
		t.Fatalf("expected the variadic parameter, got %+v", p)
	}
	if _, ok := m.Param(2); ok {
		t.Fatal("expected no parameter past the end")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   interface{}
		want interface{}
	}{
		{int64(4), 4.0},
		{uint8(7), 7.0},
		{float32(0.5), 0.5},
		{"s", "s"},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := typesystem.Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	arr, ok := typesystem.Normalize([]string{"a", "b"}).([]interface{})
	if !ok || len(arr) != 2 || arr[1] != "b" {
		t.Fatalf("expected []interface{}, got %#v", arr)
	}
	obj, ok := typesystem.Normalize(map[string]int{"a": 1}).(map[string]interface{})
	if !ok || obj["a"] != 1 {
		t.Fatalf("expected map[string]interface{} with raw values, got %#v", obj)
	}
}
