package typesystem_test

import (
	"errors"
	"testing"

	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

func TestParseAnnotation(t *testing.T) {
	reg := typesystem.NewRegistry("test")
	if _, err := reg.Register("Event", ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		src  string
		want string
	}{
		{"string", "string"},
		{"  number  ", "number"},
		{"Event", "Event"},
		{"string | number[]", "string | number[]"},
		{"| string | number", "string | number"},
		{"(string | number)[]", "(string | number)[]"},
		{"number[][]", "number[][]"},
		{`"left" | 'right'`, `"left" | "right"`},
		{"1 | -2 | 1.5", "1 | -2 | 1.5"},
		{"true | false", "true | false"},
		{"string | null", "string"},
		{"null", "null"},
		{"[number, string]", "[number, string]"},
		{"[]", "[]"},
		{"{}", "{}"},
		{"{id: number; label?: string}[]", "{id: number; label?: string}[]"},
		{"{id: number, label?: string,}", "{id: number; label?: string}"},
		{`{"data-id": string}`, `{"data-id": string}`},
		{"{a: number; [key]: any}", "{a: number; [key]: any}"},
		{"{[key: string]: boolean}", "{[key]: boolean}"},
		{"fn(value: number, digits: number): string", "fn(number, number): string"},
		{"fn(): void", "fn(): void"},
		{"fn(string | number): boolean", "fn(string | number): boolean"},
		{"(fn(number): number)[]", "(fn(number): number)[]"},
		{"{a: number} & {b: string}", "{a: number} & {b: string}"},
		{"(string | null) & object", "string & object"},
		{"any | number", "any"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := ann(t, reg, tt.src).String(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// The rendered form of a type parses back to the same type.
func TestAnnotationRoundTrip(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	for _, src := range []string{
		"{id: number; tags: string[]; meta?: {[key]: any}}",
		`[1, "a", true, null]`,
		"fn(number[], fn(string): boolean): (string | number)[]",
		"(number | string)[] | boolean",
	} {
		t.Run(src, func(t *testing.T) {
			first := ann(t, reg, src)
			second := ann(t, reg, first.String())
			if !typesystem.Same(first, second) {
				t.Fatalf("round trip changed %s into %s", first, second)
			}
		})
	}
}

func TestParseAnnotationErrors(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	tests := []struct {
		src     string
		pos     int
		unknown bool
	}{
		{"", 0, false},
		{"strnig", 0, true},
		{"number | Widget", 9, true},
		{"number string", 7, false},
		{"{a: number", 10, false},
		{"{a number}", 3, false},
		{"{1: number}", 1, false},
		{"[number", 7, false},
		{"(number", 7, false},
		{"number[", 7, false},
		{"fn number", 3, false},
		{"fn(number)", 10, false},
		{`"open`, 0, false},
		{"number @", 7, false},
		{"{[1]: number}", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := typesystem.ParseAnnotation(reg, tt.src)
			var aerr *typesystem.AnnotationError
			if !errors.As(err, &aerr) {
				t.Fatalf("expected *AnnotationError, got %v", err)
			}
			if aerr.Position != tt.pos {
				t.Fatalf("expected position %d, got %d (%v)", tt.pos, aerr.Position, err)
			}
			if aerr.Source != tt.src {
				t.Fatalf("expected source %q, got %q", tt.src, aerr.Source)
			}
			if got := errors.Is(err, typesystem.ErrUnknownType); got != tt.unknown {
				t.Fatalf("errors.Is(ErrUnknownType) = %v, want %v", got, tt.unknown)
			}
		})
	}
}

func TestMustParseAnnotation(t *testing.T) {
	reg := typesystem.NewRegistry("test")

	if got := typesystem.MustParseAnnotation(reg, "number[]").String(); got != "number[]" {
		t.Fatalf("unexpected type %q", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on a malformed annotation")
		}
	}()
	typesystem.MustParseAnnotation(reg, "{")
}
