// Package typesystem implements the structural type lattice used for static
// inference over template expressions.
//
// Types form a closed set of variants: primitives, literal types, arrays and
// tuples, object records, unions, intersections and arrows. Subtyping is
// structural ([KindOf]); equality is structural ([Same]). Every type is
// created through a [Registry], which owns the named primitives and their
// properties and methods, so several independent dialects can live in one
// process.
//
// Operations never panic on odd inputs; anything unsupported degrades to the
// registry's "any" type.
package typesystem

import (
	"math"
	"sort"
	"strings"

	"github.com/zhangrenfeng/axexpr/pkg/functions"
	"github.com/zhangrenfeng/axexpr/pkg/types"
)

// Kind discriminates the type variants.
type Kind uint8

// Type variants.
const (
	KindPrimitive Kind = iota + 1
	KindLiteral
	KindArray
	KindObject
	KindUnion
	KindIntersection
	KindArrow
)

// Type is implemented by every type variant.
type Type interface {
	// Kind returns the variant.
	Kind() Kind
	// String renders the type in annotation syntax.
	String() string
	// Property returns the named property, or nil.
	Property(name string) *Property
	// Methods returns the overloads of the named method, or nil.
	Methods(name string) []*Method
	// IndexType returns the type of t[index].
	IndexType(index Type) Type
}

// Property describes a readable member of a type.
type Property struct {
	Name        string
	Type        Type
	Description string
	Readonly    bool
	Impl        functions.PropertyFunc
}

// Param is one method parameter.
type Param struct {
	Name string
	Type Type
}

// Method describes one overload of a callable member.
type Method struct {
	Name   string
	Params []Param
	Return Type
	// Variadic lets the last parameter repeat zero or more times.
	Variadic    bool
	Description string
	Impl        functions.MethodFunc
}

// Arity returns the number of declared parameters.
func (m *Method) Arity() int {
	return len(m.Params)
}

// Accepts reports whether the overload can be called with n arguments.
func (m *Method) Accepts(n int) bool {
	if m.Variadic && len(m.Params) > 0 {
		return n >= len(m.Params)-1
	}
	return n == len(m.Params)
}

// Param returns the parameter receiving argument i, or false past the end.
func (m *Method) Param(i int) (Param, bool) {
	switch {
	case i < len(m.Params):
		return m.Params[i], true
	case m.Variadic && len(m.Params) > 0:
		return m.Params[len(m.Params)-1], true
	}
	return Param{}, false
}

// Signature renders the overload as "name(a: T, b: U): R".
func (m *Method) Signature() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	writeParams(&sb, signatureParams(m))
	sb.WriteString(": ")
	sb.WriteString(typeString(m.Return))
	return sb.String()
}

func writeParams(sb *strings.Builder, params []Param) {
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Name != "" {
			sb.WriteString(p.Name)
			sb.WriteString(": ")
		}
		sb.WriteString(typeString(p.Type))
	}
	sb.WriteByte(')')
}

// signatureParams marks the last parameter of a variadic method.
func signatureParams(m *Method) []Param {
	if !m.Variadic || len(m.Params) == 0 {
		return m.Params
	}
	params := append([]Param(nil), m.Params...)
	last := &params[len(params)-1]
	last.Name = "..." + last.Name
	return params
}

func typeString(t Type) string {
	if t == nil {
		return NameAny
	}
	return t.String()
}

// Primitive is a named type held by a Registry. Its members are defined at
// registration time and never change once the registry is sealed.
type Primitive struct {
	name        string
	description string
	reg         *Registry
	properties  map[string]*Property
	methods     map[string][]*Method
}

// Kind implements Type.
func (p *Primitive) Kind() Kind { return KindPrimitive }

// Name returns the registered name.
func (p *Primitive) Name() string { return p.name }

// Description returns the documentation string.
func (p *Primitive) Description() string { return p.description }

// String implements Type.
func (p *Primitive) String() string { return p.name }

// Property implements Type.
func (p *Primitive) Property(name string) *Property {
	return p.properties[name]
}

// Methods implements Type.
func (p *Primitive) Methods(name string) []*Method {
	return p.methods[name]
}

// PropertyNames returns the defined property names, sorted.
func (p *Primitive) PropertyNames() []string {
	return sortedKeys(p.properties)
}

// MethodNames returns the defined method names, sorted.
func (p *Primitive) MethodNames() []string {
	return sortedKeys(p.methods)
}

// IndexType implements Type. Strings index to strings (character access).
func (p *Primitive) IndexType(Type) Type {
	if p.name == NameString {
		return p
	}
	return p.reg.Any
}

// DefineProperty adds a property. It fails once the registry is sealed or
// when the name is taken.
func (p *Primitive) DefineProperty(prop *Property) error {
	if p.reg.sealed {
		return ErrRegistrySealed
	}
	if _, ok := p.properties[prop.Name]; ok {
		return &MemberError{Owner: p.name, Member: prop.Name, Err: ErrDuplicateMember}
	}
	p.properties[prop.Name] = prop
	return nil
}

// DefineMethod adds a method overload. Overloads are distinguished by arity.
func (p *Primitive) DefineMethod(m *Method) error {
	if p.reg.sealed {
		return ErrRegistrySealed
	}
	for _, existing := range p.methods[m.Name] {
		if existing.Arity() == m.Arity() {
			return &MemberError{Owner: p.name, Member: m.Name, Err: ErrDuplicateMember}
		}
	}
	p.methods[m.Name] = append(p.methods[m.Name], m)
	return nil
}

// Literal is the type of exactly one primitive value.
type Literal struct {
	value interface{}
	base  *Primitive
}

// Kind implements Type.
func (l *Literal) Kind() Kind { return KindLiteral }

// Value returns the literal value (nil, bool, float64 or string).
func (l *Literal) Value() interface{} { return l.value }

// Base returns the primitive the literal belongs to.
func (l *Literal) Base() *Primitive { return l.base }

// String implements Type.
func (l *Literal) String() string { return types.FormatLiteral(l.value) }

// Property implements Type.
func (l *Literal) Property(name string) *Property { return l.base.Property(name) }

// Methods implements Type.
func (l *Literal) Methods(name string) []*Method { return l.base.Methods(name) }

// IndexType implements Type.
func (l *Literal) IndexType(index Type) Type { return l.base.IndexType(index) }

// Array is a homogeneous array type, or a tuple with fixed element types.
type Array struct {
	elem  Type
	elems []Type
	tuple bool
	reg   *Registry
}

// Kind implements Type.
func (a *Array) Kind() Kind { return KindArray }

// IsTuple reports whether the array has a fixed element sequence.
func (a *Array) IsTuple() bool { return a.tuple }

// Elements returns the tuple element types (nil for homogeneous arrays).
func (a *Array) Elements() []Type { return a.elems }

// Elem returns the element type; for tuples the union of the elements.
func (a *Array) Elem() Type {
	if a.tuple {
		return a.reg.Union(a.elems...)
	}
	return a.elem
}

// String implements Type.
func (a *Array) String() string {
	if a.tuple {
		parts := make([]string, len(a.elems))
		for i, e := range a.elems {
			parts[i] = typeString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	switch a.elem.Kind() {
	case KindUnion, KindIntersection, KindArrow:
		return "(" + a.elem.String() + ")[]"
	}
	return a.elem.String() + "[]"
}

// Property implements Type.
func (a *Array) Property(name string) *Property { return a.reg.Array.Property(name) }

// Methods implements Type.
func (a *Array) Methods(name string) []*Method { return a.reg.Array.Methods(name) }

// IndexType implements Type. A literal index inside tuple bounds selects
// that element.
func (a *Array) IndexType(index Type) Type {
	if a.tuple {
		if i, ok := literalIndex(index); ok && i >= 0 && i < len(a.elems) {
			return a.elems[i]
		}
	}
	return a.Elem()
}

func literalIndex(t Type) (int, bool) {
	lit, ok := t.(*Literal)
	if !ok {
		return 0, false
	}
	f, ok := lit.value.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Field describes one property of an object type under construction.
type Field struct {
	Name     string
	Type     Type
	Optional bool
}

// Object is a structural record type.
type Object struct {
	keys     []string
	props    map[string]Type
	required map[string]bool
	index    Type
	reg      *Registry
}

// Kind implements Type.
func (o *Object) Kind() Kind { return KindObject }

// Keys returns the property names in declaration order.
func (o *Object) Keys() []string { return o.keys }

// Field returns the type of a declared property.
func (o *Object) Field(name string) (Type, bool) {
	t, ok := o.props[name]
	return t, ok
}

// Required reports whether the property must be present.
func (o *Object) Required(name string) bool { return o.required[name] }

// IndexSignature returns the type of undeclared keys, or nil.
func (o *Object) IndexSignature() Type { return o.index }

// String implements Type.
func (o *Object) String() string {
	if len(o.keys) == 0 && o.index == nil {
		return "{}"
	}
	parts := make([]string, 0, len(o.keys)+1)
	for _, k := range o.keys {
		name := k
		if !types.IsIdentifier(k) {
			name = types.QuoteString(k)
		}
		if !o.required[k] {
			name += "?"
		}
		parts = append(parts, name+": "+typeString(o.props[k]))
	}
	if o.index != nil {
		parts = append(parts, "[key]: "+o.index.String())
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

// Property implements Type. Declared fields win over the index signature,
// which wins over members of the object base type.
func (o *Object) Property(name string) *Property {
	if t, ok := o.props[name]; ok {
		return &Property{Name: name, Type: t}
	}
	if o.index != nil {
		return &Property{Name: name, Type: o.index}
	}
	return o.reg.Object.Property(name)
}

// Methods implements Type.
func (o *Object) Methods(name string) []*Method { return o.reg.Object.Methods(name) }

// IndexType implements Type.
func (o *Object) IndexType(index Type) Type {
	if lit, ok := index.(*Literal); ok {
		var key string
		switch v := lit.value.(type) {
		case string:
			key = v
		case float64:
			key = types.FormatNumber(v)
		}
		if t, ok := o.props[key]; ok {
			return t
		}
	}
	if o.index != nil {
		return o.index
	}
	return o.reg.Any
}

// Union is the type of values belonging to any of its members.
// Build unions with Registry.Union, which normalizes the member set.
type Union struct {
	members []Type
	reg     *Registry
}

// Kind implements Type.
func (u *Union) Kind() Kind { return KindUnion }

// Members returns the normalized member list.
func (u *Union) Members() []Type { return u.members }

// String implements Type.
func (u *Union) String() string { return joinMembers(u.members, " | ", KindArrow) }

// Property implements Type. A property exists on a union only when every
// member has it; its type is the union of the member property types.
func (u *Union) Property(name string) *Property {
	ts := make([]Type, 0, len(u.members))
	for _, m := range u.members {
		p := m.Property(name)
		if p == nil {
			return nil
		}
		ts = append(ts, p.Type)
	}
	return &Property{Name: name, Type: u.reg.Union(ts...), Readonly: true}
}

// Methods implements Type. Overloads come from the first member when every
// member declares the method.
func (u *Union) Methods(name string) []*Method {
	var first []*Method
	for i, m := range u.members {
		ms := m.Methods(name)
		if len(ms) == 0 {
			return nil
		}
		if i == 0 {
			first = ms
		}
	}
	return first
}

// IndexType implements Type.
func (u *Union) IndexType(index Type) Type {
	ts := make([]Type, len(u.members))
	for i, m := range u.members {
		ts[i] = m.IndexType(index)
	}
	return u.reg.Union(ts...)
}

// Intersection is the type of values belonging to all of its members.
type Intersection struct {
	members []Type
	reg     *Registry
}

// Kind implements Type.
func (x *Intersection) Kind() Kind { return KindIntersection }

// Members returns the normalized member list.
func (x *Intersection) Members() []Type { return x.members }

// String implements Type.
func (x *Intersection) String() string { return joinMembers(x.members, " & ", KindUnion) }

// Property implements Type.
func (x *Intersection) Property(name string) *Property {
	for _, m := range x.members {
		if p := m.Property(name); p != nil {
			return p
		}
	}
	return nil
}

// Methods implements Type.
func (x *Intersection) Methods(name string) []*Method {
	for _, m := range x.members {
		if ms := m.Methods(name); len(ms) > 0 {
			return ms
		}
	}
	return nil
}

// IndexType implements Type.
func (x *Intersection) IndexType(index Type) Type {
	ts := make([]Type, len(x.members))
	for i, m := range x.members {
		ts[i] = m.IndexType(index)
	}
	return x.reg.Intersection(ts...)
}

// Arrow is a function type, used for callable properties.
type Arrow struct {
	params []Type
	ret    Type
	reg    *Registry
}

// Kind implements Type.
func (a *Arrow) Kind() Kind { return KindArrow }

// Params returns the parameter types.
func (a *Arrow) Params() []Type { return a.params }

// Return returns the result type.
func (a *Arrow) Return() Type { return a.ret }

// String implements Type.
func (a *Arrow) String() string {
	var sb strings.Builder
	sb.WriteString("fn")
	params := make([]Param, len(a.params))
	for i, p := range a.params {
		params[i] = Param{Type: p}
	}
	writeParams(&sb, params)
	sb.WriteString(": ")
	sb.WriteString(typeString(a.ret))
	return sb.String()
}

// Property implements Type.
func (a *Arrow) Property(string) *Property { return nil }

// Methods implements Type.
func (a *Arrow) Methods(string) []*Method { return nil }

// IndexType implements Type.
func (a *Arrow) IndexType(Type) Type { return a.reg.Any }

// joinMembers renders members with sep, parenthesizing members whose kind
// is wrap or looser.
func joinMembers(members []Type, sep string, wrap Kind) string {
	parts := make([]string, len(members))
	for i, m := range members {
		s := typeString(m)
		if k := m.Kind(); k == wrap || k == KindArrow {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
