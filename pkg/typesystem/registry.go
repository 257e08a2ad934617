package typesystem

import (
	"reflect"
	"sort"

	"github.com/zhangrenfeng/axexpr/pkg/functions"
)

// Names of the built-in primitives every registry starts with.
const (
	NameAny     = "any"
	NameVoid    = "void"
	NameNull    = "null"
	NameBoolean = "boolean"
	NameNumber  = "number"
	NameString  = "string"
	NameArray   = "array"
	NameObject  = "object"
	NameGlobal  = "global"
)

// Registry owns the named types of one dialect.
//
// A registry is mutable until Seal is called; after that it is read-only and
// safe for concurrent use. The composite constructors (Union, ArrayOf, …)
// never mutate the registry and may be called at any time.
type Registry struct {
	name   string
	types  map[string]*Primitive
	order  []string
	sealed bool

	Any     *Primitive
	Void    *Primitive
	Null    *Primitive
	Boolean *Primitive
	Number  *Primitive
	String  *Primitive
	Array   *Primitive
	Object  *Primitive
	// Global holds the functions callable without a receiver.
	Global *Primitive
}

// NewRegistry creates a registry pre-populated with the built-in primitives.
func NewRegistry(name string) *Registry {
	r := &Registry{
		name:  name,
		types: make(map[string]*Primitive),
	}
	r.Any = r.mustRegister(NameAny, "Any value.")
	r.Void = r.mustRegister(NameVoid, "No value.")
	r.Null = r.mustRegister(NameNull, "The null value.")
	r.Boolean = r.mustRegister(NameBoolean, "true or false.")
	r.Number = r.mustRegister(NameNumber, "A double-precision number.")
	r.String = r.mustRegister(NameString, "A string of characters.")
	r.Array = r.mustRegister(NameArray, "An ordered list of values.")
	r.Object = r.mustRegister(NameObject, "A string-keyed record.")
	r.Global = r.mustRegister(NameGlobal, "Functions callable without a receiver.")
	return r
}

func (r *Registry) mustRegister(name, description string) *Primitive {
	p, err := r.Register(name, description)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the registry (dialect) name.
func (r *Registry) Name() string { return r.name }

// Register adds a named primitive type.
func (r *Registry) Register(name, description string) (*Primitive, error) {
	if r.sealed {
		return nil, ErrRegistrySealed
	}
	if _, ok := r.types[name]; ok {
		return nil, &MemberError{Owner: r.name, Member: name, Err: ErrDuplicateType}
	}
	p := &Primitive{
		name:        name,
		description: description,
		reg:         r,
		properties:  make(map[string]*Property),
		methods:     make(map[string][]*Method),
	}
	r.types[name] = p
	r.order = append(r.order, name)
	return p, nil
}

// Lookup resolves a registered name.
func (r *Registry) Lookup(name string) (*Primitive, bool) {
	p, ok := r.types[name]
	return p, ok
}

// Types returns the registered primitives in registration order.
func (r *Registry) Types() []*Primitive {
	out := make([]*Primitive, len(r.order))
	for i, name := range r.order {
		out[i] = r.types[name]
	}
	return out
}

// Seal makes the registry read-only.
func (r *Registry) Seal() { r.sealed = true }

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool { return r.sealed }

// BindMethod attaches an implementation to an existing method overload.
func (r *Registry) BindMethod(def functions.MethodDef) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	owner, ok := r.types[def.Owner]
	if !ok {
		return &MemberError{Owner: def.Owner, Member: def.Name, Err: ErrUnknownType}
	}
	for _, m := range owner.methods[def.Name] {
		if m.Arity() == def.Arity {
			m.Impl = def.Fn
			return nil
		}
	}
	return &MemberError{Owner: def.Owner, Member: def.Name, Err: ErrUnknownMember}
}

// BindProperty attaches an implementation to an existing property.
func (r *Registry) BindProperty(def functions.PropertyDef) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	owner, ok := r.types[def.Owner]
	if !ok {
		return &MemberError{Owner: def.Owner, Member: def.Name, Err: ErrUnknownType}
	}
	p, ok := owner.properties[def.Name]
	if !ok {
		return &MemberError{Owner: def.Owner, Member: def.Name, Err: ErrUnknownMember}
	}
	p.Impl = def.Fn
	return nil
}

// Literal returns the literal type of v. Values other than nil, bool,
// numbers and strings yield any.
func (r *Registry) Literal(v interface{}) Type {
	v = normalize(v)
	switch v.(type) {
	case nil:
		return &Literal{value: nil, base: r.Null}
	case bool:
		return &Literal{value: v, base: r.Boolean}
	case float64:
		return &Literal{value: v, base: r.Number}
	case string:
		return &Literal{value: v, base: r.String}
	}
	return r.Any
}

// ArrayOf returns the homogeneous array type with the given element type.
func (r *Registry) ArrayOf(elem Type) *Array {
	if elem == nil {
		elem = r.Any
	}
	return &Array{elem: elem, reg: r}
}

// Tuple returns the tuple type with the given element types.
func (r *Registry) Tuple(elems ...Type) *Array {
	cp := make([]Type, len(elems))
	for i, e := range elems {
		if e == nil {
			e = r.Any
		}
		cp[i] = e
	}
	return &Array{elems: cp, tuple: true, reg: r}
}

// ObjectOf returns a record type. A later field with the same name replaces
// an earlier one. index, when non-nil, types undeclared keys.
func (r *Registry) ObjectOf(fields []Field, index Type) *Object {
	o := &Object{
		props:    make(map[string]Type, len(fields)),
		required: make(map[string]bool, len(fields)),
		index:    index,
		reg:      r,
	}
	for _, f := range fields {
		if _, ok := o.props[f.Name]; !ok {
			o.keys = append(o.keys, f.Name)
		}
		t := f.Type
		if t == nil {
			t = r.Any
		}
		o.props[f.Name] = t
		o.required[f.Name] = !f.Optional
	}
	return o
}

// Arrow returns a function type.
func (r *Registry) Arrow(params []Type, ret Type) *Arrow {
	if ret == nil {
		ret = r.Any
	}
	cp := make([]Type, len(params))
	copy(cp, params)
	return &Arrow{params: cp, ret: ret, reg: r}
}

// Union returns the normalized union of ts.
//
// Nested unions are flattened and any absorbs everything. A member is
// dropped when it is a kind of a member already kept, and kept members that
// are a kind of a new member are replaced by it, preserving first-seen
// order. No members yields any; a single member is returned as is.
func (r *Registry) Union(ts ...Type) Type {
	var out []Type
	for _, t := range flatten(ts, KindUnion) {
		if IsAny(t) {
			return r.Any
		}
		if containsSame(out, t) {
			continue
		}
		subsumed := false
		for _, kept := range out {
			if KindOf(t, kept, true) {
				subsumed = true
				break
			}
		}
		if subsumed {
			continue
		}
		filtered := out[:0:0]
		for _, kept := range out {
			if !KindOf(kept, t, true) {
				filtered = append(filtered, kept)
			}
		}
		out = append(filtered, t)
	}

	switch len(out) {
	case 0:
		return r.Any
	case 1:
		return out[0]
	}
	return &Union{members: out, reg: r}
}

// Intersection returns the normalized intersection of ts.
func (r *Registry) Intersection(ts ...Type) Type {
	var out []Type
	for _, t := range flatten(ts, KindIntersection) {
		if IsAny(t) {
			return r.Any
		}
		if !containsSame(out, t) {
			out = append(out, t)
		}
	}

	switch len(out) {
	case 0:
		return r.Any
	case 1:
		return out[0]
	}
	return &Intersection{members: out, reg: r}
}

func flatten(ts []Type, kind Kind) []Type {
	out := make([]Type, 0, len(ts))
	for _, t := range ts {
		if t == nil {
			out = append(out, nil)
			continue
		}
		if t.Kind() != kind {
			out = append(out, t)
			continue
		}
		switch c := t.(type) {
		case *Union:
			out = append(out, flatten(c.members, kind)...)
		case *Intersection:
			out = append(out, flatten(c.members, kind)...)
		}
	}
	return out
}

// TypeOf returns the type of a runtime value.
//
// With isConst set, scalars become literal types and arrays become tuples;
// otherwise scalars widen to their primitive and arrays to T[] where T is the
// union of the element types. Objects map every key to a required property.
// A Type value is its own type.
func (r *Registry) TypeOf(v interface{}, isConst bool) Type {
	v = normalize(v)
	switch x := v.(type) {
	case nil:
		if isConst {
			return r.Literal(nil)
		}
		return r.Null
	case bool:
		if isConst {
			return r.Literal(x)
		}
		return r.Boolean
	case float64:
		if isConst {
			return r.Literal(x)
		}
		return r.Number
	case string:
		if isConst {
			return r.Literal(x)
		}
		return r.String
	case []interface{}:
		ts := make([]Type, len(x))
		for i, e := range x {
			ts[i] = r.TypeOf(e, isConst)
		}
		if isConst {
			return r.Tuple(ts...)
		}
		if len(ts) == 0 {
			return r.ArrayOf(r.Any)
		}
		return r.ArrayOf(r.Union(ts...))
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, len(keys))
		for i, k := range keys {
			fields[i] = Field{Name: k, Type: r.TypeOf(x[k], isConst)}
		}
		return r.ObjectOf(fields, nil)
	case Type:
		return x
	}
	return r.Any
}

// normalize converts Go numeric kinds to float64 so that values from host
// code compare and type consistently.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, bool, float64, string, []interface{}, map[string]interface{}:
		return v
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	}
	return v
}

// Normalize converts host values to the canonical representation used by
// the evaluator: float64 numbers, []interface{} arrays and
// map[string]interface{} objects. Nested values are converted lazily by the
// consumers; only the top level is rewritten.
func Normalize(v interface{}) interface{} {
	return normalize(v)
}
