package typesystem

// IsAny reports whether t is the top type. A nil type counts as any.
func IsAny(t Type) bool {
	if t == nil {
		return true
	}
	p, ok := t.(*Primitive)
	return ok && p.name == NameAny
}

// IsNullLiteral reports whether t is the literal type of null.
func IsNullLiteral(t Type) bool {
	l, ok := t.(*Literal)
	return ok && l.value == nil
}

// IsNull reports whether t is the null primitive or the null literal.
func IsNull(t Type) bool {
	if p, ok := t.(*Primitive); ok {
		return p.name == NameNull
	}
	return IsNullLiteral(t)
}

// Same reports whether a and b are structurally identical.
func Same(a, b Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *Primitive:
		return x.name == b.(*Primitive).name

	case *Literal:
		y := b.(*Literal)
		return x.base.name == y.base.name && x.value == y.value

	case *Array:
		y := b.(*Array)
		if x.tuple != y.tuple {
			return false
		}
		if !x.tuple {
			return Same(x.elem, y.elem)
		}
		return sameList(x.elems, y.elems)

	case *Object:
		y := b.(*Object)
		if len(x.keys) != len(y.keys) {
			return false
		}
		for _, k := range x.keys {
			yt, ok := y.props[k]
			if !ok || x.required[k] != y.required[k] || !Same(x.props[k], yt) {
				return false
			}
		}
		if (x.index == nil) != (y.index == nil) {
			return false
		}
		return x.index == nil || Same(x.index, y.index)

	case *Union:
		return sameSet(x.members, b.(*Union).members)

	case *Intersection:
		return sameSet(x.members, b.(*Intersection).members)

	case *Arrow:
		y := b.(*Arrow)
		return sameList(x.params, y.params) && Same(x.ret, y.ret)
	}
	return false
}

func sameList(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Same(a[i], b[i]) {
			return false
		}
	}
	return true
}

// sameSet compares member lists ignoring order. Members are already
// deduplicated by the combinators.
func sameSet(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !containsSame(b, x) {
			return false
		}
	}
	return true
}

func containsSame(list []Type, t Type) bool {
	for _, m := range list {
		if Same(m, t) {
			return true
		}
	}
	return false
}

// KindOf reports whether a value of type src may be used where target is
// expected.
//
// When unionCheck is set, src = any is only compatible with target = any.
// Union normalization and argument checks use that stricter mode so that an
// unknown type never silently absorbs a precise one.
func KindOf(src, target Type, unionCheck bool) bool {
	if IsAny(target) {
		return true
	}
	if IsAny(src) {
		return !unionCheck
	}
	if Same(src, target) {
		return true
	}

	if t, ok := target.(*Intersection); ok {
		for _, m := range t.members {
			if !KindOf(src, m, unionCheck) {
				return false
			}
		}
		return true
	}
	if s, ok := src.(*Intersection); ok {
		for _, m := range s.members {
			if KindOf(m, target, unionCheck) {
				return true
			}
		}
		return false
	}
	if s, ok := src.(*Union); ok {
		for _, m := range s.members {
			if !KindOf(m, target, unionCheck) {
				return false
			}
		}
		return true
	}
	if t, ok := target.(*Union); ok {
		for _, m := range t.members {
			if KindOf(src, m, unionCheck) {
				return true
			}
		}
		return false
	}

	switch s := src.(type) {
	case *Literal:
		// null is assignable to everything.
		if s.value == nil {
			return true
		}
		return KindOf(s.base, target, unionCheck)

	case *Array:
		switch t := target.(type) {
		case *Array:
			return arrayKindOf(s, t, unionCheck)
		case *Primitive:
			return t.name == NameArray
		}
		return false

	case *Object:
		switch t := target.(type) {
		case *Object:
			return objectKindOf(s, t, unionCheck)
		case *Primitive:
			return t.name == NameObject
		}
		return false

	case *Arrow:
		t, ok := target.(*Arrow)
		if !ok || len(s.params) != len(t.params) {
			return false
		}
		// Parameters are contravariant, the result is covariant.
		for i := range s.params {
			if !KindOf(t.params[i], s.params[i], unionCheck) {
				return false
			}
		}
		return KindOf(s.ret, t.ret, unionCheck)

	case *Primitive:
		switch t := target.(type) {
		case *Array:
			return s.name == NameArray && !t.tuple && IsAny(t.elem)
		case *Object:
			return s.name == NameObject && len(t.requiredKeys()) == 0 && t.index == nil
		}
	}
	return false
}

func arrayKindOf(s, t *Array, unionCheck bool) bool {
	if t.tuple {
		if !s.tuple || len(s.elems) < len(t.elems) {
			return false
		}
		for i, te := range t.elems {
			if !KindOf(s.elems[i], te, unionCheck) {
				return false
			}
		}
		return true
	}
	if s.tuple {
		for _, e := range s.elems {
			if !KindOf(e, t.elem, unionCheck) {
				return false
			}
		}
		return true
	}
	return KindOf(s.elem, t.elem, unionCheck)
}

func objectKindOf(s, t *Object, unionCheck bool) bool {
	for _, k := range t.keys {
		sp, ok := s.props[k]
		if !ok {
			if t.required[k] {
				return false
			}
			continue
		}
		if !KindOf(sp, t.props[k], unionCheck) {
			return false
		}
	}
	if t.index != nil {
		for _, k := range s.keys {
			if _, declared := t.props[k]; declared {
				continue
			}
			if !KindOf(s.props[k], t.index, unionCheck) {
				return false
			}
		}
		if s.index != nil && !KindOf(s.index, t.index, unionCheck) {
			return false
		}
	}
	return true
}

func (o *Object) requiredKeys() []string {
	var keys []string
	for _, k := range o.keys {
		if o.required[k] {
			keys = append(keys, k)
		}
	}
	return keys
}
