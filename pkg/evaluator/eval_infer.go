package evaluator

import (
	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// typeOf infers the static type of node.
func (e *Evaluator) typeOf(node *types.ASTNode, scope *EvalContext) typesystem.Type {
	reg := e.reg
	if node == nil {
		return reg.Any
	}

	switch node.Type {
	case types.NodeLiteral:
		return reg.Literal(node.Value)

	case types.NodeIdentifier:
		return e.identifierType(node.Name, scope)

	case types.NodeArray:
		elems := make([]typesystem.Type, len(node.Elements))
		for i, el := range node.Elements {
			elems[i] = e.typeOf(el, scope)
		}
		return reg.Tuple(elems...)

	case types.NodeObject:
		fields := make([]typesystem.Field, 0, len(node.Pairs))
		for _, pair := range node.Pairs {
			name, ok := literalKey(pair.Key)
			if !ok {
				continue
			}
			fields = append(fields, typesystem.Field{Name: name, Type: e.typeOf(pair.Value, scope)})
		}
		return reg.ObjectOf(fields, nil)

	case types.NodeConditional:
		var then typesystem.Type
		if node.IsElvis() {
			then = e.typeOf(node.Condition, scope)
		} else {
			then = e.typeOf(node.Then, scope)
		}
		els := e.typeOf(node.Else, scope)
		switch {
		case typesystem.IsNullLiteral(then):
			return els
		case typesystem.IsNullLiteral(els):
			return then
		}
		return reg.Union(then, els)

	case types.NodeUnary:
		if node.Operator == types.OpNot {
			return reg.Boolean
		}
		return reg.Number

	case types.NodeBinary:
		return e.binaryType(node, scope)

	case types.NodeFunctionCall:
		owner := typesystem.Type(reg.Global)
		if node.LHS != nil {
			owner = e.typeOf(node.LHS, scope)
		}
		if !node.Call {
			if prop := owner.Property(node.Name); prop != nil && prop.Type != nil {
				return prop.Type
			}
			return reg.Any
		}
		if m := overload(owner.Methods(node.Name), len(node.Arguments)); m != nil && m.Return != nil {
			return m.Return
		}
		return reg.Any
	}
	return reg.Any
}

// identifierType resolves the type of a bound name. Type-only bindings are
// used as is, except that a bare null type widens to any.
func (e *Evaluator) identifierType(name string, scope *EvalContext) typesystem.Type {
	v, ok := scope.Lookup(name)
	if !ok {
		return e.reg.Any
	}
	switch t := v.(type) {
	case undefinedMarker:
		return e.reg.Any
	case *typesystem.Primitive:
		if t.Name() == typesystem.NameNull {
			return e.reg.Any
		}
		return t
	case typesystem.Type:
		return t
	}
	return e.reg.TypeOf(v, false)
}

func (e *Evaluator) binaryType(node *types.ASTNode, scope *EvalContext) typesystem.Type {
	reg := e.reg
	switch node.Operator {
	case types.OpEqual, types.OpNotEqual,
		types.OpLess, types.OpLessEq, types.OpGreater, types.OpGreatEq:
		return reg.Boolean
	case types.OpMinus, types.OpMultiply, types.OpDivide, types.OpModulo:
		return reg.Number
	}

	l := e.typeOf(node.LHS, scope)
	r := e.typeOf(node.RHS, scope)
	switch node.Operator {
	case types.OpAnd, types.OpOr:
		return reg.Union(l, r)
	case types.OpIndex:
		return l.IndexType(r)
	case types.OpPlus:
		switch {
		case typesystem.KindOf(l, reg.String, true), typesystem.KindOf(r, reg.String, true):
			return reg.String
		case typesystem.IsAny(l), typesystem.IsAny(r):
			return reg.Any
		}
		return reg.Number
	}
	return reg.Any
}

// literalKey returns the property name of a string or number literal key.
// Falsy keys are skipped by evaluation and have no name.
func literalKey(key *types.ASTNode) (string, bool) {
	if key == nil || key.Type != types.NodeLiteral {
		return "", false
	}
	switch v := key.Value.(type) {
	case string, float64:
		return ToString(v), BoolValue(v)
	}
	return "", false
}
