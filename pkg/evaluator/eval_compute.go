package evaluator

import (
	"context"
	"math"
	"unicode/utf8"

	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// mode selects between partial (Compute) and eager (ComputeValue)
// evaluation.
type mode uint8

const (
	modePartial mode = iota
	modeEager
)

// unknown is the result of a value that cannot be determined: indeterminate
// in partial mode, null in eager mode.
func unknown(m mode) Result {
	if m == modeEager {
		return Known(nil)
	}
	return Indeterminate()
}

func (e *Evaluator) compute(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	if node == nil {
		return unknown(m)
	}

	switch node.Type {
	case types.NodeLiteral:
		return Known(node.Value)
	case types.NodeIdentifier:
		return e.computeIdentifier(node, scope, m)
	case types.NodeArray:
		return e.computeArray(ctx, node, scope, m)
	case types.NodeObject:
		return e.computeObject(ctx, node, scope, m)
	case types.NodeConditional:
		return e.computeConditional(ctx, node, scope, m)
	case types.NodeUnary:
		return e.computeUnary(ctx, node, scope, m)
	case types.NodeBinary:
		return e.computeBinary(ctx, node, scope, m)
	case types.NodeFunctionCall:
		return e.computeCall(ctx, node, scope, m)
	}
	return unknown(m)
}

func (e *Evaluator) computeIdentifier(node *types.ASTNode, scope *EvalContext, m mode) Result {
	v, ok := scope.Lookup(node.Name)
	if !ok {
		return unknown(m)
	}
	switch v.(type) {
	case typesystem.Type, undefinedMarker:
		return unknown(m)
	}
	return Known(typesystem.Normalize(v))
}

func (e *Evaluator) computeArray(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	out := make([]interface{}, 0, len(node.Elements))
	for _, el := range node.Elements {
		r := e.compute(ctx, el, scope, m)
		if !r.IsKnown() {
			return Indeterminate()
		}
		if m == modeEager && r.value == nil {
			continue
		}
		out = append(out, r.value)
	}
	return Known(out)
}

func (e *Evaluator) computeObject(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	out := make(map[string]interface{}, len(node.Pairs))
	for _, pair := range node.Pairs {
		k := e.compute(ctx, pair.Key, scope, m)
		if !k.IsKnown() {
			return Indeterminate()
		}
		v := e.compute(ctx, pair.Value, scope, m)
		if !v.IsKnown() {
			return Indeterminate()
		}
		if !BoolValue(k.value) {
			continue
		}
		out[ToString(k.value)] = v.value
	}
	return Known(out)
}

func (e *Evaluator) computeConditional(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	cond := e.compute(ctx, node.Condition, scope, m)
	if !cond.IsKnown() {
		return Indeterminate()
	}
	if BoolValue(cond.value) {
		if node.IsElvis() {
			return cond
		}
		return e.compute(ctx, node.Then, scope, m)
	}
	return e.compute(ctx, node.Else, scope, m)
}

func (e *Evaluator) computeUnary(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	operand := e.compute(ctx, node.LHS, scope, m)
	if !operand.IsKnown() {
		return Indeterminate()
	}

	switch node.Operator {
	case types.OpNot:
		return Known(!BoolValue(operand.value))
	case types.OpNegate, types.OpPlus:
		n, ok := ToNumber(operand.value)
		if !ok {
			return unknown(m)
		}
		if node.Operator == types.OpNegate {
			n = -n
		}
		return Known(n)
	}
	return unknown(m)
}

func (e *Evaluator) computeBinary(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	switch node.Operator {
	case types.OpAnd:
		return e.computeAnd(ctx, node, scope, m)
	case types.OpOr:
		return e.computeOr(ctx, node, scope, m)
	}

	lhs := e.compute(ctx, node.LHS, scope, m)
	rhs := e.compute(ctx, node.RHS, scope, m)
	if !lhs.IsKnown() || !rhs.IsKnown() {
		return Indeterminate()
	}
	l, r := lhs.value, rhs.value

	switch node.Operator {
	case types.OpIndex:
		return index(l, r, m)

	case types.OpEqual:
		return Known(IsEqual(l, r))
	case types.OpNotEqual:
		return Known(!IsEqual(l, r))

	case types.OpPlus:
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return Known(ToString(l) + ToString(r))
		}
	}

	x, ok1 := ToNumber(l)
	y, ok2 := ToNumber(r)

	switch node.Operator {
	case types.OpLess, types.OpLessEq, types.OpGreater, types.OpGreatEq:
		if ls, ok := l.(string); ok {
			if rs, ok := r.(string); ok {
				return Known(compareStrings(node.Operator, ls, rs))
			}
		}
		// A string that does not convert compares as NaN.
		if _, ok := l.(string); ok && !ok1 {
			x, ok1 = math.NaN(), true
		}
		if _, ok := r.(string); ok && !ok2 {
			y, ok2 = math.NaN(), true
		}
		if !ok1 || !ok2 {
			return unknown(m)
		}
		return Known(compareNumbers(node.Operator, x, y))
	}

	if !ok1 || !ok2 {
		return unknown(m)
	}
	switch node.Operator {
	case types.OpPlus:
		return Known(x + y)
	case types.OpMinus:
		return Known(x - y)
	case types.OpMultiply:
		return Known(x * y)
	case types.OpDivide:
		return Known(x / y)
	case types.OpModulo:
		if y == 0 {
			return Known(float64(0))
		}
		return Known(math.Mod(x, y))
	}
	return unknown(m)
}

// computeAnd returns the first falsy operand, or the last one. When the
// left operand is indeterminate the result is still known if the right one
// is falsy.
func (e *Evaluator) computeAnd(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	lhs := e.compute(ctx, node.LHS, scope, m)
	if !lhs.IsKnown() {
		rhs := e.compute(ctx, node.RHS, scope, m)
		if rhs.IsKnown() && !BoolValue(rhs.value) {
			return rhs
		}
		return Indeterminate()
	}
	if !BoolValue(lhs.value) {
		return lhs
	}
	return e.compute(ctx, node.RHS, scope, m)
}

// computeOr returns the first truthy operand, or the last one. When the
// left operand is indeterminate the result is still known if the right one
// is truthy.
func (e *Evaluator) computeOr(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	lhs := e.compute(ctx, node.LHS, scope, m)
	if !lhs.IsKnown() {
		rhs := e.compute(ctx, node.RHS, scope, m)
		if rhs.IsKnown() && BoolValue(rhs.value) {
			return rhs
		}
		return Indeterminate()
	}
	if BoolValue(lhs.value) {
		return lhs
	}
	return e.compute(ctx, node.RHS, scope, m)
}

func compareNumbers(op string, x, y float64) bool {
	switch op {
	case types.OpLess:
		return x < y
	case types.OpLessEq:
		return x <= y
	case types.OpGreater:
		return x > y
	default:
		return x >= y
	}
}

func compareStrings(op string, x, y string) bool {
	switch op {
	case types.OpLess:
		return x < y
	case types.OpLessEq:
		return x <= y
	case types.OpGreater:
		return x > y
	default:
		return x >= y
	}
}

// index implements target[key] for arrays, objects and strings.
func index(target, key interface{}, m mode) Result {
	switch t := typesystem.Normalize(target).(type) {
	case []interface{}:
		i, ok := integerIndex(key)
		if !ok || i < 0 || i >= len(t) {
			return unknown(m)
		}
		return Known(typesystem.Normalize(t[i]))

	case map[string]interface{}:
		switch key.(type) {
		case string, float64, bool:
			return Known(typesystem.Normalize(t[ToString(key)]))
		}
		return unknown(m)

	case string:
		i, ok := integerIndex(key)
		if !ok || i < 0 {
			return unknown(m)
		}
		for pos, r := range t {
			if i == 0 {
				if r == utf8.RuneError {
					return Known(t[pos : pos+1])
				}
				return Known(string(r))
			}
			i--
		}
		return unknown(m)
	}
	return unknown(m)
}

func integerIndex(key interface{}) (int, bool) {
	f, ok := key.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return -1, true
	}
	return int(f), true
}
