package evaluator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// checker collects diagnostics for one expression. Children are checked
// before their parent, so diagnostics come out in source order for each
// subtree.
type checker struct {
	e     *Evaluator
	scope *EvalContext
	diags []types.Diagnostic
}

func (c *checker) report(node *types.ASTNode, sev types.Severity, format string, args ...interface{}) {
	c.diags = append(c.diags, types.NodeDiagnostic(node, sev, format, args...))
}

func (c *checker) typeOf(node *types.ASTNode) typesystem.Type {
	return c.e.typeOf(node, c.scope)
}

func (c *checker) check(node *types.ASTNode) {
	if node == nil {
		return
	}

	switch node.Type {
	case types.NodeIdentifier:
		if v, ok := c.scope.Lookup(node.Name); ok && v == Undefined {
			c.report(node, types.SeverityError, "'%s' is not defined", node.Name)
		}

	case types.NodeArray:
		for _, el := range node.Elements {
			c.check(el)
		}

	case types.NodeObject:
		for _, pair := range node.Pairs {
			c.check(pair.Key)
			if _, ok := literalKey(pair.Key); !ok {
				c.report(pair.Key, types.SeverityError, "Object keys must be non-empty string or number literals")
			}
			c.check(pair.Value)
		}

	case types.NodeConditional:
		c.check(node.Condition)
		c.check(node.Then)
		c.check(node.Else)

	case types.NodeUnary:
		c.check(node.LHS)
		if node.Operator != types.OpNot {
			c.numericOperand(node.LHS, node.Operator)
		}

	case types.NodeBinary:
		c.check(node.LHS)
		c.check(node.RHS)
		c.checkBinary(node)

	case types.NodeFunctionCall:
		c.check(node.LHS)
		for _, arg := range node.Arguments {
			c.check(arg)
		}
		c.checkCall(node)
	}
}

// numericOperand flags operands that are not numbers. Arrays and objects
// never convert and are errors; other types convert with surprises.
func (c *checker) numericOperand(operand *types.ASTNode, op string) {
	t := c.typeOf(operand)
	if typesystem.KindOf(t, c.e.reg.Number, false) {
		return
	}
	if isComposite(t) {
		c.report(operand, types.SeverityError, "Operator '%s' cannot be applied to type '%s'", op, t)
		return
	}
	c.report(operand, types.SeverityWarning, "Operand of type '%s' is converted to number by '%s'", t, op)
}

func (c *checker) checkBinary(node *types.ASTNode) {
	reg := c.e.reg
	switch node.Operator {
	case types.OpMinus, types.OpMultiply, types.OpDivide, types.OpModulo:
		c.numericOperand(node.LHS, node.Operator)
		c.numericOperand(node.RHS, node.Operator)

	case types.OpPlus:
		l, r := c.typeOf(node.LHS), c.typeOf(node.RHS)
		if typesystem.KindOf(l, reg.String, true) || typesystem.KindOf(r, reg.String, true) {
			return
		}
		c.numericOperand(node.LHS, node.Operator)
		c.numericOperand(node.RHS, node.Operator)

	case types.OpLess, types.OpLessEq, types.OpGreater, types.OpGreatEq:
		l, r := c.typeOf(node.LHS), c.typeOf(node.RHS)
		if typesystem.KindOf(l, reg.String, true) && typesystem.KindOf(r, reg.String, true) {
			return
		}
		c.numericOperand(node.LHS, node.Operator)
		c.numericOperand(node.RHS, node.Operator)

	case types.OpIndex:
		c.checkIndex(node)
	}
}

func (c *checker) checkIndex(node *types.ASTNode) {
	target := c.typeOf(node.LHS)
	if !isIndexable(target) {
		c.report(node, types.SeverityError, "Type '%s' cannot be indexed", target)
		return
	}

	arr, ok := target.(*typesystem.Array)
	if !ok {
		return
	}
	idx := c.typeOf(node.RHS)
	if !typesystem.KindOf(idx, c.e.reg.Number, false) {
		c.report(node.RHS, types.SeverityWarning, "Array index of type '%s' is not a number", idx)
		return
	}
	if !arr.IsTuple() {
		return
	}
	i, ok := constIndex(node.RHS, idx)
	if ok && (i < 0 || int(i) >= len(arr.Elements())) {
		c.report(node.RHS, types.SeverityWarning,
			"Index %s is out of bounds for tuple of length %d", types.FormatNumber(i), len(arr.Elements()))
	}
}

// constIndex returns the value of a number literal index, with a leading
// "-" or "+" folded in.
func constIndex(node *types.ASTNode, t typesystem.Type) (float64, bool) {
	if node.Type == types.NodeUnary && node.LHS != nil && node.LHS.Type == types.NodeLiteral {
		v, ok := node.LHS.Value.(float64)
		switch {
		case !ok:
			return 0, false
		case node.Operator == types.OpNegate:
			return -v, true
		case node.Operator == types.OpPlus:
			return v, true
		}
		return 0, false
	}
	if lit, ok := t.(*typesystem.Literal); ok {
		v, isNum := lit.Value().(float64)
		return v, isNum
	}
	return 0, false
}

func (c *checker) checkCall(node *types.ASTNode) {
	owner := typesystem.Type(c.e.reg.Global)
	if node.LHS != nil {
		owner = c.typeOf(node.LHS)
		if typesystem.IsAny(owner) {
			return
		}
	}

	if !node.Call {
		if owner.Property(node.Name) == nil {
			c.report(node, types.SeverityError, "Property '%s' does not exist on type '%s'", node.Name, owner)
		}
		return
	}

	methods := owner.Methods(node.Name)
	if len(methods) == 0 {
		if node.LHS == nil {
			c.report(node, types.SeverityError, "Function '%s' is not defined", node.Name)
		} else {
			c.report(node, types.SeverityError, "Method '%s' does not exist on type '%s'", node.Name, owner)
		}
		return
	}

	m := overload(methods, len(node.Arguments))
	if m == nil {
		c.report(node, types.SeverityError, "Expected %s arguments, but got %d",
			describeArities(methods), len(node.Arguments))
		return
	}

	for i, arg := range node.Arguments {
		param, ok := m.Param(i)
		if !ok || param.Type == nil {
			continue
		}
		at := c.typeOf(arg)
		if !typesystem.KindOf(at, param.Type, false) {
			c.report(arg, types.SeverityError, "Argument of type '%s' is not assignable to parameter of type '%s'",
				at, param.Type)
		}
	}
}

// describeArities renders the accepted argument counts, e.g. "1 or 2".
func describeArities(methods []*typesystem.Method) string {
	seen := make(map[int]bool)
	var counts []int
	minVariadic := -1
	for _, m := range methods {
		if m.Variadic {
			n := m.Arity() - 1
			if n < 0 {
				n = 0
			}
			if minVariadic < 0 || n < minVariadic {
				minVariadic = n
			}
			continue
		}
		if !seen[m.Arity()] {
			seen[m.Arity()] = true
			counts = append(counts, m.Arity())
		}
	}
	sort.Ints(counts)

	parts := make([]string, 0, len(counts)+1)
	for _, n := range counts {
		parts = append(parts, fmt.Sprint(n))
	}
	if minVariadic >= 0 {
		parts = append(parts, fmt.Sprintf("at least %d", minVariadic))
	}
	return strings.Join(parts, " or ")
}

// isComposite reports whether t is an array or object type.
func isComposite(t typesystem.Type) bool {
	switch x := t.(type) {
	case *typesystem.Array, *typesystem.Object:
		return true
	case *typesystem.Primitive:
		return x.Name() == typesystem.NameArray || x.Name() == typesystem.NameObject
	}
	return false
}

// isIndexable reports whether t[...] is meaningful.
func isIndexable(t typesystem.Type) bool {
	switch x := t.(type) {
	case *typesystem.Array, *typesystem.Object:
		return true
	case *typesystem.Primitive:
		switch x.Name() {
		case typesystem.NameAny, typesystem.NameString, typesystem.NameArray, typesystem.NameObject:
			return true
		}
		return false
	case *typesystem.Literal:
		_, ok := x.Value().(string)
		return ok || x.Value() == nil
	case *typesystem.Union:
		for _, m := range x.Members() {
			if !isIndexable(m) {
				return false
			}
		}
		return true
	case *typesystem.Intersection:
		for _, m := range x.Members() {
			if isIndexable(m) {
				return true
			}
		}
		return false
	}
	return t == nil
}
