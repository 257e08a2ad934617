package evaluator

import (
	"context"

	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// computeCall evaluates member access (a.b), method calls (a.b(x)) and bare
// global calls (f(x)).
func (e *Evaluator) computeCall(ctx context.Context, node *types.ASTNode, scope *EvalContext, m mode) Result {
	var (
		this  interface{}
		owner typesystem.Type = e.reg.Global
	)
	if node.LHS != nil {
		recv := e.compute(ctx, node.LHS, scope, m)
		if !recv.IsKnown() {
			return Indeterminate()
		}
		this = recv.value
		owner = e.runtimeType(this)
	}

	if !node.Call {
		if obj, ok := this.(map[string]interface{}); ok {
			if v, found := obj[node.Name]; found {
				return Known(typesystem.Normalize(v))
			}
		}
		prop := owner.Property(node.Name)
		if prop == nil || prop.Impl == nil {
			if _, ok := this.(map[string]interface{}); ok {
				return Known(nil)
			}
			return unknown(m)
		}
		v, err := prop.Impl(ctx, this)
		if err != nil {
			e.hostError(owner, node.Name, err)
			return unknown(m)
		}
		return Known(typesystem.Normalize(v))
	}

	args := make([]interface{}, len(node.Arguments))
	for i, arg := range node.Arguments {
		r := e.compute(ctx, arg, scope, m)
		if !r.IsKnown() {
			return Indeterminate()
		}
		args[i] = r.value
	}

	method := overload(owner.Methods(node.Name), len(args))
	if method == nil || method.Impl == nil {
		if e.opts.Debug {
			e.logger.Debug("no implementation",
				"owner", owner.String(),
				"member", node.Name,
				"arity", len(args))
		}
		return unknown(m)
	}
	v, err := method.Impl(ctx, this, args...)
	if err != nil {
		e.hostError(owner, node.Name, err)
		return unknown(m)
	}
	return Known(typesystem.Normalize(v))
}

// runtimeType returns the registered type whose members apply to v.
func (e *Evaluator) runtimeType(v interface{}) typesystem.Type {
	switch v.(type) {
	case nil:
		return e.reg.Null
	case bool:
		return e.reg.Boolean
	case float64:
		return e.reg.Number
	case string:
		return e.reg.String
	case []interface{}:
		return e.reg.Array
	case map[string]interface{}:
		return e.reg.Object
	}
	return e.reg.TypeOf(v, false)
}

func (e *Evaluator) hostError(owner typesystem.Type, member string, err error) {
	name := owner.String() + "." + member
	e.logger.Debug("host call failed",
		"member", name,
		"error", err)
	e.metrics.HostError(name)
}

// overload picks the method overload taking n arguments. Exact arity wins
// over a variadic match.
func overload(methods []*typesystem.Method, n int) *typesystem.Method {
	var variadic *typesystem.Method
	for _, m := range methods {
		if m.Arity() == n {
			return m
		}
		if variadic == nil && m.Accepts(n) {
			variadic = m
		}
	}
	return variadic
}
