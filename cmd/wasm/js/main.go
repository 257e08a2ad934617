//go:build js && wasm

// Command axexpr-wasm-js is the WebAssembly entrypoint for browser and
// Node.js hosts such as the editor extension.
//
// It exposes a global `axexpr` object with the following API:
//
//	axexpr.version()                               → string
//	axexpr.parse(expr)                             → { offset, length, message } | null
//	axexpr.compute(expr, varsJSON, dialect?)       → resultJSON | undefined (indeterminate)
//	axexpr.computeValue(expr, varsJSON, dialect?)  → resultJSON
//	axexpr.typeOf(expr, varsJSON, dialect?)        → string
//	axexpr.check(expr, varsJSON, dialect?)         → diagnosticsJSON
//	axexpr.format(expr, pretty?)                   → string (throws on parse error)
//
// varsJSON is a JSON object of variable values. A value of the form
// {"$type": "<annotation>"} binds the name by type only.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o axexpr.wasm ./cmd/wasm/js/
package main

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/oarkflow/json"

	"github.com/zhangrenfeng/axexpr"
	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

var engines = map[string]*axexpr.Engine{}

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	panic(js.Global().Get("Error").New(msg))
}

func engine(args []js.Value, i int) *axexpr.Engine {
	name := axexpr.AXML
	if len(args) > i && args[i].Type() == js.TypeString {
		name = args[i].String()
	}
	if e, ok := engines[name]; ok {
		return e
	}
	e, err := axexpr.New(name)
	if err != nil {
		jsThrow(err.Error())
	}
	engines[name] = e
	return e
}

// scope decodes varsJSON into an expression context.
func scope(reg *typesystem.Registry, args []js.Value, i int) *evaluator.EvalContext {
	s := evaluator.NewContext()
	if len(args) <= i || args[i].Type() != js.TypeString {
		return s
	}
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(args[i].String()), &vars); err != nil {
		jsThrow(fmt.Sprintf("axexpr: invalid vars JSON: %v", err))
	}
	for name, v := range vars {
		if o, ok := v.(map[string]interface{}); ok && len(o) == 1 {
			if src, ok := o["$type"].(string); ok {
				t, err := typesystem.ParseAnnotation(reg, src)
				if err != nil {
					jsThrow(fmt.Sprintf("axexpr: %s: %v", name, err))
				}
				s.Push(name, t)
				continue
			}
		}
		s.Push(name, v)
	}
	return s
}

func marshal(v interface{}) string {
	out, err := json.Marshal(v)
	if err != nil {
		jsThrow(fmt.Sprintf("axexpr: marshal result: %v", err))
	}
	return string(out)
}

func requireExpr(name string, args []js.Value) string {
	if len(args) < 1 {
		jsThrow("axexpr." + name + " requires an expression argument")
	}
	return args[0].String()
}

func diagnostic(d types.Diagnostic) map[string]interface{} {
	return map[string]interface{}{
		"offset":   d.Offset,
		"length":   d.Length,
		"severity": d.Severity.String(),
		"message":  d.Message,
	}
}

func jsParse(_ js.Value, args []js.Value) interface{} {
	_, err := engine(nil, 0).Parse(requireExpr("parse", args))
	if err == nil {
		return js.Null()
	}
	var perr *types.Error
	if errors.As(err, &perr) {
		return js.ValueOf(diagnostic(perr.Diagnostic()))
	}
	jsThrow(err.Error())
	return nil
}

func jsCompute(_ js.Value, args []js.Value) interface{} {
	src := requireExpr("compute", args)
	e := engine(args, 2)
	r, err := e.Compute(context.Background(), src, scope(e.Registry(), args, 1))
	if err != nil {
		jsThrow(fmt.Sprintf("axexpr.compute: %v", err))
	}
	v, ok := r.Value()
	if !ok {
		return js.Undefined()
	}
	return marshal(v)
}

func jsComputeValue(_ js.Value, args []js.Value) interface{} {
	src := requireExpr("computeValue", args)
	e := engine(args, 2)
	v, err := e.ComputeValue(context.Background(), src, scope(e.Registry(), args, 1))
	if err != nil {
		jsThrow(fmt.Sprintf("axexpr.computeValue: %v", err))
	}
	return marshal(v)
}

func jsTypeOf(_ js.Value, args []js.Value) interface{} {
	src := requireExpr("typeOf", args)
	e := engine(args, 2)
	t, err := e.TypeOf(context.Background(), src, scope(e.Registry(), args, 1))
	if err != nil {
		jsThrow(fmt.Sprintf("axexpr.typeOf: %v", err))
	}
	return t.String()
}

func jsCheck(_ js.Value, args []js.Value) interface{} {
	src := requireExpr("check", args)
	e := engine(args, 2)
	diags := e.Diagnose(context.Background(), src, scope(e.Registry(), args, 1))
	out := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		out[i] = diagnostic(d)
	}
	return marshal(out)
}

func jsFormat(_ js.Value, args []js.Value) interface{} {
	expr, err := engine(nil, 0).Parse(requireExpr("format", args))
	if err != nil {
		jsThrow(fmt.Sprintf("axexpr.format: %v", err))
	}
	pretty := len(args) > 1 && args[1].Truthy()
	return expr.Format(pretty)
}

func main() {
	api := map[string]interface{}{
		"parse":        js.FuncOf(jsParse),
		"compute":      js.FuncOf(jsCompute),
		"computeValue": js.FuncOf(jsComputeValue),
		"typeOf":       js.FuncOf(jsTypeOf),
		"check":        js.FuncOf(jsCheck),
		"format":       js.FuncOf(jsFormat),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return axexpr.Version()
		}),
	}
	js.Global().Set("axexpr", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}
