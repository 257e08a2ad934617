//go:build wasip1

// Command axexpr-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "expression": "<expr>", "dialect": "axml", "mode": "value",
//	          "vars": { ... }, "types": { "name": "<annotation>" } }
//	stdout: { "result": <any>, "known": true, "type": "...", "diagnostics": [...] }
//	        { "error": "<message>", "diagnostics": [...] }    on failure (exit code 1)
//
// mode is one of "value" (default), "compute", "type" or "check".
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o axexpr.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":"a + 1","vars":{"a":41}}' | wasmtime axexpr.wasm
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oarkflow/json"

	"github.com/zhangrenfeng/axexpr"
	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

type request struct {
	Expression string                 `json:"expression"`
	Dialect    string                 `json:"dialect"`
	Mode       string                 `json:"mode"`
	Vars       map[string]interface{} `json:"vars"`
	Types      map[string]string      `json:"types"`
}

type response struct {
	Result      interface{}        `json:"result,omitempty"`
	Known       *bool              `json:"known,omitempty"`
	Type        string             `json:"type,omitempty"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
	Error       string             `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	data, err := json.Marshal(r)
	if err != nil {
		data = []byte(`{"error":"marshal response"}`)
		exitCode = 1
	}
	_, _ = os.Stdout.Write(append(data, '\n'))
	os.Exit(exitCode)
}

func fail(err error) {
	r := response{Error: err.Error()}
	var perr *types.Error
	if errors.As(err, &perr) {
		r.Diagnostics = []types.Diagnostic{perr.Diagnostic()}
	}
	writeResponse(r, 1)
}

func main() {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		fail(err)
	}
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}
	if req.Dialect == "" {
		req.Dialect = axexpr.AXML
	}

	engine, err := axexpr.New(req.Dialect, axexpr.WithCacheSize(0))
	if err != nil {
		fail(err)
	}

	scope := evaluator.NewContextWith(req.Vars)
	for name, src := range req.Types {
		t, err := typesystem.ParseAnnotation(engine.Registry(), src)
		if err != nil {
			fail(fmt.Errorf("types.%s: %w", name, err))
		}
		scope.Push(name, t)
	}

	ctx := context.Background()
	switch req.Mode {
	case "", "value":
		v, err := engine.ComputeValue(ctx, req.Expression, scope)
		if err != nil {
			fail(err)
		}
		writeResponse(response{Result: v}, 0)
	case "compute":
		r, err := engine.Compute(ctx, req.Expression, scope)
		if err != nil {
			fail(err)
		}
		v, known := r.Value()
		writeResponse(response{Result: v, Known: &known}, 0)
	case "type":
		t, err := engine.TypeOf(ctx, req.Expression, scope)
		if err != nil {
			fail(err)
		}
		writeResponse(response{Type: t.String()}, 0)
	case "check":
		writeResponse(response{Diagnostics: engine.Diagnose(ctx, req.Expression, scope)}, 0)
	default:
		writeResponse(response{Error: fmt.Sprintf("unknown mode %q", req.Mode)}, 1)
	}
}
