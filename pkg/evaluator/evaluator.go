// Package evaluator computes values, infers types and collects diagnostics
// for parsed template expressions.
//
// All operations walk the same AST and read variables from an [EvalContext]:
//   - Compute evaluates partially: unknown inputs yield an indeterminate
//     [Result] that propagates with short-circuit awareness
//   - ComputeValue evaluates eagerly, treating anything unknown as null
//   - TypeOf infers the static type of the expression
//   - Check reports problems as ordered diagnostics
//
// Evaluation never fails: malformed runtime values degrade to null or
// indeterminate. Host member implementations are looked up in the type
// registry the evaluator was built with.
//
// # Example
//
//	ev := evaluator.New(evaluator.WithRegistry(dialect.AXML()))
//	scope := evaluator.NewContextWith(map[string]interface{}{"count": 3})
//	v := ev.ComputeValue(ctx, expr, scope)
//
// # Concurrency
//
// An Evaluator is safe for concurrent use once built. CheckMany can check a
// batch of expressions on several goroutines when concurrency is enabled;
// the shared EvalContext must not be modified meanwhile.
package evaluator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zhangrenfeng/axexpr/pkg/metrics"
	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// Evaluator evaluates and checks expressions against one type registry.
type Evaluator struct {
	opts    EvalOptions
	reg     *typesystem.Registry
	logger  *slog.Logger
	metrics *metrics.Collector
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Registry supplies types and host implementations. Defaults to an
	// empty sealed registry holding only the built-in primitives.
	Registry *typesystem.Registry
	// Concurrency lets CheckMany use several goroutines.
	Concurrency bool
	// Workers bounds the goroutines used by CheckMany. Defaults to 4.
	Workers int
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Metrics receives evaluation counters. May be nil.
	Metrics *metrics.Collector
}

// defaultConcurrency controls the default value of EvalOptions.Concurrency.
// It is false on WebAssembly targets, see evaluator_wasm.go.
var defaultConcurrency = true

// New creates a new Evaluator.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Concurrency: defaultConcurrency,
		Workers:     4,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Registry == nil {
		options.Registry = typesystem.NewRegistry("default")
		options.Registry.Seal()
	}
	if options.Workers <= 0 {
		options.Workers = 1
	}

	return &Evaluator{
		opts:    options,
		reg:     options.Registry,
		logger:  options.Logger,
		metrics: options.Metrics,
	}
}

// Registry returns the type registry in use.
func (e *Evaluator) Registry() *typesystem.Registry {
	return e.reg
}

// Compute evaluates expr partially. The result is indeterminate when the
// value depends on bindings that are unknown or known only by type.
func (e *Evaluator) Compute(ctx context.Context, expr *types.Expression, scope *EvalContext) Result {
	e.metrics.Evaluated("compute")
	if expr == nil || expr.AST() == nil || ctx.Err() != nil {
		e.metrics.Indeterminate()
		return Indeterminate()
	}
	r := e.compute(ctx, expr.AST(), scope, modePartial)
	if !r.IsKnown() {
		e.metrics.Indeterminate()
	}
	return r
}

// ComputeValue evaluates expr eagerly. Unknown values become nil.
func (e *Evaluator) ComputeValue(ctx context.Context, expr *types.Expression, scope *EvalContext) interface{} {
	e.metrics.Evaluated("value")
	if expr == nil || expr.AST() == nil || ctx.Err() != nil {
		return nil
	}
	return e.compute(ctx, expr.AST(), scope, modeEager).ValueOr(nil)
}

// TypeOf infers the static type of expr.
func (e *Evaluator) TypeOf(ctx context.Context, expr *types.Expression, scope *EvalContext) typesystem.Type {
	e.metrics.Evaluated("type")
	if expr == nil || expr.AST() == nil || ctx.Err() != nil {
		return e.reg.Any
	}
	return e.typeOf(expr.AST(), scope)
}

// Check type-checks expr and returns its diagnostics in source order.
func (e *Evaluator) Check(ctx context.Context, expr *types.Expression, scope *EvalContext) []types.Diagnostic {
	e.metrics.Evaluated("check")
	if expr == nil || expr.AST() == nil || ctx.Err() != nil {
		return nil
	}
	c := checker{e: e, scope: scope}
	c.check(expr.AST())
	if e.opts.Debug {
		e.logger.Debug("checked expression",
			"source", expr.Source(),
			"diagnostics", len(c.diags))
	}
	e.metrics.Diagnosed(c.diags)
	return c.diags
}

// CheckMany checks a batch of expressions. The result has one entry per
// expression. Cancellation is observed between expressions only; entries
// that were not reached are nil and the context error is returned.
func (e *Evaluator) CheckMany(ctx context.Context, exprs []*types.Expression, scope *EvalContext) ([][]types.Diagnostic, error) {
	out := make([][]types.Diagnostic, len(exprs))

	if !e.opts.Concurrency || len(exprs) < 2 {
		for i, expr := range exprs {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			out[i] = e.Check(ctx, expr, scope)
		}
		return out, ctx.Err()
	}

	workers := e.opts.Workers
	if workers > len(exprs) {
		workers = len(exprs)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = e.Check(ctx, exprs[i], scope)
			}
		}()
	}

feed:
	for i := range exprs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return out, ctx.Err()
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithRegistry sets the type registry (dialect).
func WithRegistry(reg *typesystem.Registry) EvalOption {
	return func(opts *EvalOptions) {
		opts.Registry = reg
	}
}

// WithConcurrency enables or disables concurrent CheckMany.
func WithConcurrency(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Concurrency = enabled
	}
}

// WithWorkers sets the number of CheckMany goroutines.
func WithWorkers(n int) EvalOption {
	return func(opts *EvalOptions) {
		opts.Workers = n
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) EvalOption {
	return func(opts *EvalOptions) {
		opts.Metrics = m
	}
}
