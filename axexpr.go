// Package axexpr is the template expression engine of the AXML and Mist
// languages.
//
// Template attributes such as {{ item.price * count }} hold small
// expressions. axexpr parses them, evaluates them against known data, infers
// their static types and reports problems as positioned diagnostics, the
// way an editor needs them:
//   - Parse: source text to a reusable, immutable expression
//   - Compute / ComputeValue: partial or eager evaluation
//   - TypeOf: static type inference over a structural type system
//   - Check / Diagnose: ordered diagnostics with offsets and lengths
//
// # Quick Start
//
//	engine, err := axexpr.New(axexpr.AXML)
//	scope := evaluator.NewContextWith(map[string]interface{}{"count": 2})
//
//	v, err := engine.ComputeValue(ctx, "count * 10", scope) // 20
//	diags := engine.Diagnose(ctx, "count.foo", scope)      // property does not exist
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/zhangrenfeng/axexpr/pkg/parser
//   - Evaluator: github.com/zhangrenfeng/axexpr/pkg/evaluator
//   - Type system: github.com/zhangrenfeng/axexpr/pkg/typesystem
//   - Dialects: github.com/zhangrenfeng/axexpr/pkg/dialect
package axexpr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zhangrenfeng/axexpr/pkg/cache"
	"github.com/zhangrenfeng/axexpr/pkg/dialect"
	"github.com/zhangrenfeng/axexpr/pkg/evaluator"
	"github.com/zhangrenfeng/axexpr/pkg/metrics"
	"github.com/zhangrenfeng/axexpr/pkg/parser"
	"github.com/zhangrenfeng/axexpr/pkg/types"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// Built-in dialect names.
const (
	AXML = dialect.NameAXML
	Mist = dialect.NameMist
)

// Version returns the current version of axexpr.
func Version() string {
	return "v0.3.0"
}

// Parse parses an expression without caching.
//
// Example:
//
//	expr, err := axexpr.Parse("a ? b : c")
func Parse(source string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(source, opts...)
}

// MustParse is like Parse but panics if the expression cannot be parsed.
// It simplifies safe initialization of global variables.
func MustParse(source string) *types.Expression {
	expr, err := Parse(source)
	if err != nil {
		panic(fmt.Sprintf("axexpr: Parse(%q): %v", source, err))
	}
	return expr
}

// Engine bundles a dialect registry, an evaluator and a parse cache.
// It is safe for concurrent use.
type Engine struct {
	reg     *typesystem.Registry
	eval    *evaluator.Evaluator
	cache   *cache.Cache
	metrics *metrics.Collector
	logger  *slog.Logger
	parse   []parser.CompileOption
}

type options struct {
	cacheSize int
	logger    *slog.Logger
	debug     bool
	metrics   *metrics.Collector
	maxDepth  int
	registry  *typesystem.Registry
}

// Option configures an Engine.
type Option func(*options)

// WithCacheSize sets the parse cache capacity. Zero or less disables the
// cache.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDebug enables debug logging in the evaluator.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithMaxDepth limits expression nesting.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithRegistry replaces the dialect registry by a custom one. The dialect
// name passed to New is then ignored.
func WithRegistry(reg *typesystem.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New creates an engine for the named dialect.
func New(dialectName string, opts ...Option) (*Engine, error) {
	o := options{
		cacheSize: cache.DefaultCapacity,
		maxDepth:  parser.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	reg := o.registry
	if reg == nil {
		var err error
		if reg, err = dialect.ByName(dialectName); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		reg:     reg,
		metrics: o.metrics,
		logger:  o.logger,
		parse:   []parser.CompileOption{parser.WithMaxDepth(o.maxDepth)},
		eval: evaluator.New(
			evaluator.WithRegistry(reg),
			evaluator.WithLogger(o.logger),
			evaluator.WithDebug(o.debug),
			evaluator.WithMetrics(o.metrics),
		),
	}
	if o.cacheSize > 0 {
		e.cache = cache.New(o.cacheSize)
		e.cache.OnLookup = o.metrics.CacheLookup
	}
	return e, nil
}

// Registry returns the engine's type registry.
func (e *Engine) Registry() *typesystem.Registry {
	return e.reg
}

// Evaluator returns the engine's evaluator.
func (e *Engine) Evaluator() *evaluator.Evaluator {
	return e.eval
}

// Cache returns the parse cache, or nil when caching is disabled.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Parse parses source, reusing a cached expression when possible.
func (e *Engine) Parse(source string) (*types.Expression, error) {
	if e.cache == nil {
		return e.compile(source)
	}
	return e.cache.GetOrParse(source, e.compile)
}

func (e *Engine) compile(source string) (*types.Expression, error) {
	expr, err := parser.Compile(source, e.parse...)
	e.metrics.Parsed(err)
	return expr, err
}

// Compute parses and partially evaluates source.
func (e *Engine) Compute(ctx context.Context, source string, scope *evaluator.EvalContext) (evaluator.Result, error) {
	expr, err := e.Parse(source)
	if err != nil {
		return evaluator.Indeterminate(), err
	}
	return e.eval.Compute(ctx, expr, scope), nil
}

// ComputeValue parses and eagerly evaluates source.
func (e *Engine) ComputeValue(ctx context.Context, source string, scope *evaluator.EvalContext) (interface{}, error) {
	expr, err := e.Parse(source)
	if err != nil {
		return nil, err
	}
	return e.eval.ComputeValue(ctx, expr, scope), nil
}

// TypeOf parses source and infers its type.
func (e *Engine) TypeOf(ctx context.Context, source string, scope *evaluator.EvalContext) (typesystem.Type, error) {
	expr, err := e.Parse(source)
	if err != nil {
		return nil, err
	}
	return e.eval.TypeOf(ctx, expr, scope), nil
}

// Check parses and type-checks source.
func (e *Engine) Check(ctx context.Context, source string, scope *evaluator.EvalContext) ([]types.Diagnostic, error) {
	expr, err := e.Parse(source)
	if err != nil {
		return nil, err
	}
	return e.eval.Check(ctx, expr, scope), nil
}

// Diagnose is Check with parse errors folded in: a source that does not
// parse yields exactly one error diagnostic at the offending token.
func (e *Engine) Diagnose(ctx context.Context, source string, scope *evaluator.EvalContext) []types.Diagnostic {
	expr, err := e.Parse(source)
	if err != nil {
		var perr *types.Error
		if errors.As(err, &perr) {
			return []types.Diagnostic{perr.Diagnostic()}
		}
		return []types.Diagnostic{{Length: len(source), Severity: types.SeverityError, Message: err.Error()}}
	}
	return e.eval.Check(ctx, expr, scope)
}
