// Package metrics exposes Prometheus counters for the expression engine.
//
// A Collector is optional everywhere it is accepted: every method is a no-op
// on a nil receiver, so callers never need to guard their calls.
//
//	m := metrics.New("axexpr")
//	prometheus.MustRegister(m)
//	engine, _ := axexpr.New(axexpr.AXML, axexpr.WithMetrics(m))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zhangrenfeng/axexpr/pkg/types"
)

// Collector groups the engine counters. It implements prometheus.Collector.
type Collector struct {
	parses        *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	evaluations   *prometheus.CounterVec
	diagnostics   *prometheus.CounterVec
	hostErrors    *prometheus.CounterVec
	indeterminate prometheus.Counter
}

// New creates a Collector whose metric names are prefixed with namespace.
func New(namespace string) *Collector {
	return &Collector{
		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parses_total",
				Help:      "Total number of parsed expressions.",
			},
			[]string{"result"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of expression cache lookups.",
			},
			[]string{"result"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of evaluator invocations.",
			},
			[]string{"op"},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of reported diagnostics.",
			},
			[]string{"severity"},
		),
		hostErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "host_call_errors_total",
				Help:      "Total number of failed host member calls.",
			},
			[]string{"member"},
		),
		indeterminate: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indeterminate_results_total",
				Help:      "Total number of computations that ended indeterminate.",
			},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.parses.Describe(ch)
	c.cacheLookups.Describe(ch)
	c.evaluations.Describe(ch)
	c.diagnostics.Describe(ch)
	c.hostErrors.Describe(ch)
	c.indeterminate.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.parses.Collect(ch)
	c.cacheLookups.Collect(ch)
	c.evaluations.Collect(ch)
	c.diagnostics.Collect(ch)
	c.hostErrors.Collect(ch)
	c.indeterminate.Collect(ch)
}

// Parsed counts one parse.
func (c *Collector) Parsed(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.parses.WithLabelValues(result).Inc()
}

// CacheLookup counts one cache lookup.
func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Evaluated counts one evaluator operation ("compute", "value", "type",
// "check").
func (c *Collector) Evaluated(op string) {
	if c == nil {
		return
	}
	c.evaluations.WithLabelValues(op).Inc()
}

// Indeterminate counts one indeterminate Compute result.
func (c *Collector) Indeterminate() {
	if c == nil {
		return
	}
	c.indeterminate.Inc()
}

// Diagnosed counts diagnostics by severity.
func (c *Collector) Diagnosed(diags []types.Diagnostic) {
	if c == nil {
		return
	}
	for _, d := range diags {
		c.diagnostics.WithLabelValues(d.Severity.String()).Inc()
	}
}

// HostError counts a failed host call of owner.member.
func (c *Collector) HostError(member string) {
	if c == nil {
		return
	}
	c.hostErrors.WithLabelValues(member).Inc()
}
