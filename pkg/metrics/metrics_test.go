package metrics_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/zhangrenfeng/axexpr/pkg/metrics"
	"github.com/zhangrenfeng/axexpr/pkg/types"
)

func TestNilCollector(t *testing.T) {
	var c *metrics.Collector
	c.Parsed(nil)
	c.CacheLookup(true)
	c.Evaluated("compute")
	c.Indeterminate()
	c.Diagnosed([]types.Diagnostic{{Severity: types.SeverityError}})
	c.HostError("string.slice")
}

func TestCollector(t *testing.T) {
	c := metrics.New("test")
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatal(err)
	}

	c.Parsed(nil)
	c.Parsed(nil)
	c.Parsed(errors.New("boom"))
	c.CacheLookup(true)
	c.CacheLookup(false)
	c.CacheLookup(false)
	c.Evaluated("check")
	c.Indeterminate()
	c.Diagnosed([]types.Diagnostic{
		{Severity: types.SeverityError},
		{Severity: types.SeverityWarning},
		{Severity: types.SeverityError},
	})
	c.HostError("number.toFixed")

	expected := `
# HELP test_parses_total Total number of parsed expressions.
# TYPE test_parses_total counter
test_parses_total{result="error"} 1
test_parses_total{result="ok"} 2
# HELP test_cache_lookups_total Total number of expression cache lookups.
# TYPE test_cache_lookups_total counter
test_cache_lookups_total{result="hit"} 1
test_cache_lookups_total{result="miss"} 2
# HELP test_diagnostics_total Total number of reported diagnostics.
# TYPE test_diagnostics_total counter
test_diagnostics_total{severity="error"} 2
test_diagnostics_total{severity="warning"} 1
# HELP test_host_call_errors_total Total number of failed host member calls.
# TYPE test_host_call_errors_total counter
test_host_call_errors_total{member="number.toFixed"} 1
# HELP test_indeterminate_results_total Total number of computations that ended indeterminate.
# TYPE test_indeterminate_results_total counter
test_indeterminate_results_total 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_parses_total",
		"test_cache_lookups_total",
		"test_diagnostics_total",
		"test_host_call_errors_total",
		"test_indeterminate_results_total",
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := testutil.CollectAndCount(c, "test_evaluations_total"); got != 1 {
		t.Fatalf("expected 1 evaluation series, got %d", got)
	}
}
