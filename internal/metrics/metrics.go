// Package metrics exposes Prometheus instrumentation for the resolution
// pipeline. Collectors are registered once at package init via promauto;
// the /metrics endpoint is mounted by internal/api.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyant_resolutions_total",
		Help: "Total query resolutions by outcome",
	}, []string{"outcome"}) // ok, exhausted, error

	resolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voyant_resolution_duration_seconds",
		Help:    "End-to-end resolution latency in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	resolutionIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voyant_resolution_iterations",
		Help:    "Agentic loop iterations consumed per resolution",
		Buckets: []float64{1, 2, 3, 4, 5},
	})

	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyant_tool_calls_total",
		Help: "Tool invocations dispatched by the orchestrator",
	}, []string{"tool"})

	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyant_search_requests_total",
		Help: "Outbound search provider requests",
	}, []string{"status"})

	summarizeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyant_summarize_requests_total",
		Help: "Outbound summarization requests",
	}, []string{"status"})
)

// Outcome labels for RecordResolution.
const (
	OutcomeOK        = "ok"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

// RecordResolution records one completed (or failed) resolution.
func RecordResolution(outcome string, iterations int, elapsed time.Duration) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
	resolutionDuration.Observe(elapsed.Seconds())
	if iterations > 0 {
		resolutionIterations.Observe(float64(iterations))
	}
}

// RecordToolCall records a dispatched tool invocation.
func RecordToolCall(tool string) {
	toolCallsTotal.WithLabelValues(tool).Inc()
}

// RecordSearch records an outbound search request result.
func RecordSearch(ok bool) {
	searchRequests.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordSummarize records an outbound summarization request result.
func RecordSummarize(ok bool) {
	summarizeRequests.WithLabelValues(statusLabel(ok)).Inc()
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
