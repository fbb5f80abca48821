// Package metrics holds the Prometheus instruments for matching and history
// recording. All collectors register with the default registry and are served
// at GET /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Match kinds used as the "kind" label.
const (
	KindPartners  = "partners"
	KindGroups    = "groups"
	KindResources = "resources"
)

var (
	// MatchRequestsTotal counts matching calls by kind and outcome ("ok", "not_found", "error").
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studymatch_match_requests_total",
			Help: "Total number of matching requests",
		},
		[]string{"kind", "outcome"},
	)

	// MatchDuration tracks end-to-end latency of a matching call, storage loads included.
	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studymatch_match_duration_seconds",
			Help:    "Duration of matching requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"},
	)

	// MatchResults tracks how many matches survive thresholding and truncation.
	MatchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studymatch_match_results",
			Help:    "Number of results returned per matching request",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
		[]string{"kind"},
	)

	// HistoryWritesTotal counts match history records by outcome
	// ("written", "enqueued", "failed").
	HistoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studymatch_history_writes_total",
			Help: "Total number of match history writes",
		},
		[]string{"outcome"},
	)
)

// RecordMatch records one matching call.
func RecordMatch(kind, outcome string, results int, duration time.Duration) {
	MatchRequestsTotal.WithLabelValues(kind, outcome).Inc()
	MatchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if outcome == "ok" {
		MatchResults.WithLabelValues(kind).Observe(float64(results))
	}
}

// RecordHistoryWrite records the outcome of one match history write.
func RecordHistoryWrite(outcome string) {
	HistoryWritesTotal.WithLabelValues(outcome).Inc()
}
