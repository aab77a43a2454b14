package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of kit searches",
		},
		[]string{"status"},
	)

	SearchCandidatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_candidates_total",
			Help:      "Candidates returned by the semantic index",
		},
	)

	SearchKeptTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_kept_total",
			Help:      "Candidates kept by the result filter, per filter rule",
		},
		[]string{"rule"},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	VideoLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_lookups_total",
			Help:      "Video lookups by outcome",
		},
		[]string{"result"}, // "found" / "not_found" / "error" / "disabled"
	)

	VideoFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_fallbacks_total",
			Help:      "Failed video lookups rendered with the not-found link",
		},
	)

	VideoBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "video_breaker_state",
			Help:      "Video search circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers search and video metrics with the default registry.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchCandidatesTotal,
			SearchKeptTotal,
			SearchDuration,
			VideoLookupsTotal,
			VideoFallbacksTotal,
			VideoBreakerState,
		)
	})
}
