// Package metrics exports Prometheus metrics for search, query expansion,
// index synchronization and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hyperjump/mazad/internal/expand"
)

// Search modes.
const (
	ModeExact     = "exact"
	ModeFuzzy     = "fuzzy"
	ModeAutoFuzzy = "auto_fuzzy"
	ModeImage     = "image"
)

var (
	SearchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazad_search_queries_total",
			Help: "Total number of search queries",
		},
		[]string{"mode"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mazad_search_duration_seconds",
			Help:    "Search duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	SearchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazad_search_results_total",
			Help: "Total number of search results returned",
		},
		[]string{"mode"},
	)

	ExpansionDetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazad_expansion_detections_total",
			Help: "Brands, models and categories detected during query expansion",
		},
		[]string{"kind"},
	)

	IndexSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazad_index_sync_total",
			Help: "Index synchronization operations",
		},
		[]string{"op", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazad_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mazad_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveSearch records one finished search.
func ObserveSearch(mode string, d time.Duration, results int) {
	SearchQueriesTotal.WithLabelValues(mode).Inc()
	SearchDuration.WithLabelValues(mode).Observe(d.Seconds())
	SearchResultsTotal.WithLabelValues(mode).Add(float64(results))
}

// RecordExpansion counts what an expansion detected.
func RecordExpansion(q *expand.ExpandedQuery) {
	if q == nil {
		return
	}
	if q.Brand != "" {
		kind := "brand"
		if q.FuzzyBrand {
			kind = "brand_fuzzy"
		}
		ExpansionDetectionsTotal.WithLabelValues(kind).Inc()
	}
	if q.Model != "" {
		kind := "model"
		if q.FuzzyModel {
			kind = "model_fuzzy"
		}
		ExpansionDetectionsTotal.WithLabelValues(kind).Inc()
	}
	if q.Category != "" {
		ExpansionDetectionsTotal.WithLabelValues("category").Inc()
	}
}

// RecordSync counts one index sync operation.
func RecordSync(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	IndexSyncTotal.WithLabelValues(op, status).Inc()
}
