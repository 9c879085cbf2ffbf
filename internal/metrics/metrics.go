// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation metrics.
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kursor_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"scoped"}, // "user" or "anonymous"
	)

	RecommendLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kursor_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kursor_recommend_results",
			Help:    "Number of items returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// KeywordFallbacksTotal counts keyword inference failures that
	// degraded a request to semantic-only ranking.
	KeywordFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kursor_keyword_fallbacks_total",
			Help: "Total number of keyword relevance zero-vector fallbacks",
		},
	)

	// Embedding cache metrics.
	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kursor_embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kursor_embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		},
	)

	// Preference training metrics.
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kursor_training_runs_total",
			Help: "Total number of preference training runs",
		},
		[]string{"result"}, // "trained" or "skipped"
	)

	// Ingestion metrics.
	IngestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kursor_ingest_items_total",
			Help: "Total number of catalog items upserted by ingestion",
		},
		[]string{"item_type"},
	)

	IngestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kursor_ingest_errors_total",
			Help: "Total number of ingestion failures",
		},
		[]string{"feed"},
	)

	// HTTP API metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kursor_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kursor_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Store metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kursor_db_query_duration_seconds",
			Help:    "Duration of SQLite queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kursor_db_query_errors_total",
			Help: "Total number of SQLite query errors",
		},
		[]string{"operation"},
	)
)

// ObserveRecommend records one recommendation request.
func ObserveRecommend(userScoped bool, results int, duration time.Duration) {
	scoped := "anonymous"
	if userScoped {
		scoped = "user"
	}
	RecommendRequestsTotal.WithLabelValues(scoped).Inc()
	RecommendLatency.Observe(duration.Seconds())
	RecommendResults.Observe(float64(results))
}

// ObserveTraining records one preference training run.
func ObserveTraining(trained bool) {
	result := "skipped"
	if trained {
		result = "trained"
	}
	TrainingRunsTotal.WithLabelValues(result).Inc()
}

// ObserveAPIRequest records one HTTP API request.
func ObserveAPIRequest(method, path string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery records one store query.
func ObserveDBQuery(operation string, err error, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
