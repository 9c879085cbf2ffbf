// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package metrics provides Prometheus instrumentation for the
// recommendation service: request latency and throughput, keyword
// degradation fallbacks, embedding cache efficiency, preference
// training runs, catalog ingestion, and store query performance.
//
// All collectors are registered with the default registry via promauto
// and exposed on /metrics by the API router.
package metrics
