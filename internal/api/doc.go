// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package api exposes the recommendation service over HTTP.
//
// Endpoints:
//
//	POST /api/v1/recommend                        rank the catalog against a query
//	POST /api/v1/users                            register or refresh a user
//	POST /api/v1/users/{userID}/preferences/train rebuild the user's tag profile
//	GET  /api/v1/users/{userID}/preferences       read the stored profile
//	GET  /api/v1/users/{userID}/history           recent queries, newest first
//	GET  /healthz                                 liveness probe
//	GET  /metrics                                 Prometheus metrics
package api
