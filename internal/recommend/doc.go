// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package recommend implements the hybrid ranking core: it blends
// semantic and keyword relevance scores over a catalog snapshot, applies
// a per-user tag-affinity boost, and derives that affinity profile from
// positive interaction history.
//
// # Scoring pipeline
//
// For a query q and catalog items with texts t_i:
//
//	hybrid_i = w * semantic(q, t_i) + (1 - w) * keyword(q, t_i)
//
// with w in [0, 1] (default 0.7). When the request is scoped to a user
// whose profile has preferred tags, each item sharing c > 0 tags with
// the profile is boosted by (1 + 0.2*c) before ranking. Items are sorted
// by boosted score descending with an explicit tie-break (ascending item
// ID, then type) and truncated to the request limit.
//
// # Failure contract
//
// The two public operations, Recommend and TrainUserPreferences, never
// return errors and never panic. Store failures convert to an empty
// result or false; keyword inference failures degrade to semantic-only
// ranking via the scorer's zero-vector fallback. The only fatal
// condition in the system is model weight loading at startup, which
// happens before this package is constructed.
//
// # Concurrency
//
// The engine holds no mutable state beyond atomic counters; scoring and
// ranking are pure functions over the request, the catalog snapshot,
// and the scorers' immutable model weights. Concurrent calls for
// different users require no locking here; conflicting writes are
// serialized by the store.
package recommend
