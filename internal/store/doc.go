// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package store implements the SQLite catalog and interaction store.
//
// Events and courses keep independent ID spaces; (id, item_type) is the
// catalog-wide identity. Feed ingestion upserts rows keyed by URL so
// refreshes never duplicate items or reset popularity. Interactions are
// append-only; positive ones (like, bookmark) bump item popularity in
// the same transaction.
package store
