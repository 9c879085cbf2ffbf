// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package scoring implements the two relevance models behind the
// recommendation engine.
//
// The semantic path embeds query and item texts into a shared vector
// space using pre-trained word vectors (mean-pooled, L2-normalized) and
// scores by cosine similarity. The empty string embeds to the zero
// vector, so an empty query scores 0 against every item.
//
// The keyword path scores each (query, item text) pair with a logistic
// model over lexical features, squashed through a sigmoid into [0, 1].
// Calls run behind a circuit breaker: any inference failure substitutes
// a zero vector of the correct length and the engine degrades to
// semantic-only ranking for that request.
//
// Model weights are loaded once at process start and are immutable
// thereafter; a load failure aborts startup. There is no partial or
// degraded startup.
package scoring
