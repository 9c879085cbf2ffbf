// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package scoring

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/kursor/internal/metrics"
)

// KeywordWeights are the logistic model parameters for pairwise
// (query, text) relevance. They are loaded once at startup and treated
// as immutable.
type KeywordWeights struct {
	// Bias is the intercept term.
	Bias float64 `json:"bias"`

	// Overlap weights the fraction of query terms present in the text.
	Overlap float64 `json:"overlap"`

	// Jaccard weights the Jaccard similarity of the two term sets.
	Jaccard float64 `json:"jaccard"`

	// Frequency weights the normalized frequency of query terms in the
	// text.
	Frequency float64 `json:"frequency"`
}

// validate rejects non-finite parameters so a malformed weights file
// cannot push NaN into scoring.
func (w *KeywordWeights) validate() error {
	for name, v := range map[string]float64{
		"bias": w.Bias, "overlap": w.Overlap,
		"jaccard": w.Jaccard, "frequency": w.Frequency,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %q is not finite", name)
		}
	}
	return nil
}

// KeywordModel scores (query, text) pairs with a sigmoid-squashed
// logistic model over lexical features. Scoring runs behind a circuit
// breaker; any failure yields the zero-vector fallback rather than an
// error, per the degradation contract.
type KeywordModel struct {
	weights KeywordWeights
	breaker *gobreaker.CircuitBreaker[[]float64]
	logger  zerolog.Logger
}

// LoadKeywordModel reads model weights from a JSON file. A read, parse,
// or validation failure here is fatal to startup by contract.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func LoadKeywordModel(path string, logger zerolog.Logger) (*KeywordModel, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("read keyword weights: %w", err)
	}

	var weights KeywordWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("parse keyword weights %s: %w", path, err)
	}
	if err := weights.validate(); err != nil {
		return nil, fmt.Errorf("keyword weights %s: %w", path, err)
	}

	breaker := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        "keyword-relevance",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("keyword relevance breaker state change")
		},
	})

	logger.Info().Str("path", path).Msg("loaded keyword relevance weights")

	return &KeywordModel{
		weights: weights,
		breaker: breaker,
		logger:  logger.With().Str("component", "keyword").Logger(),
	}, nil
}

// Relevance scores each text against the query. The result always has
// len(texts) entries in [0, 1]. On any inference failure, including an
// open breaker or a canceled context, it returns a zero vector and
// degraded=true; it never returns an error.
func (m *KeywordModel) Relevance(ctx context.Context, query string, texts []string) ([]float64, bool) {
	scores, err := m.breaker.Execute(func() ([]float64, error) {
		return m.scoreBatch(ctx, query, texts)
	})
	if err != nil {
		metrics.KeywordFallbacksTotal.Inc()
		m.logger.Warn().Err(err).Int("texts", len(texts)).Msg("keyword relevance failed, using zero vector")
		return make([]float64, len(texts)), true
	}
	return scores, false
}

// scoreBatch computes the sigmoid-squashed relevance for each pair.
func (m *KeywordModel) scoreBatch(ctx context.Context, query string, texts []string) ([]float64, error) {
	queryTerms := termSet(Tokenize(query))

	out := make([]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("keyword scoring: %w", err)
		}
		out[i] = m.scorePair(queryTerms, text)
	}
	return out, nil
}

// scorePair computes sigmoid(bias + w·features) for one pair.
func (m *KeywordModel) scorePair(queryTerms map[string]struct{}, text string) float64 {
	textTokens := Tokenize(text)
	overlap, jaccard, frequency := lexicalFeatures(queryTerms, textTokens)

	z := m.weights.Bias +
		m.weights.Overlap*overlap +
		m.weights.Jaccard*jaccard +
		m.weights.Frequency*frequency

	return sigmoid(z)
}

// lexicalFeatures computes the three model features for a pair:
// the fraction of query terms present in the text, the Jaccard
// similarity of the term sets, and the fraction of text tokens that are
// query terms. All features are 0 when either side is empty.
func lexicalFeatures(queryTerms map[string]struct{}, textTokens []string) (overlap, jaccard, frequency float64) {
	if len(queryTerms) == 0 || len(textTokens) == 0 {
		return 0, 0, 0
	}

	textTerms := termSet(textTokens)
	matched := 0
	for term := range queryTerms {
		if _, ok := textTerms[term]; ok {
			matched++
		}
	}

	hits := 0
	for _, token := range textTokens {
		if _, ok := queryTerms[token]; ok {
			hits++
		}
	}

	union := len(queryTerms) + len(textTerms) - matched
	overlap = float64(matched) / float64(len(queryTerms))
	jaccard = float64(matched) / float64(union)
	frequency = float64(hits) / float64(len(textTokens))
	return overlap, jaccard, frequency
}

// termSet converts a token list to a set.
func termSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// sigmoid squashes z into (0, 1).
func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
