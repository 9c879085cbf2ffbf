// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages to
// maintain clean separation. The Store, SemanticScorer, and KeywordScorer
// interfaces allow integration with the database and scoring packages
// without creating circular imports.

// Store is the catalog and interaction store the engine consumes.
// Implemented by the store package; the engine never mutates the catalog
// beyond appending interactions and overwriting preference profiles.
type Store interface {
	// GetAllItems returns a catalog snapshot in deterministic order
	// (type, then id ascending).
	GetAllItems(ctx context.Context) ([]CatalogItem, error)

	// GetItem returns the item with the given identity, or (nil, nil)
	// when no such item exists.
	GetItem(ctx context.Context, id int, itemType ItemType) (*CatalogItem, error)

	// GetUserPreferences returns the user's profile. Unknown users and
	// malformed stored profiles yield an empty profile, not an error.
	GetUserPreferences(ctx context.Context, userID int64) (UserProfile, error)

	// UpdateUserPreferences overwrites the user's profile wholesale.
	UpdateUserPreferences(ctx context.Context, userID int64, profile UserProfile) error

	// LogInteraction appends one interaction record.
	LogInteraction(ctx context.Context, userID int64, itemID int, itemType ItemType, kind InteractionKind) error

	// GetUserInteractions returns all interactions recorded for the user.
	GetUserInteractions(ctx context.Context, userID int64) ([]Interaction, error)
}

// SemanticScorer produces embedding-space similarities between a query
// and item texts. The returned slice always has len(texts) entries; an
// empty query embeds to the zero vector and yields all-zero similarities.
type SemanticScorer interface {
	Similarities(ctx context.Context, query string, texts []string) []float64
}

// KeywordScorer produces pairwise (query, text) relevance probabilities
// in [0, 1]. The returned slice always has len(texts) entries. Inference
// failure is not an error: the scorer substitutes a zero vector and
// reports degraded=true so ranking continues on semantic scores alone.
type KeywordScorer interface {
	Relevance(ctx context.Context, query string, texts []string) (scores []float64, degraded bool)
}

// Engine combines semantic and keyword relevance with per-user tag
// affinity to rank catalog items, and derives tag-affinity profiles from
// interaction history. It is stateless apart from configuration and the
// scorers' immutable model weights, and is safe for concurrent use.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	store    Store
	semantic SemanticScorer
	keyword  KeywordScorer

	requestCount atomic.Int64
	errorCount   atomic.Int64
	trainCount   atomic.Int64
}

// NewEngine creates a recommendation engine. All collaborators are
// required; model weights behind the scorers are loaded before this
// point and are immutable for the life of the process.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, store Store, semantic SemanticScorer, keyword KeywordScorer, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if semantic == nil || keyword == nil {
		return nil, fmt.Errorf("scorers are required")
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		store:    store,
		semantic: semantic,
		keyword:  keyword,
	}, nil
}

// Recommend ranks the catalog against the request and returns at most
// Limit items. It never returns an error: an empty catalog or any
// internal failure yields an empty item list. For user-scoped requests
// each returned item is recorded as a recommendation interaction.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) *Response {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	weight := e.resolveHybridWeight(req.HybridWeight)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Logger()

	items, err := e.store.GetAllItems(ctx)
	if err != nil {
		e.errorCount.Add(1)
		logger.Error().Err(err).Msg("catalog read failed")
		return e.emptyResponse(req, weight, start)
	}
	if len(items) == 0 {
		logger.Warn().Msg("no items in catalog")
		return e.emptyResponse(req, weight, start)
	}

	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].SearchText()
	}

	semantic := e.semantic.Similarities(ctx, req.Query, texts)
	keyword, degraded := e.keyword.Relevance(ctx, req.Query, texts)
	if degraded {
		logger.Warn().Msg("keyword relevance degraded, ranking on semantic scores only")
	}

	scored := e.combine(items, semantic, keyword, weight)

	if req.UserID != 0 {
		if ok := e.applyTagBoost(ctx, req.UserID, scored, logger); !ok {
			return e.emptyResponse(req, weight, start)
		}
	}

	rankItems(scored)

	if len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}

	if req.UserID != 0 {
		e.recordRecommendations(ctx, req.UserID, scored, logger)
	}

	resp := &Response{
		Items:           scored,
		TotalCandidates: len(items),
		Metadata:        e.buildMetadata(req, weight, degraded, start),
	}

	logger.Debug().
		Int("candidates", len(items)).
		Int("returned", len(scored)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Limit <= 0 {
		req.Limit = e.config.DefaultLimit
	}
	if req.Limit > e.config.MaxLimit {
		req.Limit = e.config.MaxLimit
	}
	return req
}

// resolveHybridWeight picks the request weight or the configured default
// and clamps it into [0, 1]. NaN falls back to the default.
func (e *Engine) resolveHybridWeight(w *float64) float64 {
	if w == nil || math.IsNaN(*w) {
		return e.config.HybridWeight
	}
	switch {
	case *w < 0:
		return 0
	case *w > 1:
		return 1
	default:
		return *w
	}
}

// combine blends the two score vectors into pre-boost hybrid scores.
// The blend is a convex combination, so each pre-boost score is bounded
// by the min and max of its two inputs. Non-finite sub-scores are
// sanitized to 0 before blending so NaN/Inf never reach the ranking.
func (e *Engine) combine(items []CatalogItem, semantic, keyword []float64, weight float64) []ScoredItem {
	scored := make([]ScoredItem, len(items))
	for i := range items {
		sem := sanitizeScore(scoreAt(semantic, i))
		kw := sanitizeScore(scoreAt(keyword, i))
		scored[i] = ScoredItem{
			Item:          items[i],
			SemanticScore: sem,
			KeywordScore:  kw,
			Score:         weight*sem + (1-weight)*kw,
		}
	}
	return scored
}

// applyTagBoost multiplies each item's hybrid score by (1 + 0.2*c) where
// c is the number of tags shared with the user's preferred tags. The
// boost is uncapped. Returns false when the profile cannot be read.
func (e *Engine) applyTagBoost(ctx context.Context, userID int64, scored []ScoredItem, logger zerolog.Logger) bool {
	profile, err := e.store.GetUserPreferences(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		logger.Error().Err(err).Msg("preference read failed")
		return false
	}
	if len(profile.PreferredTags) == 0 {
		return true
	}

	preferred := profile.TagSet()
	for i := range scored {
		c := 0
		for _, tag := range scored[i].Item.Tags {
			if _, ok := preferred[tag]; ok {
				c++
			}
		}
		if c > 0 {
			scored[i].Score *= 1 + tagBoostPerMatch*float64(c)
		}
	}
	return true
}

// rankItems sorts by hybrid score descending with a deterministic
// tie-break: ascending item ID, then item type. The tie-break is
// explicit rather than relying on incidental catalog order.
func rankItems(scored []ScoredItem) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := &scored[i], &scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Item.ID != b.Item.ID {
			return a.Item.ID < b.Item.ID
		}
		return a.Item.Type < b.Item.Type
	})
}

// recordRecommendations appends one recommendation interaction per
// emitted item. This is telemetry: failures are logged and do not void
// the already-computed ranking, and these records are excluded from
// preference learning.
func (e *Engine) recordRecommendations(ctx context.Context, userID int64, scored []ScoredItem, logger zerolog.Logger) {
	for i := range scored {
		item := &scored[i].Item
		if err := e.store.LogInteraction(ctx, userID, item.ID, item.Type, KindRecommendation); err != nil {
			logger.Warn().
				Err(err).
				Int("item_id", item.ID).
				Str("item_type", string(item.Type)).
				Msg("failed to record recommendation interaction")
		}
	}
}

// TrainUserPreferences derives the user's tag-affinity profile from
// positive interaction history (likes and bookmarks) and overwrites any
// prior profile. Returns false, leaving the profile untouched, when the
// user has no positive interactions or when the store fails. This is the
// only code path that mutates preferred tags. It never panics or
// returns an error to the caller.
func (e *Engine) TrainUserPreferences(ctx context.Context, userID int64) bool {
	logger := e.logger.With().Int64("user_id", userID).Logger()

	interactions, err := e.store.GetUserInteractions(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		logger.Error().Err(err).Msg("interaction read failed")
		return false
	}

	positive := make([]Interaction, 0, len(interactions))
	for _, inter := range interactions {
		if inter.Kind.Positive() {
			positive = append(positive, inter)
		}
	}
	if len(positive) == 0 {
		logger.Debug().Msg("no positive interactions, profile unchanged")
		return false
	}

	tags, ok := e.collectPreferredTags(ctx, positive, logger)
	if !ok {
		return false
	}

	profile := UserProfile{UserID: userID, PreferredTags: tags}
	if err := e.store.UpdateUserPreferences(ctx, userID, profile); err != nil {
		e.errorCount.Add(1)
		logger.Error().Err(err).Msg("preference write failed")
		return false
	}

	e.trainCount.Add(1)
	logger.Info().Int("tags", len(tags)).Msg("trained user preferences")
	return true
}

// collectPreferredTags resolves each positive interaction to its catalog
// item and unions the items' tag sets. Items deleted since the
// interaction was recorded are skipped; store errors abort the run.
// The returned slice is sorted for deterministic persistence.
func (e *Engine) collectPreferredTags(ctx context.Context, positive []Interaction, logger zerolog.Logger) ([]string, bool) {
	seen := make(map[string]struct{})
	for _, inter := range positive {
		item, err := e.store.GetItem(ctx, inter.ItemID, inter.ItemType)
		if err != nil {
			e.errorCount.Add(1)
			logger.Error().Err(err).Int("item_id", inter.ItemID).Msg("item read failed")
			return nil, false
		}
		if item == nil {
			continue
		}
		for _, tag := range item.Tags {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, true
}

// buildMetadata constructs response metadata.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildMetadata(req Request, weight float64, degraded bool, start time.Time) ResponseMetadata {
	return ResponseMetadata{
		RequestID:    req.RequestID,
		UserID:       req.UserID,
		HybridWeight: weight,
		Degraded:     degraded,
		LatencyMS:    time.Since(start).Milliseconds(),
		Timestamp:    time.Now(),
	}
}

// emptyResponse returns a response with no items.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) emptyResponse(req Request, weight float64, start time.Time) *Response {
	return &Response{
		Items:           []ScoredItem{},
		TotalCandidates: 0,
		Metadata:        e.buildMetadata(req, weight, false, start),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// Stats reports engine counters for observability endpoints.
func (e *Engine) Stats() (requests, errors, trainings int64) {
	return e.requestCount.Load(), e.errorCount.Load(), e.trainCount.Load()
}

// scoreAt returns scores[i], or 0 when the vector is shorter than the
// catalog snapshot. Scorers guarantee equal length; this is the last
// line of defense at the ranking boundary.
func scoreAt(scores []float64, i int) float64 {
	if i < len(scores) {
		return scores[i]
	}
	return 0
}

// sanitizeScore maps non-finite values to 0 so a single bad inference
// cannot poison the sort order.
func sanitizeScore(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
