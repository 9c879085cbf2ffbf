// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package recommend

import (
	"strings"
	"time"
)

// ItemType identifies the kind of catalog entry. An item's identity is
// the pair (ID, Type): event and course IDs come from separate tables
// and may collide.
type ItemType string

const (
	// ItemTypeEvent is a time-bound event (conference, meetup, hackathon).
	ItemTypeEvent ItemType = "event"
	// ItemTypeCourse is an online or offline course.
	ItemTypeCourse ItemType = "course"
)

// Valid reports whether the item type is one of the known kinds.
func (t ItemType) Valid() bool {
	return t == ItemTypeEvent || t == ItemTypeCourse
}

// InteractionKind classifies a user-item interaction record.
type InteractionKind string

const (
	// KindView indicates the user opened an item.
	KindView InteractionKind = "view"
	// KindLike indicates explicit positive feedback.
	KindLike InteractionKind = "like"
	// KindDislike indicates explicit negative feedback.
	KindDislike InteractionKind = "dislike"
	// KindBookmark indicates the user saved an item.
	KindBookmark InteractionKind = "bookmark"
	// KindRecommendation records that the system emitted the item in a
	// ranked result. It is telemetry only and is never treated as a
	// positive signal by preference learning.
	KindRecommendation InteractionKind = "recommendation"
)

// Positive reports whether the interaction counts as a positive signal
// for preference learning.
func (k InteractionKind) Positive() bool {
	return k == KindLike || k == KindBookmark
}

// Valid reports whether the kind is one of the known interaction kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case KindView, KindLike, KindDislike, KindBookmark, KindRecommendation:
		return true
	default:
		return false
	}
}

// CatalogItem is a read-only snapshot of a recommendable catalog entry.
// The catalog store owns and mutates items; the engine only reads them.
type CatalogItem struct {
	// ID is unique within the item's type.
	ID int `json:"id"`

	// Type is the catalog table the item comes from.
	Type ItemType `json:"type"`

	// Title is the display title.
	Title string `json:"title"`

	// Tags is the parsed, trimmed tag set. Always non-nil; empty when
	// the stored tag string is blank or unparseable.
	Tags []string `json:"tags"`

	// Description is the free-text description.
	Description string `json:"description"`

	// URL is the canonical source link (unique per type).
	URL string `json:"url"`

	// Popularity counts positive interactions recorded against the item.
	Popularity int `json:"popularity"`

	// StartDate is the event date or course start date.
	StartDate time.Time `json:"start_date,omitempty"`
}

// SearchText returns the text the relevance models score against:
// title, tag list, and description joined the way the catalog stores them.
func (c *CatalogItem) SearchText() string {
	return c.Title + ". " + strings.Join(c.Tags, ", ") + ". " + c.Description
}

// TagSet returns the item's tags as a set for intersection tests.
func (c *CatalogItem) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Tags))
	for _, t := range c.Tags {
		set[t] = struct{}{}
	}
	return set
}

// ParseTags splits a comma-delimited tag string into a trimmed tag list.
// The result is always non-nil and preserves stored case and order.
func ParseTags(raw string) []string {
	tags := make([]string, 0, 4)
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}

// UserProfile is a user's tag-affinity profile. It is derived from
// positive interaction history and overwritten wholesale on each
// training run, never merged.
type UserProfile struct {
	// UserID is the profile owner.
	UserID int64 `json:"user_id"`

	// PreferredTags is the tag-affinity set. Always non-nil.
	PreferredTags []string `json:"preferred_tags"`
}

// TagSet returns the preferred tags as a set for intersection tests.
func (p *UserProfile) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.PreferredTags))
	for _, t := range p.PreferredTags {
		set[t] = struct{}{}
	}
	return set
}

// Interaction is an append-only user-item interaction record.
type Interaction struct {
	// ID is the store-assigned row identifier.
	ID int64 `json:"id"`

	// UserID is the acting user.
	UserID int64 `json:"user_id"`

	// ItemID identifies the item within its type.
	ItemID int `json:"item_id"`

	// ItemType is the item's catalog table.
	ItemType ItemType `json:"item_type"`

	// Kind classifies the interaction.
	Kind InteractionKind `json:"kind"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// ScoredItem is an ephemeral ranked candidate. It carries the combined
// score and both sub-scores so callers can explain a ranking.
type ScoredItem struct {
	// Item is the catalog snapshot the scores refer to.
	Item CatalogItem `json:"item"`

	// Score is the final hybrid score after the tag-affinity boost.
	Score float64 `json:"score"`

	// SemanticScore is the cosine similarity sub-score.
	SemanticScore float64 `json:"semantic_score"`

	// KeywordScore is the keyword relevance sub-score in [0, 1].
	KeywordScore float64 `json:"keyword_score"`
}

// Request describes one recommendation call.
type Request struct {
	// Query is the free-text query. An empty query is a valid degenerate
	// case: semantic scores collapse to zero and ranking is driven by
	// keyword relevance and the tag boost.
	Query string `json:"query"`

	// UserID scopes the request to a user. Zero means anonymous: no tag
	// boost is applied and no recommendation telemetry is recorded.
	UserID int64 `json:"user_id,omitempty"`

	// Limit is the maximum number of items to return.
	// Defaults to Config.DefaultLimit if zero and is capped at
	// Config.MaxLimit.
	Limit int `json:"limit,omitempty"`

	// HybridWeight blends semantic and keyword scores. Nil selects
	// Config.HybridWeight; values outside [0, 1] are clamped.
	HybridWeight *float64 `json:"hybrid_weight,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the result of one recommendation call.
type Response struct {
	// Items is the ranked result, at most Limit entries.
	Items []ScoredItem `json:"items"`

	// TotalCandidates is the catalog size considered.
	TotalCandidates int `json:"total_candidates"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the request was scoped to, zero if anonymous.
	UserID int64 `json:"user_id,omitempty"`

	// HybridWeight is the blend factor that was applied.
	HybridWeight float64 `json:"hybrid_weight"`

	// Degraded indicates the keyword path returned its zero-vector
	// fallback and ranking fell back to semantic-only scores.
	Degraded bool `json:"degraded,omitempty"`

	// LatencyMS is the total call latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}
