// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package ingest pulls event and course feeds into the catalog.
//
// Feeds are JSON arrays of item objects, fetched on a fixed interval
// and upserted by URL so repeated runs refresh rather than duplicate.
// A shared rate limiter keeps the fetcher polite toward feed hosts.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/kursor/internal/config"
	"github.com/tomtom215/kursor/internal/metrics"
	"github.com/tomtom215/kursor/internal/store"
)

// maxFeedBytes bounds a single feed document.
const maxFeedBytes = 10 << 20

// CatalogWriter is the store surface ingestion writes through.
type CatalogWriter interface {
	UpsertEvent(ctx context.Context, e store.Event) error
	UpsertCourse(ctx context.Context, c store.Course) error
}

// eventFeedItem is one entry in an event feed document.
type eventFeedItem struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
}

// courseFeedItem is one entry in a course feed document.
type courseFeedItem struct {
	Title       string   `json:"title"`
	Provider    string   `json:"provider"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date"`
	URL         string   `json:"url"`
	Duration    string   `json:"duration"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
}

// Ingestor fetches configured feeds and upserts their items.
type Ingestor struct {
	cfg     config.IngestConfig
	writer  CatalogWriter
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates an Ingestor.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg config.IngestConfig, writer CatalogWriter, logger zerolog.Logger) *Ingestor {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Ingestor{
		cfg:     cfg,
		writer:  writer,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// RefreshAll fetches every configured feed once. Individual feed
// failures are counted and logged but never abort the sweep.
func (i *Ingestor) RefreshAll(ctx context.Context) {
	for _, feed := range i.cfg.EventFeeds {
		if err := i.refreshEventFeed(ctx, feed); err != nil {
			metrics.IngestErrorsTotal.WithLabelValues(feedLabel(feed)).Inc()
			i.logger.Error().Err(err).Str("feed", feed).Msg("event feed refresh failed")
		}
	}
	for _, feed := range i.cfg.CourseFeeds {
		if err := i.refreshCourseFeed(ctx, feed); err != nil {
			metrics.IngestErrorsTotal.WithLabelValues(feedLabel(feed)).Inc()
			i.logger.Error().Err(err).Str("feed", feed).Msg("course feed refresh failed")
		}
	}
}

func (i *Ingestor) refreshEventFeed(ctx context.Context, feed string) error {
	body, err := i.fetch(ctx, feed)
	if err != nil {
		return err
	}

	var items []eventFeedItem
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("decode event feed: %w", err)
	}

	upserted := 0
	for _, item := range items {
		if item.Title == "" || item.URL == "" {
			continue
		}
		e := store.Event{
			Title:       item.Title,
			Date:        item.Date,
			Location:    item.Location,
			Tags:        strings.Join(item.Tags, ", "),
			Description: item.Description,
			URL:         item.URL,
			Source:      feedLabel(feed),
		}
		if err := i.writer.UpsertEvent(ctx, e); err != nil {
			return fmt.Errorf("upsert event %q: %w", item.URL, err)
		}
		upserted++
		metrics.IngestItemsTotal.WithLabelValues("event").Inc()
	}

	i.logger.Info().Str("feed", feed).Int("items", upserted).Msg("event feed refreshed")
	return nil
}

func (i *Ingestor) refreshCourseFeed(ctx context.Context, feed string) error {
	body, err := i.fetch(ctx, feed)
	if err != nil {
		return err
	}

	var items []courseFeedItem
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("decode course feed: %w", err)
	}

	upserted := 0
	for _, item := range items {
		if item.Title == "" || item.URL == "" {
			continue
		}
		c := store.Course{
			Title:       item.Title,
			Provider:    item.Provider,
			Tags:        strings.Join(item.Tags, ", "),
			Description: item.Description,
			StartDate:   item.StartDate,
			URL:         item.URL,
			Duration:    item.Duration,
			Price:       item.Price,
			Rating:      item.Rating,
			Source:      feedLabel(feed),
		}
		if err := i.writer.UpsertCourse(ctx, c); err != nil {
			return fmt.Errorf("upsert course %q: %w", item.URL, err)
		}
		upserted++
		metrics.IngestItemsTotal.WithLabelValues("course").Inc()
	}

	i.logger.Info().Str("feed", feed).Int("items", upserted).Msg("course feed refreshed")
	return nil
}

// fetch retrieves one feed document, waiting on the shared limiter first.
func (i *Ingestor) fetch(ctx context.Context, feed string) ([]byte, error) {
	if err := i.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kursor-ingest/1.0")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return body, nil
}

// feedLabel trims the scheme for compact metric labels and sources.
func feedLabel(feed string) string {
	feed = strings.TrimPrefix(feed, "https://")
	feed = strings.TrimPrefix(feed, "http://")
	return feed
}
