// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/kursor/internal/metrics"
	"github.com/tomtom215/kursor/internal/recommend"
)

// Event is a raw event row as ingested from a feed. Tags is the stored
// comma-delimited form; parsing happens on read.
type Event struct {
	Title       string
	Date        string
	Location    string
	Tags        string
	Description string
	URL         string
	Source      string
}

// Course is a raw course row as ingested from a feed.
type Course struct {
	Title       string
	Provider    string
	Tags        string
	Description string
	StartDate   string
	URL         string
	Duration    string
	Price       float64
	Rating      float64
	Source      string
}

// dateLayouts are the accepted stored date formats, most common first.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

func parseDate(raw string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GetAllItems returns every event and course as a unified candidate
// list, ordered by type then ID so rankings are reproducible.
func (s *Store) GetAllItems(ctx context.Context) ([]recommend.CatalogItem, error) {
	start := time.Now()
	items, err := s.getAllItems(ctx)
	metrics.ObserveDBQuery("get_all_items", err, time.Since(start))
	return items, err
}

func (s *Store) getAllItems(ctx context.Context) ([]recommend.CatalogItem, error) {
	const query = `
		SELECT id, 'event', title, COALESCE(tags, ''), COALESCE(description, ''),
		       COALESCE(url, ''), popularity, COALESCE(date, '')
		FROM events
		UNION ALL
		SELECT id, 'course', title, COALESCE(tags, ''), COALESCE(description, ''),
		       COALESCE(url, ''), popularity, COALESCE(start_date, '')
		FROM courses
		ORDER BY 2, 1`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	items := make([]recommend.CatalogItem, 0, 64)
	for rows.Next() {
		var (
			item     recommend.CatalogItem
			itemType string
			rawTags  string
			rawDate  string
		)
		if err := rows.Scan(&item.ID, &itemType, &item.Title, &rawTags,
			&item.Description, &item.URL, &item.Popularity, &rawDate); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		item.Type = recommend.ItemType(itemType)
		item.Tags = recommend.ParseTags(rawTags)
		item.StartDate = parseDate(rawDate)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return items, nil
}

// GetItem fetches one item by ID and type. A missing item returns
// (nil, nil); errors are reserved for store failures.
func (s *Store) GetItem(ctx context.Context, id int, itemType recommend.ItemType) (*recommend.CatalogItem, error) {
	start := time.Now()
	item, err := s.getItem(ctx, id, itemType)
	metrics.ObserveDBQuery("get_item", err, time.Since(start))
	return item, err
}

func (s *Store) getItem(ctx context.Context, id int, itemType recommend.ItemType) (*recommend.CatalogItem, error) {
	var query string
	switch itemType {
	case recommend.ItemTypeEvent:
		query = `SELECT id, title, COALESCE(tags, ''), COALESCE(description, ''),
			COALESCE(url, ''), popularity, COALESCE(date, '') FROM events WHERE id = ?`
	case recommend.ItemTypeCourse:
		query = `SELECT id, title, COALESCE(tags, ''), COALESCE(description, ''),
			COALESCE(url, ''), popularity, COALESCE(start_date, '') FROM courses WHERE id = ?`
	default:
		return nil, fmt.Errorf("unknown item type %q", itemType)
	}

	var (
		item    recommend.CatalogItem
		rawTags string
		rawDate string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Title,
		&rawTags, &item.Description, &item.URL, &item.Popularity, &rawDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s %d: %w", itemType, id, err)
	}
	item.Type = itemType
	item.Tags = recommend.ParseTags(rawTags)
	item.StartDate = parseDate(rawDate)
	return &item, nil
}

// UpsertEvent inserts or refreshes an event keyed by URL. Popularity is
// preserved across refreshes.
func (s *Store) UpsertEvent(ctx context.Context, e Event) error {
	start := time.Now()
	err := s.upsertEvent(ctx, e)
	metrics.ObserveDBQuery("upsert_event", err, time.Since(start))
	return err
}

func (s *Store) upsertEvent(ctx context.Context, e Event) error {
	const query = `
		INSERT INTO events (title, date, location, tags, description, url, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			location = excluded.location,
			tags = excluded.tags,
			description = excluded.description,
			source = excluded.source,
			updated_at = datetime('now')`

	if _, err := s.db.ExecContext(ctx, query,
		e.Title, e.Date, e.Location, e.Tags, e.Description, e.URL, e.Source); err != nil {
		return fmt.Errorf("upsert event %q: %w", e.URL, err)
	}
	return nil
}

// UpsertCourse inserts or refreshes a course keyed by URL.
func (s *Store) UpsertCourse(ctx context.Context, c Course) error {
	start := time.Now()
	err := s.upsertCourse(ctx, c)
	metrics.ObserveDBQuery("upsert_course", err, time.Since(start))
	return err
}

func (s *Store) upsertCourse(ctx context.Context, c Course) error {
	const query = `
		INSERT INTO courses (title, provider, tags, description, start_date, url, duration, price, rating, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			provider = excluded.provider,
			tags = excluded.tags,
			description = excluded.description,
			start_date = excluded.start_date,
			duration = excluded.duration,
			price = excluded.price,
			rating = excluded.rating,
			source = excluded.source,
			updated_at = datetime('now')`

	if _, err := s.db.ExecContext(ctx, query,
		c.Title, c.Provider, c.Tags, c.Description, c.StartDate,
		c.URL, c.Duration, c.Price, c.Rating, c.Source); err != nil {
		return fmt.Errorf("upsert course %q: %w", c.URL, err)
	}
	return nil
}
