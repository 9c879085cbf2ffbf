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

	"github.com/goccy/go-json"

	"github.com/tomtom215/kursor/internal/metrics"
	"github.com/tomtom215/kursor/internal/recommend"
)

// User is a registered user identity.
type User struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
}

// QueryRecord is one entry in a user's query history.
type QueryRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// preferencesDoc is the stored JSON shape of a user profile.
type preferencesDoc struct {
	PreferredTags []string `json:"preferred_tags"`
}

// UpsertUser registers the user or refreshes their identity fields,
// touching last_activity either way.
func (s *Store) UpsertUser(ctx context.Context, u User) error {
	start := time.Now()
	err := s.upsertUser(ctx, u)
	metrics.ObserveDBQuery("upsert_user", err, time.Since(start))
	return err
}

func (s *Store) upsertUser(ctx context.Context, u User) error {
	const query = `
		INSERT INTO users (user_id, username, first_name, last_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_activity = datetime('now')`

	if _, err := s.db.ExecContext(ctx, query, u.UserID, u.Username, u.FirstName, u.LastName); err != nil {
		return fmt.Errorf("upsert user %d: %w", u.UserID, err)
	}
	return nil
}

// GetUserPreferences loads the user's tag-affinity profile. Unknown
// users and malformed stored documents both yield an empty profile;
// malformed documents are logged and otherwise ignored.
func (s *Store) GetUserPreferences(ctx context.Context, userID int64) (recommend.UserProfile, error) {
	start := time.Now()
	profile, err := s.getUserPreferences(ctx, userID)
	metrics.ObserveDBQuery("get_user_preferences", err, time.Since(start))
	return profile, err
}

func (s *Store) getUserPreferences(ctx context.Context, userID int64) (recommend.UserProfile, error) {
	profile := recommend.UserProfile{UserID: userID, PreferredTags: []string{}}

	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT preferences FROM users WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return profile, nil
	}
	if err != nil {
		return profile, fmt.Errorf("query preferences for user %d: %w", userID, err)
	}
	if !raw.Valid || raw.String == "" {
		return profile, nil
	}

	var doc preferencesDoc
	if err := json.Unmarshal([]byte(raw.String), &doc); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).
			Msg("malformed preferences document, treating as empty")
		return profile, nil
	}
	if doc.PreferredTags != nil {
		profile.PreferredTags = doc.PreferredTags
	}
	return profile, nil
}

// UpdateUserPreferences overwrites the user's stored profile wholesale,
// creating the user row if needed.
func (s *Store) UpdateUserPreferences(ctx context.Context, userID int64, profile recommend.UserProfile) error {
	start := time.Now()
	err := s.updateUserPreferences(ctx, userID, profile)
	metrics.ObserveDBQuery("update_user_preferences", err, time.Since(start))
	return err
}

func (s *Store) updateUserPreferences(ctx context.Context, userID int64, profile recommend.UserProfile) error {
	tags := profile.PreferredTags
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(preferencesDoc{PreferredTags: tags})
	if err != nil {
		return fmt.Errorf("encode preferences for user %d: %w", userID, err)
	}

	const query = `
		INSERT INTO users (user_id, preferences)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			preferences = excluded.preferences,
			last_activity = datetime('now')`

	if _, err := s.db.ExecContext(ctx, query, userID, string(raw)); err != nil {
		return fmt.Errorf("update preferences for user %d: %w", userID, err)
	}
	return nil
}

// ListUserIDs returns every registered user ID, ascending. The
// background trainer sweeps this list.
func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	start := time.Now()
	ids, err := s.listUserIDs(ctx)
	metrics.ObserveDBQuery("list_user_ids", err, time.Since(start))
	return ids, err
}

func (s *Store) listUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	ids := make([]int64, 0, 16)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

// LogQuery appends a query to the user's search history.
func (s *Store) LogQuery(ctx context.Context, userID int64, query string) error {
	start := time.Now()
	err := s.logQuery(ctx, userID, query)
	metrics.ObserveDBQuery("log_query", err, time.Since(start))
	return err
}

func (s *Store) logQuery(ctx context.Context, userID int64, query string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (user_id, query) VALUES (?, ?)`, userID, query); err != nil {
		return fmt.Errorf("log query for user %d: %w", userID, err)
	}
	return nil
}

// GetQueryHistory returns the user's most recent queries, newest first.
func (s *Store) GetQueryHistory(ctx context.Context, userID int64, limit int) ([]QueryRecord, error) {
	start := time.Now()
	records, err := s.getQueryHistory(ctx, userID, limit)
	metrics.ObserveDBQuery("get_query_history", err, time.Since(start))
	return records, err
}

func (s *Store) getQueryHistory(ctx context.Context, userID int64, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, query, timestamp FROM queries
		 WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history for user %d: %w", userID, err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	records := make([]QueryRecord, 0, limit)
	for rows.Next() {
		var (
			rec QueryRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &ts); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Timestamp = parseTimestamp(ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}

// parseTimestamp parses SQLite's datetime('now') text form.
func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
