// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/kursor/internal/metrics"
	"github.com/tomtom215/kursor/internal/recommend"
)

// LogInteraction appends an interaction record. Likes and bookmarks
// also increment the item's popularity counter, and the user's
// last_activity is touched; all three writes commit atomically.
func (s *Store) LogInteraction(ctx context.Context, userID int64, itemID int, itemType recommend.ItemType, kind recommend.InteractionKind) error {
	start := time.Now()
	err := s.logInteraction(ctx, userID, itemID, itemType, kind)
	metrics.ObserveDBQuery("log_interaction", err, time.Since(start))
	return err
}

func (s *Store) logInteraction(ctx context.Context, userID int64, itemID int, itemType recommend.ItemType, kind recommend.InteractionKind) error {
	if !itemType.Valid() {
		return fmt.Errorf("unknown item type %q", itemType)
	}
	if !kind.Valid() {
		return fmt.Errorf("unknown interaction kind %q", kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin interaction tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO interactions (user_id, item_id, item_type, interaction_type)
		 VALUES (?, ?, ?, ?)`,
		userID, itemID, string(itemType), string(kind)); err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}

	if kind.Positive() {
		table := "events"
		if itemType == recommend.ItemTypeCourse {
			table = "courses"
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET popularity = popularity + 1 WHERE id = ?`, table),
			itemID); err != nil {
			return fmt.Errorf("bump popularity: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET last_activity = datetime('now') WHERE user_id = ?`,
		userID); err != nil {
		return fmt.Errorf("touch user activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit interaction tx: %w", err)
	}
	return nil
}

// GetUserInteractions returns the user's full interaction history,
// oldest first.
func (s *Store) GetUserInteractions(ctx context.Context, userID int64) ([]recommend.Interaction, error) {
	start := time.Now()
	interactions, err := s.getUserInteractions(ctx, userID)
	metrics.ObserveDBQuery("get_user_interactions", err, time.Since(start))
	return interactions, err
}

func (s *Store) getUserInteractions(ctx context.Context, userID int64) ([]recommend.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, item_id, item_type, interaction_type, timestamp
		 FROM interactions WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query interactions for user %d: %w", userID, err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	interactions := make([]recommend.Interaction, 0, 16)
	for rows.Next() {
		var (
			in       recommend.Interaction
			itemType string
			kind     string
			ts       string
		)
		if err := rows.Scan(&in.ID, &in.UserID, &in.ItemID, &itemType, &kind, &ts); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		in.ItemType = recommend.ItemType(itemType)
		in.Kind = recommend.InteractionKind(kind)
		in.Timestamp = parseTimestamp(ts)
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}
	return interactions, nil
}
