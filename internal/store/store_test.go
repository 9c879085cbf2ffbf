// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package store

import (
	"context"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kursor/internal/recommend"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kursor.db")
	s, err := Open(path, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func seedCatalog(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	events := []Event{
		{Title: "Go Conference Berlin", Date: "2026-09-12", Location: "Berlin",
			Tags: "go, conference", Description: "Two days of Go talks", URL: "https://example.com/goconf", Source: "feed-a"},
		{Title: "ML Hackathon", Date: "2026-10-01", Location: "Remote",
			Tags: "ml, ai, hackathon", Description: "Build models in a weekend", URL: "https://example.com/mlhack", Source: "feed-a"},
	}
	for _, e := range events {
		if err := s.UpsertEvent(ctx, e); err != nil {
			t.Fatalf("UpsertEvent(%q) error = %v", e.URL, err)
		}
	}
	courses := []Course{
		{Title: "Deep Learning Basics", Provider: "Acme", Tags: "ml, ai",
			Description: "Intro to neural networks", StartDate: "2026-09-01",
			URL: "https://example.com/dl101", Price: 49.0, Rating: 4.5, Source: "feed-b"},
	}
	for _, c := range courses {
		if err := s.UpsertCourse(ctx, c); err != nil {
			t.Fatalf("UpsertCourse(%q) error = %v", c.URL, err)
		}
	}
}

func TestGetAllItemsOrdering(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)

	items, err := s.GetAllItems(context.Background())
	if err != nil {
		t.Fatalf("GetAllItems() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("GetAllItems() returned %d items, want 3", len(items))
	}

	// Courses sort after events, IDs ascending within each type.
	wantTypes := []recommend.ItemType{recommend.ItemTypeCourse, recommend.ItemTypeEvent, recommend.ItemTypeEvent}
	for i, item := range items {
		if item.Type != wantTypes[i] {
			t.Errorf("items[%d].Type = %q, want %q", i, item.Type, wantTypes[i])
		}
	}
	if items[1].ID >= items[2].ID {
		t.Errorf("event IDs not ascending: %d then %d", items[1].ID, items[2].ID)
	}
	if got := items[1].Tags; len(got) == 0 {
		t.Error("tags not parsed into a list")
	}
}

func TestUpsertEventIdempotentByURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := Event{Title: "Original", Tags: "go", URL: "https://example.com/e", Source: "a"}
	if err := s.UpsertEvent(ctx, e); err != nil {
		t.Fatalf("UpsertEvent() error = %v", err)
	}

	items, err := s.GetAllItems(ctx)
	if err != nil {
		t.Fatalf("GetAllItems() error = %v", err)
	}
	id := items[0].ID

	// Bump popularity, then refresh the row and check both survive.
	if err := s.LogInteraction(ctx, 1, id, recommend.ItemTypeEvent, recommend.KindLike); err != nil {
		t.Fatalf("LogInteraction() error = %v", err)
	}

	e.Title = "Updated"
	if err := s.UpsertEvent(ctx, e); err != nil {
		t.Fatalf("UpsertEvent() refresh error = %v", err)
	}

	item, err := s.GetItem(ctx, id, recommend.ItemTypeEvent)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item == nil {
		t.Fatal("GetItem() returned nil after refresh")
	}
	if item.Title != "Updated" {
		t.Errorf("Title = %q, want %q", item.Title, "Updated")
	}
	if item.Popularity != 1 {
		t.Errorf("Popularity = %d, want 1 (must survive refresh)", item.Popularity)
	}
}

func TestGetItemNotFound(t *testing.T) {
	s := newTestStore(t)

	item, err := s.GetItem(context.Background(), 999, recommend.ItemTypeEvent)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item != nil {
		t.Errorf("GetItem() = %+v, want nil for missing item", item)
	}
}

func TestLogInteractionPopularity(t *testing.T) {
	tests := []struct {
		kind recommend.InteractionKind
		want int
	}{
		{recommend.KindLike, 1},
		{recommend.KindBookmark, 1},
		{recommend.KindView, 0},
		{recommend.KindDislike, 0},
		{recommend.KindRecommendation, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			if err := s.UpsertCourse(ctx, Course{Title: "C", URL: "https://example.com/c"}); err != nil {
				t.Fatalf("UpsertCourse() error = %v", err)
			}

			if err := s.LogInteraction(ctx, 7, 1, recommend.ItemTypeCourse, tt.kind); err != nil {
				t.Fatalf("LogInteraction() error = %v", err)
			}

			item, err := s.GetItem(ctx, 1, recommend.ItemTypeCourse)
			if err != nil || item == nil {
				t.Fatalf("GetItem() = %v, %v", item, err)
			}
			if item.Popularity != tt.want {
				t.Errorf("Popularity = %d, want %d", item.Popularity, tt.want)
			}

			history, err := s.GetUserInteractions(ctx, 7)
			if err != nil {
				t.Fatalf("GetUserInteractions() error = %v", err)
			}
			if len(history) != 1 || history[0].Kind != tt.kind {
				t.Errorf("history = %+v, want one %q record", history, tt.kind)
			}
		})
	}
}

func TestLogInteractionRejectsUnknownKind(t *testing.T) {
	s := newTestStore(t)
	if err := s.LogInteraction(context.Background(), 1, 1, recommend.ItemTypeEvent, "share"); err == nil {
		t.Error("LogInteraction() accepted an unknown kind")
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Unknown user: empty, non-nil tags.
	profile, err := s.GetUserPreferences(ctx, 42)
	if err != nil {
		t.Fatalf("GetUserPreferences() error = %v", err)
	}
	if profile.PreferredTags == nil || len(profile.PreferredTags) != 0 {
		t.Errorf("unknown user profile = %+v, want empty non-nil tags", profile)
	}

	want := recommend.UserProfile{UserID: 42, PreferredTags: []string{"ai", "go", "ml"}}
	if err := s.UpdateUserPreferences(ctx, 42, want); err != nil {
		t.Fatalf("UpdateUserPreferences() error = %v", err)
	}

	got, err := s.GetUserPreferences(ctx, 42)
	if err != nil {
		t.Fatalf("GetUserPreferences() error = %v", err)
	}
	if !reflect.DeepEqual(got.PreferredTags, want.PreferredTags) {
		t.Errorf("PreferredTags = %v, want %v", got.PreferredTags, want.PreferredTags)
	}

	// Overwrite, never merge.
	if err := s.UpdateUserPreferences(ctx, 42, recommend.UserProfile{UserID: 42, PreferredTags: []string{"rust"}}); err != nil {
		t.Fatalf("UpdateUserPreferences() overwrite error = %v", err)
	}
	got, err = s.GetUserPreferences(ctx, 42)
	if err != nil {
		t.Fatalf("GetUserPreferences() error = %v", err)
	}
	if !reflect.DeepEqual(got.PreferredTags, []string{"rust"}) {
		t.Errorf("PreferredTags after overwrite = %v, want [rust]", got.PreferredTags)
	}
}

func TestMalformedPreferencesTreatedAsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, preferences) VALUES (9, 'not json')`); err != nil {
		t.Fatalf("seed malformed row: %v", err)
	}

	profile, err := s.GetUserPreferences(ctx, 9)
	if err != nil {
		t.Fatalf("GetUserPreferences() error = %v", err)
	}
	if len(profile.PreferredTags) != 0 {
		t.Errorf("PreferredTags = %v, want empty for malformed document", profile.PreferredTags)
	}
}

func TestQueryHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	queries := []string{"go jobs", "ml courses", "devops events"}
	for _, q := range queries {
		if err := s.LogQuery(ctx, 5, q); err != nil {
			t.Fatalf("LogQuery(%q) error = %v", q, err)
		}
	}

	history, err := s.GetQueryHistory(ctx, 5, 2)
	if err != nil {
		t.Fatalf("GetQueryHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("GetQueryHistory() returned %d records, want 2", len(history))
	}
	// Newest first.
	if history[0].Query != "devops events" || history[1].Query != "ml courses" {
		t.Errorf("history = %q, %q; want newest first", history[0].Query, history[1].Query)
	}

	other, err := s.GetQueryHistory(ctx, 6, 10)
	if err != nil {
		t.Fatalf("GetQueryHistory() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other user's history = %d records, want 0", len(other))
	}
}

func TestUpsertUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := User{UserID: 11, Username: "ada", FirstName: "Ada"}
	if err := s.UpsertUser(ctx, u); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	u.Username = "ada_l"
	if err := s.UpsertUser(ctx, u); err != nil {
		t.Fatalf("UpsertUser() refresh error = %v", err)
	}

	var username string
	if err := s.db.QueryRowContext(ctx,
		`SELECT username FROM users WHERE user_id = 11`).Scan(&username); err != nil {
		t.Fatalf("read back user: %v", err)
	}
	if username != "ada_l" {
		t.Errorf("username = %q, want %q", username, "ada_l")
	}
}
