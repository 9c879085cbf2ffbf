// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kursor/internal/config"
	"github.com/tomtom215/kursor/internal/recommend"
	"github.com/tomtom215/kursor/internal/store"
)

type fakeRecommender struct {
	lastRequest recommend.Request
	response    *recommend.Response
	trained     bool
	trainedFor  int64
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) *recommend.Response {
	f.lastRequest = req
	if f.response != nil {
		return f.response
	}
	return &recommend.Response{Items: []recommend.ScoredItem{}}
}

func (f *fakeRecommender) TrainUserPreferences(_ context.Context, userID int64) bool {
	f.trainedFor = userID
	return f.trained
}

type fakeUserStore struct {
	profile    recommend.UserProfile
	history    []store.QueryRecord
	queries    []string
	registered []store.User
}

func (f *fakeUserStore) UpsertUser(_ context.Context, u store.User) error {
	f.registered = append(f.registered, u)
	return nil
}

func (f *fakeUserStore) GetUserPreferences(_ context.Context, userID int64) (recommend.UserProfile, error) {
	p := f.profile
	p.UserID = userID
	return p, nil
}

func (f *fakeUserStore) GetQueryHistory(_ context.Context, _ int64, limit int) ([]store.QueryRecord, error) {
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeUserStore) LogQuery(_ context.Context, _ int64, query string) error {
	f.queries = append(f.queries, query)
	return nil
}

func newTestServer(t *testing.T, rec *fakeRecommender, users *fakeUserStore) *httptest.Server {
	t.Helper()
	h := NewHandler(rec, users, zerolog.New(io.Discard))
	router := NewRouter(h, config.ServerConfig{}, zerolog.New(io.Discard))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	rec := &fakeRecommender{response: &recommend.Response{
		Items: []recommend.ScoredItem{
			{Item: recommend.CatalogItem{ID: 1, Type: recommend.ItemTypeCourse, Title: "ML 101"}, Score: 0.9},
		},
		TotalCandidates: 3,
	}}
	users := &fakeUserStore{}
	srv := newTestServer(t, rec, users)

	resp := postJSON(t, srv.URL+"/api/v1/recommend",
		`{"query": "machine learning", "user_id": 7, "limit": 1, "hybrid_weight": 0.4}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID response header")
	}

	var got recommend.Response
	decodeBody(t, resp, &got)
	if len(got.Items) != 1 || got.Items[0].Item.Title != "ML 101" {
		t.Errorf("items = %+v, want the fake's single item", got.Items)
	}

	if rec.lastRequest.Query != "machine learning" || rec.lastRequest.UserID != 7 {
		t.Errorf("engine saw request %+v", rec.lastRequest)
	}
	if rec.lastRequest.HybridWeight == nil || *rec.lastRequest.HybridWeight != 0.4 {
		t.Errorf("HybridWeight = %v, want 0.4", rec.lastRequest.HybridWeight)
	}
	if rec.lastRequest.RequestID == "" {
		t.Error("engine request missing request ID")
	}

	// User-scoped query lands in history.
	if len(users.queries) != 1 || users.queries[0] != "machine learning" {
		t.Errorf("logged queries = %v", users.queries)
	}
}

func TestRecommendAnonymousSkipsHistory(t *testing.T) {
	rec := &fakeRecommender{}
	users := &fakeUserStore{}
	srv := newTestServer(t, rec, users)

	resp := postJSON(t, srv.URL+"/api/v1/recommend", `{"query": "go"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(users.queries) != 0 {
		t.Errorf("anonymous query was logged: %v", users.queries)
	}
}

func TestRecommendBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"query": `},
		{"negative user id", `{"query": "go", "user_id": -1}`},
		{"negative limit", `{"query": "go", "limit": -5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeRecommender{}, &fakeUserStore{})
			resp := postJSON(t, srv.URL+"/api/v1/recommend", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestTrainPreferencesEndpoint(t *testing.T) {
	rec := &fakeRecommender{trained: true}
	srv := newTestServer(t, rec, &fakeUserStore{})

	resp := postJSON(t, srv.URL+"/api/v1/users/42/preferences/train", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got struct {
		UserID  int64 `json:"user_id"`
		Trained bool  `json:"trained"`
	}
	decodeBody(t, resp, &got)
	if got.UserID != 42 || !got.Trained {
		t.Errorf("response = %+v, want user 42 trained", got)
	}
	if rec.trainedFor != 42 {
		t.Errorf("engine trained user %d, want 42", rec.trainedFor)
	}
}

func TestUserIDParamValidation(t *testing.T) {
	srv := newTestServer(t, &fakeRecommender{}, &fakeUserStore{})

	for _, bad := range []string{"abc", "0", "-3"} {
		resp := postJSON(t, srv.URL+"/api/v1/users/"+bad+"/preferences/train", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("userID %q: status = %d, want 400", bad, resp.StatusCode)
		}
	}
}

func TestGetPreferencesEndpoint(t *testing.T) {
	users := &fakeUserStore{profile: recommend.UserProfile{PreferredTags: []string{"go", "ml"}}}
	srv := newTestServer(t, &fakeRecommender{}, users)

	resp, err := http.Get(srv.URL + "/api/v1/users/9/preferences")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got recommend.UserProfile
	decodeBody(t, resp, &got)
	if got.UserID != 9 || len(got.PreferredTags) != 2 {
		t.Errorf("profile = %+v", got)
	}
}

func TestGetHistoryEndpoint(t *testing.T) {
	users := &fakeUserStore{history: []store.QueryRecord{
		{ID: 2, Query: "ml courses"},
		{ID: 1, Query: "go events"},
	}}
	srv := newTestServer(t, &fakeRecommender{}, users)

	resp, err := http.Get(srv.URL + "/api/v1/users/9/history?limit=1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got struct {
		Queries []store.QueryRecord `json:"queries"`
	}
	decodeBody(t, resp, &got)
	if len(got.Queries) != 1 || got.Queries[0].Query != "ml courses" {
		t.Errorf("queries = %+v, want one newest record", got.Queries)
	}

	bad, err := http.Get(srv.URL + "/api/v1/users/9/history?limit=nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", bad.StatusCode)
	}
}

func TestRegisterUserEndpoint(t *testing.T) {
	users := &fakeUserStore{}
	srv := newTestServer(t, &fakeRecommender{}, users)

	resp := postJSON(t, srv.URL+"/api/v1/users",
		`{"user_id": 11, "username": "ada", "first_name": "Ada"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(users.registered) != 1 || users.registered[0].Username != "ada" {
		t.Errorf("registered = %+v", users.registered)
	}

	for _, bad := range []string{`{"username": "no-id"}`, `{"user_id": -1}`} {
		resp := postJSON(t, srv.URL+"/api/v1/users", bad)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", bad, resp.StatusCode)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRecommender{}, &fakeUserStore{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
