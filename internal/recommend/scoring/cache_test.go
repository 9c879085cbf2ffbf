// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package scoring

import (
	"io"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func newTestCache(t *testing.T) *EmbeddingCache {
	t.Helper()
	c, err := OpenEmbeddingCache(t.TempDir(), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("OpenEmbeddingCache() error = %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)

	want := []float64{0.1, -0.5, 0.9}
	c.Put("machine learning summit", want)

	got, ok := c.Get("machine learning summit")
	if !ok {
		t.Fatal("Get() miss after Put()")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %v, want %v", got, want)
	}
}

func TestCacheMiss(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.Get("never stored"); ok {
		t.Error("Get() hit for a key never stored")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := newTestCache(t)

	c.Put("text", []float64{1, 2})
	c.Put("text", []float64{3, 4})

	got, ok := c.Get("text")
	if !ok || !reflect.DeepEqual(got, []float64{3, 4}) {
		t.Errorf("Get() = %v, %v; want the latest value", got, ok)
	}
}

func TestCacheKeyCollisionFree(t *testing.T) {
	c := newTestCache(t)

	c.Put("a", []float64{1})
	c.Put("b", []float64{2})

	if got, _ := c.Get("a"); !reflect.DeepEqual(got, []float64{1}) {
		t.Errorf(`Get("a") = %v, want [1]`, got)
	}
	if got, _ := c.Get("b"); !reflect.DeepEqual(got, []float64{2}) {
		t.Errorf(`Get("b") = %v, want [2]`, got)
	}
}

func TestEmbedderUsesCache(t *testing.T) {
	cache := newTestCache(t)
	e, err := LoadEmbedder(writeVectorFile(t, testVectors), cache, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("LoadEmbedder() error = %v", err)
	}

	first := e.Embed("go ml")
	if _, ok := cache.Get("go ml"); !ok {
		t.Fatal("embedding not written to cache")
	}

	second := e.Embed("go ml")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached embedding differs: %v vs %v", first, second)
	}
}

func TestEmbedderSkipsCachingZeroVectors(t *testing.T) {
	cache := newTestCache(t)
	e, err := LoadEmbedder(writeVectorFile(t, testVectors), cache, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("LoadEmbedder() error = %v", err)
	}

	_ = e.Embed("completely unknown tokens")
	if _, ok := cache.Get("completely unknown tokens"); ok {
		t.Error("zero vector was cached")
	}
}
