// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package scoring

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// embeddingKeyPrefix namespaces embedding entries in BadgerDB.
const embeddingKeyPrefix = "emb:"

// embeddingTTL bounds cache growth; item texts change on catalog
// refresh, so stale entries age out rather than being invalidated.
const embeddingTTL = 7 * 24 * time.Hour

// EmbeddingCache is a persistent text-to-vector cache backed by
// BadgerDB. Item texts repeat across every scoring pass, so caching
// their embeddings avoids re-pooling the same token vectors per request.
// All operations are best-effort: a cache failure is logged and scoring
// recomputes the embedding.
type EmbeddingCache struct {
	db     *badger.DB
	logger zerolog.Logger
}

// OpenEmbeddingCache opens (or creates) the cache at dir.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenEmbeddingCache(dir string, logger zerolog.Logger) (*EmbeddingCache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithCompactL0OnClose(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}

	return &EmbeddingCache{
		db:     db,
		logger: logger.With().Str("component", "embedding-cache").Logger(),
	}, nil
}

// Get returns the cached embedding for text, if present.
func (c *EmbeddingCache) Get(text string) ([]float64, bool) {
	var vec []float64

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&vec)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Msg("embedding cache read failed")
		}
		return nil, false
	}
	return vec, true
}

// Put stores the embedding for text. Failures are logged and ignored.
func (c *EmbeddingCache) Put(text string, vec []float64) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vec); err != nil {
		c.logger.Warn().Err(err).Msg("embedding encode failed")
		return
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(text), buf.Bytes()).WithTTL(embeddingTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("embedding cache write failed")
	}
}

// Close releases the underlying BadgerDB handle.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

// cacheKey derives a fixed-length key from arbitrary text.
func cacheKey(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte(embeddingKeyPrefix + hex.EncodeToString(sum[:]))
}
