// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package scoring

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kursor/internal/metrics"
)

// Embedder maps text into a fixed-dimensional vector space using
// pre-trained word vectors. The vector table is loaded once and never
// mutated, so the embedder is safe for unlocked concurrent use.
type Embedder struct {
	dim     int
	vectors map[string][]float64
	cache   *EmbeddingCache
	logger  zerolog.Logger
}

// LoadEmbedder reads a word-vector file in the word2vec text format:
// a "count dim" header line followed by one "token v1 .. vdim" line per
// token. cache may be nil to disable embedding caching. A read or parse
// failure here is fatal to startup by contract.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func LoadEmbedder(path string, cache *EmbeddingCache, logger zerolog.Logger) (*Embedder, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("open vector file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("vector file %s: missing header", path)
	}
	count, dim, err := parseVectorHeader(scanner.Text())
	if err != nil {
		return nil, fmt.Errorf("vector file %s: %w", path, err)
	}

	vectors := make(map[string][]float64, count)
	line := 1
	for scanner.Scan() {
		line++
		token, vec, err := parseVectorLine(scanner.Text(), dim)
		if err != nil {
			return nil, fmt.Errorf("vector file %s line %d: %w", path, line, err)
		}
		vectors[token] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vector file %s: %w", path, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("vector file %s: no vectors", path)
	}

	logger.Info().
		Str("path", path).
		Int("tokens", len(vectors)).
		Int("dim", dim).
		Msg("loaded word vectors")

	return &Embedder{
		dim:     dim,
		vectors: vectors,
		cache:   cache,
		logger:  logger.With().Str("component", "embedder").Logger(),
	}, nil
}

// parseVectorHeader parses the "count dim" header line.
func parseVectorHeader(header string) (count, dim int, err error) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed header %q", header)
	}
	count, err = strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return 0, 0, fmt.Errorf("malformed token count %q", fields[0])
	}
	dim, err = strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return 0, 0, fmt.Errorf("malformed dimensionality %q", fields[1])
	}
	return count, dim, nil
}

// parseVectorLine parses one "token v1 .. vdim" line.
func parseVectorLine(line string, dim int) (string, []float64, error) {
	fields := strings.Fields(line)
	if len(fields) != dim+1 {
		return "", nil, fmt.Errorf("expected %d components, got %d", dim, len(fields)-1)
	}
	vec := make([]float64, dim)
	for i := 0; i < dim; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return "", nil, fmt.Errorf("malformed component %q: %w", fields[i+1], err)
		}
		vec[i] = v
	}
	return strings.ToLower(fields[0]), vec, nil
}

// Dim returns the dimensionality of the embedding space.
func (e *Embedder) Dim() int {
	return e.dim
}

// Embed returns the mean-pooled, L2-normalized embedding of text.
// The empty string, and text containing no known tokens, embed to the
// zero vector of the space's dimensionality.
func (e *Embedder) Embed(text string) []float64 {
	if text == "" {
		return make([]float64, e.dim)
	}

	if e.cache != nil {
		if vec, ok := e.cache.Get(text); ok && len(vec) == e.dim {
			metrics.EmbeddingCacheHits.Inc()
			return vec
		}
		metrics.EmbeddingCacheMisses.Inc()
	}

	vec := make([]float64, e.dim)
	known := 0
	for _, token := range Tokenize(text) {
		wv, ok := e.vectors[token]
		if !ok {
			continue
		}
		for i := range vec {
			vec[i] += wv[i]
		}
		known++
	}
	if known == 0 {
		return vec
	}

	for i := range vec {
		vec[i] /= float64(known)
	}
	normalize(vec)

	if e.cache != nil {
		e.cache.Put(text, vec)
	}
	return vec
}

// Similarities returns the cosine similarity between the query embedding
// and each text embedding. The result always has len(texts) entries.
func (e *Embedder) Similarities(ctx context.Context, query string, texts []string) []float64 {
	out := make([]float64, len(texts))

	q := e.Embed(query)
	if isZeroVector(q) {
		return out
	}

	for i, text := range texts {
		select {
		case <-ctx.Done():
			// Remaining entries stay at the 0 fallback.
			e.logger.Warn().Err(ctx.Err()).Msg("similarity scoring canceled")
			return out
		default:
		}
		out[i] = CosineSimilarity(q, e.Embed(text))
	}
	return out
}

// Tokenize lowercases text and splits it on any rune that is not a
// letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CosineSimilarity computes cosine similarity between two vectors.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalize scales vec to unit length in place. Zero vectors are left
// untouched.
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// isZeroVector reports whether all components are zero.
func isZeroVector(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
