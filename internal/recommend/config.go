// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package recommend

import "fmt"

// tagBoostPerMatch is the multiplicative boost applied per tag the item
// shares with the user's preferred tags: score *= 1 + 0.2*c. The boost
// is deliberately uncapped; with enough overlapping tags it can invert
// the nominal relevance order.
const tagBoostPerMatch = 0.2

// Config contains engine configuration.
type Config struct {
	// DefaultLimit is the result size when a request does not specify one.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit caps the result size of any request.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// HybridWeight is the default semantic/keyword blend factor in [0, 1].
	// 1.0 ranks on semantic similarity alone, 0.0 on keyword relevance
	// alone.
	HybridWeight float64 `json:"hybrid_weight" koanf:"hybrid_weight"`
}

// DefaultConfig returns production defaults matching the public contract.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit: 5,
		MaxLimit:     50,
		HybridWeight: 0.7,
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit %d must be >= default_limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.HybridWeight < 0 || c.HybridWeight > 1 {
		return fmt.Errorf("hybrid_weight must be in [0, 1], got %f", c.HybridWeight)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
