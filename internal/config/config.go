// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package config loads layered service configuration with Koanf v2:
// built-in defaults, then an optional YAML file, then KURSOR_*
// environment variables. ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/kursor/internal/logging"
	"github.com/tomtom215/kursor/internal/recommend"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kursor/config.yaml",
	"/etc/kursor/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "KURSOR_CONFIG_PATH"

// envPrefix scopes environment overrides to this service.
const envPrefix = "KURSOR_"

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Logging   logging.Config   `koanf:"logging"`
	Database  DatabaseConfig   `koanf:"database"`
	Models    ModelsConfig     `koanf:"models"`
	Recommend recommend.Config `koanf:"recommend"`
	Ingest    IngestConfig     `koanf:"ingest"`
	Trainer   TrainerConfig    `koanf:"trainer"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `koanf:"addr"`

	// CORSOrigins lists allowed CORS origins. Empty disables CORS.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitPerMinute caps requests per client IP per minute.
	// Zero disables rate limiting.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite catalog store.
type DatabaseConfig struct {
	// Path is the SQLite database file.
	Path string `koanf:"path"`
}

// ModelsConfig locates the scoring model artifacts. Both files are
// required at startup; the service refuses to start without them.
type ModelsConfig struct {
	// VectorsPath is the word2vec text-format vector file.
	VectorsPath string `koanf:"vectors_path"`

	// KeywordWeightsPath is the keyword model weights JSON file.
	KeywordWeightsPath string `koanf:"keyword_weights_path"`

	// CacheDir holds the Badger embedding cache.
	CacheDir string `koanf:"cache_dir"`

	// CacheEnabled toggles the embedding cache.
	CacheEnabled bool `koanf:"cache_enabled"`
}

// IngestConfig configures periodic catalog feed ingestion.
type IngestConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval between feed refreshes.
	Interval time.Duration `koanf:"interval"`

	// EventFeeds and CourseFeeds are JSON feed URLs.
	EventFeeds  []string `koanf:"event_feeds"`
	CourseFeeds []string `koanf:"course_feeds"`

	// RequestsPerSecond caps outbound feed fetches.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// TrainerConfig configures the background preference trainer.
type TrainerConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval between training sweeps over active users.
	Interval time.Duration `koanf:"interval"`
}

// defaultConfig returns the built-in defaults, overridden by file then env.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			CORSOrigins:        nil,
			RateLimitPerMinute: 120,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
		},
		Logging: logging.DefaultConfig(),
		Database: DatabaseConfig{
			Path: "/data/kursor.db",
		},
		Models: ModelsConfig{
			VectorsPath:        "/data/models/vectors.txt",
			KeywordWeightsPath: "/data/models/keyword_weights.json",
			CacheDir:           "/data/cache/embeddings",
			CacheEnabled:       true,
		},
		Recommend: *recommend.DefaultConfig(),
		Ingest: IngestConfig{
			Enabled:           false,
			Interval:          time.Hour,
			RequestsPerSecond: 1,
		},
		Trainer: TrainerConfig{
			Enabled:  false,
			Interval: 6 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and KURSOR_* environment variables, then validates it. Nested keys in
// env vars use a double underscore: KURSOR_SERVER__ADDR -> server.addr,
// KURSOR_RECOMMEND__HYBRID_WEIGHT -> recommend.hybrid_weight.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps KURSOR_SECTION__FIELD_NAME to section.field_name.
// Field names themselves contain underscores, so the section separator
// is a double underscore.
func envTransform(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", ".")
}

// sliceConfigPaths lists fields parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"ingest.event_feeds",
	"ingest.course_feeds",
}

// processSliceFields converts comma-separated string values to slices.
// Env vars arrive as plain strings; YAML lists pass through unchanged.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		parts := make([]string, 0, 4)
		for _, p := range strings.Split(str, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Models.VectorsPath == "" {
		return fmt.Errorf("models.vectors_path must not be empty")
	}
	if c.Models.KeywordWeightsPath == "" {
		return fmt.Errorf("models.keyword_weights_path must not be empty")
	}
	if c.Models.CacheEnabled && c.Models.CacheDir == "" {
		return fmt.Errorf("models.cache_dir must be set when the cache is enabled")
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if c.Ingest.Enabled {
		if c.Ingest.Interval <= 0 {
			return fmt.Errorf("ingest.interval must be positive")
		}
		if len(c.Ingest.EventFeeds) == 0 && len(c.Ingest.CourseFeeds) == 0 {
			return fmt.Errorf("ingest enabled but no feeds configured")
		}
		if c.Ingest.RequestsPerSecond <= 0 {
			return fmt.Errorf("ingest.requests_per_second must be positive")
		}
	}
	if c.Trainer.Enabled && c.Trainer.Interval <= 0 {
		return fmt.Errorf("trainer.interval must be positive")
	}
	return nil
}
