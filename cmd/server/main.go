// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

// Package main is the entry point for the Kursor server.
//
// Kursor ranks a catalog of events and courses against free-text
// queries by blending word-vector semantic similarity with a trained
// keyword relevance model, then personalizes the ranking with per-user
// tag-affinity profiles learned from likes and bookmarks.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layering of defaults, YAML file, KURSOR_* env vars
//  2. Logging: zerolog, JSON by default
//  3. Store: SQLite catalog, users, and interaction history
//  4. Models: word vectors and keyword weights (both required; startup
//     fails without them)
//  5. Embedding cache: optional Badger store for reused item vectors
//  6. Supervision: Suture tree running the HTTP API, feed ingestion,
//     and the background preference trainer
//
// The server shuts down gracefully on SIGINT and SIGTERM: the listener
// stops accepting connections, in-flight requests get the configured
// shutdown timeout, and background workers exit at the next safe point.
//
// Example:
//
//	export KURSOR_DATABASE__PATH=/data/kursor.db
//	export KURSOR_MODELS__VECTORS_PATH=/data/models/vectors.txt
//	export KURSOR_MODELS__KEYWORD_WEIGHTS_PATH=/data/models/keyword_weights.json
//	./kursor -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/kursor/internal/api"
	"github.com/tomtom215/kursor/internal/config"
	"github.com/tomtom215/kursor/internal/ingest"
	"github.com/tomtom215/kursor/internal/logging"
	"github.com/tomtom215/kursor/internal/recommend"
	"github.com/tomtom215/kursor/internal/recommend/scoring"
	"github.com/tomtom215/kursor/internal/store"
	"github.com/tomtom215/kursor/internal/supervisor"
	"github.com/tomtom215/kursor/internal/supervisor/services"
)

var version = "dev" // set via -ldflags at build time

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kursor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (default: search standard locations)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("kursor", version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(cfg.Logging)
	logger := logging.Logger()
	logger.Info().Str("version", version).Msg("kursor starting")

	db, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	var cache *scoring.EmbeddingCache
	if cfg.Models.CacheEnabled {
		cache, err = scoring.OpenEmbeddingCache(cfg.Models.CacheDir, logger)
		if err != nil {
			// The cache is an optimization; a broken cache dir only costs speed.
			logger.Warn().Err(err).Msg("embedding cache unavailable, continuing without it")
			cache = nil
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					logger.Error().Err(err).Msg("failed to close embedding cache")
				}
			}()
		}
	}

	// Model weights are the one fatal dependency: without them every
	// ranking would be meaningless, so refuse to start.
	embedder, err := scoring.LoadEmbedder(cfg.Models.VectorsPath, cache, logger)
	if err != nil {
		return fmt.Errorf("load word vectors: %w", err)
	}
	keyword, err := scoring.LoadKeywordModel(cfg.Models.KeywordWeightsPath, logger)
	if err != nil {
		return fmt.Errorf("load keyword model: %w", err)
	}

	engine, err := recommend.NewEngine(&cfg.Recommend, db, embedder, keyword, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	handler := api.NewHandler(engine, db, logger)
	router := api.NewRouter(handler, cfg.Server, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if cfg.Ingest.Enabled {
		ingestor := ingest.New(cfg.Ingest, db, logger)
		tree.AddBackgroundService(services.NewIngestService(ingestor, cfg.Ingest.Interval, logger))
	}
	if cfg.Trainer.Enabled {
		tree.AddBackgroundService(services.NewTrainerService(engine, db, cfg.Trainer.Interval, logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", cfg.Server.Addr).Msg("serving")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}
	logger.Info().Msg("kursor stopped")
	return nil
}
