// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FeedRefresher is the ingestion surface the service drives.
type FeedRefresher interface {
	RefreshAll(ctx context.Context)
}

// IngestService runs an initial feed refresh on startup and then
// refreshes on a fixed interval until stopped.
type IngestService struct {
	refresher FeedRefresher
	interval  time.Duration
	logger    zerolog.Logger
	name      string
}

// NewIngestService creates the ingestion service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIngestService(refresher FeedRefresher, interval time.Duration, logger zerolog.Logger) *IngestService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IngestService{
		refresher: refresher,
		interval:  interval,
		logger:    logger.With().Str("service", "ingest").Logger(),
		name:      "ingest-service",
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("ingest service starting")

	s.refresher.RefreshAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("ingest service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.refresher.RefreshAll(ctx)
		}
	}
}

// String implements fmt.Stringer; suture uses it in event logs.
func (s *IngestService) String() string {
	return s.name
}
