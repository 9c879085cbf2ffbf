// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kursor/internal/metrics"
)

// PreferenceTrainer is the engine surface the trainer sweep drives.
type PreferenceTrainer interface {
	TrainUserPreferences(ctx context.Context, userID int64) bool
}

// UserLister enumerates registered users for the sweep.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// TrainerService periodically rebuilds every registered user's tag
// profile from their interaction history. Per-user failures are
// reported by the engine as a skipped result, never as a crash.
type TrainerService struct {
	trainer  PreferenceTrainer
	users    UserLister
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewTrainerService creates the preference trainer service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(trainer PreferenceTrainer, users UserLister, interval time.Duration, logger zerolog.Logger) *TrainerService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &TrainerService{
		trainer:  trainer,
		users:    users,
		interval: interval,
		logger:   logger.With().Str("service", "trainer").Logger(),
		name:     "trainer-service",
	}
}

// Serve implements suture.Service.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("trainer service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("trainer service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep trains every registered user once.
func (s *TrainerService) sweep(ctx context.Context) {
	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users for training sweep")
		return
	}

	trained := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		ok := s.trainer.TrainUserPreferences(ctx, id)
		metrics.ObserveTraining(ok)
		if ok {
			trained++
		}
	}
	s.logger.Info().Int("users", len(ids)).Int("trained", trained).Msg("training sweep complete")
}

// String implements fmt.Stringer; suture uses it in event logs.
func (s *TrainerService) String() string {
	return s.name
}
