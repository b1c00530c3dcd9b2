// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuslens/campuslens/internal/recommend"
)

// Trainer runs one labeled training cycle. Satisfied by
// supervisor.Retrainer.
type Trainer interface {
	Train(ctx context.Context, trigger string) (recommend.TrainingStats, error)
}

// RetrainServiceConfig holds configuration for the retrain loop.
type RetrainServiceConfig struct {
	// Interval is how often to retrain. Defaults to 24h when zero.
	Interval time.Duration

	// Timeout bounds a single training cycle. Defaults to 30m when zero.
	Timeout time.Duration
}

// RetrainService periodically rebuilds the model from the live dataset.
// Failures are logged and retried on the next tick rather than crashing the
// service.
type RetrainService struct {
	trainer Trainer
	config  RetrainServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewRetrainService creates a new retrain service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(trainer Trainer, cfg RetrainServiceConfig, logger zerolog.Logger) *RetrainService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &RetrainService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "retrain").Logger(),
		name:    "retrain-service",
	}
}

// Serve implements the suture.Service interface.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Msg("retrain service starting")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retrain service shutting down")
			return ctx.Err()

		case <-ticker.C:
			trainCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
			if _, err := s.trainer.Train(trainCtx, "scheduled"); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
			cancel()
		}
	}
}

// String returns the service name for logging.
func (s *RetrainService) String() string {
	return s.name
}
