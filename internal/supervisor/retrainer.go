// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuslens/campuslens/internal/metrics"
	"github.com/campuslens/campuslens/internal/recommend"
)

// DatasetStore is the data access the retrainer needs: full dataset reads
// and enriched catalog writes after training.
type DatasetStore interface {
	LoadDataset(ctx context.Context) (recommend.Dataset, error)
	SaveEnrichedCourses(ctx context.Context, courses []recommend.Course) error
}

// ArtifactStore persists trained model snapshots.
type ArtifactStore interface {
	SaveModel(model *recommend.Model) error
}

// Retrainer runs a full training cycle: load the dataset, rebuild the
// model, write derived course fields back to the database, and persist the
// snapshot. Cycles are serialized; a second caller blocks until the first
// finishes.
type Retrainer struct {
	engine    *recommend.Engine
	data      DatasetStore
	artifacts ArtifactStore // nil disables snapshot persistence
	logger    zerolog.Logger

	mu sync.Mutex
}

// NewRetrainer creates a retrainer. artifacts may be nil when snapshot
// persistence is disabled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainer(engine *recommend.Engine, data DatasetStore, artifacts ArtifactStore, logger zerolog.Logger) *Retrainer {
	return &Retrainer{
		engine:    engine,
		data:      data,
		artifacts: artifacts,
		logger:    logger.With().Str("component", "retrainer").Logger(),
	}
}

// TrainNow runs one training cycle on behalf of an API trigger.
func (r *Retrainer) TrainNow(ctx context.Context) (recommend.TrainingStats, error) {
	return r.Train(ctx, "api")
}

// Train runs one training cycle. The trigger labels the run in metrics and
// logs ("startup", "scheduled", "api").
func (r *Retrainer) Train(ctx context.Context, trigger string) (recommend.TrainingStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	stats, err := r.train(ctx)
	metrics.RecordTraining(trigger, time.Since(start), stats.ModelVersion, stats.Courses, stats.Students, stats.Interactions, err)

	if err != nil {
		r.logger.Error().Str("trigger", trigger).Err(err).Msg("training cycle failed")
		return stats, err
	}

	r.logger.Info().
		Str("trigger", trigger).
		Int("model_version", stats.ModelVersion).
		Int("courses", stats.Courses).
		Int("students", stats.Students).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("training cycle complete")
	return stats, nil
}

func (r *Retrainer) train(ctx context.Context) (recommend.TrainingStats, error) {
	ds, err := r.data.LoadDataset(ctx)
	if err != nil {
		return recommend.TrainingStats{}, fmt.Errorf("load dataset: %w", err)
	}

	stats, err := r.engine.Train(ctx, ds)
	if err != nil {
		return recommend.TrainingStats{}, fmt.Errorf("train model: %w", err)
	}

	model, err := r.engine.Model()
	if err != nil {
		return stats, err
	}

	// Derived course fields (popularity, difficulty, averages) go back to
	// the catalog table so other consumers can query them.
	if err := r.data.SaveEnrichedCourses(ctx, model.Courses); err != nil {
		return stats, fmt.Errorf("save enriched courses: %w", err)
	}

	if r.artifacts != nil {
		if err := r.artifacts.SaveModel(model); err != nil {
			return stats, fmt.Errorf("persist snapshot: %w", err)
		}
	}

	return stats, nil
}
