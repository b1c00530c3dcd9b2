// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: this package has no dependencies on other internal packages to
// maintain clean separation. Dataset loading and artifact persistence live
// behind the cmd/api layers.

// Engine serves recommendation and evaluation requests against the current
// trained snapshot. It is safe for concurrent use: Train installs a new
// snapshot under an exclusive lock, readers take a shared lock only to copy
// the snapshot pointer.
type Engine struct {
	config *Config
	logger zerolog.Logger

	mu      sync.RWMutex
	model   *Model
	version int
}

// NewEngine creates a new engine with the given configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Train rebuilds the full snapshot from the three source tables and
// installs it. The previous snapshot stays visible to in-flight readers
// until the swap completes.
func (e *Engine) Train(ctx context.Context, ds Dataset) (TrainingStats, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return TrainingStats{}, err
	}
	if len(ds.Courses) == 0 {
		return TrainingStats{}, fmt.Errorf("train: no courses in dataset")
	}

	e.mu.Lock()
	version := e.version + 1
	e.mu.Unlock()

	model := BuildModel(e.config, ds, version)

	e.mu.Lock()
	e.model = model
	e.version = version
	e.mu.Unlock()

	stats := TrainingStats{
		Students:       len(model.Students),
		Courses:        len(model.Courses),
		Interactions:   len(model.History),
		VocabularySize: model.Vectorizer.VocabularySize(),
		PopularCourses: model.PopularCourses(5),
		DurationMS:     time.Since(start).Milliseconds(),
		ModelVersion:   version,
	}

	e.logger.Info().
		Int("students", stats.Students).
		Int("courses", stats.Courses).
		Int("interactions", stats.Interactions).
		Int("vocabulary", stats.VocabularySize).
		Int("model_version", stats.ModelVersion).
		Int64("duration_ms", stats.DurationMS).
		Msg("training complete")

	return stats, nil
}

// SetModel installs a snapshot loaded from the artifact store.
func (e *Engine) SetModel(m *Model) {
	m.Reindex()
	e.mu.Lock()
	e.model = m
	if m.Version > e.version {
		e.version = m.Version
	}
	e.mu.Unlock()

	e.logger.Info().
		Int("model_version", m.Version).
		Time("trained_at", m.TrainedAt).
		Msg("snapshot installed")
}

// Model returns the current snapshot, or ErrModelNotReady before the first
// training run or snapshot load.
func (e *Engine) Model() (*Model, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return nil, ErrModelNotReady
	}
	return e.model, nil
}

// Recommend generates ranked course recommendations for a student.
//
// Candidates are oversampled from both signal sources, fused with the
// configured signal weights, filtered on taken courses, difficulty, and
// prerequisites, then rescored with popularity and level adjustments.
// Identical inputs against an unchanged snapshot yield identical ordered
// output.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("student_id", req.StudentID).
		Logger()

	model, err := e.Model()
	if err != nil {
		return nil, err
	}
	if req.DifficultyFilter != "" && !req.DifficultyFilter.Valid() {
		return nil, fmt.Errorf("unknown difficulty filter %q", req.DifficultyFilter)
	}

	var interests []string
	var department string
	year := 0
	if student, ok := model.Student(req.StudentID); ok {
		interests = student.Interests
		department = student.Department
		year = student.Year
	} else {
		logger.Debug().Msg("unknown student, degrading to content matches")
	}

	// The taken set always feeds the prerequisite check; ExcludeTaken only
	// controls candidate exclusion.
	takenSet := model.TakenSet(req.StudentID)

	oversample := req.Limit * e.config.Limits.OversampleFactor
	content := model.ContentScores(e.config, req.StudentID, interests, department, oversample)
	collaborative := model.CollaborativeScores(e.config, req.StudentID, oversample)

	fused := e.fuseScores(content, collaborative, takenSet, req.ExcludeTaken)
	candidates := e.filterAndScore(model, fused, takenSet, req.DifficultyFilter, year)

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	if len(candidates) > req.Limit {
		candidates = candidates[:req.Limit]
	}

	resp := &Response{
		Recommendations: e.formatRecommendations(model, candidates),
		TotalCandidates: len(fused),
		Metadata: ResponseMetadata{
			RequestID:    req.RequestID,
			StudentID:    req.StudentID,
			LatencyMS:    time.Since(start).Milliseconds(),
			ModelVersion: model.Version,
			TrainedAt:    model.TrainedAt,
			Timestamp:    time.Now().UTC(),
		},
	}

	logger.Debug().
		Int("candidates", resp.TotalCandidates).
		Int("returned", len(resp.Recommendations)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Limit <= 0 {
		req.Limit = e.config.Limits.DefaultLimit
	}
	if req.Limit > e.config.Limits.MaxLimit {
		req.Limit = e.config.Limits.MaxLimit
	}
	return req
}

// fuseScores merges the two candidate lists into one score map. Content
// contributes at Weights.Content, collaborative at Weights.Collaborative; a
// course present in both sums both contributions. Taken courses are dropped
// here, before any other filter, when excludeTaken is set.
func (e *Engine) fuseScores(content, collaborative []ScoredCourse, takenSet map[string]struct{}, excludeTaken bool) map[string]float64 {
	fused := make(map[string]float64, len(content)+len(collaborative))
	for _, sc := range content {
		if excludeTaken {
			if _, taken := takenSet[sc.CourseID]; taken {
				continue
			}
		}
		fused[sc.CourseID] += sc.Score * e.config.Weights.Content
	}
	for _, sc := range collaborative {
		if excludeTaken {
			if _, taken := takenSet[sc.CourseID]; taken {
				continue
			}
		}
		fused[sc.CourseID] += sc.Score * e.config.Weights.Collaborative
	}
	return fused
}

// filterAndScore applies the difficulty and prerequisite filters and
// computes each survivor's final score:
//
//	final = fused*ScoreWeight + (popularity*PopularityBoost)*PopularityWeight + levelMatch*LevelWeight
//
// where levelMatch is LevelMatchBoost when the course's hundred-level digit
// equals the student's year of study, else 1.0. Candidates are iterated in
// course ID order so accumulation and tie-breaking are reproducible.
func (e *Engine) filterAndScore(model *Model, fused map[string]float64, takenSet map[string]struct{}, difficulty Difficulty, year int) []ScoredCourse {
	ids := make([]string, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fc := e.config.Fusion
	candidates := make([]ScoredCourse, 0, len(ids))
	for _, id := range ids {
		course, ok := model.Course(id)
		if !ok {
			continue
		}
		if difficulty != "" && course.Difficulty != difficulty {
			continue
		}
		if !prerequisitesMet(course, takenSet) {
			continue
		}

		levelMatch := 1.0
		if course.Level/100 == year {
			levelMatch = fc.LevelMatchBoost
		}
		final := fused[id]*fc.ScoreWeight +
			(course.PopularityScore*fc.PopularityBoost)*fc.PopularityWeight +
			levelMatch*fc.LevelWeight

		candidates = append(candidates, ScoredCourse{CourseID: id, Score: final})
	}
	return candidates
}

// prerequisitesMet reports whether every prerequisite of the course is in
// the taken set. A prerequisite referencing an unknown course can never be
// in the set, so it is never satisfied.
func prerequisitesMet(course *Course, takenSet map[string]struct{}) bool {
	for _, prereq := range course.Prerequisites {
		if _, ok := takenSet[prereq]; !ok {
			return false
		}
	}
	return true
}

// formatRecommendations shapes the final candidates for the platform API.
// The match score is scaled to [0, 100] and clamped at this boundary only.
func (e *Engine) formatRecommendations(model *Model, candidates []ScoredCourse) []Recommendation {
	recs := make([]Recommendation, 0, len(candidates))
	for _, cand := range candidates {
		course, ok := model.Course(cand.CourseID)
		if !ok {
			continue
		}

		var rating *float64
		if course.RatingCount > 0 {
			r := course.AvgRating
			rating = &r
		}

		score := int(math.Round(cand.Score * 100))
		if score > 100 {
			score = 100
		}
		if score < 0 {
			score = 0
		}

		recs = append(recs, Recommendation{
			CourseID:    course.ID,
			CourseName:  course.Name,
			CourseCode:  course.Code,
			Department:  course.Department,
			Credits:     course.Credits,
			Difficulty:  course.Difficulty,
			Description: course.Description,
			Rating:      rating,
			MatchScore:  score,
			Keywords:    course.Keywords,
		})
	}
	return recs
}
