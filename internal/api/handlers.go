// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/campuslens/campuslens/internal/logging"
	"github.com/campuslens/campuslens/internal/metrics"
	"github.com/campuslens/campuslens/internal/recommend"
)

const (
	recommendTimeout = 10 * time.Second
	evaluateTimeout  = 2 * time.Minute
	trainTimeout     = 30 * time.Minute
)

// Pinger reports backing-store connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Trainer runs a full retrain-and-persist cycle. The supervisor package
// provides the production implementation.
type Trainer interface {
	TrainNow(ctx context.Context) (recommend.TrainingStats, error)
}

// Handler serves the recommendation API endpoints.
type Handler struct {
	engine    *recommend.Engine
	store     Pinger
	trainer   Trainer
	startTime time.Time

	// training guards against concurrent retrains triggered via the API.
	training atomic.Bool
}

// NewHandler creates the API handler. store and trainer may be nil in tests;
// readiness then reports on the engine alone and training triggers fail.
func NewHandler(engine *recommend.Engine, store Pinger, trainer Trainer) *Handler {
	return &Handler{
		engine:    engine,
		store:     store,
		trainer:   trainer,
		startTime: time.Now(),
	}
}

// RecommendCourses handles POST /api/v1/recommend/courses.
// Returns ranked course recommendations for a student.
func (h *Handler) RecommendCourses(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendCoursesRequest
	if !decodeAndValidate(w, r, &req) {
		metrics.RecordRecommendation("invalid_request", 0, 0)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), recommendTimeout)
	defer cancel()

	start := time.Now()
	resp, err := h.engine.Recommend(ctx, req.ToEngineRequest(logging.RequestIDFromContext(r.Context())))
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrModelNotReady):
			metrics.RecordRecommendation("model_not_ready", 0, time.Since(start))
			rw.ServiceUnavailable(ErrCodeModelNotReady, "Model is not trained yet")
		default:
			metrics.RecordRecommendation("error", 0, time.Since(start))
			logging.Ctx(r.Context()).Error().Err(err).Msg("recommendation failed")
			rw.InternalError("Failed to generate recommendations")
		}
		return
	}

	metrics.RecordRecommendation("success", len(resp.Recommendations), time.Since(start))
	rw.Success(resp)
}

// ModelMetrics handles GET /api/v1/model/metrics.
// Runs a leave-one-out evaluation with the configured defaults and returns
// the quality metrics alongside model provenance.
func (h *Handler) ModelMetrics(w http.ResponseWriter, r *http.Request) {
	h.evaluate(w, r, recommend.EvalRequest{})
}

// EvaluateModel handles POST /api/v1/model/evaluate.
// Like ModelMetrics but with an explicit cohort, seed, and depth.
func (h *Handler) EvaluateModel(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.evaluate(w, r, req.ToEngineRequest())
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, req recommend.EvalRequest) {
	rw := NewResponseWriter(w, r)

	model, err := h.engine.Model()
	if err != nil {
		rw.ServiceUnavailable(ErrCodeModelNotReady, "Model is not trained yet")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), evaluateTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Evaluate(ctx, req)
	metrics.RecordEvaluation(time.Since(start), safeHitRate(result), safeMRR(result), err)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrNoTestStudents):
			rw.Conflict("No students have enough history to evaluate")
		default:
			logging.Ctx(r.Context()).Error().Err(err).Msg("evaluation failed")
			rw.InternalError("Failed to evaluate model")
		}
		return
	}

	rw.Success(map[string]interface{}{
		"hit_rate":          round4(result.HitRate),
		"precision_at_5":    round4(result.PrecisionAt5),
		"precision_at_10":   round4(result.PrecisionAt10),
		"mrr":               round4(result.MRR),
		"num_test_students": result.NumTestStudents,
		"model_version":     model.Version,
		"trained_at":        model.TrainedAt,
	})
}

// TriggerTraining handles POST /api/v1/model/train.
// Starts a retrain in the background; a second trigger while one runs gets
// a 409.
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.trainer == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "Training is not available")
		return
	}
	if !h.training.CompareAndSwap(false, true) {
		rw.Error(http.StatusConflict, "TRAINING_IN_PROGRESS", "Training is already in progress")
		return
	}

	go func() {
		defer h.training.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), trainTimeout)
		defer cancel()

		if stats, err := h.trainer.TrainNow(ctx); err != nil {
			logging.Error().Err(err).Msg("training failed")
		} else {
			logging.Info().Int("model_version", stats.ModelVersion).Msg("training completed")
		}
	}()

	rw.Accepted(map[string]string{
		"message": "Training started",
	})
}

// HealthLive handles GET /api/v1/health/live.
// Returns 200 if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready.
// Returns 200 only when the database is reachable and a model is installed.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	// A nil store means the handler runs without a database; readiness then
	// reports on the model alone.
	dbConnected := h.store == nil || h.store.Ping(r.Context()) == nil
	_, modelErr := h.engine.Model()
	modelReady := modelErr == nil

	data := map[string]interface{}{
		"database_connected": dbConnected,
		"model_ready":        modelReady,
	}
	if !dbConnected || !modelReady {
		data["status"] = "not_ready"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", data)
		return
	}

	data["status"] = "ready"
	rw.Success(data)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func safeHitRate(r *recommend.EvalResult) float64 {
	if r == nil {
		return 0
	}
	return r.HitRate
}

func safeMRR(r *recommend.EvalResult) float64 {
	if r == nil {
		return 0
	}
	return r.MRR
}
