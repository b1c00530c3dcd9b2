// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package metrics exposes Prometheus instrumentation for the API surface,
// the recommendation engine, model training, and the artifact store. All
// collectors register on the default registry via promauto and are served
// from the /metrics endpoint.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation engine metrics.
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests served",
		},
		[]string{"outcome"}, // "ok", "model_not_ready", "invalid_input"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Recommendation computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	RecommendResultCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_result_count",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// Training metrics.
	TrainRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "train_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"trigger", "success"}, // trigger: "startup", "api", "scheduled"
	)

	TrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "train_duration_seconds",
			Help:    "Model training duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_version",
			Help: "Version number of the currently installed model snapshot",
		},
	)

	ModelCourses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_courses",
			Help: "Number of courses in the current model",
		},
	)

	ModelStudents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_students",
			Help: "Number of students in the current model",
		},
	)

	ModelInteractions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_interactions",
			Help: "Number of interaction records in the current model",
		},
	)

	// Evaluation metrics.
	EvalRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eval_runs_total",
			Help: "Total number of evaluation runs",
		},
		[]string{"success"},
	)

	EvalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eval_duration_seconds",
			Help:    "Leave-one-out evaluation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	EvalHitRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eval_hit_rate",
			Help: "Hit rate from the most recent evaluation run",
		},
	)

	EvalMRR = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eval_mrr",
			Help: "Mean reciprocal rank from the most recent evaluation run",
		},
	)

	// Dataset load metrics.
	DatasetLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dataset_load_duration_seconds",
			Help:    "Duration of dataset loads from DuckDB in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	DatasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Row counts of the most recently loaded dataset tables",
		},
		[]string{"table"}, // "courses", "students", "history"
	)

	// Artifact store metrics.
	ArtifactOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_operations_total",
			Help: "Total number of model artifact store operations",
		},
		[]string{"operation", "success"}, // operation: "save", "load"
	)

	ArtifactSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artifact_size_bytes",
			Help: "Compressed size of the most recently saved model artifact",
		},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records a served recommendation request.
func RecordRecommendation(outcome string, resultCount int, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		RecommendDuration.Observe(duration.Seconds())
		RecommendResultCount.Observe(float64(resultCount))
	}
}

// RecordTraining records a training run and, on success, the new snapshot's
// size gauges.
func RecordTraining(trigger string, duration time.Duration, version, courses, students, interactions int, err error) {
	TrainRunsTotal.WithLabelValues(trigger, strconv.FormatBool(err == nil)).Inc()
	if err != nil {
		return
	}
	TrainDuration.Observe(duration.Seconds())
	ModelVersion.Set(float64(version))
	ModelCourses.Set(float64(courses))
	ModelStudents.Set(float64(students))
	ModelInteractions.Set(float64(interactions))
}

// RecordEvaluation records an evaluation run and its headline metrics.
func RecordEvaluation(duration time.Duration, hitRate, mrr float64, err error) {
	EvalRunsTotal.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
	if err != nil {
		return
	}
	EvalDuration.Observe(duration.Seconds())
	EvalHitRate.Set(hitRate)
	EvalMRR.Set(mrr)
}

// RecordDatasetLoad records a dataset load and its table sizes.
func RecordDatasetLoad(duration time.Duration, courses, students, history int) {
	DatasetLoadDuration.Observe(duration.Seconds())
	DatasetRows.WithLabelValues("courses").Set(float64(courses))
	DatasetRows.WithLabelValues("students").Set(float64(students))
	DatasetRows.WithLabelValues("history").Set(float64(history))
}

// RecordArtifactOperation records a save or load against the artifact store.
func RecordArtifactOperation(operation string, err error) {
	ArtifactOperationsTotal.WithLabelValues(operation, strconv.FormatBool(err == nil)).Inc()
}
