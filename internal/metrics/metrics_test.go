// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/recommend/courses", "200"))
	RecordAPIRequest("POST", "/api/v1/recommend/courses", 200, 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/recommend/courses", "200"))

	if after != before+1 {
		t.Errorf("counter = %f, want %f", after, before+1)
	}
}

func TestRecordTrainingSuccessSetsGauges(t *testing.T) {
	RecordTraining("api", time.Second, 7, 120, 800, 4500, nil)

	if got := testutil.ToFloat64(ModelVersion); got != 7 {
		t.Errorf("ModelVersion = %f, want 7", got)
	}
	if got := testutil.ToFloat64(ModelCourses); got != 120 {
		t.Errorf("ModelCourses = %f, want 120", got)
	}
}

func TestRecordTrainingFailureLeavesGauges(t *testing.T) {
	RecordTraining("api", time.Second, 9, 1, 1, 1, nil)
	RecordTraining("scheduled", time.Second, 10, 999, 999, 999, errors.New("load failed"))

	if got := testutil.ToFloat64(ModelVersion); got != 9 {
		t.Errorf("ModelVersion = %f, want 9 after failed run", got)
	}
	if got := testutil.ToFloat64(TrainRunsTotal.WithLabelValues("scheduled", "false")); got < 1 {
		t.Errorf("failed run not counted: %f", got)
	}
}

func TestRecordEvaluation(t *testing.T) {
	RecordEvaluation(2*time.Second, 0.42, 0.18, nil)

	if got := testutil.ToFloat64(EvalHitRate); got != 0.42 {
		t.Errorf("EvalHitRate = %f, want 0.42", got)
	}
	if got := testutil.ToFloat64(EvalMRR); got != 0.18 {
		t.Errorf("EvalMRR = %f, want 0.18", got)
	}
}

func TestRecordDatasetLoad(t *testing.T) {
	RecordDatasetLoad(time.Second, 50, 300, 1200)

	if got := testutil.ToFloat64(DatasetRows.WithLabelValues("history")); got != 1200 {
		t.Errorf("history rows = %f, want 1200", got)
	}
}
