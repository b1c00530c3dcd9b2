// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/campuslens/campuslens/internal/recommend"
)

func ratingPtr(v float64) *float64 { return &v }

// testDataset builds a small catalog where every student has at least two
// enrollments, so evaluation always finds a usable cohort.
func testDataset() recommend.Dataset {
	return recommend.Dataset{
		Courses: []recommend.Course{
			{ID: "C1", Code: "CS101", Name: "Intro to Programming", Department: "Computer Science",
				Description: "programming fundamentals variables loops functions",
				Keywords:    []string{"programming", "basics"}, Level: 100,
				Difficulty: recommend.DifficultyIntroductory, Credits: 3},
			{ID: "C2", Code: "CS201", Name: "Data Structures", Department: "Computer Science",
				Description: "data structures lists trees graphs algorithms",
				Keywords:    []string{"algorithms", "data"}, Level: 200,
				Difficulty: recommend.DifficultyIntermediate, Credits: 4},
			{ID: "C3", Code: "CS301", Name: "Machine Learning", Department: "Computer Science",
				Description: "machine learning models training data algorithms",
				Keywords:    []string{"machine learning", "data"}, Level: 300,
				Difficulty: recommend.DifficultyAdvanced, Credits: 4},
			{ID: "C4", Code: "CS302", Name: "Databases", Department: "Computer Science",
				Description: "relational databases queries transactions storage",
				Keywords:    []string{"databases", "sql"}, Level: 300,
				Difficulty: recommend.DifficultyIntermediate, Credits: 3},
			{ID: "C5", Code: "MATH201", Name: "Linear Algebra", Department: "Mathematics",
				Description: "vectors matrices linear transformations eigenvalues",
				Keywords:    []string{"math", "matrices"}, Level: 200,
				Difficulty: recommend.DifficultyIntermediate, Credits: 3},
		},
		Students: []recommend.Student{
			{ID: "S1", Major: "CS", Department: "Computer Science", Year: 2, GPA: 3.5,
				Interests: []string{"machine learning", "data"}},
			{ID: "S2", Major: "CS", Department: "Computer Science", Year: 3, GPA: 3.2,
				Interests: []string{"databases"}},
			{ID: "S3", Major: "Math", Department: "Mathematics", Year: 2, GPA: 3.8,
				Interests: []string{"matrices"}},
			{ID: "S4", Major: "CS", Department: "Computer Science", Year: 4, GPA: 3.0,
				Interests: []string{"algorithms"}},
			{ID: "S5", Major: "CS", Department: "Computer Science", Year: 3, GPA: 3.6,
				Interests: []string{"machine learning"}},
		},
		History: []recommend.HistoryRecord{
			{StudentID: "S1", CourseID: "C1", Term: "Fall 2024", Grade: "A", GradeValue: 4.0, Rating: ratingPtr(5)},
			{StudentID: "S1", CourseID: "C2", Term: "Spring 2025", Grade: "B+", GradeValue: 3.3, Rating: ratingPtr(4)},
			{StudentID: "S2", CourseID: "C1", Term: "Fall 2024", Grade: "B", GradeValue: 3.0, Rating: ratingPtr(4)},
			{StudentID: "S2", CourseID: "C2", Term: "Spring 2025", Grade: "A", GradeValue: 4.0, Rating: ratingPtr(5)},
			{StudentID: "S2", CourseID: "C4", Term: "Fall 2025", Grade: "A", GradeValue: 4.0, Rating: ratingPtr(5)},
			{StudentID: "S3", CourseID: "C5", Term: "Fall 2024", Grade: "A", GradeValue: 4.0, Rating: nil},
			{StudentID: "S3", CourseID: "C1", Term: "Spring 2025", Grade: "B", GradeValue: 3.0, Rating: ratingPtr(3)},
			{StudentID: "S4", CourseID: "C2", Term: "Fall 2024", Grade: "A", GradeValue: 4.0, Rating: ratingPtr(4)},
			{StudentID: "S4", CourseID: "C4", Term: "Spring 2025", Grade: "B+", GradeValue: 3.3, Rating: ratingPtr(4)},
			{StudentID: "S5", CourseID: "C1", Term: "Fall 2024", Grade: "A", GradeValue: 4.0, Rating: ratingPtr(5)},
			{StudentID: "S5", CourseID: "C3", Term: "Spring 2025", Grade: "A", GradeValue: 4.0, Rating: ratingPtr(5)},
		},
	}
}

func newTestEngine(t *testing.T, trained bool) *recommend.Engine {
	t.Helper()
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if trained {
		if _, err := engine.Train(context.Background(), testDataset()); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}
	return engine
}

// stubTrainer blocks in TrainNow until release is closed.
type stubTrainer struct {
	release chan struct{}
	stats   recommend.TrainingStats
	err     error
}

func (s *stubTrainer) TrainNow(ctx context.Context) (recommend.TrainingStats, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return recommend.TrainingStats{}, ctx.Err()
		}
	}
	return s.stats, s.err
}

func newTestRouter(t *testing.T, trained bool, trainer Trainer) *Router {
	t.Helper()
	handler := NewHandler(newTestEngine(t, trained), nil, trainer)
	return NewRouter(nil, handler)
}

func doRequest(t *testing.T, router *Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v: %s", err, rec.Body.String())
	}
	return resp
}

func TestRecommendCourses(t *testing.T) {
	router := newTestRouter(t, true, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/recommend/courses",
		`{"studentId":"S1","limit":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	if !resp.Success {
		t.Fatalf("Success = false: %s", rec.Body.String())
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	var engineResp recommend.Response
	if err := json.Unmarshal(raw, &engineResp); err != nil {
		t.Fatalf("decode engine response: %v", err)
	}
	if len(engineResp.Recommendations) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	if len(engineResp.Recommendations) > 3 {
		t.Fatalf("got %d recommendations, limit was 3", len(engineResp.Recommendations))
	}
	for _, r := range engineResp.Recommendations {
		if r.CourseID == "C1" || r.CourseID == "C2" {
			t.Fatalf("taken course %s in recommendations", r.CourseID)
		}
		if r.MatchScore < 0 || r.MatchScore > 100 {
			t.Fatalf("match score %d out of range", r.MatchScore)
		}
	}
	if engineResp.Metadata.StudentID != "S1" {
		t.Fatalf("metadata student = %q", engineResp.Metadata.StudentID)
	}
}

func TestRecommendCoursesModelNotReady(t *testing.T) {
	router := newTestRouter(t, false, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/recommend/courses",
		`{"studentId":"S1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeModelNotReady {
		t.Fatalf("error = %+v, want code %s", resp.Error, ErrCodeModelNotReady)
	}
}

func TestRecommendCoursesValidation(t *testing.T) {
	router := newTestRouter(t, true, nil)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing student", `{"limit":5}`, ErrCodeValidationFailed},
		{"empty body", ``, ErrCodeValidationFailed},
		{"limit too large", `{"studentId":"S1","limit":500}`, ErrCodeValidationFailed},
		{"bad difficulty", `{"studentId":"S1","difficultyFilter":"impossible"}`, ErrCodeValidationFailed},
		{"unknown field", `{"studentId":"S1","bogus":true}`, ErrCodeBadRequest},
		{"malformed json", `{"studentId":`, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/recommend/courses", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestModelMetrics(t *testing.T) {
	router := newTestRouter(t, true, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/model/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data type = %T", resp.Data)
	}
	for _, key := range []string{"hit_rate", "precision_at_5", "precision_at_10", "mrr"} {
		v, ok := data[key].(float64)
		if !ok {
			t.Fatalf("missing metric %q", key)
		}
		if v < 0 || v > 1 {
			t.Fatalf("%s = %v out of range", key, v)
		}
	}
	if n, ok := data["num_test_students"].(float64); !ok || n < 1 {
		t.Fatalf("num_test_students = %v", data["num_test_students"])
	}
}

func TestModelMetricsNotReady(t *testing.T) {
	router := newTestRouter(t, false, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/model/metrics", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestEvaluateModelExplicitCohort(t *testing.T) {
	router := newTestRouter(t, true, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/model/evaluate",
		`{"studentIds":["S1","S2","S3"],"topK":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	if n := data["num_test_students"].(float64); n != 3 {
		t.Fatalf("num_test_students = %v, want 3", n)
	}
}

func TestEvaluateModelEmptyBody(t *testing.T) {
	router := newTestRouter(t, true, nil)

	// Every field is optional, so a bodyless POST evaluates with the
	// configured defaults, same as GET /model/metrics.
	rec := doRequest(t, router, http.MethodPost, "/api/v1/model/evaluate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	if n := data["num_test_students"].(float64); n < 1 {
		t.Fatalf("num_test_students = %v, want at least 1", n)
	}
}

func TestEvaluateModelNoTestStudents(t *testing.T) {
	router := newTestRouter(t, true, nil)

	// GHOST has no history at all, so the cohort filters to empty.
	rec := doRequest(t, router, http.MethodPost, "/api/v1/model/evaluate",
		`{"studentIds":["GHOST"]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeConflict {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestTriggerTraining(t *testing.T) {
	release := make(chan struct{})
	trainer := &stubTrainer{release: release, stats: recommend.TrainingStats{ModelVersion: 2}}
	router := newTestRouter(t, true, trainer)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/model/train", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	// The guard flag is set before the handler returns, so a second trigger
	// while the stub blocks must conflict.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/model/train", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second trigger status = %d, want 409", rec.Code)
	}

	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec = doRequest(t, router, http.MethodPost, "/api/v1/model/train", "")
		if rec.Code == http.StatusAccepted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("training flag never cleared after release")
}

func TestTriggerTrainingUnavailable(t *testing.T) {
	router := newTestRouter(t, true, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/model/train", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, false, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["alive"] != true {
		t.Fatalf("alive = %v", data["alive"])
	}
}

func TestHealthReady(t *testing.T) {
	t.Run("not ready before training", func(t *testing.T) {
		router := newTestRouter(t, false, nil)
		rec := doRequest(t, router, http.MethodGet, "/api/v1/health/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("ready after training", func(t *testing.T) {
		router := newTestRouter(t, true, nil)
		rec := doRequest(t, router, http.MethodGet, "/api/v1/health/ready", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestNotFoundEnvelope(t *testing.T) {
	router := newTestRouter(t, false, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := newTestRouter(t, false, nil)

	t.Run("generated", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/health/live", "")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatal("no X-Request-ID header on response")
		}
	})

	t.Run("honored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
		req.Header.Set("X-Request-ID", "fixed-id-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "fixed-id-123" {
			t.Fatalf("X-Request-ID = %q, want fixed-id-123", got)
		}
		resp := decodeEnvelope(t, rec)
		if resp.Meta == nil || resp.Meta.RequestID != "fixed-id-123" {
			t.Fatalf("meta request id = %+v", resp.Meta)
		}
	})
}

func TestPrometheusEndpoint(t *testing.T) {
	router := newTestRouter(t, false, nil)

	rec := doRequest(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "# HELP") {
		t.Fatal("expected Prometheus exposition format")
	}
}
