// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"errors"
	"time"
)

// Sentinel errors returned by the engine.
var (
	// ErrModelNotReady is returned when a recommendation or evaluation call
	// arrives before any training run or snapshot load has completed.
	ErrModelNotReady = errors.New("recommend: model not ready")

	// ErrNoTestStudents is returned by Evaluate when the test cohort is empty
	// after filtering out students with fewer than two historical courses.
	ErrNoTestStudents = errors.New("recommend: no suitable test students")
)

// Difficulty is the declared difficulty tier of a course.
type Difficulty string

// Difficulty tiers in ascending order.
const (
	DifficultyIntroductory Difficulty = "introductory"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultySpecialized  Difficulty = "specialized"
)

// Tier returns the numeric rank of the difficulty tier (1-4), or 0 for an
// unknown tier.
func (d Difficulty) Tier() int {
	switch d {
	case DifficultyIntroductory:
		return 1
	case DifficultyIntermediate:
		return 2
	case DifficultyAdvanced:
		return 3
	case DifficultySpecialized:
		return 4
	default:
		return 0
	}
}

// Valid reports whether d is a known difficulty tier.
func (d Difficulty) Valid() bool {
	return d.Tier() != 0
}

// GradeMax is the maximum grade point value on the letter-grade scale.
const GradeMax = 4.0

// RatingMax is the maximum student rating.
const RatingMax = 5.0

// Course is a catalog entry. The derived fields are zero until a training
// run computes them from enrollment history.
type Course struct {
	// ID is the unique course identifier.
	ID string `json:"course_id"`

	// Code is the human-facing course code (e.g. "CS301").
	Code string `json:"course_code"`

	// Name is the course title.
	Name string `json:"course_name"`

	// Department offering the course.
	Department string `json:"department"`

	// Description is the free-text catalog description.
	Description string `json:"description"`

	// Keywords is the free-text keyword set for the course.
	Keywords []string `json:"keywords"`

	// Prerequisites references other course IDs. References to unknown
	// courses are treated as never satisfied.
	Prerequisites []string `json:"prerequisites"`

	// Level is the numeric course level (100/200/300/400).
	Level int `json:"level"`

	// Difficulty is the declared difficulty tier.
	Difficulty Difficulty `json:"difficulty"`

	// Credits is the credit count.
	Credits int `json:"credits"`

	// EnrollmentCount is the number of history records for this course.
	// Derived at training time.
	EnrollmentCount int `json:"enrollment_count,omitempty"`

	// AvgRating is the mean explicit rating (1-5), 0 when unrated.
	// Derived at training time.
	AvgRating float64 `json:"avg_rating,omitempty"`

	// RatingCount is the number of explicit ratings recorded.
	// Derived at training time.
	RatingCount int `json:"rating_count,omitempty"`

	// AvgGrade is the mean grade value (0-4) across history records.
	// Derived at training time.
	AvgGrade float64 `json:"avg_grade,omitempty"`

	// GradeCount is the number of grades recorded.
	// Derived at training time.
	GradeCount int `json:"grade_count,omitempty"`

	// PopularityScore combines enrollment volume and ratings, in [0, 1].
	// Derived at training time.
	PopularityScore float64 `json:"popularity_score,omitempty"`

	// DifficultyScore combines observed grade outcomes with the declared
	// tier, min-max normalized across the catalog to [0, 1].
	// Derived at training time.
	DifficultyScore float64 `json:"difficulty_score,omitempty"`
}

// Student is a student profile.
type Student struct {
	// ID is the unique student identifier.
	ID string `json:"student_id"`

	// Major is the declared major.
	Major string `json:"major"`

	// Department the student belongs to.
	Department string `json:"department"`

	// Year is the year of study (1-4+).
	Year int `json:"year_of_study"`

	// GPA is the cumulative grade point average.
	GPA float64 `json:"gpa"`

	// Interests is the ordered list of free-text topic interests.
	// May be empty.
	Interests []string `json:"topic_interests"`
}

// HistoryRecord is one (student, course) enrollment outcome. A student may
// retake a course, so records are not unique per pair.
type HistoryRecord struct {
	// StudentID references a Student.
	StudentID string `json:"student_id"`

	// CourseID references a Course.
	CourseID string `json:"course_id"`

	// Term is the term label (e.g. "Fall 2025").
	Term string `json:"term"`

	// Grade is the letter grade.
	Grade string `json:"grade"`

	// GradeValue is the letter grade on the 0.0-4.0 scale.
	GradeValue float64 `json:"grade_value"`

	// Rating is the optional explicit 1-5 rating, nil when absent.
	Rating *float64 `json:"student_rating"`
}

// InteractionValue derives the interaction strength for this record: the
// explicit rating when present, otherwise the grade rescaled to the 1-5
// rating range. Always in [0, 5].
func (r HistoryRecord) InteractionValue() float64 {
	if r.Rating != nil {
		return *r.Rating
	}
	return r.GradeValue / GradeMax * RatingMax
}

// Dataset is the full training input: the three source tables loaded
// wholesale at training time.
type Dataset struct {
	Courses  []Course        `json:"courses"`
	Students []Student       `json:"students"`
	History  []HistoryRecord `json:"history"`
}

// Request is a recommendation request.
type Request struct {
	// StudentID is the student to recommend for. An unknown student is not
	// an error; recommendations degrade to popularity and level adjusted
	// content matches.
	StudentID string `json:"student_id"`

	// Limit is the maximum number of recommendations to return.
	// Defaults to Config.Limits.DefaultLimit when zero.
	Limit int `json:"limit,omitempty"`

	// ExcludeTaken drops courses the student has already taken from the
	// candidate set. The prerequisite check always uses the real taken set
	// regardless of this flag.
	ExcludeTaken bool `json:"exclude_taken"`

	// DifficultyFilter restricts results to exactly this tier when set.
	DifficultyFilter Difficulty `json:"difficulty_filter,omitempty"`

	// RequestID is a unique identifier for tracing. Generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Recommendation is one recommended course in the response, shaped for the
// campus platform API.
type Recommendation struct {
	CourseID    string     `json:"courseId"`
	CourseName  string     `json:"courseName"`
	CourseCode  string     `json:"courseCode"`
	Department  string     `json:"department"`
	Credits     int        `json:"credits"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description"`

	// Rating is the course's average explicit rating, null when no rating
	// was ever recorded.
	Rating *float64 `json:"rating"`

	// MatchScore is the final blended score scaled to an integer in
	// [0, 100]. Clamping happens only at this boundary.
	MatchScore int `json:"matchScore"`

	Keywords []string `json:"keywords"`
}

// Response is an ordered recommendation list with diagnostic metadata.
type Response struct {
	// Recommendations is ordered best-first.
	Recommendations []Recommendation `json:"recommendations"`

	// TotalCandidates is the number of candidates considered before
	// filtering and truncation.
	TotalCandidates int `json:"total_candidates"`

	// Metadata contains timing and model provenance.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID    string    `json:"request_id"`
	StudentID    string    `json:"student_id"`
	LatencyMS    int64     `json:"latency_ms"`
	ModelVersion int       `json:"model_version"`
	TrainedAt    time.Time `json:"trained_at"`
	Timestamp    time.Time `json:"timestamp"`
}

// ScoredCourse pairs a course identifier with an intermediate score. Values
// are transient per-request and never persisted.
type ScoredCourse struct {
	CourseID string  `json:"course_id"`
	Score    float64 `json:"score"`
}

// TrainingStats summarizes a completed training run.
type TrainingStats struct {
	// Students is the number of student profiles loaded.
	Students int `json:"n_students"`

	// Courses is the number of catalog courses loaded.
	Courses int `json:"n_courses"`

	// Interactions is the number of history records loaded.
	Interactions int `json:"n_interactions"`

	// VocabularySize is the fitted vectorizer's term count.
	VocabularySize int `json:"vocabulary_size"`

	// PopularCourses lists the top five course IDs by popularity score.
	PopularCourses []string `json:"popular_courses"`

	// DurationMS is how long the rebuild took.
	DurationMS int64 `json:"duration_ms"`

	// ModelVersion is the version of the installed snapshot.
	ModelVersion int `json:"model_version"`
}

// EvalRequest selects the cohort and depth for offline evaluation.
type EvalRequest struct {
	// StudentIDs is the explicit test cohort. When empty, a seeded random
	// sample of all students is used.
	StudentIDs []string `json:"student_ids,omitempty"`

	// SampleFraction is the cohort fraction sampled when StudentIDs is
	// empty. Defaults to Config.Evaluation.SampleFraction.
	SampleFraction float64 `json:"sample_fraction,omitempty"`

	// Seed overrides the sampling seed when nonzero.
	Seed int64 `json:"seed,omitempty"`

	// TopK is the recommendation depth requested per student.
	// Defaults to Config.Evaluation.TopK.
	TopK int `json:"top_k,omitempty"`
}

// EvalResult aggregates leave-one-out metrics across the test cohort.
type EvalResult struct {
	// HitRate is the fraction of students whose held-out course appeared in
	// the returned candidates.
	HitRate float64 `json:"hit_rate"`

	// PrecisionAt5 is the fraction with the held-out course ranked in the
	// top five.
	PrecisionAt5 float64 `json:"precision_at_5"`

	// PrecisionAt10 is the fraction ranked in the top ten.
	PrecisionAt10 float64 `json:"precision_at_10"`

	// MRR is the mean reciprocal rank, counting misses as zero.
	MRR float64 `json:"mrr"`

	// NumTestStudents is the cohort size after filtering.
	NumTestStudents int `json:"num_test_students"`
}
