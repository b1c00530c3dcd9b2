// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/campuslens/campuslens/internal/recommend"
)

// validate is the shared request validator. validator.Validate is safe for
// concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// RecommendCoursesRequest is the request body for POST /recommend/courses.
// Field names follow the campus platform's camelCase convention.
type RecommendCoursesRequest struct {
	// StudentID is the student to recommend for.
	StudentID string `json:"studentId" validate:"required,max=64"`

	// Limit caps the number of recommendations; the engine default applies
	// when omitted.
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`

	// ExcludeTaken drops already-taken courses from the candidates.
	// Defaults to true when omitted.
	ExcludeTaken *bool `json:"excludeTaken,omitempty"`

	// DifficultyFilter restricts results to one difficulty tier.
	DifficultyFilter string `json:"difficultyFilter,omitempty" validate:"omitempty,oneof=introductory intermediate advanced specialized"`
}

// ToEngineRequest converts the DTO to an engine request, applying defaults.
func (r *RecommendCoursesRequest) ToEngineRequest(requestID string) recommend.Request {
	excludeTaken := true
	if r.ExcludeTaken != nil {
		excludeTaken = *r.ExcludeTaken
	}
	return recommend.Request{
		StudentID:        r.StudentID,
		Limit:            r.Limit,
		ExcludeTaken:     excludeTaken,
		DifficultyFilter: recommend.Difficulty(r.DifficultyFilter),
		RequestID:        requestID,
	}
}

// EvaluateRequest is the optional request body for POST /model/evaluate.
type EvaluateRequest struct {
	// StudentIDs pins the test cohort; empty means a seeded random sample.
	StudentIDs []string `json:"studentIds,omitempty" validate:"omitempty,max=1000,dive,required"`

	// SampleFraction overrides the configured cohort fraction.
	SampleFraction float64 `json:"sampleFraction,omitempty" validate:"omitempty,gt=0,lte=1"`

	// Seed overrides the sampling seed when nonzero.
	Seed int64 `json:"seed,omitempty"`

	// TopK overrides the configured recommendation depth.
	TopK int `json:"topK,omitempty" validate:"omitempty,min=1,max=50"`
}

// ToEngineRequest converts the DTO to an engine evaluation request.
func (r *EvaluateRequest) ToEngineRequest() recommend.EvalRequest {
	return recommend.EvalRequest{
		StudentIDs:     r.StudentIDs,
		SampleFraction: r.SampleFraction,
		Seed:           r.Seed,
		TopK:           r.TopK,
	}
}

// decodeAndValidate decodes a JSON request body into dst and validates it.
// A false return means the error response has been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		// An empty body means "all defaults"; validation still runs so
		// required fields keep rejecting it.
		if !errors.Is(err, io.EOF) {
			rw.BadRequest("Invalid JSON body: " + err.Error())
			return false
		}
	}

	if err := validate.Struct(dst); err != nil {
		var details []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("field %q failed on the %q rule", fe.Field(), fe.Tag()))
			}
		}
		rw.ValidationError("Request validation failed", details)
		return false
	}
	return true
}
