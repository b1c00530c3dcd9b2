// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Evaluate measures recommendation quality with per-student leave-one-out
// holdout.
//
// For each test student with at least MinHistory distinct courses, the most
// recent course (by term, see holdoutCourse) is hidden from their history
// and the content-based recommender is asked for TopK candidates from the
// reduced state; the collaborative signal is omitted during evaluation. The
// held-out course's presence and rank drive hit-rate, precision@5/@10 and
// MRR, aggregated by plain means with misses counting as zero reciprocal
// rank.
//
// When no explicit cohort is given, a seeded random sample of all students
// is drawn, so repeated runs score the same cohort. Returns
// ErrNoTestStudents when the cohort is empty after the history filter.
//
// Evaluation is O(test students × scoring cost) and intended to run
// offline, not interactively.
func (e *Engine) Evaluate(ctx context.Context, req EvalRequest) (*EvalResult, error) {
	model, err := e.Model()
	if err != nil {
		return nil, err
	}

	cohort := req.StudentIDs
	if len(cohort) == 0 {
		cohort = e.sampleCohort(model, req)
	}

	var hits, p5, p10 int
	var rrSum float64
	tested := 0

	topK := req.TopK
	if topK <= 0 {
		topK = e.config.Evaluation.TopK
	}

	for _, studentID := range cohort {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		taken := model.TakenCourses(studentID)
		if len(taken) < e.config.Evaluation.MinHistory {
			continue
		}

		heldOut := holdoutCourse(model, studentID)
		reduced := make([]string, 0, len(taken)-1)
		for _, id := range taken {
			if id != heldOut {
				reduced = append(reduced, id)
			}
		}

		var interests []string
		var department string
		if student, ok := model.Student(studentID); ok {
			interests = student.Interests
			department = student.Department
		}

		recs := model.contentScores(e.config, reduced, interests, department, topK)

		rank := 0
		for i, sc := range recs {
			if sc.CourseID == heldOut {
				rank = i + 1
				break
			}
		}

		tested++
		if rank > 0 {
			hits++
			rrSum += 1.0 / float64(rank)
			if rank <= 5 {
				p5++
			}
			if rank <= 10 {
				p10++
			}
		}
	}

	if tested == 0 {
		return nil, ErrNoTestStudents
	}

	n := float64(tested)
	result := &EvalResult{
		HitRate:         float64(hits) / n,
		PrecisionAt5:    float64(p5) / n,
		PrecisionAt10:   float64(p10) / n,
		MRR:             rrSum / n,
		NumTestStudents: tested,
	}

	e.logger.Info().
		Int("num_test_students", result.NumTestStudents).
		Float64("hit_rate", result.HitRate).
		Float64("precision_at_5", result.PrecisionAt5).
		Float64("precision_at_10", result.PrecisionAt10).
		Float64("mrr", result.MRR).
		Msg("evaluation complete")

	return result, nil
}

// sampleCohort draws a seeded random fraction of all students. Students are
// enumerated in sorted ID order before shuffling so the sample depends only
// on the seed and the student population.
func (e *Engine) sampleCohort(model *Model, req EvalRequest) []string {
	ids := make([]string, len(model.Students))
	for i := range model.Students {
		ids[i] = model.Students[i].ID
	}
	sort.Strings(ids)

	fraction := req.SampleFraction
	if fraction <= 0 || fraction > 1 {
		fraction = e.config.Evaluation.SampleFraction
	}
	seed := req.Seed
	if seed == 0 {
		seed = e.config.Evaluation.Seed
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic sampling, not cryptography
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	size := int(float64(len(ids)) * fraction)
	if size > len(ids) {
		size = len(ids)
	}
	return ids[:size]
}

// holdoutCourse selects the course to hide for a student: the record with
// the most recent term, ties broken by the greater course ID. Term recency
// is explicit and deterministic rather than based on incidental record
// ordering.
func holdoutCourse(model *Model, studentID string) string {
	best := ""
	bestOrd := -1
	for i := range model.History {
		rec := &model.History[i]
		if rec.StudentID != studentID {
			continue
		}
		ord := termOrdinal(rec.Term)
		if ord > bestOrd || (ord == bestOrd && rec.CourseID > best) {
			best = rec.CourseID
			bestOrd = ord
		}
	}
	return best
}

// termOrdinal maps a term label like "Fall 2025" to a sortable ordinal.
// Unparseable labels sort first.
func termOrdinal(term string) int {
	fields := strings.Fields(term)
	if len(fields) != 2 {
		return 0
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}

	season := 0
	switch strings.ToLower(fields[0]) {
	case "winter":
		season = 1
	case "spring":
		season = 2
	case "summer":
		season = 3
	case "fall":
		season = 4
	}
	return year*10 + season
}
