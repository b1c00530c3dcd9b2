// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"sort"
	"strings"
)

// ContentScores scores every course against a query built from the
// student's interests and department, pulled toward courses the student has
// already completed.
//
// The query is the interests joined by spaces plus the department, or the
// department alone when the interest list is empty. Each completed course
// adds its similarity row at ContentConfig.TakenCourseWeight into the
// per-course totals. Results are sorted descending with ties keeping the
// original catalog order, truncated to limit.
//
// An unknown student simply contributes no completed courses; the call
// never fails.
func (m *Model) ContentScores(cfg *Config, studentID string, interests []string, department string, limit int) []ScoredCourse {
	return m.contentScores(cfg, m.TakenCourses(studentID), interests, department, limit)
}

// contentScores is the taken-set-explicit core of ContentScores. The
// evaluator calls it directly with a reduced history.
func (m *Model) contentScores(cfg *Config, taken []string, interests []string, department string, limit int) []ScoredCourse {
	query := department
	if len(interests) > 0 {
		query = strings.Join(interests, " ") + " " + department
	}

	queryVec := m.Vectorizer.Transform(query)
	sims := make([]float64, len(m.Courses))
	for i := range m.ContentRows {
		sims[i] = queryVec.Dot(m.ContentRows[i])
	}

	for _, courseID := range taken {
		idx, ok := m.courseIndex[courseID]
		if !ok {
			continue
		}
		row := m.Similarity[idx]
		for i := range sims {
			sims[i] += cfg.Content.TakenCourseWeight * row[i]
		}
	}

	scored := make([]ScoredCourse, len(m.Courses))
	for i := range m.Courses {
		scored[i] = ScoredCourse{CourseID: m.Courses[i].ID, Score: sims[i]}
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}
