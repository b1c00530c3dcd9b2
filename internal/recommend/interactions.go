// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import "sort"

// InteractionMatrix is the student×course interaction strength matrix built
// from enrollment history. Rows are stored sparsely; a missing cell means
// "no data", not negative signal, and reads as zero.
//
// Fields are exported for gob serialization in the artifact store.
type InteractionMatrix struct {
	// Rows maps student ID to that student's course interaction values.
	Rows map[string]map[string]float64

	// StudentIDs enumerates students with at least one record, sorted for
	// deterministic neighbor iteration.
	StudentIDs []string

	// CourseIDs enumerates courses with at least one record, sorted.
	CourseIDs []string
}

// BuildInteractionMatrix pivots history records into a student×course
// matrix. Each cell holds the record's interaction value (the explicit
// rating when present, else the rescaled grade); a retaken course averages
// the values of all of the student's records for that course.
func BuildInteractionMatrix(history []HistoryRecord) *InteractionMatrix {
	m := &InteractionMatrix{Rows: make(map[string]map[string]float64)}
	counts := make(map[string]map[string]int)
	courses := make(map[string]struct{})

	for i := range history {
		rec := &history[i]
		row, ok := m.Rows[rec.StudentID]
		if !ok {
			row = make(map[string]float64)
			m.Rows[rec.StudentID] = row
			counts[rec.StudentID] = make(map[string]int)
			m.StudentIDs = append(m.StudentIDs, rec.StudentID)
		}
		row[rec.CourseID] += rec.InteractionValue()
		counts[rec.StudentID][rec.CourseID]++
		courses[rec.CourseID] = struct{}{}
	}

	for studentID, row := range m.Rows {
		for courseID, n := range counts[studentID] {
			if n > 1 {
				row[courseID] /= float64(n)
			}
		}
	}

	sort.Strings(m.StudentIDs)
	m.CourseIDs = make([]string, 0, len(courses))
	for id := range courses {
		m.CourseIDs = append(m.CourseIDs, id)
	}
	sort.Strings(m.CourseIDs)
	return m
}

// Row returns a student's interaction row, nil when the student has no
// history.
func (m *InteractionMatrix) Row(studentID string) map[string]float64 {
	return m.Rows[studentID]
}

// Value returns the interaction value for a (student, course) cell, zero
// when absent.
func (m *InteractionMatrix) Value(studentID, courseID string) float64 {
	return m.Rows[studentID][courseID]
}

// RowSum returns the total interaction strength of a student's row.
func (m *InteractionMatrix) RowSum(studentID string) float64 {
	var sum float64
	for _, v := range m.Rows[studentID] {
		sum += v
	}
	return sum
}

// Students returns the sorted student ID index.
func (m *InteractionMatrix) Students() []string {
	return m.StudentIDs
}

// Courses returns the sorted course ID index.
func (m *InteractionMatrix) Courses() []string {
	return m.CourseIDs
}
