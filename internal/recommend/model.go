// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"sort"
	"time"
)

// Model is an immutable trained snapshot: the loaded tables, the fitted
// content index, and the interaction matrix. A Model is produced whole by
// training (or loaded from the artifact store) and never mutated afterwards,
// so concurrent readers need no locking beyond the engine's snapshot swap.
//
// Exported fields are gob-serialized by the artifact store; call Reindex
// after decoding to rebuild the lookup tables.
type Model struct {
	// Courses is the catalog in load order, enriched with derived
	// popularity and difficulty scores.
	Courses []Course

	// Students is the student table in load order.
	Students []Student

	// History is the full course history table.
	History []HistoryRecord

	// Vectorizer is the fitted TF-IDF vectorizer.
	Vectorizer *Vectorizer

	// ContentRows holds each course's L2-normalized TF-IDF vector, indexed
	// parallel to Courses.
	ContentRows []SparseVector

	// Similarity is the course×course cosine similarity matrix.
	Similarity [][]float64

	// Interactions is the student×course interaction matrix.
	Interactions *InteractionMatrix

	// TrainedAt is when this snapshot was built.
	TrainedAt time.Time

	// Version increments with each installed snapshot.
	Version int

	courseIndex    map[string]int
	studentIndex   map[string]int
	takenByStudent map[string][]string
}

// BuildModel constructs a complete snapshot from the three source tables:
// derived course scores, fitted vectorizer, content and similarity matrices,
// and the interaction matrix. The build is deterministic for identical
// inputs.
func BuildModel(cfg *Config, ds Dataset, version int) *Model {
	m := &Model{
		Courses:   append([]Course(nil), ds.Courses...),
		Students:  append([]Student(nil), ds.Students...),
		History:   append([]HistoryRecord(nil), ds.History...),
		TrainedAt: time.Now().UTC(),
		Version:   version,
	}

	derivePopularity(m.Courses, m.History)
	deriveDifficulty(m.Courses, m.History)

	docs := make([]string, len(m.Courses))
	for i := range m.Courses {
		docs[i] = CourseDocument(&m.Courses[i])
	}
	m.Vectorizer = FitVectorizer(cfg.Vectorizer, docs)

	m.ContentRows = make([]SparseVector, len(docs))
	for i, doc := range docs {
		m.ContentRows[i] = m.Vectorizer.Transform(doc)
	}
	m.Similarity = buildSimilarityMatrix(m.ContentRows)

	m.Interactions = BuildInteractionMatrix(m.History)

	m.Reindex()
	return m
}

// Reindex rebuilds the unexported lookup tables. Must be called after
// decoding a snapshot from the artifact store.
func (m *Model) Reindex() {
	m.courseIndex = make(map[string]int, len(m.Courses))
	for i := range m.Courses {
		m.courseIndex[m.Courses[i].ID] = i
	}
	m.studentIndex = make(map[string]int, len(m.Students))
	for i := range m.Students {
		m.studentIndex[m.Students[i].ID] = i
	}

	m.takenByStudent = make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	for i := range m.History {
		rec := &m.History[i]
		set, ok := seen[rec.StudentID]
		if !ok {
			set = make(map[string]struct{})
			seen[rec.StudentID] = set
		}
		if _, dup := set[rec.CourseID]; !dup {
			set[rec.CourseID] = struct{}{}
			m.takenByStudent[rec.StudentID] = append(m.takenByStudent[rec.StudentID], rec.CourseID)
		}
	}
}

// Course returns the course with the given ID.
func (m *Model) Course(id string) (*Course, bool) {
	i, ok := m.courseIndex[id]
	if !ok {
		return nil, false
	}
	return &m.Courses[i], true
}

// Student returns the student with the given ID.
func (m *Model) Student(id string) (*Student, bool) {
	i, ok := m.studentIndex[id]
	if !ok {
		return nil, false
	}
	return &m.Students[i], true
}

// TakenCourses returns the distinct course IDs a student has completed, in
// first-seen history order. Empty for unknown students.
func (m *Model) TakenCourses(studentID string) []string {
	return m.takenByStudent[studentID]
}

// TakenSet returns the taken courses as a set.
func (m *Model) TakenSet(studentID string) map[string]struct{} {
	taken := m.takenByStudent[studentID]
	set := make(map[string]struct{}, len(taken))
	for _, id := range taken {
		set[id] = struct{}{}
	}
	return set
}

// PopularCourses returns the top n course IDs by popularity score, ties
// broken by course ID.
func (m *Model) PopularCourses(n int) []string {
	idx := make([]int, len(m.Courses))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ca, cb := &m.Courses[idx[a]], &m.Courses[idx[b]]
		if ca.PopularityScore != cb.PopularityScore {
			return ca.PopularityScore > cb.PopularityScore
		}
		return ca.ID < cb.ID
	})
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = m.Courses[idx[i]].ID
	}
	return out
}

// derivePopularity computes enrollment counts, explicit rating aggregates,
// and the popularity score 0.7*enrollment/max_enrollment + 0.3*avg_rating/5
// for each course. The enrollment max is floored at 1 to guard division.
func derivePopularity(courses []Course, history []HistoryRecord) {
	enroll := make(map[string]int)
	ratingSum := make(map[string]float64)
	ratingCount := make(map[string]int)
	for i := range history {
		rec := &history[i]
		enroll[rec.CourseID]++
		if rec.Rating != nil {
			ratingSum[rec.CourseID] += *rec.Rating
			ratingCount[rec.CourseID]++
		}
	}

	maxEnroll := 1
	for _, n := range enroll {
		if n > maxEnroll {
			maxEnroll = n
		}
	}

	for i := range courses {
		c := &courses[i]
		c.EnrollmentCount = enroll[c.ID]
		c.RatingCount = ratingCount[c.ID]
		c.AvgRating = 0
		if c.RatingCount > 0 {
			c.AvgRating = ratingSum[c.ID] / float64(c.RatingCount)
		}
		c.PopularityScore = 0.7*float64(c.EnrollmentCount)/float64(maxEnroll) +
			0.3*c.AvgRating/RatingMax
	}
}

// minGradesForDifficulty is the grade sample size below which the declared
// tier is used instead of observed outcomes.
const minGradesForDifficulty = 5

// deriveDifficulty computes a composite difficulty score per course. Courses
// with enough recorded grades blend inverted grade outcomes with the
// declared tier; others fall back to the tier alone. Scores are then min-max
// normalized across the catalog, with all-equal inputs collapsing to 0.5.
func deriveDifficulty(courses []Course, history []HistoryRecord) {
	gradeSum := make(map[string]float64)
	gradeCount := make(map[string]int)
	for i := range history {
		rec := &history[i]
		gradeSum[rec.CourseID] += rec.GradeValue
		gradeCount[rec.CourseID]++
	}

	for i := range courses {
		c := &courses[i]
		c.GradeCount = gradeCount[c.ID]
		c.AvgGrade = 0
		if c.GradeCount > 0 {
			c.AvgGrade = gradeSum[c.ID] / float64(c.GradeCount)
		}

		tier := float64(c.Difficulty.Tier()) / 4.0
		if c.GradeCount > minGradesForDifficulty {
			c.DifficultyScore = 0.7*(GradeMax-c.AvgGrade)/GradeMax + 0.3*tier
		} else {
			c.DifficultyScore = tier
		}
	}

	if len(courses) == 0 {
		return
	}
	minScore, maxScore := courses[0].DifficultyScore, courses[0].DifficultyScore
	for i := range courses {
		s := courses[i].DifficultyScore
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == minScore {
		for i := range courses {
			courses[i].DifficultyScore = 0.5
		}
		return
	}
	for i := range courses {
		courses[i].DifficultyScore = (courses[i].DifficultyScore - minScore) / (maxScore - minScore)
	}
}
