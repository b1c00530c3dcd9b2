// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"math"
	"sort"
)

// neighbor is a similar student with their similarity score.
type neighbor struct {
	StudentID  string
	Similarity float64
}

// CollaborativeScores finds students with similar rating behavior and
// propagates their liked courses.
//
// Similarity between two students is cosine similarity restricted to the
// shared-course subspace: only courses where both have nonzero interaction
// contribute to the dot product and the norms. This avoids artificially low
// similarity from sparse, unshared zero-filled columns. Students sharing
// fewer than MinCommonCourses are skipped.
//
// The top MaxNeighbors students contribute: for each course a neighbor
// rated above LikedThreshold that the target has not interacted with, the
// course accumulates similarity × (rating / 5), summed across neighbors.
// Courses no neighbor liked are never candidates.
//
// Returns nil when the student has no interaction row or the row sums to
// zero (cold start).
func (m *Model) CollaborativeScores(cfg *Config, studentID string, limit int) []ScoredCourse {
	row := m.Interactions.Row(studentID)
	if len(row) == 0 || m.Interactions.RowSum(studentID) == 0 {
		return nil
	}

	neighbors := m.findNeighbors(cfg, studentID, row)
	if len(neighbors) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, nb := range neighbors {
		otherRow := m.Interactions.Row(nb.StudentID)
		for courseID, rating := range otherRow {
			if rating > cfg.Collaborative.LikedThreshold && row[courseID] == 0 {
				scores[courseID] += nb.Similarity * (rating / RatingMax)
			}
		}
	}

	scored := make([]ScoredCourse, 0, len(scores))
	for courseID, score := range scores {
		scored = append(scored, ScoredCourse{CourseID: courseID, Score: score})
	}
	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].CourseID < scored[b].CourseID
	})

	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}

// findNeighbors ranks other students by shared-subspace similarity, keeping
// the top MaxNeighbors. Iteration follows the matrix's sorted student index
// and ties break by student ID, so the neighborhood is deterministic.
func (m *Model) findNeighbors(cfg *Config, studentID string, row map[string]float64) []neighbor {
	var neighbors []neighbor
	for _, otherID := range m.Interactions.Students() {
		if otherID == studentID {
			continue
		}
		otherRow := m.Interactions.Row(otherID)
		sim, common := sharedSubspaceCosine(row, otherRow)
		if common < cfg.Collaborative.MinCommonCourses {
			continue
		}
		neighbors = append(neighbors, neighbor{StudentID: otherID, Similarity: sim})
	}

	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].Similarity != neighbors[b].Similarity {
			return neighbors[a].Similarity > neighbors[b].Similarity
		}
		return neighbors[a].StudentID < neighbors[b].StudentID
	})
	if len(neighbors) > cfg.Collaborative.MaxNeighbors {
		neighbors = neighbors[:cfg.Collaborative.MaxNeighbors]
	}
	return neighbors
}

// sharedSubspaceCosine computes cosine similarity over only the courses
// where both rows have nonzero interaction, returning the similarity and
// the shared course count. Two identical vectors over the shared subspace
// yield exactly 1.0.
func sharedSubspaceCosine(a, b map[string]float64) (float64, int) {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var dot, normA, normB float64
	common := 0
	for courseID, sv := range small {
		lv, ok := large[courseID]
		if !ok || sv == 0 || lv == 0 {
			continue
		}
		common++
		dot += sv * lv
		normA += sv * sv
		normB += lv * lv
	}

	if normA == 0 || normB == 0 {
		return 0, common
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), common
}
