// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"math"
	"reflect"
	"testing"
)

func TestDerivePopularity(t *testing.T) {
	ds := testDataset()
	model := BuildModel(DefaultConfig(), ds, 1)

	c1, _ := model.Course("C1")
	if c1.EnrollmentCount != 3 {
		t.Errorf("C1 enrollment = %d, want 3", c1.EnrollmentCount)
	}
	if c1.RatingCount != 3 {
		t.Errorf("C1 rating count = %d, want 3", c1.RatingCount)
	}
	if math.Abs(c1.AvgRating-5.0) > 1e-9 {
		t.Errorf("C1 avg rating = %f, want 5.0", c1.AvgRating)
	}
	// Max enrollment is C1/C2 with 3: popularity = 0.7*3/3 + 0.3*5/5 = 1.0.
	if math.Abs(c1.PopularityScore-1.0) > 1e-9 {
		t.Errorf("C1 popularity = %f, want 1.0", c1.PopularityScore)
	}

	// C6 was never taken: zero enrollment and no rating term.
	c6, _ := model.Course("C6")
	if c6.EnrollmentCount != 0 || c6.PopularityScore != 0 {
		t.Errorf("C6 enrollment=%d popularity=%f, want zeros", c6.EnrollmentCount, c6.PopularityScore)
	}

	// C5's single record has no explicit rating.
	c5, _ := model.Course("C5")
	if c5.RatingCount != 0 || c5.AvgRating != 0 {
		t.Errorf("C5 rating count=%d avg=%f, want zeros", c5.RatingCount, c5.AvgRating)
	}
}

func TestDerivePopularityEmptyHistory(t *testing.T) {
	courses := []Course{{ID: "C1", Difficulty: DifficultyIntroductory}}

	// Division guard: the enrollment max floors at 1.
	derivePopularity(courses, nil)
	if courses[0].PopularityScore != 0 {
		t.Errorf("popularity = %f, want 0 with no history", courses[0].PopularityScore)
	}
}

func TestDeriveDifficultyNormalization(t *testing.T) {
	model := BuildModel(DefaultConfig(), testDataset(), 1)

	var minScore, maxScore = 2.0, -1.0
	for i := range model.Courses {
		s := model.Courses[i].DifficultyScore
		if s < 0 || s > 1 {
			t.Errorf("course %s difficulty score %f outside [0,1]", model.Courses[i].ID, s)
		}
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	if minScore != 0 || maxScore != 1 {
		t.Errorf("min/max difficulty = %f/%f, want 0/1 after normalization", minScore, maxScore)
	}
}

func TestDeriveDifficultyAllEqualGuard(t *testing.T) {
	courses := []Course{
		{ID: "C1", Difficulty: DifficultyIntroductory},
		{ID: "C2", Difficulty: DifficultyIntroductory},
	}

	// Identical tiers and no grades: max == min collapses to 0.5.
	deriveDifficulty(courses, nil)
	for i := range courses {
		if courses[i].DifficultyScore != 0.5 {
			t.Errorf("course %s score = %f, want 0.5", courses[i].ID, courses[i].DifficultyScore)
		}
	}
}

func TestDeriveDifficultyUsesGradesWhenEnough(t *testing.T) {
	courses := []Course{
		{ID: "HARD", Difficulty: DifficultyIntroductory},
		{ID: "EASY", Difficulty: DifficultyIntroductory},
	}
	var history []HistoryRecord
	for i := 0; i < 6; i++ {
		history = append(history,
			HistoryRecord{StudentID: "S", CourseID: "HARD", GradeValue: 1.0},
			HistoryRecord{StudentID: "S", CourseID: "EASY", GradeValue: 4.0},
		)
	}

	deriveDifficulty(courses, history)
	if courses[0].DifficultyScore <= courses[1].DifficultyScore {
		t.Errorf("HARD=%f should exceed EASY=%f from grade outcomes",
			courses[0].DifficultyScore, courses[1].DifficultyScore)
	}
}

func TestTakenCoursesOrderAndDistinct(t *testing.T) {
	model := BuildModel(DefaultConfig(), testDataset(), 1)

	if got := model.TakenCourses("S1"); !reflect.DeepEqual(got, []string{"C1", "C2"}) {
		t.Errorf("TakenCourses(S1) = %v, want [C1 C2]", got)
	}
	if got := model.TakenCourses("GHOST"); got != nil {
		t.Errorf("TakenCourses(GHOST) = %v, want nil", got)
	}
}

func TestPopularCoursesDeterministicOrder(t *testing.T) {
	model := BuildModel(DefaultConfig(), testDataset(), 1)

	first := model.PopularCourses(5)
	second := model.PopularCourses(5)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("popular course order not deterministic: %v vs %v", first, second)
	}
	if len(first) != 5 {
		t.Errorf("len = %d, want 5", len(first))
	}
}
