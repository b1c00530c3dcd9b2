// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/campuslens/campuslens/internal/logging"
	"github.com/campuslens/campuslens/internal/metrics"
	"github.com/campuslens/campuslens/internal/recommend"
)

// ImportCSVs replaces the three tables with the contents of the configured
// CSV files. List-valued columns (keywords, prerequisites, topic_interests)
// stay as their JSON text form in DuckDB and are decoded on load.
func (s *Store) ImportCSVs(ctx context.Context) error {
	imports := []struct {
		table string
		path  string
		stmt  string
	}{
		{"courses", s.cfg.CoursesCSV,
			`INSERT INTO courses (course_id, course_code, course_name, department, level,
				credits, difficulty, description, keywords, prerequisites)
			SELECT course_id, course_code, course_name, department, level,
				credits, difficulty, description, keywords, prerequisites
			FROM read_csv_auto(%s, header=true)`},
		{"students", s.cfg.StudentsCSV,
			`INSERT INTO students (student_id, major, department, year, gpa, topic_interests)
			SELECT student_id, major, department, year_of_study, gpa, topic_interests
			FROM read_csv_auto(%s, header=true)`},
		{"course_history", s.cfg.HistoryCSV,
			`INSERT INTO course_history (student_id, course_id, term, grade, grade_value, rating)
			SELECT student_id, course_id, term, grade, grade_value, student_rating
			FROM read_csv_auto(%s, header=true)`},
	}

	for _, imp := range imports {
		if _, err := s.conn.ExecContext(ctx, "DELETE FROM "+imp.table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", imp.table, err)
		}
		stmt := fmt.Sprintf(imp.stmt, quoteLiteral(imp.path))
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to import %s from %s: %w", imp.table, imp.path, err)
		}
	}

	logging.Info().
		Str("courses_csv", s.cfg.CoursesCSV).
		Str("students_csv", s.cfg.StudentsCSV).
		Str("history_csv", s.cfg.HistoryCSV).
		Msg("dataset imported")
	return nil
}

// LoadDataset reads the three tables into a training snapshot.
func (s *Store) LoadDataset(ctx context.Context) (recommend.Dataset, error) {
	start := time.Now()

	courses, err := s.loadCourses(ctx)
	if err != nil {
		return recommend.Dataset{}, err
	}
	students, err := s.loadStudents(ctx)
	if err != nil {
		return recommend.Dataset{}, err
	}
	history, err := s.loadHistory(ctx)
	if err != nil {
		return recommend.Dataset{}, err
	}

	metrics.RecordDatasetLoad(time.Since(start), len(courses), len(students), len(history))
	return recommend.Dataset{Courses: courses, Students: students, History: history}, nil
}

func (s *Store) loadCourses(ctx context.Context) ([]recommend.Course, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT course_id, course_code, course_name, department, level, credits,
			difficulty, COALESCE(description, ''), keywords, prerequisites
		FROM courses
		ORDER BY course_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []recommend.Course
	for rows.Next() {
		var c recommend.Course
		var difficulty string
		var keywords, prereqs sql.NullString
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.Level,
			&c.Credits, &difficulty, &c.Description, &keywords, &prereqs); err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		c.Difficulty = recommend.Difficulty(strings.ToLower(difficulty))
		if c.Keywords, err = decodeStringList(keywords); err != nil {
			return nil, fmt.Errorf("course %s keywords: %w", c.ID, err)
		}
		if c.Prerequisites, err = decodeStringList(prereqs); err != nil {
			return nil, fmt.Errorf("course %s prerequisites: %w", c.ID, err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (s *Store) loadStudents(ctx context.Context) ([]recommend.Student, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT student_id, COALESCE(major, ''), COALESCE(department, ''),
			COALESCE(year, 0), COALESCE(gpa, 0), topic_interests
		FROM students
		ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []recommend.Student
	for rows.Next() {
		var st recommend.Student
		var interests sql.NullString
		if err := rows.Scan(&st.ID, &st.Major, &st.Department, &st.Year, &st.GPA, &interests); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		if st.Interests, err = decodeStringList(interests); err != nil {
			return nil, fmt.Errorf("student %s interests: %w", st.ID, err)
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *Store) loadHistory(ctx context.Context) ([]recommend.HistoryRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT student_id, course_id, COALESCE(term, ''), COALESCE(grade, ''),
			COALESCE(grade_value, 0), rating
		FROM course_history
		ORDER BY student_id, term, course_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query course history: %w", err)
	}
	defer rows.Close()

	var history []recommend.HistoryRecord
	for rows.Next() {
		var rec recommend.HistoryRecord
		var rating sql.NullFloat64
		if err := rows.Scan(&rec.StudentID, &rec.CourseID, &rec.Term, &rec.Grade,
			&rec.GradeValue, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if rating.Valid {
			v := rating.Float64
			rec.Rating = &v
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

// SaveEnrichedCourses writes the derived per-course scores from a trained
// model back into the courses table for external analytics consumers.
func (s *Store) SaveEnrichedCourses(ctx context.Context, courses []recommend.Course) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE courses SET
			enrollment_count = ?, avg_rating = ?, rating_count = ?,
			avg_grade = ?, grade_count = ?, popularity_score = ?, difficulty_score = ?
		WHERE course_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare update: %w", err)
	}
	defer stmt.Close()

	for i := range courses {
		c := &courses[i]
		if _, err := stmt.ExecContext(ctx, c.EnrollmentCount, c.AvgRating, c.RatingCount,
			c.AvgGrade, c.GradeCount, c.PopularityScore, c.DifficultyScore, c.ID); err != nil {
			return fmt.Errorf("failed to update course %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enrichment: %w", err)
	}
	return nil
}

// decodeStringList parses a JSON array column. NULL, empty, and plain
// comma-separated values are tolerated since upstream CSV exports vary.
func decodeStringList(v sql.NullString) ([]string, error) {
	if !v.Valid {
		return nil, nil
	}
	raw := strings.TrimSpace(v.String)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("invalid JSON list %q: %w", raw, err)
		}
		return out, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
