// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package dataset provides DuckDB-backed storage for the course catalog,
// student profiles, and course history. Source CSVs are imported with
// read_csv_auto at startup; the recommendation engine consumes the tables as
// an in-memory Dataset snapshot.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/campuslens/campuslens/internal/config"
)

// Store wraps the DuckDB connection and provides data access methods.
type Store struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New creates a new database connection and initializes the schema. An
// empty cfg.Path opens an in-memory database.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	connStr := ""
	if cfg.Path != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, runtime.NumCPU())
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn, cfg: cfg}
	if err := s.createSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Conn returns the underlying SQL connection for ad-hoc queries.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			course_id        VARCHAR PRIMARY KEY,
			course_code      VARCHAR NOT NULL,
			course_name      VARCHAR NOT NULL,
			department       VARCHAR NOT NULL,
			level            INTEGER NOT NULL,
			credits          INTEGER NOT NULL,
			difficulty       VARCHAR NOT NULL,
			description      VARCHAR,
			keywords         VARCHAR,
			prerequisites    VARCHAR,
			enrollment_count INTEGER DEFAULT 0,
			avg_rating       DOUBLE  DEFAULT 0,
			rating_count     INTEGER DEFAULT 0,
			avg_grade        DOUBLE  DEFAULT 0,
			grade_count      INTEGER DEFAULT 0,
			popularity_score DOUBLE  DEFAULT 0,
			difficulty_score DOUBLE  DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			student_id      VARCHAR PRIMARY KEY,
			major           VARCHAR,
			department      VARCHAR,
			year            INTEGER DEFAULT 0,
			gpa             DOUBLE  DEFAULT 0,
			topic_interests VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS course_history (
			student_id  VARCHAR NOT NULL,
			course_id   VARCHAR NOT NULL,
			term        VARCHAR,
			grade       VARCHAR,
			grade_value DOUBLE DEFAULT 0,
			rating      DOUBLE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// quoteLiteral escapes a string for embedding as a SQL literal. read_csv_auto
// takes the file path as a literal, not a bind parameter.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
