// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package config loads CampusLens configuration from layered sources with
// Koanf v2: built-in defaults, an optional YAML file, then environment
// variables, in increasing priority.
package config

import (
	"fmt"
	"time"

	"github.com/campuslens/campuslens/internal/logging"
	"github.com/campuslens/campuslens/internal/recommend"
)

// Config is the root configuration for all CampusLens components.
type Config struct {
	Server    ServerConfig      `json:"server" koanf:"server"`
	Database  DatabaseConfig    `json:"database" koanf:"database"`
	Artifacts ArtifactsConfig   `json:"artifacts" koanf:"artifacts"`
	Training  TrainingConfig    `json:"training" koanf:"training"`
	Logging   logging.Config    `json:"logging" koanf:"logging"`
	Recommend *recommend.Config `json:"recommend" koanf:"recommend"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `json:"host" koanf:"host"`

	// Port is the listen port.
	Port int `json:"port" koanf:"port"`

	// Timeout bounds request read/write and shutdown.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RateLimitReqs is the per-IP request budget per RateLimitWindow.
	// Zero disables rate limiting.
	RateLimitReqs int `json:"rate_limit_reqs" koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `json:"rate_limit_window" koanf:"rate_limit_window"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `json:"cors_origins" koanf:"cors_origins"`
}

// DatabaseConfig holds the DuckDB settings and the CSV source paths loaded
// into it.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path string `json:"path" koanf:"path"`

	// CoursesCSV, StudentsCSV and HistoryCSV are the source data files.
	CoursesCSV  string `json:"courses_csv" koanf:"courses_csv"`
	StudentsCSV string `json:"students_csv" koanf:"students_csv"`
	HistoryCSV  string `json:"history_csv" koanf:"history_csv"`
}

// ArtifactsConfig holds the Badger model artifact store settings.
type ArtifactsConfig struct {
	// Enabled controls whether trained snapshots are persisted.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Path is the Badger directory.
	Path string `json:"path" koanf:"path"`

	// KeepVersions is how many historical snapshots to retain.
	KeepVersions int `json:"keep_versions" koanf:"keep_versions"`
}

// TrainingConfig controls model training triggers.
type TrainingConfig struct {
	// TrainOnStartup forces a fresh training run at boot even when a
	// persisted snapshot is available.
	TrainOnStartup bool `json:"train_on_startup" koanf:"train_on_startup"`

	// Interval is the periodic retraining interval. Zero disables the
	// retraining service.
	Interval time.Duration `json:"interval" koanf:"interval"`
}

// Default returns the configuration defaults applied before file and
// environment layers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path:        "/data/campuslens.duckdb",
			CoursesCSV:  "/data/courses.csv",
			StudentsCSV: "/data/students.csv",
			HistoryCSV:  "/data/course_history.csv",
		},
		Artifacts: ArtifactsConfig{
			Enabled:      true,
			Path:         "/data/models",
			KeepVersions: 3,
		},
		Training: TrainingConfig{
			TrainOnStartup: false,
			Interval:       24 * time.Hour,
		},
		Logging:   logging.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("rate limit requests must be non-negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.Server.RateLimitWindow)
	}
	if c.Database.CoursesCSV == "" || c.Database.StudentsCSV == "" || c.Database.HistoryCSV == "" {
		return fmt.Errorf("all three dataset CSV paths must be set")
	}
	if c.Artifacts.Enabled {
		if c.Artifacts.Path == "" {
			return fmt.Errorf("artifact store enabled but path is empty")
		}
		if c.Artifacts.KeepVersions < 1 {
			return fmt.Errorf("keep_versions must be at least 1, got %d", c.Artifacts.KeepVersions)
		}
	}
	if c.Training.Interval < 0 {
		return fmt.Errorf("training interval must be non-negative, got %s", c.Training.Interval)
	}
	if c.Recommend == nil {
		return fmt.Errorf("recommend configuration missing")
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend configuration: %w", err)
	}
	return nil
}
