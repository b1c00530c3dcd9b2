// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Recommend.Weights.Collaborative != 0.6 {
		t.Errorf("collaborative weight = %f, want 0.6", cfg.Recommend.Weights.Collaborative)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECOMMEND_MAX_NEIGHBORS", "25")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Recommend.Collaborative.MaxNeighbors != 25 {
		t.Errorf("max neighbors = %d, want 25", cfg.Recommend.Collaborative.MaxNeighbors)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("cors origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8443
training:
  interval: 1h
recommend:
  limits:
    default_limit: 8
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("port = %d, want 8443", cfg.Server.Port)
	}
	if cfg.Training.Interval != time.Hour {
		t.Errorf("training interval = %s, want 1h", cfg.Training.Interval)
	}
	if cfg.Recommend.Limits.DefaultLimit != 8 {
		t.Errorf("default limit = %d, want 8", cfg.Recommend.Limits.DefaultLimit)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8443\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9002 {
		t.Errorf("port = %d, want 9002 (env over file)", cfg.Server.Port)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }},
		{"missing csv path", func(c *Config) { c.Database.HistoryCSV = "" }},
		{"artifacts enabled without path", func(c *Config) { c.Artifacts.Path = "" }},
		{"zero keep versions", func(c *Config) { c.Artifacts.KeepVersions = 0 }},
		{"negative train interval", func(c *Config) { c.Training.Interval = -time.Second }},
		{"invalid recommend section", func(c *Config) { c.Recommend.Limits.DefaultLimit = 0 }},
		{"nil recommend section", func(c *Config) { c.Recommend = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
