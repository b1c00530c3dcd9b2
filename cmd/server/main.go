// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package main is the entry point for the CampusLens recommendation server.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading from defaults, YAML file, and
//     environment variables (Koanf v2)
//  2. Database: DuckDB-backed dataset store, with CSV import on startup
//  3. Artifact store: Badger-backed model snapshot persistence (optional)
//  4. Engine: snapshot loaded from the artifact store when available,
//     otherwise trained from the dataset
//  5. Supervisor tree: periodic retraining in the jobs layer, the HTTP
//     server in the api layer
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then a config file (CONFIG_PATH or
// config.yaml), then built-in defaults. Commonly used variables:
//
//	HTTP_HOST, HTTP_PORT      listen address (default 0.0.0.0:8000)
//	DUCKDB_PATH               database file, empty for in-memory
//	COURSES_CSV, STUDENTS_CSV, HISTORY_CSV
//	                          source dataset files
//	ARTIFACTS_ENABLED, ARTIFACTS_PATH
//	                          model snapshot persistence
//	TRAIN_ON_STARTUP          force a fresh training run at boot
//	TRAIN_INTERVAL            periodic retraining interval (0 disables)
//	LOG_LEVEL, LOG_FORMAT     zerolog settings
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// drains in-flight requests within the configured timeout, the retrain loop
// stops, and the database and artifact store are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuslens/campuslens/internal/api"
	"github.com/campuslens/campuslens/internal/artifacts"
	"github.com/campuslens/campuslens/internal/config"
	"github.com/campuslens/campuslens/internal/dataset"
	"github.com/campuslens/campuslens/internal/logging"
	"github.com/campuslens/campuslens/internal/metrics"
	"github.com/campuslens/campuslens/internal/recommend"
	"github.com/campuslens/campuslens/internal/supervisor"
	"github.com/campuslens/campuslens/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config not yet available, the default logger has to do.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("artifacts_enabled", cfg.Artifacts.Enabled).
		Dur("train_interval", cfg.Training.Interval).
		Msg("Starting CampusLens")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dataset store: DuckDB schema plus CSV import.
	store, err := dataset.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := store.ImportCSVs(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to import dataset CSVs")
	}

	// Artifact store for model snapshots, optional.
	var artifactStore *artifacts.Store
	if cfg.Artifacts.Enabled {
		artifactStore, err = artifacts.Open(cfg.Artifacts.Path, cfg.Artifacts.KeepVersions)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open artifact store")
		}
		defer func() {
			if err := artifactStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing artifact store")
			}
		}()
	}

	engine, err := recommend.NewEngine(cfg.Recommend, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	var retrainer *supervisor.Retrainer
	if artifactStore != nil {
		retrainer = supervisor.NewRetrainer(engine, store, artifactStore, logging.Logger())
	} else {
		retrainer = supervisor.NewRetrainer(engine, store, nil, logging.Logger())
	}

	if err := bootstrapModel(ctx, cfg, engine, artifactStore, retrainer); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap model")
	}

	// Supervisor tree: retraining in the jobs layer, HTTP in the api layer.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Training.Interval > 0 {
		tree.AddJobService(services.NewRetrainService(retrainer, services.RetrainServiceConfig{
			Interval: cfg.Training.Interval,
		}, logging.Logger()))
		logging.Info().Dur("interval", cfg.Training.Interval).Msg("Retrain service added")
	}

	handler := api.NewHandler(engine, store, retrainer)
	router := api.NewRouter(&cfg.Server, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// bootstrapModel installs a working model before the server starts: a
// persisted snapshot when one exists and TrainOnStartup is off, otherwise a
// fresh training run.
func bootstrapModel(ctx context.Context, cfg *config.Config, engine *recommend.Engine, artifactStore *artifacts.Store, retrainer *supervisor.Retrainer) error {
	if artifactStore != nil && !cfg.Training.TrainOnStartup {
		model, err := artifactStore.LoadLatest()
		switch {
		case err == nil:
			engine.SetModel(model)
			metrics.ModelVersion.Set(float64(model.Version))
			logging.Info().
				Int("model_version", model.Version).
				Time("trained_at", model.TrainedAt).
				Msg("Loaded persisted model snapshot")
			return nil
		case errors.Is(err, artifacts.ErrNoArtifact):
			logging.Info().Msg("No persisted snapshot, training from dataset")
		default:
			logging.Warn().Err(err).Msg("Failed to load persisted snapshot, training from dataset")
		}
	}

	if _, err := retrainer.Train(ctx, "startup"); err != nil {
		return err
	}
	return nil
}
