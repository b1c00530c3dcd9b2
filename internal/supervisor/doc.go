// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package supervisor provides suture-based process supervision for
// CampusLens.
//
// The tree has two layers: jobs (periodic retraining) and api (the HTTP
// server). A crash in the jobs layer never takes down the API, which keeps
// serving from the last installed model snapshot. Supervisor events are
// logged through sutureslog into the application's zerolog pipeline.
//
// The Retrainer is the single orchestration point for a training cycle:
// load the dataset, rebuild the model, write enriched catalog rows back,
// and persist the snapshot to the artifact store. Both the scheduled
// retrain service and the API training trigger go through it.
package supervisor
