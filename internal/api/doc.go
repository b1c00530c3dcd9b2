// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package api provides the HTTP surface of the recommendation service.
//
// Routing is built on chi with middleware from the chi ecosystem (cors,
// httprate) plus request-ID propagation into the logging context and
// Prometheus instrumentation of every API request. All endpoints return the
// standardized APIResponse envelope encoded with goccy/go-json.
package api
