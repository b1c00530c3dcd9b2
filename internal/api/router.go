// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campuslens/campuslens/internal/config"
)

// Router wires the API handlers into a chi mux with the full middleware
// stack.
type Router struct {
	mux        *chi.Mux
	handler    *Handler
	middleware *Middleware
}

// NewRouter builds the production router from the server configuration.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *Router {
	mwConfig := DefaultMiddlewareConfig()
	if cfg != nil {
		mwConfig.CORSAllowedOrigins = cfg.CORSOrigins
		mwConfig.RateLimitRequests = cfg.RateLimitReqs
		mwConfig.RateLimitWindow = cfg.RateLimitWindow
		mwConfig.RateLimitDisabled = cfg.RateLimitReqs == 0
	}

	router := &Router{
		mux:        chi.NewRouter(),
		handler:    handler,
		middleware: NewMiddleware(mwConfig),
	}
	router.registerRoutes()
	return router
}

// ServeHTTP implements http.Handler.
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.mux.ServeHTTP(w, r)
}

func (router *Router) registerRoutes() {
	r := router.mux

	// Global middleware, applied to every route in registration order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Health endpoints get a permissive rate limit so monitoring
		// probes never starve.
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitHealth())
			r.Use(Instrument())

			r.Get("/health/live", router.handler.HealthLive)
			r.Get("/health/ready", router.handler.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimit())
			r.Use(Instrument())

			r.Post("/recommend/courses", router.handler.RecommendCourses)
			r.Get("/model/metrics", router.handler.ModelMetrics)
			r.Post("/model/evaluate", router.handler.EvaluateModel)
		})

		// Training is resource intensive and gets its own strict budget.
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitTrain())
			r.Use(Instrument())

			r.Post("/model/train", router.handler.TriggerTraining)
		})
	})

	// Prometheus scrape endpoint, outside the API envelope.
	r.Handle("/metrics", promhttp.Handler())
}
