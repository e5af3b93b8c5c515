// Package server exposes the HTTP API over chi.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/edgeflag/edgeflag/internal/services"

	"github.com/go-chi/chi/v5"
)

// Router holds the HTTP routing table and the services handlers delegate to.
type Router struct {
	router    *chi.Mux
	logger    *slog.Logger
	timeout   time.Duration
	pageSize  int32
	identity  services.IdentityService
	analytics services.AnalyticsService
	segments  services.SegmentService
}

// NewRouter creates a chi router with all routes and middleware configured.
func NewRouter(
	identity services.IdentityService,
	analytics services.AnalyticsService,
	segments services.SegmentService,
	log *slog.Logger,
	requestTimeout time.Duration,
	pageSize int32,
) *Router {
	r := chi.NewRouter()
	router := &Router{
		router:    r,
		logger:    log,
		timeout:   requestTimeout,
		pageSize:  pageSize,
		identity:  identity,
		analytics: analytics,
		segments:  segments,
	}

	r.Use(router.requestIDMiddleware)
	r.Use(router.requestLoggingMiddleware)
	r.Use(setContentTypeJSONMiddleware)
	if requestTimeout > 0 {
		r.Use(router.requestTimeoutMiddleware(requestTimeout))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", router.handleHealth)

		r.Route("/environments/{envKey}", func(r chi.Router) {
			r.Post("/identities", router.handleCreateIdentity)
			r.Get("/identities", router.handleListIdentities)
			r.Delete("/identities/{identifier}", router.handleDeleteIdentity)
			r.Get("/overrides", router.handleOverrideCount)
			r.Get("/overrides/features", router.handleOverrideCountsByFeature)
		})

		r.Route("/identities/{uuid}", func(r chi.Router) {
			r.Get("/", router.handleGetIdentity)
			r.Get("/segments", router.handleIdentitySegments)
		})
	})

	return router
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Handler returns an http.Handler for the router.
func (r *Router) Handler() http.Handler {
	return r.router
}
