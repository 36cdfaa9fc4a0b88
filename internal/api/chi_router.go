// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/easyflix/internal/config"
	"github.com/tomtom215/easyflix/internal/dispatch"
)

// maxBodyBytes bounds command request bodies.
const maxBodyBytes = 1 << 20

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router serves the command API.
type Router struct {
	dispatcher    *dispatch.Dispatcher
	store         Pinger
	chiMiddleware *ChiMiddleware
	started       time.Time
}

// NewRouter creates a Router. cfg may be nil for defaults.
func NewRouter(dispatcher *dispatch.Dispatcher, store Pinger, cfg *config.ServerConfig) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	if cfg != nil {
		mwConfig.CORSAllowedOrigins = cfg.CORSOrigins
		mwConfig.RateLimitRequests = cfg.RateLimitRequests
		mwConfig.RateLimitWindow = cfg.RateLimitWindow
		mwConfig.RateLimitDisabled = cfg.RateLimitDisabled
	}
	return &Router{
		dispatcher:    dispatcher,
		store:         store,
		chiMiddleware: NewChiMiddleware(mwConfig),
		started:       time.Now(),
	}
}

// Handler builds the Chi route tree.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/health", router.Health)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Post("/command", router.Command)
			r.Post("/command/encrypted", router.CommandEncrypted)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
