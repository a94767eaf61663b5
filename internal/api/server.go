// SPDX-License-Identifier: MIT

// Package api exposes the disable overlay and read-only introspection
// over HTTP, per the OpenAPI document committed alongside this file
// (openapi.yaml). No code generator runs in this build, so the
// generator-shaped request/response types it would otherwise produce are
// hand-written here instead.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/audit"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/config"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/control/middleware"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/engine"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/eventlog"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/health"
	applog "github.com/tizenorg/profile.ivi.murphy-sub000/internal/log"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/store"
)

// Server composes the engine, overlay store, diagnostic event log and
// health manager behind the admin HTTP surface. It holds no mutable
// state of its own beyond what its fields point at.
type Server struct {
	engine  *engine.Engine
	overlay *store.OverlayStore
	events  *eventlog.Log
	health  *health.Manager
	audit   *audit.Logger
	cfg     config.APIConfig
	logger  zerolog.Logger
	handler http.Handler
}

// New builds a Server and its chi router. The router is assembled once,
// at construction, so Handler() is cheap to call repeatedly (e.g. once
// per httptest subtest).
func New(eng *engine.Engine, overlay *store.OverlayStore, events *eventlog.Log, mgr *health.Manager, auditLog *audit.Logger, cfg config.APIConfig) *Server {
	s := &Server{
		engine:  eng,
		overlay: overlay,
		events:  events,
		health:  mgr,
		audit:   auditLog,
		cfg:     cfg,
		logger:  applog.WithComponent("api"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the assembled http.Handler serving every admin route.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            len(s.cfg.AllowedOrigins) > 0,
		AllowedOrigins:        s.cfg.AllowedOrigins,
		CORSAllowCredentials:  false,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
		EnableRateLimit:       s.cfg.RateLimit.RPS > 0,
		RateLimitEnabled:      s.cfg.RateLimit.RPS > 0,
		RateLimitGlobalRPS:    s.cfg.RateLimit.RPS,
		RateLimitBurst:        s.cfg.RateLimit.Burst,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.With(s.requireScope("PostDisable")).Post("/v1/disable", s.handleDisable)
		r.With(s.requireScope("PostEnable")).Post("/v1/enable", s.handleEnable)
		r.With(s.requireScope("GetZoneAreas")).Get("/v1/zones/{zone}/areas", s.handleZoneAreas)
		r.With(s.requireScope("GetZoneAudio")).Get("/v1/zones/{zone}/audio", s.handleZoneAudio)
		r.With(s.requireScope("GetZoneEvents")).Get("/v1/zones/{zone}/events", s.handleZoneEvents)
	})

	return r
}
