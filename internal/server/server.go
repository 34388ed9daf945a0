// Package server wires the lead handlers, credential gates and ambient
// middleware into one chi router.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"franchise-leads/internal/common/auth"
	"franchise-leads/internal/common/config"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/observability"
	exportphones "franchise-leads/internal/handlers/export/export-phones"
	listleads "franchise-leads/internal/handlers/leads/list-leads"
	submitlead "franchise-leads/internal/handlers/leads/submit-lead"
	updateleadstatus "franchise-leads/internal/handlers/leads/update-lead-status"
	"franchise-leads/internal/server/middleware"
	"franchise-leads/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr              string
	ShutdownTimeout   time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	NotificationDrain time.Duration
	CORSOrigins       []string
	SubmitRatePerMin  int
	ExportRatePerMin  int
	AdminToken        string
	ExportAPIKey      string

	Submit *submitlead.Config
	Export *exportphones.Config
}

// DefaultConfig listens on :8080 with no credentials configured, so every
// gated route rejects until secrets are supplied.
func DefaultConfig() Config {
	return Config{
		Addr:              "0.0.0.0:8080",
		ShutdownTimeout:   30 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		NotificationDrain: 10 * time.Second,
		CORSOrigins:       []string{"*"},
		SubmitRatePerMin:  20,
		ExportRatePerMin:  60,
		Submit:            submitlead.DefaultConfig(),
		Export:            exportphones.DefaultConfig(),
	}
}

// LoadConfig maps the application configuration onto the server.
func LoadConfig(cfg *config.Config) Config {
	return Config{
		Addr:              cfg.Server.Addr(),
		ShutdownTimeout:   config.GetDuration(cfg.Server.ShutdownTimeout),
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
		NotificationDrain: config.GetDuration(cfg.Server.NotificationWaitMS),
		CORSOrigins:       cfg.Server.CORSOrigins,
		SubmitRatePerMin:  cfg.Server.SubmitRatePerMin,
		ExportRatePerMin:  cfg.Server.ExportRatePerMin,
		AdminToken:        cfg.Auth.AdminToken,
		ExportAPIKey:      cfg.Auth.ExportAPIKey,
		Submit:            submitlead.LoadConfig(cfg.Server),
		Export:            exportphones.LoadConfig(cfg.Export),
	}
}

// Notifier dispatches lead notifications in the background and can be
// drained on shutdown.
type Notifier interface {
	submitlead.Notifier
	Wait(ctx context.Context) error
}

// Dependencies are the collaborators the server does not own. Cache,
// Observability and Gatherer are optional.
type Dependencies struct {
	Store         store.Store
	Notifier      Notifier
	Cache         redis.Cmdable
	Observability *observability.Observability
	Gatherer      prometheus.Gatherer
}

type Server struct {
	cfg        Config
	deps       Dependencies
	router     chi.Router
	httpServer *http.Server
	logger     logger.Logger
}

func New(cfg Config, deps Dependencies, log logger.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("server: notifier is required")
	}
	if cfg.Submit == nil {
		cfg.Submit = submitlead.DefaultConfig()
	}
	if cfg.Export == nil {
		cfg.Export = exportphones.DefaultConfig()
	}
	if err := cfg.Submit.Validate(); err != nil {
		return nil, fmt.Errorf("server: submit config: %w", err)
	}
	if err := cfg.Export.Validate(); err != nil {
		return nil, fmt.Errorf("server: export config: %w", err)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "server"}),
	}
	s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Metrics(s.deps.Observability))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	export := exportphones.NewHandler(s.cfg.Export, s.deps.Store, s.deps.Cache, s.logger)
	submit := submitlead.NewHandler(s.cfg.Submit, s.deps.Store, s.deps.Notifier, s.logger).WithInvalidators(export)
	r.With(middleware.RateLimit(s.cfg.SubmitRatePerMin)).Post("/submit", submit.ServeHTTP)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.NewAdminGate(s.cfg.AdminToken, s.logger).Middleware)

		r.Get("/leads", listleads.NewHandler(listleads.DefaultConfig(), s.deps.Store, s.logger).ServeHTTP)
		r.Patch("/leads/{id}", updateleadstatus.NewHandler(updateleadstatus.DefaultConfig(), s.deps.Store, s.logger).ServeHTTP)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByHeader(auth.APIKeyHeader, s.cfg.ExportRatePerMin))
		r.Use(auth.NewAPIKeyGate(s.cfg.ExportAPIKey, s.logger).Middleware)

		r.Get("/phones", export.ServeHTTP)
	})

	s.router = r
}

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// handleReady returns 503 when the store, or the cache if one is
// configured, cannot be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	checks := map[string]string{}

	if err := s.deps.Store.Ping(ctx); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "degraded"
	} else {
		checks["store"] = "ok"
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Ping(ctx).Err(); err != nil {
			checks["cache"] = "error: " + err.Error()
			status = "degraded"
		} else {
			checks["cache"] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
		s.logger.Warn("readiness check failed", map[string]interface{}{"checks": checks})
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves until ctx is cancelled, then shuts down: it stops accepting
// requests, drains in-flight requests and finally waits for detached
// notification dispatches.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", map[string]interface{}{"addr": s.cfg.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections", nil)
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops the HTTP listener and then drains notifications. It is
// safe to call when the server was never started.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown: %w", err)
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, s.cfg.NotificationDrain)
	defer cancel()
	if err := s.deps.Notifier.Wait(drainCtx); err != nil {
		s.logger.Warn("notifications still in flight at shutdown", map[string]interface{}{"error": err})
	}

	s.logger.Info("server stopped", nil)
	return shutdownErr
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
