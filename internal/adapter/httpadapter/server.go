package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluator runs risk evaluations. It is satisfied by *pipeline.Pipeline.
type Evaluator interface {
	sharedobs.ReadinessChecker
	Evaluate(ctx context.Context, location string, crew ...string) (domain.Evaluation, error)
	EvaluateConditions(c domain.Conditions, assessor string, crew []string) domain.Evaluation
}

// PolicyStore exposes the active policy and reloads it from its source.
// It is satisfied by *policy.Store.
type PolicyStore interface {
	Current() *policy.Policy
	Reload() (*policy.Policy, error)
}

// Server exposes the evaluation API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	evaluator  Evaluator
	policies   PolicyStore
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /v1 evaluation and policy routes.
func NewServer(addr string, evaluator Evaluator, policies PolicyStore, logger *slog.Logger, metrics *observability.Metrics) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		evaluator: evaluator,
		policies:  policies,
		logger:    logger,
		metrics:   metrics,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(evaluator))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(gzip)
		r.Get("/locations/{location}/evaluation", s.handleLocationEvaluation)
		r.Post("/evaluations", s.handleEvaluateConditions)
		r.Get("/policy", s.handleGetPolicy)
		r.Post("/policy/reload", s.handleReloadPolicy)
	})

	return s
}

func gzip(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
