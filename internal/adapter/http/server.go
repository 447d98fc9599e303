package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DetectionSource supplies the current detection snapshot.
type DetectionSource interface {
	Detections(ctx context.Context) []domain.Detection
	LastUpdated() time.Time
}

// Options tunes the API middleware.
type Options struct {
	CORSAllowedOrigins []string
	RateLimitRPM       int
}

// Server exposes health, readiness, metrics, and the dashboard API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Health and metrics routes sit outside the
// rate limiter; /api/v1 routes are limited per client IP.
func NewServer(addr string, ready sharedobs.ReadinessChecker, source DetectionSource, classifier *domain.RegionClassifier, opts Options, logger *slog.Logger) *Server {
	if classifier == nil {
		classifier = domain.DefaultClassifier()
	}
	h := &handler{source: source, classifier: classifier, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RateLimitRPM > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRPM, time.Minute))
		}
		r.Get("/regions", h.regions)
		r.Get("/detections", h.detections)
		r.Get("/detections.geojson", h.geojson)
		r.Get("/summary", h.summary)
		r.Get("/viewport", h.viewport)
		r.Get("/map", h.deck)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
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
