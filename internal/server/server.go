// Package server exposes the service layer as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/klytics/sheetsight/internal/service"
)

// RequestObserver records per-request timings.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc       *service.Service
	logger    *slog.Logger
	validate  *validator.Validate
	observer  RequestObserver
	metrics   http.Handler
	maxUpload int64
	version   string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.With("component", "http")
		}
	}
}

// WithMetrics mounts h at /metrics and reports request timings to o.
func WithMetrics(h http.Handler, o RequestObserver) Option {
	return func(s *Server) {
		s.metrics = h
		s.observer = o
	}
}

// WithMaxUpload caps upload bodies at n bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithVersion sets the version reported at /.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New returns a Server for svc.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		maxUpload: 10 << 20,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, envelope{Success: true, Message: "SheetSight API Server", Data: map[string]string{"version": s.version}})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, envelope{Success: true, Message: "Server is running", Data: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)}})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/files", func(r chi.Router) {
			r.Post("/upload", s.uploadFile)
			r.Get("/", s.listFiles)
			r.Get("/stats/summary", s.fileStats)
			r.Get("/{id}", s.getFile)
			r.Delete("/{id}", s.deleteFile)
			r.Get("/{id}/summary", s.fileSummary)
			r.Get("/{id}/report", s.fileReport)
		})
		r.Route("/charts", func(r chi.Router) {
			r.Post("/generate", s.generateChart)
			r.Get("/", s.listCharts)
			r.Get("/{id}", s.getChart)
			r.Delete("/{id}", s.deleteChart)
		})
		r.Route("/insights", func(r chi.Router) {
			r.Get("/", s.listInsights)
			r.Post("/{fileId}", s.generateInsight)
			r.Get("/{fileId}", s.getInsight)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusNotFound, envelope{Message: "Route not found"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
