// Package server exposes the batch pipeline over HTTP: multipart upload to
// start a batch, polling for progress, item removal, and report download.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/export"
	"github.com/showcasekit/showcase-extractor/internal/pipeline"
	"github.com/showcasekit/showcase-extractor/internal/queue"
)

type API struct {
	cfg    *common.Config
	log    *slog.Logger
	queue  *queue.Queue
	proc   *pipeline.Processor
	export *export.Service
}

func NewAPI(cfg *common.Config, logger *slog.Logger, q *queue.Queue, proc *pipeline.Processor, exp *export.Service) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{cfg: cfg, log: logger, queue: q, proc: proc, export: exp}
}

// Router builds and wires all routes.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/batches", a.handleCreateBatch)
		api.Get("/status", a.handleStatus)
		api.Delete("/items/{id}", a.handleRemoveItem)
		api.Get("/report", a.handleReportDoc)
		api.Get("/report.xlsx", a.handleReportXLSX)
	})

	return r
}

// Server wraps the HTTP server instance.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

func NewServer(cfg *common.Config, logger *slog.Logger, api *API) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger,
	}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// requestLogger is a thin slog access log in place of chi's stdlib logger.
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.log.Info("http.request",
			"req_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
