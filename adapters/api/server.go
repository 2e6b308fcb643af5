// Package api exposes analysis runs over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bcall/app"
	"bcall/domain/bcall"
	"bcall/internal"
)

// Server wires the run endpoints onto a chi router.
type Server struct {
	router  *chi.Mux
	service *app.AnalysisService
	logger  *internal.Logger
	// defaults seed each run's configuration before form parameters apply.
	defaults bcall.AnalysisConfig
	// uploadDir receives uploaded roll-call files before loading.
	uploadDir string
}

// NewServer creates the HTTP surface over an analysis service. defaults are
// the run parameters used when a request omits them.
func NewServer(service *app.AnalysisService, defaults bcall.AnalysisConfig, uploadDir string, logger *internal.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		service:   service,
		logger:    logger,
		defaults:  defaults,
		uploadDir: uploadDir,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/report", s.handleRunReport)
	})
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// Handler returns the root handler for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
