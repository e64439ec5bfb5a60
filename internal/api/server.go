package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/sift/internal/config"
	"github.com/dgallion1/sift/internal/github"
	"github.com/dgallion1/sift/internal/llm"
	"github.com/dgallion1/sift/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Importer flattens a repository into one artifact.
type Importer interface {
	Import(ctx context.Context, repoURL string, onProgress func(string)) (*github.Import, error)
}

// Server is the HTTP API server for sift.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	models       *llm.Registry
	importer     Importer
	stats        *llm.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, models *llm.Registry, importer Importer, stats *llm.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		models:       models,
		importer:     importer,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints. Auth is off when no key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.SiftAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.SiftAPIKey, s.log))
		}

		r.Get("/api/models", s.handleModels)

		r.Post("/api/generations", s.handleCreateGeneration)
		r.Get("/api/generations/{id}", s.handleGetGeneration)
		r.Get("/api/generations/{id}/events", s.handleGenerationEvents)
		r.Post("/api/generations/{id}/cancel", s.handleCancelGeneration)
		r.Get("/api/generations/{id}/sections", s.handleSections)
		r.Get("/api/generations/{id}/sections/{index}/table", s.handleSectionTable)
		r.Get("/generations/{id}", s.handleView)

		r.Post("/api/import/github", s.handleImportGitHub)
		r.Post("/api/artifacts", s.handleUploadArtifact)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
