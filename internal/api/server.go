package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/draftroom/internal/backup"
	"github.com/dgallion1/draftroom/internal/config"
	"github.com/dgallion1/draftroom/internal/dedup"
	"github.com/dgallion1/draftroom/internal/pipeline"
	"github.com/dgallion1/draftroom/internal/refine"
	"github.com/dgallion1/draftroom/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for draftroom.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	cleaner      *dedup.Cleaner
	backup       *backup.Client
	claude       *refine.ClaudeClient
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. backup and claude may be
// nil when those integrations are not configured.
func NewServer(orch *pipeline.Orchestrator, st *store.Store, cleaner *dedup.Cleaner, bk *backup.Client, claude *refine.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	if cleaner == nil {
		cleaner = dedup.New()
	}
	s := &Server{
		orchestrator: orch,
		store:        st,
		cleaner:      cleaner,
		backup:       bk,
		claude:       claude,
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DraftroomAPIKey, s.log))

		r.Post("/api/cleanup", s.handleCleanupText)

		r.Post("/api/drafts", s.handleUpload)
		r.Post("/api/drafts/batch", s.handleBatchUpload)
		r.Get("/api/drafts", s.handleListDrafts)

		r.Route("/api/drafts/{draftID}", func(r chi.Router) {
			r.Get("/", s.handleGetDraft)
			r.Delete("/", s.handleDeleteDraft)

			r.Post("/cleanup", s.handleCleanupDraft)
			r.Post("/refine", s.handleRefineDraft)

			r.Get("/versions", s.handleListVersions)
			r.Post("/versions", s.handleSnapshot)
			r.Get("/versions/{versionID}", s.handleGetVersion)
			r.Delete("/versions/{versionID}", s.handleDeleteVersion)
			r.Post("/versions/{versionID}/restore", s.handleRestoreVersion)

			r.Get("/reports", s.handleListReports)
			r.Get("/chapters", s.handleListChapters)
			r.Put("/chapters", s.handleMergeChapters)
			r.Get("/export", s.handleExport)
			r.Get("/backup", s.handleFetchBackup)
		})

		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
