package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/draftroom/internal/dedup"
	"github.com/dgallion1/draftroom/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type cleanupRequest struct {
	Text      string   `json:"text"`
	Threshold *float64 `json:"threshold,omitempty"`
	MinLength *int     `json:"min_length,omitempty"`
	Legacy    bool     `json:"legacy,omitempty"`
}

type cleanupResponse struct {
	dedup.Result
	SectionsFound int `json:"sections_found"`
}

// cleanerFor applies per-request overrides on top of the configured cleaner.
func (s *Server) cleanerFor(req cleanupRequest) (*dedup.Cleaner, error) {
	var opts []dedup.Option
	if req.Legacy {
		opts = append(opts, dedup.WithOptions(dedup.LegacyOptions()))
	}
	if req.Threshold != nil {
		if *req.Threshold <= 0 || *req.Threshold > 1 {
			return nil, fmt.Errorf("threshold must be in (0, 1], got %g", *req.Threshold)
		}
		opts = append(opts, dedup.WithThreshold(*req.Threshold))
	}
	if req.MinLength != nil {
		if *req.MinLength < 0 {
			return nil, fmt.Errorf("min_length must not be negative, got %d", *req.MinLength)
		}
		opts = append(opts, dedup.WithMinLength(*req.MinLength))
	}
	if len(opts) == 0 {
		return s.cleaner, nil
	}
	return s.cleaner.With(opts...), nil
}

// handleCleanupText runs duplicate removal on the posted text and returns the
// result without storing anything.
func (s *Server) handleCleanupText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+maxJSONBodyOverhead)

	var req cleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cleaner, err := s.cleanerFor(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := cleaner.Cleanup(req.Text)
	s.log.Info("cleanup", "bytes", len(req.Text), "removed", res.RemovedCount)
	writeJSON(w, http.StatusOK, cleanupResponse{
		Result:        res,
		SectionsFound: len(cleaner.Sections(req.Text)),
	})
}

func (s *Server) handleCleanupDraft(w http.ResponseWriter, r *http.Request) {
	s.submitDraftJob(w, r, pipeline.KindCleanup)
}

func (s *Server) handleRefineDraft(w http.ResponseWriter, r *http.Request) {
	if !s.orchestrator.RefineEnabled() {
		jsonError(w, "refinement is not configured", http.StatusServiceUnavailable)
		return
	}
	s.submitDraftJob(w, r, pipeline.KindRefine)
}

func (s *Server) submitDraftJob(w http.ResponseWriter, r *http.Request, kind pipeline.JobKind) {
	d, err := s.store.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	job := pipeline.NewJob(kind)
	job.DraftID = d.ID
	job.Title = d.Title
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJob(w, job)
}
