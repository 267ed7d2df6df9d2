package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/draftroom/internal/backup"
	"github.com/dgallion1/draftroom/internal/chapters"
	"github.com/dgallion1/draftroom/internal/export"
	"github.com/dgallion1/draftroom/internal/store"
	"github.com/go-chi/chi/v5"
)

// Version labels written by the API.
const (
	SnapshotLabel       = "Snapshot"
	ChapterBackupLabel  = "Auto-backup before chapter edit"
	maxJSONBodyOverhead = 1 << 20
)

// storeError maps store failures onto HTTP responses.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.Error("store failure", "path", r.URL.Path, "error", err)
	jsonError(w, "internal error", http.StatusInternalServerError)
}

// mirror pushes a changed draft to the remote backup. Failures are logged only.
func (s *Server) mirror(r *http.Request, d *store.Draft) {
	if err := s.backup.PutDraft(r.Context(), d); err != nil {
		s.log.Warn("backup failed", "draft_id", d.ID, "error", err)
	}
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.store.ListDrafts(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDraft deletes a draft with its versions and reports, and drops
// the remote backup copy.
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")
	if err := s.store.DeleteDraft(r.Context(), draftID); err != nil {
		s.storeError(w, r, err)
		return
	}

	backupDeleted := false
	if s.backup != nil {
		if err := s.backup.DeleteDraft(r.Context(), draftID); err != nil {
			s.log.Warn("backup delete failed", "draft_id", draftID, "error", err)
		} else {
			backupDeleted = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":        draftID,
		"backup_deleted": backupDeleted,
	})
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListVersions(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.GetVersion(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "versionID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type snapshotRequest struct {
	Label string `json:"label"`
}

// handleSnapshot saves the current content as a snapshot version. Snapshots
// are never pruned.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyOverhead)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = SnapshotLabel
	}

	ctx := r.Context()
	d, err := s.store.GetDraft(ctx, chi.URLParam(r, "draftID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	v, err := s.store.SaveVersion(ctx, d.ID, d.Content, label, true)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	v.Content = ""
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionID")
	if err := s.store.DeleteVersion(r.Context(), chi.URLParam(r, "draftID"), versionID); err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": versionID})
}

func (s *Server) handleRestoreVersion(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.RestoreVersion(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "versionID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.mirror(r, d)
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReports(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": chapters.Extract(d.Content)})
}

type mergeChaptersRequest struct {
	Chapters []chapters.Chapter `json:"chapters"`
}

// handleMergeChapters replaces the draft with the given chapters, merged in
// their Order.
func (s *Server) handleMergeChapters(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+maxJSONBodyOverhead)
	var req mergeChaptersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Chapters) == 0 {
		jsonError(w, "at least one chapter is required", http.StatusBadRequest)
		return
	}

	d, _, err := s.store.UpdateDraftContent(r.Context(), chi.URLParam(r, "draftID"), chapters.Merge(req.Chapters), ChapterBackupLabel)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.mirror(r, d)
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	body, contentType, ext, err := export.Render(r.URL.Query().Get("format"), d.Title, d.Content)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(d.Title, ext)))
	w.Write(body)
}

// handleFetchBackup returns the remote backup copy of a draft.
func (s *Server) handleFetchBackup(w http.ResponseWriter, r *http.Request) {
	if s.backup == nil {
		jsonError(w, "backup is not configured", http.StatusServiceUnavailable)
		return
	}
	draftID := chi.URLParam(r, "draftID")
	v, err := s.backup.FetchDraft(r.Context(), draftID)
	if errors.Is(err, backup.ErrNotFound) {
		jsonError(w, "no backup for draft "+draftID, http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("backup fetch failed", "draft_id", draftID, "error", err)
		jsonError(w, "backup fetch failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
