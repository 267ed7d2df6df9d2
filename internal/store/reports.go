package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgallion1/draftroom/internal/dedup"
)

// Report records the outcome of one cleanup run against a draft.
type Report struct {
	ID           string          `json:"id"`
	DraftID      string          `json:"draft_id"`
	VersionID    string          `json:"version_id,omitempty"` // backup taken before the run
	RemovedCount int             `json:"removed_count"`
	Details      []dedup.Removal `json:"details"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SaveReport stores the removal details of res.
func (s *Store) SaveReport(ctx context.Context, draftID, versionID string, res dedup.Result) (*Report, error) {
	details := res.Details
	if details == nil {
		details = []dedup.Removal{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal details: %w", err)
	}

	now := s.nowMillis()
	r := &Report{
		ID:           newID(),
		DraftID:      draftID,
		VersionID:    versionID,
		RemovedCount: res.RemovedCount,
		Details:      details,
		CreatedAt:    time.UnixMilli(now).UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cleanup_reports (id, draft_id, version_id, removed_count, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.DraftID, r.VersionID, r.RemovedCount, string(raw), now)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return r, nil
}

// ListReports returns the cleanup reports of a draft, newest first.
func (s *Store) ListReports(ctx context.Context, draftID string) ([]Report, error) {
	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, draft_id, version_id, removed_count, details, created_at
		 FROM cleanup_reports WHERE draft_id = ? ORDER BY created_at DESC, id DESC`, draftID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []Report{}
	for rows.Next() {
		var (
			r       Report
			raw     string
			created int64
		)
		if err := rows.Scan(&r.ID, &r.DraftID, &r.VersionID, &r.RemovedCount, &raw, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &r.Details); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", r.ID, err)
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
