package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RestoreBackupLabel labels the version saved right before a restore.
const RestoreBackupLabel = "Auto-backup before restore"

// Version is a saved copy of a draft's content. Snapshots are named versions
// that survive pruning.
type Version struct {
	ID        string    `json:"id"`
	DraftID   string    `json:"draft_id"`
	Content   string    `json:"content,omitempty"`
	Label     string    `json:"label,omitempty"`
	Snapshot  bool      `json:"snapshot"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveVersion stores content as a new version of draftID and prunes regular
// versions beyond the configured maximum.
func (s *Store) SaveVersion(ctx context.Context, draftID, content, label string, snapshot bool) (*Version, error) {
	var v *Version
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getDraft(ctx, tx, draftID); err != nil {
			return err
		}
		var err error
		v, err = s.insertVersion(ctx, tx, draftID, content, label, snapshot)
		return err
	})
	return v, err
}

func (s *Store) insertVersion(ctx context.Context, q querier, draftID, content, label string, snapshot bool) (*Version, error) {
	now := s.nowMillis()
	v := &Version{
		ID:        newID(),
		DraftID:   draftID,
		Content:   content,
		Label:     label,
		Snapshot:  snapshot,
		WordCount: WordCount(content),
		CreatedAt: time.UnixMilli(now).UTC(),
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO versions (id, draft_id, content, label, snapshot, word_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.DraftID, v.Content, v.Label, snapshot, v.WordCount, now)
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`DELETE FROM versions WHERE draft_id = ? AND snapshot = 0 AND id NOT IN (
			SELECT id FROM versions WHERE draft_id = ? AND snapshot = 0
			ORDER BY created_at DESC, id DESC LIMIT ?)`,
		draftID, draftID, s.maxVersions)
	if err != nil {
		return nil, fmt.Errorf("prune versions: %w", err)
	}
	return v, nil
}

// ListVersions returns the versions of a draft, newest first, without content.
func (s *Store) ListVersions(ctx context.Context, draftID string) ([]Version, error) {
	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, draft_id, '', label, snapshot, word_count, created_at
		 FROM versions WHERE draft_id = ? ORDER BY created_at DESC, id DESC`, draftID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	out := []Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// GetVersion returns one version with its content.
func (s *Store) GetVersion(ctx context.Context, draftID, versionID string) (*Version, error) {
	return getVersion(ctx, s.db, draftID, versionID)
}

func getVersion(ctx context.Context, q querier, draftID, versionID string) (*Version, error) {
	v, err := scanVersion(q.QueryRowContext(ctx,
		`SELECT id, draft_id, content, label, snapshot, word_count, created_at
		 FROM versions WHERE draft_id = ? AND id = ?`, draftID, versionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("version %s: %w", versionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// DeleteVersion removes one version.
func (s *Store) DeleteVersion(ctx context.Context, draftID, versionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM versions WHERE draft_id = ? AND id = ?`, draftID, versionID)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("version %s: %w", versionID, ErrNotFound)
	}
	return nil
}

// RestoreVersion makes a version's content current again. The content being
// replaced is saved first under RestoreBackupLabel.
func (s *Store) RestoreVersion(ctx context.Context, draftID, versionID string) (*Draft, error) {
	var restored *Draft
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getDraft(ctx, tx, draftID)
		if err != nil {
			return err
		}
		v, err := getVersion(ctx, tx, draftID, versionID)
		if err != nil {
			return err
		}
		if cur.Content != "" {
			if _, err := s.insertVersion(ctx, tx, draftID, cur.Content, RestoreBackupLabel, false); err != nil {
				return err
			}
		}
		restored, err = s.setContent(ctx, tx, cur, v.Content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

func scanVersion(row interface{ Scan(...any) error }) (*Version, error) {
	var v Version
	var created int64
	if err := row.Scan(&v.ID, &v.DraftID, &v.Content, &v.Label, &v.Snapshot, &v.WordCount, &created); err != nil {
		return nil, err
	}
	v.CreatedAt = time.UnixMilli(created).UTC()
	return &v, nil
}
