package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Draft is a stored manuscript.
type Draft struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename,omitempty"`
	Content     string    `json:"content,omitempty"`
	ContentHash string    `json:"content_hash"`
	WordCount   int       `json:"word_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const draftColumns = `id, title, filename, content, content_hash, word_count, created_at, updated_at`

func scanDraft(row interface{ Scan(...any) error }) (*Draft, error) {
	var d Draft
	var created, updated int64
	if err := row.Scan(&d.ID, &d.Title, &d.Filename, &d.Content, &d.ContentHash, &d.WordCount, &created, &updated); err != nil {
		return nil, err
	}
	d.CreatedAt = time.UnixMilli(created).UTC()
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return &d, nil
}

// CreateDraft inserts d, filling in ID, hash, word count and timestamps.
func (s *Store) CreateDraft(ctx context.Context, d *Draft) error {
	if d.ID == "" {
		d.ID = newID()
	}
	d.ContentHash = ContentHash(d.Content)
	d.WordCount = WordCount(d.Content)
	now := s.nowMillis()
	d.CreatedAt = time.UnixMilli(now).UTC()
	d.UpdatedAt = d.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (`+draftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Filename, d.Content, d.ContentHash, d.WordCount, now, now)
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

// GetDraft returns the draft with its content.
func (s *Store) GetDraft(ctx context.Context, id string) (*Draft, error) {
	return getDraft(ctx, s.db, id)
}

func getDraft(ctx context.Context, q querier, id string) (*Draft, error) {
	d, err := scanDraft(q.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

// FindDraftByHash returns the oldest draft whose content hashes to hash.
func (s *Store) FindDraftByHash(ctx context.Context, hash string) (*Draft, error) {
	d, err := scanDraft(s.db.QueryRowContext(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE content_hash = ? ORDER BY created_at, id LIMIT 1`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find draft by hash: %w", err)
	}
	return d, nil
}

// ListDrafts returns every draft, most recently updated first, without content.
func (s *Store) ListDrafts(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, filename, '', content_hash, word_count, created_at, updated_at
		 FROM drafts ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	out := []Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// DeleteDraft removes a draft together with its versions and reports.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateDraftContent replaces the draft's content. When backupLabel is not
// empty the previous content is saved as a version first and returned.
func (s *Store) UpdateDraftContent(ctx context.Context, draftID, content, backupLabel string) (*Draft, *Version, error) {
	var (
		updated *Draft
		backup  *Version
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getDraft(ctx, tx, draftID)
		if err != nil {
			return err
		}
		if backupLabel != "" && cur.Content != "" {
			if backup, err = s.insertVersion(ctx, tx, draftID, cur.Content, backupLabel, false); err != nil {
				return err
			}
		}
		updated, err = s.setContent(ctx, tx, cur, content)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, backup, nil
}

func (s *Store) setContent(ctx context.Context, q querier, d *Draft, content string) (*Draft, error) {
	now := s.nowMillis()
	out := *d
	out.Content = content
	out.ContentHash = ContentHash(content)
	out.WordCount = WordCount(content)
	out.UpdatedAt = time.UnixMilli(now).UTC()

	_, err := q.ExecContext(ctx,
		`UPDATE drafts SET content = ?, content_hash = ?, word_count = ?, updated_at = ? WHERE id = ?`,
		out.Content, out.ContentHash, out.WordCount, now, d.ID)
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return &out, nil
}
