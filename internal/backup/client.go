// Package backup mirrors drafts to a remote key-value service so a lost
// database can be rebuilt. A nil *Client is valid and does nothing.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/draftroom/internal/store"
)

// ErrNotFound is returned by FetchDraft when the remote has no copy.
var ErrNotFound = errors.New("backup: not found")

const source = "draftroom"

// Client talks to the remote KV API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for baseURL, or nil when baseURL is empty so
// that callers can treat backup as optional.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DraftValue is the stored shape of a draft.
type DraftValue struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	WordCount   int    `json:"word_count"`
	ContentHash string `json:"content_hash"`
	UpdatedAt   int64  `json:"updated_at"` // unix millis
}

type putRequest struct {
	Value  DraftValue `json:"value"`
	Source string     `json:"source,omitempty"`
}

func draftKey(id string) string {
	return "/kv/drafts/" + url.PathEscape(id)
}

// PutDraft uploads the current content of d.
func (c *Client) PutDraft(ctx context.Context, d *store.Draft) error {
	if c == nil {
		return nil
	}
	body, err := json.Marshal(putRequest{
		Value: DraftValue{
			Title:       d.Title,
			Content:     d.Content,
			WordCount:   d.WordCount,
			ContentHash: d.ContentHash,
			UpdatedAt:   d.UpdatedAt.UnixMilli(),
		},
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, draftKey(d.ID), body)
	if err != nil {
		return fmt.Errorf("put draft %s: %w", d.ID, err)
	}
	resp.Body.Close()
	return nil
}

// FetchDraft downloads the remote copy of a draft.
func (c *Client) FetchDraft(ctx context.Context, id string) (*DraftValue, error) {
	if c == nil {
		return nil, ErrNotFound
	}
	resp, err := c.do(ctx, http.MethodGet, draftKey(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", id, err)
	}
	defer resp.Body.Close()

	var node struct {
		Value DraftValue `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &node.Value, nil
}

// DeleteDraft removes the remote copy. A missing copy is not an error.
func (c *Client) DeleteDraft(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	resp, err := c.do(ctx, http.MethodDelete, draftKey(id), nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	resp.Body.Close()
	return nil
}

// do sends an authenticated request and turns non-2xx answers into errors.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
