// Package refine sends manuscript chunks to the Anthropic Messages API for a
// light copy-edit and checks what comes back.
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.anthropic.com"

// ClaudeClient calls the Anthropic Messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client

	// Stats records the latency of every completed call.
	Stats *LLMStats
}

// Option customises a ClaudeClient.
type Option func(*ClaudeClient)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *ClaudeClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *ClaudeClient) { c.httpClient = hc }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *ClaudeClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func NewClaudeClient(apiKey, model string, opts ...Option) *ClaudeClient {
	c := &ClaudeClient{
		apiKey:    apiKey,
		model:     model,
		baseURL:   defaultBaseURL,
		maxTokens: 8192,
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
		},
		Stats: NewLLMStats(time.Hour),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model name.
func (c *ClaudeClient) Model() string { return c.model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Refine sends prompt and returns the model's text with any code fence removed.
func (c *ClaudeClient) Refine(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.Stats.RecordFailure(time.Since(start).Milliseconds())
		return "", fmt.Errorf("claude api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.Stats.RecordFailure(elapsed)
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.Stats.RecordFailure(elapsed)
	} else {
		c.Stats.Record(elapsed)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var out strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("empty response from claude")
	}
	return stripCodeBlock(out.String()), nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
// RetryAfter is the server's requested wait, zero when it sent none.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Close releases idle connections.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}
