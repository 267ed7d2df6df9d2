package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestRequestLogger_RecordsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/drafts", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	got := lines[0]
	if got["request_id"] != "req-42" {
		t.Errorf("expected request_id req-42, got %v", got["request_id"])
	}
	if got["status"] != float64(http.StatusTeapot) || got["bytes"] != float64(5) {
		t.Errorf("expected status 418 and 5 bytes, got %v / %v", got["status"], got["bytes"])
	}
}

func TestRequestLogger_HealthIsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if buf.Len() != 0 {
		t.Errorf("expected health check below the info level, got %s", buf.String())
	}
}

func TestAuthMiddleware_LogsRejection(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	called := false
	h := AuthMiddleware("secret", log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drafts", nil))
	if called {
		t.Fatal("expected handler not to run without a key")
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected a WWW-Authenticate challenge")
	}
	lines := logLines(t, &buf)
	if len(lines) != 1 || lines[0]["reason"] != "missing authorization" {
		t.Errorf("expected one rejection log line, got %v", lines)
	}

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/api/drafts", nil)
	req.Header.Set("Authorization", "Bearer secret")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("expected handler to run with a valid key")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log for an accepted request, got %s", buf.String())
	}
}
