package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "WORKER_COUNT", "DEDUP_THRESHOLD", "DEDUP_MIN_LENGTH", "JOB_TTL", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.DBPath != "draftroom.db" {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.DedupThreshold != 0.65 {
		t.Errorf("expected threshold 0.65, got %g", cfg.DedupThreshold)
	}
	if cfg.DedupMinLength != 50 {
		t.Errorf("expected min length 50, got %d", cfg.DedupMinLength)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %s", cfg.JobTTL)
	}
	if cfg.RefineEnabled() {
		t.Error("expected refine disabled without an API key")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("DEDUP_THRESHOLD", "0.8")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("JOB_TTL", "10m")
	cfg := Load()

	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if cfg.DedupThreshold != 0.8 {
		t.Errorf("expected threshold 0.8, got %g", cfg.DedupThreshold)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("expected 1024 upload bytes, got %d", cfg.MaxUploadBytes)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if cfg.JobTTL != 10*time.Minute {
		t.Errorf("expected 10m TTL, got %s", cfg.JobTTL)
	}
}

func TestLoad_ClampsBadValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("MAX_CONCURRENT_REFINE", "0")
	t.Setenv("REFINE_CHUNK_SIZE", "abc")
	t.Setenv("MAX_VERSIONS", "0")
	cfg := Load()

	if cfg.WorkerCount != 4 {
		t.Errorf("expected clamped worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.MaxConcurrentRefine != 3 {
		t.Errorf("expected clamped refine concurrency 3, got %d", cfg.MaxConcurrentRefine)
	}
	if cfg.RefineChunkSize != 1500 {
		t.Errorf("expected default chunk size, got %d", cfg.RefineChunkSize)
	}
	if cfg.MaxVersions != 50 {
		t.Errorf("expected default max versions, got %d", cfg.MaxVersions)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{DraftroomAPIKey: "k", DBPath: "x.db", DedupThreshold: 0.65}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.DraftroomAPIKey = "" }},
		{"missing db path", func(c *Config) { c.DBPath = "" }},
		{"zero threshold", func(c *Config) { c.DedupThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.DedupThreshold = 1.5 }},
		{"backup without key", func(c *Config) { c.BackupURL = "http://kv" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
