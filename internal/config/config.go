package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DraftroomAPIKey string

	// Storage
	DBPath      string
	MaxVersions int

	// Remote backup, disabled when BackupURL is empty
	BackupURL    string
	BackupAPIKey string

	// Claude refinement, disabled when AnthropicAPIKey is empty
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pool
	WorkerCount         int
	MaxQueueSize        int
	MaxConcurrentRefine int

	// Upload limits
	MaxUploadBytes int64

	// Refine chunking
	RefineChunkSize int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Duplicate cleanup
	DedupThreshold            float64
	DedupMinLength            int
	ContaminationPatternsFile string
}

const (
	defaultUploadBytes = 52428800 // 50MB
	defaultThreshold   = 0.65
	defaultMinLength   = 50
)

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DraftroomAPIKey: os.Getenv("DRAFTROOM_API_KEY"),

		DBPath:      envOr("DB_PATH", "draftroom.db"),
		MaxVersions: envInt("MAX_VERSIONS", 50),

		BackupURL:    os.Getenv("BACKUP_URL"),
		BackupAPIKey: os.Getenv("BACKUP_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:         envInt("WORKER_COUNT", 4),
		MaxQueueSize:        envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentRefine: envInt("MAX_CONCURRENT_REFINE", 3),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", defaultUploadBytes),

		RefineChunkSize: envInt("REFINE_CHUNK_SIZE", 1500),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		DedupThreshold:            envFloat("DEDUP_THRESHOLD", defaultThreshold),
		DedupMinLength:            envInt("DEDUP_MIN_LENGTH", defaultMinLength),
		ContaminationPatternsFile: os.Getenv("CONTAMINATION_PATTERNS_FILE"),
	}

	if cfg.MaxVersions <= 0 {
		cfg.MaxVersions = 50
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentRefine <= 0 {
		cfg.MaxConcurrentRefine = 3
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultUploadBytes
	}
	if cfg.RefineChunkSize <= 0 {
		cfg.RefineChunkSize = 1500
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.DedupMinLength < 0 {
		cfg.DedupMinLength = defaultMinLength
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DraftroomAPIKey == "" {
		return errors.New("DRAFTROOM_API_KEY is required")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.DedupThreshold <= 0 || c.DedupThreshold > 1 {
		return fmt.Errorf("DEDUP_THRESHOLD must be in (0, 1], got %g", c.DedupThreshold)
	}
	if c.BackupURL != "" && c.BackupAPIKey == "" {
		return errors.New("BACKUP_API_KEY is required when BACKUP_URL is set")
	}
	return nil
}

// RefineEnabled reports whether an Anthropic key is configured.
func (c Config) RefineEnabled() bool {
	return c.AnthropicAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
