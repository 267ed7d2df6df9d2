package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/draftroom/internal/api"
	"github.com/dgallion1/draftroom/internal/backup"
	"github.com/dgallion1/draftroom/internal/config"
	"github.com/dgallion1/draftroom/internal/dedup"
	"github.com/dgallion1/draftroom/internal/pipeline"
	"github.com/dgallion1/draftroom/internal/refine"
	"github.com/dgallion1/draftroom/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	cleaner, err := newCleaner(cfg)
	if err != nil {
		log.Error("load contamination patterns", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DBPath, store.WithMaxVersions(cfg.MaxVersions))
	if err != nil {
		log.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional integrations stay nil interfaces when disabled.
	var (
		claude  *refine.ClaudeClient
		refiner pipeline.Refiner
		mirror  pipeline.Backup
	)
	if cfg.RefineEnabled() {
		claude = refine.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		refiner = claude
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, refine disabled")
	}
	bk := backup.NewClient(cfg.BackupURL, cfg.BackupAPIKey)
	if bk != nil {
		mirror = bk
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, st, cleaner, refiner, mirror, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, st, cleaner, bk, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting draftroom",
		"port", cfg.Port,
		"db", cfg.DBPath,
		"refine", cfg.RefineEnabled(),
		"backup", bk != nil,
		"threshold", cfg.DedupThreshold,
	)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = serve(sigCtx, httpServer, log, func() {
		orch.Stop()
		if claude != nil {
			claude.Close()
		}
		bk.Close()
		if err := st.Close(); err != nil {
			log.Error("close store", "error", err)
		}
	})
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// serve runs srv until ctx is done, then shuts the listener down and calls
// drain. It returns only after drain has finished.
func serve(ctx context.Context, srv *http.Server, log *slog.Logger, drain func()) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		drain()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	drain()

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newCleaner(cfg config.Config) (*dedup.Cleaner, error) {
	opts := []dedup.Option{
		dedup.WithThreshold(cfg.DedupThreshold),
		dedup.WithMinLength(cfg.DedupMinLength),
	}
	if cfg.ContaminationPatternsFile != "" {
		patterns, err := dedup.LoadPatternsFile(cfg.ContaminationPatternsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dedup.WithPatterns(patterns...))
	}
	return dedup.New(opts...), nil
}
