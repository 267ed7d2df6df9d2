package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/draftroom/internal/chunker"
	"github.com/dgallion1/draftroom/internal/dedup"
	"github.com/dgallion1/draftroom/internal/parser"
	"github.com/dgallion1/draftroom/internal/refine"
	"github.com/dgallion1/draftroom/internal/store"
)

// Version labels written by the pipeline.
const (
	ImportLabel        = "Original import"
	CleanupBackupLabel = "Auto-backup before cleanup"
	RefineBackupLabel  = "Auto-backup before refine"
)

// Refiner rewrites one prompt's worth of manuscript text.
type Refiner interface {
	Refine(ctx context.Context, prompt string) (string, error)
}

// Backup mirrors a stored draft somewhere off the box.
type Backup interface {
	PutDraft(ctx context.Context, d *store.Draft) error
}

// Worker processes a single draft job.
type Worker struct {
	store   *store.Store
	cleaner *dedup.Cleaner
	refiner Refiner
	backup  Backup
	log     *slog.Logger

	parseOpts           parser.Options
	chunkCfg            chunker.Config
	maxConcurrentRefine int
	retry               refinePolicy
}

// WorkerDeps bundles what a Worker needs. Refiner and Backup may be nil.
type WorkerDeps struct {
	Store   *store.Store
	Cleaner *dedup.Cleaner
	Refiner Refiner
	Backup  Backup
	Log     *slog.Logger

	ParseOptions        parser.Options
	Chunk               chunker.Config
	MaxConcurrentRefine int
}

func NewWorker(d WorkerDeps) *Worker {
	if d.Cleaner == nil {
		d.Cleaner = dedup.New()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.MaxConcurrentRefine <= 0 {
		d.MaxConcurrentRefine = 1
	}
	return &Worker{
		store:               d.Store,
		cleaner:             d.Cleaner,
		refiner:             d.Refiner,
		backup:              d.Backup,
		log:                 d.Log,
		parseOpts:           d.ParseOptions,
		chunkCfg:            d.Chunk,
		maxConcurrentRefine: d.MaxConcurrentRefine,
		retry:               defaultRefinePolicy(),
	}
}

// Process runs the job to a terminal status.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind)
	if job.DraftID != "" {
		log = log.With("draft_id", job.DraftID)
	}

	switch job.Kind {
	case KindImport:
		w.runImport(ctx, job, log)
	case KindCleanup:
		w.runCleanup(ctx, job, log)
	case KindRefine:
		w.runRefine(ctx, job, log)
	default:
		job.AddError(fmt.Sprintf("unknown job kind %q", job.Kind))
		job.SetStatus(StatusFailed, "dispatch")
	}
}

func (w *Worker) runImport(ctx context.Context, job *Job, log *slog.Logger) {
	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	title, text, err := parser.ParseManuscript(bytes.NewReader(job.FileData()), job.Filename, w.parseOpts)
	job.releaseFileData()
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		title = job.Title
	}

	// Phase 2: Clean
	job.SetStatus(StatusCleaning, "cleaning")
	res := w.clean(job, text)
	hash := store.ContentHash(res.CleanedText)
	job.SetContentHash(hash)

	// Phase 2.5: Duplicate upload check
	existing, err := w.store.FindDraftByHash(ctx, hash)
	switch {
	case err == nil:
		log.Info("duplicate draft, skipping", "existing_draft_id", existing.ID)
		job.SetDraftID(existing.ID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	case !errors.Is(err, store.ErrNotFound):
		log.Warn("duplicate check failed, proceeding", "error", err)
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	d := &store.Draft{Title: title, Filename: job.Filename, Content: res.CleanedText}
	if err := w.store.CreateDraft(ctx, d); err != nil {
		log.Error("create draft failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.SetDraftID(d.ID)
	log = log.With("draft_id", d.ID)

	v, err := w.store.SaveVersion(ctx, d.ID, d.Content, ImportLabel, false)
	if err != nil {
		log.Error("save version failed", "error", err)
		job.AddError(fmt.Sprintf("version: %s", err))
	}
	versionID := ""
	if v != nil {
		versionID = v.ID
	}
	if _, err := w.store.SaveReport(ctx, d.ID, versionID, res); err != nil {
		log.Error("save report failed", "error", err)
		job.AddError(fmt.Sprintf("report: %s", err))
	}

	w.mirror(ctx, job, d, log)
	log.Info("import complete", "words", d.WordCount, "removed", res.RemovedCount)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) runCleanup(ctx context.Context, job *Job, log *slog.Logger) {
	job.SetStatus(StatusCleaning, "cleaning")
	d, err := w.store.GetDraft(ctx, job.DraftID)
	if err != nil {
		log.Error("load draft failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}

	res := w.clean(job, d.Content)
	if !w.save(ctx, job, d, res, CleanupBackupLabel, log) {
		return
	}
	log.Info("cleanup complete", "removed", res.RemovedCount)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) runRefine(ctx context.Context, job *Job, log *slog.Logger) {
	if w.refiner == nil {
		job.AddError("refinement is not configured")
		job.SetStatus(StatusFailed, "refining")
		return
	}

	job.SetStatus(StatusRefining, "refining")
	d, err := w.store.GetDraft(ctx, job.DraftID)
	if err != nil {
		log.Error("load draft failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}

	chunks := chunker.Split(d.Content, w.chunkCfg)
	job.SetTotalChunks(len(chunks))
	if len(chunks) == 0 {
		job.AddError("draft is empty")
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	log.Info("refining draft", "chunks", len(chunks))

	// Failed chunks keep their original text.
	out := make([]chunker.Chunk, len(chunks))
	copy(out, chunks)
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentRefine)
	for i, c := range chunks {
		g.Go(func() error {
			text, err := w.refineChunk(gctx, d.Title, c, log)
			if err != nil {
				log.Error("refine failed", "chunk", c.Index, "error", err)
				job.AddError(fmt.Sprintf("chunk %d: %s", c.Index, err))
				failed.Add(1)
				return nil
			}
			out[i].Text = text
			job.IncrChunksRefined()
			return nil
		})
	}
	_ = g.Wait()

	if int(failed.Load()) == len(chunks) {
		job.SetStatus(StatusFailed, "refining")
		return
	}

	job.SetStatus(StatusCleaning, "cleaning")
	res := w.clean(job, chunker.Join(out))
	if !w.save(ctx, job, d, res, RefineBackupLabel, log) {
		return
	}

	if failed.Load() > 0 {
		log.Warn("refine partially failed", "failed_chunks", failed.Load(), "chunks", len(chunks))
		job.SetStatus(StatusPartial, "done")
		return
	}
	log.Info("refine complete", "chunks", len(chunks))
	job.SetStatus(StatusCompleted, "done")
}

// refineChunk sends one chunk to the model and keeps the chunk's surrounding
// whitespace so the joined draft keeps its paragraph breaks.
func (w *Worker) refineChunk(ctx context.Context, title string, c chunker.Chunk, log *slog.Logger) (string, error) {
	body := strings.TrimSpace(c.Text)
	if body == "" {
		return c.Text, nil
	}
	lead := c.Text[:strings.Index(c.Text, body)]
	trail := c.Text[len(lead)+len(body):]

	prompt := refine.BuildChunkPrompt(title, c.Heading, body)
	refined, err := w.retry.do(ctx,
		func() (string, error) { return w.refiner.Refine(ctx, prompt) },
		func(attempt int, wait time.Duration, err error) {
			log.Warn("retryable refine error", "chunk", c.Index, "attempt", attempt, "wait", wait, "error", err)
		},
	)
	if err != nil {
		return "", err
	}
	if err := refine.ValidateRefinement(body, refined); err != nil {
		return "", err
	}
	return lead + strings.TrimSpace(refined) + trail, nil
}

func (w *Worker) clean(job *Job, text string) dedup.Result {
	found := len(w.cleaner.Sections(text))
	res := w.cleaner.Cleanup(text)
	job.SetSections(found, res.RemovedCount)
	return res
}

// save writes res back to d behind a backup version, records the report and
// mirrors the draft. It returns false when the job has failed.
func (w *Worker) save(ctx context.Context, job *Job, d *store.Draft, res dedup.Result, label string, log *slog.Logger) bool {
	if res.RemovedCount == 0 && res.CleanedText == d.Content {
		log.Info("draft unchanged")
		return true
	}

	job.SetStatus(StatusStoring, "storing")
	updated, backupVersion, err := w.store.UpdateDraftContent(ctx, d.ID, res.CleanedText, label)
	if err != nil {
		log.Error("update draft failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return false
	}
	job.SetContentHash(updated.ContentHash)

	versionID := ""
	if backupVersion != nil {
		versionID = backupVersion.ID
	}
	if _, err := w.store.SaveReport(ctx, d.ID, versionID, res); err != nil {
		log.Error("save report failed", "error", err)
		job.AddError(fmt.Sprintf("report: %s", err))
	}

	w.mirror(ctx, job, updated, log)
	return true
}

// mirror pushes d to the remote backup. Failures are recorded but do not fail
// the job.
func (w *Worker) mirror(ctx context.Context, job *Job, d *store.Draft, log *slog.Logger) {
	if w.backup == nil {
		return
	}
	if err := w.backup.PutDraft(ctx, d); err != nil {
		log.Warn("backup failed", "error", err)
		job.AddError(fmt.Sprintf("backup: %s", err))
	}
}
