package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/draftroom/internal/chunker"
	"github.com/dgallion1/draftroom/internal/config"
	"github.com/dgallion1/draftroom/internal/dedup"
	"github.com/dgallion1/draftroom/internal/parser"
	"github.com/dgallion1/draftroom/internal/store"
)

// Orchestrator manages the draft job pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	deps  WorkerDeps
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. refiner and backup may be nil.
func NewOrchestrator(cfg config.Config, st *store.Store, cleaner *dedup.Cleaner, refiner Refiner, backup Backup, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		log:   log,
		cfg:   cfg,
		deps: WorkerDeps{
			Store:               st,
			Cleaner:             cleaner,
			Refiner:             refiner,
			Backup:              backup,
			Log:                 log,
			ParseOptions:        parser.Options{PDFFallback: cfg.PDFFallbackPdftotext},
			Chunk:               chunker.Config{ChunkSize: cfg.RefineChunkSize},
			MaxConcurrentRefine: cfg.MaxConcurrentRefine,
		},
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.deps)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// RefineEnabled reports whether refine jobs can run.
func (o *Orchestrator) RefineEnabled() bool {
	return o.deps.Refiner != nil
}
