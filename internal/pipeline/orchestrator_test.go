package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/dgallion1/draftroom/internal/config"
	"github.com/dgallion1/draftroom/internal/dedup"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:         2,
		MaxQueueSize:        4,
		MaxConcurrentRefine: 2,
		RefineChunkSize:     1500,
		JobTTL:              time.Hour,
	}
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := job.Snapshot(); snap.Status.Done() {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish, status %q", job.ID, job.Snapshot().Status)
	return JobSnapshot{}
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	o := NewOrchestrator(testConfig(), openTestStore(t), dedup.New(), nil, nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := importJob("story.txt", "## Chapter 1\nIt was a dark night.")
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected submitted job to be tracked")
	}

	snap := waitDone(t, job)
	if snap.Status != StatusCompleted {
		t.Errorf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.DraftID == "" {
		t.Error("expected a draft ID on the finished job")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, openTestStore(t), dedup.New(), nil, nil, discardLogger())
	defer o.Stop()

	// No workers are started, so the queue never drains.
	if err := o.Submit(NewJob(KindCleanup)); err != nil {
		t.Fatalf("expected first submit to succeed, got %v", err)
	}
	overflow := NewJob(KindCleanup)
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue full error")
	}
	if got := overflow.Snapshot().Status; got != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", got)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_RefineEnabled(t *testing.T) {
	st := openTestStore(t)
	off := NewOrchestrator(testConfig(), st, nil, nil, nil, discardLogger())
	if off.RefineEnabled() {
		t.Error("expected refine disabled without a refiner")
	}
	on := NewOrchestrator(testConfig(), st, nil, refinerFunc(func(s string) (string, error) { return s, nil }), nil, discardLogger())
	if !on.RefineEnabled() {
		t.Error("expected refine enabled with a refiner")
	}
}
