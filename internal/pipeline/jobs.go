package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobKind selects what a worker does with a job.
type JobKind string

const (
	KindImport  JobKind = "import"
	KindCleanup JobKind = "cleanup"
	KindRefine  JobKind = "refine"
)

// JobStatus represents the state of a draft job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusCleaning   JobStatus = "cleaning"
	StatusRefining   JobStatus = "refining"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single import, cleanup or refine run.
type Job struct {
	mu sync.Mutex

	ID      string  `json:"job_id"`
	Kind    JobKind `json:"kind"`
	DraftID string  `json:"draft_id,omitempty"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename,omitempty"`
	Title    string    `json:"title,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	SectionsFound   int      `json:"sections_found"`
	SectionsRemoved int      `json:"sections_removed"`
	ChunksTotal     int      `json:"chunks_total"`
	ChunksRefined   int      `json:"chunks_refined"`
	Errors          []string `json:"errors"`
}

// NewJob returns a queued job of the given kind.
func NewJob(kind JobKind) *Job {
	now := time.Now()
	return &Job{
		ID:        newJobID(),
		Kind:      kind,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs that have not changed for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetDraftID binds the job to the draft it created or found.
func (j *Job) SetDraftID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DraftID = id
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the imported text.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

// SetSections records how many sections a cleanup saw and removed.
func (j *Job) SetSections(found, removed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsFound = found
	j.Progress.SectionsRemoved = removed
	j.UpdatedAt = time.Now()
}

// SetTotalChunks records total chunk count.
func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksTotal = n
	j.UpdatedAt = time.Now()
}

// IncrChunksRefined atomically increments the refined chunk count.
func (j *Job) IncrChunksRefined() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksRefined++
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw upload bytes for an import.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Kind        JobKind   `json:"kind"`
	DraftID     string    `json:"draft_id,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename,omitempty"`
	Title       string    `json:"title,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Kind:        j.Kind,
		DraftID:     j.DraftID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		ContentHash: j.ContentHash,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
