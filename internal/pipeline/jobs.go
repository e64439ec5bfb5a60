package pipeline

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/sift/internal/analysis"
	"github.com/google/uuid"
)

// Status is the display state of a generation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusStreaming Status = "streaming"
	StatusError     Status = "error"
)

// Job is one generation session. It owns the accumulating document.
type Job struct {
	mu sync.Mutex

	ID    string `json:"generation_id"`
	Model string `json:"model"`

	Status    Status `json:"status"`
	Document  string `json:"document"`
	Error     string `json:"error,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`

	Progress Progress `json:"progress"`

	InputHash string    `json:"input_hash"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	input   string
	doc     strings.Builder
	result  *analysis.Result
	started bool
	cancel  func()
	changed chan struct{}
}

// Progress tracks streaming progress.
type Progress struct {
	Chunks   int `json:"chunks"`
	Bytes    int `json:"bytes"`
	Attempts int `json:"attempts"`
}

// NewJob creates an idle job for input.
func NewJob(input, model string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.New().String(),
		Model:     model,
		Status:    StatusIdle,
		InputHash: ContentHashHex([]byte(input))[:16],
		CreatedAt: now,
		UpdatedAt: now,
		input:     input,
		changed:   make(chan struct{}),
	}
}

// Input returns the artifact text submitted for analysis.
func (j *Job) Input() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.input
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

// Cleanup removes expired jobs that are no longer running.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if snap.Running() {
			continue
		}
		if now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ErrInvalidTransition is returned when a state change is not allowed from
// the job's current status.
type ErrInvalidTransition struct {
	From, To Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// Start moves an idle job to loading and clears any previous document.
func (j *Job) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusIdle || j.started {
		return &ErrInvalidTransition{From: j.Status, To: StatusLoading}
	}
	j.started = true
	j.doc.Reset()
	j.Document = ""
	j.Error = ""
	j.result = nil
	j.setLocked(StatusLoading)
	return nil
}

// AppendChunk adds streamed text in arrival order. The first chunk moves the
// job from loading to streaming. Chunks arriving after the job left the
// streaming phase (cancelled, failed) are dropped.
func (j *Job) AppendChunk(text string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.Status {
	case StatusLoading:
		j.setLocked(StatusStreaming)
	case StatusStreaming:
	default:
		return false
	}
	j.doc.WriteString(text)
	j.Document = j.doc.String()
	j.Progress.Chunks++
	j.Progress.Bytes += len(text)
	j.notifyLocked()
	return true
}

// Complete freezes the document, runs section and table derivation once and
// returns the job to idle.
func (j *Job) Complete() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusLoading && j.Status != StatusStreaming {
		return &ErrInvalidTransition{From: j.Status, To: StatusIdle}
	}
	j.result = analysis.Analyze(j.Document)
	j.setLocked(StatusIdle)
	return nil
}

// Fail records a generation error. The partial document is kept as-is and is
// not parsed.
func (j *Job) Fail(msg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusLoading && j.Status != StatusStreaming {
		return &ErrInvalidTransition{From: j.Status, To: StatusError}
	}
	j.Error = msg
	j.setLocked(StatusError)
	return nil
}

// Cancel stops a running generation, discards partial output and returns
// the job to idle.
func (j *Job) Cancel() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusLoading && j.Status != StatusStreaming {
		return &ErrInvalidTransition{From: j.Status, To: StatusIdle}
	}
	if j.cancel != nil {
		j.cancel()
	}
	j.doc.Reset()
	j.Document = ""
	j.Cancelled = true
	j.setLocked(StatusIdle)
	return nil
}

// RecordAttempt counts an upstream call.
func (j *Job) RecordAttempt() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attempts++
	j.UpdatedAt = time.Now()
}

// HasOutput reports whether any chunk has been received.
func (j *Job) HasOutput() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Progress.Chunks > 0
}

// setCancel installs the function that aborts the upstream stream.
func (j *Job) setCancel(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = fn
}

// Result returns the derived sections, or nil before completion.
func (j *Job) Result() *analysis.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Changed returns a channel closed on the next state or document change.
func (j *Job) Changed() <-chan struct{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.changed
}

func (j *Job) setLocked(s Status) {
	j.Status = s
	j.UpdatedAt = time.Now()
	j.notifyLocked()
}

func (j *Job) notifyLocked() {
	close(j.changed)
	j.changed = make(chan struct{})
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"generation_id"`
	Model     string    `json:"model"`
	Status    Status    `json:"status"`
	Document  string    `json:"document"`
	Error     string    `json:"error,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Parsed    bool      `json:"parsed"`
	Progress  Progress  `json:"progress"`
	InputHash string    `json:"input_hash"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Running reports whether the generation is still in flight.
func (s JobSnapshot) Running() bool {
	return s.Status == StatusLoading || s.Status == StatusStreaming
}

// Finished reports whether the generation reached a terminal state.
func (s JobSnapshot) Finished() bool {
	return s.Status == StatusError || (s.Status == StatusIdle && (s.Parsed || s.Cancelled))
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		Model:     j.Model,
		Status:    j.Status,
		Document:  j.Document,
		Error:     j.Error,
		Cancelled: j.Cancelled,
		Parsed:    j.result != nil,
		Progress:  j.Progress,
		InputHash: j.InputHash,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
