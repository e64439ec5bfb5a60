package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/sift/internal/config"
	"github.com/dgallion1/sift/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	errs   []error  // error returned on call n, nil past the end
	chunks []string // emitted on every successful call
	block  chan struct{}
}

func (f *fakeGenerator) Stream(ctx context.Context, req llm.Request, onChunk func(string)) error {
	f.mu.Lock()
	n := f.calls
	f.calls++
	f.mu.Unlock()

	if n < len(f.errs) && f.errs[n] != nil {
		return f.errs[n]
	}
	for _, c := range f.chunks {
		onChunk(c)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startedJob(t *testing.T) *Job {
	t.Helper()
	job := NewJob("artifact", "m")
	require.NoError(t, job.Start())
	return job
}

func TestWorker_ProcessCompletes(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"## Summary\n", "fine\n"}}
	stats := llm.NewStats(time.Hour)
	w := NewWorker(gen, stats, discardLogger(), time.Minute)

	job := startedJob(t)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.Parsed)
	assert.Equal(t, "## Summary\nfine\n", snap.Document)
	assert.Equal(t, 1, snap.Progress.Attempts)
	assert.Equal(t, 1, stats.Snapshot().Count)
}

func TestWorker_RetriesBeforeFirstChunk(t *testing.T) {
	old := BackoffBase
	BackoffBase = time.Millisecond
	defer func() { BackoffBase = old }()

	gen := &fakeGenerator{
		errs:   []error{&llm.RetryableError{StatusCode: 503, Message: "busy"}},
		chunks: []string{"ok"},
	}
	w := NewWorker(gen, nil, discardLogger(), time.Minute)

	job := startedJob(t)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, "ok", snap.Document)
	assert.Equal(t, 2, gen.Calls())
	assert.Equal(t, 2, snap.Progress.Attempts)
}

func TestWorker_RetryGivesUp(t *testing.T) {
	old := BackoffBase
	BackoffBase = time.Millisecond
	defer func() { BackoffBase = old }()

	busy := &llm.RetryableError{StatusCode: 503, Message: "busy"}
	gen := &fakeGenerator{errs: []error{busy, busy, busy, busy}}
	w := NewWorker(gen, nil, discardLogger(), time.Minute)

	job := startedJob(t)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusError, snap.Status)
	assert.Equal(t, MaxRetries, gen.Calls())
	assert.True(t, strings.HasPrefix(snap.Error, llm.ErrorPrefix), snap.Error)
}

func TestWorker_NonRetryableFailsImmediately(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("bad request")}}
	w := NewWorker(gen, nil, discardLogger(), time.Minute)

	job := startedJob(t)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusError, snap.Status)
	assert.Equal(t, 1, gen.Calls())
	assert.Equal(t, "Failed to generate analysis. Error: bad request", snap.Error)
}

func TestWorker_SkipsCancelledJob(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"x"}}
	w := NewWorker(gen, nil, discardLogger(), time.Minute)

	job := startedJob(t)
	_ = job.Cancel()
	w.Process(context.Background(), job)

	assert.Zero(t, gen.Calls())
}

func testConfig() config.Config {
	return config.Config{
		WorkerCount:       1,
		MaxQueueSize:      1,
		GenerationTimeout: time.Minute,
		JobTTL:            time.Hour,
	}
}

func waitFor(t *testing.T, job *Job, cond func(JobSnapshot) bool) JobSnapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		ch := job.Changed()
		snap := job.Snapshot()
		if cond(snap) {
			return snap
		}
		select {
		case <-ch:
		case <-deadline:
			require.FailNow(t, "timed out waiting", "last snapshot %+v", snap)
		}
	}
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"## ✅ Verified Facts\n| k | v |\n|---|---|\n| a | 1 |\n"}}
	o := NewOrchestrator(testConfig(), gen, llm.NewStats(time.Hour), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("artifact", "m")
	require.NoError(t, o.Submit(job))
	require.Same(t, job, o.GetJob(job.ID))

	snap := waitFor(t, job, func(s JobSnapshot) bool { return s.Finished() })
	require.Equal(t, StatusIdle, snap.Status)
	res := job.Result()
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Tables)
}

func TestOrchestrator_Cancel(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"partial"}, block: make(chan struct{})}
	o := NewOrchestrator(testConfig(), gen, nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("artifact", "m")
	require.NoError(t, o.Submit(job))
	waitFor(t, job, func(s JobSnapshot) bool { return s.Status == StatusStreaming })

	require.NoError(t, o.Cancel(job.ID))
	snap := job.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.True(t, snap.Cancelled)
	assert.Empty(t, snap.Document)

	assert.ErrorIs(t, o.Cancel(job.ID), ErrNotRunning)
	assert.ErrorIs(t, o.Cancel("missing"), ErrNotFound)
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// No workers started, so the single queue slot fills up.
	o := NewOrchestrator(testConfig(), &fakeGenerator{}, nil, discardLogger())

	require.NoError(t, o.Submit(NewJob("a", "m")))
	overflow := NewJob("b", "m")
	require.ErrorIs(t, o.Submit(overflow), ErrQueueFull)
	assert.Equal(t, StatusError, overflow.Snapshot().Status)
	assert.Equal(t, 1, o.QueueDepth())
}
