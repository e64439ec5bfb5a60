package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/sift/internal/llm"
)

// Worker runs generations against the model registry.
type Worker struct {
	gen     llm.Generator
	stats   *llm.Stats
	log     *slog.Logger
	timeout time.Duration
}

func NewWorker(gen llm.Generator, stats *llm.Stats, log *slog.Logger, timeout time.Duration) *Worker {
	return &Worker{
		gen:     gen,
		stats:   stats,
		log:     log,
		timeout: timeout,
	}
}

// Process streams one generation into its job. Sections are derived once,
// on the transition back to idle.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("generation_id", job.ID, "model", job.Model)

	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	job.setCancel(cancel)
	defer job.setCancel(nil)

	if !job.Snapshot().Running() {
		log.Info("generation cancelled before start")
		return
	}

	start := time.Now()
	var firstChunk time.Duration
	onChunk := func(text string) {
		if firstChunk == 0 {
			firstChunk = time.Since(start)
		}
		job.AppendChunk(text)
	}

	var errMsg string
	llm.StreamText(runCtx, retrying{gen: w.gen, job: job, log: log}, job.Input(), job.Model,
		onChunk,
		func(msg string) { errMsg = msg },
		func() {
			snap := job.Snapshot()
			if !snap.Running() {
				log.Info("generation cancelled", "chunks", snap.Progress.Chunks)
				return
			}
			if errMsg != "" {
				log.Error("generation failed", "error", errMsg, "chunks", snap.Progress.Chunks)
				if err := job.Fail(errMsg); err != nil {
					log.Warn("state change rejected", "error", err)
				}
				return
			}
			if err := job.Complete(); err != nil {
				log.Warn("state change rejected", "error", err)
				return
			}
			if w.stats != nil {
				w.stats.Record(llm.Sample{
					Total:      time.Since(start),
					FirstChunk: firstChunk,
					Bytes:      snap.Progress.Bytes,
				})
			}
			res := job.Result()
			log.Info("generation complete",
				"chunks", snap.Progress.Chunks,
				"bytes", snap.Progress.Bytes,
				"sections", len(res.Cards),
				"tables", res.Tables,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		},
	)
}

// retrying wraps a generator with backoff on retryable errors. A retry is
// only attempted while the job has produced no output, since replaying a
// partially delivered stream would duplicate text.
type retrying struct {
	gen llm.Generator
	job *Job
	log *slog.Logger
}

func (r retrying) Stream(ctx context.Context, req llm.Request, onChunk func(string)) error {
	var lastErr error
	for attempt := range MaxRetries {
		r.job.RecordAttempt()
		lastErr = r.gen.Stream(ctx, req, onChunk)
		if lastErr == nil || !IsRetryable(lastErr) || r.job.HasOutput() || ctx.Err() != nil {
			return lastErr
		}
		if attempt == MaxRetries-1 {
			break
		}
		r.log.Warn("retryable generation error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
