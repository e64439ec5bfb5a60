package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/sift/internal/config"
	"github.com/dgallion1/sift/internal/llm"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("generation queue is full")
	// ErrNotRunning is returned by Cancel for a generation that already ended.
	ErrNotRunning = errors.New("generation is not running")
	// ErrNotFound is returned for unknown generation ids.
	ErrNotFound = errors.New("generation not found")
)

// Orchestrator owns generation jobs and the workers that stream them.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	gen   llm.Generator
	stats *llm.Stats
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, gen llm.Generator, stats *llm.Stats, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		gen:   gen,
		stats: stats,
		log:   log,
		cfg:   cfg,
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
			w := NewWorker(o.gen, o.stats, o.log, o.cfg.GenerationTimeout)
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

// Submit registers a job, moves it to loading and queues it.
func (o *Orchestrator) Submit(job *Job) error {
	if err := job.Start(); err != nil {
		return err
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		_ = job.Fail(ErrQueueFull.Error())
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Cancel aborts a running generation and discards its partial output.
func (o *Orchestrator) Cancel(id string) error {
	job := o.jobs.Get(id)
	if job == nil {
		return ErrNotFound
	}
	if err := job.Cancel(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	o.log.Info("generation cancel requested", "generation_id", id)
	return nil
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
