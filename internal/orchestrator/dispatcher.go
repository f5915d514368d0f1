package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"JobScraper/internal/domain"
	"JobScraper/pkg/logging"
)

// JobRunner is what the Dispatcher hands admitted jobs to
type JobRunner interface {
	Run(ctx context.Context, job domain.Job) (any, error)
}

// Dispatcher runs jobs in the background, at most limit at a time. A running job
// cannot be cancelled.
type Dispatcher struct {
	runner JobRunner
	slots  chan struct{}
	wg     sync.WaitGroup
	log    *logging.Logger

	mu     sync.Mutex
	closed bool
}

var ErrShuttingDown = errors.New("dispatcher is shutting down")

func NewDispatcher(runner JobRunner, limit int, log *logging.Logger) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	return &Dispatcher{runner: runner, slots: make(chan struct{}, limit), log: log}
}

// Submit queues job and returns immediately
func (d *Dispatcher) Submit(job domain.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrShuttingDown
	}

	d.wg.Add(1)
	go d.run(job)
	return nil
}

func (d *Dispatcher) run(job domain.Job) {
	defer d.wg.Done()

	d.slots <- struct{}{}
	defer func() { <-d.slots }()

	log := d.log.With("job_id", job.ID, "action", job.Action)
	defer func() {
		if p := recover(); p != nil {
			log.Error("job panicked", "panic", p, "stack", string(debug.Stack()))
		}
	}()

	if _, err := d.runner.Run(context.Background(), job); err != nil {
		log.Error("job failed", "err", err)
		return
	}
	log.Info("job completed")
}

// Shutdown stops admitting jobs and waits for the queued ones until ctx ends
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}
