package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobScraper/internal/domain"
	"JobScraper/pkg/logging"
)

type blockingRunner struct {
	release chan struct{}
	running atomic.Int32
	peak    atomic.Int32
	done    atomic.Int32
	panicOn string
}

func (r *blockingRunner) Run(_ context.Context, job domain.Job) (any, error) {
	n := r.running.Add(1)
	defer r.running.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if job.ID == r.panicOn {
		panic("engine exploded")
	}
	<-r.release
	r.done.Add(1)
	if job.ID == "fails" {
		return nil, errors.New("boom")
	}
	return nil, nil
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	d := NewDispatcher(r, 2, logging.NewNop())

	for _, id := range []string{"a", "b", "c", "fails"} {
		require.NoError(t, d.Submit(domain.Job{ID: id}))
	}

	assert.Eventually(t, func() bool { return r.running.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(r.release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	assert.Equal(t, int32(4), r.done.Load())
	assert.Equal(t, int32(2), r.peak.Load())
}

func TestDispatcherRecoversPanics(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{}), panicOn: "bad"}
	close(r.release)
	d := NewDispatcher(r, 1, logging.NewNop())

	require.NoError(t, d.Submit(domain.Job{ID: "bad"}))
	require.NoError(t, d.Submit(domain.Job{ID: "good"}))

	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, int32(1), r.done.Load())
}

func TestDispatcherShutdown(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	d := NewDispatcher(r, 1, logging.NewNop())
	require.NoError(t, d.Submit(domain.Job{ID: "slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, d.Submit(domain.Job{ID: "late"}), ErrShuttingDown)

	close(r.release)
	require.NoError(t, d.Shutdown(context.Background()))
}
