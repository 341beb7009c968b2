package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/curator/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorkerProcessesJobs(t *testing.T) {
	q := newTestQueue(t, ContentProcessing)
	ctx := context.Background()

	var processed atomic.Int32
	worker := NewWorker(q, func(ctx context.Context, job *core.Job) (string, error) {
		processed.Add(1)
		return "ok", nil
	}, WithPollInterval(10*time.Millisecond))

	id, err := q.Enqueue(ctx, []byte("payload"), core.PriorityNormal)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		worker.Run(runCtx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool { return processed.Load() == 1 })
	waitFor(t, 2*time.Second, func() bool {
		state, _, err := q.Status(ctx, id)
		return err == nil && state == core.JobCompleted
	})

	cancel()
	<-done
}

func TestWorkerMarksFailedJobs(t *testing.T) {
	q := newTestQueue(t, ContentProcessing)
	ctx := context.Background()

	worker := NewWorker(q, func(ctx context.Context, job *core.Job) (string, error) {
		return "", errors.New("boom")
	}, WithPollInterval(10*time.Millisecond))

	id, err := q.Enqueue(ctx, nil, core.PriorityNormal)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		worker.Run(runCtx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		state, detail, err := q.Status(ctx, id)
		return err == nil && state == core.JobFailed && detail == "boom"
	})

	cancel()
	<-done

	// Failure is terminal: the job is gone from the queue
	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestWorkerSurvivesPanickingJob(t *testing.T) {
	q := newTestQueue(t, ContentProcessing)
	ctx := context.Background()

	var calls atomic.Int32
	worker := NewWorker(q, func(ctx context.Context, job *core.Job) (string, error) {
		if calls.Add(1) == 1 {
			panic("bad job")
		}
		return "ok", nil
	}, WithPollInterval(10*time.Millisecond))

	first, err := q.Enqueue(ctx, nil, core.PriorityNormal)
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, nil, core.PriorityNormal)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		worker.Run(runCtx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		firstState, _, err1 := q.Status(ctx, first)
		secondState, _, err2 := q.Status(ctx, second)
		return err1 == nil && err2 == nil &&
			firstState == core.JobFailed && secondState == core.JobCompleted
	})

	cancel()
	<-done
}

func TestManagerStartStop(t *testing.T) {
	q := newTestQueue(t, ContentProcessing)
	ctx := context.Background()

	var processed atomic.Int32
	worker := NewWorker(q, func(ctx context.Context, job *core.Job) (string, error) {
		processed.Add(1)
		return "ok", nil
	}, WithPollInterval(10*time.Millisecond))

	manager, err := NewManager(WithPoolSize(2))
	require.NoError(t, err)
	manager.Add(worker)

	_, err = q.Enqueue(ctx, nil, core.PriorityHigh)
	require.NoError(t, err)

	require.NoError(t, manager.Start(ctx))
	waitFor(t, 2*time.Second, func() bool { return processed.Load() == 1 })
	manager.Stop()

	// Starting a stopped manager again is rejected
	assert.Error(t, manager.Start(ctx))
}
