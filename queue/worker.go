// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/curator/core"
)

const (
	// defaultPollInterval is how long a worker sleeps after finding its
	// queue empty.
	defaultPollInterval = 5 * time.Second

	// maxPollInterval caps the backoff applied after store errors.
	maxPollInterval = 5 * time.Minute
)

// ProcessFunc handles a single dequeued job. It returns a human-readable
// detail string recorded with the job's terminal status, and an error when
// the job failed.
type ProcessFunc func(ctx context.Context, job *core.Job) (string, error)

// Worker drains one queue in a polling loop. Each worker owns exactly one
// queue and one process func; run several workers for several queues.
//
// The stop signal is observed only between jobs: once a job is handed to the
// process func it runs to completion on an uncancelable context, so shutdown
// never leaves a job half-processed without a terminal status.
type Worker struct {
	queue    *Queue
	process  ProcessFunc
	interval time.Duration
	logger   *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithPollInterval sets the idle poll interval.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) {
		w.interval = interval
	}
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a worker for the given queue.
func NewWorker(queue *Queue, process ProcessFunc, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:    queue,
		process:  process,
		interval: defaultPollInterval,
		logger:   slog.Default().With("component", "worker", "queue", queue.Name()),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls the queue until ctx is canceled. Store errors back the poll
// interval off exponentially; the next successful poll resets it.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", "poll_interval", w.interval)

	interval := w.interval
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			interval = min(interval*2, maxPollInterval)
			w.logger.Error("dequeue failed, backing off", "err", err, "next_poll", interval)
			if !w.sleep(ctx, interval) {
				w.logger.Info("worker stopped")
				return
			}
			continue
		}
		interval = w.interval

		if job == nil {
			if !w.sleep(ctx, interval) {
				w.logger.Info("worker stopped")
				return
			}
			continue
		}

		w.handle(ctx, job)
	}
}

// handle runs one job to completion and records its terminal status.
// The job runs detached from the loop's cancellation.
func (w *Worker) handle(ctx context.Context, job *core.Job) {
	jobCtx := context.WithoutCancel(ctx)
	start := time.Now()

	detail, err := w.runProcess(jobCtx, job)
	if err != nil {
		w.logger.Warn("job failed",
			"job_id", job.Id,
			"duration", time.Since(start),
			"err", err)
		if markErr := w.queue.MarkFailed(jobCtx, job.Id, err.Error()); markErr != nil {
			w.logger.Error("failed to mark job failed", "job_id", job.Id, "err", markErr)
		}
		return
	}

	w.logger.Info("job completed",
		"job_id", job.Id,
		"duration", time.Since(start))
	if markErr := w.queue.MarkCompleted(jobCtx, job.Id, detail); markErr != nil {
		w.logger.Error("failed to mark job completed", "job_id", job.Id, "err", markErr)
	}
}

// runProcess invokes the process func, converting a panic into a job failure
// so one bad job cannot take down the worker loop.
func (w *Worker) runProcess(ctx context.Context, job *core.Job) (detail string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return w.process(ctx, job)
}

// sleep waits for the given duration. Returns false if ctx was canceled.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
