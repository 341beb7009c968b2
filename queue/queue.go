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
	"log/slog"
	"time"

	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

// Queue names used by the enrichment system.
const (
	// ContentProcessing carries jobs that run the enrichment pipeline on a
	// freshly saved content item.
	ContentProcessing = "content-processing"

	// ClusterSummary carries jobs that regenerate a cluster's synthesized
	// summary.
	ClusterSummary = "cluster-summary"
)

// Queue is a named view over the persistent job store. It is cheap to
// construct; all state lives in the store.
type Queue struct {
	name   string
	store  storage.JobStore
	logger *slog.Logger
}

// New creates a queue handle for the named queue.
func New(name string, store storage.JobStore) *Queue {
	return &Queue{
		name:   name,
		store:  store,
		logger: slog.Default().With("component", "queue", "queue", name),
	}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue persists a job and returns its ID. The job is durable before
// Enqueue returns.
func (q *Queue) Enqueue(ctx context.Context, payload []byte, priority core.Priority) (core.ID, error) {
	id, err := q.store.Enqueue(ctx, q.name, payload, priority)
	if err != nil {
		return 0, err
	}
	q.logger.Debug("enqueued job", "job_id", id, "priority", priority.String())
	return id, nil
}

// Dequeue atomically removes and returns the next job, or nil when empty.
func (q *Queue) Dequeue(ctx context.Context) (*core.Job, error) {
	return q.store.Dequeue(ctx, q.name)
}

// MarkCompleted records a successful terminal outcome for a job.
// Repeated marks overwrite and are therefore idempotent.
func (q *Queue) MarkCompleted(ctx context.Context, jobID core.ID, detail string) error {
	return q.store.SetJobStatus(ctx, &core.JobStatusRecord{
		JobId:     jobID,
		State:     core.JobCompleted,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}

// MarkFailed records a failed terminal outcome for a job. Failure is
// terminal; nothing re-enqueues the job.
func (q *Queue) MarkFailed(ctx context.Context, jobID core.ID, detail string) error {
	return q.store.SetJobStatus(ctx, &core.JobStatusRecord{
		JobId:     jobID,
		State:     core.JobFailed,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}

// Status returns the state of a job and its detail string. A job with no
// terminal record reads as pending: callers cannot distinguish queued,
// running, and expired-record jobs.
func (q *Queue) Status(ctx context.Context, jobID core.ID) (core.JobState, string, error) {
	record, err := q.store.GetJobStatus(ctx, jobID)
	if err != nil {
		return core.JobUnknown, "", err
	}
	if record == nil {
		return core.JobPending, "", nil
	}
	return record.State, record.Detail, nil
}

// Depths returns the number of waiting jobs per priority.
func (q *Queue) Depths(ctx context.Context) (map[core.Priority]int, error) {
	return q.store.QueueDepths(ctx, q.name)
}
