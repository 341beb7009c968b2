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


package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/enrich"
	"github.com/poiesic/curator/queue"
	"github.com/poiesic/curator/storage"
)

// SaveResult pairs the saved item with the processing job tracking it.
type SaveResult struct {
	Item  *core.ContentItem
	JobId core.ID
}

// JobStatus reports enrichment progress for a saved item. Suggestions are
// populated only once the job has completed and the cache entry is still
// alive.
type JobStatus struct {
	State       core.JobState
	Detail      string
	Suggestions []core.Suggestion
}

// Service is the entry point for saving URLs. Saves return immediately;
// the enrichment pipeline catches up through the content-processing queue.
type Service struct {
	contents storage.ContentRepository
	cache    storage.SuggestionCache
	jobs     *queue.Queue
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates an intake service. jobs must be the
// content-processing queue.
func NewService(contents storage.ContentRepository, cache storage.SuggestionCache, jobs *queue.Queue, opts ...Option) *Service {
	s := &Service{
		contents: contents,
		cache:    cache,
		jobs:     jobs,
		logger:   slog.Default().With("component", "intake"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save registers a URL for an owner and enqueues a high-priority
// enrichment job. The returned item is in pending state with the URL as a
// placeholder title. Saving a URL the owner already has returns
// core.ErrDuplicateContent.
func (s *Service) Save(ctx context.Context, ownerID core.ID, url string) (*SaveResult, error) {
	if err := core.ValidateURL(url); err != nil {
		return nil, err
	}

	item := &core.ContentItem{
		Id:      core.ContentID(ownerID, url),
		OwnerId: ownerID,
		URL:     url,
		Title:   url,
		Status:  core.ContentPending,
	}
	item, err := s.contents.AddContentItem(ctx, item)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateContent, url)
		}
		return nil, err
	}

	jobID, err := s.enqueue(ctx, item, core.PriorityHigh)
	if err != nil {
		return nil, err
	}

	s.logger.Info("saved content", "content_id", item.Id, "owner_id", ownerID, "job_id", jobID)
	return &SaveResult{Item: item, JobId: jobID}, nil
}

// Status reports the state of an enrichment job. Completed jobs carry any
// cached cluster suggestions for the item.
func (s *Service) Status(ctx context.Context, jobID, contentID core.ID) (*JobStatus, error) {
	state, detail, err := s.jobs.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}

	status := &JobStatus{State: state, Detail: detail}
	if state == core.JobCompleted {
		suggestions, err := s.cache.GetSuggestions(ctx, contentID)
		if err != nil {
			s.logger.Warn("failed to read cached suggestions", "content_id", contentID, "err", err)
		} else {
			status.Suggestions = suggestions
		}
	}
	return status, nil
}

// Reprocess resets an item to pending and enqueues a fresh enrichment job
// at normal priority. Used when a previous run failed or the source page
// has changed.
func (s *Service) Reprocess(ctx context.Context, contentID core.ID) (core.ID, error) {
	item, err := s.contents.GetContentItem(ctx, contentID)
	if err != nil {
		return 0, err
	}

	item.Status = core.ContentPending
	if item, err = s.contents.UpdateContentItem(ctx, item); err != nil {
		return 0, err
	}

	jobID, err := s.enqueue(ctx, item, core.PriorityNormal)
	if err != nil {
		return 0, err
	}
	s.logger.Info("reprocessing content", "content_id", item.Id, "job_id", jobID)
	return jobID, nil
}

// Get returns a single saved item.
func (s *Service) Get(ctx context.Context, contentID core.ID) (*core.ContentItem, error) {
	return s.contents.GetContentItem(ctx, contentID)
}

// List returns an owner's items, newest first, up to limit (0 means all).
func (s *Service) List(ctx context.Context, ownerID core.ID, limit int) ([]*core.ContentItem, error) {
	return s.contents.GetContentByOwner(ctx, ownerID, limit)
}

// Delete removes a saved item and its cluster membership edges.
func (s *Service) Delete(ctx context.Context, contentID core.ID) error {
	return s.contents.DeleteContentItem(ctx, contentID)
}

func (s *Service) enqueue(ctx context.Context, item *core.ContentItem, priority core.Priority) (core.ID, error) {
	payload, err := json.Marshal(&enrich.Request{
		OwnerId:   item.OwnerId,
		ContentId: item.Id,
		URL:       item.URL,
	})
	if err != nil {
		return 0, err
	}
	return s.jobs.Enqueue(ctx, payload, priority)
}
