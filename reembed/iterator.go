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


package reembed

import (
	"context"

	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

const (
	// DefaultBatchSize is the default number of items to process in each batch
	DefaultBatchSize = 100
)

// ItemIterator iterates over an owner's processed content items in batches.
type ItemIterator struct {
	repo      storage.ContentRepository
	batchSize int
}

// NewItemIterator creates a new item iterator.
// batchSize: number of items to process in each batch (must be > 0)
func NewItemIterator(repo storage.ContentRepository, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ItemIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over the owner's completed items, calling fn for each
// batch. Items still pending, processing, or failed have nothing worth
// reembedding and are skipped. Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, ownerID core.ID, fn func([]*core.ContentItem) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := it.repo.GetContentByOwner(ctx, ownerID, 0)
	if err != nil {
		return err
	}

	completed := make([]*core.ContentItem, 0, len(items))
	for _, item := range items {
		if item.Status == core.ContentCompleted {
			completed = append(completed, item)
		}
	}

	if len(completed) == 0 {
		return nil
	}

	for i := 0; i < len(completed); i += it.batchSize {
		end := i + it.batchSize
		if end > len(completed) {
			end = len(completed)
		}

		if err := fn(completed[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}

// Count returns how many of the owner's items the iterator will visit.
func (it *ItemIterator) Count(ctx context.Context, ownerID core.ID) (int, error) {
	items, err := it.repo.GetContentByOwner(ctx, ownerID, 0)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range items {
		if item.Status == core.ContentCompleted {
			count++
		}
	}
	return count, nil
}
