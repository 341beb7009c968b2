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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/cluster"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of items to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates embeddings for an owner's content after an
// embedding model change, then recomputes cluster centroids so suggestions
// and coherence scores stay consistent with the new vectors.
type Reembedder struct {
	contents  storage.ContentRepository
	clusters  storage.ClusterRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ItemIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(contents storage.ContentRepository, clusters storage.ClusterRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(contents, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewItemIterator(contents, config.BatchSize)

	return &Reembedder{
		contents:  contents,
		clusters:  clusters,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run reembeds all of the owner's processed items and refreshes the
// owner's cluster metadata. Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context, ownerID core.ID) error {
	totalItems, err := r.iterator.Count(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}

	if totalItems == 0 {
		fmt.Fprintf(r.progress, "No processed items found for owner %d\n", ownerID)
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d items (batch size: %d)\n",
		totalItems, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalItems, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, ownerID, func(items []*core.ContentItem) error {
		if err := r.processor.Process(ctx, items); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(items)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	if err := r.refreshClusters(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to refresh clusters: %w", err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d items in %v (%.1f items/sec)\n",
		totalItems, elapsed.Round(time.Second), float64(totalItems)/elapsed.Seconds())

	return nil
}

// refreshClusters recomputes each owner cluster's centroid and coherence
// from the freshly embedded members.
func (r *Reembedder) refreshClusters(ctx context.Context, ownerID core.ID) error {
	ownerClusters, err := r.clusters.GetClustersByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	for _, cl := range ownerClusters {
		edges, err := r.clusters.GetClusterEdges(ctx, cl.Id)
		if err != nil {
			return err
		}

		memberIds := make([]core.ID, 0, len(edges))
		for _, edge := range edges {
			memberIds = append(memberIds, edge.ContentId)
		}
		members, err := r.contents.GetContentItems(ctx, memberIds...)
		if err != nil {
			return err
		}

		embeddings := make([][]float32, 0, len(members))
		for _, member := range members {
			embeddings = append(embeddings, member.Embedding)
		}

		cl.Embedding = cluster.Centroid(embeddings)
		cl.CoherenceScore = cluster.Coherence(embeddings)
		if _, err := r.clusters.UpdateCluster(ctx, cl); err != nil {
			return err
		}
	}

	return nil
}
