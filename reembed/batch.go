package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/enrich"
	"github.com/poiesic/curator/storage"
)

// BatchProcessor handles embedding generation for batches of content items.
type BatchProcessor struct {
	repo           storage.ContentRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ContentRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of items and updates them in the
// database. Inputs match what the enrichment pipeline embeds, and vectors
// are normalized for cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, items []*core.ContentItem) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = enrich.EmbeddingInput(item.FullText)
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(items), len(embeddings))
	}

	for i := range items {
		items[i].Embedding = NormalizeVector(embeddings[i])
		if _, err := bp.repo.UpdateContentItem(ctx, items[i]); err != nil {
			return fmt.Errorf("failed to update item %d: %w", items[i].Id, err)
		}
	}

	return nil
}
