package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/curator/ai/mock"
	"github.com/poiesic/curator/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReembedderRun(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)
	ctx := context.Background()

	stale := []float32{0.5, 0.5}
	a := addCompletedItem(t, store, owner, "https://example.com/a", stale)
	b := addCompletedItem(t, store, owner, "https://example.com/b", stale)

	cl := &core.Cluster{OwnerId: owner, Name: "Topic"}
	cl, err := store.AddCluster(ctx, cl)
	require.NoError(t, err)
	for _, id := range []core.ID{a.Id, b.Id} {
		err := store.UpsertEdge(ctx, &core.MembershipEdge{
			ClusterId: cl.Id, ContentId: id, SimilarityScore: 1.0, IsPrimary: true,
		})
		require.NoError(t, err)
	}

	embedder := mock.NewMockEmbedder()
	var output bytes.Buffer
	config := &Config{BatchSize: 10, ReportInterval: 1, MaxRetries: 2, RetryDelay: time.Millisecond}

	reembedder := NewReembedder(store, store, embedder, config, &output)
	require.NoError(t, reembedder.Run(ctx, owner))

	// Items carry fresh vectors, distinct per item
	after, err := store.GetContentItem(ctx, a.Id)
	require.NoError(t, err)
	assert.NotEqual(t, stale, after.Embedding)
	assert.Len(t, after.Embedding, 384)

	// Cluster centroid recomputed from the new vectors
	freshCluster, err := store.GetCluster(ctx, cl.Id)
	require.NoError(t, err)
	assert.Len(t, freshCluster.Embedding, 384)

	assert.Contains(t, output.String(), "Reembedding complete")
	assert.Greater(t, embedder.CallCount(), 0)
}

func TestReembedderEmbedsBodyText(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)

	item := addCompletedItem(t, store, owner, "https://example.com/a", []float32{1, 0})

	embedder := mock.NewMockEmbedder()
	var captured []string
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		captured = texts
		return [][]float32{{1, 0, 0}}, nil
	}
	config := &Config{BatchSize: 10, ReportInterval: 1, MaxRetries: 1, RetryDelay: time.Millisecond}

	var output bytes.Buffer
	reembedder := NewReembedder(store, store, embedder, config, &output)
	require.NoError(t, reembedder.Run(context.Background(), owner))

	// Same input text the enrichment pipeline embeds: the body, nothing else.
	require.Len(t, captured, 1)
	assert.Equal(t, item.FullText, captured[0])
}

func TestReembedderRunEmptyOwner(t *testing.T) {
	store := newTestStore(t)
	var output bytes.Buffer

	reembedder := NewReembedder(store, store, mock.NewMockEmbedder(), nil, &output)
	require.NoError(t, reembedder.Run(context.Background(), 99))
	assert.Contains(t, output.String(), "No processed items")
}

func TestReembedderRunEmbedderFailure(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)

	addCompletedItem(t, store, owner, "https://example.com/a", []float32{1, 0})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("host unreachable")
	}
	config := &Config{BatchSize: 10, ReportInterval: 1, MaxRetries: 2, RetryDelay: time.Millisecond}

	var output bytes.Buffer
	reembedder := NewReembedder(store, store, embedder, config, &output)
	err := reembedder.Run(context.Background(), owner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host unreachable")
}
