package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/curator/ai/mock"
	"github.com/poiesic/curator/core"
	badgerstore "github.com/poiesic/curator/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *badgerstore.Store {
	t.Helper()
	store, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// fixedEmbedder returns the same vector for every input.
func fixedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func addSearchItem(t *testing.T, store *badgerstore.Store, owner core.ID, url, title, body string, embedding []float32, entities []string) *core.ContentItem {
	t.Helper()
	item := &core.ContentItem{
		Id:        core.ContentID(owner, url),
		OwnerId:   owner,
		URL:       url,
		Title:     title,
		FullText:  body,
		Embedding: embedding,
		Status:    core.ContentCompleted,
		Metadata:  core.Metadata{Analysis: core.Analysis{Entities: entities}},
	}
	_, err := store.AddContentItem(context.Background(), item)
	require.NoError(t, err)
	return item
}

func TestNewSearcher(t *testing.T) {
	store := newTestStore(t)
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(store, provider)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(store, provider, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(store, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil content repository", func(t *testing.T) {
		_, err := NewSearcher(nil, provider)
		assert.Equal(t, ErrContentRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(store, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestSearchEmptyStore(t *testing.T) {
	store := newTestStore(t)
	searcher, err := NewSearcher(store, mock.NewMockProvider())
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), 7, "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSemanticRanking(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)
	ctx := context.Background()

	near := addSearchItem(t, store, owner, "https://example.com/ai", "AI article", "all about machine intelligence", []float32{0.9, 0.1, 0}, nil)
	nearest := addSearchItem(t, store, owner, "https://example.com/ml", "ML article", "all about learning machines", []float32{1, 0, 0}, nil)
	addSearchItem(t, store, owner, "https://example.com/food", "Recipes", "cooking at home", []float32{0, 0, 1}, nil)

	embedder := fixedEmbedder([]float32{1, 0, 0})
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockAnalyzer(), mock.NewMockSynthesizer())
	searcher, err := NewSearcher(store, provider)
	require.NoError(t, err)

	results, err := searcher.Search(ctx, owner, "intelligent machines", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, nearest.Id, results[0].Item.Id)
	assert.Equal(t, near.Id, results[1].Item.Id)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchEntityMatch(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)

	// Embedding far from the query vector, but entity matches.
	hit := addSearchItem(t, store, owner, "https://example.com/k8s", "Cluster ops", "notes on deployments", []float32{0, 1, 0}, []string{"Kubernetes"})
	addSearchItem(t, store, owner, "https://example.com/other", "Unrelated", "gardening", []float32{0, 0, 1}, []string{"Roses"})

	embedder := fixedEmbedder([]float32{1, 0, 0})
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockAnalyzer(), mock.NewMockSynthesizer())
	searcher, err := NewSearcher(store, provider)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), owner, "kubernetes scaling", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, hit.Id, results[0].Item.Id)
	assert.InDelta(t, 1.2, results[0].Score, 1e-6)
}

func TestSearchVerbatimBoost(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)

	boosted := addSearchItem(t, store, owner, "https://example.com/a", "Go generics guide", "a guide to generics in Go", []float32{1, 0, 0}, nil)
	plain := addSearchItem(t, store, owner, "https://example.com/b", "Type parameters", "parametric polymorphism notes", []float32{1, 0, 0}, nil)

	embedder := fixedEmbedder([]float32{1, 0, 0})
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockAnalyzer(), mock.NewMockSynthesizer())
	searcher, err := NewSearcher(store, provider)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), owner, "generics guide", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, boosted.Id, results[0].Item.Id)
	assert.Equal(t, plain.Id, results[1].Item.Id)
	assert.InDelta(t, 0.3, results[0].Score-results[1].Score, 1e-6)
}

func TestSearchSkipsUnprocessedItems(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)
	ctx := context.Background()

	pending := &core.ContentItem{
		Id:      core.ContentID(owner, "https://example.com/pending"),
		OwnerId: owner,
		URL:     "https://example.com/pending",
		Title:   "Pending",
		Status:  core.ContentPending,
	}
	_, err := store.AddContentItem(ctx, pending)
	require.NoError(t, err)

	embedder := fixedEmbedder([]float32{1, 0, 0})
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockAnalyzer(), mock.NewMockSynthesizer())
	searcher, err := NewSearcher(store, provider)
	require.NoError(t, err)

	results, err := searcher.Search(ctx, owner, "pending", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchHonorsMaxHits(t *testing.T) {
	store := newTestStore(t)
	owner := core.ID(7)

	for _, url := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		addSearchItem(t, store, owner, url, url, "same content", []float32{1, 0, 0}, nil)
	}

	embedder := fixedEmbedder([]float32{1, 0, 0})
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockAnalyzer(), mock.NewMockSynthesizer())
	searcher, err := NewSearcher(store, provider)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), owner, "same content", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
