package cluster

import (
	"context"
	"testing"

	"github.com/poiesic/curator/ai/mock"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/queue"
	badgerstore "github.com/poiesic/curator/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *badgerstore.Store, *queue.Queue) {
	t.Helper()
	store, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	summaries := queue.New(queue.ClusterSummary, store)
	return NewService(store, store, summaries), store, summaries
}

func addItem(t *testing.T, store *badgerstore.Store, owner core.ID, url, title string, embedding []float32) *core.ContentItem {
	t.Helper()
	item := &core.ContentItem{
		Id:        core.ContentID(owner, url),
		OwnerId:   owner,
		URL:       url,
		Title:     title,
		Embedding: embedding,
		Status:    core.ContentCompleted,
	}
	_, err := store.AddContentItem(context.Background(), item)
	require.NoError(t, err)
	return item
}

func TestCreateWithInitialMembers(t *testing.T) {
	service, store, _ := newTestService(t)
	ctx := context.Background()
	owner := core.ID(7)

	a := addItem(t, store, owner, "https://example.com/a", "A", mock.DeterministicVector("a", 8))
	b := addItem(t, store, owner, "https://example.com/b", "B", mock.DeterministicVector("b", 8))

	cluster, err := service.Create(ctx, owner, "Topic", "desc", []core.ID{a.Id, b.Id})
	require.NoError(t, err)

	assert.Equal(t, 2, cluster.ItemCount)
	assert.NotEmpty(t, cluster.Embedding)
	assert.Greater(t, cluster.CoherenceScore, 0.0)

	details, err := service.Get(ctx, cluster.Id)
	require.NoError(t, err)
	assert.Len(t, details.Members, 2)
	for _, member := range details.Members {
		assert.True(t, member.Edge.IsPrimary)
		assert.Equal(t, 1.0, member.Edge.SimilarityScore)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Create(context.Background(), 7, "", "", nil)
	assert.ErrorIs(t, err, core.ErrInvalidCluster)
}

func TestAddContentRecomputesMetadata(t *testing.T) {
	service, store, _ := newTestService(t)
	ctx := context.Background()
	owner := core.ID(7)

	cluster, err := service.Create(ctx, owner, "Topic", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cluster.ItemCount)
	assert.Equal(t, 0.0, cluster.CoherenceScore)

	a := addItem(t, store, owner, "https://example.com/a", "A", []float32{1, 0, 0})
	cluster, err = service.AddContent(ctx, cluster.Id, a.Id, true)
	require.NoError(t, err)
	assert.Equal(t, 1, cluster.ItemCount)
	// One member: coherence stays 0, centroid is the member itself
	assert.Equal(t, 0.0, cluster.CoherenceScore)
	assert.Equal(t, []float32{1, 0, 0}, cluster.Embedding)

	b := addItem(t, store, owner, "https://example.com/b", "B", []float32{1, 0, 0})
	cluster, err = service.AddContent(ctx, cluster.Id, b.Id, false)
	require.NoError(t, err)
	assert.Equal(t, 2, cluster.ItemCount)
	assert.InDelta(t, 1.0, cluster.CoherenceScore, 1e-9)
}

func TestThirdMemberEnqueuesSummaryJob(t *testing.T) {
	service, store, summaries := newTestService(t)
	ctx := context.Background()
	owner := core.ID(7)

	cluster, err := service.Create(ctx, owner, "Topic", "", nil)
	require.NoError(t, err)

	urls := []string{"https://example.com/1", "https://example.com/2"}
	for _, url := range urls {
		item := addItem(t, store, owner, url, url, []float32{1, 0})
		_, err := service.AddContent(ctx, cluster.Id, item.Id, false)
		require.NoError(t, err)
	}

	// Below threshold: nothing queued
	job, err := summaries.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)

	third := addItem(t, store, owner, "https://example.com/3", "3", []float32{1, 0})
	_, err = service.AddContent(ctx, cluster.Id, third.Id, false)
	require.NoError(t, err)

	job, err = summaries.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, core.PriorityLow, job.Priority)
}

func TestAddContentPrimaryDemotesOtherEdges(t *testing.T) {
	service, store, _ := newTestService(t)
	ctx := context.Background()
	owner := core.ID(7)

	first, err := service.Create(ctx, owner, "First", "", nil)
	require.NoError(t, err)
	second, err := service.Create(ctx, owner, "Second", "", nil)
	require.NoError(t, err)

	item := addItem(t, store, owner, "https://example.com/a", "A", []float32{1, 0})

	_, err = service.AddContent(ctx, first.Id, item.Id, true)
	require.NoError(t, err)
	_, err = service.AddContent(ctx, second.Id, item.Id, true)
	require.NoError(t, err)

	edges, err := store.GetContentEdges(ctx, item.Id)
	require.NoError(t, err)
	require.Len(t, edges, 2)

	primaries := 0
	for _, edge := range edges {
		if edge.IsPrimary {
			primaries++
			assert.Equal(t, second.Id, edge.ClusterId)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestRemoveContentRecomputes(t *testing.T) {
	service, store, _ := newTestService(t)
	ctx := context.Background()
	owner := core.ID(7)

	a := addItem(t, store, owner, "https://example.com/a", "A", []float32{1, 0})
	b := addItem(t, store, owner, "https://example.com/b", "B", []float32{0, 1})
	cluster, err := service.Create(ctx, owner, "Topic", "", []core.ID{a.Id, b.Id})
	require.NoError(t, err)
	assert.Equal(t, 2, cluster.ItemCount)

	cluster, err = service.RemoveContent(ctx, cluster.Id, b.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, cluster.ItemCount)
	assert.Equal(t, 0.0, cluster.CoherenceScore)
}
