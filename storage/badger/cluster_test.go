package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

func TestClusterBasics(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	cluster := &core.Cluster{
		OwnerId:     core.ID(7),
		Name:        "Machine Learning",
		Description: "Saved ML articles",
	}

	added, err := store.AddCluster(ctx, cluster)
	if err != nil {
		t.Fatalf("Failed to add cluster: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero cluster ID")
	}

	retrieved, err := store.GetCluster(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get cluster: %v", err)
	}
	if retrieved.Name != "Machine Learning" {
		t.Fatalf("Expected 'Machine Learning', got %q", retrieved.Name)
	}

	retrieved.ItemCount = 4
	retrieved.CoherenceScore = 0.82
	if _, err := store.UpdateCluster(ctx, retrieved); err != nil {
		t.Fatalf("Failed to update cluster: %v", err)
	}
	again, err := store.GetCluster(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to re-get cluster: %v", err)
	}
	if again.ItemCount != 4 || again.CoherenceScore != 0.82 {
		t.Fatalf("Update not persisted: %+v", again)
	}
}

func TestGetClustersByOwner(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	for _, name := range []string{"Topic A", "Topic B"} {
		if _, err := store.AddCluster(ctx, &core.Cluster{OwnerId: 7, Name: name}); err != nil {
			t.Fatalf("Failed to add cluster %s: %v", name, err)
		}
	}
	if _, err := store.AddCluster(ctx, &core.Cluster{OwnerId: 8, Name: "Other"}); err != nil {
		t.Fatalf("Failed to add other-owner cluster: %v", err)
	}

	clusters, err := store.GetClustersByOwner(ctx, 7)
	if err != nil {
		t.Fatalf("GetClustersByOwner failed: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(clusters))
	}
}

func TestEdgeUpsertAndDemote(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	contentID := core.ID(100)
	clusterA, _ := store.AddCluster(ctx, &core.Cluster{OwnerId: 7, Name: "A"})
	clusterB, _ := store.AddCluster(ctx, &core.Cluster{OwnerId: 7, Name: "B"})

	err = store.UpsertEdge(ctx, &core.MembershipEdge{
		ContentId:       contentID,
		ClusterId:       clusterA.Id,
		SimilarityScore: 1.0,
		IsPrimary:       true,
		AddedAt:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to upsert edge: %v", err)
	}

	// Upsert for the same pair replaces, not duplicates
	err = store.UpsertEdge(ctx, &core.MembershipEdge{
		ContentId:       contentID,
		ClusterId:       clusterA.Id,
		SimilarityScore: 0.8,
		IsPrimary:       true,
	})
	if err != nil {
		t.Fatalf("Failed to re-upsert edge: %v", err)
	}

	edges, err := store.GetContentEdges(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContentEdges failed: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("Expected 1 edge after upsert, got %d", len(edges))
	}
	if edges[0].SimilarityScore != 0.8 {
		t.Fatalf("Expected replaced score 0.8, got %f", edges[0].SimilarityScore)
	}

	err = store.UpsertEdge(ctx, &core.MembershipEdge{
		ContentId:       contentID,
		ClusterId:       clusterB.Id,
		SimilarityScore: 0.8,
	})
	if err != nil {
		t.Fatalf("Failed to upsert second edge: %v", err)
	}

	if err := store.DemotePrimaryEdges(ctx, contentID); err != nil {
		t.Fatalf("DemotePrimaryEdges failed: %v", err)
	}
	edges, err = store.GetContentEdges(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContentEdges failed: %v", err)
	}
	for _, edge := range edges {
		if edge.IsPrimary {
			t.Fatalf("Expected no primary edges after demote, found cluster %d", edge.ClusterId)
		}
	}
}

func TestDeleteClusterRemovesEdges(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	cluster, _ := store.AddCluster(ctx, &core.Cluster{OwnerId: 7, Name: "Doomed"})
	contentID := core.ID(100)

	err = store.UpsertEdge(ctx, &core.MembershipEdge{
		ContentId: contentID,
		ClusterId: cluster.Id,
	})
	if err != nil {
		t.Fatalf("Failed to upsert edge: %v", err)
	}

	if err := store.DeleteCluster(ctx, cluster.Id); err != nil {
		t.Fatalf("DeleteCluster failed: %v", err)
	}

	if _, err := store.GetCluster(ctx, cluster.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	edges, err := store.GetContentEdges(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContentEdges failed: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("Expected no edges after cluster delete, got %d", len(edges))
	}
}

func TestSuggestionCache(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	contentID := core.ID(42)

	// A miss is nil, not an error
	cached, err := store.GetSuggestions(ctx, contentID)
	if err != nil {
		t.Fatalf("GetSuggestions failed: %v", err)
	}
	if cached != nil {
		t.Fatalf("Expected nil on cache miss, got %v", cached)
	}

	suggestions := []core.Suggestion{
		{ClusterId: 1, Name: "Machine Learning", Confidence: 0.91, ItemCount: 5},
		{ClusterId: 0, Name: "New Topic", Confidence: 0.5, IsNew: true},
	}
	if err := store.PutSuggestions(ctx, contentID, suggestions, time.Hour); err != nil {
		t.Fatalf("PutSuggestions failed: %v", err)
	}

	cached, err = store.GetSuggestions(ctx, contentID)
	if err != nil {
		t.Fatalf("GetSuggestions failed: %v", err)
	}
	if len(cached) != 2 {
		t.Fatalf("Expected 2 cached suggestions, got %d", len(cached))
	}
	if cached[0].Name != "Machine Learning" || !cached[1].IsNew {
		t.Fatalf("Cache round trip mangled suggestions: %+v", cached)
	}
}
