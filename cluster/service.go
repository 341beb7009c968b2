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


package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/queue"
	"github.com/poiesic/curator/storage"
)

const (
	// primaryScore is the similarity recorded for explicit primary membership.
	primaryScore = 1.0

	// secondaryScore is the similarity recorded for explicit secondary membership.
	secondaryScore = 0.8

	// summaryThreshold is the member count at which a summary job is enqueued.
	summaryThreshold = 3
)

// Member pairs a content item with its membership edge, for detail views.
type Member struct {
	Item *core.ContentItem
	Edge *core.MembershipEdge
}

// Details is a cluster with its resolved membership.
type Details struct {
	Cluster *core.Cluster
	Members []Member
}

// Service manages clusters and their membership. Every membership change
// recomputes the cluster's item count, coherence score, and centroid
// embedding in full.
type Service struct {
	clusters  storage.ClusterRepository
	contents  storage.ContentRepository
	summaries *queue.Queue
	logger    *slog.Logger
}

// NewService creates a cluster service. The summaries queue receives
// low-priority regeneration jobs and may be nil in read-only contexts.
func NewService(clusters storage.ClusterRepository, contents storage.ContentRepository, summaries *queue.Queue) *Service {
	return &Service{
		clusters:  clusters,
		contents:  contents,
		summaries: summaries,
		logger:    slog.Default().With("component", "cluster-service"),
	}
}

// Create makes a new cluster, optionally seeding it with initial members.
// Initial members get primary edges with similarity 1.0.
func (s *Service) Create(ctx context.Context, ownerID core.ID, name, description string, memberIDs []core.ID) (*core.Cluster, error) {
	cluster := &core.Cluster{
		OwnerId:     ownerID,
		Name:        name,
		Description: description,
	}
	if err := core.ValidateCluster(cluster); err != nil {
		return nil, err
	}

	cluster, err := s.clusters.AddCluster(ctx, cluster)
	if err != nil {
		return nil, err
	}

	for _, contentID := range memberIDs {
		edge := &core.MembershipEdge{
			ContentId:       contentID,
			ClusterId:       cluster.Id,
			SimilarityScore: primaryScore,
			IsPrimary:       true,
			AddedAt:         time.Now().UTC(),
		}
		if err := s.clusters.UpsertEdge(ctx, edge); err != nil {
			return nil, err
		}
	}

	if len(memberIDs) > 0 {
		if cluster, err = s.refreshMetadata(ctx, cluster.Id); err != nil {
			return nil, err
		}
	}

	s.logger.Info("created cluster", "cluster_id", cluster.Id, "owner_id", ownerID, "members", len(memberIDs))
	return cluster, nil
}

// List returns all clusters of an owner.
func (s *Service) List(ctx context.Context, ownerID core.ID) ([]*core.Cluster, error) {
	return s.clusters.GetClustersByOwner(ctx, ownerID)
}

// Get returns a cluster with its member content items and edge fields.
func (s *Service) Get(ctx context.Context, clusterID core.ID) (*Details, error) {
	cluster, err := s.clusters.GetCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	members, err := s.loadMembers(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	return &Details{Cluster: cluster, Members: members}, nil
}

// Delete removes a cluster and its membership edges. Content items are
// untouched.
func (s *Service) Delete(ctx context.Context, clusterID core.ID) error {
	if err := s.clusters.DeleteCluster(ctx, clusterID); err != nil {
		return err
	}
	s.logger.Info("deleted cluster", "cluster_id", clusterID)
	return nil
}

// AddContent adds a content item to a cluster. A primary add demotes the
// item's other primary edges first and records similarity 1.0; a secondary
// add records 0.8. Crossing the summary threshold enqueues a low-priority
// regeneration job.
func (s *Service) AddContent(ctx context.Context, clusterID, contentID core.ID, isPrimary bool) (*core.Cluster, error) {
	if _, err := s.contents.GetContentItem(ctx, contentID); err != nil {
		return nil, fmt.Errorf("content %d: %w", contentID, err)
	}
	cluster, err := s.clusters.GetCluster(ctx, clusterID)
	if err != nil {
		return nil, fmt.Errorf("cluster %d: %w", clusterID, err)
	}

	if isPrimary {
		if err := s.clusters.DemotePrimaryEdges(ctx, contentID); err != nil {
			return nil, err
		}
	}

	score := secondaryScore
	if isPrimary {
		score = primaryScore
	}
	edge := &core.MembershipEdge{
		ContentId:       contentID,
		ClusterId:       clusterID,
		SimilarityScore: score,
		IsPrimary:       isPrimary,
		AddedAt:         time.Now().UTC(),
	}
	if err := s.clusters.UpsertEdge(ctx, edge); err != nil {
		return nil, err
	}

	cluster, err = s.refreshMetadata(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	if cluster.ItemCount >= summaryThreshold {
		s.enqueueSummary(ctx, cluster)
	}

	s.logger.Debug("added content to cluster",
		"cluster_id", clusterID,
		"content_id", contentID,
		"primary", isPrimary,
		"item_count", cluster.ItemCount)
	return cluster, nil
}

// RemoveContent removes a content item from a cluster and recomputes the
// cluster's metadata.
func (s *Service) RemoveContent(ctx context.Context, clusterID, contentID core.ID) (*core.Cluster, error) {
	if _, err := s.clusters.GetCluster(ctx, clusterID); err != nil {
		return nil, err
	}
	if err := s.clusters.DeleteEdge(ctx, contentID, clusterID); err != nil {
		return nil, err
	}
	return s.refreshMetadata(ctx, clusterID)
}

// ContentMemberships returns a content item's membership edges across all
// clusters, for item detail views.
func (s *Service) ContentMemberships(ctx context.Context, contentID core.ID) ([]*core.MembershipEdge, error) {
	return s.clusters.GetContentEdges(ctx, contentID)
}

// RequestSummary enqueues a low-priority summary regeneration job.
func (s *Service) RequestSummary(ctx context.Context, clusterID core.ID) error {
	cluster, err := s.clusters.GetCluster(ctx, clusterID)
	if err != nil {
		return err
	}
	s.enqueueSummary(ctx, cluster)
	return nil
}

// refreshMetadata recomputes item count, coherence, and centroid from the
// full current membership and persists them.
func (s *Service) refreshMetadata(ctx context.Context, clusterID core.ID) (*core.Cluster, error) {
	cluster, err := s.clusters.GetCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	members, err := s.loadMembers(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(members))
	for _, member := range members {
		vectors = append(vectors, member.Item.Embedding)
	}

	cluster.ItemCount = len(members)
	cluster.CoherenceScore = Coherence(vectors)
	cluster.Embedding = Centroid(vectors)

	return s.clusters.UpdateCluster(ctx, cluster)
}

// loadMembers resolves a cluster's edges to content items. Edges whose
// content has since been deleted are skipped.
func (s *Service) loadMembers(ctx context.Context, clusterID core.ID) ([]Member, error) {
	edges, err := s.clusters.GetClusterEdges(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(edges))
	for _, edge := range edges {
		item, err := s.contents.GetContentItem(ctx, edge.ContentId)
		if err != nil {
			continue
		}
		members = append(members, Member{Item: item, Edge: edge})
	}
	return members, nil
}

// enqueueSummary submits a low-priority summary job. Enqueue failures are
// logged, not propagated: a missed summary regenerates on the next change.
func (s *Service) enqueueSummary(ctx context.Context, cluster *core.Cluster) {
	if s.summaries == nil {
		return
	}
	payload, err := json.Marshal(&SummaryRequest{OwnerId: cluster.OwnerId, ClusterId: cluster.Id})
	if err != nil {
		s.logger.Error("failed to marshal summary request", "cluster_id", cluster.Id, "err", err)
		return
	}
	if _, err := s.summaries.Enqueue(ctx, payload, core.PriorityLow); err != nil {
		s.logger.Error("failed to enqueue summary job", "cluster_id", cluster.Id, "err", err)
	}
}
