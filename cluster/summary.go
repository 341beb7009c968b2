package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

const (
	// memberExcerptLength is how much of each member's body goes into the
	// synthesis prompt.
	memberExcerptLength = 1000

	// minSummaryMembers is the membership below which summary jobs are
	// skipped rather than run.
	minSummaryMembers = 3
)

// SummaryRequest is the payload of a cluster-summary job.
type SummaryRequest struct {
	OwnerId   core.ID `json:"owner_id"`
	ClusterId core.ID `json:"cluster_id"`
}

// Summarizer regenerates synthesized cluster summaries. Its ProcessJob
// method is the process func for cluster-summary queue workers.
type Summarizer struct {
	clusters    storage.ClusterRepository
	contents    storage.ContentRepository
	synthesizer ai.Synthesizer
	logger      *slog.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(clusters storage.ClusterRepository, contents storage.ContentRepository, synthesizer ai.Synthesizer) *Summarizer {
	return &Summarizer{
		clusters:    clusters,
		contents:    contents,
		synthesizer: synthesizer,
		logger:      slog.Default().With("component", "summarizer"),
	}
}

// ProcessJob handles one cluster-summary job. Clusters below the member
// threshold are skipped and the job still completes.
func (s *Summarizer) ProcessJob(ctx context.Context, job *core.Job) (string, error) {
	var request SummaryRequest
	if err := json.Unmarshal(job.Payload, &request); err != nil {
		return "", fmt.Errorf("invalid summary request payload: %w", err)
	}

	cluster, err := s.clusters.GetCluster(ctx, request.ClusterId)
	if err != nil {
		return "", fmt.Errorf("cluster %d: %w", request.ClusterId, err)
	}

	members, err := s.loadMembers(ctx, cluster.Id)
	if err != nil {
		return "", err
	}
	if len(members) < minSummaryMembers {
		return fmt.Sprintf("skipped: cluster %d has %d members", cluster.Id, len(members)), nil
	}

	if err := s.Summarize(ctx, cluster, members); err != nil {
		return "", err
	}
	return fmt.Sprintf("summarized cluster %d from %d sources", cluster.Id, len(members)), nil
}

// Summarize synthesizes and persists a summary for the cluster from the
// given members. A failing or unparseable synthesis falls back to a fixed
// placeholder; the summary step itself never raises for that.
func (s *Summarizer) Summarize(ctx context.Context, cluster *core.Cluster, members []*core.ContentItem) error {
	input := make([]ai.MemberContent, len(members))
	now := time.Now().UTC()
	for i, item := range members {
		excerpt := item.FullText
		if len(excerpt) > memberExcerptLength {
			cut := memberExcerptLength
			for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
				cut--
			}
			excerpt = excerpt[:cut]
		}
		input[i] = ai.MemberContent{
			Id:      uint64(item.Id),
			Title:   item.Title,
			Excerpt: excerpt,
			DaysAgo: int(now.Sub(item.CreatedAt).Hours() / 24),
		}
	}

	synthesis, err := s.synthesizer.Synthesize(ctx, input)
	if err != nil {
		s.logger.Warn("synthesis failed, using fallback", "cluster_id", cluster.Id, "err", err)
		synthesis = ai.FallbackSynthesis()
	}

	cluster.SynthesizedSummary = synthesis.Summary
	cluster.Citations = resolveCitations(synthesis.Citations, members, input)
	cluster.Conflicts = make([]core.Conflict, len(synthesis.Conflicts))
	for i, conflict := range synthesis.Conflicts {
		cluster.Conflicts[i] = core.Conflict{
			Description: conflict.Description,
			Sources:     conflict.Sources,
		}
	}

	if _, err := s.clusters.UpdateCluster(ctx, cluster); err != nil {
		return fmt.Errorf("persisting summary for cluster %d: %w", cluster.Id, err)
	}
	return nil
}

// loadMembers returns the cluster's member content items.
func (s *Summarizer) loadMembers(ctx context.Context, clusterID core.ID) ([]*core.ContentItem, error) {
	edges, err := s.clusters.GetClusterEdges(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	ids := make([]core.ID, len(edges))
	for i, edge := range edges {
		ids[i] = edge.ContentId
	}
	return s.contents.GetContentItems(ctx, ids...)
}

// resolveCitations maps index-based citations back to the source items.
// Citations with out-of-range indexes are dropped.
func resolveCitations(citations []ai.Citation, members []*core.ContentItem, input []ai.MemberContent) []core.Citation {
	resolved := make([]core.Citation, 0, len(citations))
	for _, citation := range citations {
		if citation.SourceIndex < 0 || citation.SourceIndex >= len(members) {
			continue
		}
		member := members[citation.SourceIndex]
		resolved = append(resolved, core.Citation{
			Claim:       citation.Claim,
			SourceTitle: member.Title,
			SourceId:    member.Id,
			DaysAgo:     input[citation.SourceIndex].DaysAgo,
		})
	}
	return resolved
}
