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


package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/cluster"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/extract"
	"github.com/poiesic/curator/queue"
	"github.com/poiesic/curator/storage"
)

const (
	// maxTitleLength bounds stored titles.
	maxTitleLength = 500

	// maxBodyLength bounds stored body text.
	maxBodyLength = 50000

	// excerptLength is the stored metadata excerpt size.
	excerptLength = 200

	// maxEmbeddingInput bounds the text sent to the embedder.
	maxEmbeddingInput = 8000

	// suggestionThreshold is the minimum cosine similarity for an existing
	// cluster to be suggested.
	suggestionThreshold = 0.30

	// maxSuggestions is the number of suggestions returned per item.
	maxSuggestions = 3

	// suggestionTTL bounds how long cached suggestions survive.
	suggestionTTL = time.Hour

	// readingWordsPerMinute drives the reading time estimate.
	readingWordsPerMinute = 200
)

// Request is the payload of a content-processing job.
type Request struct {
	OwnerId   core.ID `json:"owner_id"`
	ContentId core.ID `json:"content_id"`
	URL       string  `json:"url"`
}

// Pipeline runs the enrichment stages for one content item: extract,
// analyze, embed, suggest clusters. Its ProcessJob method is the process
// func for content-processing queue workers.
//
// Only extraction is fatal. Analysis and embedding failures degrade to
// fallback values and the item still completes.
type Pipeline struct {
	contents  storage.ContentRepository
	clusters  storage.ClusterRepository
	cache     storage.SuggestionCache
	extractor extract.Extractor
	analyzer  ai.Analyzer
	embedder  ai.Embedder
	summaries *queue.Queue
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates an enrichment pipeline.
func NewPipeline(
	contents storage.ContentRepository,
	clusters storage.ClusterRepository,
	cache storage.SuggestionCache,
	extractor extract.Extractor,
	analyzer ai.Analyzer,
	embedder ai.Embedder,
	summaries *queue.Queue,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		contents:  contents,
		clusters:  clusters,
		cache:     cache,
		extractor: extractor,
		analyzer:  analyzer,
		embedder:  embedder,
		summaries: summaries,
		logger:    slog.Default().With("component", "enrich-pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessJob handles one content-processing job.
func (p *Pipeline) ProcessJob(ctx context.Context, job *core.Job) (string, error) {
	var request Request
	if err := json.Unmarshal(job.Payload, &request); err != nil {
		return "", fmt.Errorf("invalid enrichment request payload: %w", err)
	}
	return p.Process(ctx, &request)
}

// Process runs the full enrichment pipeline for a saved item.
func (p *Pipeline) Process(ctx context.Context, request *Request) (string, error) {
	item, err := p.contents.GetContentItem(ctx, request.ContentId)
	if err != nil {
		return "", fmt.Errorf("content %d: %w", request.ContentId, err)
	}

	if core.CanTransition(item.Status, core.ContentProcessing) {
		item.Status = core.ContentProcessing
		if item, err = p.contents.UpdateContentItem(ctx, item); err != nil {
			return "", err
		}
	}

	// Stage 1: extraction. The only fatal stage.
	result, err := p.extractor.Extract(ctx, item.URL)
	if err != nil {
		item.Status = core.ContentFailed
		if _, updateErr := p.contents.UpdateContentItem(ctx, item); updateErr != nil {
			p.logger.Error("failed to persist failed status", "content_id", item.Id, "err", updateErr)
		}
		return "", err
	}

	title := truncate(result.Title, maxTitleLength)
	body := truncate(result.Body, maxBodyLength)

	// Stage 2: analysis, with neutral fallback.
	analysis := p.analyze(ctx, title, body)

	// Stage 3: embedding, empty on failure.
	embedding := p.embed(ctx, body)

	// Stage 4: cluster suggestions.
	suggestions := p.suggest(ctx, item.OwnerId, embedding, analysis.Entities)

	item.Title = title
	item.FullText = body
	item.Embedding = embedding
	item.Status = core.ContentCompleted
	item.ContentType = analysis.ContentType
	item.ReadingTime = readingTime(body)
	item.Metadata = core.Metadata{
		Author:        result.Author,
		Domain:        result.Domain,
		PublishedDate: result.PublishedDate,
		Excerpt:       truncate(body, excerptLength),
		Analysis: core.Analysis{
			Summary:     analysis.Summary,
			Entities:    analysis.Entities,
			Sentiment:   analysis.Sentiment,
			Insights:    analysis.Insights,
			ContentType: analysis.ContentType,
		},
	}
	if _, err := p.contents.UpdateContentItem(ctx, item); err != nil {
		return "", err
	}

	if err := p.cache.PutSuggestions(ctx, item.Id, suggestions, suggestionTTL); err != nil {
		p.logger.Warn("failed to cache suggestions", "content_id", item.Id, "err", err)
	}

	p.enqueueSummaries(ctx, item.OwnerId, suggestions)

	p.logger.Info("enriched content",
		"content_id", item.Id,
		"owner_id", item.OwnerId,
		"embedded", len(embedding) > 0,
		"suggestions", len(suggestions))
	return fmt.Sprintf("enriched %q with %d suggestions", title, len(suggestions)), nil
}

// analyze runs the analyzer, substituting the neutral fallback on failure.
func (p *Pipeline) analyze(ctx context.Context, title, body string) *ai.Analysis {
	analysis, err := p.analyzer.Analyze(ctx, title, body)
	if err != nil {
		p.logger.Warn("analysis failed, using fallback", "err", err)
		return ai.FallbackAnalysis(title)
	}
	return analysis
}

// EmbeddingInput builds the canonical embedder input from an item's body
// text. Reembedding uses the same text so vectors stay comparable.
func EmbeddingInput(body string) string {
	return truncate(body, maxEmbeddingInput)
}

// embed generates the item embedding. Failures yield an empty vector and
// the item still completes.
func (p *Pipeline) embed(ctx context.Context, body string) []float32 {
	embedding, err := p.embedder.EmbedText(ctx, EmbeddingInput(body))
	if err != nil {
		p.logger.Warn("embedding failed, item will be unembedded", "err", err)
		return []float32{}
	}
	return embedding
}

// suggest ranks the owner's clusters against the item embedding.
//
// With no clusters at all, the result is a single synthetic new-cluster
// suggestion with confidence 0.8. Otherwise existing clusters scoring above
// the threshold are returned best first, capped at three; when fewer than
// three qualify, one synthetic new-cluster suggestion with confidence 0.5
// is appended. The synthetic name is the first extracted entity when one
// exists.
func (p *Pipeline) suggest(ctx context.Context, ownerID core.ID, embedding []float32, entities []string) []core.Suggestion {
	clusters, err := p.clusters.GetClustersByOwner(ctx, ownerID)
	if err != nil {
		p.logger.Warn("failed to load clusters for suggestions", "owner_id", ownerID, "err", err)
		clusters = nil
	}

	if len(clusters) == 0 {
		return []core.Suggestion{{
			Name:       syntheticName(entities, "General"),
			Confidence: 0.8,
			IsNew:      true,
		}}
	}

	suggestions := make([]core.Suggestion, 0, maxSuggestions)
	for _, cl := range clusters {
		similarity := cluster.CosineSimilarity(embedding, cl.Embedding)
		if similarity > suggestionThreshold {
			suggestions = append(suggestions, core.Suggestion{
				ClusterId:  cl.Id,
				Name:       cl.Name,
				Confidence: similarity,
				ItemCount:  cl.ItemCount,
			})
		}
	}

	slices.SortFunc(suggestions, func(a, b core.Suggestion) int {
		if a.Confidence > b.Confidence {
			return -1
		}
		if a.Confidence < b.Confidence {
			return 1
		}
		return 0
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	if len(suggestions) < maxSuggestions {
		suggestions = append(suggestions, core.Suggestion{
			Name:       syntheticName(entities, "New Topic"),
			Confidence: 0.5,
			IsNew:      true,
		})
	}

	return suggestions
}

// enqueueSummaries submits a low-priority summary job for every suggested
// existing cluster, so accepted suggestions land in fresh summaries.
// Enqueue failures are logged, not propagated.
func (p *Pipeline) enqueueSummaries(ctx context.Context, ownerID core.ID, suggestions []core.Suggestion) {
	if p.summaries == nil {
		return
	}
	for _, suggestion := range suggestions {
		if suggestion.IsNew {
			continue
		}
		payload, err := json.Marshal(&cluster.SummaryRequest{OwnerId: ownerID, ClusterId: suggestion.ClusterId})
		if err != nil {
			p.logger.Error("failed to marshal summary request", "cluster_id", suggestion.ClusterId, "err", err)
			continue
		}
		if _, err := p.summaries.Enqueue(ctx, payload, core.PriorityLow); err != nil {
			p.logger.Error("failed to enqueue summary job", "cluster_id", suggestion.ClusterId, "err", err)
		}
	}
}

// syntheticName picks the name for a synthetic new-cluster suggestion.
func syntheticName(entities []string, fallback string) string {
	if len(entities) > 0 && entities[0] != "" {
		return entities[0]
	}
	return fallback
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// readingTime estimates minutes to read, rounded up, at least 1 for any
// non-empty body.
func readingTime(body string) int {
	words := len(strings.Fields(body))
	if words == 0 {
		return 0
	}
	return (words + readingWordsPerMinute - 1) / readingWordsPerMinute
}
