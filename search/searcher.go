package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/cluster"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

// semanticThreshold is the minimum cosine similarity for an embedding match.
const semanticThreshold = 0.60

// Result is one search hit with its relevance score.
type Result struct {
	Item  *core.ContentItem
	Score float32
}

// Searcher provides hybrid semantic and entity search over one owner's
// saved content.
type Searcher struct {
	contents storage.ContentRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	contents storage.ContentRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if contents == nil {
		return nil, ErrContentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		contents: contents,
		embedder: provider.Embedder(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds an owner's content items relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
//
// Two retrieval arms run over the owner's items: cosine similarity of the
// query embedding against item embeddings, and extracted-entity matching
// against the query terms. Items hit by both arms score highest; an exact
// all-words match in the title or body adds a fixed boost.
func (s *Searcher) Search(ctx context.Context, ownerID core.ID, query string, maxHits int) ([]*Result, error) {
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	items, err := s.contents.GetContentByOwner(ctx, ownerID, 0)
	if err != nil {
		s.logger.Error("error loading content for search", "owner_id", ownerID, "err", err)
		return nil, err
	}

	queryWords := tokenizeAndFilter(query)

	// 1. Semantic arm
	semanticScores := make(map[core.ID]float32)
	for _, item := range items {
		if item.Status != core.ContentCompleted {
			continue
		}
		similarity := float32(cluster.CosineSimilarity(embedding, item.Embedding))
		if similarity >= semanticThreshold {
			semanticScores[item.Id] = similarity
		}
	}

	// 2. Entity arm: items whose extracted entities appear in the query
	entitySet := make(map[core.ID]bool)
	for _, item := range items {
		if item.Status != core.ContentCompleted {
			continue
		}
		if matchesEntities(queryWords, item.Metadata.Analysis.Entities) {
			entitySet[item.Id] = true
		}
	}

	// 3. Combine and score
	results := make([]*Result, 0, len(semanticScores)+len(entitySet))
	for _, item := range items {
		similarity, inSemantic := semanticScores[item.Id]
		inEntity := entitySet[item.Id]

		var score float32
		switch {
		case inSemantic && inEntity:
			score = 1.5 * similarity
		case inEntity:
			score = 1.2
		case inSemantic:
			score = similarity
		default:
			continue
		}

		// Verbatim match boost
		if containsAllQueryWords(item.Title+" "+item.FullText, query) {
			score += 0.3
		}

		results = append(results, &Result{Item: item, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}

	return results, nil
}

// matchesEntities reports whether any extracted entity appears whole in
// the filtered query terms.
func matchesEntities(queryWords []string, entities []string) bool {
	if len(queryWords) == 0 {
		return false
	}
	querySet := make(map[string]bool, len(queryWords))
	for _, word := range queryWords {
		querySet[word] = true
	}
	for _, entity := range entities {
		parts := tokenizeAndFilter(entity)
		if len(parts) == 0 {
			continue
		}
		all := true
		for _, part := range parts {
			if !querySet[part] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
