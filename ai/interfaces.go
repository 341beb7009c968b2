package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Analyzer produces a structured semantic analysis of extracted content.
// Implementations must be thread-safe for concurrent use.
type Analyzer interface {
	// Analyze examines a document's title and body and returns a summary,
	// named entities, sentiment, key insights, and a content type
	// classification. Returns an error if analysis fails; callers decide
	// whether to substitute FallbackAnalysis.
	Analyze(ctx context.Context, title, body string) (*Analysis, error)
}

// Synthesizer generates a cited cross-source summary for a group of
// related documents. Implementations must be thread-safe for concurrent use.
type Synthesizer interface {
	// Synthesize produces a summary of the given members with citations
	// (referencing members by index) and any conflicting viewpoints found
	// across sources. Returns an error if generation or parsing fails.
	Synthesize(ctx context.Context, members []MemberContent) (*Synthesis, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder, Analyzer,
// and Synthesizer instances, ensuring they share configuration.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Analyzer returns the content analysis service.
	Analyzer() Analyzer

	// Synthesizer returns the cluster summary service.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
