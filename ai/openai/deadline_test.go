package openai

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/curator/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// stalledModel blocks until its context is done, like a chat host that
// accepts the connection and never responds.
type stalledModel struct{}

func (stalledModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledModel) Call(ctx context.Context, _ string, _ ...llms.CallOption) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// stalledEmbedder is the embedding-host equivalent of stalledModel.
type stalledEmbedder struct{}

func (stalledEmbedder) EmbedDocuments(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledEmbedder) EmbedQuery(ctx context.Context, _ string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyzeDeadlinesStalledModel(t *testing.T) {
	analyzer := &Analyzer{
		client:  stalledModel{},
		timeout: 25 * time.Millisecond,
		logger:  slog.Default(),
	}

	_, err := analyzer.Analyze(context.Background(), "title", "body")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSynthesizeDeadlinesStalledModel(t *testing.T) {
	synthesizer := &Synthesizer{
		client:  stalledModel{},
		timeout: 25 * time.Millisecond,
		logger:  slog.Default(),
	}

	_, err := synthesizer.Synthesize(context.Background(), []ai.MemberContent{
		{Id: 1, Title: "one", Excerpt: "body"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmbedDeadlinesStalledHost(t *testing.T) {
	embedder := &Embedder{
		embedder: stalledEmbedder{},
		timeout:  25 * time.Millisecond,
		logger:   slog.Default(),
	}

	_, err := embedder.EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
