package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/ai/mock"
	"github.com/poiesic/curator/cluster"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/extract"
	"github.com/poiesic/curator/queue"
	badgerstore "github.com/poiesic/curator/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	result *extract.Result
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, url string) (*extract.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func goodExtractor() *stubExtractor {
	return &stubExtractor{result: &extract.Result{
		Title:  "Go Memory Model",
		Body:   "The Go memory model specifies the conditions under which reads observe writes.",
		Author: "The Go Team",
		Domain: "go.dev",
	}}
}

func newTestPipeline(t *testing.T, extractor extract.Extractor) (*Pipeline, *badgerstore.Store, *mock.MockProvider, *queue.Queue) {
	t.Helper()
	store, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	summaries := queue.New(queue.ClusterSummary, store)
	pipeline := NewPipeline(store, store, store, extractor,
		provider.Analyzer(), provider.Embedder(), summaries)
	return pipeline, store, provider, summaries
}

func saveItem(t *testing.T, store *badgerstore.Store, owner core.ID, url string) *core.ContentItem {
	t.Helper()
	item := &core.ContentItem{
		Id:      core.ContentID(owner, url),
		OwnerId: owner,
		URL:     url,
		Title:   url,
		Status:  core.ContentPending,
	}
	_, err := store.AddContentItem(context.Background(), item)
	require.NoError(t, err)
	return item
}

func TestProcessEnrichesItem(t *testing.T) {
	pipeline, store, _, _ := newTestPipeline(t, goodExtractor())
	ctx := context.Background()
	owner := core.ID(7)
	item := saveItem(t, store, owner, "https://go.dev/ref/mem")

	detail, err := pipeline.Process(ctx, &Request{OwnerId: owner, ContentId: item.Id, URL: item.URL})
	require.NoError(t, err)
	assert.Contains(t, detail, "Go Memory Model")

	after, err := store.GetContentItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ContentCompleted, after.Status)
	assert.Equal(t, "Go Memory Model", after.Title)
	assert.NotEmpty(t, after.FullText)
	assert.NotEmpty(t, after.Embedding)
	assert.Equal(t, 1, after.ReadingTime)
	assert.Equal(t, "go.dev", after.Metadata.Domain)
	assert.NotEmpty(t, after.Metadata.Excerpt)
	assert.NotEmpty(t, after.Metadata.Analysis.Summary)
}

func TestProcessCachesSyntheticSuggestionForNewOwner(t *testing.T) {
	pipeline, store, _, _ := newTestPipeline(t, goodExtractor())
	ctx := context.Background()
	owner := core.ID(7)
	item := saveItem(t, store, owner, "https://go.dev/ref/mem")

	_, err := pipeline.Process(ctx, &Request{OwnerId: owner, ContentId: item.Id, URL: item.URL})
	require.NoError(t, err)

	suggestions, err := store.GetSuggestions(ctx, item.Id)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.True(t, suggestions[0].IsNew)
	assert.Equal(t, 0.8, suggestions[0].Confidence)
	assert.NotEmpty(t, suggestions[0].Name)
}

func TestProcessSuggestsExistingClusters(t *testing.T) {
	pipeline, store, provider, summaries := newTestPipeline(t, goodExtractor())
	ctx := context.Background()
	owner := core.ID(7)

	// A cluster whose centroid matches what the mock embedder will produce
	// for the extracted text, and one that cannot match.
	matching, err := provider.Embedder().EmbedText(ctx, EmbeddingInput(goodExtractor().result.Body))
	require.NoError(t, err)

	near := &core.Cluster{OwnerId: owner, Name: "Go Internals", Embedding: matching, ItemCount: 4}
	near, err = store.AddCluster(ctx, near)
	require.NoError(t, err)
	far := &core.Cluster{OwnerId: owner, Name: "Cooking", Embedding: orthogonalTo(matching)}
	_, err = store.AddCluster(ctx, far)
	require.NoError(t, err)

	item := saveItem(t, store, owner, "https://go.dev/ref/mem")
	_, err = pipeline.Process(ctx, &Request{OwnerId: owner, ContentId: item.Id, URL: item.URL})
	require.NoError(t, err)

	suggestions, err := store.GetSuggestions(ctx, item.Id)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, near.Id, suggestions[0].ClusterId)
	assert.Equal(t, "Go Internals", suggestions[0].Name)
	assert.Greater(t, suggestions[0].Confidence, 0.30)
	assert.Equal(t, 4, suggestions[0].ItemCount)

	// Fewer than three matched, so a synthetic suggestion is appended.
	last := suggestions[len(suggestions)-1]
	assert.True(t, last.IsNew)
	assert.Equal(t, 0.5, last.Confidence)

	// One summary refresh job per suggested existing cluster, carrying the
	// item's owner so the summarizer works in the right scope.
	job, err := summaries.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, core.PriorityLow, job.Priority)
	var summaryReq cluster.SummaryRequest
	require.NoError(t, json.Unmarshal(job.Payload, &summaryReq))
	assert.Equal(t, owner, summaryReq.OwnerId)
	assert.Equal(t, near.Id, summaryReq.ClusterId)
	job, err = summaries.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestProcessEmbedsBodyOnly(t *testing.T) {
	extractor := goodExtractor()
	pipeline, store, provider, _ := newTestPipeline(t, extractor)
	var embedded string
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		embedded = text
		return []float32{1, 0, 0}, nil
	}
	ctx := context.Background()
	owner := core.ID(7)
	item := saveItem(t, store, owner, "https://go.dev/ref/mem")

	_, err := pipeline.Process(ctx, &Request{OwnerId: owner, ContentId: item.Id, URL: item.URL})
	require.NoError(t, err)

	assert.Equal(t, extractor.result.Body, embedded)
	assert.NotContains(t, embedded, extractor.result.Title)
}

func TestProcessExtractionFailureMarksItemFailed(t *testing.T) {
	extractor := &stubExtractor{err: extract.ErrExtraction}
	pipeline, store, _, _ := newTestPipeline(t, extractor)
	ctx := context.Background()
	owner := core.ID(7)
	item := saveItem(t, store, owner, "https://example.com/broken")

	_, err := pipeline.Process(ctx, &Request{OwnerId: owner, ContentId: item.Id, URL: item.URL})
	assert.ErrorIs(t, err, extract.ErrExtraction)

	after, err := store.GetContentItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ContentFailed, after.Status)
}

func TestProcessAnalyzerFailureFallsBack(t *testing.T) {
	pipeline, store, provider, _ := newTestPipeline(t, goodExtractor())
	provider.GetMockAnalyzer().AnalyzeFunc = func(ctx context.Context, title, body string) (*ai.Analysis, error) {
		return nil, errors.New("model unavailable")
	}
	ctx := context.Background()
	owner := core.ID(7)
	item := saveItem(t, store, owner, "https://go.dev/ref/mem")

	_, err := pipeline.Process(ctx, &Request{OwnerId: owner, ContentId: item.Id, URL: item.URL})
	require.NoError(t, err)

	after, err := store.GetContentItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ContentCompleted, after.Status)
	assert.Equal(t, "neutral", after.Metadata.Analysis.Sentiment)
	assert.Equal(t, "Go Memory Model", after.Metadata.Analysis.Summary)
	assert.Equal(t, "article", after.ContentType)
}

func TestProcessEmbedderFailureCompletesUnembedded(t *testing.T) {
	pipeline, store, provider, _ := newTestPipeline(t, goodExtractor())
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding host down")
	}
	ctx := context.Background()
	owner := core.ID(7)
	item := saveItem(t, store, owner, "https://go.dev/ref/mem")

	_, err := pipeline.Process(ctx, &Request{OwnerId: owner, ContentId: item.Id, URL: item.URL})
	require.NoError(t, err)

	after, err := store.GetContentItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ContentCompleted, after.Status)
	assert.Empty(t, after.Embedding)

	// Suggestions still produced, no similarity match possible.
	suggestions, err := store.GetSuggestions(ctx, item.Id)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.True(t, suggestions[0].IsNew)
}

func TestProcessJobRejectsInvalidPayload(t *testing.T) {
	pipeline, _, _, _ := newTestPipeline(t, goodExtractor())

	_, err := pipeline.ProcessJob(context.Background(), &core.Job{Payload: []byte("not json")})
	assert.Error(t, err)
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	// 2-byte runes; an odd limit falls mid-rune and must back off.
	s := strings.Repeat("é", 300)
	out := truncate(s, 499)
	assert.True(t, utf8.ValidString(out))
	assert.Len(t, out, 498)

	// 4-byte rune straddling the limit is dropped whole.
	out = truncate("ab\U0001F600", 4)
	assert.Equal(t, "ab", out)
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 0, readingTime(""))
	assert.Equal(t, 1, readingTime("short body"))
	long := ""
	for i := 0; i < 450; i++ {
		long += "word "
	}
	assert.Equal(t, 3, readingTime(long))
}

// orthogonalTo builds a vector of the same length with no overlap in the
// dominant component, so its similarity to v stays far below the
// suggestion threshold.
func orthogonalTo(v []float32) []float32 {
	out := make([]float32, len(v))
	max := 0
	for i, x := range v {
		if x > v[max] {
			max = i
		}
		out[i] = -x
	}
	out[max] = 0
	return out
}
