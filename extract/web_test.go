package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Fallback Title</title>
  <meta property="og:title" content="The Real Title">
  <meta name="author" content="Jane Doe">
  <meta property="article:published_time" content="2025-06-01T10:00:00Z">
</head>
<body>
  <nav><p>Navigation junk</p></nav>
  <article>
    <h1>The Real Title</h1>
    <p>First paragraph of the article.</p>
    <p>Second paragraph with more detail.</p>
  </article>
</body>
</html>`

func TestWebExtractorExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	extractor := NewWebExtractor(WithHTTPClient(server.Client()))

	result, err := extractor.Extract(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "The Real Title", result.Title)
	assert.Contains(t, result.Body, "First paragraph of the article.")
	assert.Contains(t, result.Body, "Second paragraph with more detail.")
	assert.NotContains(t, result.Body, "Navigation junk")
	assert.Equal(t, "Jane Doe", result.Author)
	assert.Equal(t, "2025-06-01T10:00:00Z", result.PublishedDate)
	assert.Equal(t, "127.0.0.1", result.Domain)
}

func TestWebExtractorFallsBackToBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Bare Page</title></head><body><p>Only paragraph.</p></body></html>`))
	}))
	defer server.Close()

	extractor := NewWebExtractor(WithHTTPClient(server.Client()))

	result, err := extractor.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bare Page", result.Title)
	assert.Equal(t, "Only paragraph.", result.Body)
}

func TestWebExtractorErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		extractor := NewWebExtractor(WithHTTPClient(server.Client()))
		_, err := extractor.Extract(context.Background(), server.URL)
		assert.True(t, errors.Is(err, ErrExtraction))
	})

	t.Run("no readable content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><div>no paragraphs here</div></body></html>`))
		}))
		defer server.Close()

		extractor := NewWebExtractor(WithHTTPClient(server.Client()))
		_, err := extractor.Extract(context.Background(), server.URL)
		assert.True(t, errors.Is(err, ErrExtraction))
	})

	t.Run("unreachable host", func(t *testing.T) {
		extractor := NewWebExtractor()
		_, err := extractor.Extract(context.Background(), "http://127.0.0.1:1/nope")
		assert.True(t, errors.Is(err, ErrExtraction))
	})
}
