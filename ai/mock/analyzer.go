package mock

import (
	"context"
	"strings"

	"github.com/poiesic/curator/ai"
)

// MockAnalyzer is a test double for ai.Analyzer.
// It allows custom behavior injection via function fields.
type MockAnalyzer struct {
	// AnalyzeFunc is called by Analyze if set.
	// If nil, uses default deterministic behavior.
	AnalyzeFunc func(ctx context.Context, title, body string) (*ai.Analysis, error)

	callCount int
}

// NewMockAnalyzer creates a mock analyzer with default deterministic behavior.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze returns a deterministic analysis derived from the input.
// The default summary is the first sentence of the body (or the title when
// the body is empty) and the entities are the capitalized words of the title.
func (m *MockAnalyzer) Analyze(ctx context.Context, title, body string) (*ai.Analysis, error) {
	m.callCount++

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, title, body)
	}

	summary := title
	if idx := strings.Index(body, "."); idx > 0 {
		summary = body[:idx+1]
	}

	var entities []string
	for _, word := range strings.Fields(title) {
		if len(word) > 1 && word[0] >= 'A' && word[0] <= 'Z' {
			entities = append(entities, word)
		}
	}
	if entities == nil {
		entities = []string{}
	}

	return &ai.Analysis{
		Summary:     summary,
		Entities:    entities,
		Sentiment:   "neutral",
		Insights:    []string{},
		ContentType: "article",
	}, nil
}

// CallCount returns the number of times Analyze was called.
func (m *MockAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeFunc = nil
}
