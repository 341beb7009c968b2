package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/curator/ai"
)

// MockSynthesizer is a test double for ai.Synthesizer.
// It allows custom behavior injection via function fields.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, uses default deterministic behavior.
	SynthesizeFunc func(ctx context.Context, members []ai.MemberContent) (*ai.Synthesis, error)

	callCount int
}

// NewMockSynthesizer creates a mock synthesizer with default deterministic behavior.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize returns a deterministic summary listing the member titles,
// with one citation per member.
func (m *MockSynthesizer) Synthesize(ctx context.Context, members []ai.MemberContent) (*ai.Synthesis, error) {
	m.callCount++

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, members)
	}

	if len(members) == 0 {
		return ai.EmptySynthesis(), nil
	}

	titles := make([]string, len(members))
	citations := make([]ai.Citation, len(members))
	for i, member := range members {
		titles[i] = member.Title
		citations[i] = ai.Citation{
			Claim:       fmt.Sprintf("Covers %s", member.Title),
			SourceIndex: i,
		}
	}

	return &ai.Synthesis{
		Summary:   fmt.Sprintf("A synthesis of %d sources: %s.", len(members), strings.Join(titles, "; ")),
		Citations: citations,
		Conflicts: []ai.Conflict{},
	}, nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockSynthesizer) Reset() {
	m.callCount = 0
	m.SynthesizeFunc = nil
}
