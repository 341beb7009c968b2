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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/curator/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Synthesizer implements ai.Synthesizer using OpenAI-compatible chat APIs.
type Synthesizer struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newSynthesizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSynthesizer(config *ai.Config) (*Synthesizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Synthesizer{
		client:  client,
		timeout: chatRequestTimeout,
		logger:  slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewSynthesizer creates a new synthesizer using the provided configuration.
//
// Returns ai.Synthesizer interface to enforce abstraction.
func NewSynthesizer(config *ai.Config) (ai.Synthesizer, error) {
	return newSynthesizer(config)
}

// Synthesize produces a cited summary across the given members.
// Empty membership returns the fixed empty result without a model call.
func (s *Synthesizer) Synthesize(ctx context.Context, members []ai.MemberContent) (*ai.Synthesis, error) {
	if len(members) == 0 {
		return ai.EmptySynthesis(), nil
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSynthesisPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(formatMembers(members)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result ai.Synthesis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		response, err := s.client.GenerateContent(callCtx, content, llms.WithTemperature(0.2), llms.WithJSONMode())
		cancel()
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			s.logger.Debug("no choices returned from model")
			return nil, fmt.Errorf("synthesizer returned no choices")
		}

		if err := decodeResponse(response.Choices[0].Content, &result); err != nil {
			lastErr = err
			s.logger.Warn("error parsing synthesizer response",
				"attempt", attempt+1,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		s.logger.Error("failed to parse synthesizer response after retries", "err", lastErr)
		return nil, lastErr
	}

	// Drop citations that point outside the member list
	valid := result.Citations[:0]
	for _, c := range result.Citations {
		if c.SourceIndex >= 0 && c.SourceIndex < len(members) {
			valid = append(valid, c)
		}
	}
	result.Citations = valid
	if result.Citations == nil {
		result.Citations = []ai.Citation{}
	}
	if result.Conflicts == nil {
		result.Conflicts = []ai.Conflict{}
	}

	s.logger.Debug("synthesized summary",
		"members", len(members),
		"citations", len(result.Citations),
		"conflicts", len(result.Conflicts))

	return &result, nil
}
