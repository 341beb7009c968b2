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
	"slices"
	"time"

	"github.com/poiesic/curator/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// chatRequestTimeout bounds a single chat completion call. Workers run
	// jobs on an uncancelable context, so every provider call carries its
	// own deadline.
	chatRequestTimeout = 2 * time.Minute

	// embedRequestTimeout bounds a single embedding call.
	embedRequestTimeout = time.Minute
)

// Analyzer implements ai.Analyzer using OpenAI-compatible chat APIs.
type Analyzer struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnalyzer(config *ai.Config) (*Analyzer, error) {
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

	return &Analyzer{
		client:  client,
		timeout: chatRequestTimeout,
		logger:  slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewAnalyzer creates a new analyzer using the provided configuration.
//
// Returns ai.Analyzer interface to enforce abstraction.
func NewAnalyzer(config *ai.Config) (ai.Analyzer, error) {
	return newAnalyzer(config)
}

// Analyze examines a document and returns its structured analysis.
// Labels outside the allowed sets are coerced to "neutral" and "article".
func (a *Analyzer) Analyze(ctx context.Context, title, body string) (*ai.Analysis, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildAnalysisPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("Title: %s\n\n%s", title, body)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result ai.Analysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		response, err := a.client.GenerateContent(callCtx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		cancel()
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return nil, fmt.Errorf("analyzer returned no choices")
		}

		if err := decodeResponse(response.Choices[0].Content, &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analyzer response",
				"attempt", attempt+1,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse analyzer response after retries", "err", lastErr)
		return nil, lastErr
	}

	if !slices.Contains(ai.Sentiments, result.Sentiment) {
		result.Sentiment = "neutral"
	}
	if !slices.Contains(ai.ContentTypes, result.ContentType) {
		result.ContentType = "article"
	}
	if result.Entities == nil {
		result.Entities = []string{}
	}
	if result.Insights == nil {
		result.Insights = []string{}
	}

	a.logger.Debug("analyzed content",
		"entities", len(result.Entities),
		"sentiment", result.Sentiment,
		"content_type", result.ContentType)

	return &result, nil
}
