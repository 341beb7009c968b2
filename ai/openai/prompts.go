package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/curator/ai"
)

const analysisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "summary": {
      "type": "string"
    },
    "entities": {
      "type": "array",
      "items": {
        "type": "string"
      }
    },
    "sentiment": {
      "type": "string"
    },
    "insights": {
      "type": "array",
      "items": {
        "type": "string"
      }
    },
    "content_type": {
      "type": "string"
    }
  },
  "required": ["summary", "entities", "sentiment", "insights", "content_type"],
  "additionalProperties": false
}`

const analysisPromptTemplate = `Analyze the given document and return the analysis as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "summary" is 2-3 sentences capturing what the document says.
- "entities" lists named people, organizations, places, and technologies, most prominent first.
- "sentiment" must be exactly one of: %s.
- "insights" lists up to 3 notable takeaways a reader should know.
- "content_type" must be exactly one of: %s.
- If a field cannot be determined, use an empty string or empty array.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input title: "OpenAI releases new model"
Input body: "OpenAI announced a new language model today, claiming large gains on reasoning benchmarks..."
Output:
{
  "summary": "OpenAI announced a new language model with improved reasoning performance.",
  "entities": ["OpenAI"],
  "sentiment": "positive",
  "insights": ["New model claims large gains on reasoning benchmarks"],
  "content_type": "article"
}`

const synthesisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "summary": {
      "type": "string"
    },
    "citations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "claim": {
            "type": "string"
          },
          "source_index": {
            "type": "integer",
            "minimum": 0
          }
        },
        "required": ["claim", "source_index"],
        "additionalProperties": false
      }
    },
    "conflicts": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "description": {
            "type": "string"
          },
          "sources": {
            "type": "array",
            "items": {
              "type": "string"
            }
          }
        },
        "required": ["description", "sources"],
        "additionalProperties": false
      }
    }
  },
  "required": ["summary", "citations", "conflicts"],
  "additionalProperties": false
}`

const synthesisPromptTemplate = `You are given several saved documents on the same topic. Synthesize them into
one summary and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "summary" weaves the key points of all sources into a few short paragraphs.
- Every factual claim in the summary should appear in "citations" with the zero-based
  index of the source document it came from.
- "conflicts" lists points where sources disagree, naming the source titles involved.
  Return "conflicts": [] when the sources agree.
- Prefer newer sources when ages differ; source ages are given in days.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// buildAnalysisPrompt creates the analysis system prompt with allowed labels embedded.
func buildAnalysisPrompt() string {
	return fmt.Sprintf(analysisPromptTemplate,
		analysisResponseSchema,
		strings.Join(ai.Sentiments, ", "),
		strings.Join(ai.ContentTypes, ", "))
}

// buildSynthesisPrompt creates the synthesis system prompt.
func buildSynthesisPrompt() string {
	return fmt.Sprintf(synthesisPromptTemplate, synthesisResponseSchema)
}

// formatMembers renders synthesis input documents as a numbered list.
func formatMembers(members []ai.MemberContent) string {
	var sb strings.Builder
	for i, m := range members {
		fmt.Fprintf(&sb, "Source %d (saved %d days ago)\nTitle: %s\n%s\n\n", i, m.DaysAgo, m.Title, m.Excerpt)
	}
	return sb.String()
}
