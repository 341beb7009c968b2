package ai

// Sentiments defines the valid sentiment labels an analyzer may return.
var Sentiments = []string{
	"positive",
	"negative",
	"neutral",
	"mixed",
}

// ContentTypes defines the valid content type classifications.
var ContentTypes = []string{
	"article",
	"video",
	"social",
	"research",
}

// Analysis is the structured result of analyzing a piece of content.
type Analysis struct {
	// Summary is a short prose summary of the content.
	Summary string `json:"summary"`

	// Entities are the named entities mentioned in the content, most
	// prominent first.
	Entities []string `json:"entities"`

	// Sentiment is one of the Sentiments labels.
	Sentiment string `json:"sentiment"`

	// Insights are notable takeaways worth surfacing to the reader.
	Insights []string `json:"insights"`

	// ContentType is one of the ContentTypes labels.
	ContentType string `json:"content_type"`
}

// FallbackAnalysis returns the neutral analysis used when the analyzer is
// unavailable or its output cannot be parsed. Enrichment proceeds with it
// rather than failing the item.
func FallbackAnalysis(title string) *Analysis {
	return &Analysis{
		Summary:     title,
		Entities:    []string{},
		Sentiment:   "neutral",
		Insights:    []string{},
		ContentType: "article",
	}
}

// MemberContent is one document handed to a Synthesizer.
type MemberContent struct {
	// Id identifies the source document.
	Id uint64

	// Title is the document title.
	Title string

	// Excerpt is the leading portion of the document body.
	Excerpt string

	// DaysAgo is the age of the document in whole days.
	DaysAgo int
}

// Citation ties a claim in a synthesized summary back to one of the input
// members. SourceIndex is the position of the member in the Synthesize call.
type Citation struct {
	Claim       string `json:"claim"`
	SourceIndex int    `json:"source_index"`
}

// Conflict describes contradictory viewpoints found across sources.
type Conflict struct {
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
}

// Synthesis is the result of summarizing a group of related documents.
type Synthesis struct {
	Summary   string     `json:"summary"`
	Citations []Citation `json:"citations"`
	Conflicts []Conflict `json:"conflicts"`
}

// EmptySynthesis returns the fixed result used for a group with no members.
// No collaborator call is made in that case.
func EmptySynthesis() *Synthesis {
	return &Synthesis{
		Summary:   "No content in this cluster yet.",
		Citations: []Citation{},
		Conflicts: []Conflict{},
	}
}

// FallbackSynthesis returns the fixed result used when the synthesizer
// fails or produces unparseable output.
func FallbackSynthesis() *Synthesis {
	return &Synthesis{
		Summary:   "Unable to generate summary at this time.",
		Citations: []Citation{},
		Conflicts: []Conflict{},
	}
}
