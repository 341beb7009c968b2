package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentID derives the ID for a content item from its owner and URL.
// A given (owner, URL) pair always maps to the same ID, which is how
// duplicate saves are detected.
func ContentID(ownerID ID, url string) ID {
	buf := make([]byte, 8, 8+len(url))
	binary.LittleEndian.PutUint64(buf, uint64(ownerID))
	return IDFromContent(string(buf) + url)
}

// Priority orders jobs within a queue. Lower values are drained first.
type Priority int

const (
	// PriorityHigh jobs are drained before anything else on the queue.
	PriorityHigh Priority = iota
	// PriorityNormal is the default for enqueued work.
	PriorityNormal
	// PriorityLow jobs run only when nothing more urgent is waiting.
	PriorityLow
)

// String returns the wire name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Job is a unit of deferred work with a priority and an opaque payload.
// A Job is immutable once enqueued; its outcome is recorded out-of-band
// as a JobStatusRecord.
type Job struct {
	Id          ID
	Queue       string
	Payload     []byte
	Priority    Priority
	CreatedAt   time.Time
	Attempts    int
	MaxAttempts int
}

// JobState is the externally visible state of a job.
type JobState int

const (
	// JobPending means no terminal record exists for the job. Callers cannot
	// distinguish "still queued or running" from "status record expired".
	JobPending JobState = iota + 1
	// JobCompleted means the job finished successfully.
	JobCompleted
	// JobFailed means the job's pipeline returned an error. Failure is
	// terminal; nothing re-enqueues a failed job automatically.
	JobFailed
	// JobUnknown means the state could not be determined.
	JobUnknown
)

// String returns the wire name of the job state.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobStatusRecord is the terminal outcome of a job. Records are retained
// with a bounded TTL; after expiry the job reads as pending again.
type JobStatusRecord struct {
	JobId     ID
	State     JobState
	Detail    string
	Timestamp time.Time
}

// ProcessingStatus tracks the enrichment lifecycle of a content item.
// Transitions only move forward: pending -> processing -> completed|failed.
type ProcessingStatus int

const (
	// ContentPending means the item was saved but not yet picked up.
	ContentPending ProcessingStatus = iota + 1
	// ContentProcessing means a worker is running the enrichment pipeline.
	ContentProcessing
	// ContentCompleted means enrichment finished (possibly with fallbacks).
	ContentCompleted
	// ContentFailed means extraction failed and the item holds no full text.
	ContentFailed
)

// String returns the wire name of the processing status.
func (s ProcessingStatus) String() string {
	switch s {
	case ContentPending:
		return "pending"
	case ContentProcessing:
		return "processing"
	case ContentCompleted:
		return "completed"
	case ContentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Analysis holds the structured semantic analysis persisted with a content item.
type Analysis struct {
	Summary     string
	Entities    []string
	Sentiment   string
	Insights    []string
	ContentType string
}

// Metadata holds extraction and analysis byproducts for a content item.
type Metadata struct {
	Author        string
	Domain        string
	PublishedDate string
	Excerpt       string
	Analysis      Analysis
}

// ContentItem is a saved URL with its enrichment state. Items are created on
// save and mutated only by the enrichment pipeline.
type ContentItem struct {
	Id          ID
	OwnerId     ID
	URL         string
	Title       string
	FullText    string
	Embedding   []float32
	Status      ProcessingStatus
	ContentType string
	ReadingTime int // estimated minutes
	Metadata    Metadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Citation backs a claim in a synthesized cluster summary.
type Citation struct {
	Claim       string
	SourceTitle string
	SourceId    ID
	DaysAgo     int
}

// Conflict describes contradictory viewpoints across a cluster's sources.
type Conflict struct {
	Description string
	Sources     []string
}

// Cluster groups related content items for one owner. The Embedding field is
// the centroid of the members' embeddings and is rewritten on every
// membership change, as are ItemCount and CoherenceScore.
type Cluster struct {
	Id                 ID
	OwnerId            ID
	Name               string
	Description        string
	Embedding          []float32
	SynthesizedSummary string
	Citations          []Citation
	Conflicts          []Conflict
	ItemCount          int
	CoherenceScore     float64 // mean pairwise cosine similarity, in [0,1]
	AutoGenerated      bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MembershipEdge links a content item to a cluster. At most one edge exists
// per (content, cluster) pair; writes use upsert semantics.
type MembershipEdge struct {
	ContentId       ID
	ClusterId       ID
	SimilarityScore float64 // in [0,1]
	IsPrimary       bool
	AddedAt         time.Time
}

// Suggestion is a ranked candidate cluster for a freshly enriched item.
// Suggestions are cached with a TTL and never persisted relationally.
// IsNew marks a proposed cluster that does not exist yet (ClusterId is 0).
type Suggestion struct {
	ClusterId  ID
	Name       string
	Confidence float64 // in [0,1]
	IsNew      bool
	ItemCount  int
}
