package storage

import (
	"context"
	"time"

	"github.com/poiesic/curator/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// JobStore persists queued jobs and their terminal outcomes.
type JobStore interface {
	Repository

	// Enqueue persists a job on the named queue and returns its generated ID.
	// The job is durable before Enqueue returns.
	Enqueue(ctx context.Context, queue string, payload []byte, priority core.Priority) (core.ID, error)

	// Dequeue atomically removes and returns the next job from the named
	// queue, honoring priority order (high before normal before low) and
	// FIFO order within a priority. Returns (nil, nil) when the queue is
	// empty. Under concurrent callers each job is delivered at most once.
	Dequeue(ctx context.Context, queue string) (*core.Job, error)

	// SetJobStatus records a terminal outcome for a job. Records expire
	// after the store's status TTL. Overwrites any prior record, which
	// makes repeated completion marks idempotent.
	SetJobStatus(ctx context.Context, record *core.JobStatusRecord) error

	// GetJobStatus returns the terminal record for a job, or nil if none
	// exists (the job is pending, still running, or its record expired).
	GetJobStatus(ctx context.Context, jobID core.ID) (*core.JobStatusRecord, error)

	// QueueDepths returns the number of waiting jobs per priority on the
	// named queue.
	QueueDepths(ctx context.Context, queue string) (map[core.Priority]int, error)
}

// ContentRepository provides operations for managing content items.
type ContentRepository interface {
	Repository

	// AddContentItem stores a new content item. The item keeps its caller
	// assigned ID (derived from owner+URL). Sets CreatedAt/UpdatedAt if
	// unset. Returns ErrDuplicateKey if the item already exists.
	AddContentItem(ctx context.Context, item *core.ContentItem) (*core.ContentItem, error)

	// UpdateContentItem overwrites an existing content item and refreshes
	// UpdatedAt. Returns ErrNotFound if the item doesn't exist.
	UpdateContentItem(ctx context.Context, item *core.ContentItem) (*core.ContentItem, error)

	// GetContentItem retrieves a single content item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetContentItem(ctx context.Context, id core.ID) (*core.ContentItem, error)

	// GetContentItems retrieves multiple items by ID. Missing items are
	// skipped, not errors.
	GetContentItems(ctx context.Context, ids ...core.ID) ([]*core.ContentItem, error)

	// GetContentByOwner retrieves an owner's items ordered by creation time
	// descending, up to limit (0 means no limit).
	GetContentByOwner(ctx context.Context, ownerID core.ID, limit int) ([]*core.ContentItem, error)

	// DeleteContentItem removes an item and its owner index entry.
	// Returns ErrNotFound if the item doesn't exist.
	DeleteContentItem(ctx context.Context, id core.ID) error
}

// ClusterRepository provides operations for clusters and membership edges.
type ClusterRepository interface {
	Repository

	// AddCluster stores a new cluster. For clusters with ID=0, generates a
	// new ID from sequence. Sets CreatedAt/UpdatedAt if unset.
	AddCluster(ctx context.Context, cluster *core.Cluster) (*core.Cluster, error)

	// UpdateCluster overwrites an existing cluster and refreshes UpdatedAt.
	// Returns ErrNotFound if the cluster doesn't exist.
	UpdateCluster(ctx context.Context, cluster *core.Cluster) (*core.Cluster, error)

	// GetCluster retrieves a single cluster by ID.
	// Returns ErrNotFound if the cluster doesn't exist.
	GetCluster(ctx context.Context, id core.ID) (*core.Cluster, error)

	// GetClustersByOwner retrieves all clusters belonging to an owner.
	GetClustersByOwner(ctx context.Context, ownerID core.ID) ([]*core.Cluster, error)

	// DeleteCluster removes a cluster and all of its membership edges.
	// Returns ErrNotFound if the cluster doesn't exist.
	DeleteCluster(ctx context.Context, id core.ID) error

	// UpsertEdge writes a membership edge. At most one edge exists per
	// (content, cluster) pair; a second write replaces the first.
	UpsertEdge(ctx context.Context, edge *core.MembershipEdge) error

	// DeleteEdge removes the edge between a content item and a cluster.
	// Missing edges are not errors.
	DeleteEdge(ctx context.Context, contentID, clusterID core.ID) error

	// GetClusterEdges returns all membership edges of a cluster.
	GetClusterEdges(ctx context.Context, clusterID core.ID) ([]*core.MembershipEdge, error)

	// GetContentEdges returns all membership edges of a content item.
	GetContentEdges(ctx context.Context, contentID core.ID) ([]*core.MembershipEdge, error)

	// DemotePrimaryEdges clears the primary flag on every edge of a content
	// item. Used before assigning a new primary cluster.
	DemotePrimaryEdges(ctx context.Context, contentID core.ID) error
}

// SuggestionCache stores ranked cluster suggestions per content item with a
// bounded TTL. A miss is represented as (nil, nil), never an error.
type SuggestionCache interface {
	// PutSuggestions caches suggestions for a content item with the given TTL.
	PutSuggestions(ctx context.Context, contentID core.ID, suggestions []core.Suggestion, ttl time.Duration) error

	// GetSuggestions returns cached suggestions for a content item, or nil
	// if none are cached (or the entry expired).
	GetSuggestions(ctx context.Context, contentID core.ID) ([]core.Suggestion, error)
}

// Store combines everything a fully wired curator instance needs.
type Store interface {
	JobStore
	ContentRepository
	ClusterRepository
	SuggestionCache
}
