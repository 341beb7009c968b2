package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

// AddCluster stores a new cluster. For clusters with ID=0, generates a new
// ID from sequence.
func (s *Store) AddCluster(ctx context.Context, cluster *core.Cluster) (*core.Cluster, error) {
	if cluster.Id == 0 {
		seq, err := nextID(s.clusterSeq)
		if err != nil {
			return nil, err
		}
		cluster.Id = core.ID(seq)
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		if cluster.CreatedAt.IsZero() {
			cluster.CreatedAt = now
		}
		cluster.UpdatedAt = now

		value, err := storage.MarshalCluster(cluster)
		if err != nil {
			return err
		}
		if err := tx.Set(makeClusterKey(cluster.Id), value); err != nil {
			return err
		}

		ownerKey := makeClusterOwnerKey(cluster.OwnerId, cluster.Id)
		if err := tx.Set(ownerKey, storage.MarshalID(cluster.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return cluster, err
}

// UpdateCluster overwrites an existing cluster and refreshes UpdatedAt.
func (s *Store) UpdateCluster(ctx context.Context, cluster *core.Cluster) (*core.Cluster, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeClusterKey(cluster.Id)

		old, err := s.readCluster(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		cluster.CreatedAt = old.CreatedAt
		cluster.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalCluster(cluster)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return cluster, err
}

// GetCluster retrieves a single cluster by ID.
func (s *Store) GetCluster(ctx context.Context, id core.ID) (*core.Cluster, error) {
	var result *core.Cluster
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = s.readCluster(tx, makeClusterKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetClustersByOwner retrieves all clusters belonging to an owner.
func (s *Store) GetClustersByOwner(ctx context.Context, ownerID core.ID) ([]*core.Cluster, error) {
	var results []*core.Cluster

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialClusterOwnerKey(ownerID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var clusterID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				clusterID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			cluster, err := s.readCluster(tx, makeClusterKey(clusterID))
			if err != nil {
				return err
			}
			if cluster != nil {
				results = append(results, cluster)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteCluster removes a cluster, its owner index entry, and all of its
// membership edges (both directions).
func (s *Store) DeleteCluster(ctx context.Context, id core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeClusterKey(id)

		cluster, err := s.readCluster(tx, key)
		if err != nil {
			return err
		}
		if cluster == nil {
			return storage.ErrNotFound
		}

		edges, err := s.readEdges(tx, makePartialEdgeClusterKey(id))
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if err := tx.Delete(makeEdgeClusterKey(edge.ClusterId, edge.ContentId)); err != nil {
				return err
			}
			if err := tx.Delete(makeEdgeContentKey(edge.ContentId, edge.ClusterId)); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeClusterOwnerKey(cluster.OwnerId, cluster.Id)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpsertEdge writes a membership edge under both its cluster-side and
// content-side keys. A second write for the same pair replaces the first.
func (s *Store) UpsertEdge(ctx context.Context, edge *core.MembershipEdge) error {
	if edge.AddedAt.IsZero() {
		edge.AddedAt = time.Now().UTC()
	}

	value, err := storage.MarshalEdge(edge)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEdgeClusterKey(edge.ClusterId, edge.ContentId), value); err != nil {
			return err
		}
		if err := tx.Set(makeEdgeContentKey(edge.ContentId, edge.ClusterId), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteEdge removes the edge between a content item and a cluster.
// Missing edges are not errors.
func (s *Store) DeleteEdge(ctx context.Context, contentID, clusterID core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeEdgeClusterKey(clusterID, contentID)); err != nil {
			return err
		}
		if err := tx.Delete(makeEdgeContentKey(contentID, clusterID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetClusterEdges returns all membership edges of a cluster.
func (s *Store) GetClusterEdges(ctx context.Context, clusterID core.ID) ([]*core.MembershipEdge, error) {
	var edges []*core.MembershipEdge
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		edges, err = s.readEdges(tx, makePartialEdgeClusterKey(clusterID))
		return err
	}, false)
	return edges, err
}

// GetContentEdges returns all membership edges of a content item.
func (s *Store) GetContentEdges(ctx context.Context, contentID core.ID) ([]*core.MembershipEdge, error) {
	var edges []*core.MembershipEdge
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		edges, err = s.readEdges(tx, makePartialEdgeContentKey(contentID))
		return err
	}, false)
	return edges, err
}

// DemotePrimaryEdges clears the primary flag on every edge of a content item.
func (s *Store) DemotePrimaryEdges(ctx context.Context, contentID core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		edges, err := s.readEdges(tx, makePartialEdgeContentKey(contentID))
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if !edge.IsPrimary {
				continue
			}
			edge.IsPrimary = false
			value, err := storage.MarshalEdge(edge)
			if err != nil {
				return err
			}
			if err := tx.Set(makeEdgeClusterKey(edge.ClusterId, edge.ContentId), value); err != nil {
				return err
			}
			if err := tx.Set(makeEdgeContentKey(edge.ContentId, edge.ClusterId), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readCluster reads a cluster from the transaction.
// Returns (nil, nil) when the key is absent.
func (s *Store) readCluster(tx *badger.Txn, key []byte) (*core.Cluster, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var cluster *core.Cluster
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		cluster, unmarshalErr = storage.UnmarshalCluster(val)
		return unmarshalErr
	})
	return cluster, err
}

// readEdges collects all edges stored under a key prefix.
func (s *Store) readEdges(tx *badger.Txn, prefix []byte) ([]*core.MembershipEdge, error) {
	var edges []*core.MembershipEdge

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
			break
		}
		var edge *core.MembershipEdge
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			edge, err = storage.UnmarshalEdge(val)
			return err
		}); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}
