package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

// AddContentItem stores a new content item under its caller-assigned ID.
func (s *Store) AddContentItem(ctx context.Context, item *core.ContentItem) (*core.ContentItem, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeContentKey(item.Id)

		existing, err := s.readContentItem(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrDuplicateKey
		}

		now := time.Now().UTC()
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now

		value, err := storage.MarshalContentItem(item)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		ownerKey := makeContentOwnerKey(item.OwnerId, item.CreatedAt, item.Id)
		if err := tx.Set(ownerKey, storage.MarshalID(item.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return item, err
}

// UpdateContentItem overwrites an existing content item.
// CreatedAt is immutable, so the owner index entry never moves.
func (s *Store) UpdateContentItem(ctx context.Context, item *core.ContentItem) (*core.ContentItem, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeContentKey(item.Id)

		old, err := s.readContentItem(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		item.CreatedAt = old.CreatedAt
		item.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalContentItem(item)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return item, err
}

// GetContentItem retrieves a single content item by ID.
func (s *Store) GetContentItem(ctx context.Context, id core.ID) (*core.ContentItem, error) {
	var result *core.ContentItem
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = s.readContentItem(tx, makeContentKey(id))
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

// GetContentItems retrieves multiple items by ID. Missing items are skipped.
func (s *Store) GetContentItems(ctx context.Context, ids ...core.ID) ([]*core.ContentItem, error) {
	var result []*core.ContentItem
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := s.readContentItem(tx, makeContentKey(id))
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetContentByOwner retrieves an owner's items newest first, up to limit
// (0 means no limit).
func (s *Store) GetContentByOwner(ctx context.Context, ownerID core.ID, limit int) ([]*core.ContentItem, error) {
	var results []*core.ContentItem

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makePartialContentOwnerKey(ownerID)

		// Seek past the last possible key for this owner, then walk backwards.
		startKey := makeContentOwnerKey(ownerID, time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC), core.ID(^uint64(0)))

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var contentID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				contentID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := s.readContentItem(tx, makeContentKey(contentID))
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
				if limit > 0 && len(results) >= limit {
					break
				}
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteContentItem removes an item, its owner index entry, and all of its
// membership edges.
func (s *Store) DeleteContentItem(ctx context.Context, id core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeContentKey(id)

		item, err := s.readContentItem(tx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		edges, err := s.readEdges(tx, makePartialEdgeContentKey(id))
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if err := tx.Delete(makeEdgeContentKey(edge.ContentId, edge.ClusterId)); err != nil {
				return err
			}
			if err := tx.Delete(makeEdgeClusterKey(edge.ClusterId, edge.ContentId)); err != nil {
				return err
			}
		}

		ownerKey := makeContentOwnerKey(item.OwnerId, item.CreatedAt, item.Id)
		if err := tx.Delete(ownerKey); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readContentItem reads a content item from the transaction.
// Returns (nil, nil) when the key is absent.
func (s *Store) readContentItem(tx *badger.Txn, key []byte) (*core.ContentItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ContentItem
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalContentItem(val)
		return unmarshalErr
	})
	return record, err
}
