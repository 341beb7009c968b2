package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

// PutSuggestions caches cluster suggestions for a content item with a TTL.
func (s *Store) PutSuggestions(ctx context.Context, contentID core.ID, suggestions []core.Suggestion, ttl time.Duration) error {
	value, err := storage.MarshalSuggestions(suggestions)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeSuggestionKey(contentID), value).WithTTL(ttl)
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSuggestions returns cached suggestions for a content item, or nil when
// no entry exists or it has expired. A miss is not an error.
func (s *Store) GetSuggestions(ctx context.Context, contentID core.ID) ([]core.Suggestion, error) {
	var suggestions []core.Suggestion

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSuggestionKey(contentID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			suggestions, unmarshalErr = storage.UnmarshalSuggestions(val)
			return unmarshalErr
		})
	}, false)

	return suggestions, err
}
