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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/curator/storage"
)

const (
	// defaultStatusTTL bounds how long terminal job status records survive.
	defaultStatusTTL = time.Hour

	// maxDequeueRetries bounds transaction conflict retries on Dequeue.
	maxDequeueRetries = 10
)

// Store implements storage.Store on top of a single BadgerDB database.
// Jobs, content items, clusters, edges, and suggestion cache entries all
// live in one keyspace, separated by key prefixes.
type Store struct {
	backend    *Backend
	jobSeq     *badger.Sequence
	clusterSeq *badger.Sequence
	statusTTL  time.Duration
}

var _ storage.Store = (*Store)(nil)

// NewStore opens a persistent store at the given directory path.
func NewStore(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend)
}

func newStore(backend *Backend) (*Store, error) {
	jobSeq, err := backend.GetSequence(jobIDSeq)
	if err != nil {
		backend.Close()
		return nil, err
	}
	clusterSeq, err := backend.GetSequence(clusterIDSeq)
	if err != nil {
		jobSeq.Release()
		backend.Close()
		return nil, err
	}

	return &Store{
		backend:    backend,
		jobSeq:     jobSeq,
		clusterSeq: clusterSeq,
		statusTTL:  defaultStatusTTL,
	}, nil
}

// Close releases the ID sequences and closes the database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	err := s.jobSeq.Release()
	if releaseErr := s.clusterSeq.Release(); err == nil {
		err = releaseErr
	}
	if closeErr := s.backend.Close(); err == nil {
		err = closeErr
	}
	return err
}

// WithTransaction delegates to the backend.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.WithTransaction(ctx, fn)
}

// nextID draws the next non-zero value from a sequence.
// BadgerDB sequences can return 0 on first call, so we skip it.
func nextID(seq *badger.Sequence) (uint64, error) {
	next, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return next, nil
}

// isConflict reports whether an error is a badger transaction conflict.
func isConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}
