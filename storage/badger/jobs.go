package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/storage"
)

// Enqueue persists a job on the named queue and returns its generated ID.
func (s *Store) Enqueue(ctx context.Context, queue string, payload []byte, priority core.Priority) (core.ID, error) {
	if err := core.ValidatePriority(priority); err != nil {
		return 0, err
	}

	seq, err := nextID(s.jobSeq)
	if err != nil {
		return 0, err
	}

	job := &core.Job{
		Id:          core.ID(seq),
		Queue:       queue,
		Payload:     payload,
		Priority:    priority,
		CreatedAt:   time.Now().UTC(),
		MaxAttempts: 3,
	}

	value, err := storage.MarshalJob(job)
	if err != nil {
		return 0, err
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(queue, priority, seq), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	return job.Id, nil
}

// Dequeue atomically removes and returns the next job from the named queue.
// Returns (nil, nil) when the queue is empty. Priority order comes straight
// from key order: the first key under the queue prefix is the next job.
// Concurrent dequeuers racing for the same key conflict at commit; the loser
// retries and picks up the next remaining job.
func (s *Store) Dequeue(ctx context.Context, queue string) (*core.Job, error) {
	for attempt := 0; attempt < maxDequeueRetries; attempt++ {
		var job *core.Job

		err := s.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeJobQueuePrefix(queue)
			iter := tx.NewIterator(opts)

			iter.Rewind()
			if !iter.Valid() {
				iter.Close()
				return nil
			}

			item := iter.Item()
			key := item.KeyCopy(nil)
			err := item.Value(func(val []byte) error {
				var unmarshalErr error
				job, unmarshalErr = storage.UnmarshalJob(val)
				return unmarshalErr
			})
			iter.Close()
			if err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
			return tx.Commit()
		}, true)

		if err == nil {
			return job, nil
		}
		if !isConflict(err) {
			return nil, err
		}
	}

	return nil, storage.ErrContention
}

// SetJobStatus records a terminal outcome for a job. The record carries a
// TTL; once it expires the job reads as pending again.
func (s *Store) SetJobStatus(ctx context.Context, record *core.JobStatusRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	value, err := storage.MarshalJobStatus(record)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeJobStatusKey(record.JobId), value).WithTTL(s.statusTTL)
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJobStatus returns the terminal record for a job, or nil if none exists.
func (s *Store) GetJobStatus(ctx context.Context, jobID core.ID) (*core.JobStatusRecord, error) {
	var record *core.JobStatusRecord

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeJobStatusKey(jobID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalJobStatus(val)
			return unmarshalErr
		})
	}, false)

	return record, err
}

// QueueDepths returns the number of waiting jobs per priority on a queue.
func (s *Store) QueueDepths(ctx context.Context, queue string) (map[core.Priority]int, error) {
	depths := map[core.Priority]int{
		core.PriorityHigh:   0,
		core.PriorityNormal: 0,
		core.PriorityLow:    0,
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for priority := range depths {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeJobPriorityPrefix(queue, priority)
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)

			count := 0
			for iter.Rewind(); iter.Valid(); iter.Next() {
				count++
			}
			iter.Close()
			depths[priority] = count
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return depths, nil
}
