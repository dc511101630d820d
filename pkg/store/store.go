// Package store caches document-level answers in an embedded badger
// database keyed by basket id, so repeated questions against unchanged
// documents skip the scoring round trip.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/soundprediction/estratto/pkg/types"
)

// Store is a badger-backed answer cache.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) a cache at path. ttl bounds entry lifetime; zero
// keeps entries until overwritten.
func Open(path string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open answer cache at %s: %w", path, err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the answers for a basket.
func (s *Store) Put(basketID string, answers []types.Answer) error {
	val, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers for %s: %w", basketID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(basketID), val)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get returns the cached answers for a basket. The second return value
// reports whether the basket was present.
func (s *Store) Get(basketID string) ([]types.Answer, bool, error) {
	var answers []types.Answer
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(basketID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &answers)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read answers for %s: %w", basketID, err)
	}
	return answers, true, nil
}

// Delete removes a basket's cached answers.
func (s *Store) Delete(basketID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(basketID))
	})
}
