// Package badger adapts orca.Memory to a BadgerDB-backed append log, so
// pipeline history survives process restarts instead of living only in
// process memory (§4.5).
package badger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/orcarun/orca"
)

// turn is one persisted prompt/response pair, in the order it was saved.
type turn struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// Store is an orca.Memory backed by a BadgerDB directory. Each turn is
// written under a monotonically increasing key so Load can replay them in
// order; Save and Clear never return an error, matching the Memory
// interface, but LastError reports the most recent persistence failure
// (from Save, Load, or Clear) so callers
// that care can still observe it.
type Store struct {
	mu        sync.Mutex
	db        *badger.DB
	seq       uint64
	lastError error
}

// Open opens (or creates) a BadgerDB at path for use as a Memory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("orca/memory/badger: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.loadSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) loadSeq() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Rewind()
		if it.Valid() {
			s.seq = binary.BigEndian.Uint64(it.Item().Key()) + 1
		}
		return nil
	})
}

func turnKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// Save implements orca.Memory, appending a turn under the next sequence key.
func (s *Store) Save(prompt, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(turn{Prompt: prompt, Response: response})
	if err != nil {
		s.lastError = err
		return
	}
	key := turnKey(s.seq)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		s.lastError = err
		return
	}
	s.seq++
}

// Load implements orca.Memory, replaying every saved turn as a flat
// newline-separated transcript in save order.
func (s *Store) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var t turn
				if err := json.Unmarshal(val, &t); err != nil {
					return err
				}
				if t.Prompt != "" {
					out = append(out, t.Prompt)
				}
				if t.Response != "" {
					out = append(out, t.Response)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.lastError = err
		return ""
	}

	result := ""
	for i, t := range out {
		if i > 0 {
			result += "\n"
		}
		result += t
	}
	return result
}

// Clear implements orca.Memory, dropping every persisted turn.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DropAll(); err != nil {
		s.lastError = err
		return
	}
	s.seq = 0
}

// LastError returns the most recent persistence error observed by Save,
// Load, or Clear, if any.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ orca.Memory = (*Store)(nil)
