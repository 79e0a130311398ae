// Package registry provides a persistent hard-dependency index backed by
// Badger. It implements resolver.Registry for the vault CLI.
package registry

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/resolver"
	"github.com/jamesainslie/vault/pkg/vault/types"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a node is not in the index.
var ErrNotFound = errors.New("node not found in index")

const (
	nodePrefix = "n:"
	stateKey   = "m:state"

	stateIndexing = "indexing"
	stateReady    = "ready"
)

// Store is a Badger-backed dependency index.
type Store struct {
	db *badger.DB
}

// Open opens or creates an index at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return open(opts)
}

// OpenInMemory opens an index that is discarded on Close.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open dependency index: %w", err)
	}
	return &Store{db: db}, nil
}

// ReadyAt opens the index at path just long enough to read its state. An
// index that another process holds open, such as a running load, cannot be
// opened and is reported with an error.
func ReadyAt(path string) (bool, error) {
	s, err := Open(path)
	if err != nil {
		return false, err
	}
	defer s.Close()
	return s.IsIndexReady(), nil
}

// Close closes the index.
func (s *Store) Close() error {
	return s.db.Close()
}

func nodeKey(id types.PackageID) []byte {
	return []byte(nodePrefix + string(id))
}

// node is the stored value for a package id.
type node struct {
	Deps []types.PackageID
}

func encodeDeps(deps []types.PackageID) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(node{Deps: deps}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeDeps(data []byte) ([]types.PackageID, error) {
	var n node
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&n); err != nil {
		return nil, err
	}
	return n.Deps, nil
}

// Get returns the recorded hard dependencies of id.
func (s *Store) Get(id types.PackageID) ([]types.PackageID, error) {
	var deps []types.PackageID
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			deps, err = decodeDeps(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// GetHardDependencies implements resolver.Registry. Unknown nodes are leaves.
func (s *Store) GetHardDependencies(ctx context.Context, id types.PackageID) ([]types.PackageID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deps, err := s.Get(id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return deps, err
}

// IsIndexReady implements resolver.Registry. The index is not ready while a
// load is in progress or after a load was interrupted.
func (s *Store) IsIndexReady() bool {
	state, err := s.state()
	if err != nil {
		logging.Get("registry").Warn("failed to read index state", "error", err)
		return false
	}
	return state != stateIndexing
}

func (s *Store) state() (string, error) {
	var state string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			state = stateReady
			return nil
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		state = string(val)
		return err
	})
	return state, err
}

func (s *Store) setState(state string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stateKey), []byte(state))
	})
}

// BeginIndexing marks the index as loading.
func (s *Store) BeginIndexing() error {
	return s.setState(stateIndexing)
}

// FinishIndexing marks the index as ready.
func (s *Store) FinishIndexing() error {
	return s.setState(stateReady)
}

// Put records the hard dependencies of id, replacing any previous entry.
func (s *Store) Put(id types.PackageID, deps []types.PackageID) error {
	value, err := encodeDeps(deps)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nodeKey(id), value)
	})
}

// AddDependencies appends deps to the entry for id, ignoring duplicates.
func (s *Store) AddDependencies(id types.PackageID, deps ...types.PackageID) error {
	current, err := s.Get(id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	for _, d := range deps {
		if !slices.Contains(current, d) {
			current = append(current, d)
		}
	}
	return s.Put(id, current)
}

// PutBatch records many entries in a single write batch.
func (s *Store) PutBatch(entries map[types.PackageID][]types.PackageID) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for id, deps := range entries {
		value, err := encodeDeps(deps)
		if err != nil {
			return err
		}
		if err := wb.Set(nodeKey(id), value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// RegisterNodes adds ids with no dependencies unless they are already known.
func (s *Store) RegisterNodes(ids []types.PackageID) error {
	empty, err := encodeDeps(nil)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			_, err := txn.Get(nodeKey(id))
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(nodeKey(id), empty); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes id from the index.
func (s *Store) Delete(id types.PackageID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nodeKey(id))
	})
}

// List returns the known node ids starting with prefix, sorted.
func (s *Store) List(prefix string) ([]types.PackageID, error) {
	var ids []types.PackageID
	full := []byte(nodePrefix + prefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(full); it.ValidForPrefix(full); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, types.PackageID(strings.TrimPrefix(key, nodePrefix)))
		}
		return nil
	})
	return ids, err
}

// Dependents returns the ids that hard-depend on id.
func (s *Store) Dependents(id types.PackageID) ([]types.PackageID, error) {
	var out []types.PackageID
	prefix := []byte(nodePrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				deps, err := decodeDeps(val)
				if err != nil {
					return err
				}
				if slices.Contains(deps, id) {
					out = append(out, types.PackageID(strings.TrimPrefix(string(item.Key()), nodePrefix)))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Clear removes every node from the index.
func (s *Store) Clear() error {
	return s.db.DropPrefix([]byte(nodePrefix))
}

// LoadYAML replaces the index with the dependency map read from r. The
// document maps each package id to its list of hard dependencies. It returns
// the number of nodes loaded. The index reports not-ready until the load
// completes.
func (s *Store) LoadYAML(r io.Reader) (int, error) {
	var doc map[string][]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to parse dependency map: %w", err)
	}

	entries := make(map[types.PackageID][]types.PackageID, len(doc))
	for id, deps := range doc {
		entries[types.PackageID(id)] = append(entries[types.PackageID(id)], toIDs(deps)...)
		for _, d := range deps {
			if _, ok := entries[types.PackageID(d)]; !ok {
				entries[types.PackageID(d)] = nil
			}
		}
	}

	if err := s.BeginIndexing(); err != nil {
		return 0, err
	}
	if err := s.Clear(); err != nil {
		return 0, err
	}
	if err := s.PutBatch(entries); err != nil {
		return 0, err
	}
	if err := s.FinishIndexing(); err != nil {
		return 0, err
	}

	logging.Get("registry").Info("dependency index loaded", "nodes", len(entries))
	return len(entries), nil
}

func toIDs(deps []string) []types.PackageID {
	out := make([]types.PackageID, 0, len(deps))
	for _, d := range deps {
		out = append(out, types.PackageID(d))
	}
	return out
}

var _ resolver.Registry = (*Store)(nil)
