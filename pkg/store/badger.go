package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/latticesearch/lattice/pkg/types"
)

const (
	entityPrefix   = "entity/"
	relationPrefix = "relation/"
)

// BadgerStore is a persistent GraphStore on BadgerDB. Entities and relations
// are stored as JSON values under prefixed keys.
type BadgerStore struct {
	db *badger.DB

	mu        sync.Mutex
	listeners []func(types.MutationEvent)
}

// OpenBadgerStore opens (or creates) a badger-backed store at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Snapshot implements GraphStore.
func (s *BadgerStore) Snapshot(ctx context.Context) (*types.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := &types.Graph{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(val []byte) error {
				switch {
				case strings.HasPrefix(key, entityPrefix):
					var e types.Entity
					if err := json.Unmarshal(val, &e); err != nil {
						return fmt.Errorf("decode entity %q: %w", key, err)
					}
					g.Entities = append(g.Entities, &e)
				case strings.HasPrefix(key, relationPrefix):
					var r types.Relation
					if err := json.Unmarshal(val, &r); err != nil {
						return fmt.Errorf("decode relation %q: %w", key, err)
					}
					g.Relations = append(g.Relations, &r)
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
		return nil, err
	}
	sort.Slice(g.Entities, func(i, j int) bool {
		return g.Entities[i].Name < g.Entities[j].Name
	})
	return g, nil
}

// GetEntity implements GraphStore.
func (s *BadgerStore) GetEntity(ctx context.Context, name string) (*types.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var e types.Entity
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entityPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, types.ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Subscribe implements GraphStore.
func (s *BadgerStore) Subscribe(fn func(types.MutationEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close implements GraphStore.
func (s *BadgerStore) Close() error { return s.db.Close() }

// PutEntity creates or replaces an entity.
func (s *BadgerStore) PutEntity(ctx context.Context, e *types.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	stored := e.Clone()
	for i, tag := range stored.Tags {
		stored.Tags[i] = strings.ToLower(tag)
	}
	now := time.Now().UTC()
	if stored.CreatedAt == nil {
		stored.CreatedAt = &now
	}
	stored.UpdatedAt = &now

	key := []byte(entityPrefix + stored.Name)
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			existed = true
		}
		val, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
	if err != nil {
		return fmt.Errorf("put entity %q: %w", stored.Name, err)
	}

	kind := types.EntityCreated
	if existed {
		kind = types.EntityUpdated
	}
	s.notify(types.MutationEvent{Kind: kind, Name: stored.Name, Entity: stored, At: now})
	return nil
}

// DeleteEntity removes an entity and every relation touching it.
func (s *BadgerStore) DeleteEntity(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(entityPrefix + name)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}

		// Collect relation keys first; deleting while iterating is undefined.
		var stale [][]byte
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := []byte(relationPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var r types.Relation
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				it.Close()
				return err
			}
			if r.Source == name || r.Target == name {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		it.Close()
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return types.ErrEntityNotFound
	}
	if err != nil {
		return fmt.Errorf("delete entity %q: %w", name, err)
	}
	s.notify(types.MutationEvent{Kind: types.EntityDeleted, Name: name, At: time.Now().UTC()})
	return nil
}

// AddRelation appends a typed edge. Both endpoints must exist.
func (s *BadgerStore) AddRelation(ctx context.Context, r *types.Relation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	stored := &types.Relation{Source: r.Source, Target: r.Target, Type: r.Type, CreatedAt: &now}
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(entityPrefix + r.Source)); err != nil {
			return err
		}
		if _, err := txn.Get([]byte(entityPrefix + r.Target)); err != nil {
			return err
		}
		val, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set([]byte(relationPrefix+uuid.New().String()), val)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return types.ErrEntityNotFound
	}
	return err
}

func (s *BadgerStore) notify(ev types.MutationEvent) {
	s.mu.Lock()
	listeners := append([]func(types.MutationEvent){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
