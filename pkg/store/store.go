package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/latticesearch/lattice/pkg/types"
)

// GraphStore is the collaborator the search engine reads the graph through.
type GraphStore interface {
	// Snapshot returns the full current entity and relation collections.
	Snapshot(ctx context.Context) (*types.Graph, error)
	// GetEntity looks up a single entity by name. Returns
	// types.ErrEntityNotFound when the name is unknown.
	GetEntity(ctx context.Context, name string) (*types.Entity, error)
	// Subscribe registers a listener for entity mutation events. Listeners
	// are invoked synchronously, after the mutation is applied.
	Subscribe(fn func(types.MutationEvent))
	// Close releases store resources.
	Close() error
}

// MemoryStore is a mutable in-memory GraphStore. It is safe for concurrent
// use; snapshots are deep copies so queries never observe later mutations.
type MemoryStore struct {
	mu        sync.RWMutex
	entities  map[string]*types.Entity
	relations []*types.Relation
	listeners []func(types.MutationEvent)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entities: make(map[string]*types.Entity)}
}

// NewMemoryStoreFromGraph creates a store seeded with the given graph.
// Entity names must be unique; later duplicates replace earlier ones.
func NewMemoryStoreFromGraph(g *types.Graph) *MemoryStore {
	s := NewMemoryStore()
	if g == nil {
		return s
	}
	for _, e := range g.Entities {
		s.entities[e.Name] = e.Clone()
	}
	for _, r := range g.Relations {
		s.relations = append(s.relations, &types.Relation{
			Source: r.Source, Target: r.Target, Type: r.Type, CreatedAt: r.CreatedAt,
		})
	}
	return s
}

// Snapshot implements GraphStore. Entities are returned sorted by name so
// downstream ranking is deterministic for equal scores.
func (s *MemoryStore) Snapshot(ctx context.Context) (*types.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := &types.Graph{
		Entities:  make([]*types.Entity, 0, len(s.entities)),
		Relations: make([]*types.Relation, 0, len(s.relations)),
	}
	for _, e := range s.entities {
		g.Entities = append(g.Entities, e.Clone())
	}
	sort.Slice(g.Entities, func(i, j int) bool {
		return g.Entities[i].Name < g.Entities[j].Name
	})
	for _, r := range s.relations {
		g.Relations = append(g.Relations, &types.Relation{
			Source: r.Source, Target: r.Target, Type: r.Type, CreatedAt: r.CreatedAt,
		})
	}
	return g, nil
}

// GetEntity implements GraphStore.
func (s *MemoryStore) GetEntity(ctx context.Context, name string) (*types.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[name]
	if !ok {
		return nil, types.ErrEntityNotFound
	}
	return e.Clone(), nil
}

// Subscribe implements GraphStore.
func (s *MemoryStore) Subscribe(fn func(types.MutationEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close implements GraphStore. A memory store holds no external resources.
func (s *MemoryStore) Close() error { return nil }

// PutEntity creates or replaces an entity, normalizing tags to lowercase and
// stamping timestamps. A replaced entity raises an update event.
func (s *MemoryStore) PutEntity(ctx context.Context, e *types.Entity) error {
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

	s.mu.Lock()
	_, existed := s.entities[stored.Name]
	s.entities[stored.Name] = stored
	listeners := append([]func(types.MutationEvent){}, s.listeners...)
	s.mu.Unlock()

	kind := types.EntityCreated
	if existed {
		kind = types.EntityUpdated
	}
	s.notify(listeners, types.MutationEvent{Kind: kind, Name: stored.Name, Entity: stored.Clone(), At: now})
	return nil
}

// DeleteEntity removes an entity and every relation touching it.
func (s *MemoryStore) DeleteEntity(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, ok := s.entities[name]
	if !ok {
		s.mu.Unlock()
		return types.ErrEntityNotFound
	}
	delete(s.entities, name)
	kept := s.relations[:0]
	for _, r := range s.relations {
		if r.Source != name && r.Target != name {
			kept = append(kept, r)
		}
	}
	s.relations = kept
	listeners := append([]func(types.MutationEvent){}, s.listeners...)
	s.mu.Unlock()

	s.notify(listeners, types.MutationEvent{Kind: types.EntityDeleted, Name: name, At: time.Now().UTC()})
	return nil
}

// AddRelation appends a typed edge. Both endpoints must exist.
func (s *MemoryStore) AddRelation(ctx context.Context, r *types.Relation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[r.Source]; !ok {
		return types.ErrEntityNotFound
	}
	if _, ok := s.entities[r.Target]; !ok {
		return types.ErrEntityNotFound
	}
	now := time.Now().UTC()
	s.relations = append(s.relations, &types.Relation{
		Source: r.Source, Target: r.Target, Type: r.Type, CreatedAt: &now,
	})
	return nil
}

func (s *MemoryStore) notify(listeners []func(types.MutationEvent), ev types.MutationEvent) {
	for _, fn := range listeners {
		fn(ev)
	}
}
