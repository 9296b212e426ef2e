package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyName is returned when an entity has no name.
	ErrEmptyName = errors.New("entity name must not be empty")
	// ErrImportanceRange is returned when importance falls outside [0,10].
	ErrImportanceRange = errors.New("entity importance must be in [0,10]")
	// ErrEntityNotFound is returned by stores when a lookup misses.
	ErrEntityNotFound = errors.New("entity not found")
)

// Entity is a named node in the knowledge graph. Names are globally unique
// within one graph snapshot; tags are stored lowercase.
type Entity struct {
	Name         string     `json:"name" yaml:"name"`
	Type         string     `json:"type" yaml:"type"`
	Observations []string   `json:"observations,omitempty" yaml:"observations,omitempty"`
	Tags         []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Importance   *float64   `json:"importance,omitempty" yaml:"importance,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Validate checks the entity's structural invariants.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Importance != nil && (*e.Importance < 0 || *e.Importance > 10) {
		return fmt.Errorf("%w: got %v", ErrImportanceRange, *e.Importance)
	}
	return nil
}

// HasTag reports whether the entity carries the given tag (case-insensitive).
func (e *Entity) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range e.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

// SearchText returns the text the lexical layer indexes: name, type label,
// and every observation, newline-joined.
func (e *Entity) SearchText() string {
	parts := make([]string, 0, len(e.Observations)+2)
	parts = append(parts, e.Name, e.Type)
	parts = append(parts, e.Observations...)
	return strings.Join(parts, "\n")
}

// Clone returns a deep copy so callers can hold results across store mutations.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	clone := &Entity{
		Name: e.Name,
		Type: e.Type,
	}
	if len(e.Observations) > 0 {
		clone.Observations = append([]string(nil), e.Observations...)
	}
	if len(e.Tags) > 0 {
		clone.Tags = append([]string(nil), e.Tags...)
	}
	if e.Importance != nil {
		v := *e.Importance
		clone.Importance = &v
	}
	if e.CreatedAt != nil {
		t := *e.CreatedAt
		clone.CreatedAt = &t
	}
	if e.UpdatedAt != nil {
		t := *e.UpdatedAt
		clone.UpdatedAt = &t
	}
	return clone
}

// Relation is a typed, directed edge between two entities, identified by name.
type Relation struct {
	Source    string     `json:"source" yaml:"source"`
	Target    string     `json:"target" yaml:"target"`
	Type      string     `json:"type" yaml:"type"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Validate checks that both endpoints and the relation type are set.
func (r *Relation) Validate() error {
	if r.Source == "" || r.Target == "" {
		return errors.New("relation endpoints must not be empty")
	}
	if r.Type == "" {
		return errors.New("relation type must not be empty")
	}
	return nil
}

// Graph is one immutable snapshot of the store's contents.
type Graph struct {
	Entities  []*Entity   `json:"entities" yaml:"entities"`
	Relations []*Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// EntityByName returns the snapshot's entity with the given name, or nil.
func (g *Graph) EntityByName(name string) *Entity {
	for _, e := range g.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// MutationKind identifies what happened to an entity in the store.
type MutationKind int

const (
	// EntityCreated signals a new entity was added.
	EntityCreated MutationKind = iota
	// EntityUpdated signals an existing entity changed.
	EntityUpdated
	// EntityDeleted signals an entity was removed.
	EntityDeleted
)

// String returns a human-readable mutation kind.
func (k MutationKind) String() string {
	switch k {
	case EntityCreated:
		return "created"
	case EntityUpdated:
		return "updated"
	case EntityDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MutationEvent is raised by the graph store on every entity change. The
// search engine uses it to drive incremental index maintenance and cache
// invalidation.
type MutationEvent struct {
	Kind   MutationKind
	Name   string
	Entity *Entity // nil for deletes
	At     time.Time
}
