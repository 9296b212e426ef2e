package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/latticesearch/lattice/pkg/types"
)

// LoadGraphFile reads a YAML graph description (entities plus relations) so
// the CLI can seed a store from disk. Every entity is validated before the
// graph is returned.
func LoadGraphFile(path string) (*types.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	return ParseGraph(data)
}

// ParseGraph decodes a YAML graph document.
func ParseGraph(data []byte) (*types.Graph, error) {
	var g types.Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	seen := make(map[string]bool, len(g.Entities))
	for _, e := range g.Entities {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate entity name %q", e.Name)
		}
		seen[e.Name] = true
	}
	for _, r := range g.Relations {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("relation %s-%s: %w", r.Source, r.Target, err)
		}
		if !seen[r.Source] || !seen[r.Target] {
			return nil, fmt.Errorf("relation %s-[%s]->%s references unknown entity", r.Source, r.Type, r.Target)
		}
	}
	return &g, nil
}
