package lattice

import (
	"context"

	"github.com/latticesearch/lattice/pkg/fuzzy"
	"github.com/latticesearch/lattice/pkg/types"
)

// This file defines focused interfaces over the Engine. Consumers should
// depend on the smallest interface that meets their needs.

// Searcher provides the direct search operations.
type Searcher interface {
	// Search runs the hybrid three-layer scan and returns ranked results.
	Search(ctx context.Context, queryText string, opts *SearchOptions) (*types.SearchResults, error)

	// SearchBoolean evaluates the query mini-language as a boolean AST and
	// returns the matching set.
	SearchBoolean(ctx context.Context, queryText string) ([]*types.Entity, error)

	// SearchFuzzy matches entities by Levenshtein similarity.
	SearchFuzzy(ctx context.Context, queryText string, threshold float64) ([]fuzzy.Match, error)
}

// Advisor provides the adaptive planning operations.
type Advisor interface {
	// SearchAuto runs the cost-ordered adaptive plan with early termination.
	SearchAuto(ctx context.Context, queryText string, opts *SearchOptions) (*types.SearchResults, error)

	// EstimateCost ranks strategies for a query without executing any.
	EstimateCost(ctx context.Context, queryText string) (*types.CostReport, error)
}

// Compile-time checks that Engine satisfies the focused interfaces.
var (
	_ Searcher = (*Engine)(nil)
	_ Advisor  = (*Engine)(nil)
)
