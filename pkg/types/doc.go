// Package types defines the core data model shared across the lattice engine.
//
// The central type is Entity: a named node in the knowledge graph carrying a
// type label, free-text observations, lowercase tags, and optional importance
// and timestamps. Entities are owned by the graph store; the search engine
// treats them as read-only snapshots.
//
// The package also defines the scoring vocabulary used by every search layer:
//   - Layer: the closed set of scoring layers (semantic, lexical, symbolic)
//   - LayerScores / ScoredEntity: per-layer and combined scores for one entity
//   - Strategy: the closed set of executable search strategies
//   - CostEstimate / CostReport: the cost estimator's advisory output
//   - AdequacyReport: the early-termination planner's stop decision record
//
// All score values are in [0,1]; 0 always means "no evidence", never "unknown".
package types
