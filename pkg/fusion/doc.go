// Package fusion merges per-layer score streams into one ranked result list.
//
// Each layer (semantic, lexical, symbolic) contributes scores in [0,1].
// Weights are normalized to sum to 1 before combination, so combined scores
// stay in [0,1]. Merging is by entity identity: when the same entity arrives
// from two strategies the higher combined score wins and the matched-layer
// sets are unioned; an entity is never dropped just because one layer scored
// it zero. Final ordering is combined score descending with ties broken by
// entity name, so ranking is deterministic across runs.
package fusion
