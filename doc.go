// Package lattice is an embedded multi-layer search and ranking engine for
// small in-memory knowledge graphs.
//
// A graph of named entities (type labels, observations, tags, importance,
// timestamps) is scored through three layers: semantic (embedding cosine
// similarity), lexical (TF-IDF/BM25 over an inverted index), and symbolic
// (structured tag/type/importance/date constraints). A hybrid fusion layer
// normalizes caller weights and merges per-layer scores into one ranked
// list, and an adaptive planner runs the cheapest strategies first, stopping
// as soon as an adequacy score clears its threshold.
//
// Queries use a small boolean mini-language:
//
//	person AND NOT manager
//	"machine learning"~3 OR type:company
//	name:ali* tag:engineer
//
// Basic usage:
//
//	st := store.NewMemoryStore()
//	engine, err := lattice.New(st, nil, lattice.DefaultConfig(), nil)
//	if err != nil { ... }
//	defer engine.Close()
//
//	results, err := engine.Search(ctx, "database engineer", nil)
//
// The embedding provider is optional: without one the semantic layer scores
// zero everywhere and lexical plus symbolic evidence carry the ranking.
package lattice
