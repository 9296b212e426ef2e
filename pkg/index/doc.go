// Package index implements the lexical layer: an inverted index over entity
// text and the TF-IDF and BM25 rankers that score against it.
//
// The Index maps normalized terms to posting lists of (document, term
// frequency, positions). It supports incremental maintenance: adding a
// document appends its postings, and removing a document fully erases them
// before any re-add, so stale postings can never leak into later result
// sets. A wholesale Clear recovers from external mutation.
//
// The Manager wraps an Index with the sharing rules queries rely on: the
// index is built lazily on first use, a single in-flight build is coalesced
// when several queries trigger it concurrently, and a rebuild in progress is
// never observable as a complete index. Store mutation events are applied
// incrementally through Apply.
//
// Index statistics (document count, vocabulary size, average document
// length) feed the query cost estimator.
package index
