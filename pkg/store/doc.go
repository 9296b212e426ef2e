// Package store provides the graph store the search engine reads from.
//
// The engine depends only on the GraphStore interface: a snapshot read, a
// single-entity lookup, and a subscription to mutation events. Two
// implementations ship with lattice:
//
//   - MemoryStore: a mutable in-memory store, the default for embedded use
//   - BadgerStore: a persistent store on BadgerDB for hosts that need the
//     graph to survive restarts
//
// Both raise a MutationEvent on every create, update, and delete; the engine
// uses these events to keep the inverted index and derived caches consistent
// with the live entity set.
package store
