package index

import (
	"context"
	"sync"

	"github.com/latticesearch/lattice/pkg/types"
)

// Posting records one document's occurrences of a term.
type Posting struct {
	Doc       string
	Frequency int
	Positions []int
}

// Stats summarizes the index for the cost estimator.
type Stats struct {
	DocCount       int
	VocabularySize int
	AvgDocLength   float64
}

// Options configure index construction.
type Options struct {
	// KeepStopwords disables stopword filtering, for exact-phrase-sensitive
	// callers.
	KeepStopwords bool
}

// Index is an inverted index from normalized terms to posting lists. It is
// safe for concurrent readers; writers take the exclusive lock.
type Index struct {
	mu          sync.RWMutex
	opts        Options
	postings    map[string]map[string]*Posting // term -> doc -> posting
	docLengths  map[string]int
	totalTokens int
}

// New creates an empty index.
func New(opts Options) *Index {
	ix := &Index{opts: opts}
	ix.reset()
	return ix
}

func (ix *Index) reset() {
	ix.postings = make(map[string]map[string]*Posting)
	ix.docLengths = make(map[string]int)
	ix.totalTokens = 0
}

func (ix *Index) tokenize(text string) []string {
	if ix.opts.KeepStopwords {
		return Tokenize(text)
	}
	return TokenizeFiltered(text)
}

// Add indexes a document's text under the given name. The caller must
// Remove an existing document first; Update does both.
func (ix *Index) Add(doc, text string) {
	tokens := ix.tokenize(text)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.addLocked(doc, tokens)
}

func (ix *Index) addLocked(doc string, tokens []string) {
	for pos, term := range tokens {
		byDoc, ok := ix.postings[term]
		if !ok {
			byDoc = make(map[string]*Posting)
			ix.postings[term] = byDoc
		}
		p, ok := byDoc[doc]
		if !ok {
			p = &Posting{Doc: doc}
			byDoc[doc] = p
		}
		p.Frequency++
		p.Positions = append(p.Positions, pos)
	}
	ix.docLengths[doc] = len(tokens)
	ix.totalTokens += len(tokens)
}

// Remove fully erases a document's postings. Removing before re-adding is
// the invariant that keeps re-indexed documents from retaining postings for
// terms they no longer contain.
func (ix *Index) Remove(doc string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(doc)
}

func (ix *Index) removeLocked(doc string) {
	length, ok := ix.docLengths[doc]
	if !ok {
		return
	}
	for term, byDoc := range ix.postings {
		if _, ok := byDoc[doc]; ok {
			delete(byDoc, doc)
			if len(byDoc) == 0 {
				delete(ix.postings, term)
			}
		}
	}
	delete(ix.docLengths, doc)
	ix.totalTokens -= length
}

// Update re-indexes a document, removing old postings first.
func (ix *Index) Update(doc, text string) {
	tokens := ix.tokenize(text)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(doc)
	ix.addLocked(doc, tokens)
}

// Clear drops every posting.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.reset()
}

// Postings returns the posting list for a term, nil when absent. The
// returned postings must not be mutated.
func (ix *Index) Postings(term string) []*Posting {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	byDoc, ok := ix.postings[term]
	if !ok {
		return nil
	}
	out := make([]*Posting, 0, len(byDoc))
	for _, p := range byDoc {
		out = append(out, p)
	}
	return out
}

// Posting returns one document's posting for a term.
func (ix *Index) Posting(term, doc string) (*Posting, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	byDoc, ok := ix.postings[term]
	if !ok {
		return nil, false
	}
	p, ok := byDoc[doc]
	return p, ok
}

// DocFrequency returns the number of documents containing the term.
func (ix *Index) DocFrequency(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings[term])
}

// DocLength returns a document's token count.
func (ix *Index) DocLength(doc string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docLengths[doc]
}

// HasDoc reports whether the document is indexed.
func (ix *Index) HasDoc(doc string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.docLengths[doc]
	return ok
}

// Stats implements the statistics surface the cost estimator reads.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	s := Stats{
		DocCount:       len(ix.docLengths),
		VocabularySize: len(ix.postings),
	}
	if s.DocCount > 0 {
		s.AvgDocLength = float64(ix.totalTokens) / float64(s.DocCount)
	}
	return s
}

// Source supplies the entities to index, typically a store snapshot read.
type Source func(ctx context.Context) ([]*types.Entity, error)

// Manager owns the shared index lifecycle: lazy build on first use,
// coalescing of concurrent builds, incremental maintenance from mutation
// events, and wholesale invalidation. A rebuild in progress is never
// observable: Acquire only returns once the index is complete.
type Manager struct {
	source Source
	opts   Options

	mu    sync.Mutex
	idx   *Index
	valid bool
}

// NewManager creates a manager over an entity source.
func NewManager(source Source, opts Options) *Manager {
	return &Manager{source: source, opts: opts, idx: New(opts)}
}

// Acquire returns the index, building it first if it is stale. Concurrent
// callers during a build block on the same build rather than starting their
// own.
func (m *Manager) Acquire(ctx context.Context) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid {
		return m.idx, nil
	}
	entities, err := m.source(ctx)
	if err != nil {
		return nil, err
	}
	// Build into a fresh index and swap only when complete, so readers of
	// the old index never see a partial rebuild.
	fresh := New(m.opts)
	for _, e := range entities {
		fresh.Add(e.Name, e.SearchText())
	}
	m.idx = fresh
	m.valid = true
	return m.idx, nil
}

// Invalidate marks the index stale; the next Acquire rebuilds from source.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.valid = false
	m.mu.Unlock()
}

// Apply folds one store mutation into the live index. When the index has
// not been built yet there is nothing to maintain; the next build reads the
// mutated snapshot anyway.
func (m *Manager) Apply(ev types.MutationEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.valid {
		return
	}
	switch ev.Kind {
	case types.EntityCreated, types.EntityUpdated:
		if ev.Entity == nil {
			m.valid = false
			return
		}
		m.idx.Update(ev.Entity.Name, ev.Entity.SearchText())
	case types.EntityDeleted:
		m.idx.Remove(ev.Name)
	}
}
