package fuzzy

import (
	"context"
	"sort"

	"github.com/latticesearch/lattice/pkg/types"
	"github.com/latticesearch/lattice/pkg/workerpool"
)

// DefaultThreshold is the minimum similarity a candidate must reach.
const DefaultThreshold = 0.7

// defaultChunkSize balances dispatch overhead against parallelism for the
// small graphs this engine targets.
const defaultChunkSize = 64

// Match is one accepted candidate: the entity, the text that matched, and
// its similarity.
type Match struct {
	Entity     *types.Entity
	Matched    string
	Similarity float64
}

// Batch is the plain-data payload dispatched to the worker pool for one
// chunk of entities.
type Batch struct {
	Query     string
	Threshold float64
	Entities  []*types.Entity
}

// ScoreBatch scores one chunk sequentially. It is both the pool handler body
// and the sequential fallback.
func ScoreBatch(b Batch) []Match {
	var out []Match
	for _, e := range b.Entities {
		if m, ok := bestMatch(b.Query, e, b.Threshold); ok {
			out = append(out, m)
		}
	}
	return out
}

// bestMatch scans the entity's name, type, tags, and observation words for
// the highest-similarity candidate string.
func bestMatch(query string, e *types.Entity, threshold float64) (Match, bool) {
	best := Match{Entity: e, Similarity: -1}
	consider := func(text string) {
		if text == "" {
			return
		}
		if sim := Similarity(query, text); sim > best.Similarity {
			best.Matched = text
			best.Similarity = sim
		}
	}
	consider(e.Name)
	consider(e.Type)
	for _, tag := range e.Tags {
		consider(tag)
	}
	for _, obs := range e.Observations {
		for _, word := range splitWords(obs) {
			consider(word)
		}
	}
	if best.Similarity >= threshold {
		return best, true
	}
	return Match{}, false
}

// Matcher runs approximate search over entity sets. With a pool it scores
// chunks in parallel; without one it scans sequentially.
type Matcher struct {
	pool      *workerpool.Pool
	threshold float64
	chunkSize int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithPool scores chunks on the given worker pool. The pool must have a
// handler for workerpool.TaskLevenshteinBatch; Handler provides one.
func WithPool(p *workerpool.Pool) Option {
	return func(m *Matcher) { m.pool = p }
}

// WithThreshold overrides the default similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) { m.threshold = threshold }
}

// WithChunkSize overrides the per-batch entity count.
func WithChunkSize(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// NewMatcher creates a matcher. Without WithPool it always runs
// sequentially.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold, chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the similarity cutoff in effect.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Handler returns the pool handler for levenshtein batches, for registration
// under workerpool.TaskLevenshteinBatch.
func Handler() workerpool.Handler {
	return func(ctx context.Context, payload any) (any, error) {
		b, ok := payload.(Batch)
		if !ok {
			return nil, workerpool.ErrUnknownTaskKind
		}
		return ScoreBatch(b), nil
	}
}

// Search scores every entity against the query and returns accepted matches
// ordered by similarity descending, ties broken by entity name. Parallel
// dispatch failures fall back to a sequential scan of the affected chunks;
// only context cancellation aborts the search.
func (m *Matcher) Search(ctx context.Context, query string, entities []*types.Entity) ([]Match, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	chunks := chunkEntities(entities, m.chunkSize)
	var matches []Match

	remaining := chunks
	if m.pool != nil {
		scored, leftover, err := m.searchParallel(ctx, query, chunks)
		if err != nil {
			return nil, err
		}
		matches = scored
		remaining = leftover
	}

	for _, chunk := range remaining {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches = append(matches, ScoreBatch(Batch{Query: query, Threshold: m.threshold, Entities: chunk})...)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Entity.Name < matches[j].Entity.Name
	})
	return matches, nil
}

// searchParallel dispatches all chunks to the pool. Chunks whose dispatch or
// handler failed are returned for sequential retry.
func (m *Matcher) searchParallel(ctx context.Context, query string, chunks [][]*types.Entity) ([]Match, [][]*types.Entity, error) {
	tasks := make([]workerpool.Task, len(chunks))
	for i, chunk := range chunks {
		tasks[i] = workerpool.Task{
			Kind:    workerpool.TaskLevenshteinBatch,
			Payload: Batch{Query: query, Threshold: m.threshold, Entities: chunk},
		}
	}

	results, err := m.pool.Process(ctx, tasks)
	if err != nil {
		// Pool unavailable: every chunk falls back.
		return nil, chunks, nil
	}

	var matches []Match
	var failed [][]*types.Entity
	for _, r := range results {
		if r.Err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			failed = append(failed, chunks[r.Index])
			continue
		}
		scored, ok := r.Payload.([]Match)
		if !ok {
			failed = append(failed, chunks[r.Index])
			continue
		}
		matches = append(matches, scored...)
	}
	return matches, failed, nil
}

func chunkEntities(entities []*types.Entity, size int) [][]*types.Entity {
	var chunks [][]*types.Entity
	for i := 0; i < len(entities); i += size {
		end := i + size
		if end > len(entities) {
			end = len(entities)
		}
		chunks = append(chunks, entities[i:end])
	}
	return chunks
}

func splitWords(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		isWord := r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if isWord {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}
