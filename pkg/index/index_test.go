package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticesearch/lattice/pkg/types"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"the", "quick", "brown", "fox"}, Tokenize("The quick, brown FOX!"))
	assert.Equal(t, []string{"quick", "brown", "fox"}, TokenizeFiltered("The quick, brown FOX!"))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestIndexAddAndStats(t *testing.T) {
	ix := New(Options{KeepStopwords: true})
	ix.Add("doc1", "the quick brown fox")
	ix.Add("doc2", "the lazy dog")

	stats := ix.Stats()
	assert.Equal(t, 2, stats.DocCount)
	assert.Equal(t, 7, stats.VocabularySize)
	assert.InDelta(t, 3.5, stats.AvgDocLength, 1e-9)

	p, ok := ix.Posting("the", "doc1")
	require.True(t, ok)
	assert.Equal(t, 1, p.Frequency)
	assert.Equal(t, []int{0}, p.Positions)
	assert.Equal(t, 2, ix.DocFrequency("the"))
}

func TestIndexUpdateErasesStalePostings(t *testing.T) {
	ix := New(Options{KeepStopwords: true})
	ix.Add("doc1", "alpha beta gamma")
	require.Equal(t, 1, ix.DocFrequency("beta"))

	ix.Update("doc1", "alpha delta")

	assert.Zero(t, ix.DocFrequency("beta"), "re-indexed document must not retain postings for removed terms")
	assert.Zero(t, ix.DocFrequency("gamma"))
	assert.Equal(t, 1, ix.DocFrequency("delta"))
	assert.Equal(t, 2, ix.DocLength("doc1"))
	assert.Equal(t, 1, ix.Stats().DocCount)
}

func TestIndexRemove(t *testing.T) {
	ix := New(Options{})
	ix.Add("doc1", "alpha beta")
	ix.Add("doc2", "beta gamma")
	ix.Remove("doc1")

	assert.False(t, ix.HasDoc("doc1"))
	assert.Zero(t, ix.DocFrequency("alpha"))
	assert.Equal(t, 1, ix.DocFrequency("beta"))
	assert.Equal(t, 1, ix.Stats().DocCount)

	// Removing an unknown document is a no-op.
	ix.Remove("doc3")
	assert.Equal(t, 1, ix.Stats().DocCount)
}

func TestIDF(t *testing.T) {
	assert.Zero(t, IDF(3, 3), "a term in every document has zero weight")
	assert.Zero(t, IDF(0, 0))
	assert.Zero(t, IDF(3, 0))
	assert.Greater(t, IDF(3, 1), IDF(3, 2))
}

func foxIndex() *Index {
	ix := New(Options{KeepStopwords: true})
	ix.Add("doc1", "the quick brown fox")
	ix.Add("doc2", "the lazy dog")
	ix.Add("doc3", "brown fox jumps")
	return ix
}

func TestBM25Ranking(t *testing.T) {
	r := NewBM25(foxIndex())

	got := r.Search("fox")
	require.Len(t, got, 2, "documents without any query term are not returned")
	docs := []string{got[0].Doc, got[1].Doc}
	assert.ElementsMatch(t, []string{"doc1", "doc3"}, docs)
	assert.Greater(t, got[0].Score, 0.0)

	// doc3 is shorter than doc1, so length normalization ranks it first.
	assert.Equal(t, "doc3", got[0].Doc)

	assert.Zero(t, r.Score("fox", "doc2"))
}

func TestBM25ZeroIDFTermScoresZero(t *testing.T) {
	ix := New(Options{KeepStopwords: true})
	ix.Add("doc1", "alpha beta")
	ix.Add("doc2", "alpha gamma")
	r := NewBM25(ix)

	assert.Zero(t, r.Score("alpha", "doc1"), "a term in every document contributes nothing")
	assert.Empty(t, r.Search("alpha"))
}

func TestTFIDFRanking(t *testing.T) {
	r := NewTFIDF(foxIndex())

	got := r.Search("brown fox")
	require.Len(t, got, 2)
	assert.Equal(t, "doc3", got[0].Doc, "shorter document has higher term density")
	assert.Equal(t, "doc1", got[1].Doc)
	assert.Greater(t, got[0].Score, got[1].Score)

	assert.Zero(t, r.Score("brown", "missing"))
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	ix := New(Options{})
	ix.Add("beta", "shared unique1")
	ix.Add("alpha", "shared unique2")
	ix.Add("gamma", "unrelated words")
	r := NewTFIDF(ix)

	got := r.Search("shared")
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Doc, "equal scores order by document name")
	assert.Equal(t, "beta", got[1].Doc)
}

func managerSource(entities ...*types.Entity) (Source, *int) {
	calls := new(int)
	src := func(ctx context.Context) ([]*types.Entity, error) {
		*calls++
		return entities, nil
	}
	return src, calls
}

func TestManagerLazyBuildAndCoalescing(t *testing.T) {
	src, calls := managerSource(
		&types.Entity{Name: "Alice", Type: "person", Observations: []string{"writes compilers"}},
	)
	m := NewManager(src, Options{})

	ix, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ix.HasDoc("Alice"))
	assert.Equal(t, 1, *calls)

	// A second acquire reuses the built index.
	_, err = m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	m.Invalidate()
	_, err = m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestManagerConcurrentAcquire(t *testing.T) {
	src, calls := managerSource(
		&types.Entity{Name: "Alice", Type: "person"},
		&types.Entity{Name: "Bob", Type: "person"},
	)
	m := NewManager(src, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := m.Acquire(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 2, ix.Stats().DocCount)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, *calls, "concurrent acquires coalesce into one build")
}

func TestManagerSourceError(t *testing.T) {
	wantErr := errors.New("store unavailable")
	m := NewManager(func(ctx context.Context) ([]*types.Entity, error) {
		return nil, wantErr
	}, Options{})

	_, err := m.Acquire(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestManagerApplyMutations(t *testing.T) {
	src, _ := managerSource(
		&types.Entity{Name: "Alice", Type: "person", Observations: []string{"studies graphs"}},
	)
	m := NewManager(src, Options{})

	ix, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, ix.DocFrequency("graphs"))

	m.Apply(types.MutationEvent{
		Kind:   types.EntityUpdated,
		Name:   "Alice",
		Entity: &types.Entity{Name: "Alice", Type: "person", Observations: []string{"studies lattices"}},
	})
	assert.Zero(t, ix.DocFrequency("graphs"))
	assert.Equal(t, 1, ix.DocFrequency("lattices"))

	m.Apply(types.MutationEvent{
		Kind:   types.EntityCreated,
		Name:   "Bob",
		Entity: &types.Entity{Name: "Bob", Type: "person"},
	})
	assert.True(t, ix.HasDoc("Bob"))

	m.Apply(types.MutationEvent{Kind: types.EntityDeleted, Name: "Alice"})
	assert.False(t, ix.HasDoc("Alice"))
}

func TestManagerApplyBeforeBuildIsNoop(t *testing.T) {
	src, calls := managerSource(&types.Entity{Name: "Alice", Type: "person"})
	m := NewManager(src, Options{})

	m.Apply(types.MutationEvent{
		Kind:   types.EntityCreated,
		Name:   "Bob",
		Entity: &types.Entity{Name: "Bob", Type: "person"},
	})
	assert.Zero(t, *calls)

	ix, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Stats().DocCount, "pre-build mutations are covered by the build itself")
}
