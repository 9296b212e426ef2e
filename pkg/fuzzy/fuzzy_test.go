package fuzzy

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticesearch/lattice/pkg/types"
	"github.com/latticesearch/lattice/pkg/workerpool"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"database", "database", 0},
		{"databse", "database", 1},
		{"kitten", "sitting", 3},
		{"dog", "databse", 6},
		{"café", "cafe", 1}, // rune-wise, not byte-wise
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Distance(tc.a, tc.b), "Distance(%q, %q)", tc.a, tc.b)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][2]string{{"abc", "xyz"}, {"database", "databse"}, {"", "word"}}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1]), Distance(p[1], p[0]))
	}
}

func TestDistanceTriangleInequality(t *testing.T) {
	words := []string{"graph", "grape", "grasp", "gape"}
	for _, a := range words {
		for _, b := range words {
			for _, c := range words {
				assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c))
			}
		}
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("same", "same"))
	assert.InDelta(t, 0.875, Similarity("databse", "database"), 1e-9)
	assert.Zero(t, Similarity("abc", "xyz"))
}

func fuzzyUniverse() []*types.Entity {
	return []*types.Entity{
		{Name: "database", Type: "component"},
		{Name: "dog", Type: "animal"},
		{Name: "dashboard", Type: "component", Observations: []string{"shows database metrics"}},
	}
}

func TestMatcherSequential(t *testing.T) {
	m := NewMatcher()
	matches, err := m.Search(context.Background(), "databse", fuzzyUniverse())
	require.NoError(t, err)

	// Both score 0.875: "dashboard" through the word "database" in its
	// observation. Equal scores order by name.
	require.Len(t, matches, 2)
	assert.Equal(t, "dashboard", matches[0].Entity.Name)
	assert.Equal(t, "database", matches[0].Matched)
	assert.Equal(t, "database", matches[1].Entity.Name)
	assert.InDelta(t, 0.875, matches[1].Similarity, 1e-9)

	for _, match := range matches {
		assert.NotEqual(t, "dog", match.Entity.Name, "dog is far below threshold 0.7")
	}
}

func TestMatcherEmptyUniverse(t *testing.T) {
	matches, err := NewMatcher().Search(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatcherThreshold(t *testing.T) {
	strict := NewMatcher(WithThreshold(0.95))
	matches, err := strict.Search(context.Background(), "databse", fuzzyUniverse())
	require.NoError(t, err)
	assert.Empty(t, matches, "0.875 similarity fails a 0.95 threshold")

	lax := NewMatcher(WithThreshold(0.875))
	matches, err = lax.Search(context.Background(), "databse", fuzzyUniverse())
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "threshold is inclusive")
}

func TestMatcherWithPool(t *testing.T) {
	pool := workerpool.New(4, map[workerpool.TaskKind]workerpool.Handler{
		workerpool.TaskLevenshteinBatch: Handler(),
	})
	require.NoError(t, pool.Open())
	defer pool.Close()

	var universe []*types.Entity
	for i := 0; i < 200; i++ {
		universe = append(universe, &types.Entity{Name: fmt.Sprintf("node-%03d", i), Type: "node"})
	}
	universe = append(universe, &types.Entity{Name: "database", Type: "component"})

	m := NewMatcher(WithPool(pool), WithChunkSize(16))
	matches, err := m.Search(context.Background(), "databse", universe)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "database", matches[0].Entity.Name)
}

func TestMatcherParallelAgreesWithSequential(t *testing.T) {
	pool := workerpool.New(2, map[workerpool.TaskKind]workerpool.Handler{
		workerpool.TaskLevenshteinBatch: Handler(),
	})
	require.NoError(t, pool.Open())
	defer pool.Close()

	universe := fuzzyUniverse()
	seq, err := NewMatcher().Search(context.Background(), "databse", universe)
	require.NoError(t, err)
	par, err := NewMatcher(WithPool(pool), WithChunkSize(1)).Search(context.Background(), "databse", universe)
	require.NoError(t, err)

	require.Len(t, par, len(seq))
	for i := range seq {
		assert.Equal(t, seq[i].Entity.Name, par[i].Entity.Name)
		assert.Equal(t, seq[i].Similarity, par[i].Similarity)
	}
}

func TestMatcherFallsBackWhenPoolClosed(t *testing.T) {
	pool := workerpool.New(1, map[workerpool.TaskKind]workerpool.Handler{
		workerpool.TaskLevenshteinBatch: Handler(),
	})
	require.NoError(t, pool.Open())
	pool.Close()

	m := NewMatcher(WithPool(pool))
	matches, err := m.Search(context.Background(), "databse", fuzzyUniverse())
	require.NoError(t, err, "a dead pool degrades to sequential scanning")
	assert.NotEmpty(t, matches)
}

func TestMatcherContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMatcher().Search(ctx, "databse", fuzzyUniverse())
	assert.ErrorIs(t, err, context.Canceled)
}
