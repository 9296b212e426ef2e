package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticesearch/lattice/pkg/types"
)

func testUniverse() []*types.Entity {
	return []*types.Entity{
		{Name: "Alice", Type: "person", Tags: []string{"engineer"}, Observations: []string{"works on databases"}},
		{Name: "Bob", Type: "person", Tags: []string{"manager"}, Observations: []string{"runs the team"}},
		{Name: "Charlie", Type: "person", Tags: []string{"designer"}, Observations: []string{"draws mockups"}},
		{Name: "Acme", Type: "company", Tags: []string{"startup"}, Observations: []string{"builds machine learning tools"}},
	}
}

func names(entities []*types.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Name
	}
	return out
}

func evaluate(t *testing.T, q string, universe []*types.Entity) []*types.Entity {
	t.Helper()
	node, err := Parse(q)
	require.NoError(t, err)
	matched, err := NewEvaluator().Evaluate(node, universe)
	require.NoError(t, err)
	return matched
}

func TestEvaluateAndNot(t *testing.T) {
	got := evaluate(t, "person AND NOT manager", testUniverse())
	assert.Equal(t, []string{"Alice", "Charlie"}, names(got))
}

func TestEvaluateOrUnion(t *testing.T) {
	got := evaluate(t, "engineer OR designer", testUniverse())
	assert.Equal(t, []string{"Alice", "Charlie"}, names(got))
}

func TestEvaluateNotAgainstUniverse(t *testing.T) {
	got := evaluate(t, "NOT person", testUniverse())
	assert.Equal(t, []string{"Acme"}, names(got))
}

func TestEvaluateDoubleNegationIsIdentity(t *testing.T) {
	u := testUniverse()
	plain := evaluate(t, "person", u)
	double := evaluate(t, "NOT (NOT person)", u)
	assert.Equal(t, names(plain), names(double))
}

func TestEvaluateSetAlgebra(t *testing.T) {
	u := testUniverse()
	and := evaluate(t, "person AND engineer", u)
	left := evaluate(t, "person", u)
	right := evaluate(t, "engineer", u)

	inLeft := make(map[string]bool)
	for _, e := range left {
		inLeft[e.Name] = true
	}
	inRight := make(map[string]bool)
	for _, e := range right {
		inRight[e.Name] = true
	}
	for _, e := range and {
		assert.True(t, inLeft[e.Name] && inRight[e.Name], "AND result must be inside both operand sets")
	}

	or := evaluate(t, "person OR engineer", u)
	assert.Len(t, or, len(left)) // engineer ⊂ person in this universe
}

func TestEvaluateFieldScopes(t *testing.T) {
	u := testUniverse()

	assert.Equal(t, []string{"Alice"}, names(evaluate(t, "name:alice", u)))
	assert.Equal(t, []string{"Acme"}, names(evaluate(t, "type:company", u)))
	assert.Equal(t, []string{"Bob"}, names(evaluate(t, "tag:manager", u)))
	assert.Equal(t, []string{"Charlie"}, names(evaluate(t, "observation:mockups", u)))

	// "manager" appears only as a tag, so scoping to observations excludes Bob.
	assert.Empty(t, evaluate(t, "observation:manager", u))
}

func TestEvaluatePhrase(t *testing.T) {
	u := testUniverse()
	assert.Equal(t, []string{"Acme"}, names(evaluate(t, `"machine learning"`, u)))
	assert.Empty(t, evaluate(t, `"learning machine"`, u))
}

func TestEvaluateWildcard(t *testing.T) {
	u := testUniverse()
	assert.Equal(t, []string{"Alice"}, names(evaluate(t, "database*", u)))
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names(evaluate(t, "type:p?rson", u)))
}

func TestEvaluateProximity(t *testing.T) {
	u := []*types.Entity{
		{Name: "Doc", Type: "note", Observations: []string{"machine is central to learning systems"}},
	}
	// Words sit at positions 0 and 4: span 4.
	assert.Empty(t, evaluate(t, `"machine learning"~3`, u))
	assert.Len(t, evaluate(t, `"machine learning"~4`, u), 1)
}

func TestProximityScore(t *testing.T) {
	tokens := normalizeWords("machine is central to learning systems")

	t.Run("absent term scores zero", func(t *testing.T) {
		assert.Zero(t, ProximityScore([]string{"machine", "quantum"}, tokens, 10))
	})

	t.Run("score decreases as the span widens", func(t *testing.T) {
		tight := ProximityScore([]string{"machine", "is"}, tokens, 10)
		wide := ProximityScore([]string{"machine", "learning"}, tokens, 10)
		assert.Greater(t, tight, wide)
	})

	t.Run("adjacent words score one", func(t *testing.T) {
		assert.Equal(t, 1.0, ProximityScore([]string{"learning", "systems"}, tokens, 5))
	})

	t.Run("span cap rejects wide windows", func(t *testing.T) {
		assert.Zero(t, ProximityScore([]string{"machine", "systems"}, tokens, 2))
	})

	t.Run("single present word", func(t *testing.T) {
		assert.Equal(t, 1.0, ProximityScore([]string{"central"}, tokens, 0))
	})
}

func TestEvaluateDeterministicOrder(t *testing.T) {
	u := testUniverse()
	first := names(evaluate(t, "person OR startup", u))
	second := names(evaluate(t, "person OR startup", u))
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie", "Acme"}, first, "results preserve universe order")
}

func TestWildcardPatternCache(t *testing.T) {
	ev := NewEvaluator()
	e := &types.Entity{Name: "database", Type: "component"}

	node, err := Parse("data*")
	require.NoError(t, err)
	ok, err := ev.Match(node, e)
	require.NoError(t, err)
	assert.True(t, ok)

	ev.InvalidatePatterns()
	ok, err = ev.Match(node, e)
	require.NoError(t, err)
	assert.True(t, ok, "matching still works after cache invalidation")
}
