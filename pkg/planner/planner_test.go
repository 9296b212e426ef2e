package planner

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticesearch/lattice/pkg/fusion"
	"github.com/latticesearch/lattice/pkg/types"
)

func TestEstimateFavorsBooleanForStructuredQueries(t *testing.T) {
	e := NewEstimator(false)
	report := e.Estimate("person AND NOT manager", 100)

	assert.Equal(t, types.StrategyBoolean, report.Recommended)
	require.Len(t, report.Estimates, len(types.Strategies))
	for i := 1; i < len(report.Estimates); i++ {
		assert.LessOrEqual(t, report.Estimates[i-1].Cost, report.Estimates[i].Cost, "estimates come back ascending")
	}
}

func TestEstimatePlainQueryPrefersCheapScan(t *testing.T) {
	e := NewEstimator(false)
	report := e.Estimate("database", 100)

	rec := report.Recommended
	assert.Contains(t, []types.Strategy{types.StrategySubstring, types.StrategyLexical}, rec)
	assert.NotEqual(t, types.StrategyFuzzy, rec)
	assert.NotEqual(t, types.StrategySemantic, rec)
}

func TestEstimateFieldAndWildcardSyntax(t *testing.T) {
	e := NewEstimator(false)
	assert.Equal(t, types.StrategyBoolean, e.Estimate("type:person", 100).Recommended)
	assert.Equal(t, types.StrategyBoolean, e.Estimate("data*", 100).Recommended)
}

func TestEstimateSemanticUnavailableRanksLast(t *testing.T) {
	e := NewEstimator(false)
	report := e.Estimate("some plain words", 100)
	last := report.Estimates[len(report.Estimates)-1]
	assert.Equal(t, types.StrategySemantic, last.Strategy)
	assert.Contains(t, last.Reason, "no embedding client")
}

func TestEstimateDeterministic(t *testing.T) {
	e := NewEstimator(true)
	a := e.Estimate("graph OR lattice", 42)
	b := e.Estimate("graph OR lattice", 42)
	assert.Equal(t, a, b)
}

func scored(name, typ string, scores types.LayerScores, f *fusion.Fuser) types.ScoredEntity {
	return f.Compose(&types.Entity{Name: name, Type: typ}, scores)
}

func TestAssessEmptyResultsScoreZero(t *testing.T) {
	a := NewAssessor()
	report := a.Assess(nil, []types.Strategy{types.StrategySubstring}, nil)
	assert.Zero(t, report.Score)
	assert.Zero(t, report.Quantity)
	assert.Zero(t, report.Coverage)
}

func TestAssessComponentsBounded(t *testing.T) {
	f := fusion.NewFuser(types.DefaultWeights())
	a := NewAssessor()

	results := []types.ScoredEntity{
		scored("A", "person", types.LayerScores{Lexical: 0.9, Semantic: 0.8, Symbolic: 0.7}, f),
		scored("B", "company", types.LayerScores{Lexical: 0.8, Semantic: 0.9, Symbolic: 0.6}, f),
		scored("C", "project", types.LayerScores{Lexical: 0.7, Semantic: 0.7, Symbolic: 0.9}, f),
		scored("D", "person", types.LayerScores{Lexical: 0.9, Semantic: 0.6, Symbolic: 0.8}, f),
		scored("E", "tool", types.LayerScores{Lexical: 0.6, Semantic: 0.9, Symbolic: 0.7}, f),
	}
	executed := []types.Strategy{types.StrategyLexical}
	report := a.Assess(results, executed, executed)

	assert.Equal(t, 1.0, report.Quantity, "five results saturate the quantity target")
	assert.Equal(t, 1.0, report.Coverage)
	assert.InDelta(t, 1.0, report.Relevance, 1e-9)
	assert.Greater(t, report.Diversity, 0.9)
	assert.InDelta(t, 1.0, report.Score, 0.05)
	assert.LessOrEqual(t, report.Score, 1.0)
	assert.Equal(t, 3, report.ContributingLayers.Len())
}

func TestAssessWeakResultsStayBelowThreshold(t *testing.T) {
	f := fusion.NewFuser(types.DefaultWeights())
	a := NewAssessor()

	results := []types.ScoredEntity{
		scored("A", "person", types.LayerScores{Lexical: 0.2}, f),
	}
	executed := []types.Strategy{types.StrategySubstring, types.StrategyLexical}
	report := a.Assess(results, executed, []types.Strategy{types.StrategyLexical})

	assert.Less(t, report.Score, DefaultAdequacyThreshold)
	assert.Equal(t, 0.5, report.Coverage)
}

type runnerLog struct {
	ran []types.Strategy
}

func (l *runnerLog) runner(s types.Strategy, results []types.ScoredEntity, err error) StrategyRunner {
	return func(ctx context.Context, query string) ([]types.ScoredEntity, error) {
		l.ran = append(l.ran, s)
		return results, err
	}
}

func strongResults(f *fusion.Fuser) []types.ScoredEntity {
	return []types.ScoredEntity{
		scored("A", "person", types.LayerScores{Lexical: 0.9, Semantic: 0.9, Symbolic: 0.9}, f),
		scored("B", "company", types.LayerScores{Lexical: 0.9, Semantic: 0.9, Symbolic: 0.8}, f),
		scored("C", "project", types.LayerScores{Lexical: 0.8, Semantic: 0.9, Symbolic: 0.9}, f),
		scored("D", "tool", types.LayerScores{Lexical: 0.9, Semantic: 0.8, Symbolic: 0.9}, f),
		scored("E", "place", types.LayerScores{Lexical: 0.9, Semantic: 0.9, Symbolic: 0.7}, f),
	}
}

func newTestPlanner(runners map[types.Strategy]StrategyRunner) (*Planner, *fusion.Fuser) {
	f := fusion.NewFuser(types.DefaultWeights())
	p := New(NewEstimator(false), NewAssessor(), f, runners, 0, slog.Default())
	return p, f
}

func TestPlannerStopsAfterAdequacyClears(t *testing.T) {
	log := &runnerLog{}
	f := fusion.NewFuser(types.DefaultWeights())
	runners := map[types.Strategy]StrategyRunner{
		types.StrategySubstring: log.runner(types.StrategySubstring, strongResults(f), nil),
		types.StrategyLexical:   log.runner(types.StrategyLexical, strongResults(f), nil),
		types.StrategyBoolean:   log.runner(types.StrategyBoolean, strongResults(f), nil),
		types.StrategyFuzzy:     log.runner(types.StrategyFuzzy, strongResults(f), nil),
	}
	p, _ := newTestPlanner(runners)

	results, adequacy, _, err := p.Run(context.Background(), "database", 100, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.GreaterOrEqual(t, adequacy.Score, p.Threshold())
	assert.Len(t, log.ran, 1, "no strategy runs after adequacy clears the threshold")
	assert.True(t, adequacy.StoppedEarly)
}

func TestPlannerRunsAllWhenInadequate(t *testing.T) {
	log := &runnerLog{}
	weak := []types.ScoredEntity{}
	runners := map[types.Strategy]StrategyRunner{
		types.StrategySubstring: log.runner(types.StrategySubstring, weak, nil),
		types.StrategyLexical:   log.runner(types.StrategyLexical, weak, nil),
		types.StrategyBoolean:   log.runner(types.StrategyBoolean, weak, nil),
	}
	p, _ := newTestPlanner(runners)

	results, adequacy, _, err := p.Run(context.Background(), "nothing matches", 100, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Len(t, log.ran, 3, "all runnable strategies execute when adequacy never clears")
	assert.False(t, adequacy.StoppedEarly)
	assert.Len(t, adequacy.StrategiesRun, 3)
}

func TestPlannerAlwaysRunsAtLeastOne(t *testing.T) {
	log := &runnerLog{}
	f := fusion.NewFuser(types.DefaultWeights())
	runners := map[types.Strategy]StrategyRunner{
		types.StrategySubstring: log.runner(types.StrategySubstring, strongResults(f), nil),
	}
	p, _ := newTestPlanner(runners)

	_, adequacy, _, err := p.Run(context.Background(), "database", 100, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, log.ran)
	assert.NotEmpty(t, adequacy.StrategiesRun)
}

func TestPlannerEmptyGraph(t *testing.T) {
	log := &runnerLog{}
	runners := map[types.Strategy]StrategyRunner{
		types.StrategySubstring: log.runner(types.StrategySubstring, nil, nil),
	}
	p, _ := newTestPlanner(runners)

	results, adequacy, cost, err := p.Run(context.Background(), "anything", 0, 0)
	require.NoError(t, err, "an empty graph is not an error")
	assert.Empty(t, results)
	assert.Zero(t, adequacy.Score)
	assert.Empty(t, log.ran)
	assert.NotEmpty(t, cost.Estimates, "the cost report is still produced")
}

func TestPlannerStrategyFailureDegrades(t *testing.T) {
	log := &runnerLog{}
	f := fusion.NewFuser(types.DefaultWeights())
	runners := map[types.Strategy]StrategyRunner{
		types.StrategySubstring: log.runner(types.StrategySubstring, nil, errors.New("scan exploded")),
		types.StrategyLexical:   log.runner(types.StrategyLexical, strongResults(f), nil),
	}
	p, _ := newTestPlanner(runners)

	results, adequacy, _, err := p.Run(context.Background(), "database", 100, 0)
	require.NoError(t, err, "a failing strategy degrades, it does not abort the query")
	assert.NotEmpty(t, results)
	assert.Less(t, adequacy.Coverage, 1.0, "the failure is visible through coverage")
}

func TestPlannerLimitTruncates(t *testing.T) {
	log := &runnerLog{}
	f := fusion.NewFuser(types.DefaultWeights())
	runners := map[types.Strategy]StrategyRunner{
		types.StrategySubstring: log.runner(types.StrategySubstring, strongResults(f), nil),
	}
	p, _ := newTestPlanner(runners)

	results, _, _, err := p.Run(context.Background(), "database", 100, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestPlannerContextCancelledBetweenStrategies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := &runnerLog{}
	runners := map[types.Strategy]StrategyRunner{
		types.StrategySubstring: func(c context.Context, q string) ([]types.ScoredEntity, error) {
			log.ran = append(log.ran, types.StrategySubstring)
			cancel() // cancel mid-plan
			return nil, nil
		},
		types.StrategyLexical: log.runner(types.StrategyLexical, nil, nil),
		types.StrategyBoolean: log.runner(types.StrategyBoolean, nil, nil),
	}
	p, _ := newTestPlanner(runners)

	_, _, _, err := p.Run(ctx, "database", 100, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, log.ran, 1, "cancellation is honored between strategies")
}

func TestPlannerRunSingle(t *testing.T) {
	log := &runnerLog{}
	f := fusion.NewFuser(types.DefaultWeights())
	runners := map[types.Strategy]StrategyRunner{
		types.StrategyLexical: log.runner(types.StrategyLexical, strongResults(f), nil),
	}
	p, _ := newTestPlanner(runners)

	results, adequacy, err := p.RunSingle(context.Background(), types.StrategyLexical, "database", 100, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.Equal(t, []types.Strategy{types.StrategyLexical}, adequacy.StrategiesRun)
	assert.Equal(t, []types.Strategy{types.StrategyLexical}, log.ran)
}
