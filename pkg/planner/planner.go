package planner

import (
	"context"
	"log/slog"

	"github.com/latticesearch/lattice/pkg/fusion"
	"github.com/latticesearch/lattice/pkg/types"
)

// StrategyRunner executes one strategy end to end and returns its scored
// results. Runners must leave layer scores in [0,1].
type StrategyRunner func(ctx context.Context, query string) ([]types.ScoredEntity, error)

// Planner orchestrates strategy execution with early termination.
type Planner struct {
	estimator *Estimator
	assessor  *Assessor
	fuser     *fusion.Fuser
	runners   map[types.Strategy]StrategyRunner
	threshold float64
	logger    *slog.Logger
}

// New creates a planner. Strategies without a runner are never executed. A
// non-positive threshold falls back to the default.
func New(estimator *Estimator, assessor *Assessor, fuser *fusion.Fuser, runners map[types.Strategy]StrategyRunner, threshold float64, logger *slog.Logger) *Planner {
	if threshold <= 0 {
		threshold = DefaultAdequacyThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		estimator: estimator,
		assessor:  assessor,
		fuser:     fuser,
		runners:   runners,
		threshold: threshold,
		logger:    logger,
	}
}

// Threshold returns the adequacy threshold in effect.
func (p *Planner) Threshold() float64 { return p.threshold }

// Run executes strategies in ascending estimated-cost order, merging results
// after each and stopping once adequacy clears the threshold. At least one
// strategy runs; a failing strategy contributes nothing and the search
// continues. An empty graph returns an empty list and adequacy 0 without
// error. Results are ranked and truncated to limit (non-positive means all).
func (p *Planner) Run(ctx context.Context, query string, graphSize, limit int) ([]types.ScoredEntity, types.AdequacyReport, types.CostReport, error) {
	cost := p.estimator.Estimate(query, graphSize)

	if graphSize == 0 {
		return nil, types.AdequacyReport{}, cost, nil
	}

	var (
		merged      []types.ScoredEntity
		executed    []types.Strategy
		contributed []types.Strategy
		adequacy    types.AdequacyReport
		stopped     bool
	)

	runnable := 0
	for _, est := range cost.Estimates {
		if _, ok := p.runners[est.Strategy]; ok {
			runnable++
		}
	}

	for _, est := range cost.Estimates {
		runner, ok := p.runners[est.Strategy]
		if !ok {
			continue
		}
		if len(executed) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, adequacy, cost, err
			}
		}

		results, err := runner(ctx, query)
		executed = append(executed, est.Strategy)
		if err != nil {
			// Degraded, not fatal: the miss shows up in coverage.
			p.logger.Warn("search strategy failed",
				"strategy", est.Strategy.String(),
				"error", err)
		} else if len(results) > 0 {
			contributed = append(contributed, est.Strategy)
			merged = p.fuser.Merge(merged, results)
		}

		adequacy = p.assessor.Assess(merged, executed, contributed)
		if adequacy.Score >= p.threshold {
			stopped = len(executed) < runnable
			break
		}
	}

	adequacy.StoppedEarly = stopped

	fusion.Rank(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, adequacy, cost, nil
}

// RunSingle executes exactly one strategy and assesses the outcome. Used
// when the caller pins the recommended strategy instead of the full plan.
func (p *Planner) RunSingle(ctx context.Context, strategy types.Strategy, query string, graphSize, limit int) ([]types.ScoredEntity, types.AdequacyReport, error) {
	if graphSize == 0 {
		return nil, types.AdequacyReport{}, nil
	}
	runner, ok := p.runners[strategy]
	if !ok {
		return nil, types.AdequacyReport{StrategiesRun: []types.Strategy{strategy}}, nil
	}

	results, err := runner(ctx, query)
	executed := []types.Strategy{strategy}
	var contributed []types.Strategy
	var merged []types.ScoredEntity
	if err != nil {
		p.logger.Warn("search strategy failed",
			"strategy", strategy.String(),
			"error", err)
	} else if len(results) > 0 {
		contributed = executed
		merged = p.fuser.Merge(nil, results)
	}

	adequacy := p.assessor.Assess(merged, executed, contributed)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, adequacy, nil
}
