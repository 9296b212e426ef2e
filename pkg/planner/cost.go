package planner

import (
	"sort"
	"strings"

	"github.com/latticesearch/lattice/pkg/types"
)

// smallGraphSize is the entity count below which exhaustive strategies are
// considered cheap regardless of query shape.
const smallGraphSize = 50

// queryShape holds the structural signals the estimator reads. Detection is
// purely syntactic; no AST is built.
type queryShape struct {
	hasBoolean   bool
	hasField     bool
	hasWildcard  bool
	hasPhrase    bool
	hasProximity bool
	termCount    int
}

func analyzeQuery(query string) queryShape {
	shape := queryShape{
		hasField:     strings.Contains(query, ":"),
		hasWildcard:  strings.ContainsAny(query, "*?"),
		hasPhrase:    strings.Contains(query, `"`),
		hasProximity: strings.Contains(query, "~"),
	}
	fields := strings.Fields(query)
	shape.termCount = len(fields)
	for _, f := range fields {
		switch strings.ToUpper(f) {
		case "AND", "OR", "NOT":
			shape.hasBoolean = true
		}
	}
	if strings.ContainsAny(query, "()") {
		shape.hasBoolean = true
	}
	return shape
}

// structured reports whether the query carries syntax only the boolean
// evaluator honors.
func (s queryShape) structured() bool {
	return s.hasBoolean || s.hasField || s.hasWildcard || s.hasProximity
}

// Estimator ranks strategies by relative cost for a query and graph size.
type Estimator struct {
	// SemanticAvailable gates the semantic strategy; without an embedding
	// client it is ranked last with an explanatory reason.
	SemanticAvailable bool
}

// NewEstimator creates an estimator.
func NewEstimator(semanticAvailable bool) *Estimator {
	return &Estimator{SemanticAvailable: semanticAvailable}
}

// Estimate ranks every strategy for the query. Estimates come back ascending
// by cost with ties broken by strategy declaration order, so the report is
// deterministic.
func (e *Estimator) Estimate(query string, graphSize int) types.CostReport {
	shape := analyzeQuery(query)
	size := float64(graphSize)
	small := graphSize < smallGraphSize

	estimates := make([]types.CostEstimate, 0, len(types.Strategies))
	for _, s := range types.Strategies {
		estimates = append(estimates, e.estimateOne(s, shape, size, small))
	}

	sort.SliceStable(estimates, func(i, j int) bool {
		return estimates[i].Cost < estimates[j].Cost
	})

	return types.CostReport{
		Query:       query,
		GraphSize:   graphSize,
		Estimates:   estimates,
		Recommended: estimates[0].Strategy,
	}
}

func (e *Estimator) estimateOne(s types.Strategy, shape queryShape, size float64, small bool) types.CostEstimate {
	switch s {
	case types.StrategySubstring:
		cost := 1.0 * size
		reason := "linear scan over entity text"
		if shape.structured() {
			cost *= 3
			reason = "query syntax (operators/fields/wildcards) is ignored by a plain scan"
		} else if small {
			reason = "small graph, plain scan is cheapest"
		}
		return types.CostEstimate{Strategy: s, Cost: cost, Reason: reason}

	case types.StrategyLexical:
		cost := 0.6*size + float64(shape.termCount)
		reason := "inverted-index lookup per term"
		if shape.structured() {
			cost *= 2
			reason = "operators and fields degrade to plain terms under ranking"
		}
		return types.CostEstimate{Strategy: s, Cost: cost, Reason: reason}

	case types.StrategyBoolean:
		cost := 1.4 * size
		reason := "AST evaluation over every entity"
		if shape.structured() {
			cost = 0.5 * size
			reason = "query uses boolean/field/wildcard syntax, the evaluator honors it exactly"
		}
		return types.CostEstimate{Strategy: s, Cost: cost, Reason: reason}

	case types.StrategyFuzzy:
		cost := 2.5 * size * (1 + float64(shape.termCount)/4)
		reason := "edit-distance DP per candidate string"
		if small {
			reason = "small graph keeps edit-distance scans affordable"
		}
		return types.CostEstimate{Strategy: s, Cost: cost, Reason: reason}

	case types.StrategySemantic:
		if !e.SemanticAvailable {
			return types.CostEstimate{
				Strategy: s,
				Cost:     1e9,
				Reason:   "no embedding client configured",
			}
		}
		// Embedding the query dominates for small graphs.
		return types.CostEstimate{
			Strategy: s,
			Cost:     200 + 1.5*size,
			Reason:   "embedding call plus cosine scan",
		}

	default:
		return types.CostEstimate{Strategy: s, Cost: 1e9, Reason: "unknown strategy"}
	}
}
