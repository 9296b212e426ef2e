package planner

import "github.com/latticesearch/lattice/pkg/types"

// Adequacy component weights. They sum to 1 so the composite stays in [0,1].
const (
	weightQuantity  = 0.35
	weightDiversity = 0.25
	weightRelevance = 0.25
	weightCoverage  = 0.15
)

// DefaultAdequacyThreshold stops execution once cleared.
const DefaultAdequacyThreshold = 0.7

// Assessor computes adequacy scores over a merged result set.
type Assessor struct {
	// MinResults is the result count at which quantity saturates to 1.
	MinResults int
	// MinRelevance is the mean combined score at which relevance saturates.
	MinRelevance float64
}

// NewAssessor creates an assessor with moderate targets: five results and a
// mean combined score of 0.5 both count as fully adequate.
func NewAssessor() *Assessor {
	return &Assessor{MinResults: 5, MinRelevance: 0.5}
}

// Assess scores the current merged results. executed lists the strategies
// run so far; contributed those that produced at least one result.
func (a *Assessor) Assess(results []types.ScoredEntity, executed, contributed []types.Strategy) types.AdequacyReport {
	report := types.AdequacyReport{
		StrategiesRun: append([]types.Strategy(nil), executed...),
	}
	if len(results) == 0 {
		// Coverage of an empty set is 0 by definition, so the composite is 0.
		return report
	}

	report.Quantity = clamp01(float64(len(results)) / float64(a.MinResults))

	distinctTypes := make(map[string]struct{})
	var layers types.LayerSet
	var sum float64
	for _, r := range results {
		distinctTypes[r.Entity.Type] = struct{}{}
		layers = layers.Union(r.MatchedLayers)
		sum += r.Combined
	}
	report.ContributingLayers = layers

	typeDiversity := clamp01(float64(len(distinctTypes)) / 3)
	layerDiversity := float64(layers.Len()) / float64(len(types.Layers))
	report.Diversity = (typeDiversity + layerDiversity) / 2

	mean := sum / float64(len(results))
	report.Relevance = clamp01(mean / a.MinRelevance)

	if len(executed) > 0 {
		report.Coverage = float64(len(contributed)) / float64(len(executed))
	}

	report.Score = weightQuantity*report.Quantity +
		weightDiversity*report.Diversity +
		weightRelevance*report.Relevance +
		weightCoverage*report.Coverage
	return report
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
