package fusion

import (
	"context"
	"sort"

	"github.com/latticesearch/lattice/pkg/types"
)

// LayerScorer is the capability one scoring layer implements. Score returns
// a value in [0,1] where 0 means "no evidence". Adding a layer means adding
// a types.Layer variant and a scorer for it.
type LayerScorer interface {
	Layer() types.Layer
	Score(ctx context.Context, query string, e *types.Entity) (float64, error)
}

// Fuser combines layer scores under normalized weights.
type Fuser struct {
	weights types.Weights
}

// NewFuser creates a fuser. Weights are normalized to sum to 1.
func NewFuser(weights types.Weights) *Fuser {
	return &Fuser{weights: weights.Normalize()}
}

// Weights returns the normalized weights in effect.
func (f *Fuser) Weights() types.Weights { return f.weights }

// Combine computes the weighted sum of the layer scores. With scores and
// normalized weights in [0,1] the result is in [0,1].
func (f *Fuser) Combine(scores types.LayerScores) float64 {
	var sum float64
	for _, l := range types.Layers {
		sum += f.weights.Get(l) * scores.Get(l)
	}
	return sum
}

// Compose builds a ranked result from an entity's layer scores.
func (f *Fuser) Compose(e *types.Entity, scores types.LayerScores) types.ScoredEntity {
	return types.ScoredEntity{
		Entity:        e,
		Scores:        scores,
		Combined:      f.Combine(scores),
		MatchedLayers: scores.Matched(),
	}
}

// Merge folds incoming results into the accumulated set by entity identity.
// A duplicate keeps whichever combined score is higher and unions the
// matched-layer sets. The returned slice is ranked.
func (f *Fuser) Merge(accumulated, incoming []types.ScoredEntity) []types.ScoredEntity {
	byName := make(map[string]int, len(accumulated))
	merged := make([]types.ScoredEntity, len(accumulated))
	copy(merged, accumulated)
	for i, r := range merged {
		byName[r.Entity.Name] = i
	}

	for _, in := range incoming {
		i, seen := byName[in.Entity.Name]
		if !seen {
			byName[in.Entity.Name] = len(merged)
			merged = append(merged, in)
			continue
		}
		prev := merged[i]
		if in.Combined > prev.Combined {
			prev.Combined = in.Combined
			prev.Scores = in.Scores
		}
		prev.MatchedLayers = prev.MatchedLayers.Union(in.MatchedLayers)
		merged[i] = prev
	}

	Rank(merged)
	return merged
}

// Rank sorts results by combined score descending, ties by entity name
// ascending.
func Rank(results []types.ScoredEntity) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Combined != results[j].Combined {
			return results[i].Combined > results[j].Combined
		}
		return results[i].Entity.Name < results[j].Entity.Name
	})
}

// NormalizeScores scales a raw score map into [0,1] by its maximum. Raw
// lexical scores are unbounded; layer scores must not be.
func NormalizeScores(raw map[string]float64) map[string]float64 {
	var max float64
	for _, v := range raw {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return raw
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[k] = v / max
	}
	return out
}
