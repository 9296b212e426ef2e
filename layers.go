package lattice

import (
	"context"
	"strings"

	"github.com/latticesearch/lattice/pkg/fusion"
	"github.com/latticesearch/lattice/pkg/index"
	"github.com/latticesearch/lattice/pkg/planner"
	"github.com/latticesearch/lattice/pkg/query"
	"github.com/latticesearch/lattice/pkg/symbolic"
	"github.com/latticesearch/lattice/pkg/types"
	"github.com/latticesearch/lattice/pkg/utils"
)

// lexicalScores ranks the corpus with BM25 and normalizes the raw scores
// into [0,1] by the best score in the result set.
func (e *Engine) lexicalScores(ctx context.Context, queryText string) (map[string]float64, error) {
	ix, err := e.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	ranker := index.NewBM25(ix)
	ranker.K1 = e.cfg.BM25K1
	ranker.B = e.cfg.BM25B

	raw := make(map[string]float64)
	for _, ds := range ranker.Search(queryText) {
		raw[ds.Doc] = ds.Score
	}
	return fusion.NormalizeScores(raw), nil
}

// semanticScores embeds the query and scores every entity by cosine
// similarity against its cached text embedding. Negative similarity counts
// as no evidence. A nil client yields no scores.
func (e *Engine) semanticScores(ctx context.Context, queryText string, entities []*types.Entity) (map[string]float64, error) {
	if e.embedder == nil {
		return nil, nil
	}
	queryVec, err := e.embedder.EmbedSingle(ctx, queryText)
	if err != nil {
		return nil, err
	}

	vectors, err := e.entityVectors(ctx, entities)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(entities))
	for _, entity := range entities {
		vec, ok := vectors[entity.Name]
		if !ok {
			continue
		}
		if sim := utils.CosineSimilarity(queryVec, vec); sim > 0 {
			scores[entity.Name] = sim
		}
	}
	return scores, nil
}

// entityVectors returns a unit-length embedding per entity, embedding cache
// misses in one batch. Zero vectors are dropped; they carry no direction to
// compare against.
func (e *Engine) entityVectors(ctx context.Context, entities []*types.Entity) (map[string][]float32, error) {
	vectors := make(map[string][]float32, len(entities))
	var missing []*types.Entity

	e.embMu.Lock()
	for _, entity := range entities {
		if vec, ok := e.embCache[entity.Name]; ok {
			vectors[entity.Name] = vec
		} else {
			missing = append(missing, entity)
		}
	}
	e.embMu.Unlock()

	if len(missing) == 0 {
		return vectors, nil
	}

	texts := make([]string, len(missing))
	for i, entity := range missing {
		texts[i] = entity.SearchText()
	}
	embedded, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	e.embMu.Lock()
	for i, entity := range missing {
		if i >= len(embedded) {
			break
		}
		vec := utils.Normalize(embedded[i])
		if vec == nil {
			continue
		}
		e.embCache[entity.Name] = vec
		vectors[entity.Name] = vec
	}
	e.embMu.Unlock()
	return vectors, nil
}

// substringScores scans entity text for a case-insensitive substring match.
// The score is match tightness: query length over matched field length, so
// an exact field match scores 1.
func substringScores(queryText string, entities []*types.Entity) map[string]float64 {
	needle := strings.ToLower(strings.TrimSpace(queryText))
	if needle == "" {
		return nil
	}
	scores := make(map[string]float64)
	for _, entity := range entities {
		best := 0.0
		for _, field := range entityFields(entity) {
			if field == "" {
				continue
			}
			if strings.Contains(strings.ToLower(field), needle) {
				if s := float64(len(needle)) / float64(len(field)); s > best {
					best = s
				}
			}
		}
		if best > 0 {
			scores[entity.Name] = best
		}
	}
	return scores
}

func entityFields(e *types.Entity) []string {
	fields := make([]string, 0, len(e.Tags)+len(e.Observations)+2)
	fields = append(fields, e.Name, e.Type)
	fields = append(fields, e.Tags...)
	fields = append(fields, e.Observations...)
	return fields
}

// strategyRunners binds each executable strategy to the given snapshot.
// Every runner folds in the symbolic layer when a filter is active, so
// filtered searches keep their constraint evidence regardless of which
// strategies the planner picks.
func (e *Engine) strategyRunners(snapshot *types.Graph, fuser *fusion.Fuser, opts *SearchOptions) map[types.Strategy]planner.StrategyRunner {
	sym := symbolic.NewScorer(opts.Filter)

	compose := func(entities []*types.Entity, layer types.Layer, scores map[string]float64) []types.ScoredEntity {
		results := make([]types.ScoredEntity, 0, len(scores))
		for _, entity := range entities {
			score, ok := scores[entity.Name]
			if !ok || score <= 0 {
				continue
			}
			var ls types.LayerScores
			ls.Set(layer, score)
			if sym.Active() {
				ls.Symbolic = sym.Score(entity)
			}
			results = append(results, fuser.Compose(entity, ls))
		}
		return results
	}

	runners := map[types.Strategy]planner.StrategyRunner{
		types.StrategySubstring: func(ctx context.Context, q string) ([]types.ScoredEntity, error) {
			return compose(snapshot.Entities, types.LayerLexical, substringScores(q, snapshot.Entities)), nil
		},

		types.StrategyLexical: func(ctx context.Context, q string) ([]types.ScoredEntity, error) {
			scores, err := e.lexicalScores(ctx, q)
			if err != nil {
				return nil, err
			}
			return compose(snapshot.Entities, types.LayerLexical, scores), nil
		},

		types.StrategyBoolean: func(ctx context.Context, q string) ([]types.ScoredEntity, error) {
			node, err := query.Parse(q)
			if err != nil {
				return nil, err
			}
			matched, err := e.eval.Evaluate(node, snapshot.Entities)
			if err != nil {
				return nil, err
			}
			// Boolean matching is exact: full lexical evidence for members.
			scores := make(map[string]float64, len(matched))
			for _, entity := range matched {
				scores[entity.Name] = 1
			}
			return compose(snapshot.Entities, types.LayerLexical, scores), nil
		},

		types.StrategyFuzzy: func(ctx context.Context, q string) ([]types.ScoredEntity, error) {
			matcher := e.newMatcher(e.fuzzyThreshold(opts))
			matches, err := matcher.Search(ctx, q, snapshot.Entities)
			if err != nil {
				return nil, err
			}
			scores := make(map[string]float64, len(matches))
			for _, m := range matches {
				scores[m.Entity.Name] = m.Similarity
			}
			return compose(snapshot.Entities, types.LayerLexical, scores), nil
		},
	}

	if e.embedder != nil {
		runners[types.StrategySemantic] = func(ctx context.Context, q string) ([]types.ScoredEntity, error) {
			scores, err := e.semanticScores(ctx, q, snapshot.Entities)
			if err != nil {
				return nil, err
			}
			return compose(snapshot.Entities, types.LayerSemantic, scores), nil
		}
	}

	return runners
}
