package lattice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/latticesearch/lattice/pkg/config"
	"github.com/latticesearch/lattice/pkg/embedder"
	"github.com/latticesearch/lattice/pkg/fusion"
	"github.com/latticesearch/lattice/pkg/fuzzy"
	"github.com/latticesearch/lattice/pkg/index"
	"github.com/latticesearch/lattice/pkg/planner"
	"github.com/latticesearch/lattice/pkg/query"
	"github.com/latticesearch/lattice/pkg/store"
	"github.com/latticesearch/lattice/pkg/symbolic"
	"github.com/latticesearch/lattice/pkg/types"
	"github.com/latticesearch/lattice/pkg/workerpool"
)

// Config holds the engine's ranking tunables.
type Config struct {
	// Weights are the default fusion weights; callers may override per search.
	Weights types.Weights
	// BM25K1 and BM25B tune the lexical ranker (zero means default).
	BM25K1 float64
	BM25B  float64
	// KeepStopwords disables stopword filtering in the inverted index.
	KeepStopwords bool
	// AdequacyThreshold stops the planner once cleared (zero means default).
	AdequacyThreshold float64
	// FuzzyThreshold is the minimum edit-distance similarity (zero means default).
	FuzzyThreshold float64
	// PoolSize is the worker count for parallel fuzzy scoring; zero disables
	// the pool and fuzzy search runs sequentially.
	PoolSize int
	// Limit caps result counts when the caller does not (zero means all).
	Limit int
}

// DefaultConfig returns the engine defaults: equal weights, standard BM25
// parameters, and moderate thresholds.
func DefaultConfig() *Config {
	return &Config{
		Weights:           types.DefaultWeights(),
		BM25K1:            index.DefaultK1,
		BM25B:             index.DefaultB,
		AdequacyThreshold: planner.DefaultAdequacyThreshold,
		FuzzyThreshold:    fuzzy.DefaultThreshold,
		PoolSize:          4,
	}
}

// ConfigFromApp maps the application-level viper config onto engine tunables.
func ConfigFromApp(app *config.Config) *Config {
	cfg := DefaultConfig()
	cfg.Weights = types.Weights{
		Semantic: app.Search.Weights.Semantic,
		Lexical:  app.Search.Weights.Lexical,
		Symbolic: app.Search.Weights.Symbolic,
	}
	if app.Search.BM25.K1 > 0 {
		cfg.BM25K1 = app.Search.BM25.K1
	}
	if app.Search.BM25.B > 0 {
		cfg.BM25B = app.Search.BM25.B
	}
	cfg.KeepStopwords = app.Search.KeepStopwords
	if app.Search.AdequacyThreshold > 0 {
		cfg.AdequacyThreshold = app.Search.AdequacyThreshold
	}
	if app.Search.FuzzyThreshold > 0 {
		cfg.FuzzyThreshold = app.Search.FuzzyThreshold
	}
	cfg.PoolSize = app.Search.PoolSize
	cfg.Limit = app.Search.Limit
	return cfg
}

// SearchOptions tune one search call. The zero value uses engine defaults.
type SearchOptions struct {
	// Weights override the engine's fusion weights.
	Weights *types.Weights
	// Filter adds symbolic constraints; nil means the symbolic layer
	// contributes 0 everywhere.
	Filter *types.Filter
	// Limit caps the result count (zero falls back to the engine default).
	Limit int
	// SingleStrategy makes SearchAuto run only the recommended strategy
	// instead of the full adaptive plan.
	SingleStrategy bool
	// FuzzyThreshold overrides the similarity cutoff for the fuzzy strategy.
	FuzzyThreshold float64
}

// Engine is the search facade: it owns the index lifecycle, the scoring
// layers, and the adaptive planner over a graph store.
type Engine struct {
	store    store.GraphStore
	manager  *index.Manager
	eval     *query.Evaluator
	embedder embedder.Client
	pool     *workerpool.Pool
	cfg      *Config
	logger   *slog.Logger

	embMu    sync.Mutex
	embCache map[string][]float32

	closeOnce sync.Once
	closeErr  error
}

// New creates an engine over a graph store. The embedding client may be nil;
// the semantic layer then scores 0 everywhere. The engine subscribes to the
// store's mutation events to keep the index and embedding cache fresh.
func New(graphStore store.GraphStore, embedderClient embedder.Client, cfg *Config, logger *slog.Logger) (*Engine, error) {
	if graphStore == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	source := func(ctx context.Context) ([]*types.Entity, error) {
		snapshot, err := graphStore.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return snapshot.Entities, nil
	}

	e := &Engine{
		store:    graphStore,
		manager:  index.NewManager(source, index.Options{KeepStopwords: cfg.KeepStopwords}),
		eval:     query.NewEvaluator(),
		embedder: embedderClient,
		cfg:      cfg,
		logger:   logger,
		embCache: make(map[string][]float32),
	}

	if cfg.PoolSize > 0 {
		e.pool = workerpool.New(cfg.PoolSize, map[workerpool.TaskKind]workerpool.Handler{
			workerpool.TaskLevenshteinBatch: fuzzy.Handler(),
		})
		if err := e.pool.Open(); err != nil {
			return nil, fmt.Errorf("failed to open worker pool: %w", err)
		}
	}

	graphStore.Subscribe(func(ev types.MutationEvent) {
		e.manager.Apply(ev)
		e.embMu.Lock()
		delete(e.embCache, ev.Name)
		e.embMu.Unlock()
	})

	return e, nil
}

// Close releases the engine's resources: the worker pool and, when present,
// the embedding client. The graph store stays open; its owner closes it.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.pool != nil {
			e.pool.Close()
		}
		if e.embedder != nil {
			e.closeErr = e.embedder.Close()
		}
	})
	return e.closeErr
}

// Search runs the hybrid three-layer scan: every entity is scored by the
// semantic, lexical, and symbolic layers, fused under the weights, and
// ranked. Entities with no evidence from any layer are excluded.
func (e *Engine) Search(ctx context.Context, queryText string, opts *SearchOptions) (*types.SearchResults, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph snapshot: %w", err)
	}
	out := &types.SearchResults{Query: queryText}
	if len(snapshot.Entities) == 0 {
		return out, nil
	}

	fuser := fusion.NewFuser(e.weights(opts))

	var semantic, lexical map[string]float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scores, err := e.semanticScores(gctx, queryText, snapshot.Entities)
		if err != nil {
			// Degraded: the other layers carry the query.
			e.logger.Warn("semantic layer failed", "error", err)
			return nil
		}
		semantic = scores
		return nil
	})
	g.Go(func() error {
		scores, err := e.lexicalScores(gctx, queryText)
		if err != nil {
			e.logger.Warn("lexical layer failed", "error", err)
			return nil
		}
		lexical = scores
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sym := symbolic.NewScorer(opts.Filter)

	results := make([]types.ScoredEntity, 0, len(snapshot.Entities))
	for _, entity := range snapshot.Entities {
		var scores types.LayerScores
		scores.Semantic = semantic[entity.Name]
		scores.Lexical = lexical[entity.Name]
		if sym.Active() {
			scores.Symbolic = sym.Score(entity)
		}
		r := fuser.Compose(entity, scores)
		if r.Combined > 0 {
			results = append(results, r)
		}
	}
	fusion.Rank(results)
	out.Results = toPointers(e.truncate(results, opts.Limit))
	return out, nil
}

// SearchBoolean parses the query mini-language and evaluates the AST over
// the current snapshot, returning the matching set in snapshot order.
func (e *Engine) SearchBoolean(ctx context.Context, queryText string) ([]*types.Entity, error) {
	node, err := query.Parse(queryText)
	if err != nil {
		return nil, err
	}
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph snapshot: %w", err)
	}
	return e.eval.Evaluate(node, snapshot.Entities)
}

// SearchFuzzy matches entities by Levenshtein similarity. A non-positive
// threshold falls back to the configured default.
func (e *Engine) SearchFuzzy(ctx context.Context, queryText string, threshold float64) ([]fuzzy.Match, error) {
	if threshold <= 0 {
		threshold = e.fuzzyThreshold(nil)
	}
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph snapshot: %w", err)
	}
	matcher := e.newMatcher(threshold)
	return matcher.Search(ctx, queryText, snapshot.Entities)
}

// SearchAuto estimates per-strategy cost and runs the adaptive plan:
// strategies execute cheapest-first with results merged incrementally until
// adequacy clears the threshold. With opts.SingleStrategy only the
// recommended strategy runs. The cost and adequacy reports ride along in
// the results.
func (e *Engine) SearchAuto(ctx context.Context, queryText string, opts *SearchOptions) (*types.SearchResults, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph snapshot: %w", err)
	}

	fuser := fusion.NewFuser(e.weights(opts))
	pl := planner.New(
		planner.NewEstimator(e.embedder != nil),
		planner.NewAssessor(),
		fuser,
		e.strategyRunners(snapshot, fuser, opts),
		e.cfg.AdequacyThreshold,
		e.logger,
	)

	limit := opts.Limit
	if limit <= 0 {
		limit = e.cfg.Limit
	}

	out := &types.SearchResults{Query: queryText}
	if opts.SingleStrategy {
		cost := planner.NewEstimator(e.embedder != nil).Estimate(queryText, len(snapshot.Entities))
		results, adequacy, err := pl.RunSingle(ctx, cost.Recommended, queryText, len(snapshot.Entities), limit)
		if err != nil {
			return nil, err
		}
		out.Results = toPointers(results)
		out.Adequacy = &adequacy
		out.Cost = &cost
		return out, nil
	}

	results, adequacy, cost, err := pl.Run(ctx, queryText, len(snapshot.Entities), limit)
	if err != nil {
		return nil, err
	}
	out.Results = toPointers(results)
	out.Adequacy = &adequacy
	out.Cost = &cost
	return out, nil
}

// EstimateCost ranks the strategies for a query without running any of them.
func (e *Engine) EstimateCost(ctx context.Context, queryText string) (*types.CostReport, error) {
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph snapshot: %w", err)
	}
	report := planner.NewEstimator(e.embedder != nil).Estimate(queryText, len(snapshot.Entities))
	return &report, nil
}

func (e *Engine) weights(opts *SearchOptions) types.Weights {
	if opts != nil && opts.Weights != nil {
		return *opts.Weights
	}
	return e.cfg.Weights
}

func (e *Engine) fuzzyThreshold(opts *SearchOptions) float64 {
	if opts != nil && opts.FuzzyThreshold > 0 {
		return opts.FuzzyThreshold
	}
	if e.cfg.FuzzyThreshold > 0 {
		return e.cfg.FuzzyThreshold
	}
	return fuzzy.DefaultThreshold
}

func (e *Engine) newMatcher(threshold float64) *fuzzy.Matcher {
	matcherOpts := []fuzzy.Option{fuzzy.WithThreshold(threshold)}
	if e.pool != nil {
		matcherOpts = append(matcherOpts, fuzzy.WithPool(e.pool))
	}
	return fuzzy.NewMatcher(matcherOpts...)
}

func (e *Engine) truncate(results []types.ScoredEntity, limit int) []types.ScoredEntity {
	if limit <= 0 {
		limit = e.cfg.Limit
	}
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func toPointers(results []types.ScoredEntity) []*types.ScoredEntity {
	if len(results) == 0 {
		return nil
	}
	out := make([]*types.ScoredEntity, len(results))
	for i := range results {
		r := results[i]
		out[i] = &r
	}
	return out
}
