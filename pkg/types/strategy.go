package types

import "fmt"

// Strategy identifies one executable search strategy. The planner runs
// strategies in ascending estimated-cost order; the set is closed.
type Strategy int

const (
	// StrategySubstring is a plain case-insensitive substring scan.
	StrategySubstring Strategy = iota
	// StrategyLexical ranks with TF-IDF/BM25 over the inverted index.
	StrategyLexical
	// StrategyBoolean parses and evaluates the boolean query AST.
	StrategyBoolean
	// StrategyFuzzy matches by Levenshtein similarity.
	StrategyFuzzy
	// StrategySemantic scores by embedding cosine similarity.
	StrategySemantic
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{
	StrategySubstring,
	StrategyLexical,
	StrategyBoolean,
	StrategyFuzzy,
	StrategySemantic,
}

// String returns the canonical strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategySubstring:
		return "substring"
	case StrategyLexical:
		return "lexical"
	case StrategyBoolean:
		return "boolean"
	case StrategyFuzzy:
		return "fuzzy"
	case StrategySemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// MarshalText renders the strategy by name so JSON output reads
// "boolean" rather than an opaque ordinal.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a strategy name produced by MarshalText.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy resolves a canonical strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for _, candidate := range Strategies {
		if candidate.String() == name {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// CostEstimate is the estimator's judgment of one strategy for one query:
// a relative cost (lower runs earlier) and a short reason string.
type CostEstimate struct {
	Strategy Strategy `json:"strategy"`
	Cost     float64  `json:"cost"`
	Reason   string   `json:"reason"`
}

// CostReport ranks every strategy for a query against a graph of a given
// size. It is advisory: callers may override the recommendation.
type CostReport struct {
	Query       string         `json:"query"`
	GraphSize   int            `json:"graph_size"`
	Estimates   []CostEstimate `json:"estimates"` // ascending by cost
	Recommended Strategy       `json:"recommended"`
}

// AdequacyReport records the planner's stop decision: the composite adequacy
// score, its four components, which layers contributed evidence, and which
// strategies actually ran.
type AdequacyReport struct {
	Score              float64    `json:"score"`
	Quantity           float64    `json:"quantity"`
	Diversity          float64    `json:"diversity"`
	Relevance          float64    `json:"relevance"`
	Coverage           float64    `json:"coverage"`
	ContributingLayers LayerSet   `json:"-"`
	StrategiesRun      []Strategy `json:"-"`
	StoppedEarly       bool       `json:"stopped_early"`
}

// SearchResults is the ranked output of a search operation, sorted by
// combined score descending with ties broken by entity name.
type SearchResults struct {
	Query    string          `json:"query"`
	Results  []*ScoredEntity `json:"results"`
	Adequacy *AdequacyReport `json:"adequacy,omitempty"`
	Cost     *CostReport     `json:"cost,omitempty"`
}
