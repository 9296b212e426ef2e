package types

// Layer identifies one scoring layer. The set is closed: adding a layer means
// adding a variant here and a scorer for it, checked at compile time by the
// exhaustive switches in the fusion package.
type Layer int

const (
	// LayerSemantic scores by embedding similarity.
	LayerSemantic Layer = iota
	// LayerLexical scores by TF-IDF/BM25 over the inverted index.
	LayerLexical
	// LayerSymbolic scores by structured constraints (tags, types, ranges).
	LayerSymbolic
)

// Layers lists every layer in declaration order.
var Layers = []Layer{LayerSemantic, LayerLexical, LayerSymbolic}

// String returns the canonical layer name.
func (l Layer) String() string {
	switch l {
	case LayerSemantic:
		return "semantic"
	case LayerLexical:
		return "lexical"
	case LayerSymbolic:
		return "symbolic"
	default:
		return "unknown"
	}
}

// LayerSet is a bitset of layers, used to record which layers produced
// non-zero evidence for an entity.
type LayerSet uint8

// Add returns the set with l included.
func (s LayerSet) Add(l Layer) LayerSet { return s | (1 << uint(l)) }

// Has reports whether l is in the set.
func (s LayerSet) Has(l Layer) bool { return s&(1<<uint(l)) != 0 }

// Union merges two sets.
func (s LayerSet) Union(other LayerSet) LayerSet { return s | other }

// Len returns the number of layers in the set.
func (s LayerSet) Len() int {
	n := 0
	for _, l := range Layers {
		if s.Has(l) {
			n++
		}
	}
	return n
}

// Slice returns the members in declaration order.
func (s LayerSet) Slice() []Layer {
	var out []Layer
	for _, l := range Layers {
		if s.Has(l) {
			out = append(out, l)
		}
	}
	return out
}

// Strings returns the member names in declaration order.
func (s LayerSet) Strings() []string {
	members := s.Slice()
	out := make([]string, len(members))
	for i, l := range members {
		out[i] = l.String()
	}
	return out
}

// LayerScores holds one entity's per-layer scores, each in [0,1] with 0
// meaning "no evidence from this layer".
type LayerScores struct {
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
	Symbolic float64 `json:"symbolic"`
}

// Get returns the score for one layer.
func (s LayerScores) Get(l Layer) float64 {
	switch l {
	case LayerSemantic:
		return s.Semantic
	case LayerLexical:
		return s.Lexical
	case LayerSymbolic:
		return s.Symbolic
	default:
		return 0
	}
}

// Set assigns the score for one layer.
func (s *LayerScores) Set(l Layer, v float64) {
	switch l {
	case LayerSemantic:
		s.Semantic = v
	case LayerLexical:
		s.Lexical = v
	case LayerSymbolic:
		s.Symbolic = v
	}
}

// Matched returns the set of layers with non-zero evidence.
func (s LayerScores) Matched() LayerSet {
	var set LayerSet
	for _, l := range Layers {
		if s.Get(l) > 0 {
			set = set.Add(l)
		}
	}
	return set
}

// ScoredEntity is one ranked search result: the entity, its per-layer scores,
// the fused combined score, and the layers that contributed evidence.
type ScoredEntity struct {
	Entity        *Entity     `json:"entity"`
	Scores        LayerScores `json:"scores"`
	Combined      float64     `json:"combined"`
	MatchedLayers LayerSet    `json:"-"`
}

// Weights are the caller-supplied fusion weights. They need not sum to 1;
// Normalize is applied before combination.
type Weights struct {
	Semantic float64 `json:"semantic" mapstructure:"semantic"`
	Lexical  float64 `json:"lexical" mapstructure:"lexical"`
	Symbolic float64 `json:"symbolic" mapstructure:"symbolic"`
}

// DefaultWeights weight all three layers equally.
func DefaultWeights() Weights {
	return Weights{Semantic: 1, Lexical: 1, Symbolic: 1}
}

// Normalize scales the weights to sum to 1. Non-positive or all-zero input
// falls back to equal thirds so a combined score stays in [0,1].
func (w Weights) Normalize() Weights {
	s := w.Semantic
	if s < 0 {
		s = 0
	}
	l := w.Lexical
	if l < 0 {
		l = 0
	}
	y := w.Symbolic
	if y < 0 {
		y = 0
	}
	total := s + l + y
	if total == 0 {
		third := 1.0 / 3.0
		return Weights{Semantic: third, Lexical: third, Symbolic: third}
	}
	return Weights{Semantic: s / total, Lexical: l / total, Symbolic: y / total}
}

// Get returns the weight for one layer.
func (w Weights) Get(l Layer) float64 {
	switch l {
	case LayerSemantic:
		return w.Semantic
	case LayerLexical:
		return w.Lexical
	case LayerSymbolic:
		return w.Symbolic
	default:
		return 0
	}
}
