package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/latticesearch/lattice/pkg/types"
)

// Evaluator applies a parsed AST to entities. It caches compiled wildcard
// patterns across queries; the cache is safe for concurrent use and can be
// invalidated wholesale when the host wants to bound memory.
type Evaluator struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewEvaluator creates an Evaluator with an empty pattern cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{patterns: make(map[string]*regexp.Regexp)}
}

// Evaluate returns the subset of universe matched by node, preserving the
// universe's order so output stays deterministic. NOT is interpreted
// relative to the supplied universe.
func (ev *Evaluator) Evaluate(node Node, universe []*types.Entity) ([]*types.Entity, error) {
	mask, err := ev.evalMask(node, universe)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Entity, 0, len(universe))
	for i, e := range universe {
		if mask[i] {
			out = append(out, e)
		}
	}
	return out, nil
}

// Match reports whether a single entity satisfies the AST, with the entity
// itself as the universe (so bare NOT means "does not match").
func (ev *Evaluator) Match(node Node, e *types.Entity) (bool, error) {
	mask, err := ev.evalMask(node, []*types.Entity{e})
	if err != nil {
		return false, err
	}
	return mask[0], nil
}

// InvalidatePatterns drops every compiled wildcard pattern.
func (ev *Evaluator) InvalidatePatterns() {
	ev.mu.Lock()
	ev.patterns = make(map[string]*regexp.Regexp)
	ev.mu.Unlock()
}

func (ev *Evaluator) evalMask(node Node, universe []*types.Entity) ([]bool, error) {
	switch n := node.(type) {
	case *BooleanNode:
		return ev.evalBoolean(n, universe)
	default:
		mask := make([]bool, len(universe))
		for i, e := range universe {
			ok, err := ev.matchLeaf(node, e, FieldAny)
			if err != nil {
				return nil, err
			}
			mask[i] = ok
		}
		return mask, nil
	}
}

func (ev *Evaluator) evalBoolean(n *BooleanNode, universe []*types.Entity) ([]bool, error) {
	switch n.Op {
	case OpNot:
		child, err := ev.evalMask(n.Children[0], universe)
		if err != nil {
			return nil, err
		}
		for i := range child {
			child[i] = !child[i]
		}
		return child, nil
	case OpAnd, OpOr:
		acc, err := ev.evalMask(n.Children[0], universe)
		if err != nil {
			return nil, err
		}
		for _, c := range n.Children[1:] {
			mask, err := ev.evalMask(c, universe)
			if err != nil {
				return nil, err
			}
			for i := range acc {
				if n.Op == OpAnd {
					acc[i] = acc[i] && mask[i]
				} else {
					acc[i] = acc[i] || mask[i]
				}
			}
		}
		return acc, nil
	default:
		return nil, fmt.Errorf("unknown boolean operator %v", n.Op)
	}
}

// matchLeaf evaluates a non-boolean node against one entity within a field
// scope. FieldNode narrows the scope for its child.
func (ev *Evaluator) matchLeaf(node Node, e *types.Entity, scope Field) (bool, error) {
	switch n := node.(type) {
	case *FieldNode:
		return ev.matchLeaf(n.Child, e, n.Field)
	case *TermNode:
		term := strings.ToLower(n.Term)
		for _, text := range fieldTexts(e, scope) {
			if strings.Contains(strings.ToLower(text), term) {
				return true, nil
			}
		}
		return false, nil
	case *PhraseNode:
		phrase := strings.Join(normalizeWords(n.Phrase), " ")
		for _, text := range fieldTexts(e, scope) {
			haystack := strings.Join(normalizeWords(text), " ")
			if strings.Contains(haystack, phrase) {
				return true, nil
			}
		}
		return false, nil
	case *WildcardNode:
		re, err := ev.compilePattern(n.Pattern)
		if err != nil {
			return false, err
		}
		for _, text := range fieldTexts(e, scope) {
			for _, word := range normalizeWords(text) {
				if re.MatchString(word) {
					return true, nil
				}
			}
		}
		return false, nil
	case *ProximityNode:
		for _, text := range fieldTexts(e, scope) {
			if ProximityScore(n.Words, normalizeWords(text), n.MaxSpan) > 0 {
				return true, nil
			}
		}
		return false, nil
	case *BooleanNode:
		// A boolean nested under a field scope keeps the scope on its leaves.
		switch n.Op {
		case OpNot:
			ok, err := ev.matchLeaf(n.Children[0], e, scope)
			return !ok, err
		default:
			for _, c := range n.Children {
				ok, err := ev.matchLeaf(c, e, scope)
				if err != nil {
					return false, err
				}
				if n.Op == OpAnd && !ok {
					return false, nil
				}
				if n.Op == OpOr && ok {
					return true, nil
				}
			}
			return n.Op == OpAnd, nil
		}
	default:
		return false, fmt.Errorf("unknown query node %T", node)
	}
}

// compilePattern translates a glob pattern (* and ?) into an anchored regexp,
// memoized across calls.
func (ev *Evaluator) compilePattern(pattern string) (*regexp.Regexp, error) {
	key := strings.ToLower(pattern)
	ev.mu.RLock()
	re, ok := ev.patterns[key]
	ev.mu.RUnlock()
	if ok {
		return re, nil
	}

	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range key {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("invalid wildcard pattern %q", pattern)}
	}

	ev.mu.Lock()
	ev.patterns[key] = re
	ev.mu.Unlock()
	return re, nil
}

// fieldTexts returns the text fragments a scope exposes for matching.
func fieldTexts(e *types.Entity, scope Field) []string {
	switch scope {
	case FieldName:
		return []string{e.Name}
	case FieldType:
		return []string{e.Type}
	case FieldObservation:
		return e.Observations
	case FieldTag:
		return e.Tags
	default:
		texts := make([]string, 0, len(e.Observations)+len(e.Tags)+2)
		texts = append(texts, e.Name, e.Type)
		texts = append(texts, e.Observations...)
		texts = append(texts, e.Tags...)
		return texts
	}
}

// ProximityScore scores how tightly the words cluster inside tokens. It
// returns 0 when any word is absent or the best window exceeds maxSpan, and
// otherwise a score in (0,1] that decreases as the best window widens. The
// window search slides over sorted position lists, linear in total positions.
func ProximityScore(words, tokens []string, maxSpan int) float64 {
	if len(words) == 0 || len(tokens) == 0 {
		return 0
	}
	if len(words) == 1 {
		for _, t := range tokens {
			if t == words[0] {
				return 1
			}
		}
		return 0
	}

	positions := make(map[string][]int, len(words))
	need := make(map[string]int, len(words))
	for _, w := range words {
		need[w]++
	}
	for i, t := range tokens {
		if _, wanted := need[t]; wanted {
			positions[t] = append(positions[t], i)
		}
	}
	for w := range need {
		if len(positions[w]) == 0 {
			return 0
		}
	}

	// Sliding window over token positions: expand the right edge, shrink the
	// left while every word stays covered, and track the tightest span.
	type hit struct {
		pos  int
		word string
	}
	var hits []hit
	for w, ps := range positions {
		for _, p := range ps {
			hits = append(hits, hit{pos: p, word: w})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	counts := make(map[string]int, len(need))
	covered := 0
	best := -1
	left := 0
	for right := 0; right < len(hits); right++ {
		w := hits[right].word
		counts[w]++
		if counts[w] == 1 {
			covered++
		}
		for covered == len(need) {
			span := hits[right].pos - hits[left].pos
			if best < 0 || span < best {
				best = span
			}
			lw := hits[left].word
			counts[lw]--
			if counts[lw] == 0 {
				covered--
			}
			left++
		}
	}
	if best < 0 || best > maxSpan {
		return 0
	}
	// Tightest possible window for k words spans k-1 positions.
	slack := best - (len(need) - 1)
	if slack < 0 {
		slack = 0
	}
	return 1.0 / (1.0 + float64(slack))
}
