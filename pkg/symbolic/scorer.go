package symbolic

import (
	"strings"
	"time"

	"github.com/latticesearch/lattice/pkg/types"
)

// Scorer evaluates one Filter against entities. A nil or empty filter scores
// everything 0.
type Scorer struct {
	filter *types.Filter
}

// NewScorer creates a scorer for the given filter. The filter may be nil.
func NewScorer(filter *types.Filter) *Scorer {
	return &Scorer{filter: filter}
}

// Active reports whether the scorer carries any constraint. Inactive scorers
// are skipped by the fusion layer.
func (s *Scorer) Active() bool {
	return !s.filter.IsEmpty()
}

// Score returns the fraction of constraint groups the entity satisfies, in
// [0,1]. With no constraints the score is 0 for every entity.
func (s *Scorer) Score(e *types.Entity) float64 {
	total := s.filter.ConstraintCount()
	if total == 0 || e == nil {
		return 0
	}
	satisfied := 0
	if len(s.filter.Tags) > 0 && matchesAnyTag(e, s.filter.Tags) {
		satisfied++
	}
	if len(s.filter.Types) > 0 && matchesType(e, s.filter.Types) {
		satisfied++
	}
	if s.filter.MinImportance != nil || s.filter.MaxImportance != nil {
		if matchesImportance(e, s.filter.MinImportance, s.filter.MaxImportance) {
			satisfied++
		}
	}
	if s.filter.CreatedAfter != nil || s.filter.CreatedBefore != nil {
		if matchesRange(e.CreatedAt, s.filter.CreatedAfter, s.filter.CreatedBefore) {
			satisfied++
		}
	}
	if s.filter.ModifiedAfter != nil || s.filter.ModifiedBefore != nil {
		if matchesRange(e.UpdatedAt, s.filter.ModifiedAfter, s.filter.ModifiedBefore) {
			satisfied++
		}
	}
	return float64(satisfied) / float64(total)
}

// Matches reports whether the entity satisfies every constraint group. Used
// when the filter acts as a hard gate rather than a score contributor.
func (s *Scorer) Matches(e *types.Entity) bool {
	total := s.filter.ConstraintCount()
	if total == 0 {
		return true
	}
	return s.Score(e) == 1
}

func matchesAnyTag(e *types.Entity, tags []string) bool {
	for _, tag := range tags {
		if e.HasTag(tag) {
			return true
		}
	}
	return false
}

func matchesType(e *types.Entity, typs []string) bool {
	for _, t := range typs {
		if strings.EqualFold(e.Type, t) {
			return true
		}
	}
	return false
}

func matchesImportance(e *types.Entity, min, max *float64) bool {
	if e.Importance == nil {
		return false
	}
	if min != nil && *e.Importance < *min {
		return false
	}
	if max != nil && *e.Importance > *max {
		return false
	}
	return true
}

func matchesRange(ts, after, before *time.Time) bool {
	if ts == nil {
		return false
	}
	if after != nil && ts.Before(*after) {
		return false
	}
	if before != nil && ts.After(*before) {
		return false
	}
	return true
}
