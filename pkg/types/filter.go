package types

import "time"

// Filter is the structured-constraint input of the symbolic layer. Every
// field is optional; an empty filter makes the symbolic scorer a no-op.
type Filter struct {
	// Tags the entity must carry (any match counts as one satisfied constraint).
	Tags []string `json:"tags,omitempty"`
	// Types the entity's type label must be among.
	Types []string `json:"types,omitempty"`
	// MinImportance / MaxImportance bound the entity's importance.
	MinImportance *float64 `json:"min_importance,omitempty"`
	MaxImportance *float64 `json:"max_importance,omitempty"`
	// CreatedAfter / CreatedBefore bound the creation timestamp.
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	// ModifiedAfter / ModifiedBefore bound the modification timestamp.
	ModifiedAfter  *time.Time `json:"modified_after,omitempty"`
	ModifiedBefore *time.Time `json:"modified_before,omitempty"`
}

// IsEmpty reports whether no constraint is set at all.
func (f *Filter) IsEmpty() bool {
	if f == nil {
		return true
	}
	return len(f.Tags) == 0 &&
		len(f.Types) == 0 &&
		f.MinImportance == nil && f.MaxImportance == nil &&
		f.CreatedAfter == nil && f.CreatedBefore == nil &&
		f.ModifiedAfter == nil && f.ModifiedBefore == nil
}

// ConstraintCount returns the number of active constraint groups. A tag list,
// a type list, an importance range, and each date range count as one group.
func (f *Filter) ConstraintCount() int {
	if f == nil {
		return 0
	}
	n := 0
	if len(f.Tags) > 0 {
		n++
	}
	if len(f.Types) > 0 {
		n++
	}
	if f.MinImportance != nil || f.MaxImportance != nil {
		n++
	}
	if f.CreatedAfter != nil || f.CreatedBefore != nil {
		n++
	}
	if f.ModifiedAfter != nil || f.ModifiedBefore != nil {
		n++
	}
	return n
}
