// Package symbolic scores entities against structured filter constraints:
// required tags, required types, an importance range, and creation or
// modification date ranges.
//
// Each satisfied constraint group contributes an equal share of the score,
// so an entity satisfying every group scores 1 and one satisfying none
// scores 0. With no constraints supplied the scorer contributes 0 for every
// entity; it never invents a default score for unfiltered queries.
package symbolic
