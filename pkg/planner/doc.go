// Package planner decides which search strategies to run and when to stop.
//
// The Estimator inspects cheap structural signals of the raw query string
// (boolean operators, field prefixes, wildcards, phrases, term count) and
// the graph size, and ranks the strategies by relative cost. The ranking is
// advisory; callers may override it.
//
// The Planner executes strategies in ascending estimated-cost order, merges
// each strategy's results through the fusion layer, and after each merge
// computes an adequacy score from four components: quantity (0.35),
// diversity (0.25), relevance (0.25), and coverage (0.15). Once the
// composite clears the configured threshold no further strategy runs. At
// least one strategy always runs, strategy failures degrade to an empty
// contribution, and an empty graph yields an empty list with adequacy 0
// rather than an error.
package planner
