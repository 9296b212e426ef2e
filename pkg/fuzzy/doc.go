// Package fuzzy implements approximate string matching by Levenshtein edit
// distance. Distance runs over runes with two DP rows sized to the shorter
// string; similarity is 1 - distance/max(len), so identical strings score 1
// and fully dissimilar strings score 0.
//
// The Matcher scans entity names and observation text, accepting candidates
// whose best similarity clears a threshold. Large graphs are split into
// chunks scored in parallel on a worker pool; without a pool the matcher
// degrades to a sequential scan.
package fuzzy
