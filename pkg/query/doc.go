// Package query implements the lattice query mini-language: parsing a free
// text query string into an immutable AST and evaluating that AST over a
// candidate universe of entities.
//
// # Grammar
//
// Queries are whitespace-delimited terms with the following constructs:
//
//	fox                 bare term (case-insensitive substring match)
//	"machine learning"  phrase (exact, operators inside are not split)
//	"machine learning"~3  proximity phrase with a maximum word span of 3
//	type:person         field-scoped sub-term (name, type, observation, tag)
//	data*               wildcard term (* = any run, ? = one character)
//	a AND b, a OR b, NOT a, (a OR b) AND c
//
// Adjacent bare terms with no explicit operator are an implicit AND. Operator
// precedence, tightest to loosest: NOT, AND, OR. Unknown field prefixes fall
// back to unrestricted matching of the sub-term rather than erroring.
//
// Malformed input (unbalanced parentheses, a dangling operator, an empty
// query) is reported as a *ParseError, never as an empty result set.
//
// # Evaluation
//
// Evaluate applies an AST to a universe U: AND is set intersection, OR set
// union, NOT is U minus the operand's matches (the caller supplies U, the
// planner passes all entities by default). Leaf nodes are evaluated by
// predicate functions over one entity's text, tags, and type label.
package query
