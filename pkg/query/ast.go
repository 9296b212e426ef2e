package query

import (
	"fmt"
	"strings"
)

// Node is one node of the parsed query AST. Nodes are immutable after Parse.
type Node interface {
	fmt.Stringer
	node()
}

// BoolOp is a boolean operator.
type BoolOp int

const (
	// OpAnd intersects its operands' match sets.
	OpAnd BoolOp = iota
	// OpOr unions its operands' match sets.
	OpOr
	// OpNot complements its single operand against the universe.
	OpNot
)

// String returns the operator keyword.
func (op BoolOp) String() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	default:
		return "?"
	}
}

// Field names a scoped match target. FieldAny matches across all entity text.
type Field int

const (
	// FieldAny matches name, type, observations, and tags.
	FieldAny Field = iota
	// FieldName matches the entity name only.
	FieldName
	// FieldType matches the type label only.
	FieldType
	// FieldObservation matches observation text only.
	FieldObservation
	// FieldTag matches tags only.
	FieldTag
)

// String returns the field prefix keyword.
func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldType:
		return "type"
	case FieldObservation:
		return "observation"
	case FieldTag:
		return "tag"
	default:
		return "any"
	}
}

// fieldByName resolves a field prefix, case-insensitively. The second return
// is false for unknown prefixes, which fall back to FieldAny.
func fieldByName(name string) (Field, bool) {
	switch strings.ToLower(name) {
	case "name":
		return FieldName, true
	case "type":
		return FieldType, true
	case "observation", "observations":
		return FieldObservation, true
	case "tag", "tags":
		return FieldTag, true
	default:
		return FieldAny, false
	}
}

// TermNode matches a bare term by case-insensitive substring.
type TermNode struct {
	Term string
}

func (*TermNode) node() {}

// String implements Node.
func (n *TermNode) String() string { return n.Term }

// PhraseNode matches an exact quoted phrase.
type PhraseNode struct {
	Phrase string
}

func (*PhraseNode) node() {}

// String implements Node.
func (n *PhraseNode) String() string { return `"` + n.Phrase + `"` }

// WildcardNode matches a single token against a glob pattern (* and ?).
type WildcardNode struct {
	Pattern string
}

func (*WildcardNode) node() {}

// String implements Node.
func (n *WildcardNode) String() string { return n.Pattern }

// ProximityNode matches when every word occurs within a window of at most
// MaxSpan word positions. Parse rejects clauses with more than
// MaxProximityTerms words.
type ProximityNode struct {
	Words   []string
	MaxSpan int
}

func (*ProximityNode) node() {}

// String implements Node.
func (n *ProximityNode) String() string {
	return fmt.Sprintf("%q~%d", strings.Join(n.Words, " "), n.MaxSpan)
}

// FieldNode restricts its child to one entity field.
type FieldNode struct {
	Field Field
	Child Node
}

func (*FieldNode) node() {}

// String implements Node.
func (n *FieldNode) String() string {
	return n.Field.String() + ":" + n.Child.String()
}

// BooleanNode combines child nodes with one operator. OpNot always has
// exactly one child; OpAnd and OpOr have at least two.
type BooleanNode struct {
	Op       BoolOp
	Children []Node
}

func (*BooleanNode) node() {}

// String implements Node.
func (n *BooleanNode) String() string {
	if n.Op == OpNot {
		return "NOT " + n.Children[0].String()
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " "+n.Op.String()+" ") + ")"
}
