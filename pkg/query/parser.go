package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxProximityTerms bounds the number of words a single proximity clause may
// carry. Proximity evaluation slides a window over per-word position lists,
// so the bound guards against pathological queries rather than runtime blowup.
const MaxProximityTerms = 5

// ParseError describes a malformed query. Pos is a byte offset into the
// original query string.
type ParseError struct {
	Pos int
	Msg string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("query syntax error at offset %d: %s", e.Pos, e.Msg)
}

// ErrEmptyQuery is returned by Parse for a blank query string.
var ErrEmptyQuery = &ParseError{Msg: "empty query"}

// IsSyntaxError reports whether err is a query syntax error.
func IsSyntaxError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokPhrase
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	span int // proximity span for tokPhrase, -1 when absent
	pos  int
}

// Parse builds the AST for a query string. A blank query yields ErrEmptyQuery;
// callers that permit empty input must check before calling.
func Parse(input string) (Node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyQuery
	}
	p := &parser{tokens: tokens, input: input}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		tok := p.tokens[p.i]
		return nil, &ParseError{Pos: tok.pos, Msg: "unbalanced parenthesis: unexpected \")\""}
	}
	return node, nil
}

// lex splits the input into words, quoted phrases (with optional ~N
// proximity suffix), and parentheses. Quote and parenthesis nesting is
// resolved here so boolean keywords inside phrases are never mis-split.
func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
		case r == '"':
			start := i
			i++
			var sb strings.Builder
			for i < len(runes) && runes[i] != '"' {
				sb.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, &ParseError{Pos: start, Msg: "unterminated phrase"}
			}
			i++ // closing quote
			span := -1
			if i < len(runes) && runes[i] == '~' {
				i++
				numStart := i
				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
				if numStart == i {
					return nil, &ParseError{Pos: numStart, Msg: "proximity suffix ~ requires a number"}
				}
				n, err := strconv.Atoi(string(runes[numStart:i]))
				if err != nil {
					return nil, &ParseError{Pos: numStart, Msg: "invalid proximity span"}
				}
				span = n
			}
			tokens = append(tokens, token{kind: tokPhrase, text: sb.String(), span: span, pos: start})
		default:
			start := i
			for i < len(runes) && !unicode.IsSpace(runes[i]) && runes[i] != '(' && runes[i] != ')' && runes[i] != '"' {
				i++
			}
			tokens = append(tokens, token{kind: tokWord, text: string(runes[start:i]), span: -1, pos: start})
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	input  string
	i      int
}

func (p *parser) eof() bool { return p.i >= len(p.tokens) }

func (p *parser) peek() token { return p.tokens[p.i] }

func (p *parser) next() token {
	tok := p.tokens[p.i]
	p.i++
	return tok
}

func (p *parser) peekKeyword(kw string) bool {
	if p.eof() {
		return false
	}
	tok := p.peek()
	return tok.kind == tokWord && strings.EqualFold(tok.text, kw)
}

// parseOr handles the loosest operator first, the way the grammar splits
// top-down: OR, then AND, then a leading NOT.
func (p *parser) parseOr() (Node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	for p.peekKeyword("OR") {
		or := p.next()
		if p.eof() || p.peek().kind == tokRParen {
			return nil, &ParseError{Pos: or.pos, Msg: "dangling OR operator"}
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &BooleanNode{Op: OpOr, Children: children}, nil
}

// parseAnd collects operands separated by explicit AND keywords or by plain
// adjacency, which is an implicit AND.
func (p *parser) parseAnd() (Node, error) {
	var children []Node
	for {
		if p.eof() || p.peek().kind == tokRParen || p.peekKeyword("OR") {
			break
		}
		if p.peekKeyword("AND") {
			and := p.next()
			if len(children) == 0 {
				return nil, &ParseError{Pos: and.pos, Msg: "dangling AND operator"}
			}
			if p.eof() || p.peek().kind == tokRParen || p.peekKeyword("OR") {
				return nil, &ParseError{Pos: and.pos, Msg: "dangling AND operator"}
			}
			continue
		}
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	switch len(children) {
	case 0:
		pos := 0
		if !p.eof() {
			pos = p.peek().pos
		}
		return nil, &ParseError{Pos: pos, Msg: "expected a term"}
	case 1:
		return children[0], nil
	default:
		return &BooleanNode{Op: OpAnd, Children: children}, nil
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.peekKeyword("NOT") {
		not := p.next()
		if p.eof() || p.peek().kind == tokRParen || p.peekKeyword("OR") || p.peekKeyword("AND") {
			return nil, &ParseError{Pos: not.pos, Msg: "dangling NOT operator"}
		}
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BooleanNode{Op: OpNot, Children: []Node{child}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	if p.eof() {
		return nil, &ParseError{Pos: len(p.input), Msg: "unexpected end of query"}
	}
	tok := p.next()
	switch tok.kind {
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.eof() || p.peek().kind != tokRParen {
			return nil, &ParseError{Pos: tok.pos, Msg: "unbalanced parenthesis: missing \")\""}
		}
		p.next()
		return inner, nil
	case tokRParen:
		return nil, &ParseError{Pos: tok.pos, Msg: "unbalanced parenthesis: unexpected \")\""}
	case tokPhrase:
		return phraseNode(tok)
	case tokWord:
		if strings.EqualFold(tok.text, "AND") || strings.EqualFold(tok.text, "OR") {
			return nil, &ParseError{Pos: tok.pos, Msg: "dangling " + strings.ToUpper(tok.text) + " operator"}
		}
		return wordNode(tok)
	default:
		return nil, &ParseError{Pos: tok.pos, Msg: "unexpected token"}
	}
}

func phraseNode(tok token) (Node, error) {
	phrase := strings.TrimSpace(tok.text)
	if phrase == "" {
		return nil, &ParseError{Pos: tok.pos, Msg: "empty phrase"}
	}
	if tok.span < 0 {
		return &PhraseNode{Phrase: phrase}, nil
	}
	words := normalizeWords(phrase)
	if len(words) == 0 {
		return nil, &ParseError{Pos: tok.pos, Msg: "empty proximity phrase"}
	}
	if len(words) > MaxProximityTerms {
		return nil, &ParseError{
			Pos: tok.pos,
			Msg: fmt.Sprintf("proximity clause has %d terms, maximum is %d", len(words), MaxProximityTerms),
		}
	}
	return &ProximityNode{Words: words, MaxSpan: tok.span}, nil
}

func wordNode(tok token) (Node, error) {
	text := tok.text
	if idx := strings.Index(text, ":"); idx > 0 && idx < len(text)-1 {
		prefix := text[:idx]
		value := text[idx+1:]
		field, known := fieldByName(prefix)
		leaf := leafNode(value)
		if !known {
			// Unknown field prefixes degrade to unrestricted matching of
			// the sub-term rather than erroring.
			return leaf, nil
		}
		return &FieldNode{Field: field, Child: leaf}, nil
	}
	return leafNode(text), nil
}

func leafNode(text string) Node {
	if strings.ContainsAny(text, "*?") {
		return &WildcardNode{Pattern: text}
	}
	return &TermNode{Term: text}
}

// normalizeWords lowercases and splits on whitespace, stripping leading and
// trailing punctuation from each word.
func normalizeWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
