package index

import (
	"strings"
	"unicode"
)

// stopwords is the small built-in English list filtered before lexical
// scoring. Filtering can be disabled for exact-phrase-sensitive callers.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "no": {}, "not": {}, "of": {},
	"on": {}, "or": {}, "such": {}, "that": {}, "the": {}, "their": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "will": {}, "with": {},
}

// IsStopword reports whether the (already lowercased) word is a stopword.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// Tokenize lowercases the text, strips punctuation, and splits on
// whitespace. Positions in the returned slice are the word positions used
// by proximity and posting lists.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return fields
}

// TokenizeFiltered tokenizes and drops stopwords.
func TokenizeFiltered(text string) []string {
	tokens := Tokenize(text)
	out := tokens[:0]
	for _, t := range tokens {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}
