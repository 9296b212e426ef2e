package index

import (
	"math"
	"sort"
)

// DocScore is one document's raw lexical score. Raw scores are unbounded;
// the fusion layer normalizes them into [0,1] per result set.
type DocScore struct {
	Doc   string
	Score float64
}

// IDF computes ln(N/df), clipped to 0 rather than negative when the term
// appears in every document. A term present everywhere carries zero
// discriminative weight.
func IDF(docCount, docFrequency int) float64 {
	if docCount == 0 || docFrequency == 0 {
		return 0
	}
	idf := math.Log(float64(docCount) / float64(docFrequency))
	if idf < 0 {
		return 0
	}
	return idf
}

// TFIDF ranks documents by term-frequency × inverse-document-frequency.
type TFIDF struct {
	idx *Index
}

// NewTFIDF creates a TF-IDF ranker over an index.
func NewTFIDF(idx *Index) *TFIDF {
	return &TFIDF{idx: idx}
}

// Score computes the TF-IDF score of one document for the query. Terms
// absent from the document contribute exactly 0.
func (r *TFIDF) Score(queryText, doc string) float64 {
	terms := r.idx.tokenize(queryText)
	docLen := r.idx.DocLength(doc)
	if docLen == 0 {
		return 0
	}
	stats := r.idx.Stats()
	var score float64
	for _, term := range terms {
		p, ok := r.idx.Posting(term, doc)
		if !ok {
			continue
		}
		tf := float64(p.Frequency) / float64(docLen)
		score += tf * IDF(stats.DocCount, r.idx.DocFrequency(term))
	}
	return score
}

// Search scores every document containing at least one query term, sorted
// by score descending with ties broken by document name.
func (r *TFIDF) Search(queryText string) []DocScore {
	return searchPostings(r.idx, queryText, func(term, doc string, p *Posting, stats Stats) float64 {
		tf := float64(p.Frequency) / float64(r.idx.DocLength(doc))
		return tf * IDF(stats.DocCount, r.idx.DocFrequency(term))
	})
}

// searchPostings accumulates per-term contributions across the posting
// lists of the query's terms.
func searchPostings(idx *Index, queryText string, contribution func(term, doc string, p *Posting, stats Stats) float64) []DocScore {
	terms := idx.tokenize(queryText)
	stats := idx.Stats()
	scores := make(map[string]float64)
	for _, term := range terms {
		for _, p := range idx.Postings(term) {
			scores[p.Doc] += contribution(term, p.Doc, p, stats)
		}
	}
	out := make([]DocScore, 0, len(scores))
	for doc, score := range scores {
		if score > 0 {
			out = append(out, DocScore{Doc: doc, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Doc < out[j].Doc
	})
	return out
}
