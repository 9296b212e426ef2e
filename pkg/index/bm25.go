package index

// BM25 defaults follow the common Okapi parameterization.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// BM25 ranks documents with term-frequency saturation (K1) and document
// length normalization (B) against the corpus average.
type BM25 struct {
	idx *Index
	K1  float64
	B   float64
}

// NewBM25 creates a BM25 ranker with default parameters.
func NewBM25(idx *Index) *BM25 {
	return &BM25{idx: idx, K1: DefaultK1, B: DefaultB}
}

func (r *BM25) termScore(freq, docLen int, stats Stats, df int) float64 {
	idf := IDF(stats.DocCount, df)
	if idf == 0 {
		return 0
	}
	tf := float64(freq)
	norm := 1 - r.B + r.B*float64(docLen)/stats.AvgDocLength
	return idf * tf * (r.K1 + 1) / (tf + r.K1*norm)
}

// Score computes the BM25 score of one document for the query.
func (r *BM25) Score(queryText, doc string) float64 {
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
		score += r.termScore(p.Frequency, docLen, stats, r.idx.DocFrequency(term))
	}
	return score
}

// Search scores every document containing at least one query term with
// nonzero IDF, sorted by score descending with ties broken by document name.
func (r *BM25) Search(queryText string) []DocScore {
	return searchPostings(r.idx, queryText, func(term, doc string, p *Posting, stats Stats) float64 {
		return r.termScore(p.Frequency, r.idx.DocLength(doc), stats, r.idx.DocFrequency(term))
	})
}
