// Package index holds the in-memory search indexes derived from the record
// store: an inverted text index with BM25 ranking and a perceptual-fingerprint
// similarity index.
//
// Both indexes are rebuildable projections of the database; on any
// disagreement the screenshots table is the source of truth. Neither index is
// internally synchronized — the history engine serializes access.
package index

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/hpungsan/glimpse/internal/screenshot"
)

// BM25 constants. k1 controls term-frequency saturation, b the degree of
// length normalization.
const (
	K1 = 1.2
	B  = 0.75
)

// Scored pairs a record id with a raw relevance score. CapturedAt is carried
// along so callers can apply the recency tie-break without a store lookup.
type Scored struct {
	ID         int64
	Score      float64
	CapturedAt int64
}

// Tokenize case-folds a string and splits it on any non-letter, non-digit
// rune. No stemming and no stopword removal: descriptions are short and
// model-generated, so the vocabulary is already compact.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

type textDoc struct {
	freqs      map[string]int
	length     int
	capturedAt int64
	region     *string
}

// TextIndex is an inverted index over screenshot descriptions.
type TextIndex struct {
	docs     map[int64]*textDoc
	postings map[string]map[int64]int // term -> doc id -> term frequency
	totalLen int
}

// NewTextIndex returns an empty text index.
func NewTextIndex() *TextIndex {
	return &TextIndex{
		docs:     make(map[int64]*textDoc),
		postings: make(map[string]map[int64]int),
	}
}

// Len returns the number of indexed documents.
func (ix *TextIndex) Len() int { return len(ix.docs) }

// Add indexes (or re-indexes) a document. Cost is proportional to the
// description length, never to the index size.
func (ix *TextIndex) Add(id int64, text string, capturedAt int64, region *string) {
	ix.Remove(id)

	terms := Tokenize(text)
	if len(terms) == 0 {
		return
	}

	doc := &textDoc{
		freqs:      make(map[string]int, len(terms)),
		length:     len(terms),
		capturedAt: capturedAt,
		region:     region,
	}
	for _, t := range terms {
		doc.freqs[t]++
	}

	for t, tf := range doc.freqs {
		p := ix.postings[t]
		if p == nil {
			p = make(map[int64]int)
			ix.postings[t] = p
		}
		p[id] = tf
	}

	ix.docs[id] = doc
	ix.totalLen += doc.length
}

// Remove drops a document from the index. Removing an unknown id is a no-op.
func (ix *TextIndex) Remove(id int64) {
	doc, ok := ix.docs[id]
	if !ok {
		return
	}
	for t := range doc.freqs {
		delete(ix.postings[t], id)
		if len(ix.postings[t]) == 0 {
			delete(ix.postings, t)
		}
	}
	ix.totalLen -= doc.length
	delete(ix.docs, id)
}

// Search ranks filtered documents against the query terms with BM25.
// The result is ordered by score descending, ties broken by captured_at
// descending then id descending. Terms matching no document yield an empty
// result, never an error.
//
// IDF uses ln(1 + (N-n+0.5)/(n+0.5)), which is strictly positive — terms
// appearing in most documents are down-weighted but never negative.
func (ix *TextIndex) Search(terms []string, f screenshot.Filter) []Scored {
	n := float64(len(ix.docs))
	if n == 0 || len(terms) == 0 {
		return nil
	}
	avgdl := float64(ix.totalLen) / n

	// Deduplicate query terms; BM25 treats the query as a term set.
	seen := make(map[string]bool, len(terms))
	scores := make(map[int64]float64)

	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true

		posting := ix.postings[t]
		if len(posting) == 0 {
			continue
		}

		df := float64(len(posting))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))

		for id, tf := range posting {
			doc := ix.docs[id]
			if !f.Matches(doc.region, doc.capturedAt) {
				continue
			}
			freq := float64(tf)
			denom := freq + K1*(1-B+B*float64(doc.length)/avgdl)
			scores[id] += idf * freq * (K1 + 1) / denom
		}
	}

	results := make([]Scored, 0, len(scores))
	for id, score := range scores {
		results = append(results, Scored{ID: id, Score: score, CapturedAt: ix.docs[id].capturedAt})
	}
	sortScored(results)
	return results
}

// sortScored orders by score desc, captured_at desc, id desc.
func sortScored(results []Scored) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].CapturedAt != results[j].CapturedAt {
			return results[i].CapturedAt > results[j].CapturedAt
		}
		return results[i].ID > results[j].ID
	})
}
