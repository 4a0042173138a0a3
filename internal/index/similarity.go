package index

import (
	"fmt"

	"github.com/hpungsan/glimpse/internal/phash"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

type fpEntry struct {
	fp         phash.Fingerprint
	capturedAt int64
	region     *string
}

// SimilarityIndex maps record ids to perceptual fingerprints and answers
// nearest-fingerprint queries by Hamming distance.
//
// All fingerprints in one index share a single bit length, fixed by the first
// fingerprint added. This mirrors the store-wide invariant that every
// fingerprint comes from the same hash function.
type SimilarityIndex struct {
	entries map[int64]fpEntry
	bits    int // 0 until the first fingerprint is added
}

// NewSimilarityIndex returns an empty similarity index.
func NewSimilarityIndex() *SimilarityIndex {
	return &SimilarityIndex{entries: make(map[int64]fpEntry)}
}

// Len returns the number of indexed fingerprints.
func (ix *SimilarityIndex) Len() int { return len(ix.entries) }

// Bits returns the index-wide fingerprint bit length, or 0 if empty.
func (ix *SimilarityIndex) Bits() int { return ix.bits }

// Add indexes a fingerprint. It fails if the fingerprint's bit length
// disagrees with the fingerprints already stored.
func (ix *SimilarityIndex) Add(id int64, fp phash.Fingerprint, capturedAt int64, region *string) error {
	if fp.IsZero() {
		return fmt.Errorf("empty fingerprint for id %d", id)
	}
	if ix.bits == 0 {
		ix.bits = fp.BitLen()
	} else if fp.BitLen() != ix.bits {
		return fmt.Errorf("fingerprint length mismatch: got %d bits, store uses %d", fp.BitLen(), ix.bits)
	}
	ix.entries[id] = fpEntry{fp: fp, capturedAt: capturedAt, region: region}
	return nil
}

// Remove drops a fingerprint. Removing an unknown id is a no-op.
func (ix *SimilarityIndex) Remove(id int64) {
	delete(ix.entries, id)
}

// Search returns every filtered record whose similarity to ref is at least
// threshold, ordered by similarity descending, ties broken by captured_at
// descending then id descending. A threshold of 0 disables filtering.
func (ix *SimilarityIndex) Search(ref phash.Fingerprint, threshold float64, f screenshot.Filter) ([]Scored, error) {
	if len(ix.entries) == 0 {
		return nil, nil
	}
	if ref.BitLen() != ix.bits {
		return nil, fmt.Errorf("reference fingerprint is %d bits, store uses %d", ref.BitLen(), ix.bits)
	}

	results := make([]Scored, 0)
	for id, e := range ix.entries {
		if !f.Matches(e.region, e.capturedAt) {
			continue
		}
		sim, err := phash.Similarity(ref, e.fp)
		if err != nil {
			return nil, err
		}
		if sim >= threshold {
			results = append(results, Scored{ID: id, Score: sim, CapturedAt: e.capturedAt})
		}
	}
	sortScored(results)
	return results, nil
}
