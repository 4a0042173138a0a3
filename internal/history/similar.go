package history

import (
	"fmt"

	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/phash"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// SimilarInput finds screenshots whose fingerprints are close to a reference.
// Exactly one of Fingerprint or ID selects the reference: a raw hex hash, or
// a stored record whose hash to reuse.
type SimilarInput struct {
	Fingerprint string  `json:"fingerprint,omitempty"`
	ID          int64   `json:"id,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"` // 0 means the configured default
	Region      *string `json:"region,omitempty"`
	From        *int64  `json:"from,omitempty"`
	To          *int64  `json:"to,omitempty"`
	Limit       int     `json:"limit,omitempty"`
}

// SimilarResult pairs a record with its similarity to the reference, in
// [0, 1] where 1 is an identical fingerprint.
type SimilarResult struct {
	Record     screenshot.Record `json:"record"`
	Similarity float64           `json:"similarity"`
}

// Similar returns stored screenshots at or above the similarity threshold,
// most similar first.
func (h *History) Similar(in SimilarInput) ([]SimilarResult, error) {
	threshold := in.Threshold
	if threshold == 0 {
		threshold = h.cfg.SimilarityThreshold
	}
	if threshold <= 0 || threshold > 1 {
		return nil, errors.NewInvalidRequest(
			fmt.Sprintf("threshold must be in (0, 1], got %g", threshold))
	}
	limit := applyLimit(in.Limit, DefaultSearchLimit)
	filter := screenshot.Filter{Region: in.Region, From: in.From, To: in.To}

	h.mu.RLock()
	defer h.mu.RUnlock()

	ref, selfID, err := h.referenceFingerprint(in)
	if err != nil {
		return nil, err
	}

	scored, err := h.sims.Search(ref, threshold, filter)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	results := make([]SimilarResult, 0, len(scored))
	for _, s := range scored {
		if s.ID == selfID {
			continue
		}
		r, err := db.GetByID(h.db, s.ID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		results = append(results, SimilarResult{Record: *r, Similarity: s.Score})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// referenceFingerprint resolves the query's reference hash. When the
// reference is a stored record, its own id is returned so it can be excluded
// from the results. Callers hold at least the read lock.
func (h *History) referenceFingerprint(in SimilarInput) (phash.Fingerprint, int64, error) {
	switch {
	case in.Fingerprint != "" && in.ID != 0:
		return phash.Fingerprint{}, 0, errors.NewInvalidRequest("give either a fingerprint or an id, not both")
	case in.Fingerprint != "":
		fp, err := phash.Parse(in.Fingerprint)
		if err != nil {
			return phash.Fingerprint{}, 0, errors.NewInvalidRequest(fmt.Sprintf("invalid fingerprint: %v", err))
		}
		return fp, 0, nil
	case in.ID != 0:
		r, err := db.GetByID(h.db, in.ID)
		if err != nil {
			return phash.Fingerprint{}, 0, err
		}
		if r.Fingerprint == nil {
			return phash.Fingerprint{}, 0, errors.NewInvalidRequest(
				fmt.Sprintf("screenshot %d has no fingerprint", in.ID))
		}
		fp, err := phash.Parse(*r.Fingerprint)
		if err != nil {
			return phash.Fingerprint{}, 0, errors.NewInternal(err)
		}
		return fp, in.ID, nil
	default:
		return phash.Fingerprint{}, 0, errors.NewInvalidRequest("a fingerprint or an id is required")
	}
}
