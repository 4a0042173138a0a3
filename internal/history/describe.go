package history

import (
	"fmt"

	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/phash"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// DescribeInput attaches (or replaces) a description on a stored screenshot.
type DescribeInput struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Model       *string `json:"model,omitempty"`

	// Fingerprint optionally records a perceptual hash alongside the
	// description. Once a record has a fingerprint it is immutable; a
	// differing fingerprint here is silently ignored.
	Fingerprint *string `json:"fingerprint,omitempty"`
}

// Describe updates a record's description and keeps the text index in step.
// The stored fingerprint, if any, is never overwritten.
func (h *History) Describe(in DescribeInput) (*screenshot.Record, error) {
	var fp phash.Fingerprint
	if in.Fingerprint != nil {
		parsed, err := phash.Parse(*in.Fingerprint)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid fingerprint: %v", err))
		}
		fp = parsed
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Validate against the store-wide bit length before touching anything.
	if !fp.IsZero() {
		if bits := h.sims.Bits(); bits != 0 && fp.BitLen() != bits {
			return nil, errors.NewInvalidRequest(
				fmt.Sprintf("fingerprint is %d bits, store uses %d", fp.BitLen(), bits))
		}
	}

	var fpHex *string
	if !fp.IsZero() {
		s := fp.String()
		fpHex = &s
	}

	if err := db.UpdateDescription(h.db, in.ID, in.Description, in.Model, fpHex); err != nil {
		return nil, err
	}

	r, err := db.GetByID(h.db, in.ID)
	if err != nil {
		return nil, err
	}

	if r.Description != "" {
		h.text.Add(r.ID, r.Description, r.CapturedAt, r.Region)
	} else {
		h.text.Remove(r.ID)
	}

	// The database COALESCE decides whether the fingerprint took; index
	// whatever the row now holds.
	if r.Fingerprint != nil {
		stored, err := phash.Parse(*r.Fingerprint)
		if err == nil {
			if err := h.sims.Add(r.ID, stored, r.CapturedAt, r.Region); err != nil {
				h.logger.Warn("fingerprint not indexed", "id", r.ID, "error", err)
			}
		}
	}

	h.logger.Info("screenshot described", "id", r.ID, "chars", len(in.Description))
	return r, nil
}

// SetFingerprint records a perceptual hash for a screenshot that has none.
// A record's fingerprint is write-once; attempting to replace one fails.
func (h *History) SetFingerprint(id int64, hexFingerprint string) (*screenshot.Record, error) {
	fp, err := phash.Parse(hexFingerprint)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid fingerprint: %v", err))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if bits := h.sims.Bits(); bits != 0 && fp.BitLen() != bits {
		return nil, errors.NewInvalidRequest(
			fmt.Sprintf("fingerprint is %d bits, store uses %d", fp.BitLen(), bits))
	}

	// Existence check first so unknown ids report NOT_FOUND, not a
	// fingerprint conflict.
	r, err := db.GetByID(h.db, id)
	if err != nil {
		return nil, err
	}

	set, err := db.SetFingerprint(h.db, id, fp.String())
	if err != nil {
		return nil, err
	}
	if !set {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("screenshot %d already has a fingerprint", id))
	}

	if err := h.sims.Add(id, fp, r.CapturedAt, r.Region); err != nil {
		return nil, errors.NewInternal(err)
	}

	s := fp.String()
	r.Fingerprint = &s
	return r, nil
}
