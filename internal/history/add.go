package history

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/phash"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// AddInput describes a screenshot to record.
type AddInput struct {
	// Path is the image file on disk. Required; must exist and be readable.
	Path string `json:"path"`

	// SourceURL optionally records where the screenshot came from.
	SourceURL *string `json:"source_url,omitempty"`

	// Region optionally labels the captured area (e.g. "full", "left_half").
	Region *string `json:"region,omitempty"`

	// CapturedAt is the capture time as a unix timestamp. Zero means now.
	CapturedAt int64 `json:"captured_at,omitempty"`

	// Description is free text describing the image contents.
	Description string `json:"description,omitempty"`

	// Fingerprint is a precomputed perceptual hash in hex. When absent and
	// ComputeFingerprint is set, one is computed from the image.
	Fingerprint *string `json:"fingerprint,omitempty"`

	// ComputeFingerprint requests an average-hash fingerprint from the
	// image pixels. Ignored when Fingerprint is given.
	ComputeFingerprint bool `json:"compute_fingerprint,omitempty"`

	// CopyToStorage copies the file into the managed storage directory and
	// records that copy's path instead of the original.
	CopyToStorage bool `json:"copy_to_storage,omitempty"`
}

// AddOutput is the result of recording a screenshot.
type AddOutput struct {
	Record    *screenshot.Record `json:"record"`
	Duplicate bool               `json:"duplicate"`
}

// Add records a screenshot. Files already in the store (by content hash)
// are not duplicated; the existing record is returned with Duplicate set.
func (h *History) Add(in AddInput) (*AddOutput, error) {
	if in.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}

	info, err := os.Stat(in.Path)
	if err != nil || info.IsDir() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("path is not a readable file: %s", in.Path))
	}

	fileHash, err := hashFile(in.Path)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot read %s: %v", in.Path, err))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	existing, err := db.GetByFileHash(h.db, fileHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AddOutput{Record: existing, Duplicate: true}, nil
	}

	now := h.now().Unix()
	r := &screenshot.Record{
		StoragePath: in.Path,
		FileHash:    fileHash,
		SourceURL:   in.SourceURL,
		Region:      in.Region,
		CapturedAt:  in.CapturedAt,
		SizeBytes:   info.Size(),
		Description: in.Description,
		CreatedAt:   now,
	}
	if r.CapturedAt == 0 {
		r.CapturedAt = now
	}

	// Decode once for dimensions and, when requested, the fingerprint.
	// A file we cannot decode is still worth recording.
	img, decodeErr := imaging.Open(in.Path)
	if decodeErr != nil {
		h.logger.Warn("cannot decode image, storing without dimensions",
			"path", in.Path, "error", decodeErr)
	} else {
		bounds := img.Bounds()
		r.Width = bounds.Dx()
		r.Height = bounds.Dy()
	}

	var fp phash.Fingerprint
	switch {
	case in.Fingerprint != nil:
		fp, err = phash.Parse(*in.Fingerprint)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid fingerprint: %v", err))
		}
	case in.ComputeFingerprint && decodeErr == nil:
		fp = phash.FromImage(img)
	}

	if !fp.IsZero() {
		if bits := h.sims.Bits(); bits != 0 && fp.BitLen() != bits {
			return nil, errors.NewInvalidRequest(
				fmt.Sprintf("fingerprint is %d bits, store uses %d", fp.BitLen(), bits))
		}
		s := fp.String()
		r.Fingerprint = &s
	}

	if in.CopyToStorage {
		stored, err := h.copyToStorage(in.Path)
		if err != nil {
			return nil, err
		}
		r.StoragePath = stored
	}

	if _, err := db.Insert(h.db, r); err != nil {
		return nil, err
	}

	if r.Description != "" {
		h.text.Add(r.ID, r.Description, r.CapturedAt, r.Region)
	}
	if !fp.IsZero() {
		if err := h.sims.Add(r.ID, fp, r.CapturedAt, r.Region); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	h.logger.Info("screenshot added", "id", r.ID, "path", r.StoragePath, "duplicate", false)
	return &AddOutput{Record: r}, nil
}

// copyToStorage copies the file into the managed storage directory under a
// fresh ULID name, preserving the original extension.
func (h *History) copyToStorage(src string) (string, error) {
	if err := os.MkdirAll(h.cfg.StorageDir, 0o700); err != nil {
		return "", errors.NewStorage("create storage dir", err)
	}

	name := ulid.Make().String() + filepath.Ext(src)
	dst := filepath.Join(h.cfg.StorageDir, name)

	in, err := os.Open(src)
	if err != nil {
		return "", errors.NewStorage("open source file", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", errors.NewStorage("create storage copy", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", errors.NewStorage("copy to storage", err)
	}
	if err := out.Close(); err != nil {
		return "", errors.NewStorage("close storage copy", err)
	}
	return dst, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
