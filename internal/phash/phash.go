// Package phash implements fixed-length perceptual fingerprints for images.
//
// A fingerprint is a bit-string summarizing an image's visual appearance such
// that visually similar images have a small Hamming distance. Fingerprints are
// stored and exchanged as lowercase hex strings; every fingerprint in one
// store must use the same bit length.
package phash

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultBits is the bit length produced by Compute (8x8 average hash).
const DefaultBits = 64

// Fingerprint is a fixed-length perceptual hash bit-string.
type Fingerprint struct {
	words []uint64
	n     int // bit length
}

// Parse decodes a hex-encoded fingerprint. The bit length is four times the
// hex digit count.
func Parse(hexStr string) (Fingerprint, error) {
	s := strings.ToLower(strings.TrimSpace(hexStr))
	if s == "" {
		return Fingerprint{}, fmt.Errorf("empty fingerprint")
	}

	n := len(s) * 4
	words := make([]uint64, (n+63)/64)

	// Consume from the tail in 16-digit chunks so word 0 holds the
	// least significant bits.
	for i := 0; len(s) > 0; i++ {
		start := len(s) - 16
		if start < 0 {
			start = 0
		}
		w, err := strconv.ParseUint(s[start:], 16, 64)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("invalid fingerprint %q: %w", hexStr, err)
		}
		words[i] = w
		s = s[:start]
	}

	return Fingerprint{words: words, n: n}, nil
}

// String returns the lowercase hex encoding.
func (f Fingerprint) String() string {
	if f.n == 0 {
		return ""
	}
	digits := f.n / 4
	var b strings.Builder
	for i := len(f.words) - 1; i >= 0; i-- {
		if i == len(f.words)-1 {
			// Leading word may be partial.
			width := digits - 16*(len(f.words)-1)
			fmt.Fprintf(&b, "%0*x", width, f.words[i])
		} else {
			fmt.Fprintf(&b, "%016x", f.words[i])
		}
	}
	return b.String()
}

// BitLen returns the fingerprint's bit length.
func (f Fingerprint) BitLen() int { return f.n }

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool { return f.n == 0 }

// Distance returns the Hamming distance between two equal-length fingerprints.
func Distance(a, b Fingerprint) (int, error) {
	if a.n != b.n {
		return 0, fmt.Errorf("fingerprint length mismatch: %d vs %d bits", a.n, b.n)
	}
	d := 0
	for i := range a.words {
		d += bits.OnesCount64(a.words[i] ^ b.words[i])
	}
	return d, nil
}

// Similarity normalizes Hamming distance to [0, 1]; 1 means identical.
func Similarity(a, b Fingerprint) (float64, error) {
	d, err := Distance(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - float64(d)/float64(a.n), nil
}

// FromImage computes a 64-bit average hash: downscale to 8x8 grayscale and
// set a bit for every pixel at or above the mean luminance. Bit (8*row+col)
// reads row-major from the top-left.
func FromImage(img image.Image) Fingerprint {
	small := imaging.Grayscale(imaging.Resize(img, 8, 8, imaging.Lanczos))

	var lum [64]uint32
	var sum uint64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r, _, _, _ := small.At(x, y).RGBA()
			lum[y*8+x] = r
			sum += uint64(r)
		}
	}
	mean := uint32(sum / 64)

	var w uint64
	for i, v := range lum {
		if v >= mean {
			w |= 1 << uint(i)
		}
	}
	return Fingerprint{words: []uint64{w}, n: DefaultBits}
}

// ComputeFile loads an image file and returns its average hash.
func ComputeFile(path string) (Fingerprint, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("open image %s: %w", path, err)
	}
	return FromImage(img), nil
}
