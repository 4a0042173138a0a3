// Package screenshot defines the persistent record model shared by the
// database layer and the history engine.
package screenshot

// Record is one entry in the screenshot history.
//
// storage_path, region, and captured_at are immutable once the record is
// inserted. Description is back-filled when the description provider returns;
// the fingerprint is set at most once.
type Record struct {
	ID          int64   `json:"id"`
	StoragePath string  `json:"storage_path"`
	FileHash    string  `json:"file_hash,omitempty"`
	SourceURL   *string `json:"source_url,omitempty"`
	Region      *string `json:"region,omitempty"`
	CapturedAt  int64   `json:"captured_at"` // unix seconds
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	SizeBytes   int64   `json:"size_bytes,omitempty"`
	Description string  `json:"description,omitempty"`
	DescribedAt *int64  `json:"described_at,omitempty"`
	Model       *string `json:"model,omitempty"`
	Fingerprint *string `json:"fingerprint,omitempty"` // hex perceptual hash
	CreatedAt   int64   `json:"created_at"`
}

// Filter narrows queries by capture region and date range.
// All set fields are conjunctive.
type Filter struct {
	Region *string
	From   *int64 // unix seconds, inclusive
	To     *int64 // unix seconds, inclusive
}

// Matches reports whether a record with the given region and capture time
// passes the filter.
func (f Filter) Matches(region *string, capturedAt int64) bool {
	if f.Region != nil {
		if region == nil || *region != *f.Region {
			return false
		}
	}
	if f.From != nil && capturedAt < *f.From {
		return false
	}
	if f.To != nil && capturedAt > *f.To {
		return false
	}
	return true
}
