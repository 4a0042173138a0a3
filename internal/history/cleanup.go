package history

import (
	"fmt"
	"time"

	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/errors"
)

// CleanupOutput summarizes a retention pass.
type CleanupOutput struct {
	Deleted    int   `json:"deleted"`
	MaxAgeDays int   `json:"max_age_days"`
	Cutoff     int64 `json:"cutoff"`
}

// Cleanup deletes every screenshot captured more than maxAgeDays ago,
// together with its index entries and any managed backing file. The age
// must be positive; callers wanting the configured retention window pass
// RetentionDays from the config.
func (h *History) Cleanup(maxAgeDays int) (*CleanupOutput, error) {
	if maxAgeDays <= 0 {
		return nil, errors.NewInvalidRequest(
			fmt.Sprintf("max age must be a positive number of days, got %d", maxAgeDays))
	}

	cutoff := h.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour).Unix()

	h.mu.Lock()
	defer h.mu.Unlock()

	expired, err := db.ListOlderThan(h.db, cutoff)
	if err != nil {
		return nil, err
	}

	deleted := 0
	for _, r := range expired {
		removed, err := db.Delete(h.db, r.ID)
		if err != nil {
			return nil, err
		}
		if !removed {
			continue
		}
		h.text.Remove(r.ID)
		h.sims.Remove(r.ID)
		h.removeManagedFile(r.StoragePath)
		deleted++
	}

	if deleted > 0 {
		h.logger.Info("retention cleanup", "deleted", deleted, "max_age_days", maxAgeDays)
	}
	return &CleanupOutput{Deleted: deleted, MaxAgeDays: maxAgeDays, Cutoff: cutoff}, nil
}
