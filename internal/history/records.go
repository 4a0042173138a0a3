package history

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// Get retrieves a single record by id.
func (h *History) Get(id int64) (*screenshot.Record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return db.GetByID(h.db, id)
}

// List returns records most-recent-first, optionally filtered by region and
// capture-date range. A non-positive limit means DefaultListLimit.
func (h *History) List(f screenshot.Filter, limit int) ([]screenshot.Record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return db.List(h.db, f, applyLimit(limit, DefaultListLimit))
}

// Delete removes a record, its index entries, and its backing file when the
// file lives in the managed storage directory. Deleting an unknown id is a
// no-op; the boolean reports whether a record was removed.
func (h *History) Delete(id int64) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := db.GetByID(h.db, id)
	if err != nil {
		// Unknown id: nothing to do.
		return false, nil
	}

	deleted, err := db.Delete(h.db, id)
	if err != nil {
		return false, err
	}

	h.text.Remove(id)
	h.sims.Remove(id)

	if deleted {
		h.removeManagedFile(r.StoragePath)
		h.logger.Info("screenshot deleted", "id", id)
	}
	return deleted, nil
}

// removeManagedFile deletes a backing file, but only when it lives under the
// managed storage directory; paths the user gave us are left alone. A missing
// file is logged, never an error.
func (h *History) removeManagedFile(path string) {
	dir := filepath.Clean(h.cfg.StorageDir)
	if dir == "" || dir == "." {
		return
	}
	if !strings.HasPrefix(filepath.Clean(path), dir+string(filepath.Separator)) {
		return
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			h.logger.Warn("backing file already gone", "path", path)
			return
		}
		h.logger.Warn("could not remove backing file", "path", path, "error", err)
	}
}

// StatsOutput reports store-wide totals and the most recent searches.
type StatsOutput struct {
	*db.Stats
	RecentSearches []db.SearchEntry `json:"recent_searches"`
	IndexedTexts   int              `json:"indexed_texts"`
	IndexedHashes  int              `json:"indexed_hashes"`
}

// Stats aggregates store counters with index sizes and recent search history.
func (h *History) Stats() (*StatsOutput, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats, err := db.GetStats(h.db)
	if err != nil {
		return nil, err
	}
	searches, err := db.RecentSearches(h.db, 10)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{
		Stats:          stats,
		RecentSearches: searches,
		IndexedTexts:   h.text.Len(),
		IndexedHashes:  h.sims.Len(),
	}, nil
}
