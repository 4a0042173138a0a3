// Package history is the screenshot history engine: durable CRUD over the
// record store with cascading maintenance of the in-memory text and
// similarity indexes, plus the search operations built on them.
package history

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/index"
	"github.com/hpungsan/glimpse/internal/phash"
)

// Query limits.
const (
	DefaultSearchLimit = 10
	DefaultListLimit   = 20
	MaxLimit           = 100
)

// History coordinates the record store and the derived indexes.
//
// Writes take the engine lock so a record's row and its index entries always
// move together; searches take the read lock and rank against one consistent
// snapshot. Index updates cost is bounded by the description/fingerprint
// size, never by store size.
type History struct {
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger

	mu   sync.RWMutex
	text *index.TextIndex
	sims *index.SimilarityIndex

	now func() time.Time // injected for retention tests
}

// Open builds a History over an initialized database, rebuilding both
// indexes from the screenshots table.
func Open(database *sql.DB, cfg *config.Config) (*History, error) {
	h := &History{
		db:     database,
		cfg:    cfg,
		logger: slog.Default(),
		text:   index.NewTextIndex(),
		sims:   index.NewSimilarityIndex(),
		now:    time.Now,
	}

	records, err := db.ListAll(database)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.Description != "" {
			h.text.Add(r.ID, r.Description, r.CapturedAt, r.Region)
		}
		if r.Fingerprint != nil {
			fp, err := phash.Parse(*r.Fingerprint)
			if err != nil {
				h.logger.Warn("skipping unparseable fingerprint", "id", r.ID, "error", err)
				continue
			}
			if err := h.sims.Add(r.ID, fp, r.CapturedAt, r.Region); err != nil {
				h.logger.Warn("skipping fingerprint during rebuild", "id", r.ID, "error", err)
			}
		}
	}

	return h, nil
}

// applyLimit clamps a requested limit into [1, MaxLimit], substituting def
// when the request leaves it unset.
func applyLimit(requested, def int) int {
	if requested <= 0 {
		return def
	}
	if requested > MaxLimit {
		return MaxLimit
	}
	return requested
}
