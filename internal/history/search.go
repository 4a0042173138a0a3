package history

import (
	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/index"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// SearchInput is a relevance-ranked text query over descriptions.
type SearchInput struct {
	Query  string  `json:"query"`
	Region *string `json:"region,omitempty"`
	From   *int64  `json:"from,omitempty"`
	To     *int64  `json:"to,omitempty"`
	Limit  int     `json:"limit,omitempty"`
}

// SearchResult pairs a matching record with its relevance score.
type SearchResult struct {
	Record screenshot.Record `json:"record"`
	Score  float64           `json:"score"`
}

// Search ranks stored screenshots against a text query with BM25. A query
// that tokenizes to nothing is an INVALID_QUERY error; a query that merely
// matches nothing returns an empty result.
func (h *History) Search(in SearchInput) ([]SearchResult, error) {
	terms := index.Tokenize(in.Query)
	if len(terms) == 0 {
		return nil, errors.NewInvalidQuery(in.Query)
	}
	filter := screenshot.Filter{Region: in.Region, From: in.From, To: in.To}
	limit := applyLimit(in.Limit, DefaultSearchLimit)

	h.mu.RLock()
	defer h.mu.RUnlock()

	scored := h.text.Search(terms, filter)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results, err := h.resolveText(scored)
	if err != nil {
		return nil, err
	}

	// Search history is a convenience log; a failed write never fails the
	// query.
	if err := db.RecordSearch(h.db, in.Query, len(results)); err != nil {
		h.logger.Warn("search not logged", "query", in.Query, "error", err)
	}
	return results, nil
}

// resolveText loads the records behind a scored id list, preserving order.
func (h *History) resolveText(scored []index.Scored) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(scored))
	for _, s := range scored {
		r, err := db.GetByID(h.db, s.ID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				// Index briefly ahead of the store; skip.
				continue
			}
			return nil, err
		}
		results = append(results, SearchResult{Record: *r, Score: s.Score})
	}
	return results, nil
}
