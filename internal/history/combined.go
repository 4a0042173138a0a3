package history

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/index"
	"github.com/hpungsan/glimpse/internal/phash"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// CombinedInput is a hybrid query mixing text relevance with perceptual
// similarity. At least one of Query and Fingerprint must be given. Nil
// weights default to 0.5 each; explicit weights must be non-negative and
// must not both be zero. The split only applies when both modalities are
// given; a lone modality ranks at full weight.
type CombinedInput struct {
	Query       string   `json:"query,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	TextWeight  *float64 `json:"text_weight,omitempty"`
	ImageWeight *float64 `json:"image_weight,omitempty"`
	Region      *string  `json:"region,omitempty"`
	From        *int64   `json:"from,omitempty"`
	To          *int64   `json:"to,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// CombinedResult carries the blended score plus both per-modality components.
// TextScore is min-max normalized into [0, 1]; Similarity is already there.
// A record missing from one modality scores 0 on that component.
type CombinedResult struct {
	Record     screenshot.Record `json:"record"`
	Combined   float64           `json:"combined"`
	TextScore  float64           `json:"text_score"`
	Similarity float64           `json:"similarity"`
}

const defaultModalityWeight = 0.5

// Combined runs both rankers and blends their scores with normalized
// weights. Both searches see the same index snapshot.
func (h *History) Combined(in CombinedInput) ([]CombinedResult, error) {
	if in.Query == "" && in.Fingerprint == "" {
		return nil, errors.NewInvalidRequest("a query or a fingerprint is required")
	}

	wt, wi := defaultModalityWeight, defaultModalityWeight
	if in.TextWeight != nil {
		wt = *in.TextWeight
	}
	if in.ImageWeight != nil {
		wi = *in.ImageWeight
	}
	if wt < 0 || wi < 0 {
		return nil, errors.NewInvalidRequest("weights must be non-negative")
	}
	if wt+wi == 0 {
		return nil, errors.NewInvalidRequest("at least one weight must be positive")
	}
	// The supplied split only matters when both signals run; a single
	// active modality always carries full weight.
	switch {
	case in.Fingerprint == "":
		wt, wi = 1, 0
	case in.Query == "":
		wt, wi = 0, 1
	default:
		wt, wi = wt/(wt+wi), wi/(wt+wi)
	}

	var terms []string
	if in.Query != "" {
		terms = index.Tokenize(in.Query)
		if len(terms) == 0 {
			return nil, errors.NewInvalidQuery(in.Query)
		}
	}

	var ref phash.Fingerprint
	if in.Fingerprint != "" {
		fp, err := phash.Parse(in.Fingerprint)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid fingerprint: %v", err))
		}
		ref = fp
	}

	filter := screenshot.Filter{Region: in.Region, From: in.From, To: in.To}
	limit := applyLimit(in.Limit, DefaultSearchLimit)

	h.mu.RLock()
	defer h.mu.RUnlock()

	var textScored, simScored []index.Scored
	var g errgroup.Group
	if len(terms) > 0 {
		g.Go(func() error {
			textScored = h.text.Search(terms, filter)
			return nil
		})
	}
	if !ref.IsZero() {
		g.Go(func() error {
			// No threshold here: even a weak visual match contributes
			// to the blend.
			scored, err := h.sims.Search(ref, 0, filter)
			if err != nil {
				return errors.NewInvalidRequest(err.Error())
			}
			simScored = scored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := blend(textScored, simScored, wt, wi)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	results := make([]CombinedResult, 0, len(merged))
	for _, m := range merged {
		r, err := db.GetByID(h.db, m.id)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		results = append(results, CombinedResult{
			Record:     *r,
			Combined:   m.combined,
			TextScore:  m.text,
			Similarity: m.sim,
		})
	}

	if in.Query != "" {
		if err := db.RecordSearch(h.db, in.Query, len(results)); err != nil {
			h.logger.Warn("search not logged", "query", in.Query, "error", err)
		}
	}
	return results, nil
}

type blended struct {
	id         int64
	combined   float64
	text       float64
	sim        float64
	capturedAt int64
}

// blend unions both result sets under normalized weights. Raw BM25 scores
// are min-max normalized into [0, 1] first; when every text score is equal
// they all normalize to 1.
func blend(textScored, simScored []index.Scored, wt, wi float64) []blended {
	byID := make(map[int64]*blended, len(textScored)+len(simScored))

	if len(textScored) > 0 {
		minScore, maxScore := textScored[0].Score, textScored[0].Score
		for _, s := range textScored {
			if s.Score < minScore {
				minScore = s.Score
			}
			if s.Score > maxScore {
				maxScore = s.Score
			}
		}
		for _, s := range textScored {
			norm := 1.0
			if maxScore > minScore {
				norm = (s.Score - minScore) / (maxScore - minScore)
			}
			byID[s.ID] = &blended{id: s.ID, text: norm, capturedAt: s.CapturedAt}
		}
	}

	for _, s := range simScored {
		b := byID[s.ID]
		if b == nil {
			b = &blended{id: s.ID, capturedAt: s.CapturedAt}
			byID[s.ID] = b
		}
		b.sim = s.Score
	}

	merged := make([]blended, 0, len(byID))
	for _, b := range byID {
		b.combined = wt*b.text + wi*b.sim
		merged = append(merged, *b)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].combined != merged[j].combined {
			return merged[i].combined > merged[j].combined
		}
		if merged[i].capturedAt != merged[j].capturedAt {
			return merged[i].capturedAt > merged[j].capturedAt
		}
		return merged[i].id > merged[j].id
	})
	return merged
}
