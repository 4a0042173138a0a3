package history

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/glimpse/internal/errors"
)

// TestFullWorkflow exercises the complete screenshot lifecycle:
// add → describe → search → similar → combined → cleanup → delete → get (not found)
func TestFullWorkflow(t *testing.T) {
	h, dir := newTestHistory(t)

	// 1. Add with a fingerprint
	out, err := h.Add(AddInput{
		Path:        writePNG(t, dir, "capture.png", 1),
		Region:      strPtr("full"),
		Fingerprint: strPtr("0000000000000000"),
	})
	require.NoError(t, err)
	require.False(t, out.Duplicate)
	id := out.Record.ID

	// 2. Describe
	described, err := h.Describe(DescribeInput{
		ID:          id,
		Description: "payment settings page with a red warning banner",
	})
	require.NoError(t, err)
	require.NotNil(t, described.DescribedAt)

	// 3. Text search finds it
	results, err := h.Search(SearchInput{Query: "warning banner"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, id, results[0].Record.ID)

	// 4. Similarity search finds it from a near fingerprint
	sims, err := h.Similar(SimilarInput{Fingerprint: "0000000000000001"})
	require.NoError(t, err)
	require.Len(t, sims, 1)
	require.InDelta(t, 1-1.0/64, sims[0].Similarity, 1e-9)

	// 5. Hybrid search blends both signals
	combined, err := h.Combined(CombinedInput{
		Query:       "payment warning",
		Fingerprint: "0000000000000001",
	})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	require.Equal(t, 1.0, combined[0].TextScore)
	require.Greater(t, combined[0].Similarity, 0.9)

	// 6. Cleanup with a generous window keeps it
	cleaned, err := h.Cleanup(3650)
	require.NoError(t, err)
	require.Equal(t, 0, cleaned.Deleted)

	// 7. Delete
	deleted, err := h.Delete(id)
	require.NoError(t, err)
	require.True(t, deleted)

	// 8. Get - verify 404
	_, err = h.Get(id)
	require.Error(t, err)
	var gErr *errors.GlimpseError
	require.ErrorAs(t, err, &gErr)
	require.Equal(t, errors.ErrNotFound, gErr.Code)
}
