package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/describe"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/history"
	"github.com/hpungsan/glimpse/internal/phash"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	history  *history.History
	cfg      *config.Config
	provider describe.Provider // nil when no vision model is configured
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(h *history.History, cfg *config.Config, provider describe.Provider) *Handlers {
	return &Handlers{history: h, cfg: cfg, provider: provider}
}

// Request types for each tool

// AddRequest represents the arguments for screenshot_add.
type AddRequest struct {
	Path               string  `json:"path"`
	SourceURL          *string `json:"source_url,omitempty"`
	Region             *string `json:"region,omitempty"`
	CapturedAt         int64   `json:"captured_at,omitempty"`
	Description        string  `json:"description,omitempty"`
	Fingerprint        *string `json:"fingerprint,omitempty"`
	ComputeFingerprint bool    `json:"compute_fingerprint,omitempty"`
	CopyToStorage      bool    `json:"copy_to_storage,omitempty"`
}

// DescribeRequest represents the arguments for screenshot_describe.
type DescribeRequest struct {
	ID          int64  `json:"id"`
	Description string `json:"description,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

// IDRequest represents tools addressed by a single screenshot id.
type IDRequest struct {
	ID int64 `json:"id"`
}

// ListRequest represents the arguments for screenshot_list.
type ListRequest struct {
	Region *string `json:"region,omitempty"`
	From   *int64  `json:"from,omitempty"`
	To     *int64  `json:"to,omitempty"`
	Limit  int     `json:"limit,omitempty"`
}

// SearchRequest represents the arguments for screenshot_search.
type SearchRequest struct {
	Query  string  `json:"query"`
	Region *string `json:"region,omitempty"`
	From   *int64  `json:"from,omitempty"`
	To     *int64  `json:"to,omitempty"`
	Limit  int     `json:"limit,omitempty"`
}

// SimilarRequest represents the arguments for screenshot_similar.
type SimilarRequest struct {
	Fingerprint string  `json:"fingerprint,omitempty"`
	ID          int64   `json:"id,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
	Region      *string `json:"region,omitempty"`
	From        *int64  `json:"from,omitempty"`
	To          *int64  `json:"to,omitempty"`
	Limit       int     `json:"limit,omitempty"`
}

// CombinedSearchRequest represents the arguments for screenshot_combined_search.
type CombinedSearchRequest struct {
	Query       string   `json:"query,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	TextWeight  *float64 `json:"text_weight,omitempty"`
	ImageWeight *float64 `json:"image_weight,omitempty"`
	Region      *string  `json:"region,omitempty"`
	From        *int64   `json:"from,omitempty"`
	To          *int64   `json:"to,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// CleanupRequest represents the arguments for screenshot_cleanup.
type CleanupRequest struct {
	MaxAgeDays int `json:"max_age_days,omitempty"`
}

// HandleAdd implements screenshot_add.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.history.Add(history.AddInput{
		Path:               input.Path,
		SourceURL:          input.SourceURL,
		Region:             input.Region,
		CapturedAt:         input.CapturedAt,
		Description:        input.Description,
		Fingerprint:        input.Fingerprint,
		ComputeFingerprint: input.ComputeFingerprint,
		CopyToStorage:      input.CopyToStorage,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDescribe implements screenshot_describe. Without an explicit
// description it asks the configured vision model and stores the model's
// answer together with a fingerprint computed from the image.
func (h *Handlers) HandleDescribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DescribeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	in := history.DescribeInput{ID: input.ID, Description: input.Description}

	if input.Description == "" {
		if h.provider == nil {
			return errorResult(errors.NewInvalidRequest(
				"no description given and no vision model configured (set OPENAI_API_KEY)")), nil
		}
		record, err := h.history.Get(input.ID)
		if err != nil {
			return errorResult(err), nil
		}
		generated, err := h.provider.Describe(ctx, record.StoragePath, input.Prompt)
		if err != nil {
			return errorResult(errors.NewStorage("generate description", err)), nil
		}
		in.Description = generated.Text
		in.Model = &generated.Model

		if record.Fingerprint == nil {
			if fp, err := phash.ComputeFile(record.StoragePath); err == nil {
				s := fp.String()
				in.Fingerprint = &s
			}
		}
	}

	result, err := h.history.Describe(in)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGet implements screenshot_get.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.history.Get(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList implements screenshot_list.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	filter := screenshot.Filter{Region: input.Region, From: input.From, To: input.To}
	records, err := h.history.List(filter, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"records": records, "count": len(records)})
}

// HandleDelete implements screenshot_delete.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	deleted, err := h.history.Delete(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"id": input.ID, "deleted": deleted})
}

// HandleSearch implements screenshot_search.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	results, err := h.history.Search(history.SearchInput{
		Query:  input.Query,
		Region: input.Region,
		From:   input.From,
		To:     input.To,
		Limit:  input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"results": results, "count": len(results)})
}

// HandleSimilar implements screenshot_similar.
func (h *Handlers) HandleSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SimilarRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	results, err := h.history.Similar(history.SimilarInput{
		Fingerprint: input.Fingerprint,
		ID:          input.ID,
		Threshold:   input.Threshold,
		Region:      input.Region,
		From:        input.From,
		To:          input.To,
		Limit:       input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"results": results, "count": len(results)})
}

// HandleCombinedSearch implements screenshot_combined_search.
func (h *Handlers) HandleCombinedSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CombinedSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	results, err := h.history.Combined(history.CombinedInput{
		Query:       input.Query,
		Fingerprint: input.Fingerprint,
		TextWeight:  input.TextWeight,
		ImageWeight: input.ImageWeight,
		Region:      input.Region,
		From:        input.From,
		To:          input.To,
		Limit:       input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"results": results, "count": len(results)})
}

// HandleCleanup implements screenshot_cleanup.
func (h *Handlers) HandleCleanup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CleanupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	maxAge := input.MaxAgeDays
	if maxAge == 0 {
		maxAge = h.cfg.RetentionDays
	}

	result, err := h.history.Cleanup(maxAge)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStats implements screenshot_stats.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.history.Stats()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult converts an error into an MCP error payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if gErr, ok := err.(*errors.GlimpseError); ok {
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": gErr.Message,
			"status":  gErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if gErr.Code != errors.ErrInternal && gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult wraps data as a JSON tool result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
