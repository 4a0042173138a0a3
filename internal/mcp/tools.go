package mcp

import "github.com/mark3labs/mcp-go/mcp"

var addToolDef = mcp.Tool{
	Name:        "screenshot_add",
	Description: "Record a screenshot file in the history store",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the screenshot file on disk",
			},
			"source_url": map[string]interface{}{
				"type":        "string",
				"description": "URL the screenshot was captured from",
			},
			"region": map[string]interface{}{
				"type":        "string",
				"description": "Captured area label, e.g. full, left_half, right_half",
			},
			"captured_at": map[string]interface{}{
				"type":        "integer",
				"description": "Capture time as a unix timestamp (default: now)",
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "Free-text description of the image contents",
			},
			"fingerprint": map[string]interface{}{
				"type":        "string",
				"description": "Precomputed perceptual hash in hex",
			},
			"compute_fingerprint": map[string]interface{}{
				"type":        "boolean",
				"description": "Compute a perceptual hash from the image pixels",
				"default":     false,
			},
			"copy_to_storage": map[string]interface{}{
				"type":        "boolean",
				"description": "Copy the file into managed storage instead of referencing it in place",
				"default":     false,
			},
		},
		Required: []string{"path"},
	},
}

var describeToolDef = mcp.Tool{
	Name:        "screenshot_describe",
	Description: "Attach a description to a stored screenshot, generating one with a vision model when none is given",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "integer",
				"description": "Screenshot id",
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "Description text; omit to generate one with the configured vision model",
			},
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "Custom prompt for the vision model",
			},
		},
		Required: []string{"id"},
	},
}

var getToolDef = mcp.Tool{
	Name:        "screenshot_get",
	Description: "Fetch a single screenshot record by id",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "integer",
				"description": "Screenshot id",
			},
		},
		Required: []string{"id"},
	},
}

var listToolDef = mcp.Tool{
	Name:        "screenshot_list",
	Description: "List screenshot records, most recent first",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"region": map[string]interface{}{
				"type":        "string",
				"description": "Only records with this region label",
			},
			"from": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or after this unix timestamp",
			},
			"to": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or before this unix timestamp",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of records (1-100, default 20)",
			},
		},
	},
}

var deleteToolDef = mcp.Tool{
	Name:        "screenshot_delete",
	Description: "Delete a screenshot record and its managed file",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "integer",
				"description": "Screenshot id",
			},
		},
		Required: []string{"id"},
	},
}

var searchToolDef = mcp.Tool{
	Name:        "screenshot_search",
	Description: "Search screenshot descriptions by text relevance",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Text query over descriptions",
			},
			"region": map[string]interface{}{
				"type":        "string",
				"description": "Only records with this region label",
			},
			"from": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or after this unix timestamp",
			},
			"to": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or before this unix timestamp",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results (1-100, default 10)",
			},
		},
		Required: []string{"query"},
	},
}

var similarToolDef = mcp.Tool{
	Name:        "screenshot_similar",
	Description: "Find screenshots visually similar to a fingerprint or a stored screenshot",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"fingerprint": map[string]interface{}{
				"type":        "string",
				"description": "Reference perceptual hash in hex (give this or id)",
			},
			"id": map[string]interface{}{
				"type":        "integer",
				"description": "Stored screenshot whose fingerprint to use as the reference",
			},
			"threshold": map[string]interface{}{
				"type":        "number",
				"description": "Minimum similarity in (0, 1] (default from config, 0.8)",
			},
			"region": map[string]interface{}{
				"type":        "string",
				"description": "Only records with this region label",
			},
			"from": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or after this unix timestamp",
			},
			"to": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or before this unix timestamp",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results (1-100, default 10)",
			},
		},
	},
}

var combinedSearchToolDef = mcp.Tool{
	Name:        "screenshot_combined_search",
	Description: "Hybrid search blending text relevance and visual similarity",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Text query over descriptions",
			},
			"fingerprint": map[string]interface{}{
				"type":        "string",
				"description": "Reference perceptual hash in hex",
			},
			"text_weight": map[string]interface{}{
				"type":        "number",
				"description": "Relative weight of the text score (default 0.5)",
			},
			"image_weight": map[string]interface{}{
				"type":        "number",
				"description": "Relative weight of the similarity score (default 0.5)",
			},
			"region": map[string]interface{}{
				"type":        "string",
				"description": "Only records with this region label",
			},
			"from": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or after this unix timestamp",
			},
			"to": map[string]interface{}{
				"type":        "integer",
				"description": "Only records captured at or before this unix timestamp",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results (1-100, default 10)",
			},
		},
	},
}

var cleanupToolDef = mcp.Tool{
	Name:        "screenshot_cleanup",
	Description: "Delete screenshots older than a maximum age, with their managed files",
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"max_age_days": map[string]interface{}{
				"type":        "integer",
				"description": "Delete records captured more than this many days ago (default from config, 30)",
			},
		},
	},
}

var statsToolDef = mcp.Tool{
	Name:        "screenshot_stats",
	Description: "Store totals, per-region counts, and recent searches",
	InputSchema: mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	},
}
