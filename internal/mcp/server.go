package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/describe"
	"github.com/hpungsan/glimpse/internal/history"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"screenshot_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"screenshot_describe": {
		def:     describeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDescribe },
	},
	"screenshot_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"screenshot_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"screenshot_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"screenshot_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"screenshot_similar": {
		def:     similarToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSimilar },
	},
	"screenshot_combined_search": {
		def:     combinedSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCombinedSearch },
	},
	"screenshot_cleanup": {
		def:     cleanupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCleanup },
	},
	"screenshot_stats": {
		def:     statsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Glimpse tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(h *history.History, cfg *config.Config, provider describe.Provider, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"glimpse",
		version,
		server.WithToolCapabilities(true),
	)

	handlers := NewHandlers(h, cfg, provider)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(handlers))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(h *history.History, cfg *config.Config, provider describe.Provider, version string) error {
	s := NewServer(h, cfg, provider, version)
	return server.ServeStdio(s)
}
