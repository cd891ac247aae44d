package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/engine"
)

// CacheClearTool handles the context_cache_clear MCP tool.
type CacheClearTool struct {
	engine *engine.Engine
}

// NewCacheClearTool creates a CacheClearTool with its dependencies.
func NewCacheClearTool(eng *engine.Engine) *CacheClearTool {
	return &CacheClearTool{engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *CacheClearTool) Definition() mcp.Tool {
	return mcp.NewTool("context_cache_clear",
		mcp.WithDescription(
			"Drop every cached context document for every directory. The next "+
				"load of each directory rebuilds from disk. Prefer context_refresh "+
				"when only one directory changed.",
		),
	)
}

// Handle processes the context_cache_clear tool call.
func (t *CacheClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := t.engine.CacheStats()
	t.engine.ClearCache()

	return mcp.NewToolResultText(fmt.Sprintf(
		"Context cache cleared. Dropped %d cached documents (%d bytes).",
		stats.EntryCount, stats.TotalBytes,
	)), nil
}
