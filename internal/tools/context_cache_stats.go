package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/engine"
)

// CacheStatsTool handles the context_cache_stats MCP tool.
type CacheStatsTool struct {
	engine *engine.Engine
}

// NewCacheStatsTool creates a CacheStatsTool with its dependencies.
func NewCacheStatsTool(eng *engine.Engine) *CacheStatsTool {
	return &CacheStatsTool{engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *CacheStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("context_cache_stats",
		mcp.WithDescription(
			"Report the state of the context cache: how many documents are "+
				"cached, their combined size, the age range, and hit/miss/eviction "+
				"counters since the server started.",
		),
	)
}

// Handle processes the context_cache_stats tool call.
func (t *CacheStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := t.engine.CacheStats()

	var sb strings.Builder
	sb.WriteString("# Context Cache\n\n")
	fmt.Fprintf(&sb, "**Cached documents:** %d\n", stats.EntryCount)
	fmt.Fprintf(&sb, "**Total size:** %d bytes\n", stats.TotalBytes)
	if stats.EntryCount > 0 {
		fmt.Fprintf(&sb, "**Oldest:** %s\n", stats.Oldest.Format(time.RFC3339))
		fmt.Fprintf(&sb, "**Newest:** %s\n", stats.Newest.Format(time.RFC3339))
	}
	sb.WriteString("\n## Counters\n\n")
	fmt.Fprintf(&sb, "- Hits: %d\n", stats.Hits)
	fmt.Fprintf(&sb, "- Misses: %d\n", stats.Misses)
	fmt.Fprintf(&sb, "- Evictions: %d\n", stats.Evictions)

	return mcp.NewToolResultText(sb.String()), nil
}
