package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/engine"
)

// RefreshTool handles the context_refresh MCP tool.
// It evicts every cached document under a directory and rebuilds the
// standard one immediately.
type RefreshTool struct {
	engine *engine.Engine
}

// NewRefreshTool creates a RefreshTool with its dependencies.
func NewRefreshTool(eng *engine.Engine) *RefreshTool {
	return &RefreshTool{engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *RefreshTool) Definition() mcp.Tool {
	return mcp.NewTool("context_refresh",
		mcp.WithDescription(
			"Force a rebuild of the context for a directory. Evicts every "+
				"cached document touching that directory (standard and full mode "+
				"alike), then reassembles the standard document from disk. Use "+
				"this after editing context files when you cannot wait for the "+
				"cache TTL or the file watcher.",
		),
		mcp.WithString("directory",
			mcp.Description(
				"Directory to refresh. Defaults to the server's working directory.",
			),
		),
	)
}

// Handle processes the context_refresh tool call.
func (t *RefreshTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := resolveDirectory(req)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.ForceRefresh(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh context: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("# Context Refreshed\n\n")
	fmt.Fprintf(&sb, "**Directory:** %s\n", result.Directory)
	fmt.Fprintf(&sb, "**Files:** %d\n", result.Stats.FileCount)
	fmt.Fprintf(&sb, "**Size:** %d bytes\n", result.Stats.TotalBytes)
	fmt.Fprintf(&sb, "**Variables resolved:** %d\n", result.Stats.ResolvedVars)
	fmt.Fprintf(&sb, "**Took:** %s\n", result.Stats.Elapsed)
	sb.WriteString("\nStale documents under this directory were evicted. ")
	sb.WriteString("Call context_load to read the rebuilt document.\n")
	warningsSection(&sb, result.Errors)

	return mcp.NewToolResultText(sb.String()), nil
}
