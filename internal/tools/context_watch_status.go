package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/notify"
)

// WatchStatusTool handles the context_watch_status MCP tool.
type WatchStatusTool struct {
	watcher *notify.Watcher
}

// NewWatchStatusTool creates a WatchStatusTool. A nil watcher means
// file watching is disabled.
func NewWatchStatusTool(w *notify.Watcher) *WatchStatusTool {
	return &WatchStatusTool{watcher: w}
}

// Definition returns the MCP tool definition for registration.
func (t *WatchStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("context_watch_status",
		mcp.WithDescription(
			"Report whether the file watcher is running and which directory "+
				"trees it monitors. Changes under a watched root evict the "+
				"affected cached documents automatically.",
		),
	)
}

// Handle processes the context_watch_status tool call.
func (t *WatchStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.watcher == nil {
		return mcp.NewToolResultText(
			"File watching is disabled. Cached documents expire by TTL only; use context_refresh after editing context files.",
		), nil
	}

	roots := t.watcher.Roots()
	if len(roots) == 0 {
		return mcp.NewToolResultText("File watching is enabled but no directories are being watched."), nil
	}

	var sb strings.Builder
	sb.WriteString("# Watched Directories\n\n")
	for _, r := range roots {
		fmt.Fprintf(&sb, "- %s\n", r)
	}
	sb.WriteString("\nChanges to files under these roots evict the affected cached documents.\n")
	return mcp.NewToolResultText(sb.String()), nil
}
