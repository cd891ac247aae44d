package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/memory"
)

// previewLength bounds the document excerpt shown per snapshot in list
// views. Fetch a snapshot by id for the full document.
const previewLength = 240

// HistoryTool handles the context_history MCP tool.
// It reads the snapshot archive that the engine appends to on every
// fresh context build.
type HistoryTool struct {
	store *memory.Store
}

// NewHistoryTool creates a HistoryTool. A nil store means snapshots are
// disabled and every call reports that.
func NewHistoryTool(store *memory.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("context_history",
		mcp.WithDescription(
			"Browse previously assembled context documents. Without arguments "+
				"lists the most recent snapshots with short previews. Pass 'query' "+
				"for a full-text search across archived documents, 'directory' to "+
				"narrow the listing to one project, or 'id' to fetch one snapshot "+
				"in full.",
		),
		mcp.WithNumber("id",
			mcp.Description("Snapshot ID to fetch in full. Overrides every other argument."),
		),
		mcp.WithString("query",
			mcp.Description("Full-text search over archived documents and their directories."),
		),
		mcp.WithString("directory",
			mcp.Description("Only list snapshots taken for this directory."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum snapshots to return. Defaults to 5."),
		),
	)
}

// Handle processes the context_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.store == nil {
		return mcp.NewToolResultError(
			"snapshot history is disabled; enable snapshots in the server configuration",
		), nil
	}

	if id := intArg(req, "id", 0); id > 0 {
		snap, err := t.store.GetSnapshot(int64(id))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch snapshot %d: %v", id, err)), nil
		}
		return mcp.NewToolResultText(formatSnapshot(snap)), nil
	}

	limit := intArg(req, "limit", 5)

	if query := strings.TrimSpace(req.GetString("query", "")); query != "" {
		results, err := t.store.Search(query, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No snapshots matched %q.", query)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "# Snapshots matching %q\n", query)
		for _, r := range results {
			writeSnapshotListItem(&sb, r.Snapshot)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}

	directory := strings.TrimSpace(req.GetString("directory", ""))
	if directory != "" {
		if abs, err := filepath.Abs(directory); err == nil {
			directory = abs
		}
	}

	snaps, err := t.store.RecentSnapshots(directory, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list snapshots: %v", err)), nil
	}
	if len(snaps) == 0 {
		return mcp.NewToolResultText(
			"No snapshots recorded yet. Snapshots are saved whenever a context document is rebuilt.",
		), nil
	}

	var sb strings.Builder
	sb.WriteString("# Recent Snapshots\n")
	for _, s := range snaps {
		writeSnapshotListItem(&sb, s)
	}
	if stats, err := t.store.Stats(); err == nil && directory == "" {
		fmt.Fprintf(&sb, "\n%d snapshots stored across %d directories.\n",
			stats.TotalSnapshots, len(stats.Directories))
	}
	sb.WriteString("\nPass an id to context_history to read a snapshot in full.\n")
	return mcp.NewToolResultText(sb.String()), nil
}

// writeSnapshotListItem appends one snapshot as a list section with a
// bounded preview of its document.
func writeSnapshotListItem(sb *strings.Builder, s memory.Snapshot) {
	fmt.Fprintf(sb, "\n## [%d] %s (%s)\n\n", s.ID, s.Directory, s.Mode)
	fmt.Fprintf(sb, "Saved %s, %d files, %d bytes\n\n", s.CreatedAt, s.FileCount, s.TotalBytes)
	fmt.Fprintf(sb, "> %s\n", memory.Truncate(s.Document, previewLength))
}

// formatSnapshot renders one snapshot with its full document.
func formatSnapshot(s *memory.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Snapshot %d\n\n", s.ID)
	fmt.Fprintf(&sb, "**Directory:** %s\n", s.Directory)
	fmt.Fprintf(&sb, "**Mode:** %s\n", s.Mode)
	fmt.Fprintf(&sb, "**Saved:** %s\n", s.CreatedAt)
	fmt.Fprintf(&sb, "**Files:** %d\n", s.FileCount)
	fmt.Fprintf(&sb, "**Size:** %d bytes\n", s.TotalBytes)
	if len(s.Variables) > 0 {
		sb.WriteString("\n## Resolved Variables\n\n")
		for k, v := range s.Variables {
			fmt.Fprintf(&sb, "- `%s` = %s\n", k, v)
		}
	}
	sb.WriteString("\n---\n\n")
	sb.WriteString(s.Document)
	return sb.String()
}
