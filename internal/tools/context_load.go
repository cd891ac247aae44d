package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/engine"
)

// LoadTool handles the context_load MCP tool.
// It assembles the standard context document for a directory, serving
// a cached copy when one is still fresh.
type LoadTool struct {
	engine *engine.Engine
}

// NewLoadTool creates a LoadTool with its dependencies.
func NewLoadTool(eng *engine.Engine) *LoadTool {
	return &LoadTool{engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *LoadTool) Definition() mcp.Tool {
	return mcp.NewTool("context_load",
		mcp.WithDescription(
			"Assemble the project context document for a directory. "+
				"Collects VIBEX.md and AGENTS.md files from the global, project, "+
				"directory, and subdirectory scopes, resolves ${variable} references, "+
				"merges everything by priority, and returns a single markdown document. "+
				"Results are cached; use context_refresh to force a rebuild.",
		),
		mcp.WithString("directory",
			mcp.Description(
				"Directory to assemble context for. Defaults to the server's working directory.",
			),
		),
	)
}

// Handle processes the context_load tool call.
func (t *LoadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := resolveDirectory(req)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.LoadContext(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load context: %v", err)), nil
	}

	var sb strings.Builder
	if len(result.Entries) == 0 {
		fmt.Fprintf(&sb, "No context files found under %s.\n", result.Directory)
		sb.WriteString("Create a VIBEX.md or AGENTS.md in the project root to get started.\n")
	} else {
		sb.WriteString(result.Document)
	}
	warningsSection(&sb, result.Errors)

	return mcp.NewToolResultText(sb.String()), nil
}
