package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/engine"
)

// LoadFullTool handles the context_load_full MCP tool.
// Full mode widens discovery from context files to the project's source
// tree and trades the byte budget for a higher entry count.
type LoadFullTool struct {
	engine *engine.Engine
}

// NewLoadFullTool creates a LoadFullTool with its dependencies.
func NewLoadFullTool(eng *engine.Engine) *LoadFullTool {
	return &LoadFullTool{engine: eng}
}

// Definition returns the MCP tool definition for registration.
func (t *LoadFullTool) Definition() mcp.Tool {
	return mcp.NewTool("context_load_full",
		mcp.WithDescription(
			"Assemble the full project context for a directory: everything "+
				"context_load collects plus source files discovered across the "+
				"project tree (code, configs, docs). The document is capped at "+
				"full-mode budgets with the lowest-priority files dropped first, "+
				"so the result is a broad survey rather than a complete dump. "+
				"Cached independently of the standard document.",
		),
		mcp.WithString("directory",
			mcp.Description(
				"Directory to assemble context for. Defaults to the server's working directory.",
			),
		),
	)
}

// Handle processes the context_load_full tool call.
func (t *LoadFullTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := resolveDirectory(req)
	if err != nil {
		return nil, err
	}

	result, err := t.engine.LoadFullContext(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load full context: %v", err)), nil
	}

	var sb strings.Builder
	if len(result.Entries) == 0 {
		fmt.Fprintf(&sb, "No context or project files found under %s.\n", result.Directory)
	} else {
		sb.WriteString(result.Document)
	}
	warningsSection(&sb, result.Errors)

	return mcp.NewToolResultText(sb.String()), nil
}
