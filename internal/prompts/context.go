// Package prompts implements MCP prompt handlers for the context
// engine.
//
// MCP prompts are user-triggered workflows (like slash commands).
// Unlike tools, which the model calls on its own, prompts are initiated
// by the user to prime a conversation.
package prompts

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/cache"
	"github.com/vibex/vibectx/internal/engine"
)

// ContextPrompt handles the project_context MCP prompt.
// It assembles the context document and injects it into the
// conversation as a user message.
type ContextPrompt struct {
	engine *engine.Engine
}

// NewContextPrompt creates a ContextPrompt with its dependencies.
func NewContextPrompt(eng *engine.Engine) *ContextPrompt {
	return &ContextPrompt{engine: eng}
}

// Definition returns the MCP prompt definition for registration.
func (p *ContextPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("project_context",
		mcp.WithPromptDescription(
			"Load the project's context document into the conversation. "+
				"Collects VIBEX.md and AGENTS.md conventions from every scope, "+
				"so the assistant follows the project's rules from the first message.",
		),
		mcp.WithArgument("directory",
			mcp.ArgumentDescription("Directory to assemble context for. Defaults to the server's working directory."),
		),
		mcp.WithArgument("mode",
			mcp.ArgumentDescription("'standard' for context files only, 'full' to include project source files. Default: standard"),
		),
	)
}

// Handle processes the project_context prompt request.
func (p *ContextPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	dir := ""
	mode := string(cache.ModeStandard)
	if args := req.Params.Arguments; args != nil {
		if d, ok := args["directory"]; ok && d != "" {
			dir = d
		}
		if m, ok := args["mode"]; ok && m != "" {
			mode = m
		}
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}

	var (
		result *cache.Result
		err    error
	)
	switch mode {
	case string(cache.ModeStandard):
		result, err = p.engine.LoadContext(ctx, dir)
	case string(cache.ModeFull):
		result, err = p.engine.LoadFullContext(ctx, dir)
	default:
		return nil, fmt.Errorf("unknown mode %q: want 'standard' or 'full'", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("loading context: %w", err)
	}

	text := fmt.Sprintf(
		"Here is the assembled context for %s. Follow these project conventions "+
			"for the rest of the conversation.\n\n%s",
		result.Directory, result.Document,
	)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Project context for %s", result.Directory),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
