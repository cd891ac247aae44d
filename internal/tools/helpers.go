// Package tools implements MCP tool handlers for the context engine.
//
// Each tool is a struct that receives dependencies via its constructor
// and exposes a Definition for registration plus a Handle compatible
// with mcp-go's CallToolRequest signature.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: dependencies arrive through constructors, never globals
// - OCP: new tools are added without modifying existing ones
package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// resolveDirectory extracts the optional "directory" argument, falling
// back to the server's working directory. Path validation is left to
// the engine so all tools report the same errors.
func resolveDirectory(req mcp.CallToolRequest) (string, error) {
	if dir := strings.TrimSpace(req.GetString("directory", "")); dir != "" {
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return dir, nil
}

// intArg extracts an integer argument from the request. MCP transports
// JSON numbers as float64, so a direct int assertion would always fail.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	if v, ok := req.GetArguments()[key].(float64); ok {
		return int(v)
	}
	return def
}

// warningsSection appends a markdown section listing the scopes that
// failed during a partial load. An empty slice appends nothing.
func warningsSection(sb *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	sb.WriteString("\n---\n\n## Load Warnings\n\n")
	sb.WriteString("Some scopes could not be read; the document above was assembled from the rest.\n\n")
	for _, w := range warnings {
		fmt.Fprintf(sb, "- %s\n", w)
	}
}
