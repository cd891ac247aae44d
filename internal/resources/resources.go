// Package resources implements MCP resource handlers for the context
// engine.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (context://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/engine"
)

// Handler manages the context resource endpoints.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// DocumentResource returns the MCP resource definition for the
// assembled context document.
func (h *Handler) DocumentResource() mcp.Resource {
	return mcp.NewResource(
		"context://document",
		"Project Context Document",
		mcp.WithResourceDescription("Assembled context document for the server's working directory"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleDocument serves the standard context document for the server's
// working directory, rebuilding it if the cached copy expired.
func (h *Handler) HandleDocument(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	result, err := h.engine.LoadContext(ctx, dir)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     result.Document,
		},
	}, nil
}

// CacheStatsResource returns the MCP resource definition for the cache
// state.
func (h *Handler) CacheStatsResource() mcp.Resource {
	return mcp.NewResource(
		"context://cache/stats",
		"Context Cache Statistics",
		mcp.WithResourceDescription("Entry count, total size, age range, and hit/miss counters of the context cache"),
		mcp.WithMIMEType("application/json"),
	)
}

type cacheStatsPayload struct {
	EntryCount int    `json:"entry_count"`
	TotalBytes int64  `json:"total_bytes"`
	Oldest     string `json:"oldest,omitempty"`
	Newest     string `json:"newest,omitempty"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
}

// HandleCacheStats returns the current cache statistics as JSON.
func (h *Handler) HandleCacheStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats := h.engine.CacheStats()

	payload := cacheStatsPayload{
		EntryCount: stats.EntryCount,
		TotalBytes: stats.TotalBytes,
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Evictions:  stats.Evictions,
	}
	if stats.EntryCount > 0 {
		payload.Oldest = stats.Oldest.Format(time.RFC3339)
		payload.Newest = stats.Newest.Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling cache stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
