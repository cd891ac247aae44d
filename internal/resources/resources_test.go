package resources

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vibex/vibectx/internal/engine"
	"github.com/vibex/vibectx/internal/scope"
)

type stubLoader struct {
	entries []scope.Entry
}

func (l *stubLoader) Name() string { return "stub" }

func (l *stubLoader) Load(ctx context.Context, dir string) ([]scope.Entry, error) {
	return l.entries, nil
}

func newHandler(t *testing.T, entries ...scope.Entry) *Handler {
	t.Helper()
	eng, err := engine.New(engine.Options{
		StandardLoaders: []scope.Loader{&stubLoader{entries: entries}},
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return NewHandler(eng)
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func textOf(t *testing.T, contents []mcp.ResourceContents) mcp.TextResourceContents {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("contents length = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want TextResourceContents", contents[0])
	}
	return tc
}

func TestDocumentResource_Definition(t *testing.T) {
	h := newHandler(t)
	res := h.DocumentResource()
	if res.URI != "context://document" {
		t.Errorf("URI = %s, want context://document", res.URI)
	}
	if res.MIMEType != "text/markdown" {
		t.Errorf("MIMEType = %s, want text/markdown", res.MIMEType)
	}
}

func TestHandleDocument(t *testing.T) {
	h := newHandler(t, scope.Entry{
		Scope:      scope.Directory,
		Label:      "VIBEX.md",
		SourcePath: "/src/VIBEX.md",
		Content:    "Keep functions short.",
		Priority:   100,
		ModTime:    time.Now(),
		Strategy:   scope.Merge,
	})

	contents, err := h.HandleDocument(context.Background(), readReq("context://document"))
	if err != nil {
		t.Fatalf("HandleDocument failed: %v", err)
	}

	tc := textOf(t, contents)
	if tc.URI != "context://document" {
		t.Errorf("URI = %s, want context://document", tc.URI)
	}
	if tc.MIMEType != "text/markdown" {
		t.Errorf("MIMEType = %s, want text/markdown", tc.MIMEType)
	}
	if !strings.Contains(tc.Text, "# Project Context") {
		t.Error("document should carry the context heading")
	}
	if !strings.Contains(tc.Text, "Keep functions short.") {
		t.Error("document should carry the entry content")
	}
}

func TestHandleCacheStats_Empty(t *testing.T) {
	h := newHandler(t)

	contents, err := h.HandleCacheStats(context.Background(), readReq("context://cache/stats"))
	if err != nil {
		t.Fatalf("HandleCacheStats failed: %v", err)
	}

	tc := textOf(t, contents)
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %s, want application/json", tc.MIMEType)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(tc.Text), &payload); err != nil {
		t.Fatalf("stats payload is not JSON: %v", err)
	}
	if payload["entry_count"] != float64(0) {
		t.Errorf("entry_count = %v, want 0", payload["entry_count"])
	}
	if _, ok := payload["oldest"]; ok {
		t.Error("empty cache should omit the age range")
	}
}

func TestHandleCacheStats_Populated(t *testing.T) {
	h := newHandler(t, scope.Entry{
		Scope:      scope.Directory,
		Label:      "VIBEX.md",
		SourcePath: "/src/VIBEX.md",
		Content:    "cached",
		Priority:   100,
		ModTime:    time.Now(),
		Strategy:   scope.Merge,
	})

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if _, err := h.engine.LoadContext(context.Background(), dir); err != nil {
		t.Fatalf("LoadContext: %v", err)
	}

	contents, err := h.HandleCacheStats(context.Background(), readReq("context://cache/stats"))
	if err != nil {
		t.Fatalf("HandleCacheStats failed: %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(textOf(t, contents).Text), &payload); err != nil {
		t.Fatalf("stats payload is not JSON: %v", err)
	}
	if payload["entry_count"] != float64(1) {
		t.Errorf("entry_count = %v, want 1", payload["entry_count"])
	}
	if payload["oldest"] == "" {
		t.Error("populated cache should report its age range")
	}
}
