package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/linkmend/internal/linkservice"
	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/scanner"
	"github.com/starford/linkmend/internal/testutil"
)

func testServer(t *testing.T, files map[string]string) (*Server, string) {
	t.Helper()
	root, store := testutil.TestTree(t, files)
	svc := linkservice.NewService(store, testutil.TestDB(t), nil)
	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(svc, "test"), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "scan_images":
		result, err = srv.scanImages(ctx, req)
	case "list_image_refs":
		result, err = srv.listImageRefs(ctx, req)
	case "suggest_fixes":
		result, err = srv.suggestFixes(ctx, req)
	case "apply_fixes":
		result, err = srv.applyFixes(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

var tree = map[string]string{
	"a.md":            "# A\n![shot](a b.png)\n![chart](图表 1.png)\n",
	"ab.png":          "png",
	"guide/b.md":      "![](../ab.png)\n",
	"guide/notes.txt": "![](ignored file.png)",
}

func TestScanImages(t *testing.T) {
	srv, _ := testServer(t, tree)

	result := callTool(t, srv, "scan_images", map[string]any{})
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(result))
	}
	var rep scanner.Report
	if err := json.Unmarshal([]byte(resultText(result)), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Documents != 2 || rep.References != 3 || len(rep.Issues) != 2 {
		t.Errorf("report = %+v", rep)
	}

	result = callTool(t, srv, "scan_images", map[string]any{"severity": "critical"})
	_ = json.Unmarshal([]byte(resultText(result)), &rep)
	if len(rep.Issues) != 1 || rep.Issues[0].Suggestion != "ab.png" {
		t.Errorf("critical issues = %+v", rep.Issues)
	}
}

func TestScanImages_BadSeverity(t *testing.T) {
	srv, _ := testServer(t, tree)
	result := callTool(t, srv, "scan_images", map[string]any{"severity": "urgent"})
	if !result.IsError {
		t.Error("expected error for unknown severity")
	}
}

func TestListImageRefs(t *testing.T) {
	srv, _ := testServer(t, tree)

	result := callTool(t, srv, "list_image_refs", map[string]any{"path": "a.md"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(result))
	}
	var doc models.DocumentRefs
	_ = json.Unmarshal([]byte(resultText(result)), &doc)
	if doc.Title != "A" || len(doc.Refs) != 2 {
		t.Errorf("doc = %+v", doc)
	}

	result = callTool(t, srv, "list_image_refs", map[string]any{"query": "图表"})
	var refs []models.ImageRef
	_ = json.Unmarshal([]byte(resultText(result)), &refs)
	if len(refs) != 1 || refs[0].Alt != "chart" {
		t.Errorf("refs = %+v", refs)
	}

	result = callTool(t, srv, "list_image_refs", map[string]any{"path": "nope.md"})
	if !result.IsError {
		t.Error("expected error for unknown document")
	}

	result = callTool(t, srv, "list_image_refs", map[string]any{})
	if !result.IsError {
		t.Error("expected error without path or query")
	}
}

func TestSuggestAndApplyFixes(t *testing.T) {
	srv, root := testServer(t, tree)

	result := callTool(t, srv, "suggest_fixes", map[string]any{})
	table := resultText(result)
	if !strings.Contains(table, "a b.png") || !strings.Contains(table, "file: a.md") {
		t.Fatalf("suggested table = %q", table)
	}

	result = callTool(t, srv, "apply_fixes", map[string]any{"table": table, "dry_run": true})
	if result.IsError {
		t.Fatalf("dry run error: %s", resultText(result))
	}
	if !strings.Contains(resultText(result), "Dry run") {
		t.Errorf("dry run summary = %q", resultText(result))
	}

	result = callTool(t, srv, "apply_fixes", map[string]any{"table": table})
	if !strings.Contains(resultText(result), "files fixed: 1/1") {
		t.Errorf("summary = %q", resultText(result))
	}
	data, _ := os.ReadFile(filepath.Join(root, "a.md"))
	if !strings.Contains(string(data), "![shot](ab.png)") {
		t.Errorf("a.md = %q", data)
	}

	result = callTool(t, srv, "suggest_fixes", map[string]any{})
	if resultText(result) != "no fixable issues found" {
		t.Errorf("after fix = %q", resultText(result))
	}
}

func TestApplyFixes_InvalidTable(t *testing.T) {
	srv, _ := testServer(t, tree)

	result := callTool(t, srv, "apply_fixes", map[string]any{})
	if !result.IsError {
		t.Error("expected error without table")
	}
	result = callTool(t, srv, "apply_fixes", map[string]any{"table": "fixes:\n  - fixed: x\n"})
	if !result.IsError {
		t.Error("expected error for entry without file")
	}
}

func TestFormatResource(t *testing.T) {
	srv, _ := testServer(t, tree)
	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != formatURI || !strings.Contains(tc.Text, "fixes:") {
		t.Errorf("resource = %+v", contents[0])
	}
}
