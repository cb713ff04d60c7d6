package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/starford/linkmend/internal/linkservice"
	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/testutil"
)

// testEnv sets up a temp docs tree, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string, files map[string]string) (string, http.Handler) {
	t.Helper()
	root, store := testutil.TestTree(t, files)
	svc := linkservice.NewService(store, testutil.TestDB(t), nil)
	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return root, NewRouter(svc, authToken != "", authToken)
}

var sampleTree = map[string]string{
	"16 变形/css.md":    "# 变形\n\n![](视域 2.png)\n![ok](ok.png)\n",
	"16 变形/视域2.png":   "png",
	"16 变形/ok.png":    "png",
	"guide/editor.md": "![editor](flexbox 编辑器.png)\n",
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReport(t *testing.T) {
	_, router := testEnv(t, "", sampleTree)

	w := get(t, router, "/report")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rep ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Documents != 2 || rep.References != 3 || len(rep.Issues) != 2 {
		t.Errorf("report = %+v", rep)
	}
}

func TestReport_SeverityFilter(t *testing.T) {
	_, router := testEnv(t, "", sampleTree)

	w := get(t, router, "/report?severity=warning")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rep ReportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if len(rep.Issues) != 1 || rep.Issues[0].Ref.Document != "guide/editor.md" {
		t.Errorf("warning issues = %+v", rep.Issues)
	}

	w = get(t, router, "/report?severity=bogus")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bogus severity = %d, want 400", w.Code)
	}
}

func TestDocument(t *testing.T) {
	_, router := testEnv(t, "", sampleTree)

	w := get(t, router, "/documents/"+url.PathEscape("16 变形/css.md"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc DocumentResponse
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.Title != "变形" || len(doc.Refs) != 2 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Refs[0].Line != 3 {
		t.Errorf("line = %d, want 3", doc.Refs[0].Line)
	}

	w = get(t, router, "/documents/missing.md")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing doc = %d, want 404", w.Code)
	}
}

func TestSearchReferences(t *testing.T) {
	_, router := testEnv(t, "", sampleTree)

	w := get(t, router, "/references?q="+url.QueryEscape("编辑器"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ReferencesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.References) != 1 || resp.References[0].Alt != "editor" {
		t.Errorf("references = %+v", resp.References)
	}

	w = get(t, router, "/references")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestSuggestedFixes(t *testing.T) {
	_, router := testEnv(t, "", sampleTree)

	w := get(t, router, "/fixes/suggested")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/yaml") {
		t.Errorf("content type = %q", ct)
	}
	var table models.FixTable
	if err := yaml.Unmarshal(w.Body.Bytes(), &table); err != nil {
		t.Fatal(err)
	}
	want := models.FixEntry{File: "16 变形/css.md", Original: "![](视域 2.png)", Fixed: "![](视域2.png)"}
	if len(table.Fixes) != 1 || table.Fixes[0] != want {
		t.Errorf("fixes = %+v", table.Fixes)
	}
}

func TestApplyFixes(t *testing.T) {
	root, router := testEnv(t, "", sampleTree)
	body := "fixes:\n  - file: 16 变形/css.md\n    original: \"![](视域 2.png)\"\n    fixed: \"![](视域2.png)\"\n"

	req := httptest.NewRequest(http.MethodPost, "/fixes?dry_run=true", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("dry run = %d, body = %s", w.Code, w.Body.String())
	}
	var res FixResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.DryRun || res.Fixed != 1 {
		t.Errorf("dry run result = %+v", res)
	}
	data, _ := os.ReadFile(filepath.Join(root, "16 变形", "css.md"))
	if !strings.Contains(string(data), "视域 2.png") {
		t.Fatal("dry run rewrote the file")
	}

	req = httptest.NewRequest(http.MethodPost, "/fixes", strings.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("apply = %d, body = %s", w.Code, w.Body.String())
	}
	data, _ = os.ReadFile(filepath.Join(root, "16 变形", "css.md"))
	if !strings.Contains(string(data), "![](视域2.png)") {
		t.Errorf("file not fixed: %s", data)
	}

	w = get(t, router, "/report?severity=critical")
	var rep ReportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if len(rep.Issues) != 0 {
		t.Errorf("critical issues after fix = %+v", rep.Issues)
	}
}

func TestApplyFixes_JSONBody(t *testing.T) {
	root, router := testEnv(t, "", map[string]string{"a.md": "![](a b.png)\n", "ab.png": "png"})
	body := `{"fixes":[{"file":"a.md","original":"![](a b.png)","fixed":"![](ab.png)"}]}`

	req := httptest.NewRequest(http.MethodPost, "/fixes", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	data, _ := os.ReadFile(filepath.Join(root, "a.md"))
	if string(data) != "![](ab.png)\n" {
		t.Errorf("content = %q", data)
	}
}

func TestApplyFixes_InvalidTable(t *testing.T) {
	_, router := testEnv(t, "", sampleTree)

	for _, body := range []string{"fixes: [", "fixes:\n  - original: x\n"} {
		req := httptest.NewRequest(http.MethodPost, "/fixes", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestAuthTokenMode(t *testing.T) {
	_, router := testEnv(t, "secret", sampleTree)

	w := get(t, router, "/report")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/report", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}
