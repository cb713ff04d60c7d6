package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/linkmend/internal/fixer"
	"github.com/starford/linkmend/internal/scanner"
	"github.com/starford/linkmend/internal/testutil"
)

func testConfig(t *testing.T, files map[string]string) (*Config, string) {
	t.Helper()
	root, _ := testutil.TestTree(t, files)
	cfg := NewDefaultConfig()
	cfg.Docs.Root = root
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "linkmend.db")
	return cfg, root
}

var entryTree = map[string]string{
	"a.md":   "![](a b.png)\n![](图表 1.png)\n",
	"ab.png": "png",
}

func TestScan_Console(t *testing.T) {
	cfg, _ := testConfig(t, entryTree)
	var out bytes.Buffer

	err := Scan(context.Background(), ScanParams{}, WithConfig(cfg), WithStdout(&out), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	got := out.String()
	for _, want := range []string{"a.md", "suggested: ![](ab.png)", "critical: 1", "warning:  1"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestScan_JSONViaIndex(t *testing.T) {
	cfg, _ := testConfig(t, entryTree)
	var out bytes.Buffer

	err := Scan(context.Background(), ScanParams{JSON: true, UseIndex: true},
		WithConfig(cfg), WithStdout(&out), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var rep scanner.Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if rep.Documents != 1 || len(rep.Issues) != 2 {
		t.Errorf("report = %+v", rep)
	}
	if _, err := os.Stat(cfg.SQLite.Path); err != nil {
		t.Errorf("index database not created: %v", err)
	}
}

func TestScan_EmitFixesAndFix(t *testing.T) {
	cfg, root := testConfig(t, entryTree)
	tablePath := filepath.Join(t.TempDir(), "fixes.yaml")

	err := Scan(context.Background(), ScanParams{EmitFixes: tablePath, FailOnCritical: true},
		WithConfig(cfg), WithStdout(io.Discard), WithLogOutput(io.Discard))
	if !errors.Is(err, ErrCriticalIssues) {
		t.Fatalf("err = %v, want ErrCriticalIssues", err)
	}

	table, err := fixer.LoadTable(tablePath)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(table.Fixes) != 1 || table.Fixes[0].Fixed != "![](ab.png)" {
		t.Fatalf("table = %+v", table)
	}

	var out bytes.Buffer
	err = Fix(context.Background(), FixParams{Table: tablePath},
		WithConfig(cfg), WithStdout(&out), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if !strings.Contains(out.String(), "files fixed: 1/1") {
		t.Errorf("summary = %s", out.String())
	}
	data, _ := os.ReadFile(filepath.Join(root, "a.md"))
	if !strings.HasPrefix(string(data), "![](ab.png)\n") {
		t.Errorf("a.md = %q", data)
	}

	err = Scan(context.Background(), ScanParams{FailOnCritical: true},
		WithConfig(cfg), WithStdout(io.Discard), WithLogOutput(io.Discard))
	if err != nil {
		t.Errorf("scan after fix: %v", err)
	}
}

func TestFix_SingleFileReplacements(t *testing.T) {
	cfg, root := testConfig(t, entryTree)
	var out bytes.Buffer

	err := Fix(context.Background(), FixParams{
		File:         "a.md",
		Replacements: []string{"![](图表 1.png)=>![](图表1.png)"},
		DryRun:       true,
	}, WithConfig(cfg), WithStdout(&out), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if !strings.Contains(out.String(), "Dry run") {
		t.Errorf("summary = %s", out.String())
	}
	data, _ := os.ReadFile(filepath.Join(root, "a.md"))
	if !strings.Contains(string(data), "图表 1.png") {
		t.Error("dry run rewrote a.md")
	}
}

func TestFix_NoEntries(t *testing.T) {
	cfg, _ := testConfig(t, entryTree)
	err := Fix(context.Background(), FixParams{}, WithConfig(cfg), WithLogOutput(io.Discard))
	if !errors.Is(err, ErrNoFixes) {
		t.Errorf("err = %v, want ErrNoFixes", err)
	}

	err = Fix(context.Background(), FixParams{Replacements: []string{"a=>b"}}, WithConfig(cfg), WithLogOutput(io.Discard))
	if err == nil {
		t.Error("replacement without file should fail")
	}
}

func TestSetup_RequiresConfig(t *testing.T) {
	if err := Scan(context.Background(), ScanParams{}); err == nil {
		t.Error("expected error without config")
	}
}

func TestSetup_MissingRoot(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Docs.Root = filepath.Join(t.TempDir(), "absent")
	err := Scan(context.Background(), ScanParams{}, WithConfig(cfg), WithLogOutput(io.Discard))
	if err == nil {
		t.Error("expected error for a missing docs root")
	}
}
