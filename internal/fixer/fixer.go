// Package fixer applies literal (file, original, fixed) substitutions to
// documents, writing a file back only when its content changed.
package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/storage"
)

// Status is the outcome for one file.
type Status string

const (
	StatusFixed     Status = "fixed"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// FileResult reports what happened to one file of the table.
type FileResult struct {
	File    string `json:"file"`
	Entries int    `json:"entries"`
	Matched int    `json:"matched"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Result summarizes a whole table run.
type Result struct {
	Files   []FileResult `json:"files"`
	Fixed   int          `json:"fixed"`
	Total   int          `json:"total"`
	Entries int          `json:"entries"`
	DryRun  bool         `json:"dry_run"`
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithDryRun computes results without writing files back.
func WithDryRun(dryRun bool) Option {
	return func(f *Fixer) { f.dryRun = dryRun }
}

// WithLogger sets the logger used for per-file progress.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fixer) { f.logger = logger }
}

// Fixer rewrites documents held by a storage provider.
type Fixer struct {
	store  storage.Provider
	logger *slog.Logger
	dryRun bool
}

// New creates a Fixer over store.
func New(store storage.Provider, opts ...Option) *Fixer {
	f := &Fixer{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type group struct {
	file    string
	entries []models.FixEntry
}

// groupByFile buckets entries per file, keeping the order in which each
// file first appears and the table order inside each bucket.
func groupByFile(entries []models.FixEntry) []*group {
	var order []*group
	byFile := make(map[string]*group)
	for _, e := range entries {
		g, ok := byFile[e.File]
		if !ok {
			g = &group{file: e.File}
			byFile[e.File] = g
			order = append(order, g)
		}
		g.entries = append(g.entries, e)
	}
	return order
}

// Apply runs every entry of table. A failure on one file is recorded in its
// FileResult and processing continues with the next file.
func (f *Fixer) Apply(ctx context.Context, table models.FixTable) (*Result, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}

	res := &Result{Entries: len(table.Fixes), DryRun: f.dryRun}

	valid := make([]models.FixEntry, 0, len(table.Fixes))
	for _, e := range table.Fixes {
		rel, err := f.store.Rel(e.File)
		if err != nil {
			f.logger.Warn("fix: rejected path", slog.String("file", e.File), slog.String("error", err.Error()))
			res.Files = append(res.Files, FileResult{File: e.File, Entries: 1, Status: StatusFailed, Error: err.Error()})
			continue
		}
		e.File = rel
		valid = append(valid, e)
	}

	for _, g := range groupByFile(valid) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr := f.applyFile(g.file, g.entries)
		if fr.Status == StatusFixed {
			res.Fixed++
		}
		res.Files = append(res.Files, fr)
	}
	res.Total = len(res.Files)
	return res, nil
}

func (f *Fixer) applyFile(file string, entries []models.FixEntry) FileResult {
	fr := FileResult{File: file, Entries: len(entries)}

	data, err := f.store.Read(file)
	if err != nil {
		f.logger.Warn("fix: read failed", slog.String("file", file), slog.String("error", err.Error()))
		fr.Status, fr.Error = StatusFailed, err.Error()
		return fr
	}

	original := string(data)
	content := original
	for _, e := range entries {
		if strings.Contains(content, e.Original) {
			fr.Matched++
			content = strings.ReplaceAll(content, e.Original, e.Fixed)
		}
	}

	if content == original {
		fr.Status = StatusUnchanged
		f.logger.Debug("fix: nothing to change", slog.String("file", file))
		return fr
	}

	if !f.dryRun {
		if err := f.store.Write(file, []byte(content)); err != nil {
			f.logger.Warn("fix: write failed", slog.String("file", file), slog.String("error", err.Error()))
			fr.Status, fr.Error = StatusFailed, err.Error()
			return fr
		}
	}
	fr.Status = StatusFixed
	f.logger.Info("fix: rewrote file",
		slog.String("file", file),
		slog.Int("matched", fr.Matched),
		slog.Bool("dry_run", f.dryRun))
	return fr
}

// ParseReplacement splits an "old=>new" argument into a fix entry for file.
func ParseReplacement(file, arg string) (models.FixEntry, error) {
	old, repl, ok := strings.Cut(arg, "=>")
	if !ok {
		return models.FixEntry{}, fmt.Errorf("fixer: replacement %q is not of the form old=>new", arg)
	}
	return models.FixEntry{File: file, Original: old, Fixed: repl}, nil
}
