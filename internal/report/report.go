// Package report renders scan results for people and for the fixer.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/starford/linkmend/internal/fixer"
	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/scanner"
)

// Limits caps how many warning and info issues the console report lists.
type Limits struct {
	Warnings int
	Info     int
}

// DefaultLimits lists 10 warnings and 5 info issues.
var DefaultLimits = Limits{Warnings: 10, Info: 5}

const (
	wideRule   = "------------------------------------------------------------"
	narrowRule = "----------------------------------------"
)

// Console writes the human-readable report.
func Console(w io.Writer, rep *scanner.Report, limits Limits) error {
	cw := &errWriter{w: w}

	cw.printf("=== Image link whitespace scan ===\n\n")
	if len(rep.Issues) == 0 {
		cw.printf("No image link whitespace issues found.\n")
		return cw.err
	}

	critical := rep.BySeverity(models.SeverityCritical)
	warnings := rep.BySeverity(models.SeverityWarning)
	info := rep.BySeverity(models.SeverityInfo)

	if len(critical) > 0 {
		cw.printf("[critical] missing image, fix available:\n")
		for _, is := range critical {
			cw.printf("\nfile:      %s\n", is.Ref.Document)
			cw.printf("line:      %d\n", is.Ref.Line)
			cw.printf("link:      %s\n", is.Ref.Match)
			cw.printf("resolved:  %s\n", is.Resolved)
			cw.printf("suggested: %s\n", is.SuggestedLink())
			cw.printf("%s\n", wideRule)
		}
	}

	if len(warnings) > 0 {
		cw.printf("\n[warning] suspicious spacing (%d):\n", len(warnings))
		for _, is := range head(warnings, limits.Warnings) {
			cw.printf("\nfile:       %s\n", is.Ref.Document)
			cw.printf("line:       %d\n", is.Ref.Line)
			cw.printf("link:       %s\n", is.Ref.Match)
			cw.printf("suspicious: %s\n", strings.Join(is.Suspicious, ", "))
			cw.printf("exists:     %t\n", is.Exists)
			cw.printf("%s\n", wideRule)
		}
		more(cw, len(warnings), limits.Warnings)
	}

	if len(info) > 0 {
		cw.printf("\n[info] path contains spaces (%d):\n", len(info))
		for _, is := range head(info, limits.Info) {
			cw.printf("\nfile:   %s\n", is.Ref.Document)
			cw.printf("line:   %d\n", is.Ref.Line)
			cw.printf("path:   %s\n", is.Ref.Path)
			cw.printf("exists: %t\n", is.Exists)
			cw.printf("%s\n", narrowRule)
		}
		more(cw, len(info), limits.Info)
	}

	cw.printf("\n=== Summary ===\n")
	cw.printf("critical: %d\n", len(critical))
	cw.printf("warning:  %d\n", len(warnings))
	cw.printf("info:     %d\n", len(info))
	cw.printf("total:    %d\n", len(rep.Issues))
	return cw.err
}

// JSON writes the full report as indented JSON.
func JSON(w io.Writer, rep *scanner.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rep)
}

// FixTable turns every critical issue into a fix entry that swaps the
// matched link for one pointing at the suggested path.
func FixTable(rep *scanner.Report) models.FixTable {
	table := models.FixTable{Fixes: []models.FixEntry{}}
	seen := make(map[models.FixEntry]struct{})
	for _, is := range rep.BySeverity(models.SeverityCritical) {
		e := models.FixEntry{
			File:     is.Ref.Document,
			Original: is.Ref.Match,
			Fixed:    is.SuggestedLink(),
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		table.Fixes = append(table.Fixes, e)
	}
	return table
}

// WriteFixTable writes the YAML fix table derived from rep.
func WriteFixTable(w io.Writer, rep *scanner.Report) error {
	out, err := fixer.MarshalTable(FixTable(rep))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// FixSummary writes the outcome of a fixer run.
func FixSummary(w io.Writer, res *fixer.Result) error {
	cw := &errWriter{w: w}
	if res.DryRun {
		cw.printf("Dry run: no files were written.\n\n")
	}
	for _, fr := range res.Files {
		cw.printf("file: %s\n", fr.File)
		switch fr.Status {
		case fixer.StatusFixed:
			cw.printf("  fixed (%d of %d entries matched)\n", fr.Matched, fr.Entries)
		case fixer.StatusUnchanged:
			cw.printf("  unchanged (no entry matched)\n")
		default:
			cw.printf("  failed: %s\n", fr.Error)
		}
		cw.printf("\n")
	}
	cw.printf("=== Fix complete ===\n")
	cw.printf("files fixed: %d/%d\n", res.Fixed, res.Total)
	cw.printf("entries:     %d\n", res.Entries)
	return cw.err
}

func head(issues []models.Issue, n int) []models.Issue {
	if n >= 0 && len(issues) > n {
		return issues[:n]
	}
	return issues
}

func more(cw *errWriter, total, limit int) {
	if limit >= 0 && total > limit {
		cw.printf("\n... %d more\n", total-limit)
	}
}

// errWriter keeps the first write error so callers check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
