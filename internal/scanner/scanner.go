// Package scanner flags image references whose paths contain whitespace and
// proposes whitespace-free candidates that exist on disk.
package scanner

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/parser"
	"github.com/starford/linkmend/internal/storage"
)

var remotePrefixes = []string{"http://", "https://", "//", "data:"}

// Source yields the image references of every document in the tree.
type Source interface {
	Documents(ctx context.Context) ([]models.DocumentRefs, error)
}

// Report is the outcome of one scan pass.
type Report struct {
	Documents  int            `json:"documents"`
	References int            `json:"references"`
	Issues     []models.Issue `json:"issues"`
}

// BySeverity returns the issues of the given severity in scan order.
func (r *Report) BySeverity(sev models.Severity) []models.Issue {
	var out []models.Issue
	for _, is := range r.Issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}

// Scanner evaluates image references against the documentation tree.
type Scanner struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a scanner over store.
func New(store storage.Provider, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{store: store, logger: logger}
}

// Documents walks the tree and parses every document. A document that
// cannot be read is logged and skipped.
func (s *Scanner) Documents(ctx context.Context) ([]models.DocumentRefs, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	out := make([]models.DocumentRefs, 0, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.store.Read(m.Path)
		if err != nil {
			s.logger.Warn("scan: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		out = append(out, Document(m.Path, data))
	}
	return out, nil
}

// Document parses data and stamps the resulting references with path.
func Document(path string, data []byte) models.DocumentRefs {
	res := parser.Parse(data)
	for i := range res.Refs {
		res.Refs[i].Document = path
	}
	return models.DocumentRefs{Path: path, Title: res.Title, Refs: res.Refs}
}

// Scan evaluates every reference produced by src.
func (s *Scanner) Scan(ctx context.Context, src Source) (*Report, error) {
	docs, err := src.Documents(ctx)
	if err != nil {
		return nil, err
	}
	rep := &Report{Documents: len(docs), Issues: []models.Issue{}}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep.References += len(d.Refs)
		for _, ref := range d.Refs {
			if is, ok := s.Evaluate(ref); ok {
				rep.Issues = append(rep.Issues, is)
			}
		}
	}
	s.logger.Debug("scan: done",
		slog.Int("documents", rep.Documents),
		slog.Int("references", rep.References),
		slog.Int("issues", len(rep.Issues)))
	return rep, nil
}

// Evaluate checks a single reference and reports whether it is an issue.
func (s *Scanner) Evaluate(ref models.ImageRef) (models.Issue, bool) {
	hasSpaces, suspicious := SpaceIssues(ref.Path)
	exists, resolved := s.exists(ref.Document, ref.Path)

	is := models.Issue{
		Ref:        ref,
		HasSpaces:  hasSpaces,
		Suspicious: suspicious,
		Exists:     exists,
		Resolved:   resolved,
	}

	if !exists && hasSpaces {
		candidate := Suggest(ref.Path)
		if ok, _ := s.exists(ref.Document, candidate); ok {
			is.Suggestion = candidate
		}
	}

	if !((hasSpaces && len(suspicious) > 0) || (!exists && hasSpaces)) {
		return models.Issue{}, false
	}

	switch {
	case !exists && is.Suggestion != "":
		is.Severity = models.SeverityCritical
	case len(suspicious) > 0:
		is.Severity = models.SeverityWarning
	default:
		is.Severity = models.SeverityInfo
	}
	return is, true
}

// exists resolves p against doc and checks it on disk. Remote destinations
// are not probed and count as existing.
func (s *Scanner) exists(doc, p string) (bool, string) {
	rel, remote := Resolve(doc, p)
	if remote {
		return true, p
	}
	abs, err := s.store.Abs(rel)
	if err != nil {
		return false, rel
	}
	return s.store.Exists(rel), abs
}

// Resolve maps an image destination to a root-relative path. Destinations
// starting with "/" are root-relative; anything else is relative to the
// directory of doc. remote is true for URLs and data URIs.
func Resolve(doc, p string) (rel string, remote bool) {
	for _, prefix := range remotePrefixes {
		if strings.HasPrefix(p, prefix) {
			return p, true
		}
	}
	if strings.HasPrefix(p, "/") {
		return path.Clean(strings.TrimLeft(p, "/")), false
	}
	return path.Join(path.Dir(doc), p), false
}

// Suggest strips every space from p.
func Suggest(p string) string {
	return strings.ReplaceAll(p, " ", "")
}
