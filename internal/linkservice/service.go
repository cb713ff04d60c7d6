// Package linkservice coordinates storage, the reference index, the scanner
// and the fixer for the HTTP and MCP surfaces.
package linkservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/linkmend/internal/apperr"
	"github.com/starford/linkmend/internal/fixer"
	"github.com/starford/linkmend/internal/index"
	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/report"
	"github.com/starford/linkmend/internal/scanner"
	"github.com/starford/linkmend/internal/storage"
)

// Service answers report and fix requests against an indexed docs tree.
// The last full report is cached until Invalidate is called.
type Service struct {
	store   *storage.FS
	db      *index.DB
	scanner *scanner.Scanner
	logger  *slog.Logger

	mu     sync.Mutex
	cached *scanner.Report
}

// NewService creates a new link service.
func NewService(store *storage.FS, db *index.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		db:      db,
		scanner: scanner.New(store, logger),
		logger:  logger,
	}
}

// Sync refreshes the index from disk and drops the cached report.
func (s *Service) Sync(_ context.Context) (index.SyncStats, error) {
	stats, err := index.Sync(s.db, s.store, s.logger)
	if err != nil {
		return stats, err
	}
	s.Invalidate()
	return stats, nil
}

// Invalidate drops the cached report.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// OnChange matches index.EventCallback.
func (s *Service) OnChange(kind, path string) {
	s.logger.Debug("service: tree changed", slog.String("kind", kind), slog.String("path", path))
	s.Invalidate()
}

// Report returns the scan report, optionally filtered to one severity.
// An empty severity returns every issue.
func (s *Service) Report(ctx context.Context, severity string) (*scanner.Report, error) {
	var sev models.Severity
	if severity != "" {
		var ok bool
		if sev, ok = models.ParseSeverity(severity); !ok {
			return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidSeverity, severity)
		}
	}

	rep, err := s.report(ctx)
	if err != nil {
		return nil, err
	}
	if sev == "" {
		return rep, nil
	}
	return &scanner.Report{
		Documents:  rep.Documents,
		References: rep.References,
		Issues:     rep.BySeverity(sev),
	}, nil
}

func (s *Service) report(ctx context.Context) (*scanner.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}
	rep, err := s.scanner.Scan(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.cached = rep
	return rep, nil
}

// References returns the indexed references of one document.
func (s *Service) References(ctx context.Context, doc string) (models.DocumentRefs, error) {
	refs, ok, err := s.db.References(ctx, doc)
	if err != nil {
		return models.DocumentRefs{}, err
	}
	if !ok {
		return models.DocumentRefs{}, apperr.ErrNotFound
	}
	return refs, nil
}

// SearchReferences finds references whose path or alt text contains q.
func (s *Service) SearchReferences(ctx context.Context, q string, limit int) ([]models.ImageRef, error) {
	refs, err := s.db.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []models.ImageRef{}
	}
	return refs, nil
}

// SuggestedFixes builds a fix table from the critical issues of the
// current report.
func (s *Service) SuggestedFixes(ctx context.Context) (models.FixTable, error) {
	rep, err := s.report(ctx)
	if err != nil {
		return models.FixTable{}, err
	}
	return report.FixTable(rep), nil
}

// ApplyFixes rewrites documents per table. Unless dryRun is set, the index
// is resynced afterwards so later reports see the new content.
func (s *Service) ApplyFixes(ctx context.Context, table models.FixTable, dryRun bool) (*fixer.Result, error) {
	f := fixer.New(s.store, fixer.WithDryRun(dryRun), fixer.WithLogger(s.logger))
	res, err := f.Apply(ctx, table)
	if err != nil {
		return nil, err
	}
	if !dryRun && res.Fixed > 0 {
		if _, err := s.Sync(ctx); err != nil {
			return res, fmt.Errorf("linkservice: resync after fix: %w", err)
		}
	}
	return res, nil
}
