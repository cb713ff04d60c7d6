package api

import (
	"github.com/starford/linkmend/internal/fixer"
	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/scanner"
)

// ReportResponse is the scan report (aliased from the scanner).
type ReportResponse = scanner.Report

// DocumentResponse lists the image references of one document.
type DocumentResponse = models.DocumentRefs

// FixTable is the request body of POST /fixes and the body of GET /fixes/suggested.
type FixTable = models.FixTable

// FixResult is returned after applying a fix table (aliased from the fixer).
type FixResult = fixer.Result

// ReferencesResponse wraps reference search hits.
type ReferencesResponse struct {
	References []models.ImageRef `json:"references" validate:"required"`
}
