package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/linkmend/internal/apperr"
	"github.com/starford/linkmend/internal/fixer"
	"github.com/starford/linkmend/internal/linkservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *linkservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *linkservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL (everything after /api/documents/).
// Supports encoded slashes and non-ASCII names (e.g. 16%20%E5%8F%98%E5%BD%A2%2Fcss.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Report handles GET /api/report.
//
//	@Summary		Scan report of image links with whitespace in their paths
//	@Tags			report
//	@Produce		json
//	@Param			severity	query		string	false	"Only issues of this severity"	Enums(critical, warning, info)
//	@Success		200			{object}	ReportResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Report(r.Context(), r.URL.Query().Get("severity"))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidSeverity) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			slog.Error("report failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Document handles GET /api/documents/*.
//
//	@Summary		Image references of a single document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.References(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SearchReferences handles GET /api/references.
//
//	@Summary		Search image references by path or alt text
//	@Tags			references
//	@Produce		json
//	@Param			q		query		string	true	"Substring to look for"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	ReferencesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references [get]
func (h *Handler) SearchReferences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	refs, err := h.svc.SearchReferences(r.Context(), q, limit)
	if err != nil {
		slog.Error("search references failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ReferencesResponse{References: refs})
}

// SuggestedFixes handles GET /api/fixes/suggested.
//
//	@Summary		Fix table for every critical issue
//	@Tags			fixes
//	@Produce		application/yaml
//	@Success		200	{object}	FixTable
//	@Security		BearerAuth
//	@Router			/fixes/suggested [get]
func (h *Handler) SuggestedFixes(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.SuggestedFixes(r.Context())
	if err != nil {
		slog.Error("suggest fixes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeYAML(w, http.StatusOK, table)
}

// ApplyFixes handles POST /api/fixes.
// The body is a fix table in YAML or JSON.
//
//	@Summary		Apply a fix table to the documents
//	@Tags			fixes
//	@Accept			application/yaml
//	@Produce		json
//	@Param			dry_run	query		bool		false	"Report without writing"
//	@Param			body	body		FixTable	true	"Fix table"
//	@Success		200		{object}	FixResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/fixes [post]
func (h *Handler) ApplyFixes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	table, err := fixer.ParseTable(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	res, err := h.svc.ApplyFixes(r.Context(), table, dryRun)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidEntry) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("apply fixes failed", slog.String("error", err.Error()))
		if res == nil {
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
	}
	writeJSON(w, http.StatusOK, res)
}
