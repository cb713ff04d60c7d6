package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/linkmend/internal/linkservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *linkservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/report", h.Report)
	r.Get("/documents/*", h.Document)
	r.Get("/references", h.SearchReferences)

	r.Get("/fixes/suggested", h.SuggestedFixes)
	r.Post("/fixes", h.ApplyFixes)

	return r
}
