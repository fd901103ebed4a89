package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultid/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/schemes", h.ListSchemes)
	r.Get("/stats", h.Stats)

	r.Post("/notes/*", h.AssignNote)
	r.Post("/bulk", h.Bulk)

	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
