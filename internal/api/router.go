package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Import.
	r.Post("/import", h.Import)

	// Feel lucky.
	r.Post("/lucky/{collection}", h.FeelLucky)

	// Configuration and resets.
	r.Get("/config", h.GetConfig)
	r.Put("/config", h.UpdateConfig)
	r.Post("/reset/visited", h.ResetVisited)
	r.Post("/reset/all", h.ResetAll)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	// Collection views. Static routes above take precedence over the
	// {collection} parameter.
	r.Get("/{collection}", h.GetPage)
	r.Get("/{collection}/{id}", h.GetRecord)

	return r
}
