// internal/app/features/search/routes.go
package search

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /search.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
