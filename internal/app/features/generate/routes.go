// internal/app/features/generate/routes.go
package generate

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /generate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
