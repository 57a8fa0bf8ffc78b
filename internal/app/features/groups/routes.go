// internal/app/features/groups/routes.go
package groups

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /groups. requireUser must put the caller's id in the
// request context (auth.RequireBearer).
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(requireUser)

		pr.Post("/", h.HandleCreate)
		pr.Post("/join", h.HandleJoin)
		pr.Get("/mine", h.ServeMine)
		pr.Get("/{name}", h.ServeGroup)
		pr.Get("/{name}/members", h.ServeMembers)
	})

	return r
}
