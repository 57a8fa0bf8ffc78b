// internal/app/features/reels/routes.go
package reels

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register adds the reel routes to r. requireKey guards both uploads;
// ytLimit is the YouTube upload's own rate limit.
func Register(r chi.Router, h *Handler, requireKey, ytLimit func(http.Handler) http.Handler) {
	r.Get("/video-url/{fileID}", h.ServeVideoURL)

	r.Group(func(pr chi.Router) {
		pr.Use(requireKey)
		pr.Post("/upload-reel", h.HandleUpload)
		pr.With(ytLimit).Post("/upload-reel-yt", h.HandleYouTubeUpload)
	})
}
