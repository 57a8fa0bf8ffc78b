// internal/app/features/search/handler.go
package search

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/app/system/spotify"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// TrackSearcher finds tracks for a free-text query. spotify.Client
// implements it.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string) ([]spotify.Track, error)
}

// Handler serves music search for reel soundtracks.
type Handler struct {
	Tracks TrackSearcher
	Log    *zap.Logger
}

// NewHandler constructs a search Handler. tracks may be nil when Spotify is
// not configured.
func NewHandler(tracks TrackSearcher, logger *zap.Logger) *Handler {
	return &Handler{Tracks: tracks, Log: logger}
}

// Serve handles GET /search?query=…. The response is a bare JSON array.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	q := normalize.QueryParam(r.URL.Query().Get("query"))
	if q == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}
	if h.Tracks == nil {
		uierrors.WriteError(w, http.StatusServiceUnavailable, "music search not configured")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "spotify search")
	defer cancel()

	tracks, err := h.Tracks.SearchTracks(ctx, q)
	if err != nil {
		h.Log.Warn("spotify search failed", zap.Error(err))
		uierrors.WriteError(w, http.StatusInternalServerError, "Spotify search failed")
		return
	}
	if tracks == nil {
		tracks = []spotify.Track{}
	}
	uierrors.WriteJSON(w, http.StatusOK, tracks)
}
