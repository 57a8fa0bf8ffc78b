// internal/app/features/reels/handler.go
package reels

import (
	"context"
	"io"

	"github.com/dalemusser/reelhub/internal/app/system/ytupload"
	"go.uber.org/zap"
)

// VideoStore keeps reels in a Telegram chat. telegram.Client implements it.
type VideoStore interface {
	SendVideo(ctx context.Context, filename string, video io.Reader, caption string) (string, error)
	ResolveVideoURL(ctx context.Context, fileID string) (string, error)
}

// Publisher uploads reels to YouTube. ytupload.Client implements it.
type Publisher interface {
	Upload(ctx context.Context, v ytupload.Video, media io.Reader) (ytupload.Result, error)
}

// Handler serves reel upload and playback routes. Either dependency may be
// nil when its vendor is not configured.
type Handler struct {
	Videos  VideoStore
	YouTube Publisher
	Log     *zap.Logger
}

// NewHandler constructs a reels Handler.
func NewHandler(videos VideoStore, yt Publisher, logger *zap.Logger) *Handler {
	return &Handler{Videos: videos, YouTube: yt, Log: logger}
}

type uploadResult struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type youtubeResult struct {
	Success    bool   `json:"success"`
	VideoID    string `json:"videoId,omitempty"`
	YouTubeURL string `json:"youtubeUrl,omitempty"`
	Error      string `json:"error,omitempty"`
}
