// internal/app/features/reels/youtube.go
package reels

import (
	"net/http"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	"github.com/dalemusser/reelhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/reelhub/internal/app/system/limits"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"github.com/dalemusser/reelhub/internal/app/system/ytupload"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /upload-reel-yt                                                        |
| multipart: video (file), title, description, privacy (all optional)         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleYouTubeUpload(w http.ResponseWriter, r *http.Request) {
	if h.YouTube == nil {
		uierrors.WriteJSON(w, http.StatusServiceUnavailable, youtubeResult{Error: "youtube upload not configured"})
		return
	}
	if err := r.ParseMultipartForm(limits.MultipartMemory); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "Video file required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("video")
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "Video file required")
		return
	}
	defer file.Close()

	v := ytupload.Video{
		Title:       htmlsanitize.PlainText(r.FormValue("title")),
		Description: htmlsanitize.PlainText(r.FormValue("description")),
		Privacy:     normalize.PrivacyStatus(r.FormValue("privacy"), ytupload.DefaultPrivacy),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upload(), h.Log, "youtube upload")
	defer cancel()

	res, err := h.YouTube.Upload(ctx, v, file)
	if err != nil {
		h.Log.Error("youtube upload failed", zap.String("filename", hdr.Filename), zap.Error(err))
		uierrors.WriteJSON(w, http.StatusInternalServerError, youtubeResult{Error: "YouTube upload failed"})
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, youtubeResult{
		Success:    true,
		VideoID:    res.VideoID,
		YouTubeURL: res.URL,
	})
}
