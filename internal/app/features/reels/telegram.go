// internal/app/features/reels/telegram.go
package reels

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	"github.com/dalemusser/reelhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/reelhub/internal/app/system/limits"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/app/system/telegram"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /upload-reel                                                           |
| multipart: video (file), caption (optional)                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.Videos == nil {
		uierrors.WriteJSON(w, http.StatusServiceUnavailable, uploadResult{Error: "video storage not configured"})
		return
	}
	if err := r.ParseMultipartForm(limits.MultipartMemory); err != nil {
		uierrors.WriteJSON(w, http.StatusBadRequest, uploadResult{Error: "Video file required"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("video")
	if err != nil {
		uierrors.WriteJSON(w, http.StatusBadRequest, uploadResult{Error: "Video file required"})
		return
	}
	defer file.Close()

	caption := htmlsanitize.PlainText(r.FormValue("caption"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upload(), h.Log, "telegram sendVideo")
	defer cancel()

	fileID, err := h.Videos.SendVideo(ctx, hdr.Filename, file, caption)
	if err != nil {
		h.Log.Error("telegram upload failed", zap.String("filename", hdr.Filename), zap.Error(err))
		msg := "Telegram upload failed"
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.Description
		}
		uierrors.WriteJSON(w, http.StatusInternalServerError, uploadResult{Error: msg})
		return
	}

	h.Log.Info("reel stored", zap.String("file_id", fileID), zap.Int64("bytes", hdr.Size))
	uierrors.WriteJSON(w, http.StatusOK, uploadResult{Success: true, FileID: fileID})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /video-url/{fileID}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeVideoURL(w http.ResponseWriter, r *http.Request) {
	fileID := normalize.QueryParam(chi.URLParam(r, "fileID"))
	if fileID == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "file id required")
		return
	}
	if h.Videos == nil {
		uierrors.WriteError(w, http.StatusServiceUnavailable, "video storage not configured")
		return
	}

	videoURL, err := h.Videos.ResolveVideoURL(r.Context(), fileID)
	switch {
	case errors.Is(err, telegram.ErrNoFilePath):
		uierrors.WriteError(w, http.StatusInternalServerError, "file_path missing")
		return
	case err != nil:
		h.Log.Warn("telegram getFile failed", zap.String("file_id", fileID), zap.Error(err))
		uierrors.WriteError(w, http.StatusInternalServerError, "Telegram getFile failed")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"url": videoURL})
}
