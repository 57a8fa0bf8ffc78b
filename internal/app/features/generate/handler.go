// internal/app/features/generate/handler.go
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/reelhub/internal/app/features/errors"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// MaxImageBytes caps the generated image read from the upstream service.
const MaxImageBytes = 20 << 20

var errImageTooLarge = errors.New("generated image exceeds size limit")

// ImageUploader stores a generated image and returns its public URL.
// imagehost.Client implements it.
type ImageUploader interface {
	UploadImage(ctx context.Context, img []byte, uid string) (string, error)
}

// Handler proxies prompts to the image generator and rehosts the result.
type Handler struct {
	BaseURL  string
	HTTP     *http.Client
	Uploader ImageUploader
	Log      *zap.Logger
}

// NewHandler constructs a generate Handler. baseURL is the generator
// endpoint the prompt is appended to.
func NewHandler(baseURL string, uploader ImageUploader, logger *zap.Logger) *Handler {
	return &Handler{
		BaseURL:  baseURL,
		HTTP:     &http.Client{},
		Uploader: uploader,
		Log:      logger,
	}
}

type mediaItem struct {
	URL string `json:"url"`
}

type generateResponse struct {
	Status string `json:"status"`
	Data   struct {
		Media []mediaItem `json:"media"`
	} `json:"data"`
}

// Serve handles GET /generate?prompt=…&uid=….
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	prompt := normalize.QueryParam(r.URL.Query().Get("prompt"))
	if prompt == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "Prompt required")
		return
	}
	uid := normalize.QueryParam(r.URL.Query().Get("uid"))
	if uid == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "UID required")
		return
	}
	if h.BaseURL == "" || h.Uploader == nil {
		uierrors.WriteError(w, http.StatusServiceUnavailable, "image generation not configured")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "generate image")
	defer cancel()

	img, err := h.fetch(ctx, prompt)
	if err != nil {
		h.Log.Warn("image generation failed", zap.Error(err))
		uierrors.WriteError(w, http.StatusInternalServerError, "Image generation failed")
		return
	}

	imageURL, err := h.Uploader.UploadImage(ctx, img, uid)
	if err != nil {
		h.Log.Error("generated image upload failed", zap.String("uid", uid), zap.Error(err))
		uierrors.WriteError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	var resp generateResponse
	resp.Status = "success"
	resp.Data.Media = []mediaItem{{URL: imageURL}}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) fetch(ctx context.Context, prompt string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+url.PathEscape(prompt), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(img) > MaxImageBytes {
		return nil, errImageTooLarge
	}
	return img, nil
}
