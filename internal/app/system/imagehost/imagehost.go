// Package imagehost stores generated images on Cloudinary.
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Folder is the asset folder and public-id prefix for generated images.
const Folder = "generatedImages"

var (
	ErrNotConfigured = errors.New("imagehost: cloudinary credentials missing")
	ErrEmptyImage    = errors.New("imagehost: empty image")
)

// Config holds Cloudinary credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// IsConfigured reports whether all credentials are present.
func (c Config) IsConfigured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Client uploads images.
type Client struct {
	cld *cloudinary.Cloudinary
	log *zap.Logger
}

// New builds a Client from cfg.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("imagehost: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Client{cld: cld, log: logger}, nil
}

// PublicID returns the Cloudinary public id for an image owned by uid.
func PublicID(uid, imageID string) string {
	return path.Join(Folder, uid, imageID)
}

// UploadImage stores img under generatedImages/<uid>/<random uuid> and
// returns its HTTPS URL.
func (c *Client) UploadImage(ctx context.Context, img []byte, uid string) (string, error) {
	if len(img) == 0 {
		return "", ErrEmptyImage
	}
	publicID := PublicID(uid, uuid.NewString())

	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(img), uploader.UploadParams{
		PublicID:       publicID,
		AssetFolder:    Folder,
		ResourceType:   "image",
		Overwrite:      api.Bool(true),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("imagehost: upload %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("imagehost: upload %s: %s", publicID, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("imagehost: upload %s: no secure_url in response", publicID)
	}
	c.log.Debug("image uploaded", zap.String("public_id", publicID))
	return res.SecureURL, nil
}
