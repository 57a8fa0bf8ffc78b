// internal/app/bootstrap/vendors.go
package bootstrap

import (
	"context"
	"errors"

	generatefeature "github.com/dalemusser/reelhub/internal/app/features/generate"
	reelsfeature "github.com/dalemusser/reelhub/internal/app/features/reels"
	searchfeature "github.com/dalemusser/reelhub/internal/app/features/search"
	"github.com/dalemusser/reelhub/internal/app/system/imagehost"
	"github.com/dalemusser/reelhub/internal/app/system/spotify"
	"github.com/dalemusser/reelhub/internal/app/system/telegram"
	"github.com/dalemusser/reelhub/internal/app/system/ytupload"
	"go.uber.org/zap"
)

// vendors holds the upstream clients. A field is nil (an untyped nil
// interface) when its credentials are absent, and the matching routes
// answer 503.
type vendors struct {
	images  generatefeature.ImageUploader
	tracks  searchfeature.TrackSearcher
	videos  reelsfeature.VideoStore
	youtube reelsfeature.Publisher
}

func buildVendors(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (vendors, error) {
	var v vendors

	img, err := imagehost.New(imagehost.Config{
		CloudName: appCfg.CloudinaryCloudName,
		APIKey:    appCfg.CloudinaryAPIKey,
		APISecret: appCfg.CloudinaryAPISecret,
	}, logger)
	switch {
	case err == nil:
		v.images = img
	case errors.Is(err, imagehost.ErrNotConfigured):
		logger.Warn("cloudinary not configured; /generate will answer 503")
	default:
		return vendors{}, err
	}

	tracks, err := spotify.New(spotify.Config{
		ClientID:     appCfg.SpotifyClientID,
		ClientSecret: appCfg.SpotifyClientSecret,
	})
	switch {
	case err == nil:
		v.tracks = tracks
	case errors.Is(err, spotify.ErrNotConfigured):
		logger.Warn("spotify not configured; /search will answer 503")
	default:
		return vendors{}, err
	}

	tg, err := telegram.New(telegram.Config{
		BotToken: appCfg.TelegramBotToken,
		ChatID:   appCfg.TelegramChatID,
	})
	switch {
	case err == nil:
		v.videos = tg
	case errors.Is(err, telegram.ErrNotConfigured):
		logger.Warn("telegram not configured; /upload-reel and /video-url will answer 503")
	default:
		return vendors{}, err
	}

	yt, err := ytupload.New(ctx, ytupload.Config{
		ClientID:     appCfg.YouTubeClientID,
		ClientSecret: appCfg.YouTubeClientSecret,
		RefreshToken: appCfg.YouTubeRefreshToken,
	}, logger)
	switch {
	case err == nil:
		v.youtube = yt
	case errors.Is(err, ytupload.ErrNotConfigured):
		logger.Warn("youtube not configured; /upload-reel-yt will answer 503")
	default:
		return vendors{}, err
	}

	return v, nil
}
