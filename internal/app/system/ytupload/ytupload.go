// Package ytupload publishes reels to a YouTube channel with a stored
// OAuth refresh token.
package ytupload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Defaults applied to uploads.
const (
	DefaultTitle   = "New Reel"
	DefaultPrivacy = "unlisted"
	CategoryPeople = "22" // People & Blogs
)

var ErrNotConfigured = errors.New("ytupload: client id, secret or refresh token missing")

// Config holds the OAuth client and the channel owner's refresh token.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// IsConfigured reports whether every credential is present.
func (c Config) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

func (c Config) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       []string{youtube.YoutubeUploadScope},
		Endpoint:     google.Endpoint,
	}
}

// Video describes one upload.
type Video struct {
	Title       string
	Description string
	Privacy     string
}

// Result identifies the published video.
type Result struct {
	VideoID string
	URL     string
}

// Client uploads videos.
type Client struct {
	svc *youtube.Service
	log *zap.Logger
}

// New builds a Client. Access tokens are refreshed on demand from
// cfg.RefreshToken for the life of the process.
func New(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}
	ts := cfg.oauth2Config().TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ytupload: %w", err)
	}
	return &Client{svc: svc, log: logger}, nil
}

// ShortURL is the youtu.be link for a video id.
func ShortURL(videoID string) string {
	return "https://youtu.be/" + videoID
}

// Resource builds the videos.insert body for v, applying defaults.
func Resource(v Video) *youtube.Video {
	title := v.Title
	if title == "" {
		title = DefaultTitle
	}
	privacy := v.Privacy
	if privacy == "" {
		privacy = DefaultPrivacy
	}
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: v.Description,
			CategoryId:  CategoryPeople,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: privacy},
	}
}

// Upload streams media as a resumable upload.
func (c *Client) Upload(ctx context.Context, v Video, media io.Reader) (Result, error) {
	call := c.svc.Videos.Insert([]string{"snippet", "status"}, Resource(v)).
		Media(media, googleapi.ChunkSize(googleapi.DefaultUploadChunkSize)).
		ProgressUpdater(func(current, total int64) {
			c.log.Debug("youtube upload progress",
				zap.Int64("bytes_sent", current),
				zap.Int64("total", total))
		}).
		Context(ctx)

	res, err := call.Do()
	if err != nil {
		return Result{}, fmt.Errorf("ytupload: insert: %w", err)
	}
	c.log.Info("youtube upload complete", zap.String("video_id", res.Id))
	return Result{VideoID: res.Id, URL: ShortURL(res.Id)}, nil
}
