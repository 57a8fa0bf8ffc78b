// Package spotify searches the Spotify catalog with an app-level
// (client-credentials) token.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultAPIBase  = "https://api.spotify.com/v1"

	// SearchLimit is the number of tracks requested per search.
	SearchLimit = 10
)

var (
	ErrNotConfigured = errors.New("spotify: client id/secret missing")
	ErrEmptyQuery    = errors.New("spotify: empty query")
)

// StatusError reports a non-200 search response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify: search returned status %d", e.Code)
}

// Config holds app credentials. TokenURL and APIBase default to Spotify's
// public endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBase      string
}

// Track is the reshaped search result returned to clients.
type Track struct {
	Name        string  `json:"name"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	AlbumArtURL *string `json:"album_art_url"`
	PreviewURL  *string `json:"preview_url"`
	SpotifyURL  string  `json:"spotify_url"`
}

// Client performs track searches. Tokens are fetched lazily and reused
// until they expire.
type Client struct {
	http    *http.Client
	apiBase string
}

// New builds a Client. The token source lives for the life of the process,
// so it is bound to context.Background rather than a request context.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &Client{
		http:    cc.Client(context.Background()),
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
	}, nil
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name   string `json:"name"`
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
			PreviewURL   *string `json:"preview_url"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"tracks"`
}

// SearchTracks returns up to SearchLimit tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", fmt.Sprint(SearchLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify: decode search: %w", err)
	}

	tracks := make([]Track, 0, len(body.Tracks.Items))
	for _, it := range body.Tracks.Items {
		names := make([]string, 0, len(it.Artists))
		for _, a := range it.Artists {
			names = append(names, a.Name)
		}
		t := Track{
			Name:       it.Name,
			Artist:     strings.Join(names, ", "),
			Album:      it.Album.Name,
			PreviewURL: it.PreviewURL,
			SpotifyURL: it.ExternalURLs.Spotify,
		}
		if len(it.Album.Images) > 0 {
			art := it.Album.Images[0].URL
			t.AlbumArtURL = &art
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}
