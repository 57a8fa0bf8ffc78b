// Package telegram stores reel videos in a Telegram chat through the Bot
// API and resolves stored videos back to downloadable URLs.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBase is the public Bot API host.
const DefaultAPIBase = "https://api.telegram.org"

var (
	ErrNotConfigured = errors.New("telegram: bot token or chat id missing")
	ErrNoFilePath    = errors.New("telegram: file_path missing")
)

// APIError is an ok=false Bot API reply.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed (%d): %s", e.Method, e.Code, e.Description)
}

// Config holds bot credentials.
type Config struct {
	BotToken string
	ChatID   string
	APIBase  string
	// Timeout bounds getFile calls. Uploads are bounded by the caller's
	// context only.
	Timeout time.Duration
}

// Client talks to one bot and one chat.
type Client struct {
	token   string
	chatID  string
	apiBase string
	timeout time.Duration
	http    *http.Client
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		timeout: cfg.Timeout,
		http:    &http.Client{},
	}, nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

// FileURL is the download URL for a file_path returned by getFile.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, strings.TrimLeft(filePath, "/"))
}

type envelope struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func decode(method string, resp *http.Response, out any) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("telegram: %s: decode (status %d): %w", method, resp.StatusCode, err)
	}
	if !env.OK {
		code := env.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return &APIError{Method: method, Code: code, Description: env.Description}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("telegram: %s: decode result: %w", method, err)
	}
	return nil
}

// SendVideo posts video to the configured chat and returns Telegram's
// file_id. The body is streamed; video is read exactly once.
func (c *Client) SendVideo(ctx context.Context, filename string, video io.Reader, caption string) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeSendVideo(mw, c.chatID, caption, filename, video)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendVideo"), pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram: sendVideo: %s", redact(err, c.token))
	}
	defer resp.Body.Close()

	var msg struct {
		Video *struct {
			FileID string `json:"file_id"`
		} `json:"video"`
		Document *struct {
			FileID string `json:"file_id"`
		} `json:"document"`
	}
	if err := decode("sendVideo", resp, &msg); err != nil {
		return "", err
	}
	switch {
	case msg.Video != nil && msg.Video.FileID != "":
		return msg.Video.FileID, nil
	case msg.Document != nil && msg.Document.FileID != "":
		// Telegram files some uploads as documents (unsupported codec, no
		// thumbnail). The id is still fetchable with getFile.
		return msg.Document.FileID, nil
	}
	return "", errors.New("telegram: sendVideo: reply has no file_id")
}

func writeSendVideo(mw *multipart.Writer, chatID, caption, filename string, video io.Reader) error {
	if err := mw.WriteField("chat_id", chatID); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}
	if filename == "" {
		filename = "reel.mp4"
	}
	part, err := mw.CreateFormFile("video", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, video)
	return err
}

// ResolveVideoURL calls getFile for fileID and returns its download URL.
func (c *Client) ResolveVideoURL(ctx context.Context, fileID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.methodURL("getFile") + "?" + url.Values{"file_id": {fileID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram: getFile: %s", redact(err, c.token))
	}
	defer resp.Body.Close()

	var f struct {
		FilePath string `json:"file_path"`
	}
	if err := decode("getFile", resp, &f); err != nil {
		return "", err
	}
	if f.FilePath == "" {
		return "", ErrNoFilePath
	}
	return c.FileURL(f.FilePath), nil
}

// redact keeps the bot token out of transport errors, which embed the URL.
func redact(err error, token string) string {
	return strings.ReplaceAll(err.Error(), token, "<token>")
}
