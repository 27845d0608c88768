package audiobookshelf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chapterize/internal/chapters"
	"chapterize/internal/services"
)

const userAgent = "chapterize/0.1.0"

// DefaultRequestTimeout bounds each API call when no timeout is configured.
const DefaultRequestTimeout = 30 * time.Second

// Client talks to one Audiobookshelf server.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New validates the server settings and builds a client. The URL must carry a
// scheme and host; the API key must be non-empty.
func New(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "audiobookshelf", "new", fmt.Sprintf("invalid server url %q", baseURL), err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "audiobookshelf", "new", "api key is required", nil)
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type updateChaptersRequest struct {
	Chapters []chapters.BookChapter `json:"chapters"`
}

// UpdateChapters replaces the chapter list of a library item.
func (c *Client) UpdateChapters(ctx context.Context, itemID string, book []chapters.BookChapter) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return services.Wrap(services.ErrConfiguration, "audiobookshelf", "update", "item id is required", nil)
	}
	if len(book) == 0 {
		return services.Wrap(services.ErrStructural, "audiobookshelf", "update", "refusing to publish an empty chapter list", nil)
	}

	body, err := json.Marshal(updateChaptersRequest{Chapters: book})
	if err != nil {
		return services.Wrap(services.ErrTransient, "audiobookshelf", "update", "encode chapters", err)
	}

	endpoint := fmt.Sprintf("%s/api/items/%s/chapters", c.baseURL, url.PathEscape(itemID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrTransient, "audiobookshelf", "update", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "audiobookshelf", "update", "send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrExternalTool, "audiobookshelf", "update",
			fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
