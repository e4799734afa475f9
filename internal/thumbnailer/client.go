package thumbnailer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"media-uploader/internal/logging"
)

// notifyTimeout bounds the fire-and-forget request so a dead thumbnail
// service never leaks goroutines.
const notifyTimeout = 10 * time.Second

// Client asks a thumbnail service to process an uploaded asset.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a thumbnail client. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

// RequestThumbnail notifies the service about assetURL without waiting
// for the outcome. Failures are logged and dropped: a missing preview
// never fails the upload that produced the asset.
func (c *Client) RequestThumbnail(assetURL string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		body, err := json.Marshal(map[string]string{"assetUrl": assetURL})
		if err != nil {
			logging.Warn("Thumbnail request for %s not sent: %v", assetURL, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/thumbnail", bytes.NewReader(body))
		if err != nil {
			logging.Warn("Thumbnail request for %s not sent: %v", assetURL, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			logging.Warn("Thumbnail request for %s failed: %v", assetURL, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
			logging.Warn("Thumbnail request for %s rejected: %s", assetURL, resp.Status)
		}
	}()
}
