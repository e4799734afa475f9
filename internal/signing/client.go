package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"media-uploader/internal/logging"
)

// RTTRecorder ingests request round-trip times. Satisfied by
// *netprofile.Profiler so signing calls double as latency samples.
type RTTRecorder interface {
	RecordRTT(d time.Duration)
}

// AuthorizationError is a refusal from the signing service.
type AuthorizationError struct {
	Status  int
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authorization refused (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("authorization refused (%d)", e.Status)
}

// Client requests upload authorizations from a signing service over
// HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	rtt     RTTRecorder
}

// NewClient creates a signing client. A nil httpClient uses
// http.DefaultClient; a nil rtt disables latency feedback.
func NewClient(baseURL string, httpClient *http.Client, rtt RTTRecorder) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: httpClient, rtt: rtt}
}

// RequestUploadAuthorization asks the signing service to authorize one
// upload. Refusals come back as *AuthorizationError; transport failures
// as plain errors.
func (c *Client) RequestUploadAuthorization(ctx context.Context, req Request) (*Authorization, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding signing request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sign", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building signing request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("requesting authorization: %w", err)
	}
	defer resp.Body.Close()

	if c.rtt != nil {
		c.rtt.RecordRTT(time.Since(start))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AuthorizationError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}

	var auth Authorization
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("decoding authorization: %w", err)
	}

	logging.Debug("Authorized upload of %s as %s", req.FileName, auth.Key)
	return &auth, nil
}

// errorMessage extracts the service's error body, tolerating non-JSON
// responses from intermediaries.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(bytes.TrimSpace(data))
}
