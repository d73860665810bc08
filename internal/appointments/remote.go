package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxRemoteBody bounds how much of an appointments response is read.
const maxRemoteBody = 10 << 20

// RemoteConfig configures the appointments API client.
type RemoteConfig struct {
	BaseURL string // e.g. "https://vet-api.example.com"
	Token   string // optional bearer token
	Timeout time.Duration
}

// RemoteSource fetches raw appointments from GET {base}/api/appointments.
type RemoteSource struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewRemoteSource validates cfg and returns a client.
func NewRemoteSource(cfg RemoteConfig) (*RemoteSource, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("appointments: BaseURL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RemoteSource{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Fetch returns every raw record the API reports. Both a bare JSON array and
// an object wrapping the array under "appointments" are accepted.
func (c *RemoteSource) Fetch(ctx context.Context) ([]Raw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/appointments", nil)
	if err != nil {
		return nil, fmt.Errorf("appointments: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("appointments: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, fmt.Errorf("appointments: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("appointments: remote API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var wrapped struct {
			Appointments json.RawMessage `json:"appointments"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("appointments: failed to decode response: %w", err)
		}
		body = wrapped.Appointments
	}
	if len(body) == 0 || string(body) == "null" {
		return nil, nil
	}

	raws, _, err := DecodeRawList(body)
	if err != nil {
		return nil, err
	}
	return raws, nil
}
