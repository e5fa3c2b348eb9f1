// Package lgproxy is the HTTP client for the looking-glass proxy.
//
// A request is a POST of {"command", "endpoint"} to the endpoint path
// (/bird, /traceroute or /traceroute6); the reply is {"result"} and
// optionally {"error"}.
package lgproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/psaab/birdlg/pkg/lg"
)

// Request is the proxy request body.
type Request struct {
	Command  string `json:"command"`
	Endpoint string `json:"endpoint"`
}

// Response is the proxy response body. A missing result is an empty string.
type Response struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// maxResponseSize bounds how much of a reply is read.
const maxResponseSize = 16 << 20

// Client talks to a proxy at BaseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. A zero timeout means no client-side timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Query implements lg.Backend.
func (c *Client) Query(ctx context.Context, cmd lg.BackendCommand) (string, error) {
	body, err := json.Marshal(Request{Command: cmd.Command, Endpoint: cmd.Endpoint})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cmd.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", cmd.Endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if r.Error != "" {
		return "", fmt.Errorf("proxy: %s", r.Error)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("proxy: HTTP %d", resp.StatusCode)
	}
	return r.Result, nil
}

var _ lg.Backend = (*Client)(nil)
