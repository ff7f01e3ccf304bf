// Package client is the HTTP client used by expiryledger-cli.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arvos-io/expiryledger/internal/infra/tlsroots"
)

// Client talks to an expiryledger-server instance.
type Client struct {
	baseURL  string
	http     *http.Client
	apiKeyID string
	apiKey   string
}

// Config configures a Client.
type Config struct {
	// Server is the host:port or URL of the server.
	Server string

	// APIKeyID and APIKey authenticate admin calls. Empty for the
	// public query surface.
	APIKeyID string
	APIKey   string

	// CACert is an optional PEM bundle to trust for TLS.
	CACert string

	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	baseURL := cfg.Server
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.CACert != "" {
		tlsCfg, err := tlsroots.ClientConfigFor(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("load CA certificate: %w", err)
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}

	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		apiKeyID: cfg.APIKeyID,
		apiKey:   cfg.APIKey,
	}, nil
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Get performs a GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return parseEnvelope(resp, out)
}

// Post performs a POST with a JSON body and decodes the envelope data
// into out. out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return parseEnvelope(resp, out)
}

// Download performs a POST and streams the raw response body to w.
// Used for the snapshot export, which is not JSON.
func (c *Client) Download(ctx context.Context, path string, body any, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKeyID != "" && c.apiKey != "" {
		req.Header.Set("X-API-Key-ID", c.apiKeyID)
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("User-Agent", "expiryledger-cli/1.0")

	return c.http.Do(req)
}

// parseEnvelope decodes the response envelope, turning server error
// codes into Go errors.
func parseEnvelope(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Code != "" {
		return fmt.Errorf("[%s] %s", env.Code, env.Message)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}
