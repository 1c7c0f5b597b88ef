package api

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

	"github.com/0xmhha/armenu-panel/pkg/logger"
)

// Client talks to the REST backend. It is safe for concurrent use.
type Client struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	logger logger.Logger
}

// New creates a new API client.
//
// Parameters:
//   - cfg: Client configuration (BaseURL is required)
//   - tokens: Source of the bearer token; nil sends unauthenticated requests
//   - log: Logger instance
//
// Returns:
//   - *Client: Configured client
//   - error: ErrNoBaseURL or a URL parse error
func New(cfg Config, tokens TokenSource, log logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be absolute", cfg.BaseURL)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = 10 * time.Minute
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "armenu"
	}
	if tokens == nil {
		tokens = StaticToken("")
	}

	log.Debug("api client created", "base_url", base.String())

	return &Client{
		cfg:    cfg,
		base:   base,
		http:   &http.Client{},
		tokens: tokens,
		logger: log,
	}, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// ResolveURL resolves ref (absolute or relative to the backend host) to an
// absolute URL. Asset URLs returned by the backend are often host-relative.
func (c *Client) ResolveURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	return c.base.ResolveReference(u).String(), nil
}

// endpoint joins path segments onto the base URL, escaping each segment.
func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.RawPath = c.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	u.Path = c.base.Path + "/" + strings.Join(segments, "/")
	return u.String()
}

// doJSON sends a request with an optional JSON body and decodes the
// response data into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send attaches common headers, performs req and decodes the response.
func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to read auth token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	return decodeData(respBody, out)
}

// decodeData accepts both the backend envelope {success, data, message}
// and a bare JSON document.
func decodeData(body []byte, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		body = envelope.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
