// Package api is the REST client for the FastServices backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/session"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultUploadPath = "/uploads/images"
	maxErrorBodyBytes = 64 * 1024
)

// ErrNotAuthenticated is returned before any network call when an
// authenticated endpoint is used without a stored session.
var ErrNotAuthenticated = errors.New("not logged in")

// Client calls the FastServices backend. Each authenticated request reads the
// current token pair from the session store.
type Client struct {
	baseURL    string
	uploadPath string
	tokens     session.Store
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUploadPath overrides the image upload endpoint path.
func WithUploadPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.uploadPath = path
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for baseURL.
func New(baseURL string, tokens session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadPath: defaultUploadPath,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON sends body as JSON and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out, authenticated)
}

func (c *Client) send(req *http.Request, out any, authenticated bool) error {
	req.Header.Set("Accept", "application/json")
	if authenticated {
		token, err := c.tokens.Load(req.Context())
		if errors.Is(err, session.ErrNoSession) {
			return ErrNotAuthenticated
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		req.Header.Set("Authorization", token.AuthorizationHeader())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := classifyTransportError(err)
		c.logger.Warnw("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"kind", terr.Kind,
			"error", err,
		)
		return terr
	}
	defer resp.Body.Close()

	c.logger.Debugw("request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return newServerError(resp.StatusCode, body)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
