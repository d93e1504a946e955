// Package github posts results back onto the submitting issue through the
// GitHub REST API: comments, labels and closing.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"registry/internal/logging"
)

const (
	DefaultAPIURL = "https://api.github.com"
	apiVersion    = "2022-11-28"
	userAgent     = "registry-bot"
)

// Config identifies the repository and credentials.
type Config struct {
	APIURL  string
	Owner   string
	Repo    string
	Token   string
	Timeout time.Duration
}

// Client talks to the issues endpoints of one repository.
type Client struct {
	baseURL string
	owner   string
	repo    string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger routes client logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.For(l, logging.CategoryGitHub)
	}
}

// New validates cfg and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Owner) == "" || strings.TrimSpace(cfg.Repo) == "" {
		return nil, fmt.Errorf("github: repository owner and name are required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if base == "" {
		base = DefaultAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL: base,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("github: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Comment posts body as a new comment on issue number.
func (c *Client) Comment(ctx context.Context, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"body": body}); err != nil {
		return err
	}
	c.logger.Info("comment posted", zap.Int("issue", number))
	return nil
}

// AddLabels attaches labels to issue number.
func (c *Client) AddLabels(ctx context.Context, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodPost, path, map[string][]string{"labels": labels}); err != nil {
		return err
	}
	c.logger.Info("labels added", zap.Int("issue", number), zap.Strings("labels", labels))
	return nil
}

// Close marks issue number as closed/completed.
func (c *Client) Close(ctx context.Context, number int) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", c.owner, c.repo, number)
	payload := map[string]string{"state": "closed", "state_reason": "completed"}
	if err := c.do(ctx, http.MethodPatch, path, payload); err != nil {
		return err
	}
	c.logger.Info("issue closed", zap.Int("issue", number))
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("github: encode %s %s: %w", method, path, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("github: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(respBody, "message").String(),
		}
		c.logger.Warn("api error", zap.Error(apiErr))
		return apiErr
	}
	return nil
}
