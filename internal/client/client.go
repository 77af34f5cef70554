// Package client implements the HTTP/JSON contract of the results API.
//
// A single Client is meant to be shared by every screen of the application so
// that the auth token, once set, is seen by all of them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/session"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
	"github.com/noah-isme/results-app/pkg/middleware/requestid"
)

// AccessTokenHeader carries the auth token on authenticated requests.
const AccessTokenHeader = "X-Access-Token"

const maxResponseBytes = 4 << 20

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client talks to the results API and holds the current auth token.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

// New constructs a Client for the API rooted at cfg.BaseURL (for example
// "http://results.jdupserver.com/api/v1/").
func New(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("results client: base url is required")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("results client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("results client: base url %q must be absolute", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetAuthToken stores the token attached to authenticated calls. An empty
// token clears it.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// AuthToken returns the current token, or "" when none is set.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login authenticates with email and password. A rejected login is not an
// error: inspect the returned status.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Email: email, Password: password}
	var res models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "auth/login", false, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates an account. The response has the same shape as Login.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	var res models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "auth/register", false, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetResults fetches every class graded in the given session.
func (c *Client) GetResults(ctx context.Context, id session.ID) (*models.Results, error) {
	var res models.Results
	if err := c.do(ctx, http.MethodGet, "results/"+url.PathEscape(string(id)), true, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Refresh asks the server to run a crawl cycle now.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "crawler/refresh", true, nil, nil)
}

// GetCrawlerConfig returns the crawler configuration of the user.
func (c *Client) GetCrawlerConfig(ctx context.Context) (*models.CrawlerConfig, error) {
	var cfg models.CrawlerConfig
	if err := c.do(ctx, http.MethodGet, "crawler/config", true, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveCrawlerConfig replaces the whole crawler configuration.
func (c *Client) SaveCrawlerConfig(ctx context.Context, cfg models.CrawlerConfig) error {
	return c.do(ctx, http.MethodPost, "crawler/config", true, cfg, nil)
}

// GetConfigClasses lists the classes tracked by the crawler.
func (c *Client) GetConfigClasses(ctx context.Context) ([]models.CrawlerClass, error) {
	classes := []models.CrawlerClass{}
	if err := c.do(ctx, http.MethodGet, "crawler/class", true, nil, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// CreateConfigClass adds a class to the crawler. The server assigns the id.
func (c *Client) CreateConfigClass(ctx context.Context, class models.CrawlerClass) (*models.CrawlerClass, error) {
	var created models.CrawlerClass
	if err := c.do(ctx, http.MethodPost, "crawler/class", true, class, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateConfigClass replaces a tracked class.
func (c *Client) UpdateConfigClass(ctx context.Context, class models.CrawlerClass) (*models.CrawlerClass, error) {
	var updated models.CrawlerClass
	if err := c.do(ctx, http.MethodPut, "crawler/class/"+url.PathEscape(class.ID), true, class, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteConfigClass stops tracking a class.
func (c *Client) DeleteConfigClass(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "crawler/class/"+url.PathEscape(id), true, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out interface{}) error {
	// path is already escaped; parsing keeps escaped separators in RawPath.
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	endpoint := c.base.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := requestid.New()
	req.Header.Set(requestid.Header, reqID)
	if auth {
		if token := c.AuthToken(); token != "" {
			req.Header.Set(AccessTokenHeader, token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, fmt.Sprintf("read %s response", path))
	}

	c.logger.Debug("results api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", reqID),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return appErrors.Clone(appErrors.ErrDecode, fmt.Sprintf("empty %s response", path))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, fmt.Sprintf("decode %s response", path))
	}
	return nil
}

type errorBody struct {
	Error   *appErrors.Error `json:"error"`
	Message string           `json:"message"`
}

// statusError keeps the server's own wording so callers see it verbatim.
func statusError(status int, payload []byte) error {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Error != nil && body.Error.Message != "" {
			return appErrors.FromStatus(status, body.Error.Code, body.Error.Message)
		}
		if body.Message != "" {
			return appErrors.FromStatus(status, "", body.Message)
		}
	}
	text := strings.TrimSpace(string(payload))
	if len(text) > 256 {
		text = text[:256]
	}
	return appErrors.FromStatus(status, "", text)
}
