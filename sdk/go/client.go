package julsdk

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is used when Config.BaseURL is empty.
const DefaultBaseURL = "http://localhost:8000"

// Config holds the mutable connection settings of a Client.
type Config struct {
	BaseURL string
	Token   string `masq:"secret"`
}

// Client is a Jul HTTP API client. It is safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	token   string

	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	limiter     *rate.Limiter
	logger      *slog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. The default client has no
// timeout; deadlines come from the caller's context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource supplies bearer tokens when no static token is set.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = ts
	}
}

// WithRateLimiter makes every request and stream open wait on l first.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		token:      cfg.Token,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// SetToken replaces the bearer token. Requests read the token once, when
// their headers are built, so a request issued concurrently with SetToken
// may go out with either the old or the new token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// SetBaseURL replaces the API base URL for subsequent requests.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = normalizeBaseURL(baseURL)
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// credentials snapshots the base URL and resolves the bearer token.
func (c *Client) credentials() (string, string, error) {
	c.mu.RLock()
	baseURL, token := c.baseURL, c.token
	c.mu.RUnlock()
	if token == "" && c.tokenSource != nil {
		tok, err := c.tokenSource.Token()
		if err != nil {
			return "", "", err
		}
		token = tok.AccessToken
	}
	return baseURL, token, nil
}

func normalizeBaseURL(baseURL string) string {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// repoPath builds a path under the repository-scoped API prefix
// "/{repo}.jul/api/v1/".
func repoPath(repo, p string) string {
	return "/" + url.PathEscape(repo) + ".jul/api/v1/" + strings.TrimLeft(p, "/")
}

// escapeComponent escapes s the way encodeURIComponent does: slashes
// become %2F and spaces %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
