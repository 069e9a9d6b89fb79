// Package github proxies the public repository listing of a GitHub user.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MKale112/devConnector/internal/apperr"
)

const (
	DefaultBaseURL = "https://api.github.com"
	userAgent      = "devConnector"
	maxBody        = 1 << 20
)

const noProfileMsg = "No github profile found"

type Client struct {
	base  string
	token string
	http  *http.Client
	cache Cache
	ttl   time.Duration
}

type Option func(*Client)

func WithToken(tok string) Option { return func(c *Client) { c.token = tok } }

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) { c.cache, c.ttl = cache, ttl }
}

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func New(base string, opts ...Option) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base:  base,
		http:  &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		cache: NopCache{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListRepos returns the user's five oldest repositories as the raw upstream
// JSON array. Any upstream failure is reported as a missing profile.
func (c *Client) ListRepos(ctx context.Context, username string) (json.RawMessage, error) {
	key := "github:repos:" + username
	if b, ok, err := c.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "repo cache get", "key", key, "err", err)
	} else if ok {
		return json.RawMessage(b), nil
	}

	body, err := c.fetch(ctx, username)
	if err != nil {
		slog.InfoContext(ctx, "github lookup failed", "username", username, "err", err)
		return nil, apperr.Upstream(noProfileMsg, err)
	}
	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		slog.WarnContext(ctx, "repo cache set", "key", key, "err", err)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, username string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/users/%s/repos?per_page=5&sort=created:asc", c.base, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("upstream returned invalid json")
	}
	return b, nil
}
