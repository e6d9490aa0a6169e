// internal/content/client.go
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"

	"golang.org/x/exp/slices"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
	sourceStore    = "store"
)

// HTTPDoer is satisfied by *http.Client and allows easy mocking in tests
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ClientConfig holds content store client configuration
type ClientConfig struct {
	// BaseURL is the content store API root
	BaseURL *url.URL

	// Token is sent as a bearer token when set
	Token string

	// Timeout bounds a single request when no client is supplied
	Timeout time.Duration

	// HTTPClient overrides the HTTP client
	HTTPClient HTTPDoer
}

// Client reads posts from a headless CMS over JSON HTTP
type Client struct {
	logger  *logging.Logger
	metrics *metrics.Collector
	baseURL *url.URL
	token   string
	http    HTTPDoer
}

// NewClient creates a content store client
func NewClient(config ClientConfig, logger *logging.Logger, metrics *metrics.Collector) (*Client, error) {
	if config.BaseURL == nil || config.BaseURL.Scheme == "" || config.BaseURL.Host == "" {
		return nil, fmt.Errorf("content store URL must be absolute")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		logger:  logger.WithModule("content.client"),
		metrics: metrics,
		baseURL: config.BaseURL,
		token:   config.Token,
		http:    httpClient,
	}, nil
}

// ListPosts implements Store
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.get(ctx, "posts", &posts); err != nil {
		return nil, err
	}

	slices.SortFunc(posts, func(a, b Post) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return posts, nil
}

// GetPost implements Store
func (c *Client) GetPost(ctx context.Context, slug string) (*Post, error) {
	if !ValidSlug(slug) {
		return nil, ErrNotFound
	}

	var post Post
	if err := c.get(ctx, "posts/"+url.PathEscape(slug), &post); err != nil {
		return nil, err
	}
	if post.Slug == "" {
		post.Slug = slug
	}
	return &post, nil
}

// get fetches path relative to the base URL and decodes the JSON body into v
func (c *Client) get(ctx context.Context, path string, v any) (err error) {
	start := time.Now()
	result := "ok"
	defer func() {
		switch {
		case errors.Is(err, ErrNotFound):
			result = "not_found"
		case err != nil:
			result = "error"
		}
		c.metrics.RecordContentFetch(sourceStore, result, time.Since(start))
	}()

	base := *c.baseURL
	base.Path = strings.TrimSuffix(base.Path, "/") + "/"
	target := base.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create content request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := logging.FromContext(ctx, c.logger)
	logger.Debug("Fetching content", "url", logging.RedactURL(target))

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("content store request failed: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("content store returned %d", res.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode content response: %w", err)
	}
	return nil
}
