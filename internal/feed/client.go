package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/pders01/fotag/internal/config"
	"github.com/pders01/fotag/internal/debuglog"
	"github.com/pders01/fotag/internal/gallery"
	"github.com/pders01/fotag/internal/validation"
)

const (
	searchPath  = "photos_public.gne"
	maxBodySize = 10 << 20
)

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, e.Status)
}

// Client fetches the public photo feed for a tag. It implements
// gallery.SearchClient.
type Client struct {
	client    *http.Client
	endpoint  *url.URL
	format    string
	userAgent string
	limiter   *rate.Limiter
}

var _ gallery.SearchClient = (*Client)(nil)

func NewClient(cfg *config.Config) (*Client, error) {
	validator := validation.NewEndpointValidator()
	if cfg.Feed.AllowLocal {
		validator = validation.NewPermissiveEndpointValidator()
	}

	base, err := validator.ValidateBaseURL(cfg.Feed.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed endpoint: %w", err)
	}

	c := &Client{
		client: &http.Client{
			Timeout: cfg.Feed.HTTPTimeout,
		},
		endpoint:  base.ResolveReference(&url.URL{Path: searchPath}),
		format:    cfg.Feed.Format,
		userAgent: cfg.Feed.UserAgent,
	}
	if c.format == "" {
		c.format = config.FormatJSON
	}
	if cfg.Feed.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Feed.RequestsPerSecond), 1)
	}
	return c, nil
}

// SearchURL returns the request URL for tag.
func (c *Client) SearchURL(tag string) string {
	u := *c.endpoint
	q := url.Values{}
	q.Set("tags", tag)
	q.Set("format", c.format)
	q.Set("nojsoncallback", "1")
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) Fetch(ctx context.Context, tag string) (*gallery.FeedResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limit: %w", err)
		}
	}

	target := c.SearchURL(tag)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHeader(c.format))

	debuglog.Debugf("GET %s", target)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch c.format {
	case config.FormatJSON:
		return DecodeJSON(body)
	default:
		return ParseSyndication(body, c.format)
	}
}

func acceptHeader(format string) string {
	switch format {
	case config.FormatJSON:
		return "application/json"
	case config.FormatAtom:
		return "application/atom+xml, application/xml, text/xml"
	default:
		return "application/rss+xml, application/xml, text/xml"
	}
}
