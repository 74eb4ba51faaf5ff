package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoSitemap is returned when neither robots.txt nor the conventional
// /sitemap.xml location yields a sitemap.
var ErrNoSitemap = errors.New("sitemap: no sitemap found")

const (
	// DefaultMaxURLs caps how many URLs one Fetch collects across all
	// referenced sitemap files.
	DefaultMaxURLs = 500

	// DefaultMaxDepth caps sitemap index recursion. Indexes referencing
	// indexes deeper than this are ignored.
	DefaultMaxDepth = 3

	// defaultMaxBody caps the bytes read from one sitemap document.
	defaultMaxBody = 10 << 20

	defaultTimeout = 30 * time.Second
)

// Client fetches and parses sitemaps for one site at a time.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxURLs    int
	maxDepth   int
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *Client) {
		s.httpClient = c
	}
}

// WithMaxURLs caps the number of URLs collected per Fetch.
func WithMaxURLs(n int) ClientOption {
	return func(s *Client) {
		if n > 0 {
			s.maxURLs = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with sitemap requests.
func WithUserAgent(ua string) ClientOption {
	return func(s *Client) {
		s.userAgent = ua
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(s *Client) {
		s.logger = logger
	}
}

// NewClient creates a sitemap client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "gdprscan/1.0 (+https://github.com/gdprscan/gdprscan)",
		maxURLs:    DefaultMaxURLs,
		maxDepth:   DefaultMaxDepth,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// urlset is the standard sitemap document. A sitemapindex carries the
// same shape under a different root element, so both are decoded into it.
type urlset struct {
	URLs     []sitemapEntry `xml:"url"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// Fetch returns the page URLs the site at siteURL advertises. Sitemap
// locations from robots.txt are tried first, then the conventional
// /sitemap.xml. Index files are followed recursively up to the depth cap.
func (c *Client) Fetch(ctx context.Context, siteURL string) ([]string, error) {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("sitemap: invalid site URL %q", siteURL)
	}

	locations := c.fromRobots(ctx, base)
	if len(locations) == 0 {
		locations = []string{base.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, loc := range locations {
		urls = c.collect(ctx, loc, 0, seen, urls)
		if len(urls) >= c.maxURLs {
			break
		}
	}
	if len(urls) == 0 {
		return nil, ErrNoSitemap
	}
	return urls, nil
}

// fromRobots returns the Sitemap directives listed in the site's robots.txt.
func (c *Client) fromRobots(ctx context.Context, base *url.URL) []string {
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	body, err := c.get(ctx, robotsURL)
	if err != nil {
		c.logger.DebugContext(ctx, "robots.txt unavailable",
			"url", robotsURL,
			"error", err,
		)
		return nil
	}

	var locations []string
	for _, line := range strings.Split(string(body), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if loc := strings.TrimSpace(value); loc != "" {
			locations = append(locations, loc)
		}
	}
	return locations
}

// collect parses one sitemap document and appends its page URLs, following
// nested index entries.
func (c *Client) collect(ctx context.Context, loc string, depth int, seen map[string]struct{}, urls []string) []string {
	if depth > c.maxDepth || len(urls) >= c.maxURLs {
		return urls
	}
	if _, ok := seen[loc]; ok {
		return urls
	}
	seen[loc] = struct{}{}

	body, err := c.get(ctx, loc)
	if err != nil {
		c.logger.DebugContext(ctx, "sitemap fetch failed",
			"url", loc,
			"error", err,
		)
		return urls
	}

	var doc urlset
	if err := xml.Unmarshal(body, &doc); err != nil {
		c.logger.DebugContext(ctx, "sitemap parse failed",
			"url", loc,
			"error", err,
		)
		return urls
	}

	for _, entry := range doc.URLs {
		if len(urls) >= c.maxURLs {
			return urls
		}
		if u := strings.TrimSpace(entry.Loc); u != "" {
			urls = append(urls, u)
		}
	}
	for _, entry := range doc.Sitemaps {
		if nested := strings.TrimSpace(entry.Loc); nested != "" {
			urls = c.collect(ctx, nested, depth+1, seen, urls)
		}
	}
	return urls
}

// get fetches one document, bounded by the body size cap.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, defaultMaxBody))
}
