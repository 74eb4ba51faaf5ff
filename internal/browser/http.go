package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gdprscan/gdprscan/internal/extractor"
	"github.com/gdprscan/gdprscan/internal/model"
)

// Default tuning for the HTTP fetcher.
const (
	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for any HTML page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies gdprscan in HTTP requests. A descriptive
	// User-Agent lets operators identify scanner traffic in their logs.
	DefaultUserAgent = "gdprscan/1.0 (+https://github.com/gdprscan/gdprscan)"
)

// Fetcher is the Browser implementation backed by a plain HTTP client.
// It cannot execute JavaScript, so consent banners are never clicked and
// only server-set cookies are observed. It exists for sites that render
// without scripts and for tests, where a headless Chrome is dead weight.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	timeout     time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithTimeout sets the per-navigation timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewFetcher creates an HTTP-backed Browser.
//
// Design decision: The fetcher keeps one cookie jar for its lifetime so
// that cookies set on the entry page are visible when sub-pages of the
// same site are fetched, mirroring how a browser session behaves.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	jar, _ := cookiejar.New(nil) // only errors on bad options, none given

	f := &Fetcher{
		client:      &http.Client{Jar: jar},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		timeout:     DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Navigate implements Browser.
func (f *Fetcher) Navigate(ctx context.Context, pageURL string) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("navigation to %s failed: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", pageURL, err)
	}

	return &httpPage{
		url:     resp.Request.URL.String(),
		html:    string(body),
		fetcher: f,
	}, nil
}

// Close implements Browser. The fetcher holds no external resources.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// httpPage is a fetched document. The content is materialized at
// navigation time, so HTML and Text never touch the network.
type httpPage struct {
	url     string
	html    string
	fetcher *Fetcher
}

// URL implements Page.
func (p *httpPage) URL() string { return p.url }

// HTML implements Page.
func (p *httpPage) HTML(_ context.Context) (string, error) {
	return p.html, nil
}

// Text implements Page.
func (p *httpPage) Text(_ context.Context) (string, error) {
	return extractor.Text(strings.NewReader(p.html))
}

// Close implements Page.
func (p *httpPage) Close() error { return nil }

// HandleConsent implements ConsentPage. Without script execution there is
// no banner to click; the action is reported as not performed.
func (p *httpPage) HandleConsent(_ context.Context, _ ConsentAction, _ ...string) (bool, error) {
	return false, nil
}

// Cookies implements ConsentPage. Only cookies the server set over HTTP
// are visible; script-set cookies require the Chrome browser.
func (p *httpPage) Cookies(_ context.Context) ([]model.Cookie, error) {
	u, err := url.Parse(p.url)
	if err != nil {
		return nil, err
	}

	raw := p.fetcher.client.Jar.Cookies(u)
	cookies := make([]model.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := model.Cookie{
			Name:   c.Name,
			Domain: c.Domain,
			Path:   c.Path,
		}
		if cookie.Domain == "" {
			cookie.Domain = u.Hostname()
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}
