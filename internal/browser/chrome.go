package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/gdprscan/gdprscan/internal/model"
)

// consentLabels maps each consent action to the button texts commonly used
// by consent banners. Matching is case-insensitive against the element's
// visible text.
var consentLabels = map[ConsentAction][]string{
	ConsentAccept: {"accept", "accept all", "accept all cookies", "allow all", "ok", "i agree", "agree"},
	ConsentReject: {"reject", "reject all", "deny", "decline", "refuse all", "only necessary"},
}

// consentSettleDelay is how long to wait after a consent click for the
// page to process it and set or clear cookies.
const consentSettleDelay = 2 * time.Second

// Chrome is the Browser implementation driving a headless Chrome instance
// through the DevTools protocol. Each Navigate opens an isolated tab.
//
// Design decision: A real browser is the default because consent banners
// and many cookie setters are script-driven; the plain HTTP fetcher would
// under-count cookies and never see banner-gated links.
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// ChromeOption configures a Chrome browser.
type ChromeOption func(*Chrome)

// WithNavigationTimeout sets the per-navigation timeout.
func WithNavigationTimeout(d time.Duration) ChromeOption {
	return func(c *Chrome) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChrome starts a headless Chrome allocator. The browser process itself
// launches lazily on the first navigation.
func NewChrome(ctx context.Context, opts ...ChromeOption) *Chrome {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(DefaultUserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	c := &Chrome{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Navigate implements Browser. The returned page owns its own tab; closing
// the page closes the tab without affecting sibling pages.
func (c *Chrome) Navigate(ctx context.Context, pageURL string) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx)

	runCtx, cancel := context.WithTimeout(tabCtx, c.timeout)
	defer cancel()

	// Stop the navigation early if the caller's context dies.
	go func() {
		select {
		case <-ctx.Done():
			tabCancel()
		case <-runCtx.Done():
		}
	}()

	var location string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("navigation to %s failed: %w", pageURL, err)
	}

	return &chromePage{
		ctx:     tabCtx,
		cancel:  tabCancel,
		url:     location,
		timeout: c.timeout,
	}, nil
}

// Close implements Browser.
func (c *Chrome) Close() error {
	c.allocCancel()
	return nil
}

// chromePage is one open Chrome tab.
type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	url     string
	timeout time.Duration
}

// URL implements Page.
func (p *chromePage) URL() string { return p.url }

// HTML implements Page.
func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page HTML failed: %w", err)
	}
	return html, nil
}

// Text implements Page.
func (p *chromePage) Text(ctx context.Context) (string, error) {
	var text string
	if err := p.run(ctx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page text failed: %w", err)
	}
	return text, nil
}

// Close implements Page.
func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

// HandleConsent implements ConsentPage. The click is done in page script
// because banner DOM varies wildly; matching visible button text is the
// only approach that generalizes across consent managers.
func (p *chromePage) HandleConsent(ctx context.Context, action ConsentAction, extraLabels ...string) (bool, error) {
	labels, ok := consentLabels[action]
	if !ok {
		return false, fmt.Errorf("unknown consent action %q", action)
	}
	for _, label := range extraLabels {
		labels = append(labels, strings.ToLower(strings.TrimSpace(label)))
	}

	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return false, err
	}

	script := fmt.Sprintf(`(() => {
		const labels = %s;
		const nodes = document.querySelectorAll('button, a, input[type=button], input[type=submit], [role=button]');
		for (const el of nodes) {
			const text = (el.innerText || el.value || '').trim().toLowerCase();
			if (labels.includes(text)) { el.click(); return true; }
		}
		return false;
	})()`, string(labelsJSON))

	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("consent click failed: %w", err)
	}

	if clicked {
		// Give the consent manager time to persist the choice.
		if err := p.run(ctx, chromedp.Sleep(consentSettleDelay)); err != nil {
			return true, err
		}
	}
	return clicked, nil
}

// Cookies implements ConsentPage.
func (p *chromePage) Cookies(ctx context.Context) ([]model.Cookie, error) {
	var cookies []model.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cookies = make([]model.Cookie, 0, len(raw))
		for _, c := range raw {
			cookies = append(cookies, model.Cookie{
				Name:     c.Name,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies failed: %w", err)
	}
	return cookies, nil
}

// run executes actions on this tab, bounded by the page timeout and the
// caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case err := <-done:
		return err
	}
}
