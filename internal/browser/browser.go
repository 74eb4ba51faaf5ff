package browser

import (
	"context"
	"errors"
	"time"

	"github.com/gdprscan/gdprscan/internal/model"
)

// DefaultNavigationTimeout bounds one page navigation.
// Sixty seconds matches what slow consent-managed sites need to settle.
const DefaultNavigationTimeout = 60 * time.Second

// ErrEmptyPage is returned when a navigated page yields no usable content.
var ErrEmptyPage = errors.New("page has no extractable content")

// ConsentAction is the cookie-consent scenario applied to a site's entry
// page before analysis.
type ConsentAction string

const (
	// ConsentAccept clicks the banner's accept button.
	ConsentAccept ConsentAction = "accept"

	// ConsentReject clicks the banner's reject button.
	ConsentReject ConsentAction = "reject"
)

// Scenarios lists the consent scenarios a site is analyzed under.
func Scenarios() []ConsentAction {
	return []ConsentAction{ConsentAccept, ConsentReject}
}

// Page is one open browsing context on a navigated page.
type Page interface {
	// URL returns the page's effective URL after redirects.
	URL() string

	// HTML returns the page's rendered HTML source.
	HTML(ctx context.Context) (string, error)

	// Text returns the page's visible text, the way innerText would.
	Text(ctx context.Context) (string, error)

	// Close releases the browsing context. Safe to call more than once.
	Close() error
}

// ConsentPage extends Page with the entry-page operations: consent banner
// interaction and cookie capture. Implementations that cannot execute
// scripts report the consent click as not performed rather than failing.
type ConsentPage interface {
	Page

	// HandleConsent locates and clicks the banner button matching the
	// action. Extra labels extend the built-in button texts for sites
	// with unusual banners. It reports whether a button was clicked.
	HandleConsent(ctx context.Context, action ConsentAction, extraLabels ...string) (bool, error)

	// Cookies returns the cookies set in this browsing context.
	Cookies(ctx context.Context) ([]model.Cookie, error)
}

// Browser opens isolated pages.
type Browser interface {
	// Navigate opens a new page at pageURL and waits for the document to
	// be ready. The caller owns the returned Page and must close it.
	Navigate(ctx context.Context, pageURL string) (Page, error)

	// Close shuts the browser down, closing any remaining pages.
	Close() error
}
