package cookies

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/gdprscan/gdprscan/internal/model"
)

// Categorizer sorts captured cookies into functional categories. The
// Ollama classifier satisfies this; a nil Categorizer skips the step.
type Categorizer interface {
	CategorizeCookies(ctx context.Context, cookies []model.Cookie) (map[string][]string, error)
}

// Analyzer computes per-scenario cookie statistics.
type Analyzer struct {
	categorizer Categorizer
	logger      *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithCategorizer enables model-assisted categorization of the captured
// cookie names.
func WithCategorizer(c Categorizer) AnalyzerOption {
	return func(a *Analyzer) {
		a.categorizer = c
	}
}

// WithLogger sets a custom logger for the analyzer.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer creates a cookie analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze summarizes the cookies captured for siteURL. Categorization
// failures are logged and leave Categorized empty; they never fail the
// analysis.
func (a *Analyzer) Analyze(ctx context.Context, siteURL string, captured []model.Cookie) model.CookieStats {
	stats := model.CookieStats{
		Total:   len(captured),
		Cookies: captured,
	}

	siteHost := hostOf(siteURL)
	for _, c := range captured {
		if !firstParty(siteHost, c.Domain) {
			stats.ThirdParty++
		}
	}

	if a.categorizer != nil && len(captured) > 0 {
		categorized, err := a.categorizer.CategorizeCookies(ctx, captured)
		if err != nil {
			a.logger.WarnContext(ctx, "cookie categorization failed",
				"site", siteURL,
				"cookies", len(captured),
				"error", err,
			)
		} else {
			stats.Categorized = categorized
		}
	}

	return stats
}

// hostOf extracts the hostname from a URL, tolerating bare hosts.
func hostOf(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(siteURL))
	}
	return strings.ToLower(u.Hostname())
}

// firstParty reports whether the cookie domain belongs to the analyzed
// site's registrable domain. Cookie domains carry a leading dot when set
// for a whole domain; it is ignored for the comparison. Hosts the public
// suffix list cannot classify fall back to a dot-suffix comparison.
func firstParty(siteHost, cookieDomain string) bool {
	cookieDomain = strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	if cookieDomain == "" || cookieDomain == siteHost {
		return true
	}

	siteDomain, err := publicsuffix.EffectiveTLDPlusOne(siteHost)
	if err != nil {
		return strings.HasSuffix(cookieDomain, "."+siteHost) || strings.HasSuffix(siteHost, "."+cookieDomain)
	}

	return cookieDomain == siteDomain || strings.HasSuffix(cookieDomain, "."+siteDomain)
}
