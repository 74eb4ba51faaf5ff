package discovery

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gdprscan/gdprscan/internal/browser"
	"github.com/gdprscan/gdprscan/internal/classifier"
	"github.com/gdprscan/gdprscan/internal/keyword"
	"github.com/gdprscan/gdprscan/internal/model"
	"github.com/gdprscan/gdprscan/internal/sitemap"
)

// DefaultConcurrency bounds how many sub-target protocol runs execute at
// once. Each run holds a browser page and issues classifier calls, so the
// limit keeps resource usage per site predictable.
const DefaultConcurrency = 4

// Coordinator drives a full discovery pass over one site: the privacy
// policy protocol runs first at the entry page, and when it resolves to a
// URL the remaining targets are searched concurrently, each seeded at the
// policy page.
//
// Design decision: Sub-targets are seeded at the privacy policy page, not
// the entry page, because retention, deletion, cookie, and DPO information
// is almost always reachable from (or embedded in) the policy itself,
// while entry pages link to hundreds of unrelated destinations.
type Coordinator struct {
	browser  browser.Browser
	clf      classifier.Classifier
	profiles map[model.TargetType]keyword.Profile

	// sitemap, when set, is consulted as a last resort for the privacy
	// policy: sites that bury the policy behind scripted menus still
	// list it in their sitemap.
	sitemap *sitemap.Client

	shortCircuit bool
	concurrency  int
	logger       *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorShortCircuit propagates the short-circuit flag to every
// protocol run the coordinator starts.
func WithCoordinatorShortCircuit(enabled bool) CoordinatorOption {
	return func(c *Coordinator) {
		c.shortCircuit = enabled
	}
}

// WithConcurrency bounds concurrent sub-target runs. Values below one
// fall back to DefaultConcurrency.
func WithConcurrency(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n >= 1 {
			c.concurrency = n
		}
	}
}

// WithSitemap enables the sitemap fallback for the privacy policy search.
func WithSitemap(client *sitemap.Client) CoordinatorOption {
	return func(c *Coordinator) {
		c.sitemap = client
	}
}

// WithCoordinatorLogger sets a custom logger for the coordinator and the
// protocol runs it starts.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a coordinator using the given browser and
// classifier. A nil profiles map falls back to the built-in keyword
// profiles.
func NewCoordinator(b browser.Browser, clf classifier.Classifier, profiles map[model.TargetType]keyword.Profile, opts ...CoordinatorOption) *Coordinator {
	if profiles == nil {
		profiles = keyword.DefaultProfiles()
	}
	c := &Coordinator{
		browser:     b,
		clf:         clf,
		profiles:    profiles,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover runs the full discovery pass for the site named by the
// analysis and records one result per target type into it. Discover never
// fails; unreachable pages and classifier errors surface as not-found
// results with reasons.
func (c *Coordinator) Discover(ctx context.Context, analysis *model.SiteAnalysis) {
	policy := c.run(ctx, model.TargetPrivacyPolicy, analysis.SiteURL)
	if !policy.Found && c.sitemap != nil {
		if fallback, ok := c.sitemapFallback(ctx, analysis.SiteURL); ok {
			policy = fallback
		}
	}
	analysis.SetResult(policy)

	if policy.URL == "" {
		c.logger.InfoContext(ctx, "no privacy policy page, skipping sub-targets",
			"site", analysis.SiteURL,
		)
		for _, target := range model.SubTargets() {
			analysis.SetResult(model.NotFound(target, "no privacy policy url"))
		}
		return
	}

	// The protocol runs are independent; a mutex guards only the shared
	// analysis, and group errors cannot occur because runs never fail.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, target := range model.SubTargets() {
		g.Go(func() error {
			result := c.run(gctx, target, policy.URL)
			mu.Lock()
			analysis.SetResult(result)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	c.logger.InfoContext(ctx, "discovery pass complete",
		"site", analysis.SiteURL,
		"found", analysis.FoundCount(),
	)
}

// sitemapFallback scans the site's sitemap for a privacy policy URL. The
// best keyword match still has to pass the content validation stage; an
// unvalidated sitemap entry is never reported.
func (c *Coordinator) sitemapFallback(ctx context.Context, siteURL string) (model.DiscoveryResult, bool) {
	urls, err := c.sitemap.Fetch(ctx, siteURL)
	if err != nil {
		c.logger.DebugContext(ctx, "sitemap fallback unavailable",
			"site", siteURL,
			"error", err,
		)
		return model.DiscoveryResult{}, false
	}

	links := make([]model.CandidateLink, len(urls))
	for i, u := range urls {
		links[i] = model.CandidateLink{Href: u}
	}

	profile := c.profiles[model.TargetPrivacyPolicy]
	winner, ok := profile.Best(profile.Filter(links))
	if !ok {
		return model.DiscoveryResult{}, false
	}

	c.logger.InfoContext(ctx, "trying sitemap candidate for privacy policy",
		"site", siteURL,
		"url", winner.Href,
	)

	proto := NewProtocol(c.browser, c.clf, model.TargetPrivacyPolicy, profile,
		WithShortCircuit(c.shortCircuit),
		WithLogger(c.logger),
	)
	result, reason := proto.validate(ctx, winner.Href)
	if reason != "" {
		return model.DiscoveryResult{}, false
	}
	return result, true
}

// run executes one protocol instance for the given target seeded at seedURL.
func (c *Coordinator) run(ctx context.Context, target model.TargetType, seedURL string) model.DiscoveryResult {
	proto := NewProtocol(c.browser, c.clf, target, c.profiles[target],
		WithShortCircuit(c.shortCircuit),
		WithLogger(c.logger),
	)
	return proto.Run(ctx, seedURL)
}
