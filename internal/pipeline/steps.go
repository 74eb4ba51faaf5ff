package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdprscan/gdprscan/internal/browser"
	"github.com/gdprscan/gdprscan/internal/classifier"
	"github.com/gdprscan/gdprscan/internal/cookies"
	"github.com/gdprscan/gdprscan/internal/discovery"
	"github.com/gdprscan/gdprscan/internal/keyword"
	"github.com/gdprscan/gdprscan/internal/model"
	"github.com/gdprscan/gdprscan/internal/sitemap"
)

// ConsentStep loads the site's entry page, applies the consent scenario
// to the cookie banner, and captures the cookies set afterwards.
//
// Design decision: Consent handling is a separate step because:
// 1. It's the only step that needs a real browser; it is skipped
//    entirely in HTTP-only mode
// 2. The cookie snapshot must be taken before discovery navigates away
// 3. A missing banner is a finding, not a failure
type ConsentStep struct {
	// browser provides page navigation and consent interaction.
	browser browser.Browser

	// extraLabels are site-specific consent button labels tried in
	// addition to the built-in ones.
	extraLabels []string

	// logger for structured logging.
	logger *slog.Logger
}

// ConsentStepOption configures a ConsentStep.
type ConsentStepOption func(*ConsentStep)

// WithConsentLabels adds site-specific banner button labels.
func WithConsentLabels(labels []string) ConsentStepOption {
	return func(s *ConsentStep) {
		s.extraLabels = labels
	}
}

// WithConsentLogger sets a custom logger for the consent step.
func WithConsentLogger(logger *slog.Logger) ConsentStepOption {
	return func(s *ConsentStep) {
		s.logger = logger
	}
}

// NewConsentStep creates a consent handling step.
func NewConsentStep(b browser.Browser, opts ...ConsentStepOption) *ConsentStep {
	s := &ConsentStep{
		browser: b,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ConsentStep) Name() string {
	return "consent"
}

// Do executes the consent step. An unreachable entry page is a critical
// failure; everything else degrades and is recorded on the analysis.
func (s *ConsentStep) Do(ctx context.Context, analysis *model.SiteAnalysis) error {
	page, err := s.browser.Navigate(ctx, analysis.SiteURL)
	if err != nil {
		return fmt.Errorf("entry page unreachable: %w", err)
	}
	defer page.Close()

	consentPage, ok := page.(browser.ConsentPage)
	if !ok {
		s.logger.DebugContext(ctx, "browser does not support consent handling, skipping capture",
			"site", analysis.SiteURL,
		)
		return nil
	}

	action := browser.ConsentAction(analysis.Scenario)
	clicked, err := consentPage.HandleConsent(ctx, action, s.extraLabels...)
	if err != nil {
		s.logger.WarnContext(ctx, "consent handling failed",
			"site", analysis.SiteURL,
			"scenario", analysis.Scenario,
			"error", err,
		)
	} else if !clicked {
		s.logger.InfoContext(ctx, "no consent banner found",
			"site", analysis.SiteURL,
			"scenario", analysis.Scenario,
		)
	}

	captured, err := consentPage.Cookies(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "cookie capture failed",
			"site", analysis.SiteURL,
			"error", err,
		)
		return nil
	}

	// Raw capture only; the analysis step computes the statistics.
	analysis.CookieStats = model.CookieStats{
		Total:   len(captured),
		Cookies: captured,
	}

	s.logger.InfoContext(ctx, "cookies captured",
		"site", analysis.SiteURL,
		"scenario", analysis.Scenario,
		"banner_clicked", clicked,
		"count", len(captured),
	)

	return nil
}

// CookieAnalysisStep turns the raw cookie capture into statistics:
// third party counts and the optional model-assisted categorization.
type CookieAnalysisStep struct {
	// analyzer computes the statistics.
	analyzer *cookies.Analyzer

	// logger for structured logging.
	logger *slog.Logger
}

// CookieAnalysisStepOption configures a CookieAnalysisStep.
type CookieAnalysisStepOption func(*CookieAnalysisStep)

// WithCookieLogger sets a custom logger for the cookie analysis step.
func WithCookieLogger(logger *slog.Logger) CookieAnalysisStepOption {
	return func(s *CookieAnalysisStep) {
		s.logger = logger
	}
}

// NewCookieAnalysisStep creates a cookie analysis step using the given
// analyzer.
func NewCookieAnalysisStep(analyzer *cookies.Analyzer, opts ...CookieAnalysisStepOption) *CookieAnalysisStep {
	s := &CookieAnalysisStep{
		analyzer: analyzer,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CookieAnalysisStep) Name() string {
	return "cookie_analysis"
}

// Do executes the cookie analysis step.
func (s *CookieAnalysisStep) Do(ctx context.Context, analysis *model.SiteAnalysis) error {
	if len(analysis.CookieStats.Cookies) == 0 {
		s.logger.DebugContext(ctx, "no cookies captured, skipping analysis",
			"site", analysis.SiteURL,
		)
		return nil
	}

	analysis.CookieStats = s.analyzer.Analyze(ctx, analysis.SiteURL, analysis.CookieStats.Cookies)

	s.logger.InfoContext(ctx, "cookie analysis completed",
		"site", analysis.SiteURL,
		"total", analysis.CookieStats.Total,
		"third_party", analysis.CookieStats.ThirdParty,
	)

	return nil
}

// DiscoveryStep runs the full compliance-page discovery pass: the privacy
// policy search from the entry page, then the sub-target searches from
// the policy page.
type DiscoveryStep struct {
	// coordinator fans the protocol runs out across target types.
	coordinator *discovery.Coordinator

	// logger for structured logging.
	logger *slog.Logger
}

// DiscoveryStepOption configures a DiscoveryStep.
type DiscoveryStepOption func(*DiscoveryStep)

// WithDiscoveryLogger sets a custom logger for the discovery step.
func WithDiscoveryLogger(logger *slog.Logger) DiscoveryStepOption {
	return func(s *DiscoveryStep) {
		s.logger = logger
	}
}

// NewDiscoveryStep creates a discovery step backed by the given
// coordinator.
func NewDiscoveryStep(coordinator *discovery.Coordinator, opts ...DiscoveryStepOption) *DiscoveryStep {
	s := &DiscoveryStep{
		coordinator: coordinator,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DiscoveryStep) Name() string {
	return "discovery"
}

// Do executes the discovery step. Discovery itself never fails; per-target
// problems surface as not-found results on the analysis.
func (s *DiscoveryStep) Do(ctx context.Context, analysis *model.SiteAnalysis) error {
	s.coordinator.Discover(ctx, analysis)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// ConsentLabels are site-specific banner button labels.
	ConsentLabels []string

	// Profiles overrides the keyword profiles used during discovery.
	Profiles map[model.TargetType]keyword.Profile

	// ShortCircuit makes a successful embedded check terminal.
	ShortCircuit bool

	// SkipConsent disables the consent and cookie steps. Used in
	// HTTP-only mode where no banner can be clicked anyway.
	SkipConsent bool

	// Sitemap enables the sitemap fallback for the privacy policy search.
	Sitemap *sitemap.Client
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConsentLabels sets site-specific consent button labels.
func WithPipelineConsentLabels(labels []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ConsentLabels = labels
	}
}

// WithPipelineProfiles overrides the keyword profiles used during discovery.
func WithPipelineProfiles(profiles map[model.TargetType]keyword.Profile) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Profiles = profiles
	}
}

// WithPipelineShortCircuit propagates the short-circuit flag to discovery.
func WithPipelineShortCircuit(enabled bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ShortCircuit = enabled
	}
}

// WithPipelineSkipConsent disables consent handling and cookie capture.
func WithPipelineSkipConsent(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipConsent = skip
	}
}

// WithPipelineSitemap enables the sitemap fallback during discovery.
func WithPipelineSitemap(client *sitemap.Client) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Sitemap = client
	}
}

// DefaultPipeline creates a pipeline with all default steps configured:
// consent handling, cookie analysis, and discovery, in that order.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full analysis
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent ordering (cookies must be captured before
//    discovery navigates away from the entry page)
func DefaultPipeline(b browser.Browser, clf classifier.Classifier, analyzer *cookies.Analyzer, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	coordinatorOpts := []discovery.CoordinatorOption{
		discovery.WithCoordinatorShortCircuit(cfg.ShortCircuit),
		discovery.WithCoordinatorLogger(p.logger),
	}
	if cfg.Sitemap != nil {
		coordinatorOpts = append(coordinatorOpts, discovery.WithSitemap(cfg.Sitemap))
	}
	coordinator := discovery.NewCoordinator(b, clf, cfg.Profiles, coordinatorOpts...)

	if !cfg.SkipConsent {
		p.AddSteps(
			NewConsentStep(b,
				WithConsentLabels(cfg.ConsentLabels),
				WithConsentLogger(p.logger),
			),
			NewCookieAnalysisStep(analyzer,
				WithCookieLogger(p.logger),
			),
		)
	}

	p.AddStep(NewDiscoveryStep(coordinator,
		WithDiscoveryLogger(p.logger),
	))

	return p
}
