package discovery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gdprscan/gdprscan/internal/browser"
	"github.com/gdprscan/gdprscan/internal/classifier"
	"github.com/gdprscan/gdprscan/internal/extractor"
	"github.com/gdprscan/gdprscan/internal/keyword"
	"github.com/gdprscan/gdprscan/internal/model"
)

// Protocol is one instance of the three-stage discovery protocol, bound to
// a single target type and its keyword profile. Instances are stateless
// across runs and safe for reuse.
type Protocol struct {
	browser browser.Browser
	clf     classifier.Classifier
	target  model.TargetType
	profile keyword.Profile

	// shortCircuit makes Stage 1 terminal on success instead of treating
	// it as a fallback behind a validated sub-page. Off by default: a
	// confirmed dedicated page is preferred over an embedded mention.
	shortCircuit bool

	logger *slog.Logger
}

// ProtocolOption configures a Protocol.
type ProtocolOption func(*Protocol)

// WithShortCircuit makes a successful embedded check return immediately,
// skipping the link search entirely.
func WithShortCircuit(enabled bool) ProtocolOption {
	return func(p *Protocol) {
		p.shortCircuit = enabled
	}
}

// WithLogger sets a custom logger for the protocol.
func WithLogger(logger *slog.Logger) ProtocolOption {
	return func(p *Protocol) {
		p.logger = logger
	}
}

// NewProtocol creates a protocol instance for the given target type.
func NewProtocol(b browser.Browser, clf classifier.Classifier, target model.TargetType, profile keyword.Profile, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		browser: b,
		clf:     clf,
		target:  target,
		profile: profile,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the three-stage protocol seeded at seedURL and returns the
// terminal discovery result. Navigation failures, classifier failures, and
// empty pages all degrade to a not-found or fallback result; Run never
// returns an error.
func (p *Protocol) Run(ctx context.Context, seedURL string) model.DiscoveryResult {
	page, err := p.browser.Navigate(ctx, seedURL)
	if err != nil {
		p.logger.WarnContext(ctx, "seed page unreachable",
			"target", p.target.String(),
			"url", seedURL,
			"error", err,
		)
		return model.NotFound(p.target, "seed page unreachable: "+err.Error())
	}
	defer page.Close()

	// Stage 1: does the seed page itself qualify?
	stage1, hasStage1 := p.embeddedCheck(ctx, page)
	if hasStage1 && p.shortCircuit {
		p.logger.DebugContext(ctx, "short-circuiting on embedded result",
			"target", p.target.String(),
			"url", page.URL(),
		)
		return stage1
	}

	// Stage 2: hybrid link selection.
	selected, stage2Reason := p.selectCandidate(ctx, page)
	if selected == "" {
		if hasStage1 {
			return stage1
		}
		return model.NotFound(p.target, stage2Reason)
	}

	// Stage 3: the selected page must validate before it wins.
	result, stage3Reason := p.validate(ctx, selected)
	if stage3Reason == "" {
		return result
	}
	if hasStage1 {
		return stage1
	}
	return model.NotFound(p.target, stage3Reason)
}

// embeddedCheck runs Stage 1 against the given page. The boolean reports
// whether an embedded result exists to fall back on.
func (p *Protocol) embeddedCheck(ctx context.Context, page browser.Page) (model.DiscoveryResult, bool) {
	text, err := page.Text(ctx)
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.DebugContext(ctx, "seed page has no extractable text",
			"target", p.target.String(),
			"url", page.URL(),
		)
		return model.DiscoveryResult{}, false
	}

	verdict := p.clf.ClassifyEmbedded(ctx, text, p.target)
	if verdict.Err != "" {
		p.logger.WarnContext(ctx, "embedded check failed",
			"target", p.target.String(),
			"url", page.URL(),
			"error", verdict.Err,
		)
		return model.DiscoveryResult{}, false
	}
	if !verdict.Found {
		return model.DiscoveryResult{}, false
	}

	return model.DiscoveryResult{
		TargetType: p.target,
		Found:      true,
		URL:        page.URL(),
		Embedded:   true,
		Summary:    verdict.Summary,
		Reasoning:  verdict.Reasoning,
	}, true
}

// selectCandidate runs Stage 2: extract and filter the seed page's links,
// let the classifier pick one, and fall back to the keyword scorer when
// the classifier's choice is invalid. An empty selection carries the
// reason no candidate survived.
func (p *Protocol) selectCandidate(ctx context.Context, page browser.Page) (selected, reason string) {
	html, err := page.HTML(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "reading seed page HTML failed",
			"target", p.target.String(),
			"error", err,
		)
		return "", "seed page content unreadable"
	}

	ext, err := extractor.New(page.URL(), extractor.WithLogger(p.logger))
	if err != nil {
		return "", "seed page URL unparseable"
	}
	links, err := ext.Links(strings.NewReader(html))
	if err != nil {
		p.logger.WarnContext(ctx, "link extraction failed",
			"target", p.target.String(),
			"error", err,
		)
		return "", "link extraction failed"
	}

	candidates := p.profile.Filter(links)
	if len(candidates) == 0 {
		p.logger.DebugContext(ctx, "no keyword-matching links",
			"target", p.target.String(),
			"links", len(links),
		)
		return "", "no embedded content and no matching links"
	}

	hrefs := make([]string, len(candidates))
	for i, c := range candidates {
		hrefs[i] = c.Href
	}

	verdict := p.clf.SelectLink(ctx, html, p.target, hrefs)
	if verdict.Err == "" {
		if chosen, ok := resolveChoice(verdict.ChosenURL, candidates); ok {
			p.logger.DebugContext(ctx, "classifier selected candidate",
				"target", p.target.String(),
				"url", chosen,
				"confidence", verdict.Confidence,
			)
			return chosen, ""
		}
		if verdict.ChosenURL != "" {
			// Scope violation: the classifier invented a URL outside the
			// candidate set. Non-fatal; the deterministic scorer decides.
			p.logger.WarnContext(ctx, "classifier choice outside candidate set, using heuristic scorer",
				"target", p.target.String(),
				"chosen", verdict.ChosenURL,
			)
		}
	} else {
		p.logger.WarnContext(ctx, "link selection failed, using heuristic scorer",
			"target", p.target.String(),
			"error", verdict.Err,
		)
	}

	if winner, ok := p.profile.Best(candidates); ok {
		p.logger.DebugContext(ctx, "heuristic scorer selected candidate",
			"target", p.target.String(),
			"url", winner.Href,
		)
		return winner.Href, ""
	}
	return "", "no candidate link scored above zero"
}

// resolveChoice validates the classifier's chosen URL against the candidate
// set. An exact match wins; otherwise a choice that is a substring of
// exactly one candidate href resolves to that candidate. Anything else is
// a scope violation. The result is always a member of the candidate set,
// never the classifier's raw value.
func resolveChoice(chosen string, candidates []model.CandidateLink) (string, bool) {
	chosen = strings.TrimSpace(chosen)
	if chosen == "" {
		return "", false
	}

	for _, c := range candidates {
		if c.Href == chosen {
			return c.Href, true
		}
	}

	var match string
	for _, c := range candidates {
		if strings.Contains(c.Href, chosen) {
			if match != "" {
				return "", false // ambiguous
			}
			match = c.Href
		}
	}
	return match, match != ""
}

// validate runs Stage 3: navigate to the selected URL and require the new
// page to pass the embedded check. An empty reason means the candidate
// validated and the result is terminal.
func (p *Protocol) validate(ctx context.Context, selected string) (model.DiscoveryResult, string) {
	page, err := p.browser.Navigate(ctx, selected)
	if err != nil {
		p.logger.WarnContext(ctx, "candidate page unreachable",
			"target", p.target.String(),
			"url", selected,
			"error", err,
		)
		return model.DiscoveryResult{}, "candidate page unreachable"
	}
	defer page.Close()

	text, err := page.Text(ctx)
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.DebugContext(ctx, "candidate page empty",
			"target", p.target.String(),
			"url", selected,
		)
		return model.DiscoveryResult{}, "candidate page has no extractable text"
	}

	verdict := p.clf.ClassifyEmbedded(ctx, text, p.target)
	if verdict.Err != "" || !verdict.Found {
		p.logger.DebugContext(ctx, "candidate page failed content validation",
			"target", p.target.String(),
			"url", selected,
		)
		return model.DiscoveryResult{}, "candidate page failed content validation"
	}

	return model.DiscoveryResult{
		TargetType: p.target,
		Found:      true,
		URL:        selected,
		Embedded:   false,
		Summary:    verdict.Summary,
		Reasoning:  verdict.Reasoning,
	}, ""
}
