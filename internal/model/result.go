package model

import "time"

// DiscoveryResult is the terminal outcome of one discovery protocol run
// for a single (site, scenario, target type) combination. It is created
// once and never mutated after return.
//
// Design decision: A single struct covers found, embedded, and not-found
// outcomes rather than separate types because the report and database
// layers treat them uniformly; Found distinguishes the cases.
type DiscoveryResult struct {
	// TargetType identifies which compliance fact this result is for.
	TargetType TargetType `json:"target_type"`

	// Found reports whether qualifying content was located at all.
	Found bool `json:"found"`

	// URL is the page holding the qualifying content. It is either the
	// seed page (Embedded is true) or a validated member of the candidate
	// set evaluated during the run. Empty when Found is false.
	URL string `json:"url,omitempty"`

	// Embedded is true when the content was found on the page under
	// analysis rather than a dedicated linked sub-page.
	Embedded bool `json:"embedded"`

	// Summary is the classifier's summary of the qualifying content,
	// when one was produced.
	Summary string `json:"summary,omitempty"`

	// Reasoning is a human-readable explanation of how the result was
	// reached, including why nothing was found.
	Reasoning string `json:"reasoning"`
}

// NotFound returns a terminal not-found result with the given reasoning.
func NotFound(target TargetType, reasoning string) DiscoveryResult {
	return DiscoveryResult{
		TargetType: target,
		Found:      false,
		Reasoning:  reasoning,
	}
}

// CookieStats summarizes the cookies captured for one (site, scenario) run.
type CookieStats struct {
	// Total is the number of cookies set after the consent action.
	Total int `json:"total"`

	// ThirdParty is the number of cookies whose domain does not belong
	// to the analyzed site's registrable domain.
	ThirdParty int `json:"third_party"`

	// Categorized maps cookie category names to the cookie names assigned
	// to them by the classifier. Empty when categorization was skipped
	// or failed.
	Categorized map[string][]string `json:"categorized,omitempty"`

	// Cookies is the simplified list of captured cookies.
	Cookies []Cookie `json:"cookies,omitempty"`
}

// SiteAnalysis aggregates everything collected for one site under one
// cookie-consent scenario: cookie statistics plus one DiscoveryResult per
// target type.
type SiteAnalysis struct {
	// SiteURL is the normalized entry URL of the analyzed site.
	SiteURL string `json:"site_url"`

	// Scenario is the consent scenario applied before analysis
	// ("accept" or "reject").
	Scenario string `json:"scenario"`

	// AnalyzedAt is the timestamp when the analysis started.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// PrivacyPolicy is the root discovery result; the remaining targets
	// are seeded at its URL when it resolves.
	PrivacyPolicy DiscoveryResult `json:"privacy_policy"`

	// Targets holds the discovery result for each sub-target, keyed by
	// TargetType.String().
	Targets map[string]DiscoveryResult `json:"targets"`

	// CookieStats summarizes captured cookies for this scenario.
	CookieStats CookieStats `json:"cookie_stats"`

	// ErrorMessage records a run-level failure (e.g. the entry page was
	// unreachable). Partial results may still be present.
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewSiteAnalysis creates an empty analysis for the given site and scenario.
func NewSiteAnalysis(siteURL, scenario string) *SiteAnalysis {
	return &SiteAnalysis{
		SiteURL:    siteURL,
		Scenario:   scenario,
		AnalyzedAt: time.Now(),
		Targets:    make(map[string]DiscoveryResult),
	}
}

// SetResult attaches a discovery result under its target type key.
// The privacy policy result is stored in its dedicated field.
func (a *SiteAnalysis) SetResult(result DiscoveryResult) {
	if result.TargetType == TargetPrivacyPolicy {
		a.PrivacyPolicy = result
		return
	}
	a.Targets[result.TargetType.String()] = result
}

// FoundCount returns how many of the five targets were located.
func (a *SiteAnalysis) FoundCount() int {
	count := 0
	if a.PrivacyPolicy.Found {
		count++
	}
	for _, r := range a.Targets {
		if r.Found {
			count++
		}
	}
	return count
}
