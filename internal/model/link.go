package model

// CandidateLink is one anchor extracted from a page, scoped to the analyzed
// site and deduplicated by resolved URL. It is ephemeral: candidate sets
// live only for a single discovery stage invocation.
type CandidateLink struct {
	// Href is the absolute, resolved URL of the anchor.
	Href string `json:"href"`

	// AnchorText is the visible text of the first anchor seen for this URL.
	AnchorText string `json:"anchor_text"`
}
