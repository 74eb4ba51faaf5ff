package keyword

import (
	"strings"

	"github.com/gdprscan/gdprscan/internal/model"
)

// Profile is an ordered list of keyword phrases for one target type,
// highest priority first. Profiles are supplied by configuration and are
// read-only during a run.
type Profile []string

// DefaultProfiles returns the built-in keyword profiles per target type.
// Sites can override these through the configuration file.
func DefaultProfiles() map[model.TargetType]Profile {
	return map[model.TargetType]Profile{
		model.TargetPrivacyPolicy: {
			"privacy policy",
			"privacy notice",
			"privacy",
			"data protection",
			"datenschutz",
			"legal notice",
		},
		model.TargetCookieDeclaration: {
			"cookie policy",
			"cookie declaration",
			"cookie notice",
			"cookies",
			"cookie",
		},
		model.TargetDataRetention: {
			"data retention",
			"retention policy",
			"storage period",
			"how long we keep",
			"retention",
		},
		model.TargetDataDeletion: {
			"data deletion",
			"delete my data",
			"right to erasure",
			"manage your data",
			"your rights",
			"deletion",
		},
		model.TargetDPOContact: {
			"data protection officer",
			"dpo",
			"privacy contact",
			"data inquiries",
			"contact",
		},
	}
}

// Filter retains the links whose lower-cased href and anchor text contain
// any of the profile's phrases as a substring. An empty profile yields an
// empty result: there is no default-accept.
func (p Profile) Filter(links []model.CandidateLink) []model.CandidateLink {
	if len(p) == 0 {
		return nil
	}

	matched := make([]model.CandidateLink, 0, len(links))
	for _, link := range links {
		haystack := strings.ToLower(link.Href + " " + link.AnchorText)
		for _, phrase := range p {
			if strings.Contains(haystack, strings.ToLower(phrase)) {
				matched = append(matched, link)
				break
			}
		}
	}
	return matched
}
