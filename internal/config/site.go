package config

import "maps"

// SiteConfig holds site-specific configuration for a single site. This
// allows customizing consent handling and keyword matching per site.
type SiteConfig struct {
	// ConsentLabels are extra button labels to try when handling the
	// site's cookie-consent banner, in addition to the built-in ones.
	// Useful for sites with non-English or unusual banner wording.
	ConsentLabels []string `yaml:"consentLabels,omitempty"`

	// Profiles overrides the keyword profiles for this site, keyed by
	// target type name (e.g. "privacy_policy"). Each profile lists
	// keyword phrases ordered from most to least specific; unlisted
	// target types keep the built-in profile.
	Profiles map[string][]string `yaml:"profiles,omitempty"`

	// EntryPath overrides the path the analysis starts at, for sites
	// whose root URL redirects to a country picker or login wall.
	EntryPath string `yaml:"entryPath,omitempty"`

	// Skip excludes this site from batch runs without removing it from
	// the site list file.
	Skip bool `yaml:"skip,omitempty"`
}

// File represents the structure of the .gdprscan configuration file.
type File struct {
	// Sites maps site hosts to their site-specific configurations.
	// Keys should be the host without the protocol (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific site host.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[host]; ok {
		if len(siteConfig.ConsentLabels) > 0 {
			result.ConsentLabels = siteConfig.ConsentLabels
		}
		if len(siteConfig.Profiles) > 0 {
			// Merge into a fresh map. Writing through result.Profiles
			// would mutate the shared Defaults map and leak one site's
			// overrides into every later lookup.
			result.Profiles = maps.Clone(cf.Defaults.Profiles)
			if result.Profiles == nil {
				result.Profiles = make(map[string][]string)
			}
			for target, phrases := range siteConfig.Profiles {
				result.Profiles[target] = phrases
			}
		}
		if siteConfig.EntryPath != "" {
			result.EntryPath = siteConfig.EntryPath
		}
		if siteConfig.Skip {
			result.Skip = true
		}
	}

	return result
}
