package config

// SiteConfig holds per-site overrides for a single documentation host.
// The config file lets users keep site quirks (extra chrome selectors,
// unusual login prompts, aggressive exclusion patterns) out of their shell
// history.
type SiteConfig struct {
	// ExcludePattern overrides the global URL exclusion pattern.
	ExcludePattern string `yaml:"excludePattern,omitempty"`

	// MaxDepth overrides the global crawl depth. Zero keeps the global value.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// LoginMarkers overrides the substrings used to detect login walls.
	LoginMarkers []string `yaml:"loginMarkers,omitempty"`

	// StripSelectors are CSS selectors removed before content extraction.
	StripSelectors []string `yaml:"stripSelectors,omitempty"`

	// ContentSelector restricts extraction to the first matching element.
	ContentSelector string `yaml:"contentSelector,omitempty"`
}

// File represents the structure of the .docmirror configuration file.
type File struct {
	// Sites maps documentation hosts to their site-specific configuration.
	// Keys are bare hosts (e.g., "docs.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to every host unless
	// overridden in the site-specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a host: defaults with
// non-zero site-specific values layered on top.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.ExcludePattern != "" {
			result.ExcludePattern = siteConfig.ExcludePattern
		}
		if siteConfig.MaxDepth != 0 {
			result.MaxDepth = siteConfig.MaxDepth
		}
		if len(siteConfig.LoginMarkers) > 0 {
			result.LoginMarkers = siteConfig.LoginMarkers
		}
		if len(siteConfig.StripSelectors) > 0 {
			result.StripSelectors = siteConfig.StripSelectors
		}
		if siteConfig.ContentSelector != "" {
			result.ContentSelector = siteConfig.ContentSelector
		}
	}

	return result
}

// Apply copies the site configuration's non-zero values into the Config.
// Flag-provided values win: Apply only fills fields the user left at their
// defaults.
func (c *Config) Apply(site SiteConfig) {
	if c.ExcludePattern == "" && site.ExcludePattern != "" {
		c.ExcludePattern = site.ExcludePattern
	}
	if c.MaxDepth == 0 && site.MaxDepth > 0 {
		c.MaxDepth = site.MaxDepth
	}
	if len(site.LoginMarkers) > 0 {
		c.LoginMarkers = site.LoginMarkers
	}
	if len(site.StripSelectors) > 0 {
		c.StripSelectors = site.StripSelectors
	}
	if c.ContentSelector == "" && site.ContentSelector != "" {
		c.ContentSelector = site.ContentSelector
	}
}
