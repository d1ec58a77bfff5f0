package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can use the usual
// human-readable forms ("500ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SiteConfig holds per-site overrides for a single host. This lets one
// config file cover several sites with different politeness and auth
// needs.
type SiteConfig struct {
	// Depth overrides the global crawl depth for this site. The zero
	// value means "use the global setting"; use -1 for unbounded.
	Depth *int `yaml:"depth,omitempty"`

	// Delay overrides the inter-request delay for this site.
	Delay *Duration `yaml:"delay,omitempty"`

	// UserAgent overrides the User-Agent header for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Cookie is an HTTP cookie sent when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers for requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are additional regular expressions; matching
	// links are dropped from the crawl and the report.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// File represents the structure of the .deadlinks configuration file.
type File struct {
	// Sites maps host names to their overrides (e.g. "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// SiteConfig returns the merged configuration for a host: the file's
// defaults overlaid with the host's own section, if any.
func (f *File) SiteConfig(host string) SiteConfig {
	result := f.Defaults

	site, ok := f.Sites[host]
	if !ok {
		return result
	}

	if site.Depth != nil {
		result.Depth = site.Depth
	}
	if site.Delay != nil {
		result.Delay = site.Delay
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(site.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range site.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = append(append([]string{}, result.IgnorePatterns...), site.IgnorePatterns...)
	}

	return result
}
