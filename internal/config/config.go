package config

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These match what the tool does with no
// flags: crawl the whole site without depth limit, with a short
// per-request timeout and a modest worker pool.
const (
	// DefaultTimeout bounds each fetch and each verification probe.
	// Link checking targets ordinary websites, so a few seconds is
	// enough; slow links will show up as invalid, which is usually
	// what a broken-link check wants to know anyway.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxDepth of -1 means unbounded: the crawl stops when no
	// unvisited internal links remain.
	DefaultMaxDepth = -1

	// DefaultConcurrency is the number of simultaneous in-flight
	// requests for both the crawl and the verification pass.
	DefaultConcurrency = 10

	// DefaultDelay between requests. Zero by default; sites that rate
	// limit can raise it via --delay.
	DefaultDelay = 0 * time.Second

	// DefaultBatchSize is the number of sites checked concurrently
	// when several start URLs are given.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies deadlinks in HTTP requests so site
	// operators can recognize checker traffic in their logs.
	DefaultUserAgent = "deadlinks (+https://github.com/VRehnberg/deadlinks)"

	// AppName is used for XDG directory paths.
	AppName = "deadlinks"
)

// Config holds all options for a deadlinks run. It is populated from
// CLI flags, validated once, and then shared read-only by every
// worker; nothing mutates it after Validate.
type Config struct {
	// StartURLs are the sites to check. Each must be an absolute URL
	// with scheme and host.
	StartURLs []string

	// MaxDepth bounds the crawl. Depth 0 fetches only the start page;
	// a negative value removes the limit.
	MaxDepth int

	// Timeout bounds each individual fetch and probe.
	Timeout time.Duration

	// Delay is the minimum spacing between consecutive requests.
	// Advisory load-shedding; zero disables pacing.
	Delay time.Duration

	// IgnorePatterns are regular expressions; a link whose resolved
	// URL matches any of them is dropped from the crawl frontier and
	// the report.
	IgnorePatterns []string

	// Concurrency bounds simultaneous in-flight fetches and probes.
	Concurrency int

	// BatchSize bounds how many sites are checked concurrently when
	// several start URLs are given.
	BatchSize int

	// UserAgent is sent with every request.
	UserAgent string

	// JSONReport, MarkdownReport and CSVReport select the output
	// format. At most one may be set; the default is the colored
	// human-readable report.
	JSONReport     bool
	MarkdownReport bool
	CSVReport      bool

	// ReportFile, when set, receives the report instead of stdout.
	ReportFile string

	// NoColor disables ANSI colors in the human-readable report.
	NoColor bool

	// Verbose enables debug-level logging.
	Verbose bool

	// ConfigFilePath is an explicit config file location. Empty means
	// search the usual places (current dir, XDG config dir, home).
	ConfigFilePath string

	// Sites holds per-site overrides loaded from the config file.
	Sites *File
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		Timeout:     DefaultTimeout,
		Delay:       DefaultDelay,
		Concurrency: DefaultConcurrency,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
	}
}

// Validate checks the configuration and returns the first problem
// found. It is called once after flag parsing, before any request is
// made.
func (c *Config) Validate() error {
	if len(c.StartURLs) == 0 {
		return ErrNoStartURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	formats := 0
	for _, set := range []bool{c.JSONReport, c.MarkdownReport, c.CSVReport} {
		if set {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	if _, err := CompilePatterns(c.IgnorePatterns); err != nil {
		return err
	}

	return nil
}

// CompilePatterns compiles ignore patterns, wrapping the first bad one
// in ErrInvalidIgnorePattern.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// XDGConfigDir returns the XDG config directory for deadlinks.
// On Linux: ~/.config/deadlinks
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
