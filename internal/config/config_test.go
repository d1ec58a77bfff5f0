package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	c := New()
	c.StartURLs = []string{"https://example.com"}
	return c
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "no start URL",
			mutate:  func(c *Config) { c.StartURLs = nil },
			wantErr: ErrNoStartURL,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Delay = -time.Second },
			wantErr: ErrInvalidDelay,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name: "conflicting formats",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.CSVReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "bad ignore pattern",
			mutate:  func(c *Config) { c.IgnorePatterns = []string{"["} },
			wantErr: ErrInvalidIgnorePattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_singleFormatAllowed(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"json", "markdown", "csv"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			switch name {
			case "json":
				c.JSONReport = true
			case "markdown":
				c.MarkdownReport = true
			case "csv":
				c.CSVReport = true
			}

			if err := c.Validate(); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestCompilePatterns(t *testing.T) {
	t.Parallel()

	t.Run("valid patterns", func(t *testing.T) {
		t.Parallel()

		compiled, err := CompilePatterns([]string{`^mailto:`, `\.pdf$`})
		if err != nil {
			t.Fatalf("CompilePatterns() error = %v", err)
		}
		if len(compiled) != 2 {
			t.Errorf("got %d patterns, want 2", len(compiled))
		}
		if !compiled[0].MatchString("mailto:someone@example.com") {
			t.Error("expected first pattern to match mailto link")
		}
	})

	t.Run("invalid pattern names the offender", func(t *testing.T) {
		t.Parallel()

		_, err := CompilePatterns([]string{`^ok$`, `(unclosed`})
		if err == nil {
			t.Fatal("expected error for invalid pattern")
		}

		var patternErr *PatternError
		if !errors.As(err, &patternErr) {
			t.Fatalf("error type = %T, want *PatternError", err)
		}
		if patternErr.Pattern != "(unclosed" {
			t.Errorf("Pattern = %q, want %q", patternErr.Pattern, "(unclosed")
		}
		if !errors.Is(err, ErrInvalidIgnorePattern) {
			t.Error("expected errors.Is to match ErrInvalidIgnorePattern")
		}
	})
}

func TestNew_defaults(t *testing.T) {
	t.Parallel()

	c := New()

	if c.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", c.MaxDepth, DefaultMaxDepth)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
	if c.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", c.Concurrency, DefaultConcurrency)
	}
	if c.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", c.BatchSize, DefaultBatchSize)
	}
	if c.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", c.UserAgent, DefaultUserAgent)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("parses sites and defaults", func(t *testing.T) {
		t.Parallel()

		content := `defaults:
  delay: 500ms
  ignorePatterns:
    - "^mailto:"
sites:
  example.com:
    depth: 2
    userAgent: custom-agent
    cookie: "session=abc"
    headers:
      Authorization: "Bearer token"
`
		path := filepath.Join(t.TempDir(), "config.yml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if f.Defaults.Delay == nil || f.Defaults.Delay.Std() != 500*time.Millisecond {
			t.Errorf("Defaults.Delay = %v, want 500ms", f.Defaults.Delay)
		}

		site, ok := f.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com site entry")
		}
		if site.Depth == nil || *site.Depth != 2 {
			t.Errorf("Depth = %v, want 2", site.Depth)
		}
		if site.UserAgent != "custom-agent" {
			t.Errorf("UserAgent = %q, want %q", site.UserAgent, "custom-agent")
		}
		if site.Cookie != "session=abc" {
			t.Errorf("Cookie = %q, want %q", site.Cookie, "session=abc")
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Errorf("Headers = %v, want Authorization header", site.Headers)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadFile() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yml")
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadFile(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

func TestFile_SiteConfig(t *testing.T) {
	t.Parallel()

	depth := 3
	delay := Duration(200 * time.Millisecond)

	f := &File{
		Defaults: SiteConfig{
			Delay:          &delay,
			UserAgent:      "default-agent",
			Headers:        map[string]string{"X-Shared": "yes"},
			IgnorePatterns: []string{"^mailto:"},
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Depth:          &depth,
				UserAgent:      "site-agent",
				Headers:        map[string]string{"Authorization": "Bearer token"},
				IgnorePatterns: []string{`\.pdf$`},
			},
		},
	}

	t.Run("known host merges over defaults", func(t *testing.T) {
		t.Parallel()

		got := f.SiteConfig("example.com")

		if got.Depth == nil || *got.Depth != 3 {
			t.Errorf("Depth = %v, want 3", got.Depth)
		}
		if got.Delay == nil || *got.Delay != delay {
			t.Errorf("Delay = %v, want %v", got.Delay, delay)
		}
		if got.UserAgent != "site-agent" {
			t.Errorf("UserAgent = %q, want %q", got.UserAgent, "site-agent")
		}
		if got.Headers["X-Shared"] != "yes" || got.Headers["Authorization"] != "Bearer token" {
			t.Errorf("Headers = %v, want both default and site headers", got.Headers)
		}
		if len(got.IgnorePatterns) != 2 {
			t.Errorf("IgnorePatterns = %v, want defaults plus site patterns", got.IgnorePatterns)
		}
	})

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		got := f.SiteConfig("other.org")

		if got.UserAgent != "default-agent" {
			t.Errorf("UserAgent = %q, want %q", got.UserAgent, "default-agent")
		}
		if got.Depth != nil {
			t.Errorf("Depth = %v, want nil", got.Depth)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yml")
		if err := os.WriteFile(path, []byte("sites: {}"), 0o600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yml")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})

	t.Run("current directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: {}"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		if got == "" {
			t.Fatal("FindConfigFile() = empty, want path in current directory")
		}
		if filepath.Base(got) != DefaultConfigFile {
			t.Errorf("FindConfigFile() = %q, want %s in current directory", got, DefaultConfigFile)
		}
	})
}
