package crawler

import (
	"net/url"
	"testing"
)

// TestNormalize tests URL canonicalization.
func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("strips query and fragment", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			in   string
			want string
		}{
			{"https://example.com/page/#section", "https://example.com/page/"},
			{"https://example.com/page?foo=bar", "https://example.com/page"},
			{"https://example.com/page?foo=bar&baz=1#frag", "https://example.com/page"},
			{"http://example.com", "http://example.com"},
			{"http://example.com/a/b.html", "http://example.com/a/b.html"},
			{"mailto:someone@example.com", "mailto:someone@example.com"},
		}

		for _, tt := range tests {
			got, err := Normalize(tt.in)
			if err != nil {
				t.Errorf("Normalize(%q) returned error: %v", tt.in, err)
				continue
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		inputs := []string{
			"https://example.com/page/#section",
			"https://example.com/search?q=go",
			"http://example.com/",
			"/relative/path?x=1",
		}
		for _, in := range inputs {
			once, err := Normalize(in)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", in, err)
			}
			twice, err := Normalize(once)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", once, err)
			}
			if once != twice {
				t.Errorf("normalization not idempotent for %q: %q != %q", in, once, twice)
			}
		}
	})

	t.Run("rejects unparseable input", func(t *testing.T) {
		t.Parallel()

		if _, err := Normalize("http://example.com/%zz\x7f"); err == nil {
			t.Error("expected error for unparseable URL")
		}
	})
}

// TestResolve tests reference resolution against a page URL.
func TestResolve(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/dir/page.html")
	if err != nil {
		t.Fatalf("failed to parse base URL: %v", err)
	}

	tests := []struct {
		name string
		href string
		want string
	}{
		{"relative path", "other.html", "https://example.com/dir/other.html"},
		{"absolute path", "/top", "https://example.com/top"},
		{"scheme relative", "//cdn.example.net/x.css", "https://cdn.example.net/x.css"},
		{"fragment only", "#section", "https://example.com/dir/page.html#section"},
		{"absolute URL", "http://other.com/a", "http://other.com/a"},
		{"parent traversal", "../up", "https://example.com/up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(base, tt.href)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.href, err)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.href, got.String(), tt.want)
			}
		})
	}
}

// TestIsInternal tests internal/external link classification.
func TestIsInternal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		link string
		base string
		want bool
	}{
		{"/path", "example.com", true},
		{"http://example.com/path", "example.com", true},
		{"http://other.com/path", "example.com", false},
		{"http://sub.example.com/path", "example.com", false},
		{"mailto:a@b.com", "example.com", true},
		{"http://EXAMPLE.com/path", "example.com", true},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.link)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", tt.link, err)
		}
		if got := IsInternal(u, tt.base); got != tt.want {
			t.Errorf("IsInternal(%q, %q) = %v, want %v", tt.link, tt.base, got, tt.want)
		}
	}
}
