package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL to its comparable form: the query
// string and fragment are dropped so pagination and anchor variants of
// the same resource collapse to one identity.
//
// Normalization is idempotent: normalizing an already normalized URL
// returns it unchanged. An unparseable input returns an error; callers
// treat such links as non-matchable and drop them rather than failing
// the crawl.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("malformed URL %q: %w", raw, err)
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// Resolve resolves a possibly-relative href against the page it was
// found on, per standard URI reference resolution. Relative paths,
// absolute paths, scheme-relative and fragment-only references all
// resolve the way a browser would.
func Resolve(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("malformed href %q: %w", href, err)
	}
	return base.ResolveReference(ref), nil
}

// IsInternal reports whether a URL belongs to the crawled site. A link
// is internal when its host is empty (relative-derived or same-document
// forms such as mailto:) or exactly equals the crawl's base domain.
// Subdomains do not match.
func IsInternal(u *url.URL, baseDomain string) bool {
	return u.Host == "" || strings.EqualFold(u.Host, baseDomain)
}
