package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Default fetcher settings. Conservative values that work for most
// sites; the CLI overrides them from its configuration.
const (
	// defaultFetchTimeout bounds a single page download.
	defaultFetchTimeout = 5 * time.Second

	// defaultMaxBodySize caps how much of a response body is read.
	// 5MB is plenty for HTML while bounding memory per worker.
	defaultMaxBodySize = 5 * 1024 * 1024
)

// FetchResult is the outcome of downloading a single page.
type FetchResult struct {
	// EffectiveURL is the final URL after following redirects. When it
	// differs from the requested URL, the effective URL becomes the
	// page's identity so redirected variants merge to one node.
	EffectiveURL string

	// Hrefs holds the raw, unresolved href attribute of every anchor on
	// the page, deduplicated.
	Hrefs []string

	// OK reports whether the page was retrieved with status 200.
	// On transport errors and non-200 statuses the failure is absorbed:
	// the page simply contributes no links.
	OK bool
}

// Fetcher retrieves pages and extracts their anchor hrefs.
type Fetcher struct {
	// client performs the GET requests. Redirects are followed.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// headers are extra request headers, e.g. site-specific auth.
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string

	// maxBodySize limits how many bytes of a response body are parsed.
	maxBodySize int64

	// logger receives fetch diagnostics.
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchTimeout sets the per-request timeout.
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.client.Timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders sets extra headers to send with every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithCookie sets a Cookie header to send with every request.
func WithCookie(cookie string) FetcherOption {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithMaxBodySize limits the response body bytes read per page.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithFetchLogger sets the logger for fetch diagnostics.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: defaultFetchTimeout},
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Fetch downloads pageURL with a single GET and extracts every anchor
// href. Transport errors and non-200 statuses are logged and absorbed;
// the returned result then carries OK=false and no hrefs. The effective
// URL is always filled in so redirect targets keep their identity.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) FetchResult {
	result := FetchResult{EffectiveURL: pageURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		f.logger.Warn("error building request", "url", pageURL, "error", err)
		return result
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("error fetching page", "url", pageURL, "error", err)
		return result
	}
	defer resp.Body.Close() //nolint:errcheck // Response body close error is not actionable

	// The request URL after the redirect chain is the page's identity.
	if effective := resp.Request.URL.String(); effective != pageURL {
		f.logger.Warn("link not pointing to endpoint",
			"requested", pageURL,
			"effective", effective,
		)
		result.EffectiveURL = effective
	}

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("failed to retrieve page",
			"url", result.EffectiveURL,
			"status", resp.StatusCode,
		)
		return result
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		// Not a page; nothing to extract but the fetch itself succeeded.
		result.OK = true
		return result
	}

	hrefs, err := extractHrefs(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		f.logger.Warn("error parsing page", "url", result.EffectiveURL, "error", err)
		return result
	}

	result.Hrefs = hrefs
	result.OK = true
	return result
}

// setHeaders applies the configured user agent, cookie, and extra
// headers to a request.
func (f *Fetcher) setHeaders(req *http.Request) {
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
}

// extractHrefs walks the parsed HTML tree and collects the href
// attribute of every anchor element, deduplicated and sorted.
func extractHrefs(body io.Reader) ([]string, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				seen[href] = struct{}{}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	hrefs := make([]string, 0, len(seen))
	for href := range seen {
		hrefs = append(hrefs, href)
	}
	sort.Strings(hrefs)
	return hrefs, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
