package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/VRehnberg/deadlinks/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// UnboundedDepth disables the depth limit; the crawl then terminates
// when no unvisited internal links remain.
const UnboundedDepth = -1

// defaultConcurrency bounds simultaneous in-flight fetches when not
// configured otherwise.
const defaultConcurrency = 10

// EmptyCrawlError is returned when a crawl discovered no links at all.
// An edge-less crawl almost always means the start page itself was
// unreachable or not HTML, so the start URL is re-probed directly and
// the probe's outcome is carried here.
type EmptyCrawlError struct {
	// StartURL is the URL the crawl started from.
	StartURL string

	// StatusCode is the status the re-probe received, if any.
	StatusCode int

	// Err is the transport error from the re-probe, if any.
	Err error
}

// Error implements the error interface.
func (e *EmptyCrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no links found: start URL %s unreachable: %v", e.StartURL, e.Err)
	}
	return fmt.Sprintf("no links found: start URL %s returned status %d", e.StartURL, e.StatusCode)
}

// Unwrap returns the underlying transport error, if any.
func (e *EmptyCrawlError) Unwrap() error {
	return e.Err
}

// Crawler walks a site breadth-first and records which links each page
// carries. It is safe to reuse across calls to Crawl; all traversal
// state is local to one call.
type Crawler struct {
	// fetcher downloads pages and extracts raw hrefs.
	fetcher *Fetcher

	// maxDepth bounds the traversal. Depth 0 fetches only the start
	// URL. UnboundedDepth removes the limit.
	maxDepth int

	// ignorePatterns drop any link whose resolved URL matches one of
	// them. Patterns search anywhere in the URL string; anchor with ^
	// or $ for exact positions.
	ignorePatterns []*regexp.Regexp

	// concurrency bounds simultaneous in-flight fetches within a wave.
	concurrency int

	// limiter paces request dispatch. Nil means no delay.
	limiter *rate.Limiter

	// logger receives crawl diagnostics.
	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth bounds the traversal depth. Depth 0 fetches only the
// start URL, depth 1 adds the pages it links to, and so on. A negative
// value removes the limit.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithIgnorePatterns drops links whose resolved URL matches any of the
// given expressions. The match is a search, not anchored.
func WithIgnorePatterns(patterns []*regexp.Regexp) Option {
	return func(c *Crawler) {
		c.ignorePatterns = patterns
	}
}

// WithConcurrency bounds simultaneous in-flight fetches.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDelay paces requests so consecutive dispatches are at least d
// apart. This is advisory load-shedding, not a correctness knob.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithLogger sets the logger for crawl diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler that fetches pages with the given Fetcher.
func New(fetcher *Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:     fetcher,
		maxDepth:    UnboundedDepth,
		concurrency: defaultConcurrency,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// pageResult is what one wave worker hands back to the orchestrator.
type pageResult struct {
	// page is the normalized effective URL of the fetched page.
	page string

	// links maps each kept target URL to its internal classification.
	// Empty when the fetch failed.
	links model.PageLinks
}

// Crawl traverses the site starting at startURL and returns the
// page-to-links mapping. The start URL must be absolute with a scheme
// and host; anything else is a configuration error and fails the run.
//
// Traversal is breadth-first, one wave per depth level. A wave fetches
// every frontier URL concurrently and blocks until all of them finish,
// because the next frontier depends on the complete wave result. Pages
// that fail to fetch stay in the visited set with zero links so they
// are never retried.
func (c *Crawler) Crawl(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL %q: %w", startURL, err)
	}
	if start.Scheme == "" || start.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q: scheme and host are required", startURL)
	}

	normStart, err := Normalize(startURL)
	if err != nil {
		return nil, err
	}

	baseDomain := start.Host
	result := model.NewCrawlResult(normStart, baseDomain)
	visited := make(map[string]struct{})
	frontier := []string{normStart}

	for depth := 0; len(frontier) > 0; depth++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		c.logger.Debug("crawling wave", "depth", depth, "pages", len(frontier))
		waveResults := c.crawlWave(ctx, frontier, baseDomain)

		// The orchestrator is the only writer of the shared maps; the
		// wave results are committed here after the barrier.
		for _, u := range frontier {
			visited[u] = struct{}{}
		}
		for _, pr := range waveResults {
			visited[pr.page] = struct{}{}
			if existing, ok := result.Pages[pr.page]; ok {
				// Two frontier URLs redirected to the same effective
				// page; merge rather than overwrite.
				for link, internal := range pr.links {
					existing[link] = internal
				}
				continue
			}
			result.Pages[pr.page] = pr.links
		}

		frontier = nextFrontier(waveResults, visited)

		if c.maxDepth >= 0 && depth+1 > c.maxDepth {
			break
		}
	}

	if result.TotalEdges() == 0 {
		if err := c.probeStart(ctx, normStart); err != nil {
			return result, err
		}
		c.logger.Warn("no links found, check the start URL", "url", normStart)
	}

	return result, nil
}

// crawlWave fetches every frontier URL concurrently, bounded by the
// configured concurrency, and returns once all of them completed.
func (c *Crawler) crawlWave(ctx context.Context, frontier []string, baseDomain string) []pageResult {
	results := make(chan pageResult, len(frontier))

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for _, pageURL := range frontier {
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					results <- pageResult{page: pageURL, links: make(model.PageLinks)}
					return nil
				}
			}
			results <- c.crawlPage(ctx, pageURL, baseDomain)
			return nil
		})
	}
	// Workers never return errors; failures are absorbed per page.
	_ = g.Wait() //nolint:errcheck
	close(results)

	collected := make([]pageResult, 0, len(frontier))
	for pr := range results {
		collected = append(collected, pr)
	}
	return collected
}

// crawlPage fetches one page and resolves, filters, and classifies its
// links. Fetch failures yield a result with zero links.
func (c *Crawler) crawlPage(ctx context.Context, pageURL, baseDomain string) pageResult {
	fetched := c.fetcher.Fetch(ctx, pageURL)

	page, err := Normalize(fetched.EffectiveURL)
	if err != nil {
		page = pageURL
	}
	links := make(model.PageLinks)
	if !fetched.OK {
		return pageResult{page: page, links: links}
	}

	base, err := url.Parse(fetched.EffectiveURL)
	if err != nil {
		return pageResult{page: page, links: links}
	}

	for _, href := range fetched.Hrefs {
		resolved, err := Resolve(base, href)
		if err != nil {
			c.logger.Debug("dropping malformed href", "page", page, "href", href, "error", err)
			continue
		}

		target, err := Normalize(resolved.String())
		if err != nil {
			c.logger.Debug("dropping malformed link", "page", page, "link", resolved.String(), "error", err)
			continue
		}

		if c.ignored(target) {
			c.logger.Debug("ignoring link", "page", page, "link", target)
			continue
		}

		links[target] = IsInternal(resolved, baseDomain)
	}

	return pageResult{page: page, links: links}
}

// ignored reports whether any ignore pattern occurs in the URL.
func (c *Crawler) ignored(link string) bool {
	for _, pattern := range c.ignorePatterns {
		if pattern.MatchString(link) {
			return true
		}
	}
	return false
}

// nextFrontier collects the internal targets discovered this wave that
// have not been visited, sorted for deterministic dispatch order.
// External links are recorded as edges but never scheduled.
func nextFrontier(waveResults []pageResult, visited map[string]struct{}) []string {
	next := make(map[string]struct{})
	for _, pr := range waveResults {
		for link, internal := range pr.links {
			if !internal {
				continue
			}
			if _, ok := visited[link]; ok {
				continue
			}
			next[link] = struct{}{}
		}
	}

	frontier := make([]string, 0, len(next))
	for link := range next {
		frontier = append(frontier, link)
	}
	sort.Strings(frontier)
	return frontier
}

// probeStart re-fetches the start URL outside the worker pool so an
// entirely edge-less crawl surfaces the start page's own error instead
// of a misleading "all links ok".
func (c *Crawler) probeStart(ctx context.Context, startURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, startURL, nil)
	if err != nil {
		return &EmptyCrawlError{StartURL: startURL, Err: err}
	}
	c.fetcher.setHeaders(req)

	resp, err := c.fetcher.client.Do(req)
	if err != nil {
		return &EmptyCrawlError{StartURL: startURL, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // Response body close error is not actionable

	if resp.StatusCode >= http.StatusBadRequest {
		return &EmptyCrawlError{StartURL: startURL, StatusCode: resp.StatusCode}
	}
	return nil
}
