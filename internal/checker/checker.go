package checker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/VRehnberg/deadlinks/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Default checker settings, overridden by the CLI configuration.
const (
	defaultProbeTimeout = 5 * time.Second
	defaultConcurrency  = 10
)

// Checker verifies that links are reachable. Each unique link gets one
// lightweight HEAD probe; the body is never downloaded.
type Checker struct {
	// client performs the HEAD requests. Redirects are followed.
	client *http.Client

	// concurrency bounds simultaneous in-flight probes.
	concurrency int

	// limiter paces probe dispatch, mirroring the crawler's delay.
	limiter *rate.Limiter

	// userAgent is sent with every probe.
	userAgent string

	// logger receives probe diagnostics.
	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithConcurrency bounds simultaneous in-flight probes.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDelay paces probes so consecutive dispatches are at least d apart.
func WithDelay(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header for probes.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for probe diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New creates a Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		client:      &http.Client{Timeout: defaultProbeTimeout},
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

// Check probes a single link. A final status below 400 makes the link
// valid; 400 and above makes it invalid with the code recorded. A
// transport-level failure (DNS, refused connection, timeout) makes it
// invalid with the error description as its status.
func (c *Checker) Check(ctx context.Context, link string) model.LinkStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return model.LinkStatus{Valid: false, Message: err.Error()}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("error probing link", "link", link, "error", err)
		return model.LinkStatus{Valid: false, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // HEAD responses carry no body

	status := model.LinkStatus{StatusCode: resp.StatusCode}
	status.Valid = resp.StatusCode < http.StatusBadRequest
	return status
}

// keyedStatus pairs a probe result with its link so workers can hand
// results back to the collecting goroutine.
type keyedStatus struct {
	link   string
	status model.LinkStatus
}

// CheckAll probes every link exactly once, bounded by the configured
// concurrency, and returns the status per link. The input is treated
// as a set: a link's in-degree never triggers repeated probing.
func (c *Checker) CheckAll(ctx context.Context, links []string) map[string]model.LinkStatus {
	results := make(map[string]model.LinkStatus, len(links))
	out := make(chan keyedStatus, len(links))

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for _, link := range links {
		if _, ok := results[link]; ok {
			// Duplicate input; each key is probed at most once.
			continue
		}
		results[link] = model.LinkStatus{}

		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					out <- keyedStatus{link: link, status: model.LinkStatus{Message: err.Error()}}
					return nil
				}
			}
			out <- keyedStatus{link: link, status: c.Check(ctx, link)}
			return nil
		})
	}
	// Probe failures are recorded per link, never returned as errors.
	_ = g.Wait() //nolint:errcheck
	close(out)

	for ks := range out {
		results[ks.link] = ks.status
	}
	return results
}
