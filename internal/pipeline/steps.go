package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/VRehnberg/deadlinks/internal/checker"
	"github.com/VRehnberg/deadlinks/internal/crawler"
	"github.com/VRehnberg/deadlinks/internal/model"
)

// ErrNoCrawlResult is returned by the check step when it runs without
// a preceding successful crawl.
var ErrNoCrawlResult = errors.New("no crawl result to verify")

// CrawlStep walks the site breadth-first from the start URL and
// records the page-to-links mapping on the report. A crawl failure is
// critical: it leaves nothing for later steps to verify.
type CrawlStep struct {
	crawler *crawler.Crawler
	logger  *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step using the given crawler.
func NewCrawlStep(c *crawler.Crawler, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		crawler: c,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl and stores the result on the report.
func (s *CrawlStep) Do(ctx context.Context, report *model.Report) error {
	result, err := s.crawler.Crawl(ctx, report.StartURL)
	if err != nil {
		return err
	}

	report.Crawl = result

	s.logger.Debug("crawl finished",
		"url", report.StartURL,
		"pages", len(result.Pages),
		"links", len(result.UniqueLinks()),
	)

	return nil
}

// CheckStep verifies every unique link discovered by the crawl and
// records the per-link status on the report.
type CheckStep struct {
	checker *checker.Checker
	logger  *slog.Logger
}

// CheckStepOption configures a CheckStep.
type CheckStepOption func(*CheckStep)

// WithCheckLogger sets a custom logger for the check step.
func WithCheckLogger(logger *slog.Logger) CheckStepOption {
	return func(s *CheckStep) {
		s.logger = logger
	}
}

// NewCheckStep creates a verification step using the given checker.
func NewCheckStep(c *checker.Checker, opts ...CheckStepOption) *CheckStep {
	s := &CheckStep{
		checker: c,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CheckStep) Name() string {
	return "check"
}

// Do verifies every discovered link and stores the statuses on the
// report.
func (s *CheckStep) Do(ctx context.Context, report *model.Report) error {
	if report.Crawl == nil {
		return ErrNoCrawlResult
	}

	links := report.Crawl.UniqueLinks()
	report.Links = s.checker.CheckAll(ctx, links)

	var broken int
	for _, status := range report.Links {
		if !status.Valid {
			broken++
		}
	}
	s.logger.Debug("check finished",
		"url", report.StartURL,
		"links", len(links),
		"broken", broken,
	)

	return nil
}

// DefaultPipeline builds the standard crawl-then-check pipeline for
// one site. A nil logger falls back to slog.Default().
func DefaultPipeline(c *crawler.Crawler, ch *checker.Checker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := New(WithLogger(logger))
	p.AddSteps(
		NewCrawlStep(c, WithCrawlLogger(logger)),
		NewCheckStep(ch, WithCheckLogger(logger)),
	)
	return p
}
