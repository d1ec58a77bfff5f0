package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/VRehnberg/deadlinks/internal/model"
)

// BatchProcessor checks several sites concurrently. It uses errgroup
// to bound concurrency, and a pipeline factory so every site gets a
// fresh pipeline with its own per-site settings.
type BatchProcessor struct {
	// pipelineFactory creates a pipeline for the given start URL.
	// Sites can have different crawl settings from the config file, so
	// the factory receives the URL being checked.
	pipelineFactory func(startURL string) *Pipeline

	// concurrency is the maximum number of sites checked at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed reports, ordered as the input.
	results []*model.Report
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrently checked
// sites. Default is 4.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. The factory is called
// once per start URL so pipeline state never leaks between sites.
func NewBatchProcessor(pipelineFactory func(startURL string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch checks multiple sites concurrently, respecting the
// concurrency limit and context cancellation.
//
// Per-site failures are recorded in the site's report and do not abort
// the other sites. Returns all reports in input order; the error is
// non-nil only when the batch itself was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, startURLs []string) ([]*model.Report, error) {
	bp.logger.Debug("starting batch",
		"sites", len(startURLs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.Report, len(startURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, startURL := range startURLs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewReport(startURL)
			p := bp.pipelineFactory(startURL)
			if err := p.Execute(ctx, report); err != nil {
				bp.logger.Warn("site check failed",
					"url", startURL,
					"error", err,
				)
			}

			// The report carries any failure, so the other sites keep
			// running.
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch complete",
		"sites", len(startURLs),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback checks multiple sites and calls the
// callback for each completed site, streaming results as they finish.
//
// The callback receives the report and the index of the start URL in
// the input slice. It runs on the goroutine that finished the check,
// so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	startURLs []string,
	callback func(report *model.Report, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, startURL := range startURLs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewReport(startURL)
			p := bp.pipelineFactory(startURL)
			_ = p.Execute(ctx, report) //nolint:errcheck // Error is stored in report

			callback(report, i)

			return nil
		})
	}

	return g.Wait()
}
