package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/VRehnberg/deadlinks/internal/checker"
	"github.com/VRehnberg/deadlinks/internal/config"
	"github.com/VRehnberg/deadlinks/internal/crawler"
	"github.com/VRehnberg/deadlinks/internal/log"
	"github.com/VRehnberg/deadlinks/internal/model"
	"github.com/VRehnberg/deadlinks/internal/pipeline"
	"github.com/VRehnberg/deadlinks/internal/report"
)

// ErrBrokenLinks signals a completed check that found invalid links.
// The report already lists them, so Execute exits 1 without printing
// the error.
var ErrBrokenLinks = errors.New("broken links found")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [url...]",
		Short: "Crawl websites and verify every link",
		Long: `Check crawls each given site breadth-first, collects all links found
on its pages, and verifies every unique link with an HTTP request.
External links are verified but not crawled.

Examples:
  # Check a single site
  deadlinks check https://example.com

  # Check several sites concurrently
  deadlinks check https://example.com https://example.org

  # Limit crawl depth and skip mail links
  deadlinks check --max-depth 2 --ignore '^mailto:' https://example.com

  # Write a Markdown report for a CI job summary
  deadlinks check --markdown --output report.md https://example.com

Configuration file (.deadlinks) example:
  defaults:
    delay: 500ms
  sites:
    example.com:
      depth: 3
      cookie: "session=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth (0 checks only the start page, negative means unbounded)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum delay between requests")
	cmd.Flags().StringArrayP("ignore", "i", nil,
		"Regular expression for links to skip (repeatable)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent requests per site")

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites checked concurrently")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .deadlinks in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().Bool("csv", false,
		"Output broken links as CSV")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-color", false,
		"Disable colored output")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	if cfg.NoColor {
		color.NoColor = true
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCheck(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.New()

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.IgnorePatterns, err = cmd.Flags().GetStringArray("ignore")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user named a config file explicitly, a missing file is an
	// error. Without an explicit path a missing file just means no
	// per-site overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Sites, err = config.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Sites = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.CSVReport, err = cmd.Flags().GetBool("csv")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.NoColor, err = cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.StartURLs = args

	return cfg, nil
}

// runCheck executes the check over all start URLs and decides the exit
// status.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Catch bad patterns from the config file before any request is
	// made; flag patterns were already checked by Validate.
	for host, site := range cfg.Sites.Sites {
		if _, err := config.CompilePatterns(site.IgnorePatterns); err != nil {
			return fmt.Errorf("site %s: %w", host, err)
		}
	}

	logger.Debug("starting check",
		"sites", cfg.StartURLs,
		"maxDepth", cfg.MaxDepth,
		"batchSize", cfg.BatchSize,
	)

	var allOK bool
	var err error
	if len(cfg.StartURLs) > 1 && cfg.BatchSize > 1 {
		allOK, err = runBatchCheck(ctx, cfg, logger)
	} else {
		allOK, err = runSequentialCheck(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}

	if !allOK {
		return ErrBrokenLinks
	}
	return nil
}

// runSequentialCheck checks sites one at a time.
func runSequentialCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bool, error) {
	allOK := true
	for _, target := range cfg.StartURLs {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		rep := model.NewReport(target)
		p := buildPipeline(cfg, target, logger)

		if err := p.Execute(ctx, rep); err != nil {
			logger.Error("check failed", "url", target, "error", err)
		}

		if err := outputReport(cfg, rep); err != nil {
			return false, err
		}

		if !rep.AllOK() {
			allOK = false
		}
	}

	return allOK, nil
}

// runBatchCheck checks several sites concurrently, streaming each
// report as its site finishes.
func runBatchCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bool, error) {
	fmt.Printf("Checking %d sites (concurrency: %d)...\n",
		len(cfg.StartURLs), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(startURL string) *pipeline.Pipeline {
			return buildPipeline(cfg, startURL, logger)
		},
		pipeline.WithBatchConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	allOK := true
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.StartURLs, func(rep *model.Report, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] %s\n", index+1, len(cfg.StartURLs), rep.StartURL)

		if err := outputReport(cfg, rep); err != nil {
			logger.Error("report failed", "url", rep.StartURL, "error", err)
			allOK = false
			return
		}

		if !rep.AllOK() {
			allOK = false
		}
	})
	if err != nil {
		return false, err
	}

	fmt.Printf("\nChecked %d sites in %s\n",
		len(cfg.StartURLs), time.Since(startTime).Round(time.Millisecond))

	return allOK, nil
}

// buildPipeline assembles the crawl-then-check pipeline for one start
// URL, applying per-site overrides from the config file.
func buildPipeline(cfg *config.Config, target string, logger *slog.Logger) *pipeline.Pipeline {
	siteCfg := siteConfigFor(cfg, target)

	userAgent := cfg.UserAgent
	if siteCfg.UserAgent != "" {
		userAgent = siteCfg.UserAgent
	}

	depth := cfg.MaxDepth
	if siteCfg.Depth != nil {
		depth = *siteCfg.Depth
	}

	delay := cfg.Delay
	if siteCfg.Delay != nil {
		delay = siteCfg.Delay.Std()
	}

	// Flag patterns were validated up front, site patterns in
	// runCheck, so compilation cannot fail here.
	patterns, err := config.CompilePatterns(append(append([]string{}, cfg.IgnorePatterns...), siteCfg.IgnorePatterns...))
	if err != nil {
		logger.Warn("skipping invalid ignore patterns", "error", err)
	}

	fetcher := crawler.NewFetcher(
		crawler.WithFetchTimeout(cfg.Timeout),
		crawler.WithUserAgent(userAgent),
		crawler.WithHeaders(siteCfg.Headers),
		crawler.WithCookie(siteCfg.Cookie),
		crawler.WithFetchLogger(logger),
	)

	c := crawler.New(fetcher,
		crawler.WithMaxDepth(depth),
		crawler.WithIgnorePatterns(patterns),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithDelay(delay),
		crawler.WithLogger(logger),
	)

	ch := checker.New(
		checker.WithTimeout(cfg.Timeout),
		checker.WithConcurrency(cfg.Concurrency),
		checker.WithDelay(delay),
		checker.WithUserAgent(userAgent),
		checker.WithLogger(logger),
	)

	return pipeline.DefaultPipeline(c, ch, logger)
}

// siteConfigFor returns the merged per-site configuration for the host
// of the given start URL.
func siteConfigFor(cfg *config.Config, target string) config.SiteConfig {
	if cfg.Sites == nil {
		return config.SiteConfig{}
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return cfg.Sites.Defaults
	}

	return cfg.Sites.SiteConfig(u.Host)
}

// outputReport writes the report in the requested format. With
// --output the formatted report goes to the file and a human-readable
// summary still prints to the terminal.
func outputReport(cfg *config.Config, rep *model.Report) error {
	if cfg.ReportFile == "" {
		_, err := newWriter(cfg, os.Stdout, cfg.NoColor).Write(rep)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	// Files never get ANSI colors.
	mw := report.NewMultiWriter(
		newWriter(cfg, f, true),
		report.NewSimpleWriter(os.Stdout, report.WithNoColor(cfg.NoColor)),
	)
	_, err = mw.Write(rep)
	return err
}

// newWriter picks the report writer for the selected format.
func newWriter(cfg *config.Config, out io.Writer, noColor bool) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	case cfg.CSVReport:
		return report.NewCSVWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithNoColor(noColor))
	}
}
