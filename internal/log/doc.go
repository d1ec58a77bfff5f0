// Package log provides logging with automatic masking of credentials,
// built on top of the standard slog package.
//
// Site configurations can carry cookies and authorization headers used
// to crawl access-restricted pages. Those values flow through request
// setup code and would otherwise leak into debug logs. The
// MaskingHandler intercepts log records and replaces attribute values
// that look like credentials before the underlying handler formats
// them.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("fetching page",
//	    "url", "https://example.com/",
//	    "cookie", "session=abc123", // masked in output
//	)
//	slog.SetDefault(logger)
package log
