// Package model defines the data structures shared across the crawl,
// check, and report stages: the page-to-links mapping produced by the
// crawler, the per-link verification status produced by the checker,
// and the combined report consumed by the report writers.
package model
