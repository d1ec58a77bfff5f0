// Package pipeline orchestrates the check of a site as a sequence of
// steps sharing one report: crawl the site, then verify every
// discovered link. The BatchProcessor runs the same pipeline over
// several start URLs concurrently.
package pipeline
