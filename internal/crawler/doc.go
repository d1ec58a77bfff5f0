// Package crawler implements the site traversal stage.
//
// # Architecture
//
// The crawler walks a site breadth-first, one "wave" per depth level.
// Every URL in the current frontier is fetched concurrently, bounded by
// the configured worker count, and the wave only advances once every
// fetch of the current level has completed. Workers hand their results
// back to the orchestrating goroutine, which is the only writer of the
// shared page map, so no locks guard the crawl state.
//
// # Components
//
//   - Normalize/Resolve/IsInternal: the URL canonicalization primitives
//     shared with the rest of the program
//   - Fetcher: fetches one page and extracts raw anchor hrefs
//   - Crawler: orchestrates waves, classification, and filtering
//
// # Failure policy
//
// Per-page failures are absorbed: a page that times out or returns a
// non-200 status is recorded with zero links and the crawl continues.
// The one escalation is a crawl that discovers no links at all; the
// start URL is then re-probed directly and its error propagates, since
// an edge-less crawl almost always means the start page was down.
package crawler
