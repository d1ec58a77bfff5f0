// Package checker implements the link verification stage. The
// deduplicated universe of links discovered by the crawl gets one
// HEAD probe each, dispatched by a bounded worker pool; results are
// funneled back to the orchestrator so no shared map is written
// concurrently.
package checker
