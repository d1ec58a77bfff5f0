package model

import (
	"sort"
	"strconv"
	"time"
)

// PageLinks maps each link found on a page to whether the link is
// internal to the crawled site. Keys are normalized absolute URLs.
type PageLinks map[string]bool

// CrawlResult is the outcome of crawling one site. It maps every
// visited page to the links discovered on it.
//
// Every key in Pages is a normalized URL that was fetched exactly once.
// Pages that failed to fetch are still present with an empty PageLinks
// so they are never retried. Links dropped by ignore patterns never
// appear in the values.
type CrawlResult struct {
	// StartURL is the normalized URL the crawl started from.
	StartURL string `json:"startURL"`

	// BaseDomain is the host component of the start URL, used to
	// classify links as internal or external.
	BaseDomain string `json:"baseDomain"`

	// Pages maps each visited page to its outgoing links.
	Pages map[string]PageLinks `json:"pages"`
}

// NewCrawlResult creates an empty CrawlResult for the given start URL.
func NewCrawlResult(startURL, baseDomain string) *CrawlResult {
	return &CrawlResult{
		StartURL:   startURL,
		BaseDomain: baseDomain,
		Pages:      make(map[string]PageLinks),
	}
}

// UniqueLinks returns the deduplicated set of every link discovered on
// any page, sorted for deterministic iteration. A link referenced from
// several pages appears once.
func (c *CrawlResult) UniqueLinks() []string {
	seen := make(map[string]struct{})
	for _, links := range c.Pages {
		for link := range links {
			seen[link] = struct{}{}
		}
	}

	unique := make([]string, 0, len(seen))
	for link := range seen {
		unique = append(unique, link)
	}
	sort.Strings(unique)
	return unique
}

// TotalEdges returns the number of (page, link) relations recorded.
// Zero edges after a crawl indicates the start page was most likely
// unreachable or not HTML.
func (c *CrawlResult) TotalEdges() int {
	var n int
	for _, links := range c.Pages {
		n += len(links)
	}
	return n
}

// LinkStatus is the result of verifying a single unique link.
type LinkStatus struct {
	// Valid reports whether the link resolved to a non-error response.
	Valid bool `json:"valid"`

	// StatusCode is the final HTTP status after redirects, or zero if
	// the request never produced a response.
	StatusCode int `json:"statusCode,omitempty"`

	// Message describes a transport-level failure (DNS error, timeout,
	// refused connection). Empty when a status code was received.
	Message string `json:"message,omitempty"`
}

// Status renders the status code or, for transport failures, the error
// message. This mirrors what the report prints next to each link.
func (s LinkStatus) Status() string {
	if s.Message != "" {
		return s.Message
	}
	return strconv.Itoa(s.StatusCode)
}

// BrokenLink is one invalid (link, source page) pair in the final report.
type BrokenLink struct {
	// Link is the normalized URL that failed verification.
	Link string `json:"link" csv:"Link"`

	// Page is the page the link was found on.
	Page string `json:"page" csv:"Found On"`

	// Status is the HTTP status code or transport error description.
	Status string `json:"status" csv:"Status"`
}

// Report aggregates the crawl and check results for one start URL.
// It is populated step by step by the pipeline and handed to a report
// writer once all steps finish.
type Report struct {
	// StartURL is the URL the check was invoked with, as given.
	StartURL string `json:"startURL"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"startedAt"`

	// Elapsed is the total crawl plus check duration.
	Elapsed time.Duration `json:"elapsed"`

	// Crawl holds the page-to-links mapping. Nil if crawling failed.
	Crawl *CrawlResult `json:"crawl,omitempty"`

	// Links maps each unique discovered link to its verification status.
	Links map[string]LinkStatus `json:"links,omitempty"`

	// ErrorMessage records a fatal error (unparseable start URL,
	// empty-crawl anomaly) so batch runs can report per-site failures.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performedSteps,omitempty"`
}

// NewReport creates a Report for the given start URL.
func NewReport(startURL string) *Report {
	return &Report{
		StartURL:  startURL,
		StartedAt: time.Now(),
	}
}

// AllOK reports whether the run succeeded and every verified link is
// valid. A run that failed before verification is never OK.
func (r *Report) AllOK() bool {
	if r.ErrorMessage != "" {
		return false
	}
	for _, status := range r.Links {
		if !status.Valid {
			return false
		}
	}
	return true
}

// TotalLinks returns the number of unique links verified.
func (r *Report) TotalLinks() int {
	return len(r.Links)
}

// PagesCrawled returns the number of pages fetched during the crawl.
func (r *Report) PagesCrawled() int {
	if r.Crawl == nil {
		return 0
	}
	return len(r.Crawl.Pages)
}

// BrokenLinks returns every invalid (link, source page) pair, sorted by
// page then link so report output is stable across runs.
func (r *Report) BrokenLinks() []BrokenLink {
	if r.Crawl == nil {
		return nil
	}

	broken := make([]BrokenLink, 0)
	for page, links := range r.Crawl.Pages {
		for link := range links {
			status, ok := r.Links[link]
			if !ok || status.Valid {
				continue
			}
			broken = append(broken, BrokenLink{
				Link:   link,
				Page:   page,
				Status: status.Status(),
			})
		}
	}

	sort.Slice(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].Link < broken[j].Link
	})
	return broken
}
