package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
)

// htmlHandler serves a static HTML body.
func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}
}

// TestCrawlerTraversal tests the breadth-first crawl over a small site.
func TestCrawlerTraversal(t *testing.T) {
	t.Parallel()

	t.Run("records classified edges and crawls only internal links", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/", htmlHandler(
			`<a href="/ok">ok</a> <a href="http://ext.example/x">ext</a>`))
		mux.HandleFunc("/ok", htmlHandler(`no links here`))

		c := New(NewFetcher(), WithConcurrency(2))
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if len(result.Pages) != 2 {
			t.Fatalf("expected 2 pages, got %d: %v", len(result.Pages), result.Pages)
		}

		startLinks, ok := result.Pages[server.URL+"/"]
		if !ok {
			t.Fatal("start page missing from result")
		}
		if internal, ok := startLinks[server.URL+"/ok"]; !ok || !internal {
			t.Errorf("expected %s/ok as internal link, got %v", server.URL, startLinks)
		}
		if internal, ok := startLinks["http://ext.example/x"]; !ok || internal {
			t.Errorf("expected http://ext.example/x as external link, got %v", startLinks)
		}

		// The external target is an edge, never a page.
		if _, ok := result.Pages["http://ext.example/x"]; ok {
			t.Error("external link must not be crawled")
		}

		unique := result.UniqueLinks()
		if len(unique) != 2 {
			t.Errorf("expected 2 unique links, got %d: %v", len(unique), unique)
		}
	})

	t.Run("max depth zero fetches only the start URL", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		mux := http.NewServeMux()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			mux.ServeHTTP(w, r)
		}))
		defer server.Close()

		mux.HandleFunc("/", htmlHandler(
			`<a href="/a">a</a> <a href="/b">b</a> <a href="/c">c</a>`))

		c := New(NewFetcher(), WithMaxDepth(0))
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if got := requests.Load(); got != 1 {
			t.Errorf("expected exactly 1 request at depth 0, got %d", got)
		}
		if len(result.Pages) != 1 {
			t.Errorf("expected 1 page, got %d", len(result.Pages))
		}
		if result.TotalEdges() != 3 {
			t.Errorf("expected the 3 start page links as edges, got %d", result.TotalEdges())
		}
	})

	t.Run("visited pages are never fetched twice", func(t *testing.T) {
		t.Parallel()

		var rootFetches atomic.Int32
		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		// Every page links back to the root and to each other.
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			rootFetches.Add(1)
			htmlHandler(`<a href="/a">a</a> <a href="/b">b</a>`)(w, r)
		})
		mux.HandleFunc("/a", htmlHandler(`<a href="/">home</a> <a href="/b">b</a>`))
		mux.HandleFunc("/b", htmlHandler(`<a href="/">home</a> <a href="/a">a</a>`))

		c := New(NewFetcher())
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if got := rootFetches.Load(); got != 1 {
			t.Errorf("expected root fetched once, got %d", got)
		}
		if len(result.Pages) != 3 {
			t.Errorf("expected 3 pages, got %d", len(result.Pages))
		}
	})

	t.Run("query and fragment variants collapse to one page", func(t *testing.T) {
		t.Parallel()

		var pageFetches atomic.Int32
		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/", htmlHandler(
			`<a href="/page?tab=1">one</a> <a href="/page?tab=2">two</a> <a href="/page#frag">frag</a>`))
		mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
			pageFetches.Add(1)
			htmlHandler(`done`)(w, r)
		})

		c := New(NewFetcher())
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if got := pageFetches.Load(); got != 1 {
			t.Errorf("expected /page fetched once, got %d", got)
		}
		if links := result.Pages[server.URL+"/"]; len(links) != 1 {
			t.Errorf("expected pagination variants to collapse to one edge, got %v", links)
		}
	})
}

// TestCrawlerIgnorePatterns tests that filtering is an unanchored
// search unless the pattern itself anchors.
func TestCrawlerIgnorePatterns(t *testing.T) {
	t.Parallel()

	newServer := func(t *testing.T) *httptest.Server {
		t.Helper()
		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)
		mux.HandleFunc("/", htmlHandler(
			`<a href="mailto:a@b.com">mail</a> <a href="/mailto:page">page</a> <a href="/keep">keep</a>`))
		mux.HandleFunc("/keep", htmlHandler(`ok`))
		return server
	}

	t.Run("anchored pattern drops only the scheme match", func(t *testing.T) {
		t.Parallel()

		server := newServer(t)
		c := New(NewFetcher(), WithIgnorePatterns([]*regexp.Regexp{
			regexp.MustCompile(`^mailto:`),
		}))
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		links := result.Pages[server.URL+"/"]
		if _, ok := links["mailto:a@b.com"]; ok {
			t.Error("expected mailto:a@b.com to be ignored")
		}
		if _, ok := links[server.URL+"/mailto:page"]; !ok {
			t.Errorf("expected /mailto:page to be kept, got %v", links)
		}
	})

	t.Run("unanchored pattern drops both", func(t *testing.T) {
		t.Parallel()

		server := newServer(t)
		c := New(NewFetcher(), WithIgnorePatterns([]*regexp.Regexp{
			regexp.MustCompile(`mailto:`),
		}))
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		links := result.Pages[server.URL+"/"]
		if len(links) != 1 {
			t.Fatalf("expected only /keep to remain, got %v", links)
		}
		if _, ok := links[server.URL+"/keep"]; !ok {
			t.Errorf("expected /keep to be kept, got %v", links)
		}
	})
}

// TestCrawlerRedirectMerge tests that redirected variants of a page
// merge to a single node keyed by the effective URL.
func TestCrawlerRedirectMerge(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", htmlHandler(`<a href="/old">old</a> <a href="/new">new</a>`))
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", htmlHandler(`<a href="/">home</a>`))

	c := New(NewFetcher())
	result, err := c.Crawl(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	if _, ok := result.Pages[server.URL+"/old"]; ok {
		t.Error("redirect source must not appear as a page node")
	}
	if _, ok := result.Pages[server.URL+"/new"]; !ok {
		t.Error("redirect target missing from result")
	}
	if len(result.Pages) != 2 {
		t.Errorf("expected 2 pages (start and /new), got %d: %v", len(result.Pages), result.Pages)
	}
}

// TestCrawlerFailureAbsorption tests that a failing child page is
// recorded without links and does not abort the crawl.
func TestCrawlerFailureAbsorption(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", htmlHandler(`<a href="/broken">broken</a> <a href="/ok">ok</a>`))
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/ok", htmlHandler(`<a href="/">home</a>`))

	c := New(NewFetcher())
	result, err := c.Crawl(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	brokenLinks, ok := result.Pages[server.URL+"/broken"]
	if !ok {
		t.Fatal("failed page missing from visited set")
	}
	if len(brokenLinks) != 0 {
		t.Errorf("failed page must contribute zero edges, got %v", brokenLinks)
	}
}

// TestCrawlerEmptyCrawlAnomaly tests the escalation path for crawls
// that found no links at all.
func TestCrawlerEmptyCrawlAnomaly(t *testing.T) {
	t.Parallel()

	t.Run("unreachable start URL propagates its status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		c := New(NewFetcher())
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err == nil {
			t.Fatal("expected empty crawl error")
		}

		var emptyErr *EmptyCrawlError
		if !errors.As(err, &emptyErr) {
			t.Fatalf("expected EmptyCrawlError, got %T: %v", err, err)
		}
		if emptyErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", emptyErr.StatusCode)
		}
		if result == nil || result.TotalEdges() != 0 {
			t.Error("expected empty crawl result alongside the error")
		}
	})

	t.Run("reachable zero-link site is a warning, not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(htmlHandler(`<p>nothing to see</p>`))
		defer server.Close()

		c := New(NewFetcher())
		result, err := c.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("expected no error for reachable zero-link site, got %v", err)
		}
		if len(result.Pages) != 1 || result.TotalEdges() != 0 {
			t.Errorf("unexpected result: %v", result.Pages)
		}
	})
}

// TestCrawlerInvalidStartURL tests fatal configuration errors.
func TestCrawlerInvalidStartURL(t *testing.T) {
	t.Parallel()

	c := New(NewFetcher())

	if _, err := c.Crawl(context.Background(), "://no-scheme"); err == nil {
		t.Error("expected error for unparseable start URL")
	}
	if _, err := c.Crawl(context.Background(), "/relative/only"); err == nil {
		t.Error("expected error for start URL without scheme and host")
	}
}
