// Package main provides the entry point for the deadlinks CLI.
//
// deadlinks crawls a website and reports broken links: it walks every
// internal page breadth-first, collects all links, verifies each one,
// and prints the invalid links together with the pages they were
// found on.
//
// Usage:
//
//	deadlinks check https://example.com
//
// See --help for all available options.
package main

// main is the entry point for deadlinks.
func main() {
	Execute()
}
