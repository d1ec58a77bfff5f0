// Package report renders check results in several output formats.
//
// Four writers share one interface: SimpleWriter for colored terminal
// output, JSONWriter for machine consumption, MarkdownWriter for
// documentation and CI summaries, and CSVWriter for spreadsheets.
// MultiWriter fans a report out to several destinations, typically the
// terminal and a file.
package report
