package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/VRehnberg/deadlinks/internal/model"
)

// timeRounding trims sub-millisecond noise from elapsed times.
const timeRounding = 10 * time.Millisecond

// SimpleWriter outputs human-readable text reports for terminal
// display, with broken links listed in a table and color-coded
// pass/fail summary lines.
type SimpleWriter struct {
	baseWriter

	// noColor disables ANSI colors, for piping output to files or
	// terminals that do not render escape codes.
	noColor bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithNoColor disables colored output.
func WithNoColor(noColor bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.noColor = noColor
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var buf bytes.Buffer

	w.writeHeader(&buf, report)

	if report.ErrorMessage != "" {
		fmt.Fprintf(&buf, "%s\n", w.red("check failed: "+report.ErrorMessage))
		return w.output.Write(buf.Bytes())
	}

	broken := report.BrokenLinks()
	if len(broken) == 0 {
		fmt.Fprintf(&buf, "%s\n", w.green(fmt.Sprintf("All %d links are valid.", report.TotalLinks())))
		return w.output.Write(buf.Bytes())
	}

	fmt.Fprintf(&buf, "%s\n\n", w.red(fmt.Sprintf("%d broken links found:", len(broken))))
	w.writeBrokenTable(&buf, broken)

	return w.output.Write(buf.Bytes())
}

// writeHeader writes the check summary lines.
func (w *SimpleWriter) writeHeader(buf *bytes.Buffer, report *model.Report) {
	fmt.Fprintf(buf, "\nChecked %s in %s\n", report.StartURL, report.Elapsed.Round(timeRounding))
	fmt.Fprintf(buf, "Pages crawled: %d, links checked: %d\n\n", report.PagesCrawled(), report.TotalLinks())
}

// writeBrokenTable renders the broken links as a three-column table.
func (w *SimpleWriter) writeBrokenTable(buf *bytes.Buffer, broken []model.BrokenLink) {
	tbl := table.New("Link", "Found On", "Status").WithWriter(buf)
	if !w.noColor {
		tbl = tbl.
			WithHeaderFormatter(color.New(color.FgCyan, color.Underline).SprintfFunc()).
			WithFirstColumnFormatter(color.New(color.FgRed).SprintfFunc())
	}

	for _, b := range broken {
		tbl.AddRow(b.Link, b.Page, b.Status)
	}
	tbl.Print()
}

// red formats a string in red unless colors are disabled.
func (w *SimpleWriter) red(s string) string {
	if w.noColor {
		return s
	}
	return color.New(color.FgRed).Sprint(s)
}

// green formats a string in green unless colors are disabled.
func (w *SimpleWriter) green(s string) string {
	if w.noColor {
		return s
	}
	return color.New(color.FgGreen).Sprint(s)
}
