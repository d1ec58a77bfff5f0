package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/VRehnberg/deadlinks/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, suitable for
// CI job summaries and issue trackers.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeBrokenLinks(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Link Check Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled())},
			{"Links Checked", strconv.Itoa(report.TotalLinks())},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell based on report state.
func (w *MarkdownWriter) statusText(report *model.Report) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	if broken := report.BrokenLinks(); len(broken) > 0 {
		return "❌ " + strconv.Itoa(len(broken)) + " broken links"
	}
	return "✅ All links valid"
}

// writeBrokenLinks writes the broken links table, if any.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.Report) {
	broken := report.BrokenLinks()
	if len(broken) == 0 {
		return
	}

	md.H2("Broken Links")
	md.PlainText("")

	rows := make([][]string, 0, len(broken))
	for _, b := range broken {
		rows = append(rows, []string{"`" + b.Link + "`", "`" + b.Page + "`", b.Status})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Link", "Found On", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}
