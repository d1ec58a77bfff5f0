package report

import (
	"bytes"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/VRehnberg/deadlinks/internal/model"
)

// CSVWriter outputs the broken link pairs as CSV, one row per
// (link, source page) pair. An all-valid run produces only the header
// row.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the broken links as CSV.
func (w *CSVWriter) Write(report *model.Report) (int, error) {
	broken := report.BrokenLinks()
	if broken == nil {
		broken = []model.BrokenLink{}
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(&broken, &buf); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}
