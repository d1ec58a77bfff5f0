package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/VRehnberg/deadlinks/internal/model"
)

// JSONWriter outputs reports as indented JSON for machine consumption
// and CI integrations.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report as JSON. The broken link pairs are included
// alongside the raw crawl and link data so consumers do not have to
// re-derive them.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	payload := struct {
		*model.Report
		BrokenLinks []model.BrokenLink `json:"brokenLinks"`
		AllOK       bool               `json:"allOK"`
	}{
		Report:      report,
		BrokenLinks: report.BrokenLinks(),
		AllOK:       report.AllOK(),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}
