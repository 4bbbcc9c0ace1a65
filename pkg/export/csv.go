package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"acuity-hq/palisade/pkg/diffpol"
)

// CSVExporter writes comparison reports as CSV. Multi-line detail cells
// (concatenated hash variants, exception lists) are preserved: the csv writer
// quotes embedded line breaks.
type CSVExporter struct {
	// IncludeHeader emits a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Format returns "csv".
func (e *CSVExporter) Format() string { return "csv" }

var csvHeader = []string{"classification", "glyph", "key", "reference_detail", "comparison_detail"}

// Export writes the report rows as CSV.
func (e *CSVExporter) Export(records []diffpol.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write report header: %w", err)
		}
	}

	for _, rec := range records {
		row := []string{
			string(rec.Classification),
			rec.Classification.Glyph(),
			rec.Key,
			rec.ReferenceDetail,
			rec.ComparisonDetail,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write report row for %q: %w", rec.Key, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
