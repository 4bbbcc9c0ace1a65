package export

import (
	"encoding/json"
	"fmt"
	"io"

	"acuity-hq/palisade/pkg/diffpol"
)

// JSONExporter writes comparison reports as a JSON array.
type JSONExporter struct {
	// Pretty indents the output for human reading.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Format returns "json".
func (e *JSONExporter) Format() string { return "json" }

// jsonRecord is the wire form of one report row.
type jsonRecord struct {
	Classification   string `json:"classification"`
	Glyph            string `json:"glyph"`
	Key              string `json:"key"`
	ReferenceDetail  string `json:"reference_detail,omitempty"`
	ComparisonDetail string `json:"comparison_detail,omitempty"`
}

// Export writes the report rows as a JSON array.
func (e *JSONExporter) Export(records []diffpol.Record, w io.Writer) error {
	rows := make([]jsonRecord, len(records))
	for i, rec := range records {
		rows[i] = jsonRecord{
			Classification:   string(rec.Classification),
			Glyph:            rec.Classification.Glyph(),
			Key:              rec.Key,
			ReferenceDetail:  rec.ReferenceDetail,
			ComparisonDetail: rec.ComparisonDetail,
		}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
