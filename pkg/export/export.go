package export

import (
	"io"

	"acuity-hq/palisade/pkg/diffpol"
)

// Exporter writes a comparison report in one output format.
type Exporter interface {
	// Export writes the report rows.
	Export(records []diffpol.Record, w io.Writer) error

	// Format returns the exporter's format name for logs and file naming.
	Format() string
}
