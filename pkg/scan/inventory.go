package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// inventoryHeader is the column layout of a scan inventory CSV.
var inventoryHeader = []string{
	"path", "is_directory", "publisher", "product", "binary", "version", "hash", "length",
}

// ReadInventory reads scan records from an inventory CSV produced by the
// external scanner. The first row must be the header.
func ReadInventory(r io.Reader) ([]*Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(inventoryHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory header: %w", err)
	}
	for i, col := range inventoryHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected inventory column %d: got %q, want %q", i, header[i], col)
		}
	}

	var records []*Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read inventory row: %w", err)
		}

		rec := &Record{
			Path:        row[0],
			IsDirectory: row[1] == "true",
			Hash:        row[6],
		}
		if row[2] != "" {
			rec.Signer = &SignerInfo{
				Publisher: row[2],
				Product:   row[3],
				Binary:    row[4],
				Version:   row[5],
			}
		}
		if row[7] != "" {
			length, err := strconv.ParseInt(row[7], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid length %q for %q: %w", row[7], row[0], err)
			}
			rec.Length = length
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadInventoryFile reads scan records from the inventory CSV at path.
func ReadInventoryFile(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory %q: %w", path, err)
	}
	defer f.Close()
	return ReadInventory(f)
}

// WriteInventory writes scan records as an inventory CSV.
func WriteInventory(w io.Writer, records []*Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(inventoryHeader); err != nil {
		return fmt.Errorf("failed to write inventory header: %w", err)
	}

	for _, rec := range records {
		row := make([]string, len(inventoryHeader))
		row[0] = rec.Path
		row[1] = strconv.FormatBool(rec.IsDirectory)
		if rec.Signer != nil {
			row[2] = rec.Signer.Publisher
			row[3] = rec.Signer.Product
			row[4] = rec.Signer.Binary
			row[5] = rec.Signer.Version
		}
		row[6] = rec.Hash
		row[7] = strconv.FormatInt(rec.Length, 10)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write inventory row for %q: %w", rec.Path, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
