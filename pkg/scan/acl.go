package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// aclHeader is the column layout of a writable-directory ACL CSV. Each row is
// one ACE; rows for the same directory path are grouped into a single
// WritableDirectory in input order.
var aclHeader = []string{
	"path", "grantee", "rights", "inherited", "admin",
}

// ReadWritableDirectories reads writable-directory entries from an ACL CSV
// produced by the external scanner. Rights are a hex access mask. The first
// row must be the header.
func ReadWritableDirectories(r io.Reader) ([]WritableDirectory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(aclHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read ACL header: %w", err)
	}
	for i, col := range aclHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected ACL column %d: got %q, want %q", i, header[i], col)
		}
	}

	var dirs []WritableDirectory
	index := make(map[string]int)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ACL row: %w", err)
		}

		rights, err := strconv.ParseUint(row[2], 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid rights %q for %q: %w", row[2], row[0], err)
		}
		entry := AccessEntry{
			Grantee:   row[1],
			Rights:    AccessRights(rights),
			Inherited: row[3] == "true",
			Admin:     row[4] == "true",
		}

		dir := NewWritableDirectory(row[0], nil)
		i, seen := index[dir.Path]
		if !seen {
			index[dir.Path] = len(dirs)
			dir.Entries = []AccessEntry{entry}
			dirs = append(dirs, dir)
			continue
		}
		dirs[i].Entries = append(dirs[i].Entries, entry)
	}

	return dirs, nil
}

// ReadWritableDirectoriesFile reads writable-directory entries from the ACL
// CSV at path.
func ReadWritableDirectoriesFile(path string) ([]WritableDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ACL file %q: %w", path, err)
	}
	defer f.Close()
	return ReadWritableDirectories(f)
}
