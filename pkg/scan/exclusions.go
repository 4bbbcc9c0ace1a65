package scan

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SaveExclusions persists path-exclusion expressions as a plain-text list,
// one expression per line. The list is read back on subsequent runs to avoid
// rescanning writable directories unless explicitly forced.
func SaveExclusions(path string, exclusions []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create exclusion list %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, excl := range exclusions {
		if _, err := w.WriteString(excl + "\n"); err != nil {
			return fmt.Errorf("failed to write exclusion list %q: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush exclusion list %q: %w", path, err)
	}
	return nil
}

// LoadExclusions reads a persisted exclusion list. Blank lines are skipped.
func LoadExclusions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open exclusion list %q: %w", path, err)
	}
	defer f.Close()

	var exclusions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		exclusions = append(exclusions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exclusion list %q: %w", path, err)
	}
	return exclusions, nil
}

// ExclusionsExist reports whether a persisted exclusion list is present at
// path.
func ExclusionsExist(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
