package reduce

import (
	"sort"
	"strings"

	"acuity-hq/palisade/pkg/scan"
)

// separator is the Windows path separator the scanner emits.
const separator = `\`

// Directories collapses writable directories into an ordered sequence of
// path-exclusion expressions. For each kept directory it emits `path\*`, and
// additionally `path:*` when a non-admin grantee holds full stream-write
// rights there via a non-inherited ACE.
//
// The result is prefix-free: no emitted entry is a path-prefix of another.
// Duplicate input paths are dropped. Paths are compared case-insensitively;
// WritableDirectory paths are already lower-cased on construction.
func Directories(dirs []scan.WritableDirectory) []string {
	if len(dirs) == 0 {
		return nil
	}

	sorted := make([]scan.WritableDirectory, len(dirs))
	copy(sorted, dirs)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Path) < strings.ToLower(sorted[j].Path)
	})

	var exclusions []string

	// lastKept carries the trailing separator so the prefix test cannot match
	// a sibling that merely shares a name prefix (c:\foo vs c:\foobar).
	lastKept := ""
	for _, dir := range sorted {
		path := strings.ToLower(dir.Path)
		if lastKept != "" {
			if path+separator == lastKept {
				continue // duplicate of the kept path itself
			}
			if strings.HasPrefix(path, lastKept) {
				continue // covered by an ancestor already emitted
			}
		}

		exclusions = append(exclusions, path+separator+"*")
		if dir.StreamWritable() {
			exclusions = append(exclusions, path+":*")
		}
		lastKept = path + separator
	}

	return exclusions
}
