package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a four-part binary version (major.minor.build.revision) with an
// explicit wildcard state. Publisher rules use the wildcard to express "any
// version" on either end of their range.
type Version struct {
	Major    int
	Minor    int
	Build    int
	Revision int

	// Wildcard marks the version as unbounded ("*"). A wildcard version
	// compares lower than every concrete version so that min-version merges
	// never tighten a range.
	Wildcard bool
}

// WildcardVersion is the unbounded version value.
var WildcardVersion = Version{Wildcard: true}

// ParseVersion parses a dotted version string with one to four numeric parts.
// Missing parts default to zero. The literal "*" parses to WildcardVersion.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("empty version string")
	}
	if s == "*" {
		return WildcardVersion, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > 4 {
		return Version{}, fmt.Errorf("version %q has more than four parts", s)
	}

	nums := [4]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("version %q: part %q is not a non-negative integer", s, part)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Build: nums[2], Revision: nums[3]}, nil
}

// Compare returns -1, 0, or 1 as v is lower than, equal to, or higher than o.
// A wildcard compares lower than any concrete version; two wildcards are equal.
func (v Version) Compare(o Version) int {
	if v.Wildcard && o.Wildcard {
		return 0
	}
	if v.Wildcard {
		return -1
	}
	if o.Wildcard {
		return 1
	}

	a := [4]int{v.Major, v.Minor, v.Build, v.Revision}
	b := [4]int{o.Major, o.Minor, o.Build, o.Revision}
	for i := 0; i < 4; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// Min returns the lower of v and o.
func (v Version) Min(o Version) Version {
	if v.Compare(o) <= 0 {
		return v
	}
	return o
}

// String renders the version as "major.minor.build.revision", or "*" for the
// wildcard.
func (v Version) String() string {
	if v.Wildcard {
		return "*"
	}
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}
