package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// Threshold is the first version whose default tables differ from the legacy ones.
var Threshold = Version{Major: 3, Minor: 8}

// Version is the format version carried in skeleton.spine.
//
// The ordering methods are component-wise: a relation holds only when it holds
// for major, minor and patch independently. "4.0" is therefore neither less
// than nor greater or equal to "3.8". Compare provides a total order for
// sorting and is never used to pick default tables.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "major.minor" or "major.minor.patch".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if !versionPattern.MatchString(s) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	parts := strings.Split(s, ".")
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParseVersion is ParseVersion for constants known to be valid.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) Equal(o Version) bool {
	return v == o
}

func (v Version) Less(o Version) bool {
	return v.Major < o.Major && v.Minor < o.Minor && v.Patch < o.Patch
}

func (v Version) Greater(o Version) bool {
	return v.Major > o.Major && v.Minor > o.Minor && v.Patch > o.Patch
}

func (v Version) LessEq(o Version) bool {
	return v.Major <= o.Major && v.Minor <= o.Minor && v.Patch <= o.Patch
}

func (v Version) GreaterEq(o Version) bool {
	return v.Major >= o.Major && v.Minor >= o.Minor && v.Patch >= o.Patch
}

// Compare orders versions lexicographically by component.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Patch, o.Patch)
	}
}

// UsesLatestDefaults reports whether v selects the post-threshold default tables.
func (v Version) UsesLatestDefaults() bool {
	return v.GreaterEq(Threshold)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
