package types

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// SemanticVersion is a MAJOR.MINOR.PATCH version with optional pre-release
// and build metadata.
type SemanticVersion struct {
	Major      int    `json:"major"`
	Minor      int    `json:"minor"`
	Patch      int    `json:"patch"`
	PreRelease string `json:"preRelease,omitempty"`
	Build      string `json:"build,omitempty"`
}

// ParseSemanticVersion parses tag strings like "1.2.3", "v2.0.0-beta.1" or
// "1.0.0+exp.sha.5114f85". Shorthands such as "1.2" or "v1" are rejected.
func ParseSemanticVersion(s string) (SemanticVersion, bool) {
	v := s
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return SemanticVersion{}, false
	}

	rest := v[1:]
	var build string
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		rest, build = rest[:i], rest[i+1:]
	}
	var pre string
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		rest, pre = rest[:i], rest[i+1:]
	}

	// x/mod/semver accepts vMAJOR and vMAJOR.MINOR, tags must spell out all three.
	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return SemanticVersion{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return SemanticVersion{}, false
		}
		nums[i] = n
	}

	return SemanticVersion{
		Major:      nums[0],
		Minor:      nums[1],
		Patch:      nums[2],
		PreRelease: pre,
		Build:      build,
	}, true
}

// IsStable reports whether v carries no pre-release component.
func (v SemanticVersion) IsStable() bool {
	return v.PreRelease == ""
}

// Compare orders versions by major, minor and patch, then ranks a version
// without pre-release above one with, then compares pre-release strings.
// Build metadata never participates.
func (v SemanticVersion) Compare(o SemanticVersion) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Patch, o.Patch); c != 0 {
		return c
	}
	switch {
	case v.PreRelease == o.PreRelease:
		return 0
	case v.PreRelease == "":
		return 1
	case o.PreRelease == "":
		return -1
	}
	return strings.Compare(v.PreRelease, o.PreRelease)
}

// Less reports whether v sorts before o.
func (v SemanticVersion) Less(o SemanticVersion) bool {
	return v.Compare(o) < 0
}

// Equal ignores build metadata.
func (v SemanticVersion) Equal(o SemanticVersion) bool {
	return v.Compare(o) == 0
}

func (v SemanticVersion) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreRelease != "" {
		s += "-" + v.PreRelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}
