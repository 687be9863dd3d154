// Package buildmatrix condenses per-platform, per-Swift-version build results
// into compatibility matrices for a package's latest versions.
package buildmatrix

import (
	"strconv"
	"strings"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

// Compatibility is the three-state signal derived from build statuses. The
// zero value means no build exists.
type Compatibility uint8

const (
	Unknown Compatibility = iota
	Compatible
	Incompatible
)

func (c Compatibility) String() string {
	switch c {
	case Compatible:
		return "compatible"
	case Incompatible:
		return "incompatible"
	}
	return "unknown"
}

func (c Compatibility) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Platform is a column of the platform matrix.
type Platform uint8

const (
	IOS Platform = iota
	MacOS
	TvOS
	WatchOS

	platformCount
)

// Platforms lists the matrix platforms in display order.
var Platforms = [platformCount]Platform{IOS, MacOS, TvOS, WatchOS}

func (p Platform) String() string {
	switch p {
	case IOS:
		return "iOS"
	case MacOS:
		return "macOS"
	case TvOS:
		return "tvOS"
	case WatchOS:
		return "watchOS"
	}
	return "unknown"
}

// MatrixPlatform maps a build platform onto its matrix column. Linux builds
// have no column.
func MatrixPlatform(p types.BuildPlatform) (Platform, bool) {
	switch p {
	case types.PlatformIOS:
		return IOS, true
	case types.PlatformMacOSSPM, types.PlatformMacOSXcodebuild,
		types.PlatformMacOSSPMArm, types.PlatformMacOSXcodebuildArm:
		return MacOS, true
	case types.PlatformTvOS:
		return TvOS, true
	case types.PlatformWatchOS:
		return WatchOS, true
	}
	return 0, false
}

// SwiftVersion is a tracked Swift minor line.
type SwiftVersion uint8

const (
	Swift5_3 SwiftVersion = iota
	Swift5_4
	Swift5_5
	Swift5_6

	swiftVersionCount
)

// SwiftVersions lists the tracked lines, oldest first.
var SwiftVersions = [swiftVersionCount]SwiftVersion{Swift5_3, Swift5_4, Swift5_5, Swift5_6}

var swiftVersionLines = [swiftVersionCount][2]int{{5, 3}, {5, 4}, {5, 5}, {5, 6}}

func (s SwiftVersion) String() string {
	if s >= swiftVersionCount {
		return "unknown"
	}
	line := swiftVersionLines[s]
	return strconv.Itoa(line[0]) + "." + strconv.Itoa(line[1])
}

// ParseSwiftVersion collapses a toolchain version like "5.6.1" or "5.6" onto
// its minor line. Untracked lines report false.
func ParseSwiftVersion(s string) (SwiftVersion, bool) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		nums[i] = n
	}
	for i, line := range swiftVersionLines {
		if line[0] == nums[0] && line[1] == nums[1] {
			return SwiftVersion(i), true
		}
	}
	return 0, false
}

// PlatformResults holds one compatibility state per matrix platform.
type PlatformResults struct {
	Status [platformCount]Compatibility
}

// Get returns the state for p.
func (r PlatformResults) Get(p Platform) Compatibility {
	if p >= platformCount {
		return Unknown
	}
	return r.Status[p]
}

// SwiftVersionResults holds one compatibility state per tracked Swift line.
type SwiftVersionResults struct {
	Status [swiftVersionCount]Compatibility
}

// Get returns the state for v.
func (r SwiftVersionResults) Get(v SwiftVersion) Compatibility {
	if v >= swiftVersionCount {
		return Unknown
	}
	return r.Status[v]
}

func (r PlatformResults) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(Platforms))
	for _, p := range Platforms {
		keys = append(keys, p.String())
	}
	return marshalStates(keys, r.Status[:])
}

func (r SwiftVersionResults) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(SwiftVersions))
	for _, v := range SwiftVersions {
		keys = append(keys, v.String())
	}
	return marshalStates(keys, r.Status[:])
}

// MarshalYAML renders the matrix as a key/state mapping.
func (r PlatformResults) MarshalYAML() (any, error) {
	out := make(map[string]string, len(Platforms))
	for _, p := range Platforms {
		out[p.String()] = r.Status[p].String()
	}
	return out, nil
}

// MarshalYAML renders the matrix as a key/state mapping.
func (r SwiftVersionResults) MarshalYAML() (any, error) {
	out := make(map[string]string, len(SwiftVersions))
	for _, v := range SwiftVersions {
		out[v.String()] = r.Status[v].String()
	}
	return out, nil
}

func marshalStates(keys []string, states []Compatibility) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(key))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(states[i].String()))
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
