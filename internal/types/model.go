package types

import "time"

// Kind classifies a version as the latest of its category. Versions that
// are not the latest of anything carry KindNone.
type Kind string

const (
	KindNone          Kind = ""
	KindDefaultBranch Kind = "default_branch"
	KindRelease       Kind = "release"
	KindPreRelease    Kind = "pre_release"
)

// Version captures a package reference resolved at a specific commit.
type Version struct {
	ID            string    `json:"id" yaml:"id"`
	PackageURL    string    `json:"package" yaml:"package"`
	Reference     Reference `json:"reference" yaml:"reference"`
	CommitHash    string    `json:"commitHash" yaml:"commitHash"`
	CommitDate    time.Time `json:"commitDate" yaml:"commitDate"`
	Kind          Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	PackageName   string    `json:"packageName,omitempty" yaml:"packageName,omitempty"`
	SwiftVersions []string  `json:"swiftVersions,omitempty" yaml:"swiftVersions,omitempty"`
	Platforms     []string  `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

// ImmutableReference projects the version onto its reference and commit.
func (v Version) ImmutableReference() ImmutableReference {
	return ImmutableReference{Reference: v.Reference, CommitHash: v.CommitHash}
}

// BuildStatus is the outcome reported by the build system.
type BuildStatus string

const (
	BuildStatusOK                  BuildStatus = "ok"
	BuildStatusFailed              BuildStatus = "failed"
	BuildStatusTriggered           BuildStatus = "triggered"
	BuildStatusTimeout             BuildStatus = "timeout"
	BuildStatusInfrastructureError BuildStatus = "infrastructureError"
	BuildStatusNoMatchingVersion   BuildStatus = "noMatchingVersion"
)

// Valid reports whether s is a known status.
func (s BuildStatus) Valid() bool {
	switch s {
	case BuildStatusOK, BuildStatusFailed, BuildStatusTriggered, BuildStatusTimeout,
		BuildStatusInfrastructureError, BuildStatusNoMatchingVersion:
		return true
	}
	return false
}

// BuildPlatform is the platform and toolchain a build ran on.
type BuildPlatform string

const (
	PlatformIOS                BuildPlatform = "ios"
	PlatformMacOSSPM           BuildPlatform = "macos-spm"
	PlatformMacOSXcodebuild    BuildPlatform = "macos-xcodebuild"
	PlatformMacOSSPMArm        BuildPlatform = "macos-spm-arm"
	PlatformMacOSXcodebuildArm BuildPlatform = "macos-xcodebuild-arm"
	PlatformLinux              BuildPlatform = "linux"
	PlatformTvOS               BuildPlatform = "tvos"
	PlatformWatchOS            BuildPlatform = "watchos"
)

// AllBuildPlatforms lists every platform builds are reported for.
var AllBuildPlatforms = []BuildPlatform{
	PlatformIOS,
	PlatformMacOSSPM,
	PlatformMacOSXcodebuild,
	PlatformMacOSSPMArm,
	PlatformMacOSXcodebuildArm,
	PlatformLinux,
	PlatformTvOS,
	PlatformWatchOS,
}

// Valid reports whether p is a known platform.
func (p BuildPlatform) Valid() bool {
	for _, known := range AllBuildPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// Build is one build of a version for a platform and Swift version.
type Build struct {
	ID           string        `json:"id" yaml:"id"`
	VersionID    string        `json:"versionId" yaml:"versionId"`
	Platform     BuildPlatform `json:"platform" yaml:"platform"`
	SwiftVersion string        `json:"swiftVersion" yaml:"swiftVersion"`
	Status       BuildStatus   `json:"status" yaml:"status"`
	LogURL       string        `json:"logUrl,omitempty" yaml:"logUrl,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" yaml:"createdAt"`
}

// BuildRecord is a build joined with the version it belongs to.
type BuildRecord struct {
	VersionKind  Kind          `json:"versionKind" yaml:"versionKind"`
	Reference    Reference     `json:"reference" yaml:"reference"`
	BuildID      string        `json:"buildId" yaml:"buildId"`
	SwiftVersion string        `json:"swiftVersion" yaml:"swiftVersion"`
	Platform     BuildPlatform `json:"platform" yaml:"platform"`
	Status       BuildStatus   `json:"status" yaml:"status"`
}
