package buildmatrix

import "github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"

// NamedResults is a matrix for the version resolved for one kind.
type NamedResults[T any] struct {
	ReferenceName string     `json:"referenceName" yaml:"referenceName"`
	Kind          types.Kind `json:"kind" yaml:"kind"`
	Results       T          `json:"results" yaml:"results"`
}

// BuildInfo holds the matrices of the latest release, pre-release and
// default branch versions.
type BuildInfo[T any] struct {
	Stable *NamedResults[T] `json:"stable,omitempty" yaml:"stable,omitempty"`
	Beta   *NamedResults[T] `json:"beta,omitempty" yaml:"beta,omitempty"`
	Latest *NamedResults[T] `json:"latest,omitempty" yaml:"latest,omitempty"`
}

// NewBuildInfo returns nil when there is nothing to show.
func NewBuildInfo[T any](stable, beta, latest *NamedResults[T]) *BuildInfo[T] {
	if stable == nil && beta == nil && latest == nil {
		return nil
	}
	return &BuildInfo[T]{Stable: stable, Beta: beta, Latest: latest}
}

// PlatformBuildResults aggregates the builds of kind per matrix platform. A
// single successful build on any Swift version makes a platform compatible.
// It returns nil when no build of that kind exists.
func PlatformBuildResults(builds []types.BuildRecord, kind types.Kind) *NamedResults[PlatformResults] {
	filtered := filter(builds, kind)
	if len(filtered) == 0 {
		return nil
	}

	var results PlatformResults
	for _, b := range filtered {
		p, ok := MatrixPlatform(b.Platform)
		if !ok {
			continue
		}
		results.Status[p] = merge(results.Status[p], b.Status)
	}
	return &NamedResults[PlatformResults]{
		ReferenceName: filtered[0].Reference.String(),
		Kind:          kind,
		Results:       results,
	}
}

// SwiftVersionBuildResults aggregates the builds of kind per Swift minor
// line, across all platforms.
func SwiftVersionBuildResults(builds []types.BuildRecord, kind types.Kind) *NamedResults[SwiftVersionResults] {
	filtered := filter(builds, kind)
	if len(filtered) == 0 {
		return nil
	}

	var results SwiftVersionResults
	for _, b := range filtered {
		v, ok := ParseSwiftVersion(b.SwiftVersion)
		if !ok {
			continue
		}
		results.Status[v] = merge(results.Status[v], b.Status)
	}
	return &NamedResults[SwiftVersionResults]{
		ReferenceName: filtered[0].Reference.String(),
		Kind:          kind,
		Results:       results,
	}
}

// PlatformBuildInfo builds the platform matrices of all three kinds.
func PlatformBuildInfo(builds []types.BuildRecord) *BuildInfo[PlatformResults] {
	return NewBuildInfo(
		PlatformBuildResults(builds, types.KindRelease),
		PlatformBuildResults(builds, types.KindPreRelease),
		PlatformBuildResults(builds, types.KindDefaultBranch),
	)
}

// SwiftVersionBuildInfo builds the Swift version matrices of all three kinds.
func SwiftVersionBuildInfo(builds []types.BuildRecord) *BuildInfo[SwiftVersionResults] {
	return NewBuildInfo(
		SwiftVersionBuildResults(builds, types.KindRelease),
		SwiftVersionBuildResults(builds, types.KindPreRelease),
		SwiftVersionBuildResults(builds, types.KindDefaultBranch),
	)
}

// GroupReference labels one row of a grouped build info.
type GroupReference struct {
	Name string     `json:"name" yaml:"name"`
	Kind types.Kind `json:"kind" yaml:"kind"`
}

// BuildGroup is a matrix shared by one or more references.
type BuildGroup[T any] struct {
	References []GroupReference `json:"references" yaml:"references"`
	Results    T                `json:"results" yaml:"results"`
}

// GroupBuildInfo merges stable, beta and latest entries whose matrices are
// identical. Rows and labels keep the stable, beta, latest order.
func GroupBuildInfo[T comparable](info *BuildInfo[T]) []BuildGroup[T] {
	if info == nil {
		return nil
	}

	var groups []BuildGroup[T]
	for _, named := range []*NamedResults[T]{info.Stable, info.Beta, info.Latest} {
		if named == nil {
			continue
		}
		label := GroupReference{Name: named.ReferenceName, Kind: named.Kind}

		merged := false
		for i := range groups {
			if groups[i].Results == named.Results {
				groups[i].References = append(groups[i].References, label)
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, BuildGroup[T]{References: []GroupReference{label}, Results: named.Results})
		}
	}
	return groups
}

func filter(builds []types.BuildRecord, kind types.Kind) []types.BuildRecord {
	if kind == types.KindNone {
		return nil
	}
	var out []types.BuildRecord
	for _, b := range builds {
		if b.VersionKind == kind {
			out = append(out, b)
		}
	}
	return out
}

// merge folds a build status into a cell. Once compatible, a cell stays so.
func merge(cur Compatibility, status types.BuildStatus) Compatibility {
	if cur == Compatible || status == types.BuildStatusOK {
		return Compatible
	}
	return Incompatible
}
