package storage

import (
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

// VersionChanges describes the rows a reconciliation run touches.
type VersionChanges struct {
	Delete []types.Version
	Insert []types.Version
	// Update rewrites the kind of existing versions.
	Update []types.Version
}

// ChangeResult summarises an applied VersionChanges.
type ChangeResult struct {
	Inserted []types.Version
	Deleted  int
	Updated  int
	Diff     string
}

// BuildRequest reports the outcome of one build. The version is looked up by
// VersionID when set, otherwise by Reference within the package.
type BuildRequest struct {
	PackageURL   string
	VersionID    string
	Reference    types.Reference
	Platform     types.BuildPlatform
	SwiftVersion string
	Status       types.BuildStatus
	LogURL       string
}

func (r BuildRequest) validate() error {
	if r.PackageURL == "" {
		return &ValidationError{Message: "package is required"}
	}
	if r.VersionID == "" && r.Reference.IsZero() {
		return &ValidationError{Message: "version id or reference is required"}
	}
	if !r.Platform.Valid() {
		return &ValidationError{Message: "unknown platform " + string(r.Platform)}
	}
	if r.SwiftVersion == "" {
		return &ValidationError{Message: "swift version is required"}
	}
	if !r.Status.Valid() {
		return &ValidationError{Message: "unknown status " + string(r.Status)}
	}
	return nil
}

func (r BuildRequest) matches(v types.Version) bool {
	if r.VersionID != "" {
		return v.ID == r.VersionID
	}
	return v.Reference == r.Reference
}

func buildSlot(platform types.BuildPlatform, swiftVersion string) string {
	return string(platform) + "|" + swiftVersion
}

func validateInsert(pkg string, v types.Version) error {
	if v.Reference.IsZero() {
		return &ValidationError{Message: "version reference is required"}
	}
	if v.CommitHash == "" {
		return &ValidationError{Message: "commit hash is required for " + v.Reference.String()}
	}
	if v.PackageURL != "" && v.PackageURL != pkg {
		return &ValidationError{Message: "version " + v.Reference.String() + " belongs to another package"}
	}
	return nil
}
