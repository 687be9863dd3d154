package reconcile

import "github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"

// Outcome is the full result of reconciling a package's versions.
type Outcome struct {
	Diff VersionResult
	// Versions is the classified candidate set: kept versions first, then
	// the additions.
	Versions []types.Version
	// Reclassified lists kept versions whose kind changed. Their rows must be
	// updated even though the diff keeps them.
	Reclassified []types.Version
}

// Reconcile diffs local against incoming and classifies the survivors.
func Reconcile(local, incoming []types.Version) Outcome {
	diff := DiffVersions(local, incoming)
	classified := Classify(diff.Candidates())

	var changed []types.Version
	for i, kept := range diff.ToKeep {
		if classified[i].Kind != kept.Kind {
			changed = append(changed, classified[i])
		}
	}

	return Outcome{
		Diff:         diff,
		Versions:     classified,
		Reclassified: changed,
	}
}

// Added returns the classified versions that are new in this run.
func (o Outcome) Added() []types.Version {
	return o.Versions[len(o.Diff.ToKeep):]
}
