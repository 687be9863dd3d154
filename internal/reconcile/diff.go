// Package reconcile diffs stored package versions against the references
// observed in the package's repository and decides which version is the
// latest of each kind.
package reconcile

import "github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"

// Result partitions the union of two reference sets.
type Result struct {
	ToAdd    []types.ImmutableReference
	ToDelete []types.ImmutableReference
	ToKeep   []types.ImmutableReference
}

// Diff compares stored references with freshly observed ones. A reference
// whose commit hash changed shows up as one deletion plus one addition,
// never as a keep. Order follows the inputs and repeated entries collapse to
// their first occurrence.
func Diff(local, incoming []types.ImmutableReference) Result {
	localSet := set(local)
	incomingSet := set(incoming)

	var res Result
	for _, ref := range unique(local) {
		if _, ok := incomingSet[ref]; ok {
			res.ToKeep = append(res.ToKeep, ref)
		} else {
			res.ToDelete = append(res.ToDelete, ref)
		}
	}
	for _, ref := range unique(incoming) {
		if _, ok := localSet[ref]; !ok {
			res.ToAdd = append(res.ToAdd, ref)
		}
	}
	return res
}

// VersionResult is Diff lifted to persisted versions. ToKeep holds the stored
// values so their ids survive reconciliation.
type VersionResult struct {
	ToAdd    []types.Version
	ToDelete []types.Version
	ToKeep   []types.Version
}

// Candidates returns the versions that exist once the diff is applied.
func (r VersionResult) Candidates() []types.Version {
	out := make([]types.Version, 0, len(r.ToKeep)+len(r.ToAdd))
	out = append(out, r.ToKeep...)
	return append(out, r.ToAdd...)
}

// DiffVersions diffs on the (reference, commit hash) projection of each
// version. Stored duplicates of a projection beyond the first are deleted.
func DiffVersions(local, incoming []types.Version) VersionResult {
	var duplicates []types.Version
	localByRef := make(map[types.ImmutableReference]types.Version, len(local))
	localRefs := make([]types.ImmutableReference, 0, len(local))
	for _, v := range local {
		ref := v.ImmutableReference()
		if _, seen := localByRef[ref]; seen {
			duplicates = append(duplicates, v)
			continue
		}
		localByRef[ref] = v
		localRefs = append(localRefs, ref)
	}

	incomingByRef := make(map[types.ImmutableReference]types.Version, len(incoming))
	incomingRefs := make([]types.ImmutableReference, 0, len(incoming))
	for _, v := range incoming {
		ref := v.ImmutableReference()
		if _, seen := incomingByRef[ref]; !seen {
			incomingByRef[ref] = v
		}
		incomingRefs = append(incomingRefs, ref)
	}

	diff := Diff(localRefs, incomingRefs)

	var res VersionResult
	for _, ref := range diff.ToAdd {
		res.ToAdd = append(res.ToAdd, incomingByRef[ref])
	}
	for _, ref := range diff.ToDelete {
		res.ToDelete = append(res.ToDelete, localByRef[ref])
	}
	res.ToDelete = append(res.ToDelete, duplicates...)
	for _, ref := range diff.ToKeep {
		res.ToKeep = append(res.ToKeep, localByRef[ref])
	}
	return res
}

func set(refs []types.ImmutableReference) map[types.ImmutableReference]struct{} {
	m := make(map[types.ImmutableReference]struct{}, len(refs))
	for _, ref := range refs {
		m[ref] = struct{}{}
	}
	return m
}

func unique(refs []types.ImmutableReference) []types.ImmutableReference {
	seen := make(map[types.ImmutableReference]struct{}, len(refs))
	out := make([]types.ImmutableReference, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
