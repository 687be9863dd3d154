package reconcile

import (
	"strings"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

// Classify returns copies of candidates with Kind reassigned:
//   - the branch with the most recent commit date is the default branch,
//   - the highest stable tag is the release,
//   - the highest pre-release tag is the pre-release,
//   - everything else has no kind.
//
// Ties on commit date or on semantic version fall back to the smallest
// reference name. The input is not modified.
func Classify(candidates []types.Version) []types.Version {
	out := make([]types.Version, len(candidates))
	copy(out, candidates)

	branch, release, pre := -1, -1, -1
	for i, v := range out {
		out[i].Kind = types.KindNone
		ref := v.Reference
		switch {
		case ref.IsBranch():
			if branch < 0 || newerBranch(v, out[branch]) {
				branch = i
			}
		case ref.IsRelease():
			if release < 0 || higherTag(ref, out[release].Reference) {
				release = i
			}
		case ref.IsPreRelease():
			if pre < 0 || higherTag(ref, out[pre].Reference) {
				pre = i
			}
		}
	}

	if branch >= 0 {
		out[branch].Kind = types.KindDefaultBranch
	}
	if release >= 0 {
		out[release].Kind = types.KindRelease
	}
	if pre >= 0 {
		out[pre].Kind = types.KindPreRelease
	}
	return out
}

// Latest returns the version classified as kind.
func Latest(versions []types.Version, kind types.Kind) (types.Version, bool) {
	if kind == types.KindNone {
		return types.Version{}, false
	}
	for _, v := range versions {
		if v.Kind == kind {
			return v, true
		}
	}
	return types.Version{}, false
}

func newerBranch(a, b types.Version) bool {
	if !a.CommitDate.Equal(b.CommitDate) {
		return a.CommitDate.After(b.CommitDate)
	}
	return strings.Compare(a.Reference.BranchName(), b.Reference.BranchName()) < 0
}

func higherTag(a, b types.Reference) bool {
	va, _ := a.SemVer()
	vb, _ := b.SemVer()
	if c := va.Compare(vb); c != 0 {
		return c > 0
	}
	return strings.Compare(a.TagName(), b.TagName()) < 0
}
