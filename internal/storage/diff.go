package storage

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

func computeDiff(previous, current string) string {
	if previous == current {
		return ""
	}

	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	}

	res, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return strings.TrimSpace(current)
	}

	return strings.TrimSpace(res)
}

// describeVersions renders one line per version, in the given order.
func describeVersions(vs []types.Version) string {
	var b strings.Builder
	for _, v := range vs {
		typ := "tag"
		if v.Reference.IsBranch() {
			typ = "branch"
		}
		kind := string(v.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(&b, "%s %s %s %s\n", typ, v.Reference, v.CommitHash, kind)
	}
	return b.String()
}
