package storage

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

// Archive keeps deleted versions for history outside of the live store.
type Archive interface {
	Store(ctx context.Context, pkg, id string, data []byte) error
	Fetch(ctx context.Context, pkg, id string) ([]byte, error)
	List(ctx context.Context, pkg string) ([]string, error)
	Close() error
}

// Options control storage behaviour across backends.
type Options struct {
	Archive Archive
}

func archiveVersions(ctx context.Context, archive Archive, pkg string, versions []types.Version) error {
	if archive == nil {
		return nil
	}
	for _, v := range versions {
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if err := archive.Store(ctx, pkg, v.ID, payload); err != nil {
			return err
		}
	}
	return nil
}

// ArchivedVersions returns the versions archived for pkg, oldest commit first.
func ArchivedVersions(ctx context.Context, archive Archive, pkg string) ([]types.Version, error) {
	if archive == nil {
		return nil, nil
	}
	ids, err := archive.List(ctx, pkg)
	if err != nil {
		return nil, err
	}
	out := make([]types.Version, 0, len(ids))
	for _, id := range ids {
		data, err := archive.Fetch(ctx, pkg, id)
		if err != nil {
			return nil, err
		}
		var v types.Version
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	sortVersions(out)
	return out, nil
}

// sortVersions orders by commit date, then reference name, then id.
func sortVersions(vs []types.Version) {
	slices.SortStableFunc(vs, func(a, b types.Version) int {
		if c := a.CommitDate.Compare(b.CommitDate); c != 0 {
			return c
		}
		if c := strings.Compare(a.Reference.String(), b.Reference.String()); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func sortBuilds(bs []types.Build) {
	slices.SortStableFunc(bs, func(a, b types.Build) int {
		if c := strings.Compare(string(a.Platform), string(b.Platform)); c != 0 {
			return c
		}
		return strings.Compare(a.SwiftVersion, b.SwiftVersion)
	})
}

func buildRecords(versions []types.Version, buildsByVersion map[string][]types.Build) []types.BuildRecord {
	var out []types.BuildRecord
	for _, v := range versions {
		if v.Kind == types.KindNone {
			continue
		}
		for _, b := range buildsByVersion[v.ID] {
			out = append(out, types.BuildRecord{
				VersionKind:  v.Kind,
				Reference:    v.Reference,
				BuildID:      b.ID,
				SwiftVersion: b.SwiftVersion,
				Platform:     b.Platform,
				Status:       b.Status,
			})
		}
	}
	return out
}
