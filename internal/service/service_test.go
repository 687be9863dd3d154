package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/buildmatrix"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/config"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/gitref"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/storage"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

const pkg = "https://github.com/foo/bar.git"

var t0 = time.Date(2022, 1, 10, 9, 0, 0, 0, time.UTC)

func obs(ref types.Reference, hash string, at time.Time) gitref.Observed {
	return gitref.Observed{Reference: ref, CommitHash: hash, CommitDate: at}
}

func newService(t *testing.T, cfg config.Config) *Service {
	t.Helper()
	svc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func memoryConfig(archivePath string) config.Config {
	return config.Config{
		Storage: config.StorageConfig{Backend: config.StorageBackendMemory},
		Archive: config.ArchiveConfig{Path: archivePath},
	}
}

func refNames(vs []types.Version) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Reference.String())
	}
	return out
}

func runAnalyzeScenario(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()

	first := []gitref.Observed{
		obs(types.NewBranch("main"), "c2", t0.Add(2*time.Hour)),
		obs(types.NewTag("1.0.0"), "c1", t0.Add(time.Hour)),
		obs(types.NewTag("2.0.0-beta.1"), "c2", t0.Add(2*time.Hour)),
	}
	report, err := svc.Analyze(ctx, pkg, first)
	require.NoError(t, err)

	assert.Equal(t, pkg, report.Package)
	assert.Len(t, report.Added, 3)
	assert.Empty(t, report.Deleted)
	assert.Empty(t, report.Kept)
	assert.NotEmpty(t, report.Diff)
	for _, v := range report.Added {
		assert.NotEmpty(t, v.ID)
	}
	require.NotNil(t, report.Latest.DefaultBranch)
	require.NotNil(t, report.Latest.Release)
	require.NotNil(t, report.Latest.PreRelease)
	assert.Equal(t, "main", report.Latest.DefaultBranch.Reference.String())
	assert.Equal(t, "1.0.0", report.Latest.Release.Reference.String())
	assert.Equal(t, "2.0.0-beta.1", report.Latest.PreRelease.Reference.String())

	again, err := svc.Analyze(ctx, pkg, first)
	require.NoError(t, err)
	assert.Empty(t, again.Added)
	assert.Empty(t, again.Deleted)
	assert.Empty(t, again.Reclassified)
	assert.Len(t, again.Kept, 3)
	assert.Empty(t, again.Diff)

	moved := []gitref.Observed{
		obs(types.NewBranch("main"), "c3", t0.Add(3*time.Hour)),
		obs(types.NewTag("1.0.0"), "c1", t0.Add(time.Hour)),
		obs(types.NewTag("2.0.0-beta.1"), "c2", t0.Add(2*time.Hour)),
		obs(types.NewTag("2.0.0"), "c3", t0.Add(3*time.Hour)),
	}
	report, err = svc.Analyze(ctx, pkg, moved)
	require.NoError(t, err)

	assert.Equal(t, []string{"main"}, refNames(report.Deleted))
	assert.Equal(t, "c2", report.Deleted[0].CommitHash)
	assert.ElementsMatch(t, []string{"main", "2.0.0"}, refNames(report.Added))
	assert.ElementsMatch(t, []string{"1.0.0", "2.0.0-beta.1"}, refNames(report.Kept))
	assert.Equal(t, []string{"1.0.0"}, refNames(report.Reclassified))
	assert.Equal(t, types.KindNone, report.Reclassified[0].Kind)
	assert.Equal(t, "2.0.0", report.Latest.Release.Reference.String())
	assert.Equal(t, "c3", report.Latest.DefaultBranch.CommitHash)

	versions, err := svc.Versions(ctx, pkg)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "2.0.0-beta.1", "2.0.0", "main"}, refNames(versions))
	kinds := map[string]types.Kind{}
	for _, v := range versions {
		kinds[v.Reference.String()] = v.Kind
	}
	assert.Equal(t, map[string]types.Kind{
		"1.0.0":        types.KindNone,
		"2.0.0-beta.1": types.KindPreRelease,
		"2.0.0":        types.KindRelease,
		"main":         types.KindDefaultBranch,
	}, kinds)

	pkgs, err := svc.Packages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{pkg}, pkgs)
}

func TestAnalyzeMemory(t *testing.T) {
	svc := newService(t, memoryConfig(""))
	runAnalyzeScenario(t, svc)

	archived, err := svc.ArchivedVersions(context.Background(), pkg)
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestAnalyzeArchivesDeletedVersions(t *testing.T) {
	svc := newService(t, memoryConfig(filepath.Join(t.TempDir(), "archive.db")))
	runAnalyzeScenario(t, svc)

	archived, err := svc.ArchivedVersions(context.Background(), pkg)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "main", archived[0].Reference.String())
	assert.Equal(t, "c2", archived[0].CommitHash)
}

func TestAnalyzeKeyDB(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	svc := newService(t, config.Config{
		Storage: config.StorageConfig{Backend: config.StorageBackendKeyDB},
		KeyDB:   config.KeyDBConfig{Addr: mini.Addr()},
	})
	runAnalyzeScenario(t, svc)
}

func TestNewKeyDBUnreachable(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	addr := mini.Addr()
	mini.Close()

	_, err = New(context.Background(), config.Config{
		Storage: config.StorageConfig{Backend: config.StorageBackendKeyDB},
		KeyDB:   config.KeyDBConfig{Addr: addr},
	})
	assert.Error(t, err)
}

func TestAnalyzeRequiresPackage(t *testing.T) {
	svc := newService(t, memoryConfig(""))
	_, err := svc.Analyze(context.Background(), "", nil)

	var ve *storage.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestAnalyzeEmptyIncomingDeletesEverything(t *testing.T) {
	svc := newService(t, memoryConfig(""))
	ctx := context.Background()

	_, err := svc.Analyze(ctx, pkg, []gitref.Observed{obs(types.NewBranch("main"), "c1", t0)})
	require.NoError(t, err)

	report, err := svc.Analyze(ctx, pkg, nil)
	require.NoError(t, err)
	assert.Len(t, report.Deleted, 1)
	assert.Empty(t, report.Added)
	assert.Nil(t, report.Latest.DefaultBranch)

	versions, err := svc.Versions(ctx, pkg)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestBuildMatrices(t *testing.T) {
	svc := newService(t, memoryConfig(""))
	ctx := context.Background()

	_, err := svc.Analyze(ctx, pkg, []gitref.Observed{
		obs(types.NewBranch("main"), "c2", t0.Add(2*time.Hour)),
		obs(types.NewTag("1.0.0"), "c1", t0.Add(time.Hour)),
		obs(types.NewTag("2.0.0-beta.1"), "c2", t0.Add(2*time.Hour)),
		obs(types.NewTag("0.9.0"), "c0", t0),
	})
	require.NoError(t, err)

	record := func(ref types.Reference, platform types.BuildPlatform, status types.BuildStatus) {
		_, err := svc.RecordBuild(ctx, storage.BuildRequest{
			PackageURL:   pkg,
			Reference:    ref,
			Platform:     platform,
			SwiftVersion: "5.5.2",
			Status:       status,
		})
		require.NoError(t, err)
	}
	record(types.NewBranch("main"), types.PlatformIOS, types.BuildStatusOK)
	record(types.NewTag("1.0.0"), types.PlatformIOS, types.BuildStatusOK)
	record(types.NewTag("2.0.0-beta.1"), types.PlatformIOS, types.BuildStatusFailed)
	record(types.NewTag("0.9.0"), types.PlatformTvOS, types.BuildStatusOK)

	m, err := svc.BuildMatrices(ctx, pkg)
	require.NoError(t, err)
	assert.Equal(t, pkg, m.Package)

	require.Len(t, m.Platforms, 2)
	assert.Equal(t, []buildmatrix.GroupReference{
		{Name: "1.0.0", Kind: types.KindRelease},
		{Name: "main", Kind: types.KindDefaultBranch},
	}, m.Platforms[0].References)
	assert.Equal(t, buildmatrix.Compatible, m.Platforms[0].Results.Get(buildmatrix.IOS))
	assert.Equal(t, buildmatrix.Unknown, m.Platforms[0].Results.Get(buildmatrix.TvOS))
	assert.Equal(t, []buildmatrix.GroupReference{
		{Name: "2.0.0-beta.1", Kind: types.KindPreRelease},
	}, m.Platforms[1].References)
	assert.Equal(t, buildmatrix.Incompatible, m.Platforms[1].Results.Get(buildmatrix.IOS))

	versions, err := svc.Versions(ctx, pkg)
	require.NoError(t, err)
	for _, v := range versions {
		if v.Reference.String() != "main" {
			continue
		}
		builds, err := svc.Builds(ctx, v.ID)
		require.NoError(t, err)
		require.Len(t, builds, 1)
		assert.Equal(t, types.PlatformIOS, builds[0].Platform)
		assert.Equal(t, types.BuildStatusOK, builds[0].Status)
	}

	require.Len(t, m.SwiftVersions, 2)
	assert.Equal(t, buildmatrix.Compatible, m.SwiftVersions[0].Results.Get(buildmatrix.Swift5_5))
	assert.Equal(t, buildmatrix.Incompatible, m.SwiftVersions[1].Results.Get(buildmatrix.Swift5_5))
}

func TestRecordBuildUnknownReference(t *testing.T) {
	svc := newService(t, memoryConfig(""))

	_, err := svc.RecordBuild(context.Background(), storage.BuildRequest{
		PackageURL:   pkg,
		Reference:    types.NewTag("9.9.9"),
		Platform:     types.PlatformIOS,
		SwiftVersion: "5.6",
		Status:       types.BuildStatusOK,
	})
	var nf *storage.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestMatricesFromRecordsEmpty(t *testing.T) {
	m := MatricesFromRecords(pkg, nil)
	assert.Equal(t, pkg, m.Package)
	assert.Nil(t, m.Platforms)
	assert.Nil(t, m.SwiftVersions)
}

func TestAnalyzeRepositoryMissingPath(t *testing.T) {
	svc := newService(t, memoryConfig(""))
	_, err := svc.AnalyzeRepository(context.Background(), pkg, t.TempDir(), gitref.Options{})
	assert.Error(t, err)
}
