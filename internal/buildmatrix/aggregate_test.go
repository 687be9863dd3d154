package buildmatrix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

func record(kind types.Kind, ref types.Reference, platform types.BuildPlatform, swift string, status types.BuildStatus) types.BuildRecord {
	return types.BuildRecord{
		VersionKind:  kind,
		Reference:    ref,
		BuildID:      string(platform) + "/" + swift,
		SwiftVersion: swift,
		Platform:     platform,
		Status:       status,
	}
}

func scenario() []types.BuildRecord {
	branch := types.NewBranch("main")
	k := types.KindDefaultBranch
	return []types.BuildRecord{
		record(k, branch, types.PlatformIOS, "5.6.0", types.BuildStatusFailed),
		record(k, branch, types.PlatformIOS, "5.5.2", types.BuildStatusFailed),
		record(k, branch, types.PlatformMacOSSPM, "5.6.0", types.BuildStatusFailed),
		record(k, branch, types.PlatformMacOSXcodebuild, "5.5.2", types.BuildStatusFailed),
		record(k, branch, types.PlatformWatchOS, "5.6.0", types.BuildStatusFailed),
		record(k, branch, types.PlatformWatchOS, "5.5.2", types.BuildStatusOK),
	}
}

func TestPlatformBuildResultsScenario(t *testing.T) {
	res := PlatformBuildResults(scenario(), types.KindDefaultBranch)
	require.NotNil(t, res)
	assert.Equal(t, "main", res.ReferenceName)
	assert.Equal(t, types.KindDefaultBranch, res.Kind)

	assert.Equal(t, Incompatible, res.Results.Get(IOS))
	assert.Equal(t, Incompatible, res.Results.Get(MacOS))
	assert.Equal(t, Unknown, res.Results.Get(TvOS))
	assert.Equal(t, Compatible, res.Results.Get(WatchOS))
}

func TestSwiftVersionBuildResultsScenario(t *testing.T) {
	res := SwiftVersionBuildResults(scenario(), types.KindDefaultBranch)
	require.NotNil(t, res)
	assert.Equal(t, "main", res.ReferenceName)

	assert.Equal(t, Unknown, res.Results.Get(Swift5_3))
	assert.Equal(t, Unknown, res.Results.Get(Swift5_4))
	assert.Equal(t, Compatible, res.Results.Get(Swift5_5))
	assert.Equal(t, Incompatible, res.Results.Get(Swift5_6))
}

func TestPlatformBuildResultsAnySuccessWins(t *testing.T) {
	tag := types.NewTag("1.0.0")
	k := types.KindRelease

	for _, tc := range []struct {
		name   string
		builds []types.BuildRecord
		want   Compatibility
	}{
		{
			"one ok one failed",
			[]types.BuildRecord{
				record(k, tag, types.PlatformIOS, "5.6", types.BuildStatusFailed),
				record(k, tag, types.PlatformIOS, "5.5", types.BuildStatusOK),
			},
			Compatible,
		},
		{
			"only failures",
			[]types.BuildRecord{
				record(k, tag, types.PlatformIOS, "5.6", types.BuildStatusFailed),
				record(k, tag, types.PlatformIOS, "5.5", types.BuildStatusTimeout),
			},
			Incompatible,
		},
		{
			"no ios rows",
			[]types.BuildRecord{
				record(k, tag, types.PlatformTvOS, "5.6", types.BuildStatusOK),
			},
			Unknown,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := PlatformBuildResults(tc.builds, k)
			require.NotNil(t, res)
			assert.Equal(t, tc.want, res.Results.Get(IOS))
		})
	}
}

func TestBuildResultsNoRowsForKind(t *testing.T) {
	assert.Nil(t, PlatformBuildResults(scenario(), types.KindRelease))
	assert.Nil(t, SwiftVersionBuildResults(scenario(), types.KindPreRelease))
	assert.Nil(t, PlatformBuildResults(nil, types.KindDefaultBranch))
	assert.Nil(t, PlatformBuildResults(scenario(), types.KindNone))
}

func TestBuildResultsIgnoreUntrackedKeys(t *testing.T) {
	tag := types.NewTag("1.0.0")
	k := types.KindRelease
	builds := []types.BuildRecord{
		record(k, tag, types.PlatformLinux, "5.6", types.BuildStatusOK),
		record(k, tag, types.PlatformIOS, "4.2", types.BuildStatusOK),
	}

	platforms := PlatformBuildResults(builds, k)
	require.NotNil(t, platforms)
	assert.Equal(t, Compatible, platforms.Results.Get(IOS))
	assert.Equal(t, Unknown, platforms.Results.Get(MacOS))

	swift := SwiftVersionBuildResults(builds, k)
	require.NotNil(t, swift)
	assert.Equal(t, Compatible, swift.Results.Get(Swift5_6))
	assert.Equal(t, Unknown, swift.Results.Get(Swift5_3))
}

func TestParseSwiftVersion(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  SwiftVersion
		ok    bool
	}{
		{"5.6", Swift5_6, true},
		{"5.6.1", Swift5_6, true},
		{"5.6.0", Swift5_6, true},
		{"v5.3", Swift5_3, true},
		{"5.4.3", Swift5_4, true},
		{"4.2", 0, false},
		{"5", 0, false},
		{"5.x", 0, false},
		{"", 0, false},
	} {
		got, ok := ParseSwiftVersion(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.input)
		}
	}
}

func TestNewBuildInfo(t *testing.T) {
	assert.Nil(t, NewBuildInfo[PlatformResults](nil, nil, nil))

	named := &NamedResults[PlatformResults]{ReferenceName: "main"}
	assert.NotNil(t, NewBuildInfo(named, nil, nil))
	assert.NotNil(t, NewBuildInfo(nil, named, nil))
	assert.NotNil(t, NewBuildInfo(nil, nil, named))
}

func TestPlatformBuildInfo(t *testing.T) {
	assert.Nil(t, PlatformBuildInfo(nil))
	assert.Nil(t, SwiftVersionBuildInfo([]types.BuildRecord{
		record(types.KindNone, types.NewTag("0.9.0"), types.PlatformIOS, "5.6", types.BuildStatusOK),
	}))

	builds := append(scenario(),
		record(types.KindRelease, types.NewTag("1.0.0"), types.PlatformIOS, "5.6", types.BuildStatusOK),
	)
	info := PlatformBuildInfo(builds)
	require.NotNil(t, info)
	require.NotNil(t, info.Stable)
	assert.Nil(t, info.Beta)
	require.NotNil(t, info.Latest)
	assert.Equal(t, "1.0.0", info.Stable.ReferenceName)
	assert.Equal(t, "main", info.Latest.ReferenceName)
	assert.Equal(t, Compatible, info.Stable.Results.Get(IOS))
	assert.Equal(t, Incompatible, info.Latest.Results.Get(IOS))
}

func TestGroupBuildInfo(t *testing.T) {
	var shared, distinct PlatformResults
	shared.Status[IOS] = Compatible
	shared.Status[MacOS] = Incompatible
	distinct.Status[IOS] = Incompatible

	info := NewBuildInfo(
		&NamedResults[PlatformResults]{ReferenceName: "1.2.3", Kind: types.KindRelease, Results: shared},
		&NamedResults[PlatformResults]{ReferenceName: "2.0.0-b1", Kind: types.KindPreRelease, Results: distinct},
		&NamedResults[PlatformResults]{ReferenceName: "main", Kind: types.KindDefaultBranch, Results: shared},
	)

	groups := GroupBuildInfo(info)
	require.Len(t, groups, 2)
	assert.Equal(t, []GroupReference{
		{Name: "1.2.3", Kind: types.KindRelease},
		{Name: "main", Kind: types.KindDefaultBranch},
	}, groups[0].References)
	assert.Equal(t, shared, groups[0].Results)
	assert.Equal(t, []GroupReference{{Name: "2.0.0-b1", Kind: types.KindPreRelease}}, groups[1].References)
	assert.Equal(t, distinct, groups[1].Results)
}

func TestGroupBuildInfoAllDistinctAndAllEqual(t *testing.T) {
	var a, b, c SwiftVersionResults
	a.Status[Swift5_6] = Compatible
	b.Status[Swift5_5] = Compatible
	c.Status[Swift5_4] = Compatible

	groups := GroupBuildInfo(NewBuildInfo(
		&NamedResults[SwiftVersionResults]{ReferenceName: "1.0.0", Kind: types.KindRelease, Results: a},
		&NamedResults[SwiftVersionResults]{ReferenceName: "1.1.0-rc", Kind: types.KindPreRelease, Results: b},
		&NamedResults[SwiftVersionResults]{ReferenceName: "main", Kind: types.KindDefaultBranch, Results: c},
	))
	require.Len(t, groups, 3)
	assert.Equal(t, "1.0.0", groups[0].References[0].Name)
	assert.Equal(t, "1.1.0-rc", groups[1].References[0].Name)
	assert.Equal(t, "main", groups[2].References[0].Name)

	groups = GroupBuildInfo(NewBuildInfo(
		&NamedResults[SwiftVersionResults]{ReferenceName: "1.0.0", Kind: types.KindRelease, Results: a},
		&NamedResults[SwiftVersionResults]{ReferenceName: "1.1.0-rc", Kind: types.KindPreRelease, Results: a},
		&NamedResults[SwiftVersionResults]{ReferenceName: "main", Kind: types.KindDefaultBranch, Results: a},
	))
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].References, 3)

	assert.Nil(t, GroupBuildInfo[SwiftVersionResults](nil))
}

func TestResultsEncoding(t *testing.T) {
	var res PlatformResults
	res.Status[IOS] = Compatible
	res.Status[WatchOS] = Incompatible

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"iOS":"compatible","macOS":"unknown","tvOS":"unknown","watchOS":"incompatible"}`, string(data))

	out, err := yaml.Marshal(res)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]string{"iOS": "compatible", "macOS": "unknown", "tvOS": "unknown", "watchOS": "incompatible"}, decoded)
}
