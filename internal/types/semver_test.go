package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseSemanticVersion(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  SemanticVersion
		ok    bool
	}{
		{"1.2.3", SemanticVersion{Major: 1, Minor: 2, Patch: 3}, true},
		{"v1.2.3", SemanticVersion{Major: 1, Minor: 2, Patch: 3}, true},
		{"2.0.0-beta.1", SemanticVersion{Major: 2, PreRelease: "beta.1"}, true},
		{"1.0.0-rc-1+build.5", SemanticVersion{Major: 1, PreRelease: "rc-1", Build: "build.5"}, true},
		{"1.0.0+20220101", SemanticVersion{Major: 1, Build: "20220101"}, true},
		{"1.2", SemanticVersion{}, false},
		{"v1", SemanticVersion{}, false},
		{"main", SemanticVersion{}, false},
		{"1.2.3.4", SemanticVersion{}, false},
		{"01.2.3", SemanticVersion{}, false},
		{"", SemanticVersion{}, false},
	} {
		got, ok := ParseSemanticVersion(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestSemanticVersionOrdering(t *testing.T) {
	parse := func(s string) SemanticVersion {
		v, ok := ParseSemanticVersion(s)
		require.True(t, ok, s)
		return v
	}

	ordered := []string{
		"0.9.9",
		"1.0.0-alpha",
		"1.0.0-beta",
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"2.0.0-beta1",
		"2.0.0",
	}
	for i := 0; i < len(ordered)-1; i++ {
		a, b := parse(ordered[i]), parse(ordered[i+1])
		assert.True(t, a.Less(b), "%s < %s", a, b)
		assert.False(t, b.Less(a), "%s >= %s", b, a)
	}

	assert.True(t, parse("1.0.0+a").Equal(parse("1.0.0+b")))
	assert.True(t, parse("1.0.0").Equal(SemanticVersion{Major: 1}))
}

func TestSemanticVersionIsStable(t *testing.T) {
	assert.True(t, SemanticVersion{Major: 1}.IsStable())
	assert.True(t, SemanticVersion{Major: 1, PreRelease: ""}.IsStable())
	assert.True(t, SemanticVersion{Major: 1, Build: "b1"}.IsStable())
	assert.False(t, SemanticVersion{Major: 1, PreRelease: "rc1"}.IsStable())
}

func TestReferenceQueries(t *testing.T) {
	branch := NewBranch("main")
	assert.True(t, branch.IsBranch())
	assert.False(t, branch.IsRelease())
	assert.Equal(t, "main", branch.String())
	_, ok := branch.SemVer()
	assert.False(t, ok)

	release := NewTag("v1.2.3")
	assert.True(t, release.IsTag())
	assert.True(t, release.IsRelease())
	assert.False(t, release.IsPreRelease())
	assert.Equal(t, "v1.2.3", release.String())

	pre := NewTag("2.0.0-beta1")
	assert.True(t, pre.IsPreRelease())

	odd := NewTag("nightly")
	assert.True(t, odd.IsTag())
	assert.False(t, odd.IsRelease())
	assert.False(t, odd.IsPreRelease())

	assert.Equal(t, NewTag("1.0.0"), NewTagVersion(SemanticVersion{Major: 1}))
	assert.NotEqual(t, NewTag("1.0.0"), NewTag("v1.0.0"))
	assert.NotEqual(t, NewBranch("1.0.0"), NewTag("1.0.0"))
}

func TestReferenceJSON(t *testing.T) {
	for _, ref := range []Reference{NewBranch("main"), NewTag("1.0.0-rc1"), NewTag("nightly")} {
		data, err := json.Marshal(ref)
		require.NoError(t, err)

		var decoded Reference
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, ref, decoded)
	}

	var ref Reference
	assert.Error(t, json.Unmarshal([]byte(`{}`), &ref))
	assert.Error(t, json.Unmarshal([]byte(`{"branch":"a","tag":"1.0.0"}`), &ref))
}

func TestReferenceYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Branch Reference `yaml:"branch"`
		Tag    Reference `yaml:"tag"`
	}{NewBranch("main"), NewTag("1.0.0")})
	require.NoError(t, err)
	assert.Equal(t, "branch:\n    branch: main\ntag:\n    tag: 1.0.0\n", string(out))
}
