package types

import (
	"encoding/json"
	"errors"
)

type referenceType uint8

const (
	referenceNone referenceType = iota
	referenceBranch
	referenceTag
)

// Reference identifies a git branch or tag. Tags keep the string they were
// published under next to the parsed version, so "v1.0.0" and "1.0.0" stay
// distinct references.
type Reference struct {
	typ    referenceType
	name   string
	semVer SemanticVersion
	parsed bool
}

// NewBranch returns a branch reference.
func NewBranch(name string) Reference {
	return Reference{typ: referenceBranch, name: name}
}

// NewTag returns a tag reference. Tags that are not semantic versions are
// still valid references, they just never qualify as a release.
func NewTag(name string) Reference {
	v, ok := ParseSemanticVersion(name)
	return Reference{typ: referenceTag, name: name, semVer: v, parsed: ok}
}

// NewTagVersion returns a tag reference named after v.
func NewTagVersion(v SemanticVersion) Reference {
	return Reference{typ: referenceTag, name: v.String(), semVer: v, parsed: true}
}

// IsZero reports whether r was never initialised.
func (r Reference) IsZero() bool { return r.typ == referenceNone }

func (r Reference) IsBranch() bool { return r.typ == referenceBranch }

func (r Reference) IsTag() bool { return r.typ == referenceTag }

// BranchName returns the branch name, or "" for tags.
func (r Reference) BranchName() string {
	if r.typ != referenceBranch {
		return ""
	}
	return r.name
}

// TagName returns the tag as published, or "" for branches.
func (r Reference) TagName() string {
	if r.typ != referenceTag {
		return ""
	}
	return r.name
}

// SemVer returns the parsed version of a tag. ok is false for branches and
// for tags that do not parse.
func (r Reference) SemVer() (SemanticVersion, bool) {
	if r.typ != referenceTag || !r.parsed {
		return SemanticVersion{}, false
	}
	return r.semVer, true
}

// IsRelease reports whether r is a tag holding a stable semantic version.
func (r Reference) IsRelease() bool {
	v, ok := r.SemVer()
	return ok && v.IsStable()
}

// IsPreRelease reports whether r is a tag holding an unstable semantic version.
func (r Reference) IsPreRelease() bool {
	v, ok := r.SemVer()
	return ok && !v.IsStable()
}

// String returns the branch name or the tag as published.
func (r Reference) String() string {
	return r.name
}

type referenceJSON struct {
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Tag    string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

func (r Reference) MarshalJSON() ([]byte, error) {
	switch r.typ {
	case referenceBranch:
		return json.Marshal(referenceJSON{Branch: r.name})
	case referenceTag:
		return json.Marshal(referenceJSON{Tag: r.name})
	}
	return []byte("null"), nil
}

// MarshalYAML uses the same branch/tag mapping as the JSON encoding.
func (r Reference) MarshalYAML() (any, error) {
	switch r.typ {
	case referenceBranch:
		return referenceJSON{Branch: r.name}, nil
	case referenceTag:
		return referenceJSON{Tag: r.name}, nil
	}
	return nil, nil
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reference{}
		return nil
	}
	var raw referenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Branch != "" && raw.Tag != "":
		return errors.New("reference cannot be both branch and tag")
	case raw.Branch != "":
		*r = NewBranch(raw.Branch)
	case raw.Tag != "":
		*r = NewTag(raw.Tag)
	default:
		return errors.New("reference requires a branch or tag")
	}
	return nil
}

// ImmutableReference pins a reference to the commit it resolved to when it
// was observed. Two values are equal only if both parts match.
type ImmutableReference struct {
	Reference  Reference `json:"reference" yaml:"reference"`
	CommitHash string    `json:"commitHash" yaml:"commitHash"`
}

func (r ImmutableReference) String() string {
	return r.Reference.String() + "@" + r.CommitHash
}
