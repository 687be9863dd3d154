// Package gitref lists the branches and tags of a git repository together
// with the commit each one currently points to.
package gitref

import (
	"errors"
	"fmt"
	"sort"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

// Options controls which references are listed.
type Options struct {
	// DefaultBranch overrides the branch HEAD points at.
	DefaultBranch string
	// AllBranches lists every local branch instead of only the default one.
	AllBranches bool
}

// Observed is a reference as seen in the repository right now.
type Observed struct {
	Reference  types.Reference
	CommitHash string
	CommitDate time.Time
}

// Version returns an unsaved version of pkg for the observed reference.
func (o Observed) Version(pkg string) types.Version {
	return types.Version{
		PackageURL: pkg,
		Reference:  o.Reference,
		CommitHash: o.CommitHash,
		CommitDate: o.CommitDate,
	}
}

// ImmutableReference projects o onto its reference and commit.
func (o Observed) ImmutableReference() types.ImmutableReference {
	return types.ImmutableReference{Reference: o.Reference, CommitHash: o.CommitHash}
}

// List opens the repository at path and lists its references.
func List(path string, opts Options) ([]Observed, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return FromRepository(repo, opts)
}

// FromRepository lists the default branch (or every branch) and all tags of
// repo, branches first, each group sorted by name.
func FromRepository(repo *git.Repository, opts Options) ([]Observed, error) {
	branches, err := listBranches(repo, opts)
	if err != nil {
		return nil, err
	}
	tags, err := listTags(repo)
	if err != nil {
		return nil, err
	}
	return append(branches, tags...), nil
}

// DefaultBranch returns the short name of the branch HEAD points at, or ""
// for a repository without commits or with a detached HEAD.
func DefaultBranch(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}

func listBranches(repo *git.Repository, opts Options) ([]Observed, error) {
	if opts.AllBranches {
		iter, err := repo.Branches()
		if err != nil {
			return nil, err
		}
		var out []Observed
		err = iter.ForEach(func(ref *plumbing.Reference) error {
			commit, err := repo.CommitObject(ref.Hash())
			if err != nil {
				return fmt.Errorf("branch %s: %w", ref.Name().Short(), err)
			}
			out = append(out, observed(types.NewBranch(ref.Name().Short()), commit))
			return nil
		})
		if err != nil {
			return nil, err
		}
		sortByName(out)
		return out, nil
	}

	name := opts.DefaultBranch
	if name == "" {
		var err error
		if name, err = DefaultBranch(repo); err != nil {
			return nil, err
		}
		if name == "" {
			logrus.Debug("repository has no default branch")
			return nil, nil
		}
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return nil, fmt.Errorf("branch %s: %w", name, err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("branch %s: %w", name, err)
	}
	return []Observed{observed(types.NewBranch(name), commit)}, nil
}

func listTags(repo *git.Repository) ([]Observed, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, err
	}
	var out []Observed
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		commit, err := peel(repo, ref.Hash())
		if errors.Is(err, object.ErrUnsupportedObject) {
			logrus.Debugf("skipping tag %s: does not point at a commit", name)
			return nil
		}
		if err != nil {
			return fmt.Errorf("tag %s: %w", name, err)
		}
		out = append(out, observed(types.NewTag(name), commit))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByName(out)
	return out, nil
}

// peel resolves a tag ref hash to its commit, following annotated tags.
func peel(repo *git.Repository, hash plumbing.Hash) (*object.Commit, error) {
	tag, err := repo.TagObject(hash)
	switch {
	case err == nil:
		return tag.Commit()
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return repo.CommitObject(hash)
	default:
		return nil, err
	}
}

func observed(ref types.Reference, commit *object.Commit) Observed {
	return Observed{
		Reference:  ref,
		CommitHash: commit.Hash.String(),
		CommitDate: commit.Committer.When.UTC(),
	}
}

func sortByName(obs []Observed) {
	sort.Slice(obs, func(i, j int) bool {
		return obs[i].Reference.String() < obs[j].Reference.String()
	})
}
