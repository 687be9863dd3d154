// Package service wires storage, reference reconciliation and build matrix
// aggregation into the operations the CLI exposes.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/buildmatrix"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/config"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/gitref"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/reconcile"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/storage"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

// Service holds business logic and storage dependencies.
type Service struct {
	store   storage.Store
	archive storage.Archive
}

// New constructs the service wiring.
func New(ctx context.Context, cfg config.Config) (*Service, error) {
	var archive storage.Archive
	if cfg.Archive.Path != "" {
		arc, err := storage.NewBoltArchive(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		archive = arc
	}

	options := storage.Options{Archive: archive}

	var (
		store storage.Store
		err   error
	)

	switch cfg.Storage.Backend {
	case config.StorageBackendKeyDB:
		store, err = storage.NewKeyDBStore(cfg.KeyDB.Store(), options)
		if err != nil {
			if archive != nil {
				_ = archive.Close()
			}
			return nil, err
		}
	default:
		store = storage.NewMemoryStore(options)
	}

	logrus.WithFields(logrus.Fields{
		"backend": cfg.Storage.Backend,
		"archive": cfg.Archive.Path,
	}).Debug("service initialised")

	return &Service{store: store, archive: archive}, nil
}

// Close releases the store and the archive.
func (s *Service) Close() error {
	err := s.store.Close()
	if s.archive != nil {
		err = errors.Join(err, s.archive.Close())
	}
	return err
}

// LatestVersions holds the version currently classified for each kind.
type LatestVersions struct {
	DefaultBranch *types.Version `json:"defaultBranch,omitempty" yaml:"defaultBranch,omitempty"`
	Release       *types.Version `json:"release,omitempty" yaml:"release,omitempty"`
	PreRelease    *types.Version `json:"preRelease,omitempty" yaml:"preRelease,omitempty"`
}

// Report describes what one analysis run changed.
type Report struct {
	Package      string          `json:"package" yaml:"package"`
	Added        []types.Version `json:"added" yaml:"added"`
	Deleted      []types.Version `json:"deleted" yaml:"deleted"`
	Kept         []types.Version `json:"kept" yaml:"kept"`
	Reclassified []types.Version `json:"reclassified,omitempty" yaml:"reclassified,omitempty"`
	Latest       LatestVersions  `json:"latest" yaml:"latest"`
	Diff         string          `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// AnalyzeRepository lists the references of the git repository at path and
// reconciles them into pkg.
func (s *Service) AnalyzeRepository(ctx context.Context, pkg, path string, opts gitref.Options) (Report, error) {
	observed, err := gitref.List(path, opts)
	if err != nil {
		return Report{}, err
	}
	return s.Analyze(ctx, pkg, observed)
}

// Analyze reconciles the stored versions of pkg against the observed
// references: vanished or moved references are deleted, new ones inserted
// and every surviving version reclassified.
func (s *Service) Analyze(ctx context.Context, pkg string, observed []gitref.Observed) (Report, error) {
	if pkg == "" {
		return Report{}, &storage.ValidationError{Message: "package is required"}
	}

	local, err := s.store.ListVersions(ctx, pkg)
	if err != nil {
		return Report{}, fmt.Errorf("list versions: %w", err)
	}

	incoming := make([]types.Version, 0, len(observed))
	for _, o := range observed {
		incoming = append(incoming, o.Version(pkg))
	}

	outcome := reconcile.Reconcile(local, incoming)
	report := Report{
		Package:      pkg,
		Deleted:      outcome.Diff.ToDelete,
		Kept:         outcome.Versions[:len(outcome.Diff.ToKeep)],
		Added:        outcome.Added(),
		Reclassified: outcome.Reclassified,
	}

	changes := storage.VersionChanges{
		Delete: outcome.Diff.ToDelete,
		Insert: outcome.Added(),
		Update: outcome.Reclassified,
	}
	if len(changes.Delete)+len(changes.Insert)+len(changes.Update) > 0 {
		res, err := s.store.ApplyVersionChanges(ctx, pkg, changes)
		if err != nil {
			return Report{}, fmt.Errorf("apply version changes: %w", err)
		}
		report.Added = res.Inserted
		report.Diff = res.Diff
	}

	current := append(append([]types.Version{}, report.Kept...), report.Added...)
	report.Latest = latestVersions(current)

	entry := logrus.WithFields(logrus.Fields{
		"package":      pkg,
		"added":        len(report.Added),
		"deleted":      len(report.Deleted),
		"kept":         len(report.Kept),
		"reclassified": len(report.Reclassified),
	})
	entry.Info("reconciled versions")
	if report.Diff != "" {
		entry.Debugf("version changes:\n%s", report.Diff)
	}

	return report, nil
}

func latestVersions(versions []types.Version) LatestVersions {
	pick := func(kind types.Kind) *types.Version {
		v, ok := reconcile.Latest(versions, kind)
		if !ok {
			return nil
		}
		return &v
	}
	return LatestVersions{
		DefaultBranch: pick(types.KindDefaultBranch),
		Release:       pick(types.KindRelease),
		PreRelease:    pick(types.KindPreRelease),
	}
}

// RecordBuild stores the outcome of one build.
func (s *Service) RecordBuild(ctx context.Context, req storage.BuildRequest) (types.Build, error) {
	build, err := s.store.PutBuild(ctx, req)
	if err != nil {
		return types.Build{}, err
	}
	logrus.WithFields(logrus.Fields{
		"package":  req.PackageURL,
		"version":  build.VersionID,
		"platform": build.Platform,
		"swift":    build.SwiftVersion,
		"status":   build.Status,
	}).Info("recorded build")
	return build, nil
}

// Matrices is the compatibility overview of a package.
type Matrices struct {
	Package       string                                                    `json:"package" yaml:"package"`
	Platforms     []buildmatrix.BuildGroup[buildmatrix.PlatformResults]     `json:"platforms" yaml:"platforms"`
	SwiftVersions []buildmatrix.BuildGroup[buildmatrix.SwiftVersionResults] `json:"swiftVersions" yaml:"swiftVersions"`
}

// BuildMatrices aggregates the stored builds of pkg.
func (s *Service) BuildMatrices(ctx context.Context, pkg string) (Matrices, error) {
	records, err := s.store.ListBuildRecords(ctx, pkg)
	if err != nil {
		return Matrices{}, fmt.Errorf("list builds: %w", err)
	}
	return MatricesFromRecords(pkg, records), nil
}

// MatricesFromRecords aggregates build records gathered elsewhere.
func MatricesFromRecords(pkg string, records []types.BuildRecord) Matrices {
	return Matrices{
		Package:       pkg,
		Platforms:     buildmatrix.GroupBuildInfo(buildmatrix.PlatformBuildInfo(records)),
		SwiftVersions: buildmatrix.GroupBuildInfo(buildmatrix.SwiftVersionBuildInfo(records)),
	}
}

// Versions returns the stored versions of pkg.
func (s *Service) Versions(ctx context.Context, pkg string) ([]types.Version, error) {
	return s.store.ListVersions(ctx, pkg)
}

// ArchivedVersions returns the versions of pkg deleted by earlier runs.
func (s *Service) ArchivedVersions(ctx context.Context, pkg string) ([]types.Version, error) {
	return storage.ArchivedVersions(ctx, s.archive, pkg)
}

// Packages lists every package with stored versions.
func (s *Service) Packages(ctx context.Context) ([]string, error) {
	return s.store.ListPackages(ctx)
}

// Builds returns the builds recorded for one version.
func (s *Service) Builds(ctx context.Context, versionID string) ([]types.Build, error) {
	return s.store.ListBuilds(ctx, versionID)
}
