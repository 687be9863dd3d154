package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

// Store defines the persistence operations for package versions and builds.
type Store interface {
	ListPackages(ctx context.Context) ([]string, error)
	ListVersions(ctx context.Context, pkg string) ([]types.Version, error)
	ApplyVersionChanges(ctx context.Context, pkg string, changes VersionChanges) (ChangeResult, error)
	PutBuild(ctx context.Context, req BuildRequest) (types.Build, error)
	ListBuilds(ctx context.Context, versionID string) ([]types.Build, error)
	ListBuildRecords(ctx context.Context, pkg string) ([]types.BuildRecord, error)
	Close() error
}

// NotFoundError signals missing records.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " " + e.Key + " not found"
}

// ConflictError signals concurrent modification or duplicate creation attempts.
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return e.Resource + " " + e.Key + " conflicts with existing state"
}

// ValidationError represents invalid input supplied by clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// memoryStore provides an in-memory fallback for development and testing.
type memoryStore struct {
	mu       sync.RWMutex
	clock    func() time.Time
	newID    func() string
	versions map[string]map[string]types.Version // package -> id -> version
	builds   map[string]map[string]types.Build   // version id -> slot -> build
	archive  Archive
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore(opts Options) Store {
	return &memoryStore{
		clock:    time.Now,
		newID:    uuid.NewString,
		versions: make(map[string]map[string]types.Version),
		builds:   make(map[string]map[string]types.Build),
		archive:  opts.Archive,
	}
}

func (m *memoryStore) ListPackages(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.versions))
	for name := range m.versions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (m *memoryStore) ListVersions(ctx context.Context, pkg string) ([]types.Version, error) {
	if pkg == "" {
		return nil, &ValidationError{Message: "package is required"}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listVersionsLocked(pkg), nil
}

func (m *memoryStore) listVersionsLocked(pkg string) []types.Version {
	pkgVersions := m.versions[pkg]
	out := make([]types.Version, 0, len(pkgVersions))
	for _, v := range pkgVersions {
		out = append(out, v)
	}
	sortVersions(out)
	return out
}

func (m *memoryStore) ApplyVersionChanges(ctx context.Context, pkg string, changes VersionChanges) (ChangeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if pkg == "" {
		return ChangeResult{}, &ValidationError{Message: "package is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.versions[pkg]
	for _, v := range changes.Delete {
		if _, ok := current[v.ID]; !ok {
			return ChangeResult{}, &NotFoundError{Resource: "version", Key: v.ID}
		}
	}
	for _, v := range changes.Update {
		if _, ok := current[v.ID]; !ok {
			return ChangeResult{}, &NotFoundError{Resource: "version", Key: v.ID}
		}
	}
	inserts := make([]types.Version, 0, len(changes.Insert))
	for _, v := range changes.Insert {
		if err := validateInsert(pkg, v); err != nil {
			return ChangeResult{}, err
		}
		if v.ID == "" {
			v.ID = m.newID()
		} else if _, exists := current[v.ID]; exists {
			return ChangeResult{}, &ConflictError{Resource: "version", Key: v.ID}
		}
		v.PackageURL = pkg
		inserts = append(inserts, v)
	}

	deleted := make([]types.Version, 0, len(changes.Delete))
	for _, v := range changes.Delete {
		deleted = append(deleted, current[v.ID])
	}
	if err := archiveVersions(ctx, m.archive, pkg, deleted); err != nil {
		return ChangeResult{}, err
	}

	previous := describeVersions(m.listVersionsLocked(pkg))

	if current == nil {
		current = make(map[string]types.Version)
		m.versions[pkg] = current
	}
	for _, v := range deleted {
		delete(current, v.ID)
		delete(m.builds, v.ID)
	}
	for _, v := range changes.Update {
		existing := current[v.ID]
		existing.Kind = v.Kind
		current[v.ID] = existing
	}
	for _, v := range inserts {
		current[v.ID] = v
	}
	if len(current) == 0 {
		delete(m.versions, pkg)
	}

	return ChangeResult{
		Inserted: inserts,
		Deleted:  len(deleted),
		Updated:  len(changes.Update),
		Diff:     computeDiff(previous, describeVersions(m.listVersionsLocked(pkg))),
	}, nil
}

func (m *memoryStore) PutBuild(ctx context.Context, req BuildRequest) (types.Build, error) {
	if err := req.validate(); err != nil {
		return types.Build{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		version types.Version
		found   bool
	)
	for _, v := range m.listVersionsLocked(req.PackageURL) {
		if req.matches(v) {
			version, found = v, true
			break
		}
	}
	if !found {
		key := req.VersionID
		if key == "" {
			key = req.Reference.String()
		}
		return types.Build{}, &NotFoundError{Resource: "version", Key: key}
	}

	slots, ok := m.builds[version.ID]
	if !ok {
		slots = make(map[string]types.Build)
		m.builds[version.ID] = slots
	}

	slot := buildSlot(req.Platform, req.SwiftVersion)
	build := types.Build{
		ID:           m.newID(),
		VersionID:    version.ID,
		Platform:     req.Platform,
		SwiftVersion: req.SwiftVersion,
		Status:       req.Status,
		LogURL:       req.LogURL,
		CreatedAt:    m.clock().UTC(),
	}
	if existing, ok := slots[slot]; ok {
		build.ID = existing.ID
	}
	slots[slot] = build
	return build, nil
}

func (m *memoryStore) ListBuilds(ctx context.Context, versionID string) ([]types.Build, error) {
	if versionID == "" {
		return nil, &ValidationError{Message: "version id is required"}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBuildsLocked(versionID), nil
}

func (m *memoryStore) listBuildsLocked(versionID string) []types.Build {
	slots := m.builds[versionID]
	out := make([]types.Build, 0, len(slots))
	for _, b := range slots {
		out = append(out, b)
	}
	sortBuilds(out)
	return out
}

func (m *memoryStore) ListBuildRecords(ctx context.Context, pkg string) ([]types.BuildRecord, error) {
	if pkg == "" {
		return nil, &ValidationError{Message: "package is required"}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.listVersionsLocked(pkg)
	byVersion := make(map[string][]types.Build, len(versions))
	for _, v := range versions {
		byVersion[v.ID] = m.listBuildsLocked(v.ID)
	}
	return buildRecords(versions, byVersion), nil
}

func (m *memoryStore) Close() error { return nil }
