package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

const (
	packageSetKey = "packages"
)

type keydbStore struct {
	client  *redis.Client
	clock   func() time.Time
	newID   func() string
	archive Archive
}

// Config defines KeyDB connection settings.
type Config struct {
	Addr     string
	Username string
	Password string
	Database int
}

// NewKeyDBStore initializes a Store backed by KeyDB.
func NewKeyDBStore(cfg Config, opts Options) (Store, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	redisOpts := &redis.Options{
		Addr:     addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Database,
	}

	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to keydb: %w", err)
	}

	return &keydbStore{
		client:  client,
		clock:   time.Now,
		newID:   uuid.NewString,
		archive: opts.Archive,
	}, nil
}

func (s *keydbStore) ListPackages(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, packageSetKey).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (s *keydbStore) ListVersions(ctx context.Context, pkg string) ([]types.Version, error) {
	if pkg == "" {
		return nil, &ValidationError{Message: "package is required"}
	}
	return s.listVersions(ctx, s.client, pkg)
}

func (s *keydbStore) listVersions(ctx context.Context, c redis.Cmdable, pkg string) ([]types.Version, error) {
	ids, err := c.SMembers(ctx, versionSetKey(pkg)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.Version, 0, len(ids))
	for _, id := range ids {
		v, err := getJSON[types.Version](ctx, c, versionKey(pkg, id))
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	sortVersions(out)
	return out, nil
}

func (s *keydbStore) ApplyVersionChanges(ctx context.Context, pkg string, changes VersionChanges) (ChangeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if pkg == "" {
		return ChangeResult{}, &ValidationError{Message: "package is required"}
	}

	setKey := versionSetKey(pkg)
	var result ChangeResult

	for {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			before, err := s.listVersions(ctx, tx, pkg)
			if err != nil {
				return err
			}
			current := make(map[string]types.Version, len(before))
			for _, v := range before {
				current[v.ID] = v
			}

			deleted := make([]types.Version, 0, len(changes.Delete))
			for _, v := range changes.Delete {
				existing, ok := current[v.ID]
				if !ok {
					return &NotFoundError{Resource: "version", Key: v.ID}
				}
				deleted = append(deleted, existing)
			}
			updated := make([]types.Version, 0, len(changes.Update))
			for _, v := range changes.Update {
				existing, ok := current[v.ID]
				if !ok {
					return &NotFoundError{Resource: "version", Key: v.ID}
				}
				existing.Kind = v.Kind
				updated = append(updated, existing)
			}
			inserts := make([]types.Version, 0, len(changes.Insert))
			for _, v := range changes.Insert {
				if err := validateInsert(pkg, v); err != nil {
					return err
				}
				if v.ID == "" {
					v.ID = s.newID()
				} else if _, exists := current[v.ID]; exists {
					return &ConflictError{Resource: "version", Key: v.ID}
				}
				v.PackageURL = pkg
				inserts = append(inserts, v)
			}

			if err := archiveVersions(ctx, s.archive, pkg, deleted); err != nil {
				return err
			}

			after := make(map[string]types.Version, len(current))
			for id, v := range current {
				after[id] = v
			}

			pipe := tx.TxPipeline()
			for _, v := range deleted {
				delete(after, v.ID)
				slots, err := tx.SMembers(ctx, buildSetKey(v.ID)).Result()
				if err != nil {
					return err
				}
				for _, slot := range slots {
					pipe.Del(ctx, buildKey(v.ID, slot))
				}
				pipe.Del(ctx, buildSetKey(v.ID))
				pipe.Del(ctx, versionKey(pkg, v.ID))
				pipe.SRem(ctx, setKey, v.ID)
			}
			for _, v := range append(updated, inserts...) {
				payload, err := json.Marshal(v)
				if err != nil {
					return err
				}
				after[v.ID] = v
				pipe.Set(ctx, versionKey(pkg, v.ID), payload, 0)
				pipe.SAdd(ctx, setKey, v.ID)
			}
			if len(after) == 0 {
				pipe.SRem(ctx, packageSetKey, pkg)
			} else {
				pipe.SAdd(ctx, packageSetKey, pkg)
			}

			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}

			remaining := make([]types.Version, 0, len(after))
			for _, v := range after {
				remaining = append(remaining, v)
			}
			sortVersions(remaining)

			result = ChangeResult{
				Inserted: inserts,
				Deleted:  len(deleted),
				Updated:  len(updated),
				Diff:     computeDiff(describeVersions(before), describeVersions(remaining)),
			}
			return nil
		}, setKey)

		if err == nil {
			return result, nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return ChangeResult{}, err
	}
}

func (s *keydbStore) PutBuild(ctx context.Context, req BuildRequest) (types.Build, error) {
	if err := req.validate(); err != nil {
		return types.Build{}, err
	}

	versions, err := s.listVersions(ctx, s.client, req.PackageURL)
	if err != nil {
		return types.Build{}, err
	}
	idx := slices.IndexFunc(versions, req.matches)
	if idx < 0 {
		key := req.VersionID
		if key == "" {
			key = req.Reference.String()
		}
		return types.Build{}, &NotFoundError{Resource: "version", Key: key}
	}
	version := versions[idx]

	slot := buildSlot(req.Platform, req.SwiftVersion)
	build := types.Build{
		ID:           s.newID(),
		VersionID:    version.ID,
		Platform:     req.Platform,
		SwiftVersion: req.SwiftVersion,
		Status:       req.Status,
		LogURL:       req.LogURL,
		CreatedAt:    s.clock().UTC(),
	}

	existing, err := getJSON[types.Build](ctx, s.client, buildKey(version.ID, slot))
	switch {
	case err == nil:
		build.ID = existing.ID
	case !errors.Is(err, redis.Nil):
		return types.Build{}, err
	}

	payload, err := json.Marshal(build)
	if err != nil {
		return types.Build{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, buildKey(version.ID, slot), payload, 0)
	pipe.SAdd(ctx, buildSetKey(version.ID), slot)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.Build{}, err
	}
	return build, nil
}

func (s *keydbStore) ListBuilds(ctx context.Context, versionID string) ([]types.Build, error) {
	if versionID == "" {
		return nil, &ValidationError{Message: "version id is required"}
	}
	slots, err := s.client.SMembers(ctx, buildSetKey(versionID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.Build, 0, len(slots))
	for _, slot := range slots {
		b, err := getJSON[types.Build](ctx, s.client, buildKey(versionID, slot))
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	sortBuilds(out)
	return out, nil
}

func (s *keydbStore) ListBuildRecords(ctx context.Context, pkg string) ([]types.BuildRecord, error) {
	versions, err := s.ListVersions(ctx, pkg)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[string][]types.Build, len(versions))
	for _, v := range versions {
		if v.Kind == types.KindNone {
			continue
		}
		builds, err := s.ListBuilds(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		byVersion[v.ID] = builds
	}
	return buildRecords(versions, byVersion), nil
}

func (s *keydbStore) Close() error {
	return s.client.Close()
}

func getJSON[T any](ctx context.Context, c redis.Cmdable, key string) (T, error) {
	var out T
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func versionKey(pkg, id string) string {
	return fmt.Sprintf("version:%s:%s", pkg, id)
}

func versionSetKey(pkg string) string {
	return fmt.Sprintf("versionset:%s", pkg)
}

func buildKey(versionID, slot string) string {
	return fmt.Sprintf("build:%s:%s", versionID, slot)
}

func buildSetKey(versionID string) string {
	return fmt.Sprintf("buildset:%s", versionID)
}
