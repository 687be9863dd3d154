package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
)

const (
	boltRootBucket = "packages"
)

// BoltArchive keeps archived version payloads inside a BoltDB file, one
// bucket per package.
type BoltArchive struct {
	db   *bolt.DB
	once sync.Once
}

// NewBoltArchive opens (or creates) a BoltDB archive at the provided path.
func NewBoltArchive(path string) (*BoltArchive, error) {
	if path == "" {
		return nil, errors.New("archive path is required")
	}

	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(cleaned, 0o600, nil)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltRootBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltArchive{db: db}, nil
}

// Store writes payload data under pkg/id.
func (a *BoltArchive) Store(ctx context.Context, pkg, id string, data []byte) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		root := tx.Bucket([]byte(boltRootBucket))
		if root == nil {
			return errors.New("archive root bucket missing")
		}

		pkgBucket, err := root.CreateBucketIfNotExists([]byte(pkg))
		if err != nil {
			return err
		}

		return pkgBucket.Put([]byte(id), data)
	})
}

// Fetch retrieves payload data for pkg/id.
func (a *BoltArchive) Fetch(ctx context.Context, pkg, id string) ([]byte, error) {
	var result []byte
	err := a.db.View(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkgBucket := a.packageBucket(tx, pkg)
		if pkgBucket == nil {
			return &NotFoundError{Resource: "archive", Key: id}
		}

		data := pkgBucket.Get([]byte(id))
		if data == nil {
			return &NotFoundError{Resource: "archive", Key: id}
		}

		result = append([]byte{}, data...)
		return nil
	})
	return result, err
}

// List returns the archived ids of pkg in key order.
func (a *BoltArchive) List(ctx context.Context, pkg string) ([]string, error) {
	var ids []string
	err := a.db.View(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkgBucket := a.packageBucket(tx, pkg)
		if pkgBucket == nil {
			return nil
		}

		c := pkgBucket.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			ids = append(ids, string(k))
		}
		return nil
	})
	return ids, err
}

func (a *BoltArchive) packageBucket(tx *bolt.Tx, pkg string) *bolt.Bucket {
	root := tx.Bucket([]byte(boltRootBucket))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(pkg))
}

// Close shuts down the Bolt DB.
func (a *BoltArchive) Close() error {
	var err error
	a.once.Do(func() {
		err = a.db.Close()
	})
	return err
}
