package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var blobBucket = []byte("blobs")

// BoltStorage keeps objects in a single bbolt file. Every write is one
// transaction, so replacement is atomic.
type BoltStorage struct {
	db *bolt.DB
}

func NewBoltStorage(path string) (*BoltStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

func cleanKey(path string) (string, error) {
	key := strings.Trim(filepath.ToSlash(filepath.Clean("/"+path)), "/")
	if key == "" {
		return "", fmt.Errorf("invalid object key: %q", path)
	}
	return key, nil
}

func (s *BoltStorage) Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error) {
	key, err := cleanKey(path)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read object: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Put([]byte(key), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return key, nil
}

func (s *BoltStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := cleanKey(path)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blobBucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		// v is only valid inside the transaction
		data = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *BoltStorage) Delete(ctx context.Context, path string) error {
	key, err := cleanKey(path)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Delete([]byte(key))
	})
}

func (s *BoltStorage) Exists(ctx context.Context, path string) (bool, error) {
	key, err := cleanKey(path)
	if err != nil {
		return false, err
	}
	var found bool
	err = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(blobBucket).Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

func (s *BoltStorage) Close() error {
	return s.db.Close()
}
