package storage

import (
	"fmt"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltBackend persists items in one bucket of a bbolt file.
type BoltBackend struct {
	db     *bolt.DB
	bucket []byte
	closed atomic.Bool
}

func NewBoltBackend(path, bucket string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	b := &BoltBackend{db: db, bucket: []byte(bucket)}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return b, nil
}

func (b *BoltBackend) Get(key string) (value string, ok bool, err error) {
	if b.closed.Load() {
		return "", false, ErrClosed
	}
	err = b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(b.bucket).Get([]byte(key)); v != nil {
			value, ok = string(v), true
		}
		return nil
	})
	return value, ok, err
}

func (b *BoltBackend) Set(key, value string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), []byte(value))
	})
}

func (b *BoltBackend) Delete(key string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
}

func (b *BoltBackend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}
