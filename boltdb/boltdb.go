// Package boltdb is a store.Engine over a bbolt file.
package boltdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/dacapoday/zigzag/logger"
	"github.com/dacapoday/zigzag/store"
)

// DefaultTimeout bounds the wait for the file lock.
const DefaultTimeout = time.Second

// DB is a bbolt-backed engine.
type DB struct {
	db   *bolt.DB
	path string
	log  logger.Logger
}

var _ store.Engine = (*DB)(nil)

type options struct {
	timeout  time.Duration
	readOnly bool
	noSync   bool
	log      logger.Logger
}

// Option configures Open.
type Option func(*options)

// WithTimeout bounds the wait for the file lock.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithReadOnly opens the file with a shared lock; writable transactions fail.
func WithReadOnly() Option {
	return func(o *options) { o.readOnly = true }
}

// WithNoSync skips fsync on commit. Only for tests and bulk loads.
func WithNoSync() Option {
	return func(o *options) { o.noSync = true }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Open opens or creates the bbolt file at path.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{timeout: DefaultTimeout, log: logger.NopLogger}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
			return nil, errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
		}
	}
	db, err := bolt.Open(path, 0666, &bolt.Options{Timeout: o.timeout, ReadOnly: o.readOnly, NoSync: o.noSync})
	if err != nil {
		return nil, errors.Wrapf(err, "boltdb: open %s", path)
	}
	log := o.log.WithPrefix("boltdb: ")
	log.Debugf("open %s", path)
	return &DB{db: db, path: path, log: log}, nil
}

// Path returns the file path.
func (db *DB) Path() string {
	return db.path
}

// ConcurrentReads is false: a bbolt transaction belongs to one goroutine.
func (db *DB) ConcurrentReads() bool {
	return false
}

// Begin starts a bbolt transaction.
func (db *DB) Begin(writable bool) (store.Txn, error) {
	tx, err := db.db.Begin(writable)
	switch {
	case errors.Is(err, bolt.ErrDatabaseNotOpen):
		return nil, ErrClosed
	case errors.Is(err, bolt.ErrDatabaseReadOnly):
		return nil, ErrReadOnly
	case err != nil:
		return nil, errors.Wrap(err, "boltdb: begin")
	}
	return &txn{tx: tx}, nil
}

// Close closes the file.
func (db *DB) Close() error {
	db.log.Debugf("close %s", db.path)
	return db.db.Close()
}

// Buckets lists the bucket names with their key counts.
func (db *DB) Buckets() (map[string]int, error) {
	out := map[string]int{}
	err := db.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			out[string(name)] = b.Stats().KeyN
			return nil
		})
	})
	return out, err
}

type txn struct {
	tx *bolt.Tx
}

func (t *txn) Writable() bool {
	return t.tx.Writable()
}

func (t *txn) Bucket(name string) (store.Bucket, error) {
	if !t.tx.Writable() {
		b := t.tx.Bucket([]byte(name))
		if b == nil {
			return emptyBucket{}, nil
		}
		return &bucket{b}, nil
	}
	b, err := t.tx.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, errors.Wrapf(err, "creating bucket: %s", name)
	}
	return &bucket{b}, nil
}

func (t *txn) Commit() error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, bolt.ErrTxClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

func (t *txn) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, bolt.ErrTxClosed) {
		return err
	}
	return nil
}
