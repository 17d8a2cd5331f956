// Package store is the object layer over a byte-ordered Engine: object
// stores with secondary indexes, transactions, and the Cursor the scan
// driver steps.
//
// Records live in bucket "s/<store>" keyed by the encoded primary key. Every
// index entry lives in bucket "i/<store>/<index>" keyed by the encoded index
// key followed by the encoded primary key, with the encoded primary key as
// value. See key.Encode.
package store

import (
	"sync/atomic"

	"github.com/dacapoday/zigzag/logger"
	"github.com/dacapoday/zigzag/schema"
	"github.com/pkg/errors"
)

const metaBucket = "__meta__"

func storeBucket(store string) string {
	return "s/" + store
}

func indexBucket(store, index string) string {
	return "i/" + store + "/" + index
}

// DB binds a schema to an engine.
type DB struct {
	engine Engine
	schema *schema.Schema
	log    logger.Logger
	closed atomic.Bool
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. The default discards.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.log = l
		}
	}
}

// Open validates s and returns a DB over engine. The DB owns the engine and
// closes it on Close.
func Open(engine Engine, s *schema.Schema, opts ...Option) (db *DB, err error) {
	if engine == nil || s == nil {
		err = errors.Wrap(ErrArgument, "store: nil engine or schema")
		return
	}
	if err = s.Validate(); err != nil {
		return
	}
	db = &DB{engine: engine, schema: s, log: logger.NopLogger}
	for _, opt := range opts {
		opt(db)
	}
	db.log.Debugf("store: open with %d object stores", len(s.Stores))
	return
}

// Schema returns the schema the DB was opened with.
func (db *DB) Schema() *schema.Schema {
	return db.schema
}

// Engine returns the backend.
func (db *DB) Engine() Engine {
	return db.engine
}

// Logger returns the configured logger.
func (db *DB) Logger() logger.Logger {
	return db.log
}

// Begin starts a transaction.
func (db *DB) Begin(writable bool) (tx *Tx, err error) {
	if db.closed.Load() {
		err = ErrClosed
		return
	}
	txn, err := db.engine.Begin(writable)
	if err != nil {
		err = errors.Wrap(err, "store: begin")
		return
	}
	tx = &Tx{db: db, txn: txn, buckets: map[string]Bucket{}}
	return
}

// View runs fn in a read-only transaction.
func (db *DB) View(fn func(tx *Tx) error) error {
	tx, err := db.Begin(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}

// Update runs fn in a writable transaction, committing when fn returns nil
// and rolling back otherwise.
func (db *DB) Update(fn func(tx *Tx) error) error {
	tx, err := db.Begin(true)
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			db.log.Warnf("store: rollback: %v", rerr)
		}
		return err
	}
	return tx.Commit()
}

// Close closes the engine. Further transactions fail with ErrClosed.
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	db.log.Debugf("store: close")
	return db.engine.Close()
}
