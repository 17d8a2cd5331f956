// Package memdb is an in-memory store.Engine.
//
// Every bucket is a btree.BTree owned by the DB. A writable transaction
// buffers its puts and deletes in pending trees, one per bucket, and reads
// through iterator.Combine(pending, committed). Commit applies the pending
// trees; Rollback drops them.
//
// One writable transaction runs at a time. Read-only transactions run
// concurrently with each other and with the writer, and see the state
// committed before they began: Commit waits until they finish, so a
// goroutine must not commit while it holds a read-only transaction.
package memdb

import (
	"sync"

	"github.com/dacapoday/zigzag/btree"
	"github.com/dacapoday/zigzag/logger"
	"github.com/dacapoday/zigzag/store"
)

// compactRatio is the share of tombstones above which Commit compacts a tree.
const compactRatio = 2

// DB is an in-memory engine.
type DB struct {
	writer  sync.Mutex
	mu      sync.RWMutex
	buckets map[string]*btree.BTree
	closed  bool
	log     logger.Logger
}

var _ store.Engine = (*DB)(nil)

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. The default discards.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.log = l.WithPrefix("memdb: ")
		}
	}
}

// New returns an empty DB.
func New(opts ...Option) *DB {
	db := &DB{buckets: map[string]*btree.BTree{}, log: logger.NopLogger}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// ConcurrentReads is true: iterators of one transaction only read shared
// trees.
func (db *DB) ConcurrentReads() bool {
	return true
}

// Begin starts a transaction.
func (db *DB) Begin(writable bool) (store.Txn, error) {
	if writable {
		db.writer.Lock()
	}
	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		if writable {
			db.writer.Unlock()
		}
		return nil, ErrClosed
	}
	tx := &txn{db: db, writable: writable}
	if writable {
		db.mu.RUnlock()
		tx.pending = map[string]*btree.BTree{}
	}
	return tx, nil
}

// Close drops every bucket. It waits for running transactions.
func (db *DB) Close() error {
	db.writer.Lock()
	defer db.writer.Unlock()
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	db.buckets = nil
	db.log.Debugf("closed")
	return nil
}

// Stats reports the number of keys and tombstones per bucket.
func (db *DB) Stats() map[string][2]int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	stats := make(map[string][2]int, len(db.buckets))
	for name, tree := range db.buckets {
		stats[name] = [2]int{tree.Live(), tree.Len() - tree.Live()}
	}
	return stats
}

func (db *DB) commit(pending map[string]*btree.BTree) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for name, changes := range pending {
		if changes.Empty() {
			continue
		}
		tree := db.buckets[name]
		if tree == nil {
			tree = new(btree.BTree)
			db.buckets[name] = tree
		}
		for k, v := range changes.Items {
			tree.Set(k, v)
		}
		if dead := tree.Len() - tree.Live(); dead > 0 && dead*compactRatio >= tree.Len() {
			db.log.Debugf("compact %s: %d of %d keys deleted", name, dead, tree.Len())
			tree.Compact()
		}
	}
}

type txn struct {
	db       *DB
	writable bool
	pending  map[string]*btree.BTree
	done     bool
}

func (tx *txn) Writable() bool {
	return tx.writable
}

func (tx *txn) Bucket(name string) (store.Bucket, error) {
	if tx.done {
		return nil, ErrClosed
	}
	base := tx.db.buckets[name]
	if base == nil {
		base = new(btree.BTree)
	}
	b := &bucket{tx: tx, base: base}
	if tx.writable {
		b.pending = tx.pending[name]
		if b.pending == nil {
			b.pending = new(btree.BTree)
			tx.pending[name] = b.pending
		}
	}
	return b, nil
}

func (tx *txn) Commit() error {
	if tx.done {
		return ErrClosed
	}
	if !tx.writable {
		return tx.Rollback()
	}
	tx.done = true
	tx.db.commit(tx.pending)
	tx.pending = nil
	tx.db.writer.Unlock()
	return nil
}

func (tx *txn) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	if tx.writable {
		tx.pending = nil
		tx.db.writer.Unlock()
	} else {
		tx.db.mu.RUnlock()
	}
	return nil
}
