// Package zigzag defines the shared vocabulary of the scan-and-join engine.
//
// The engine drives one or more ordered cursors over object stores in lock-step
// and lets a pluggable solver decide, round by round, how every cursor moves and
// which tuples are matches. Storage backends only provide byte-ordered buckets;
// everything above them (keys, ranges, cursors, iterators, solvers, the scan
// driver and streamers) lives in the sub-packages:
//
//	key     keys, comparator, key ranges, order-preserving encoding
//	store   object stores, transactions, the Cursor protocol
//	query   declarative iterators and their scan positions
//	solver  nested-loop, sorted-merge, zigzag-merge and prefix-search solvers
//	scan    the scan driver and the streamer
//	memdb   in-memory backend
//	boltdb  bbolt backend
package zigzag
