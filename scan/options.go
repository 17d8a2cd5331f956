package scan

import "github.com/dacapoday/zigzag/logger"

// Progress is reported after every round.
type Progress struct {
	Round   int
	Moves   int
	Matches int
}

// StatsRecorder receives scan statistics.
type StatsRecorder interface {
	ScanStarted(iterators int)
	RoundDone(moves int)
	ScanDone(matches int, err error)
}

// Stats accumulates over the scans of a session.
type Stats struct {
	Scans   int
	Rounds  int
	Moves   int
	Matches int
}

// Option configures one scan.
type Option func(*options)

type options struct {
	streamers   []*Streamer
	log         logger.Logger
	progress    func(Progress)
	stats       StatsRecorder
	parallelism int
}

// WithStreamers binds streamers to the scan transaction and flushes them
// before it commits.
func WithStreamers(streamers ...*Streamer) Option {
	return func(o *options) { o.streamers = append(o.streamers, streamers...) }
}

// WithLogger sets the logger. The default is the logger of the DB.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithProgress calls fn after every round.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) { o.progress = fn }
}

// WithStats reports statistics to r.
func WithStats(r StatsRecorder) Option {
	return func(o *options) { o.stats = r }
}

// WithParallelism steps up to n cursors of a round concurrently when the
// engine allows concurrent reads. Filters then run concurrently too.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}
