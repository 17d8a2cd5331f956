// Package metrics exports scan statistics to Prometheus.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "zigzag"

	MetricScans     = "scans_total"
	MetricRounds    = "rounds_total"
	MetricMoves     = "advancements_total"
	MetricMatches   = "matches_total"
	MetricErrors    = "scan_errors_total"
	MetricIterators = "scan_iterators"
)

// ScanStats counts scans. It implements scan.StatsRecorder and
// prometheus.Collector.
type ScanStats struct {
	scans     prometheus.Counter
	rounds    prometheus.Counter
	moves     prometheus.Counter
	matches   prometheus.Counter
	errors    prometheus.Counter
	iterators prometheus.Histogram
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	})
}

// NewScanStats registers the scan metrics with reg.
func NewScanStats(reg prometheus.Registerer) (*ScanStats, error) {
	s := &ScanStats{
		scans:   counter(MetricScans, "Scans started."),
		rounds:  counter(MetricRounds, "Rounds completed by all scans."),
		moves:   counter(MetricMoves, "Cursor moves made by all scans."),
		matches: counter(MetricMatches, "Matches reported by solvers."),
		errors:  counter(MetricErrors, "Scans that failed."),
		iterators: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricIterators,
			Help:      "Iterators joined per scan.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		}),
	}
	if err := reg.Register(s); err != nil {
		return nil, errors.Wrap(err, "metrics: register")
	}
	return s, nil
}

// MustNewScanStats is NewScanStats panicking on error.
func MustNewScanStats(reg prometheus.Registerer) *ScanStats {
	s, err := NewScanStats(reg)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *ScanStats) collectors() []prometheus.Collector {
	return []prometheus.Collector{s.scans, s.rounds, s.moves, s.matches, s.errors, s.iterators}
}

// Describe implements prometheus.Collector.
func (s *ScanStats) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range s.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (s *ScanStats) Collect(ch chan<- prometheus.Metric) {
	for _, c := range s.collectors() {
		c.Collect(ch)
	}
}

func (s *ScanStats) ScanStarted(iterators int) {
	s.scans.Inc()
	s.iterators.Observe(float64(iterators))
}

func (s *ScanStats) RoundDone(moves int) {
	s.rounds.Inc()
	s.moves.Add(float64(moves))
}

func (s *ScanStats) ScanDone(matches int, err error) {
	s.matches.Add(float64(matches))
	if err != nil {
		s.errors.Inc()
	}
}
