package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/metrics"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/scan"
	"github.com/dacapoday/zigzag/solver"
)

var operators = []string{"==", "<=", ">=", "=", "<", ">", "^"}

// parseCondition splits op:value. Without a known operator the whole string
// is the value and the operator is "=".
func parseCondition(s string) (op string, v key.Key, err error) {
	op, value := "=", s
	if head, tail, ok := strings.Cut(s, ":"); ok {
		for _, o := range operators {
			if head == o {
				op, value = head, tail
				break
			}
		}
	}
	v, err = parseKey(value)
	return
}

// parseWhere builds an iterator from index=op:value. An empty index walks
// the primary keys.
func parseWhere(storeName, s string) (*query.Iterator, error) {
	index, cond, ok := strings.Cut(s, "=")
	if !ok {
		return nil, errors.Errorf("where %q: want index=op:value", s)
	}
	op, v, err := parseCondition(cond)
	if err != nil {
		return nil, errors.Wrapf(err, "where %q", s)
	}
	return query.Where(storeName, index, op, v)
}

func newSolver(algo string, sink solver.Sink, limit int) (solver.Solver, error) {
	switch algo {
	case "merge":
		return solver.NewSortedMerge(sink, limit), nil
	case "nested":
		return solver.NewNestedLoop(sink, limit), nil
	case "zigzag":
		return solver.NewZigzagMerge(sink, limit), nil
	}
	return nil, errors.Errorf("unknown algorithm %q", algo)
}

func newQueryCommand(a *app) *cobra.Command {
	var (
		wheres   []string
		algo     string
		limit    int
		reverse  bool
		values   bool
		showStat bool
	)
	cmd := &cobra.Command{
		Use:   "query [flags] STORE",
		Short: "Print the primary keys matching every --where condition.",
		Long: `
Joins one iterator per --where condition with the chosen algorithm:

  merge   intersects equality conditions on primary key order
  zigzag  intersects compound index prefixes, such as
          --where color_name=^:[spots] --where legs_name=^:[4]
  nested  walks the cross product; any conditions

Conditions are index=op:value with op one of = < <= > >= ^ (starts with).
Values are YAML: 4, cat, [spots, cat].
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(wheres) == 0 {
				return errors.New("at least one --where is required")
			}
			iters := make([]*query.Iterator, len(wheres))
			for i, w := range wheres {
				it, err := parseWhere(args[0], w)
				if err != nil {
					return err
				}
				if reverse {
					it = it.Reverse()
				}
				iters[i] = it
			}
			if limit == 0 {
				limit = a.conf.Scan.Limit
			}

			var (
				sink      solver.Sink
				streamers []*scan.Streamer
			)
			if values {
				st := scan.NewStreamer(args[0], "")
				st.SetSink(func(k key.Key, v any, next func()) bool {
					fmt.Fprintf(a.stdout, "%s: %s\n", formatKey(k), formatValue(v))
					return false
				})
				sink, streamers = st, []*scan.Streamer{st}
			} else {
				sink = solver.SinkFunc(func(k key.Key) error {
					_, err := fmt.Fprintln(a.stdout, formatKey(k))
					return err
				})
			}
			s, err := newSolver(algo, sink, limit)
			if err != nil {
				return err
			}

			db, err := a.open()
			if err != nil {
				return err
			}
			defer db.Close()

			reg := prometheus.NewRegistry()
			stats, err := metrics.NewScanStats(reg)
			if err != nil {
				return err
			}
			err = scan.Scan(cmd.Context(), db, iters, s,
				scan.WithStreamers(streamers...),
				scan.WithLogger(a.log),
				scan.WithStats(stats),
				scan.WithParallelism(a.conf.Scan.Parallelism),
			)
			if err != nil {
				return err
			}
			if showStat {
				return writeMetrics(a.stderr, reg)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVarP(&wheres, "where", "w", nil, "Condition index=op:value, repeatable.")
	flags.StringVar(&algo, "algo", "merge", "Join algorithm: merge, zigzag or nested.")
	flags.IntVarP(&limit, "limit", "n", 0, "Stop after this many matches (0 = configured limit).")
	flags.BoolVarP(&reverse, "reverse", "r", false, "Walk in descending order.")
	flags.BoolVar(&values, "values", false, "Print the records, not only the keys.")
	flags.BoolVar(&showStat, "stats", false, "Print scan metrics to stderr.")
	return cmd
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	fams, err := g.Gather()
	if err != nil {
		return err
	}
	for _, fam := range fams {
		if _, err := expfmt.MetricFamilyToText(w, fam); err != nil {
			return err
		}
	}
	return nil
}
