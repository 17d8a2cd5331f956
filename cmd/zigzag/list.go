package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/scan"
	"github.com/dacapoday/zigzag/solver"
)

func newListCommand(a *app) *cobra.Command {
	var (
		count   int
		index   string
		where   string
		reverse bool
		unique  bool
	)
	cmd := &cobra.Command{
		Use:   "list [flags] STORE",
		Short: "Print records in cursor order.",
		Long: `
Prints the records of a store ordered by primary key, or by an index with
--index. --where restricts the walked keys with op:value, as in query.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rng *key.Range
			if where != "" {
				op, v, err := parseCondition(where)
				if err != nil {
					return err
				}
				if rng, err = key.Where(op, v); err != nil {
					return err
				}
			}
			it := query.NewKeyIterator(args[0], rng)
			if index != "" {
				it = query.NewIndexIterator(args[0], index, rng)
			}
			if reverse {
				it = it.Reverse()
			}
			if unique {
				it = it.Unique()
			}

			db, err := a.open()
			if err != nil {
				return err
			}
			defer db.Close()

			st := scan.NewStreamer(args[0], "")
			st.SetSink(func(k key.Key, v any, next func()) bool {
				fmt.Fprintf(a.stdout, "%s: %s\n", display(formatKey(k), 40), display(formatValue(v), 60))
				return false
			})
			return scan.Scan(cmd.Context(), db, []*query.Iterator{it}, solver.NewNestedLoop(st, count),
				scan.WithStreamers(st),
				scan.WithLogger(a.log),
			)
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&count, "count", "n", 0, "Number of records (0 = all).")
	flags.StringVar(&index, "index", "", "Walk this index instead of the primary keys.")
	flags.StringVar(&where, "where", "", "Restrict the walked keys, op:value.")
	flags.BoolVarP(&reverse, "reverse", "r", false, "Walk in descending order.")
	flags.BoolVar(&unique, "unique", false, "Only the first record of every index key.")
	return cmd
}
