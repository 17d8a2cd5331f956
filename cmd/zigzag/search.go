package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/query"
	"github.com/dacapoday/zigzag/scan"
	"github.com/dacapoday/zigzag/solver"
)

func newSearchCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search [flags] STORE INDEX PREFIX",
		Short: "Print the records whose index key starts with a prefix, ignoring case.",
		Long: `
Walks the string keys of INDEX, or the primary keys when INDEX is ".", and
prints the records whose key starts with PREFIX in any casing.
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeName, index, prefix := args[0], args[1], args[2]
			it := query.NewKeyIterator(storeName, nil)
			if index != "." {
				it = query.NewIndexIterator(storeName, index, nil)
			}
			if limit == 0 {
				limit = a.conf.Scan.Limit
			}

			db, err := a.open()
			if err != nil {
				return err
			}
			defer db.Close()

			st := scan.NewStreamer(storeName, "")
			st.SetSink(func(k key.Key, v any, next func()) bool {
				fmt.Fprintf(a.stdout, "%s: %s\n", display(formatKey(k), 40), display(formatValue(v), 60))
				return false
			})
			return scan.Scan(cmd.Context(), db, []*query.Iterator{it}, solver.NewCaseInsensitive(prefix, st, limit),
				scan.WithStreamers(st),
				scan.WithLogger(a.log),
			)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many matches (0 = configured limit).")
	return cmd
}
