package main

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dacapoday/zigzag/config"
	"github.com/dacapoday/zigzag/store"
)

// A dataset file maps store names to lists of records:
//
//	animals:
//	  - {name: cat, color: spots, legs: 4}
//	  - {name: ox, color: black, legs: 4}
type dataset map[string][]any

// loadDataset puts the records of the file at path in one transaction and
// returns how many went to each store.
func loadDataset(db *store.DB, path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset")
	}
	var ds dataset
	if err = yaml.Unmarshal(data, &ds); err != nil {
		return nil, errors.Wrapf(err, "dataset %s", path)
	}

	names := make([]string, 0, len(ds))
	for name := range ds {
		names = append(names, name)
	}
	sort.Strings(names)

	counts := map[string]int{}
	err = db.Update(func(tx *store.Tx) error {
		for _, name := range names {
			for i, rec := range ds[name] {
				if _, err := tx.Put(name, rec); err != nil {
					return errors.WithMessagef(err, "dataset %s: %s[%d]", path, name, i)
				}
				counts[name]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func newLoadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [flags] DATASET...",
		Short: "Load records from YAML dataset files.",
		Long: `
Puts the records of every dataset file into the configured database. Each
file is loaded in its own transaction; a failing record rolls back its file.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			defer db.Close()
			for _, path := range args {
				counts, err := loadDataset(db, path)
				if err != nil {
					return err
				}
				for name, n := range counts {
					a.log.Infof("loaded %d records into %s from %s", n, name, path)
				}
			}
			if a.conf.Backend == config.BackendMemory {
				a.log.Warnf("memory backend: loaded records are dropped on exit")
			}
			return nil
		},
	}
}
