package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dacapoday/zigzag/config"
	"github.com/dacapoday/zigzag/key"
	"github.com/dacapoday/zigzag/logger"
	"github.com/dacapoday/zigzag/store"
)

// app is shared by the subcommands.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath string
	logLevel   string
	datasets   []string

	conf *config.Config
	log  logger.Logger
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	rc := &cobra.Command{
		Use:   "zigzag",
		Short: "Join object store indexes with cursor solvers.",
		Long: `
zigzag keeps records in object stores with secondary indexes, in memory or
in a bolt file, and answers conjunctive queries by walking several index
cursors in lockstep.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	flags := rc.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Configuration file to read from.")
	flags.StringVar(&a.logLevel, "log-level", "", "Override the configured log level.")
	flags.StringArrayVar(&a.datasets, "load", nil, "Dataset file to load before running the command.")

	rc.AddCommand(newLoadCommand(a))
	rc.AddCommand(newListCommand(a))
	rc.AddCommand(newQueryCommand(a))
	rc.AddCommand(newSearchCommand(a))
	rc.AddCommand(newViewCommand(a))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

func (a *app) setup() (err error) {
	if a.configPath == "" {
		a.conf = config.Default()
	} else if a.conf, err = config.Load(a.configPath); err != nil {
		return
	}
	if a.logLevel != "" {
		a.conf.LogLevel = a.logLevel
	}
	a.log = a.conf.Logger(a.stderr)
	return
}

// open opens the configured database and loads the --load datasets.
func (a *app) open() (*store.DB, error) {
	db, err := a.conf.Open(a.log)
	if err != nil {
		return nil, err
	}
	for _, path := range a.datasets {
		if _, err = loadDataset(db, path); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// parseKey reads a key written as a YAML flow scalar or sequence, such as
// 4, cat or [spots, cat].
func parseKey(s string) (key.Key, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return key.Normalize(v)
}
