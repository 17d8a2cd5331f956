// Package config loads the YAML configuration of a zigzag database: the
// storage backend, logging, scan tuning and the schema.
package config

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dacapoday/zigzag/boltdb"
	"github.com/dacapoday/zigzag/logger"
	"github.com/dacapoday/zigzag/memdb"
	"github.com/dacapoday/zigzag/schema"
	"github.com/dacapoday/zigzag/store"
)

const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
)

// Config is the top-level configuration document.
type Config struct {
	Backend  string        `yaml:"backend"`
	Bolt     BoltConfig    `yaml:"bolt"`
	LogLevel string        `yaml:"log_level"`
	Scan     ScanConfig    `yaml:"scan"`
	Schema   schema.Schema `yaml:"schema"`
}

// BoltConfig configures the bolt backend.
type BoltConfig struct {
	Path     string        `yaml:"path"`
	Timeout  time.Duration `yaml:"timeout"`
	NoSync   bool          `yaml:"no_sync"`
	ReadOnly bool          `yaml:"read_only"`
}

// ScanConfig tunes the scan driver.
type ScanConfig struct {
	Parallelism int `yaml:"parallelism"`
	Limit       int `yaml:"limit"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend: BackendMemory,
		Bolt: BoltConfig{
			Path:    "zigzag.db",
			Timeout: time.Second,
		},
		LogLevel: "info",
		Scan: ScanConfig{
			Parallelism: 1,
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: open")
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "config: %s", path)
	}
	return c, nil
}

// Decode reads a configuration document over the defaults and validates it.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "config: yaml")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the backend settings and the schema.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendBolt:
		if c.Bolt.Path == "" {
			return errors.Wrap(ErrArgument, "config: bolt backend without path")
		}
		if c.Bolt.Timeout < 0 {
			return errors.Wrapf(ErrArgument, "config: negative bolt timeout %s", c.Bolt.Timeout)
		}
	default:
		return errors.Wrapf(ErrArgument, "config: unknown backend %q", c.Backend)
	}
	if c.Scan.Parallelism < 1 {
		return errors.Wrapf(ErrArgument, "config: scan parallelism %d", c.Scan.Parallelism)
	}
	if c.Scan.Limit < 0 {
		return errors.Wrapf(ErrArgument, "config: scan limit %d", c.Scan.Limit)
	}
	return c.Schema.Validate()
}

// Logger returns a logger at the configured level writing to w.
func (c *Config) Logger(w io.Writer) logger.Logger {
	return logger.New(w, c.LogLevel)
}

// Open opens the configured backend and the database over it.
func (c *Config) Open(log logger.Logger) (*store.DB, error) {
	var engine store.Engine
	switch c.Backend {
	case BackendBolt:
		opts := []boltdb.Option{boltdb.WithTimeout(c.Bolt.Timeout), boltdb.WithLogger(log)}
		if c.Bolt.NoSync {
			opts = append(opts, boltdb.WithNoSync())
		}
		if c.Bolt.ReadOnly {
			opts = append(opts, boltdb.WithReadOnly())
		}
		db, err := boltdb.Open(c.Bolt.Path, opts...)
		if err != nil {
			return nil, err
		}
		engine = db
	default:
		engine = memdb.New(memdb.WithLogger(log))
	}
	db, err := store.Open(engine, &c.Schema, store.WithLogger(log))
	if err != nil {
		engine.Close()
		return nil, err
	}
	return db, nil
}
