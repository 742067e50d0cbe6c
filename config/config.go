// Package config loads the YAML configuration of the docskema command and
// opens the store and logger it describes.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/store/badgerstore"
	"github.com/reoring/docskema/store/memstore"
	"github.com/reoring/docskema/store/mongostore"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverMongo  = "mongo"
)

type Config struct {
	Store      Store  `yaml:"store"`
	Collection string `yaml:"collection"`
	Schema     string `yaml:"schema"`
	IDField    string `yaml:"id_field"`
	Lang       string `yaml:"lang"`
	Log        Log    `yaml:"log"`
}

type Store struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store:      Store{Driver: DriverMemory},
		Collection: "documents",
		IDField:    docskema.DefaultIDField,
		Lang:       "en",
		Log:        Log{Level: "warning", Format: "text"},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found in c.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverBadger:
	case DriverMongo:
		if c.Store.URI == "" {
			errs = append(errs, errors.New("store.uri is required for the mongo driver"))
		}
		if c.Store.Database == "" {
			errs = append(errs, errors.New("store.database is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Collection == "" {
		errs = append(errs, errors.New("collection is required"))
	}
	if c.IDField == "" || strings.Contains(c.IDField, ".") {
		errs = append(errs, fmt.Errorf("invalid id_field %q", c.IDField))
	}
	switch c.Lang {
	case "", "en", "ja":
	default:
		errs = append(errs, fmt.Errorf("unsupported lang %q", c.Lang))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// CheckSchema reports a schema whose root identity field is not the one the
// configured store keys documents by.
func (c *Config) CheckSchema(n *docskema.Node) error {
	if n.IDField != c.IDField {
		return fmt.Errorf("config: schema id_field %q does not match id_field %q", n.IDField, c.IDField)
	}
	return nil
}

// NewLogger builds the logger described by c.Log, writing to stderr.
func NewLogger(c *Config) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log.level: %w", err)
	}
	l.SetLevel(lvl)
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l, nil
}

// OpenStore opens the store selected by c.Store.Driver. The returned closer
// releases it and must be called once.
func OpenStore(ctx context.Context, c *Config, log logrus.FieldLogger) (docskema.Store, func() error, error) {
	switch c.Store.Driver {
	case DriverMemory:
		return memstore.New(c.IDField, log), func() error { return nil }, nil
	case DriverBadger:
		s, err := badgerstore.Open(badgerstore.Config{
			Path:       c.Store.Path,
			Collection: c.Collection,
			IDField:    c.IDField,
			Logger:     log,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case DriverMongo:
		s, disconnect, err := mongostore.Connect(ctx, c.Store.URI, c.Store.Database, c.Collection, c.IDField, log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return disconnect(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
}
