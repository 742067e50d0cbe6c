package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/sirupsen/logrus"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/config"
	"github.com/reoring/docskema/dsl"
	"github.com/reoring/docskema/source"
)

type MainConfig struct {
	ConfigFile string `cli:"name=c aliases=config desc='configuration file (yaml)'"`
	SchemaFile string `cli:"name=schema desc='schema file, overrides the configuration'"`
	Lang       string `cli:"name=lang desc='message language: en, ja'"`
	Color      bool   `cli:"name=color desc='color output even when not on a terminal'"`

	Ctx  context.Context
	Main *cli.Command
}

type PlanConfig struct {
	*MainConfig
	ID       string `cli:"name=id desc='identity of the document to update (hex)'"`
	Partial  bool   `cli:"name=partial desc='write only the fields present in the instance'"`
	Strict   bool   `cli:"name=strict desc='reject keys the schema does not declare'"`
	Presence bool   `cli:"name=presence desc='list how each written field was filled'"`

	Plan *cli.Command
}

type SaveConfig struct {
	*MainConfig
	ID      string `cli:"name=id desc='identity of the document to update (hex)'"`
	Partial bool   `cli:"name=partial desc='write only the fields present in the instance'"`
	Strict  bool   `cli:"name=strict desc='reject keys the schema does not declare'"`
	Diff    bool   `cli:"name=diff desc='print a diff of the stored document'"`

	Save *cli.Command
}

type GetConfig struct {
	*MainConfig

	Get *cli.Command
}

type SchemaConfig struct {
	*MainConfig

	Schema *cli.Command
}

// env is what every subcommand resolves from the main options.
type env struct {
	cfg    *config.Config
	log    *logrus.Logger
	schema *docskema.Node
}

func (cfg *MainConfig) env() (*env, error) {
	c := config.Default()
	if cfg.ConfigFile != "" {
		var err error
		if c, err = config.Load(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	if cfg.SchemaFile != "" {
		c.Schema = cfg.SchemaFile
	}
	if cfg.Lang != "" {
		c.Lang = cfg.Lang
	}
	if c.Schema == "" {
		return nil, fmt.Errorf("%w: no schema file configured", cli.ErrUsage)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log, err := config.NewLogger(c)
	if err != nil {
		return nil, err
	}
	n, err := dsl.LoadYAMLFile(c.Schema)
	if err != nil {
		return nil, err
	}
	if err := c.CheckSchema(n); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"schema": c.Schema, "driver": c.Store.Driver}).Debug("schema loaded")
	return &env{cfg: c, log: log, schema: n}, nil
}

func (e *env) saveOpt(partial, strict bool) docskema.SaveOpt {
	opt := docskema.SaveOpt{Partial: partial, Lang: e.cfg.Lang}
	if strict {
		opt.Unknown = docskema.UnknownStrict
	}
	return opt
}

func parseID(s string) (docskema.ID, error) {
	if s == "" {
		return docskema.NilID, nil
	}
	id, err := docskema.ParseID(s)
	if err != nil {
		return docskema.NilID, fmt.Errorf("%w: -id: %w", cli.ErrUsage, err)
	}
	return id, nil
}

// readInstance reads the instance named by args, or stdin. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func readInstance(cc *cli.Context, args []string) (map[string]any, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("%w: at most one instance file", cli.ErrUsage)
	}
	if len(args) == 0 || args[0] == "-" {
		return source.DecodeJSON(cc.In)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".yaml", ".yml":
		return source.DecodeYAML(f)
	}
	return source.DecodeJSON(f)
}

type palette struct {
	kind, path, key, val, add, del, bad func(a ...any) string
}

func (cfg *MainConfig) palette(w io.Writer) palette {
	on := cfg.Color
	if f, ok := w.(*os.File); ok && !on {
		on = isatty.IsTerminal(f.Fd())
	}
	if !on {
		return palette{fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint}
	}
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return palette{
		kind: mk(color.FgMagenta, color.Bold),
		path: mk(color.FgCyan),
		key:  mk(color.FgYellow),
		val:  mk(color.FgHiWhite),
		add:  mk(color.FgGreen),
		del:  mk(color.FgRed),
		bad:  mk(color.FgRed, color.Bold),
	}
}
