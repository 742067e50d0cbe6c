package main

import (
	"fmt"

	j "github.com/goccy/go-json"
	"github.com/scott-cotton/cli"
)

func schema(cfg *SchemaConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Schema.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: schema takes no arguments", cli.ErrUsage)
	}
	e, err := cfg.env()
	if err != nil {
		return err
	}
	b, err := j.MarshalIndent(e.schema.JSONSchema(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cc.Out, "%s\n", b)
	return err
}
