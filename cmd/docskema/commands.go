package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func MainCommand(ctx context.Context) *cli.Command {
	cfg := &MainConfig{Ctx: ctx}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "docskema").
		WithSynopsis("docskema [opts] command [opts]").
		WithDescription("docskema validates documents against a schema and writes them as partial updates.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return docskemaMain(cfg, cc, args)
		}).
		WithSubs(
			PlanCommand(cfg),
			SaveCommand(cfg),
			GetCommand(cfg),
			SchemaCommand(cfg))
}

func PlanCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &PlanConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Plan, "plan").
		WithAliases("p").
		WithSynopsis("plan [-id hex] [-partial] [-presence] [file]").
		WithDescription("validate an instance and print the store operations a save would issue").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return plan(cfg, cc, args)
		})
}

func SaveCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SaveConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Save, "save").
		WithAliases("s").
		WithSynopsis("save [-id hex] [-partial] [-diff] [file]").
		WithDescription("validate an instance and write it to the configured store").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return save(cfg, cc, args)
		})
}

func GetCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GetConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Get, "get").
		WithAliases("g").
		WithSynopsis("get <id>").
		WithDescription("print the stored representation of a document").
		WithRun(func(cc *cli.Context, args []string) error {
			return get(cfg, cc, args)
		})
}

func SchemaCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Schema, "schema").
		WithSynopsis("schema").
		WithDescription("print the JSON Schema of the configured schema file").
		WithRun(func(cc *cli.Context, args []string) error {
			return schema(cfg, cc, args)
		})
}
