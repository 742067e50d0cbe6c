package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/config"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: get requires one argument, a document identity", cli.ErrUsage)
	}
	id, err := docskema.ParseID(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	e, err := cfg.env()
	if err != nil {
		return err
	}
	store, closeStore, err := config.OpenStore(cfg.Ctx, e.cfg, e.log)
	if err != nil {
		return err
	}
	defer closeStore()
	doc, err := store.FindOne(cfg.Ctx, docskema.Filter{Field: e.cfg.IDField, ID: id})
	if err != nil {
		return fmt.Errorf("get %s: %w", args[0], err)
	}
	return writeJSON(cc.Out, doc)
}
