package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/scott-cotton/cli"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/i18n"
)

func docskemaMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// report prints validation and conflict errors grouped by field and turns them
// into a non-zero exit. Other errors are returned as they are.
func report(ctx context.Context, cfg *MainConfig, w io.Writer, err error) error {
	var iss docskema.Issues
	var ce *docskema.ConflictError
	switch {
	case errors.As(err, &ce):
		iss = ce.Issues()
	case errors.As(err, &iss):
	default:
		return err
	}
	pal := cfg.palette(w)
	for i := range iss {
		if iss[i].Message == "" {
			iss[i].Message = i18n.T(ctx, iss[i].Code, nil)
		}
	}
	fields := iss.Fields()
	for _, p := range sortedKeys(fields) {
		fmt.Fprintf(w, "%s %s\n", pal.path(p), pal.bad(strings.Join(fields[p], "; ")))
	}
	return cli.ExitCodeErr(1)
}
