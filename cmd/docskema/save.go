package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/codec"
	"github.com/reoring/docskema/config"
	"github.com/reoring/docskema/i18n"
)

func save(cfg *SaveConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Save.Parse(cc, args)
	if err != nil {
		return err
	}
	id, err := parseID(cfg.ID)
	if err != nil {
		return err
	}
	e, err := cfg.env()
	if err != nil {
		return err
	}
	inst, err := readInstance(cc, args)
	if err != nil {
		return err
	}
	ctx := i18n.WithLanguage(cfg.Ctx, e.cfg.Lang)
	store, closeStore, err := config.OpenStore(ctx, e.cfg, e.log)
	if err != nil {
		return err
	}
	defer closeStore()

	var before docskema.Document
	if cfg.Diff && !id.IsZero() {
		before, err = store.FindOne(ctx, docskema.Filter{Field: e.cfg.IDField, ID: id})
		if err != nil && !errors.Is(err, docskema.ErrNotFound) {
			return err
		}
	}
	s := docskema.NewSaver(e.schema, store, e.log)
	res, err := s.Save(ctx, inst, id, e.saveOpt(cfg.Partial, cfg.Strict))
	if err != nil {
		return report(ctx, cfg.MainConfig, cc.Out, err)
	}
	if cfg.Diff {
		after, err := store.FindOne(ctx, docskema.Filter{Field: e.cfg.IDField, ID: res.ID})
		if err != nil {
			return err
		}
		return renderDiff(cc.Out, cfg.palette(cc.Out), before, after)
	}
	return writeJSON(cc.Out, res.Doc)
}

// renderDiff prints a line diff of the two documents' indented JSON.
func renderDiff(w io.Writer, pal palette, before, after docskema.Document) error {
	a, err := indentJSON(before)
	if err != nil {
		return err
	}
	b, err := indentJSON(after)
	if err != nil {
		return err
	}
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fmt.Fprintln(w, pal.add("+"+line))
			case diffmatchpatch.DiffDelete:
				fmt.Fprintln(w, pal.del("-"+line))
			default:
				fmt.Fprintln(w, " "+line)
			}
		}
	}
	return nil
}

func indentJSON(doc docskema.Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	b, err := j.MarshalIndent(codec.Represent(doc), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func writeJSON(w io.Writer, doc docskema.Document) error {
	s, err := indentJSON(doc)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}
