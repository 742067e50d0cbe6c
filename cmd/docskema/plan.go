package main

import (
	"fmt"
	"io"
	"sort"

	j "github.com/goccy/go-json"
	"github.com/scott-cotton/cli"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/codec"
	"github.com/reoring/docskema/i18n"
)

func plan(cfg *PlanConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Plan.Parse(cc, args)
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
	s := docskema.NewSaver(e.schema, nil, e.log)
	p, ops, err := s.Prepare(ctx, inst, id, e.saveOpt(cfg.Partial, cfg.Strict))
	if err != nil {
		return report(ctx, cfg.MainConfig, cc.Out, err)
	}
	pal := cfg.palette(cc.Out)
	renderPlan(cc.Out, pal, ops)
	if cfg.Presence {
		renderPresence(cc.Out, pal, p.Presence())
	}
	return nil
}

// renderPresence prints one line per payload pointer with its presence flags.
func renderPresence(w io.Writer, pal palette, pm docskema.PresenceMap) {
	fmt.Fprintln(w, pal.kind("presence"))
	for _, ptr := range sortedKeys(pm) {
		fmt.Fprintf(w, "     %s %s\n", pal.path(ptr), pm[ptr])
	}
}

// renderPlan prints one block per operation, in execution order.
func renderPlan(w io.Writer, pal palette, ops []docskema.Operation) {
	if len(ops) == 0 {
		fmt.Fprintln(w, "no operations")
		return
	}
	for i, op := range ops {
		fmt.Fprintf(w, "%d. %s", i+1, pal.kind(op.Kind.String()))
		if op.Kind != docskema.OpInsertOne {
			fmt.Fprintf(w, " %s=%s", op.Filter.Field, op.Filter.ID.Hex())
		}
		if op.Path != "" {
			fmt.Fprintf(w, " %s", pal.path(op.Path))
		}
		fmt.Fprintln(w)
		switch op.Kind {
		case docskema.OpInsertOne:
			fmt.Fprintf(w, "     %s\n", pal.val(jsonText(op.Doc)))
		case docskema.OpUpdateSet:
			renderSet(w, pal, "     ", op.Set)
		case docskema.OpPushArray:
			for _, v := range op.Values {
				fmt.Fprintf(w, "     %s %s\n", pal.add("+"), pal.val(jsonText(v)))
			}
		case docskema.OpBulkReconcileArray:
			for _, m := range op.Matched {
				fmt.Fprintf(w, "     match %s=%s\n", op.IDField, m.ID.Hex())
				renderSet(w, pal, "       ", m.Set)
				for _, k := range sortedKeys(m.Push) {
					for _, v := range m.Push[k] {
						fmt.Fprintf(w, "       %s %s %s\n", pal.add("+"), pal.key(k), pal.val(jsonText(v)))
					}
				}
			}
			for _, d := range op.Unmatched {
				fmt.Fprintf(w, "     %s %s\n", pal.add("+"), pal.val(jsonText(d)))
			}
		}
	}
}

func renderSet(w io.Writer, pal palette, indent string, set map[string]any) {
	for _, k := range sortedKeys(set) {
		fmt.Fprintf(w, "%s%s = %s\n", indent, pal.key(k), pal.val(jsonText(set[k])))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func jsonText(v any) string {
	b, err := j.Marshal(codec.Represent(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
