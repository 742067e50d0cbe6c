package dsl

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/i18n"
)

// rule is a boolean expression evaluated against a coerced scalar, bound to
// the variable "value" (for example `len(value) <= 140`).
type rule struct {
	src string
	prg *vm.Program
}

func compileRule(src string) (rule, error) {
	prg, err := expr.Compile(src, expr.Env(map[string]any{"value": nil}), expr.AsBool())
	if err != nil {
		return rule{}, fmt.Errorf("dsl: rule %q: %w", src, err)
	}
	return rule{src: src, prg: prg}, nil
}

// rules holds the compiled rules of one scalar and the first compile error.
type rules struct {
	list []rule
	err  error
}

func (r *rules) add(src string) {
	if r.err != nil {
		return
	}
	ru, err := compileRule(src)
	if err != nil {
		r.err = err
		return
	}
	r.list = append(r.list, ru)
}

func (r *rules) check(ctx context.Context, v any) docskema.Issues {
	var iss docskema.Issues
	for _, ru := range r.list {
		out, err := expr.Run(ru.prg, map[string]any{"value": v})
		ok, _ := out.(bool)
		if err == nil && ok {
			continue
		}
		iss = docskema.AppendIssues(iss, docskema.Issue{
			Path:    "/",
			Code:    docskema.CodeRule,
			Message: i18n.T(ctx, docskema.CodeRule, nil),
			Hint:    ru.src,
			Cause:   err,
			Params:  map[string]any{"rule": ru.src},
		})
	}
	return iss
}
