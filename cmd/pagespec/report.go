package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"

	"github.com/GriffinCanCode/pagespec/internal/bootstrap"
	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

type exportInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type consoleLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type report struct {
	Sandbox   string        `json:"sandbox"`
	Scripts   []string      `json:"scripts"`
	Exports   []exportInfo  `json:"exports"`
	Console   []consoleLine `json:"console,omitempty"`
	Eval      interface{}   `json:"eval,omitempty"`
	EvalError string        `json:"eval_error,omitempty"`
	Matches   []string      `json:"matches,omitempty"`
	XPathErr  string        `json:"xpath_error,omitempty"`
}

type reporter struct {
	stdout io.Writer
	json   bool
	eval   string
	xpath  string
	boot   *bootstrap.Bootstrapper
	mu     sync.Mutex
}

func (r *reporter) build(ctx context.Context, env *sandbox.Environment) report {
	rep := report{
		Sandbox: env.ID(),
		Scripts: env.Scripts(),
		Exports: []exportInfo{},
	}

	ns := r.boot.Namespace()
	for _, name := range ns.Keys() {
		if b, ok := ns.Lookup(name); ok {
			rep.Exports = append(rep.Exports, exportInfo{Name: name, Kind: b.Kind()})
		}
	}
	for _, entry := range env.Console() {
		rep.Console = append(rep.Console, consoleLine{Level: entry.Level, Message: entry.Message})
	}

	if r.eval != "" {
		v, err := env.Eval(ctx, r.eval)
		if err != nil {
			rep.EvalError = err.Error()
		} else {
			rep.Eval = v
		}
	}

	if r.xpath != "" {
		elems, err := env.DOM().XPath(r.xpath)
		if err != nil {
			rep.XPathErr = err.Error()
		}
		for _, el := range elems {
			rep.Matches = append(rep.Matches, el.OuterHTML())
		}
	}
	return rep
}

func (r *reporter) print(ctx context.Context, env *sandbox.Environment) error {
	rep := r.build(ctx, env)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.json {
		data, err := sonic.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintf(r.stdout, "%s\n", data)
		return err
	}
	return r.text(rep)
}

func (r *reporter) text(rep report) error {
	kind := color.New(color.FgCyan).SprintFunc()
	fn := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "sandbox\t%s\n", rep.Sandbox)
	for _, s := range rep.Scripts {
		fmt.Fprintf(tw, "script\t%s\n", s)
	}

	fmt.Fprintln(tw, "\nexports:")
	for _, e := range rep.Exports {
		name := e.Name
		if e.Kind == "function" {
			name = fn(name)
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, kind(e.Kind))
	}

	if len(rep.Console) > 0 {
		fmt.Fprintln(tw, "\nconsole:")
		for _, c := range rep.Console {
			fmt.Fprintf(tw, "  [%s]\t%s\n", c.Level, c.Message)
		}
	}

	switch {
	case rep.EvalError != "":
		fmt.Fprintf(tw, "\neval\t%s\n", bad(rep.EvalError))
	case r.eval != "":
		fmt.Fprintf(tw, "\neval\t%s\n", formatValue(rep.Eval))
	}

	switch {
	case rep.XPathErr != "":
		fmt.Fprintf(tw, "\nxpath\t%s\n", bad(rep.XPathErr))
	case r.xpath != "":
		fmt.Fprintf(tw, "\nxpath\t%d match(es)\n", len(rep.Matches))
		for _, m := range rep.Matches {
			fmt.Fprintf(tw, "  %s\n", m)
		}
	}
	return tw.Flush()
}

func formatValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%v", v)
}
