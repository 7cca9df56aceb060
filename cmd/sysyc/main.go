package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/xyproto/env/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/sysyc/compiler"
	"github.com/slowlang/sysyc/compiler/parse"
)

func main() {
	parseCmd := &cli.Command{
		Name:   "parse",
		Action: parseAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "sysyc",
		Description: "sysyc compiles SysY source to Koopa IR or RISC-V assembly",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("koopa", false, "emit Koopa IR"),
			cli.NewFlag("riscv", false, "emit RV32 assembly"),
			cli.NewFlag("output,o", env.Str("SYSYC_OUTPUT", "-"), "output file"),
			cli.NewFlag("verbosity,v", env.Str("SYSYC_V"), "tlog verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func parseAct(c *cli.Command) (err error) {
	tlog.SetVerbosity(c.String("verbosity"))

	ctx := tlog.ContextWithSpan(context.Background(), tlog.Root())

	for _, a := range c.Args {
		x, err := parse.ParseFile(ctx, a)
		if err != nil {
			return report(errors.Wrap(err, "parse %v", a))
		}

		fmt.Printf("ast: %+v\n", x)
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	tlog.SetVerbosity(c.String("verbosity"))

	ctx := tlog.ContextWithSpan(context.Background(), tlog.Root())

	mode := compiler.Koopa

	switch {
	case c.Bool("koopa") && c.Bool("riscv"):
		return report(errors.New("-koopa and -riscv are exclusive"))
	case c.Bool("riscv"):
		mode = compiler.RiscV
	}

	if len(c.Args) != 1 {
		return report(errors.New("expected exactly one input file, got %d", len(c.Args)))
	}

	obj, err := compiler.CompileFile(ctx, c.Args[0], mode)
	if err != nil {
		return report(errors.Wrap(err, "compile %v", c.Args[0]))
	}

	out := c.String("output")

	if out == "" || out == "-" {
		_, err = os.Stdout.Write(obj)
		return err
	}

	err = os.WriteFile(out, obj, 0o644)
	if err != nil {
		return report(errors.Wrap(err, "write output"))
	}

	return nil
}

type diag struct {
	error
}

// report marks err for the terminal. cli.RunAndExit prints it and exits.
func report(err error) error {
	return diag{err}
}

func (d diag) Error() string {
	return color.RedString("%v", d.error)
}

func (d diag) Unwrap() error { return d.error }
