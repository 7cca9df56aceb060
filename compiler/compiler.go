package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/sysyc/compiler/analyze"
	"github.com/slowlang/sysyc/compiler/back"
	"github.com/slowlang/sysyc/compiler/format"
	"github.com/slowlang/sysyc/compiler/front"
	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/parse"
	"github.com/slowlang/sysyc/compiler/symbols"
)

type (
	// Mode selects the output.
	Mode int
)

const (
	Koopa Mode = iota
	RiscV
)

func CompileFile(ctx context.Context, name string, mode Mode) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, mode)
}

func Compile(ctx context.Context, name string, text []byte, mode Mode) (obj []byte, err error) {
	p, err := Build(ctx, name, text)
	if err != nil {
		return nil, err
	}

	switch mode {
	case Koopa:
		obj, err = format.Format(ctx, nil, p)
		if err != nil {
			return nil, errors.Wrap(err, "format")
		}
	case RiscV:
		obj, err = back.New().CompileProgram(ctx, nil, p)
		if err != nil {
			return nil, errors.Wrap(err, "codegen")
		}
	default:
		return nil, errors.New("unknown mode: %d", mode)
	}

	return obj, nil
}

// Build parses, checks and lowers text into a verified program.
func Build(ctx context.Context, name string, text []byte) (p *ir.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build", "name", name)
	defer tr.Finish("err", &err)

	f, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	err = analyze.Analyze(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	p, err = front.New().Lower(ctx, f, symbols.New())
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	err = p.Verify()
	if err != nil {
		return nil, errors.Wrap(err, "verify")
	}

	return p, nil
}

func (m Mode) String() string {
	switch m {
	case Koopa:
		return "koopa"
	case RiscV:
		return "riscv"
	default:
		return "unknown"
	}
}
