package format

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/tp"
)

type (
	funContext struct {
		*ir.Program

		names map[ir.Value]string
		next  int
	}
)

// Format prints x in the Koopa text format.
func Format(ctx context.Context, b []byte, x any) (_ []byte, err error) {
	switch x := x.(type) {
	case *ir.Program:
		tr, _ := tlog.SpawnFromContextAndWrap(ctx, "format: program", "funcs", len(x.Funcs), "globals", len(x.Globals))
		defer tr.Finish("err", &err)

		return formatProgram(b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatProgram(b []byte, p *ir.Program) (_ []byte, err error) {
	for _, f := range p.Funcs {
		if f.Defined() {
			continue
		}

		b = app(b, 0, "decl @%s%v\n", f.Name, f.Type)
	}

	if len(p.Globals) != 0 {
		b = append(b, '\n')
	}

	for _, g := range p.Globals {
		gd := p.Value(g)
		init := gd.Kind.(ir.GlobalAlloc).Init

		b = app(b, 0, "global @%s = alloc %v, %s\n", gd.Name, p.Value(init).Type, initializer(p, init))
	}

	for _, f := range p.Funcs {
		if !f.Defined() {
			continue
		}

		b = append(b, '\n')

		b, err = formatFunc(b, p, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

func formatFunc(b []byte, p *ir.Program, f *ir.FuncData) (_ []byte, err error) {
	fc := &funContext{
		Program: p,
		names:   map[ir.Value]string{},
	}

	b = app(b, 0, "fun @%s(", f.Name)

	for i, par := range f.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "%s: %v", fc.name(par), p.Value(par).Type)
	}

	b = append(b, ')')

	if !tp.IsUnit(f.Type.Out) {
		b = app(b, 0, ": %v", f.Type.Out)
	}

	b = append(b, " {\n"...)

	for i, blk := range f.Blocks {
		if i != 0 {
			b = append(b, '\n')
		}

		b = app(b, 0, "%%%s:\n", p.Block(blk).Name)

		for _, v := range p.Block(blk).Insts {
			b, err = fc.formatInst(b, v)
			if err != nil {
				return nil, errors.Wrap(err, "block %v", p.Block(blk).Name)
			}
		}
	}

	b = append(b, "}\n"...)

	return b, nil
}

func (fc *funContext) formatInst(b []byte, v ir.Value) ([]byte, error) {
	d := fc.Value(v)

	switch k := d.Kind.(type) {
	case ir.Alloc:
		b = app(b, 1, "%s = alloc %v\n", fc.name(v), d.Type.(*tp.Ptr).X)
	case ir.Load:
		b = app(b, 1, "%s = load %s\n", fc.name(v), fc.operand(k.Src))
	case ir.Store:
		b = app(b, 1, "store %s, %s\n", fc.operand(k.Value), fc.operand(k.Dest))
	case ir.GetPtr:
		b = app(b, 1, "%s = getptr %s, %s\n", fc.name(v), fc.operand(k.Src), fc.operand(k.Index))
	case ir.GetElemPtr:
		b = app(b, 1, "%s = getelemptr %s, %s\n", fc.name(v), fc.operand(k.Src), fc.operand(k.Index))
	case ir.Binary:
		b = app(b, 1, "%s = %v %s, %s\n", fc.name(v), k.Op, fc.operand(k.L), fc.operand(k.R))
	case ir.Branch:
		b = app(b, 1, "br %s, %%%s, %%%s\n", fc.operand(k.Cond), fc.Block(k.True).Name, fc.Block(k.False).Name)
	case ir.Jump:
		b = app(b, 1, "jump %%%s\n", fc.Block(k.Target).Name)
	case *ir.Call:
		b = app(b, 1, "")

		if !tp.IsUnit(d.Type) {
			b = app(b, 0, "%s = ", fc.name(v))
		}

		b = app(b, 0, "call @%s(", fc.Func(k.Callee).Name)

		for i, a := range k.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = append(b, fc.operand(a)...)
		}

		b = append(b, ")\n"...)
	case ir.Return:
		if k.Value == ir.NoValue {
			b = app(b, 1, "ret\n")
		} else {
			b = app(b, 1, "ret %s\n", fc.operand(k.Value))
		}
	default:
		return nil, errors.New("unsupported instruction: %T", k)
	}

	return b, nil
}

func (fc *funContext) operand(v ir.Value) string {
	d := fc.Value(v)

	switch k := d.Kind.(type) {
	case ir.Integer:
		return fmt.Sprintf("%d", k.Value)
	case ir.ZeroInit:
		return "zeroinit"
	case ir.Undef:
		return "undef"
	}

	return fc.name(v)
}

// name returns @name for named values and a per-function %N otherwise.
func (fc *funContext) name(v ir.Value) string {
	if n := fc.Value(v).Name; n != "" {
		return "@" + n
	}

	if n, ok := fc.names[v]; ok {
		return n
	}

	n := fmt.Sprintf("%%%d", fc.next)
	fc.next++

	fc.names[v] = n

	return n
}

func initializer(p *ir.Program, v ir.Value) string {
	switch k := p.Value(v).Kind.(type) {
	case ir.Integer:
		return fmt.Sprintf("%d", k.Value)
	case ir.ZeroInit:
		return "zeroinit"
	default:
		return "undef"
	}
}

func app(b []byte, d int, f string, args ...any) []byte {
	const spaces = "        "
	b = append(b, spaces[:2*d]...)
	b = fmt.Appendf(b, f, args...)
	return b
}
