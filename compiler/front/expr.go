package front

import (
	"tlog.app/go/errors"

	"github.com/slowlang/sysyc/compiler/ast"
	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/symbols"
	"github.com/slowlang/sysyc/compiler/tp"
)

var binOps = map[string]ir.BinaryOp{
	"+":  ir.Add,
	"-":  ir.Sub,
	"*":  ir.Mul,
	"/":  ir.Div,
	"%":  ir.Mod,
	"<":  ir.Lt,
	">":  ir.Gt,
	"<=": ir.Le,
	">=": ir.Ge,
	"==": ir.Eq,
	"!=": ir.NotEq,
}

func (f *funContext) expr(x ast.Expr) (ir.Value, error) {
	switch x := x.(type) {
	case *ast.Number:
		return f.Integer(x.Value), nil
	case *ast.Ident:
		sym, err := f.lookup(x, x.Name)
		if err != nil {
			return ir.NoValue, err
		}

		switch sym.Tag {
		case symbols.Constant:
			if sym.Value == ir.NoValue {
				sym.Value = f.Integer(sym.Const)
			}

			return sym.Value, nil
		case symbols.Variable:
			return f.emit(f.Load(sym.Value)), nil
		default:
			return ir.NoValue, errors.New("%v %v used as value", sym.Tag, x.Name)
		}
	case *ast.Unary:
		v, err := f.expr(x.X)
		if err != nil {
			return ir.NoValue, err
		}

		switch x.Op {
		case "-":
			return f.emit(f.Binary(ir.Sub, f.Integer(0), v)), nil
		case "!":
			return f.emit(f.Binary(ir.Eq, v, f.Integer(0))), nil
		}

		return v, nil
	case *ast.Binary:
		if x.Op == "||" || x.Op == "&&" {
			return f.shortCircuit(x)
		}

		op, ok := binOps[x.Op]
		if !ok {
			return ir.NoValue, errors.New("unsupported operator: %q", x.Op)
		}

		l, err := f.expr(x.L)
		if err != nil {
			return ir.NoValue, err
		}

		r, err := f.expr(x.R)
		if err != nil {
			return ir.NoValue, err
		}

		return f.emit(f.Binary(op, l, r)), nil
	case *ast.Call:
		sym, err := f.lookup(x, x.Name)
		if err != nil {
			return ir.NoValue, err
		}

		if sym.Tag != symbols.Function {
			return ir.NoValue, errors.New("%v %v is not a function", sym.Tag, x.Name)
		}

		call := f.Call(sym.Func)

		for i, a := range x.Args {
			v, err := f.expr(a)
			if err != nil {
				return ir.NoValue, errors.Wrap(err, "arg %d", i)
			}

			f.AddArg(call, v)
		}

		f.tr.V("call").Printw("call", "callee", x.Name, "args", len(x.Args))

		return f.emit(call), nil
	default:
		return ir.NoValue, errors.New("unsupported expr: %T", x)
	}
}

// shortCircuit lowers || and &&. The right operand is evaluated
// in its own block that the left operand may skip.
func (f *funContext) shortCircuit(x *ast.Binary) (ir.Value, error) {
	var init int32
	if x.Op == "||" {
		init = 1
	}

	res := f.emit(f.Alloc(tp.Int32, f.label("sc")))
	f.emit(f.Store(f.Integer(init), res))

	l, err := f.expr(x.L)
	if err != nil {
		return ir.NoValue, err
	}

	lc := f.emit(f.Binary(ir.NotEq, l, f.Integer(0)))

	rhs := f.newBlock("sc_rhs")
	end := f.newBlock("sc_end")

	if x.Op == "||" {
		f.emit(f.Branch(lc, end, rhs))
	} else {
		f.emit(f.Branch(lc, rhs, end))
	}

	f.cur = rhs

	r, err := f.expr(x.R)
	if err != nil {
		return ir.NoValue, err
	}

	rc := f.emit(f.Binary(ir.NotEq, r, f.Integer(0)))
	f.emit(f.Store(rc, res))
	f.emit(f.Jump(end))

	f.cur = end

	return f.emit(f.Load(res)), nil
}
