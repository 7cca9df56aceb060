package analyze

import (
	"context"
	"fmt"
	"reflect"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/sysyc/compiler/ast"
	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/symbols"
	"github.com/slowlang/sysyc/compiler/tp"
)

type (
	Error struct {
		Line int
		Col  int
		Msg  string
	}

	UnsupportedASTNodeError struct{ T ast.Node }

	analyzer struct {
		syms *symbols.Table

		ret   ast.Type
		loops int
	}
)

// Analyze checks f and stores folded constant values into it.
func Analyze(ctx context.Context, f *ast.File) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "analyze", "name", f.Name)
	defer tr.Finish("err", &err)

	a := &analyzer{syms: symbols.New()}

	for _, l := range ir.Library {
		err = a.syms.Add(symbols.NewFunction(l.Name, ir.NoFunc, l.Type.In, l.Type.Out))
		if err != nil {
			return errors.Wrap(err, "declare %v", l.Name)
		}
	}

	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			err = a.constDecl(d)
		case *ast.VarDecl:
			err = a.globalDecl(d)
		case *ast.FuncDef:
			err = a.funcDef(d)
		default:
			err = NewUnsupportedASTNode(d)
		}

		if err != nil {
			return err
		}
	}

	m := a.syms.Get("main")
	if m == nil || m.Tag != symbols.Function {
		return errf(f, "function main is not defined")
	}

	if !tp.Equal(m.Ret, tp.Int32) || len(m.Params) != 0 {
		return errf(f, "main must be int main()")
	}

	return nil
}

func (a *analyzer) define(n ast.Node, s *symbols.Symbol) error {
	if a.syms.Here(s.Name) != nil {
		return errf(n, "redefinition of %v", s.Name)
	}

	err := a.syms.Add(s)
	if err != nil {
		return errors.Wrap(err, "add symbol")
	}

	return nil
}

func (a *analyzer) constDecl(d *ast.ConstDecl) error {
	for _, def := range d.Defs {
		v, err := a.eval(def.Init)
		if err != nil {
			return err
		}

		def.Value = v

		err = a.define(def, symbols.NewConstant(def.Name, v))
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *analyzer) globalDecl(d *ast.VarDecl) error {
	for _, def := range d.Defs {
		if def.Init != nil {
			v, err := a.eval(def.Init)
			if err != nil {
				return err
			}

			def.Value = v
		}

		err := a.define(def, symbols.NewVariable(def.Name, ir.NoValue))
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *analyzer) funcDef(f *ast.FuncDef) error {
	params := make([]tp.Type, len(f.Params))
	for i := range params {
		params[i] = tp.Int32
	}

	var ret tp.Type = tp.Int32
	if f.Ret == ast.Void {
		ret = tp.Unit
	}

	err := a.define(f, symbols.NewFunction(f.Name, ir.NoFunc, params, ret))
	if err != nil {
		return err
	}

	a.syms.Indent()
	defer a.syms.Dedent()

	for _, p := range f.Params {
		err = a.define(p, symbols.NewVariable(p.Name, ir.NoValue))
		if err != nil {
			return err
		}
	}

	a.ret = f.Ret
	a.loops = 0

	return a.items(f.Body.Items)
}

func (a *analyzer) items(items []ast.Node) error {
	for _, it := range items {
		err := a.stmt(it)
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *analyzer) stmt(s ast.Stmt) (err error) {
	switch s := s.(type) {
	case *ast.Block:
		a.syms.EnterScope()
		defer a.syms.LeaveScope()

		return a.items(s.Items)
	case *ast.ConstDecl:
		return a.constDecl(s)
	case *ast.VarDecl:
		for _, def := range s.Defs {
			err = a.define(def, symbols.NewVariable(def.Name, ir.NoValue))
			if err != nil {
				return err
			}

			if def.Init != nil {
				err = a.value(def.Init)
				if err != nil {
					return err
				}
			}
		}

		return nil
	case *ast.Assign:
		sym := a.syms.Get(s.Name)

		switch {
		case sym == nil:
			return errf(s, "undefined: %v", s.Name)
		case sym.Tag != symbols.Variable:
			return errf(s, "cannot assign to %v %v", sym.Tag, s.Name)
		}

		return a.value(s.Value)
	case *ast.ExprStmt:
		if s.X == nil {
			return nil
		}

		_, err = a.expr(s.X)

		return err
	case *ast.If:
		err = a.value(s.Cond)
		if err != nil {
			return err
		}

		err = a.stmt(s.Then)
		if err != nil {
			return err
		}

		if s.Else != nil {
			return a.stmt(s.Else)
		}

		return nil
	case *ast.While:
		err = a.value(s.Cond)
		if err != nil {
			return err
		}

		a.loops++
		defer func() { a.loops-- }()

		return a.stmt(s.Body)
	case *ast.Break:
		if a.loops == 0 {
			return errf(s, "break is not in a loop")
		}

		return nil
	case *ast.Continue:
		if a.loops == 0 {
			return errf(s, "continue is not in a loop")
		}

		return nil
	case *ast.Return:
		switch {
		case a.ret == ast.Void && s.Value != nil:
			return errf(s, "too many return values")
		case a.ret == ast.Int && s.Value == nil:
			return errf(s, "not enough return values")
		case s.Value != nil:
			return a.value(s.Value)
		}

		return nil
	default:
		return NewUnsupportedASTNode(s)
	}
}

// value checks x is an expression producing i32.
func (a *analyzer) value(x ast.Expr) error {
	void, err := a.expr(x)
	if err != nil {
		return err
	}

	if void {
		return errf(x, "void value used as value")
	}

	return nil
}

func (a *analyzer) expr(x ast.Expr) (void bool, err error) {
	switch x := x.(type) {
	case *ast.Number:
		return false, nil
	case *ast.Ident:
		sym := a.syms.Get(x.Name)

		switch {
		case sym == nil:
			return false, errf(x, "undefined: %v", x.Name)
		case sym.Tag == symbols.Function:
			return false, errf(x, "function %v used as value", x.Name)
		}

		return false, nil
	case *ast.Unary:
		return false, a.value(x.X)
	case *ast.Binary:
		err = a.value(x.L)
		if err != nil {
			return false, err
		}

		return false, a.value(x.R)
	case *ast.Call:
		sym := a.syms.Get(x.Name)

		switch {
		case sym == nil:
			return false, errf(x, "undefined: %v", x.Name)
		case sym.Tag != symbols.Function:
			return false, errf(x, "%v %v is not a function", sym.Tag, x.Name)
		case len(sym.Params) != len(x.Args):
			return false, errf(x, "%v expects %d arguments, got %d", x.Name, len(sym.Params), len(x.Args))
		}

		for i, arg := range x.Args {
			if !tp.Equal(sym.Params[i], tp.Int32) {
				return false, errf(arg, "argument %d of %v: cannot use i32 as %v", i, x.Name, sym.Params[i])
			}

			err = a.value(arg)
			if err != nil {
				return false, err
			}
		}

		return tp.IsUnit(sym.Ret), nil
	default:
		return false, NewUnsupportedASTNode(x)
	}
}

// eval evaluates a compile-time constant expression.
func (a *analyzer) eval(x ast.Expr) (int32, error) {
	switch x := x.(type) {
	case *ast.Number:
		return x.Value, nil
	case *ast.Ident:
		sym := a.syms.Get(x.Name)

		switch {
		case sym == nil:
			return 0, errf(x, "undefined: %v", x.Name)
		case sym.Tag != symbols.Constant:
			return 0, errf(x, "%v is not a constant", x.Name)
		}

		return sym.Const, nil
	case *ast.Unary:
		v, err := a.eval(x.X)
		if err != nil {
			return 0, err
		}

		switch x.Op {
		case "-":
			return -v, nil
		case "!":
			return b2i(v == 0), nil
		}

		return v, nil
	case *ast.Binary:
		l, err := a.eval(x.L)
		if err != nil {
			return 0, err
		}

		switch {
		case x.Op == "&&" && l == 0:
			return 0, nil
		case x.Op == "||" && l != 0:
			return 1, nil
		}

		r, err := a.eval(x.R)
		if err != nil {
			return 0, err
		}

		if (x.Op == "/" || x.Op == "%") && r == 0 {
			return 0, errf(x, "division by zero")
		}

		return Fold(x.Op, l, r), nil
	case *ast.Call:
		return 0, errf(x, "call of %v is not a constant expression", x.Name)
	default:
		return 0, NewUnsupportedASTNode(x)
	}
}

// Fold applies a binary source operator to constants. r must be non-zero for / and %.
func Fold(op string, l, r int32) int32 {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		return l / r
	case "%":
		return l % r
	case "<":
		return b2i(l < r)
	case ">":
		return b2i(l > r)
	case "<=":
		return b2i(l <= r)
	case ">=":
		return b2i(l >= r)
	case "==":
		return b2i(l == r)
	case "!=":
		return b2i(l != r)
	case "&&":
		return b2i(l != 0 && r != 0)
	case "||":
		return b2i(l != 0 || r != 0)
	}

	panic(fmt.Sprintf("unsupported operator %q", op))
}

func b2i(x bool) int32 {
	if x {
		return 1
	}

	return 0
}

func errf(n ast.Node, format string, args ...any) Error {
	p := ast.Pos(n)

	return Error{Line: p.Line, Col: p.Col, Msg: fmt.Sprintf(format, args...)}
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

func NewUnsupportedASTNode(x ast.Node) UnsupportedASTNodeError {
	return UnsupportedASTNodeError{
		T: x,
	}
}

func (e UnsupportedASTNodeError) Error() string {
	return fmt.Sprintf("unsupported node: %v", reflect.TypeOf(e.T))
}
