package front

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/sysyc/compiler/ast"
	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/symbols"
	"github.com/slowlang/sysyc/compiler/tp"
)

type (
	Front struct{}

	pkgContext struct {
		*ir.Program

		syms *symbols.Table
		tr   tlog.Span
	}

	funContext struct {
		*pkgContext

		tr tlog.Span

		fn   ir.Func
		name string
		ret  tp.Type

		cur   ir.Block
		loops []loop

		counter  int
		returned bool
	}

	loop struct {
		cont ir.Block
		brk  ir.Block
	}
)

func New() *Front { return &Front{} }

// Lower builds the program from an analyzed file.
// syms must be fresh, it is filled with global symbols.
func (c *Front) Lower(ctx context.Context, f *ast.File, syms *symbols.Table) (_ *ir.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: lower", "name", f.Name)
	defer tr.Finish("err", &err)

	p := &pkgContext{
		Program: ir.New(),
		syms:    syms,
		tr:      tr,
	}

	for i, fn := range p.DeclareLibrary() {
		l := ir.Library[i]

		err = syms.Add(symbols.NewFunction(l.Name, fn, l.Type.In, l.Type.Out))
		if err != nil {
			return nil, errors.Wrap(err, "declare %v", l.Name)
		}
	}

	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			err = p.constDecl(d)
		case *ast.VarDecl:
			err = p.globalDecl(d)
		case *ast.FuncDef:
			err = c.lowerFunc(ctx, p, d)
		default:
			err = errors.New("unsupported decl: %T", d)
		}

		if err != nil {
			return nil, err
		}
	}

	return p.Program, nil
}

func (p *pkgContext) constDecl(d *ast.ConstDecl) error {
	for _, def := range d.Defs {
		err := p.syms.Add(symbols.NewConstant(def.Name, def.Value))
		if err != nil {
			return errors.Wrap(err, "const")
		}
	}

	return nil
}

func (p *pkgContext) globalDecl(d *ast.VarDecl) error {
	for _, def := range d.Defs {
		var init ir.Value

		if def.Init != nil {
			init = p.Integer(def.Value)
		} else {
			init = p.ZeroInit(tp.Int32)
		}

		g := p.GlobalAlloc(def.Name, init)

		err := p.syms.Add(symbols.NewVariable(def.Name, g))
		if err != nil {
			return errors.Wrap(err, "global")
		}
	}

	return nil
}

func (c *Front) lowerFunc(ctx context.Context, p *pkgContext, d *ast.FuncDef) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "front: lower func", "name", d.Name)
	defer tr.Finish("err", &err)

	params := make([]tp.Type, len(d.Params))
	for i := range params {
		params[i] = tp.Int32
	}

	var ret tp.Type = tp.Int32
	if d.Ret == ast.Void {
		ret = tp.Unit
	}

	fn := p.NewFunc(d.Name, tp.NewFunc(ret, params...))

	err = p.syms.Add(symbols.NewFunction(d.Name, fn, params, ret))
	if err != nil {
		return errors.Wrap(err, "func")
	}

	p.syms.Indent()
	defer p.syms.Dedent()

	f := &funContext{
		pkgContext: p,
		tr:         tr,
		fn:         fn,
		name:       d.Name,
		ret:        ret,
	}

	f.cur = p.NewBlock(fn, f.label("entry"))

	for _, par := range d.Params {
		arg := p.AddParam(fn, f.label(par.Name))

		ptr := f.emit(p.Alloc(tp.Int32, f.label(par.Name)))
		f.emit(p.Store(arg, ptr))

		err = p.syms.Add(symbols.NewVariable(par.Name, ptr))
		if err != nil {
			return errors.Wrap(err, "param")
		}
	}

	err = f.items(d.Body.Items)
	if err != nil {
		return err
	}

	if tp.IsUnit(ret) {
		f.emit(p.Return(ir.NoValue))
	} else {
		f.emit(p.Return(p.Integer(0)))
	}

	if tr.If("dump_ir") {
		for _, b := range p.Func(fn).Blocks {
			bd := p.Block(b)

			tr.Printw("block", "id", b, "name", bd.Name, "insts", bd.Insts)
		}
	}

	return nil
}

// label makes a name unique in the function: fn_hint_level_scope_counter.
func (f *funContext) label(hint string) string {
	l := fmt.Sprintf("%s_%s_%d_%d_%d", f.name, hint, f.syms.Level(), f.syms.Scope(), f.counter)
	f.counter++

	return l
}

func (f *funContext) emit(v ir.Value) ir.Value {
	if !f.TryAppend(f.cur, v) {
		f.tr.V("discard").Printw("value after terminator", "block", f.Block(f.cur).Name, "val", v, "kind", tlog.NextAsType, f.Value(v).Kind, "from", loc.Caller(1))
	}

	return v
}

func (f *funContext) newBlock(hint string) ir.Block {
	return f.NewBlock(f.fn, f.label(hint))
}

func (f *funContext) items(items []ast.Node) error {
	for _, it := range items {
		if f.returned {
			break
		}

		err := f.stmt(it)
		if err != nil {
			return err
		}
	}

	return nil
}

func (f *funContext) lookup(n ast.Node, name string) (*symbols.Symbol, error) {
	for _, s := range f.syms.Lookup(name) {
		if f.syms.Saw(s) {
			return s, nil
		}
	}

	p := ast.Pos(n)

	return nil, errors.New("line %d: undefined: %v", p.Line, name)
}

func (f *funContext) stmt(s ast.Stmt) (err error) {
	switch s := s.(type) {
	case *ast.Block:
		f.syms.EnterScope()
		defer f.syms.LeaveScope()

		f.tr.V("scope").Printw("enter scope", "level", f.syms.Level(), "scope", f.syms.Scope(), "line", s.Line)

		return f.items(s.Items)
	case *ast.ConstDecl:
		return f.constDecl(s)
	case *ast.VarDecl:
		for _, def := range s.Defs {
			ptr := f.emit(f.Alloc(tp.Int32, f.label(def.Name)))

			err = f.syms.Add(symbols.NewVariable(def.Name, ptr))
			if err != nil {
				return errors.Wrap(err, "var")
			}

			if def.Init == nil {
				continue
			}

			v, err := f.expr(def.Init)
			if err != nil {
				return err
			}

			f.emit(f.Store(v, ptr))
		}

		return nil
	case *ast.Assign:
		sym, err := f.lookup(s, s.Name)
		if err != nil {
			return err
		}

		v, err := f.expr(s.Value)
		if err != nil {
			return err
		}

		f.emit(f.Store(v, sym.Value))

		return nil
	case *ast.ExprStmt:
		if s.X == nil {
			return nil
		}

		_, err = f.expr(s.X)

		return err
	case *ast.If:
		return f.ifStmt(s)
	case *ast.While:
		return f.whileStmt(s)
	case *ast.Break:
		if len(f.loops) == 0 {
			return errors.New("break is not in a loop")
		}

		f.emit(f.Jump(f.loops[len(f.loops)-1].brk))
		f.cur = f.newBlock("after_break")

		return nil
	case *ast.Continue:
		if len(f.loops) == 0 {
			return errors.New("continue is not in a loop")
		}

		f.emit(f.Jump(f.loops[len(f.loops)-1].cont))
		f.cur = f.newBlock("after_continue")

		return nil
	case *ast.Return:
		v := ir.NoValue

		if s.Value != nil {
			v, err = f.expr(s.Value)
			if err != nil {
				return err
			}
		}

		f.emit(f.Return(v))
		f.returned = true

		return nil
	default:
		return errors.New("unsupported stmt: %T", s)
	}
}

func (f *funContext) ifStmt(s *ast.If) error {
	cond, err := f.expr(s.Cond)
	if err != nil {
		return errors.Wrap(err, "cond")
	}

	then := f.newBlock("then")

	els := ir.NoBlock
	if s.Else != nil {
		els = f.newBlock("else")
	}

	end := f.newBlock("end")
	if s.Else == nil {
		els = end
	}

	f.emit(f.Branch(cond, then, els))

	f.cur = then

	err = f.stmt(s.Then)
	if err != nil {
		return errors.Wrap(err, "then")
	}

	f.emit(f.Jump(end))
	f.returned = false

	if s.Else != nil {
		f.cur = els

		err = f.stmt(s.Else)
		if err != nil {
			return errors.Wrap(err, "else")
		}

		f.emit(f.Jump(end))
		f.returned = false
	}

	f.cur = end

	return nil
}

func (f *funContext) whileStmt(s *ast.While) error {
	cond := f.newBlock("while_cond")
	body := f.newBlock("while_body")
	end := f.newBlock("while_end")

	f.emit(f.Jump(cond))
	f.cur = cond

	c, err := f.expr(s.Cond)
	if err != nil {
		return errors.Wrap(err, "cond")
	}

	f.emit(f.Branch(c, body, end))

	f.loops = append(f.loops, loop{cont: cond, brk: end})
	f.cur = body

	err = f.stmt(s.Body)
	if err != nil {
		return errors.Wrap(err, "body")
	}

	f.emit(f.Jump(cond))
	f.loops = f.loops[:len(f.loops)-1]
	f.returned = false

	f.cur = end

	return nil
}
