package parse

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/sysyc/compiler/ast"
)

type (
	Error struct {
		Name string
		Line int
		Col  int
		Msg  string
	}

	// converter turns the grammar tree into ast and keeps the first error.
	converter struct {
		name string
		err  error
	}
)

var parser = participle.MustBuild[gFile](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

func ParseFile(ctx context.Context, name string) (*ast.File, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, name, text)
}

func Parse(ctx context.Context, name string, text []byte) (x *ast.File, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	g, err := parser.ParseBytes(name, text)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			pos := perr.Position()

			return nil, Error{Name: name, Line: pos.Line, Col: pos.Column, Msg: perr.Message()}
		}

		return nil, errors.Wrap(err, "parse")
	}

	c := &converter{name: name}
	x = &ast.File{Name: name}

	for _, top := range g.Items {
		switch {
		case top.Func != nil:
			x.Decls = append(x.Decls, c.convFunc(top.Func))
		case top.Decl != nil:
			x.Decls = append(x.Decls, c.convDecl(top.Decl))
		}
	}

	if c.err != nil {
		return nil, c.err
	}

	tr.V("ast").Printw("parsed", "decls", len(x.Decls))

	return x, nil
}

func (e Error) Error() string {
	return fmt.Sprintf("%v:%d:%d: %v", e.Name, e.Line, e.Col, e.Msg)
}

func base(p lexer.Position) ast.Base {
	return ast.Base{Line: p.Line, Col: p.Column}
}

func (c *converter) convFunc(g *gFunc) *ast.FuncDef {
	f := &ast.FuncDef{
		Base: base(g.Pos),
		Name: g.Name,
		Body: c.convBlock(g.Body),
	}

	if g.Ret == "void" {
		f.Ret = ast.Void
	}

	for _, p := range g.Params {
		f.Params = append(f.Params, &ast.Param{Base: base(p.Pos), Name: p.Name})
	}

	return f
}

func (c *converter) convDecl(g *gDecl) ast.Node {
	if g.Const {
		d := &ast.ConstDecl{Base: base(g.Pos)}

		for _, def := range g.Defs {
			if def.Init == nil {
				c.errorf(def.Pos, "const %v needs an initializer", def.Name)
			}

			d.Defs = append(d.Defs, &ast.ConstDef{
				Base: base(def.Pos),
				Name: def.Name,
				Init: c.convExp(def.Init),
			})
		}

		return d
	}

	d := &ast.VarDecl{Base: base(g.Pos)}

	for _, def := range g.Defs {
		d.Defs = append(d.Defs, &ast.VarDef{
			Base: base(def.Pos),
			Name: def.Name,
			Init: c.convExp(def.Init),
		})
	}

	return d
}

func (c *converter) convBlock(g *gBlock) *ast.Block {
	b := &ast.Block{Base: base(g.Pos)}

	for _, it := range g.Items {
		switch {
		case it.Decl != nil:
			b.Items = append(b.Items, c.convDecl(it.Decl))
		case it.Stmt != nil:
			b.Items = append(b.Items, c.convStmt(it.Stmt))
		}
	}

	return b
}

func (c *converter) convStmt(g *gStmt) ast.Stmt {
	pos := base(g.Pos)

	switch {
	case g.Block != nil:
		return c.convBlock(g.Block)
	case g.If != nil:
		s := &ast.If{
			Base: pos,
			Cond: c.convExp(g.If.Cond),
			Then: c.convStmt(g.If.Then),
		}

		if g.If.Else != nil {
			s.Else = c.convStmt(g.If.Else)
		}

		return s
	case g.While != nil:
		return &ast.While{
			Base: pos,
			Cond: c.convExp(g.While.Cond),
			Body: c.convStmt(g.While.Body),
		}
	case g.Break != nil:
		return &ast.Break{Base: pos}
	case g.Continue != nil:
		return &ast.Continue{Base: pos}
	case g.Return != nil:
		return &ast.Return{Base: pos, Value: c.convExp(g.Return.Value)}
	case g.Assign != nil:
		return &ast.Assign{Base: pos, Name: g.Assign.Name, Value: c.convExp(g.Assign.Value)}
	case g.Expr != nil:
		return &ast.ExprStmt{Base: pos, X: c.convExp(g.Expr.X)}
	}

	panic(fmt.Sprintf("empty statement node at %v", g.Pos))
}

func (c *converter) convExp(g *gExp) ast.Expr {
	if g == nil {
		return nil
	}

	return c.convLOr(g.LOr)
}

func binary(pos lexer.Position, op string, l, r ast.Expr) ast.Expr {
	return &ast.Binary{Base: base(pos), Op: op, L: l, R: r}
}

func (c *converter) convLOr(g *gLOr) ast.Expr {
	x := c.convLAnd(g.L)

	for _, r := range g.Rest {
		x = binary(r.Pos, r.Op, x, c.convLAnd(r.R))
	}

	return x
}

func (c *converter) convLAnd(g *gLAnd) ast.Expr {
	x := c.convEq(g.L)

	for _, r := range g.Rest {
		x = binary(r.Pos, r.Op, x, c.convEq(r.R))
	}

	return x
}

func (c *converter) convEq(g *gEq) ast.Expr {
	x := c.convRel(g.L)

	for _, r := range g.Rest {
		x = binary(r.Pos, r.Op, x, c.convRel(r.R))
	}

	return x
}

func (c *converter) convRel(g *gRel) ast.Expr {
	x := c.convAdd(g.L)

	for _, r := range g.Rest {
		x = binary(r.Pos, r.Op, x, c.convAdd(r.R))
	}

	return x
}

func (c *converter) convAdd(g *gAdd) ast.Expr {
	x := c.convMul(g.L)

	for _, r := range g.Rest {
		x = binary(r.Pos, r.Op, x, c.convMul(r.R))
	}

	return x
}

func (c *converter) convMul(g *gMul) ast.Expr {
	x := c.convUnary(g.L)

	for _, r := range g.Rest {
		x = binary(r.Pos, r.Op, x, c.convUnary(r.R))
	}

	return x
}

func (c *converter) convUnary(g *gUnary) ast.Expr {
	x := c.convPrimary(g.X)

	for i := len(g.Ops) - 1; i >= 0; i-- {
		x = &ast.Unary{Base: base(g.Pos), Op: g.Ops[i], X: x}
	}

	return x
}

func (c *converter) convPrimary(g *gPrimary) ast.Expr {
	pos := base(g.Pos)

	switch {
	case g.Paren != nil:
		return c.convExp(g.Paren)
	case g.Call != nil:
		call := &ast.Call{Base: pos, Name: g.Call.Name}

		for _, a := range g.Call.Args {
			call.Args = append(call.Args, c.convExp(a))
		}

		return call
	case g.Number != nil:
		v, ok := number(*g.Number)
		if !ok {
			c.errorf(g.Pos, "integer literal %v is out of range", *g.Number)
		}

		return &ast.Number{Base: pos, Value: v}
	case g.Ident != nil:
		return &ast.Ident{Base: pos, Name: *g.Ident}
	}

	panic(fmt.Sprintf("empty primary node at %v", g.Pos))
}

func (c *converter) errorf(pos lexer.Position, format string, args ...any) {
	if c.err != nil {
		return
	}

	c.err = Error{Name: c.name, Line: pos.Line, Col: pos.Column, Msg: fmt.Sprintf(format, args...)}
}

// number parses decimal, octal and hex literals up to 32 bits.
// Values past MaxInt32 wrap, so -2147483648 and 0xffffffff work.
func number(s string) (int32, bool) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, false
	}

	return int32(uint32(v)), true
}
