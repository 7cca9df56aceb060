package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/sysyc/compiler/tp"
)

func newMain(t *testing.T) (*Program, Func, Block) {
	t.Helper()

	p := New()
	p.DeclareLibrary()

	f := p.NewFunc("main", tp.NewFunc(tp.Int32))
	b := p.NewBlock(f, "entry")

	return p, f, b
}

func TestLibraryFirst(t *testing.T) {
	p, f, _ := newMain(t)

	require.Len(t, p.Funcs, len(Library)+1)
	assert.Equal(t, "getint", p.Funcs[0].Name)
	assert.Equal(t, "usleep", p.Funcs[len(Library)-1].Name)
	assert.Equal(t, Func(len(Library)), f)
	assert.Equal(t, f, p.FuncByName("main"))
	assert.Equal(t, NoFunc, p.FuncByName("nope"))

	for _, lf := range p.Funcs[:len(Library)] {
		assert.False(t, lf.Defined(), lf.Name)
	}
}

func TestUsedBy(t *testing.T) {
	p, _, b := newMain(t)

	one := p.Integer(1)
	two := p.Integer(2)
	add := p.Binary(Add, one, two)
	mul := p.Binary(Mul, add, one)
	ret := p.Return(mul)

	for _, v := range []Value{add, mul, ret} {
		p.Append(b, v)
	}

	assert.Equal(t, []Value{add, mul}, p.Value(one).UsedBy)
	assert.Equal(t, []Value{add}, p.Value(two).UsedBy)
	assert.Equal(t, []Value{mul}, p.Value(add).UsedBy)
	assert.Equal(t, []Value{ret}, p.Value(mul).UsedBy)
	assert.Equal(t, b, p.Value(ret).Block)
	assert.Equal(t, NoBlock, p.Value(one).Block)

	require.NoError(t, p.Verify())
}

func TestDiscardAfterTerminator(t *testing.T) {
	p, f, b := newMain(t)

	end := p.NewBlock(f, "end")

	require.True(t, p.TryAppend(b, p.Jump(end)))
	assert.Equal(t, []Value{p.Blocks[b].Insts[0]}, p.Blocks[end].UsedBy)

	x := p.Integer(3)
	ret := p.Return(x)

	assert.False(t, p.TryAppend(b, ret))
	assert.False(t, p.TryAppend(b, p.Jump(end)))

	assert.Len(t, p.Blocks[b].Insts, 1)
	assert.Len(t, p.Blocks[end].UsedBy, 1)
	assert.Empty(t, p.Value(x).UsedBy)
	assert.Equal(t, NoBlock, p.Value(ret).Block)

	require.True(t, p.TryAppend(end, p.Return(x)))
	require.NoError(t, p.Verify())
}

func TestAppendAfterTerminatorPanics(t *testing.T) {
	p, f, b := newMain(t)

	end := p.NewBlock(f, "end")
	p.Append(b, p.Jump(end))

	ret := p.Return(p.Integer(1))

	assert.Panics(t, func() { p.Append(b, ret) })
	assert.Len(t, p.Blocks[b].Insts, 1)
	assert.Equal(t, NoBlock, p.Value(ret).Block)

	p.Append(end, ret)

	assert.Panics(t, func() { p.Append(end, ret) }, "value is already in a block")
	assert.Panics(t, func() { p.TryAppend(b, ret) }, "value is already in a block")
}

func TestCallArgs(t *testing.T) {
	p, _, b := newMain(t)

	putint := p.FuncByName("putint")
	getint := p.FuncByName("getint")

	g := p.Call(getint)
	assert.Equal(t, tp.Int32, p.Value(g).Type)

	c := p.Call(putint)
	p.AddArg(c, g)

	assert.True(t, tp.IsUnit(p.Value(c).Type))
	assert.Equal(t, []Value{g}, p.Value(c).Kind.Operands())
	assert.Equal(t, []Value{c}, p.Value(g).UsedBy)

	p.Append(b, g)
	p.Append(b, c)
	p.Append(b, p.Return(p.Integer(0)))

	require.NoError(t, p.Verify())
}

func TestAllocTypes(t *testing.T) {
	p, _, b := newMain(t)

	a := p.Alloc(tp.Int32, "x")
	assert.Equal(t, "*i32", p.Value(a).Type.String())

	l := p.Load(a)
	assert.Equal(t, tp.Int32, p.Value(l).Type)

	g := p.GlobalAlloc("g", p.ZeroInit(tp.Int32))
	assert.Equal(t, []Value{g}, p.Globals)
	assert.Equal(t, "*i32", p.Value(g).Type.String())

	arr := p.Alloc(tp.NewArray(tp.Int32, 4), "arr")
	ep := p.GetElemPtr(arr, p.Integer(1))
	assert.Equal(t, "*i32", p.Value(ep).Type.String())

	p.Append(b, a)
	p.Append(b, l)
	p.Append(b, p.Return(l))

	require.NoError(t, p.Verify())
}

func TestVerify(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		p, _, _ := newMain(t)

		assert.Error(t, p.Verify())
	})

	t.Run("unterminated", func(t *testing.T) {
		p, _, b := newMain(t)

		p.Append(b, p.Alloc(tp.Int32, "x"))

		assert.Error(t, p.Verify())
	})

	t.Run("early_terminator", func(t *testing.T) {
		p, _, b := newMain(t)

		p.Append(b, p.Return(p.Integer(0)))

		// bypass Append to break the invariant
		bd := p.Blocks[b]
		v := p.Alloc(tp.Int32, "x")
		p.Values[v].Block = b
		bd.Insts = append(bd.Insts, v)

		assert.Error(t, p.Verify())
	})

	t.Run("ret_without_value", func(t *testing.T) {
		p, _, b := newMain(t)

		p.Append(b, p.Return(NoValue))

		assert.ErrorContains(t, p.Verify(), "ret without value in i32 function")
	})

	t.Run("ret_value_in_unit", func(t *testing.T) {
		p := New()

		f := p.NewFunc("f", tp.NewFunc(tp.Unit))
		b := p.NewBlock(f, "entry")
		p.Append(b, p.Return(p.Integer(1)))

		assert.ErrorContains(t, p.Verify(), "ret i32 in unit function")
	})

	t.Run("ret_pointer", func(t *testing.T) {
		p, _, b := newMain(t)

		x := p.Alloc(tp.Int32, "x")
		p.Append(b, x)
		p.Append(b, p.Return(x))

		assert.ErrorContains(t, p.Verify(), "ret *i32 in i32 function")
	})

	t.Run("foreign_target", func(t *testing.T) {
		p, _, b := newMain(t)

		g := p.NewFunc("g", tp.NewFunc(tp.Unit))
		gb := p.NewBlock(g, "g_entry")
		p.Append(gb, p.Return(NoValue))

		p.Append(b, p.Jump(gb))

		assert.Error(t, p.Verify())
	})
}

func TestBinaryOpString(t *testing.T) {
	assert.Equal(t, "ne", NotEq.String())
	assert.Equal(t, "mod", Mod.String())
	assert.Equal(t, "sar", Sar.String())
	assert.Equal(t, "op?", BinaryOp(100).String())
}
