package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/tp"
)

func TestFormat(t *testing.T) {
	p := ir.New()
	p.DeclareLibrary()

	g := p.GlobalAlloc("g", p.Integer(5))
	p.GlobalAlloc("z", p.ZeroInit(tp.Int32))

	f := p.NewFunc("inc", tp.NewFunc(tp.Int32, tp.Int32))
	x := p.AddParam(f, "x")
	entry := p.NewBlock(f, "inc_entry")
	end := p.NewBlock(f, "inc_end")

	ptr := p.Alloc(tp.Int32, "inc_x")
	p.Append(entry, ptr)
	p.Append(entry, p.Store(x, ptr))

	l := p.Load(ptr)
	p.Append(entry, l)

	sum := p.Binary(ir.Add, l, p.Integer(1))
	p.Append(entry, sum)

	gl := p.Load(g)
	p.Append(entry, gl)

	p.Append(entry, p.Branch(gl, end, end))

	c := p.Call(p.FuncByName("putint"))
	p.AddArg(c, sum)
	p.Append(end, c)

	r := p.Call(p.FuncByName("getint"))
	p.Append(end, r)
	p.Append(end, p.Return(sum))

	out, err := Format(context.Background(), nil, p)
	require.NoError(t, err)

	s := string(out)

	assert.Contains(t, s, "decl @getint(): i32\n")
	assert.Contains(t, s, "decl @putint(i32)\n")
	assert.Contains(t, s, "decl @putarray(i32, *i32)\n")
	assert.Contains(t, s, "global @g = alloc i32, 5\n")
	assert.Contains(t, s, "global @z = alloc i32, zeroinit\n")

	assert.Contains(t, s, `fun @inc(@x: i32): i32 {
%inc_entry:
  @inc_x = alloc i32
  store @x, @inc_x
  %0 = load @inc_x
  %1 = add %0, 1
  %2 = load @g
  br %2, %inc_end, %inc_end

%inc_end:
  call @putint(%1)
  %3 = call @getint()
  ret %1
}
`)
}

func TestFormatUnitFunc(t *testing.T) {
	p := ir.New()

	f := p.NewFunc("main", tp.NewFunc(tp.Unit))
	b := p.NewBlock(f, "entry")
	p.Append(b, p.Return(ir.NoValue))

	out, err := Format(context.Background(), nil, p)
	require.NoError(t, err)

	assert.Equal(t, "\nfun @main() {\n%entry:\n  ret\n}\n", string(out))
}

func TestFormatUnsupported(t *testing.T) {
	_, err := Format(context.Background(), nil, 3)
	assert.Error(t, err)
}
