package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/sysyc/compiler/ast"
)

func parseMain(t *testing.T, body string) *ast.FuncDef {
	t.Helper()

	x, err := Parse(context.Background(), "test.c", []byte("int main() {"+body+"}"))
	require.NoError(t, err)
	require.Len(t, x.Decls, 1)

	return x.Decls[0].(*ast.FuncDef)
}

func TestPrecedence(t *testing.T) {
	f := parseMain(t, "return 1 + 2 * 3 - 4;")

	require.Len(t, f.Body.Items, 1)

	ret := f.Body.Items[0].(*ast.Return)
	sub := ret.Value.(*ast.Binary)
	assert.Equal(t, "-", sub.Op)

	add := sub.L.(*ast.Binary)
	assert.Equal(t, "+", add.Op)
	assert.Equal(t, int32(1), add.L.(*ast.Number).Value)

	mul := add.R.(*ast.Binary)
	assert.Equal(t, "*", mul.Op)
	assert.Equal(t, int32(4), sub.R.(*ast.Number).Value)
}

func TestLogicalPrecedence(t *testing.T) {
	f := parseMain(t, "return a || b && c == d < e;")

	or := f.Body.Items[0].(*ast.Return).Value.(*ast.Binary)
	require.Equal(t, "||", or.Op)

	and := or.R.(*ast.Binary)
	require.Equal(t, "&&", and.Op)

	eq := and.R.(*ast.Binary)
	require.Equal(t, "==", eq.Op)

	lt := eq.R.(*ast.Binary)
	require.Equal(t, "<", lt.Op)
}

func TestUnary(t *testing.T) {
	f := parseMain(t, "return -!+x;")

	neg := f.Body.Items[0].(*ast.Return).Value.(*ast.Unary)
	assert.Equal(t, "-", neg.Op)

	not := neg.X.(*ast.Unary)
	assert.Equal(t, "!", not.Op)

	plus := not.X.(*ast.Unary)
	assert.Equal(t, "+", plus.Op)
	assert.Equal(t, "x", plus.X.(*ast.Ident).Name)
}

func TestDanglingElse(t *testing.T) {
	f := parseMain(t, "if (a) if (b) return 1; else return 2; return 3;")

	require.Len(t, f.Body.Items, 2)

	outer := f.Body.Items[0].(*ast.If)
	assert.Nil(t, outer.Else)

	inner := outer.Then.(*ast.If)
	assert.NotNil(t, inner.Else)
}

func TestStatements(t *testing.T) {
	f := parseMain(t, `
	const int N = 10, M = N * 2;
	int i = 0, s;
	// line comment
	while (i < N) {
		/* block
		   comment */
		if (i == 5) break;
		if (i == 6) continue;
		s = s + f(i, 1);
		;
		i = i + 1;
	}
	putint(s);
	return;
`)

	items := f.Body.Items
	require.Len(t, items, 5)

	cd := items[0].(*ast.ConstDecl)
	require.Len(t, cd.Defs, 2)
	assert.Equal(t, "M", cd.Defs[1].Name)

	vd := items[1].(*ast.VarDecl)
	require.Len(t, vd.Defs, 2)
	assert.NotNil(t, vd.Defs[0].Init)
	assert.Nil(t, vd.Defs[1].Init)

	w := items[2].(*ast.While)
	body := w.Body.(*ast.Block)
	require.Len(t, body.Items, 5)

	assert.IsType(t, &ast.Break{}, body.Items[0].(*ast.If).Then)
	assert.IsType(t, &ast.Continue{}, body.Items[1].(*ast.If).Then)

	as := body.Items[2].(*ast.Assign)
	call := as.Value.(*ast.Binary).R.(*ast.Call)
	assert.Equal(t, "f", call.Name)
	assert.Len(t, call.Args, 2)

	assert.Nil(t, body.Items[3].(*ast.ExprStmt).X)

	assert.IsType(t, &ast.Call{}, items[3].(*ast.ExprStmt).X)
	assert.Nil(t, items[4].(*ast.Return).Value)
}

func TestTopLevel(t *testing.T) {
	x, err := Parse(context.Background(), "test.c", []byte(`
int g = 3;
const int c = 4;
void f(int a, int b) {}
int main() { return 0; }
`))
	require.NoError(t, err)
	require.Len(t, x.Decls, 4)

	assert.IsType(t, &ast.VarDecl{}, x.Decls[0])
	assert.IsType(t, &ast.ConstDecl{}, x.Decls[1])

	f := x.Decls[2].(*ast.FuncDef)
	assert.Equal(t, ast.Void, f.Ret)
	assert.Len(t, f.Params, 2)
	assert.Equal(t, 4, f.Line)

	m := x.Decls[3].(*ast.FuncDef)
	assert.Equal(t, ast.Int, m.Ret)
}

func TestNumbers(t *testing.T) {
	for _, tc := range []struct {
		src string
		val int32
	}{
		{"0", 0},
		{"42", 42},
		{"017", 15},
		{"0x1F", 31},
		{"0XfF", 255},
		{"2147483648", -2147483648},
		{"0xffffffff", -1},
		{"4294967295", -1},
	} {
		f := parseMain(t, "return "+tc.src+";")

		assert.Equal(t, tc.val, f.Body.Items[0].(*ast.Return).Value.(*ast.Number).Value, tc.src)
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), "bad.c", []byte("int main() {\n  return 1 +;\n}"))
	require.Error(t, err)

	var perr Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, "bad.c", perr.Name)
}

func TestLiteralOutOfRange(t *testing.T) {
	for _, src := range []string{"99999999999", "4294967296", "0x100000000", "0777777777777"} {
		_, err := Parse(context.Background(), "big.c", []byte("int main() { return "+src+"; }"))
		require.Error(t, err, src)

		var perr Error
		require.True(t, errors.As(err, &perr), "%v", err)
		assert.Equal(t, 1, perr.Line, src)
		assert.Equal(t, 21, perr.Col, src)
		assert.Contains(t, perr.Msg, "out of range", src)
	}
}

func TestConstNeedsInit(t *testing.T) {
	_, err := Parse(context.Background(), "c.c", []byte("int main() {\n  const int a = 1, b;\n  return a;\n}"))
	require.Error(t, err)

	var perr Error
	require.True(t, errors.As(err, &perr), "%v", err)
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 20, perr.Col)
	assert.Equal(t, "const b needs an initializer", perr.Msg)
}

func TestKeywordsReserved(t *testing.T) {
	for _, src := range []string{
		"int main() { int if = 1; return if; }",
		"int while() { return 0; }",
		"int main(int return) { return 0; }",
		"int main() { const int else = 1; return 0; }",
	} {
		_, err := Parse(context.Background(), "kw.c", []byte(src))

		var perr Error
		assert.True(t, errors.As(err, &perr), "%v: %v", src, err)
	}

	f := parseMain(t, "int integer = 1; int returned = integer; return returned;")
	require.Len(t, f.Body.Items, 3)
	assert.Equal(t, "integer", f.Body.Items[0].(*ast.VarDecl).Defs[0].Name)
}
