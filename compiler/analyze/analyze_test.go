package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/sysyc/compiler/ast"
	"github.com/slowlang/sysyc/compiler/parse"
)

func analyzeText(t *testing.T, src string) (*ast.File, error) {
	t.Helper()

	ctx := context.Background()

	f, err := parse.Parse(ctx, "test.c", []byte(src))
	require.NoError(t, err)

	return f, Analyze(ctx, f)
}

func TestFolding(t *testing.T) {
	f, err := analyzeText(t, `
const int A = 2 + 3 * 4, B = A / 3 - -1;
const int C = !0 + (A > B) + (1 || 1 / 0) + (0 && 1 / 0);
int g = A * 2, z;
int main() {
	const int L = B % 3;
	return L + g;
}
`)
	require.NoError(t, err)

	cd := f.Decls[0].(*ast.ConstDecl)
	assert.Equal(t, int32(14), cd.Defs[0].Value)
	assert.Equal(t, int32(5), cd.Defs[1].Value)

	c := f.Decls[1].(*ast.ConstDecl)
	assert.Equal(t, int32(3), c.Defs[0].Value)

	g := f.Decls[2].(*ast.VarDecl)
	assert.Equal(t, int32(28), g.Defs[0].Value)
	assert.Equal(t, int32(0), g.Defs[1].Value)

	local := f.Decls[3].(*ast.FuncDef).Body.Items[0].(*ast.ConstDecl)
	assert.Equal(t, int32(2), local.Defs[0].Value)
}

func TestShadowing(t *testing.T) {
	_, err := analyzeText(t, `
int a = 1;
int main() {
	int a = 2;
	{
		const int a = 3;
		int b = a;
	}
	a = a + 1;
	return a;
}
`)
	assert.NoError(t, err)
}

func TestErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		line int
	}{
		{"redefinition", "int main() {\n int a;\n int a;\n return 0;\n}", 3},
		{"param_redefinition", "int f(int a) {\n int a; return a;\n}\nint main() { return 0; }", 2},
		{"global_redefinition", "int x;\nint x() { return 0; }\nint main() { return 0; }", 2},
		{"library_redefinition", "int main() { return 0; }\nint putint(int x) { return x; }", 2},
		{"undefined", "int main() {\n return b;\n}", 2},
		{"undefined_call", "int main() {\n return f();\n}", 2},
		{"assign_const", "const int c = 1;\nint main() {\n c = 2;\n return 0;\n}", 3},
		{"assign_func", "int main() {\n main = 2;\n return 0;\n}", 2},
		{"arity", "int f(int a) { return a; }\nint main() {\n return f(1, 2);\n}", 3},
		{"void_value", "void f() {}\nint main() {\n return f();\n}", 3},
		{"func_as_value", "int main() {\n return main + 1;\n}", 2},
		{"call_var", "int main() {\n int a;\n return a();\n}", 3},
		{"void_return_value", "void f() {\n return 1;\n}\nint main() { return 0; }", 2},
		{"int_return_empty", "int main() {\n return;\n}", 2},
		{"break", "int main() {\n break;\n}", 2},
		{"continue", "int main() {\n if (1) continue;\n return 0;\n}", 2},
		{"const_from_var", "int main() {\n int a = 1;\n const int b = a;\n return b;\n}", 3},
		{"const_call", "const int c = getint();\nint main() { return c; }", 1},
		{"global_nonconst", "int a = 1;\nint b = a;\nint main() { return b; }", 2},
		{"div_zero", "const int c = 1 / (2 - 2);\nint main() { return c; }", 1},
		{"pointer_arg", "int main() {\n return getarray(1);\n}", 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := analyzeText(t, tc.src)
			require.Error(t, err)

			var aerr Error
			require.True(t, errors.As(err, &aerr), "%v", err)
			assert.Equal(t, tc.line, aerr.Line, "%v", err)
		})
	}
}

func TestMainRequired(t *testing.T) {
	_, err := analyzeText(t, "int f() { return 0; }")
	assert.ErrorContains(t, err, "main")

	_, err = analyzeText(t, "void main() { }")
	assert.ErrorContains(t, err, "int main()")
}

func TestLibraryCalls(t *testing.T) {
	_, err := analyzeText(t, `
int main() {
	int n = getint();
	putint(n);
	putch(getch());
	starttime();
	stoptime();
	return usleep(n);
}
`)
	assert.NoError(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, int32(-2147483648), Fold("+", 2147483647, 1))
	assert.Equal(t, int32(-2), Fold("/", -5, 2))
	assert.Equal(t, int32(-1), Fold("%", -5, 2))
	assert.Equal(t, int32(1), Fold(">=", 3, 3))
	assert.Panics(t, func() { Fold("<<", 1, 1) })
}
