package parse

import (
	"github.com/alecthomas/participle/v2/lexer"
)

type (
	gFile struct {
		Items []*gTop `@@*`
	}

	gTop struct {
		Func *gFunc `  @@`
		Decl *gDecl `| @@`
	}

	gFunc struct {
		Pos lexer.Position

		Ret    string    `@("int" | "void")`
		Name   string    `@Ident "("`
		Params []*gParam `( @@ ( "," @@ )* )? ")"`
		Body   *gBlock   `@@`
	}

	gParam struct {
		Pos lexer.Position

		Type string `@"int"`
		Name string `@Ident`
	}

	gDecl struct {
		Pos lexer.Position

		Const bool    `@"const"?`
		Type  string  `@"int"`
		Defs  []*gDef `@@ ( "," @@ )* ";"`
	}

	gDef struct {
		Pos lexer.Position

		Name string `@Ident`
		Init *gExp  `( "=" @@ )?`
	}

	gBlock struct {
		Pos lexer.Position

		Open  string   `@"{"`
		Items []*gItem `@@*`
		Close string   `@"}"`
	}

	gItem struct {
		Decl *gDecl `  @@`
		Stmt *gStmt `| @@`
	}

	gStmt struct {
		Pos lexer.Position

		Block    *gBlock  `  @@`
		If       *gIf     `| @@`
		While    *gWhile  `| @@`
		Break    *string  `| @"break" ";"`
		Continue *string  `| @"continue" ";"`
		Return   *gReturn `| @@`
		Assign   *gAssign `| @@`
		Expr     *gExprSt `| @@`
	}

	gIf struct {
		Pos lexer.Position

		Cond *gExp  `"if" "(" @@ ")"`
		Then *gStmt `@@`
		Else *gStmt `( "else" @@ )?`
	}

	gWhile struct {
		Pos lexer.Position

		Cond *gExp  `"while" "(" @@ ")"`
		Body *gStmt `@@`
	}

	gReturn struct {
		Pos lexer.Position

		Kw    string `@"return"`
		Value *gExp  `@@? ";"`
	}

	gAssign struct {
		Pos lexer.Position

		Name  string `@Ident "="`
		Value *gExp  `@@ ";"`
	}

	gExprSt struct {
		Pos lexer.Position

		X    *gExp  `@@?`
		Semi string `@";"`
	}

	gExp struct {
		LOr *gLOr `@@`
	}

	gLOr struct {
		Pos lexer.Position

		L    *gLAnd    `@@`
		Rest []*gLOrOp `@@*`
	}

	gLOrOp struct {
		Pos lexer.Position

		Op string `@"||"`
		R  *gLAnd `@@`
	}

	gLAnd struct {
		Pos lexer.Position

		L    *gEq       `@@`
		Rest []*gLAndOp `@@*`
	}

	gLAndOp struct {
		Pos lexer.Position

		Op string `@"&&"`
		R  *gEq   `@@`
	}

	gEq struct {
		Pos lexer.Position

		L    *gRel    `@@`
		Rest []*gEqOp `@@*`
	}

	gEqOp struct {
		Pos lexer.Position

		Op string `@("==" | "!=")`
		R  *gRel  `@@`
	}

	gRel struct {
		Pos lexer.Position

		L    *gAdd     `@@`
		Rest []*gRelOp `@@*`
	}

	gRelOp struct {
		Pos lexer.Position

		Op string `@("<=" | ">=" | "<" | ">")`
		R  *gAdd  `@@`
	}

	gAdd struct {
		Pos lexer.Position

		L    *gMul     `@@`
		Rest []*gAddOp `@@*`
	}

	gAddOp struct {
		Pos lexer.Position

		Op string `@("+" | "-")`
		R  *gMul  `@@`
	}

	gMul struct {
		Pos lexer.Position

		L    *gUnary   `@@`
		Rest []*gMulOp `@@*`
	}

	gMulOp struct {
		Pos lexer.Position

		Op string  `@("*" | "/" | "%")`
		R  *gUnary `@@`
	}

	gUnary struct {
		Pos lexer.Position

		Ops []string  `@("+" | "-" | "!")*`
		X   *gPrimary `@@`
	}

	gPrimary struct {
		Pos lexer.Position

		Paren  *gExp   `  "(" @@ ")"`
		Call   *gCall  `| @@`
		Number *string `| @Int`
		Ident  *string `| @Ident`
	}

	gCall struct {
		Pos lexer.Position

		Name string  `@Ident "("`
		Args []*gExp `( @@ ( "," @@ )* )? ")"`
	}
)
