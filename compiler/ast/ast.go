package ast

type (
	Node interface{}

	Expr = Node
	Stmt = Node

	Base struct {
		Line int
		Col  int
	}

	Type int

	// File.Decls are *ConstDecl, *VarDecl and *FuncDef.
	File struct {
		Base `tlog:",embed"`

		Name  string
		Decls []Node
	}

	FuncDef struct {
		Base `tlog:",embed"`

		Ret    Type
		Name   string
		Params []*Param
		Body   *Block
	}

	Param struct {
		Base `tlog:",embed"`

		Name string
	}

	// Block.Items are declarations and statements.
	Block struct {
		Base `tlog:",embed"`

		Items []Node
	}

	ConstDecl struct {
		Base `tlog:",embed"`

		Defs []*ConstDef
	}

	ConstDef struct {
		Base `tlog:",embed"`

		Name string
		Init Expr

		// Value is set by analyze.
		Value int32
	}

	VarDecl struct {
		Base `tlog:",embed"`

		Defs []*VarDef
	}

	VarDef struct {
		Base `tlog:",embed"`

		Name string
		Init Expr // nil if none

		// Value is the folded initializer of a global, set by analyze.
		Value int32
	}

	Assign struct {
		Base `tlog:",embed"`

		Name  string
		Value Expr
	}

	// ExprStmt.X is nil for an empty statement.
	ExprStmt struct {
		Base `tlog:",embed"`

		X Expr
	}

	If struct {
		Base `tlog:",embed"`

		Cond Expr
		Then Stmt
		Else Stmt
	}

	While struct {
		Base `tlog:",embed"`

		Cond Expr
		Body Stmt
	}

	Break struct {
		Base `tlog:",embed"`
	}

	Continue struct {
		Base `tlog:",embed"`
	}

	Return struct {
		Base `tlog:",embed"`

		Value Expr
	}

	Number struct {
		Base `tlog:",embed"`

		Value int32
	}

	Ident struct {
		Base `tlog:",embed"`

		Name string
	}

	// Unary.Op is one of + - !
	Unary struct {
		Base `tlog:",embed"`

		Op string
		X  Expr
	}

	Binary struct {
		Base `tlog:",embed"`

		Op   string
		L, R Expr
	}

	Call struct {
		Base `tlog:",embed"`

		Name string
		Args []Expr
	}
)

const (
	Int Type = iota
	Void
)

func (t Type) String() string {
	if t == Void {
		return "void"
	}

	return "int"
}

func (b Base) Position() Base { return b }

// Pos returns the position of any node embedding Base.
func Pos(n Node) Base {
	if p, ok := n.(interface{ Position() Base }); ok {
		return p.Position()
	}

	return Base{}
}
