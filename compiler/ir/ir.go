package ir

import (
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/sysyc/compiler/tp"
)

type (
	// Value is an index into Program.Values.
	Value int
	Block int
	Func  int

	Program struct {
		Values []*ValueData
		Blocks []*BlockData

		// Funcs is in declaration order, library declarations first.
		Funcs []*FuncData

		Globals []Value
	}

	ValueData struct {
		Type tp.Type
		Name string
		Kind Kind

		UsedBy []Value

		// Block is the block the value was inserted into, NoBlock otherwise.
		Block Block
	}

	BlockData struct {
		Name   string
		Func   Func
		Params []Value
		Insts  []Value

		UsedBy []Value
	}

	FuncData struct {
		Name   string
		Type   *tp.Func
		Params []Value
		Blocks []Block
	}

	Kind interface {
		Operands() []Value
	}

	Integer struct {
		Value int32
	}

	ZeroInit struct{}

	Undef struct{}

	FuncArgRef struct {
		Index int
	}

	Alloc struct{}

	GlobalAlloc struct {
		Init Value
	}

	Load struct {
		Src Value
	}

	Store struct {
		Value Value
		Dest  Value
	}

	GetPtr struct {
		Src   Value
		Index Value
	}

	GetElemPtr struct {
		Src   Value
		Index Value
	}

	Binary struct {
		Op   BinaryOp
		L, R Value
	}

	Branch struct {
		Cond  Value
		True  Block
		False Block
	}

	Jump struct {
		Target Block
	}

	Call struct {
		Callee Func
		Args   []Value
	}

	// Return.Value is NoValue for a unit return.
	Return struct {
		Value Value
	}

	BinaryOp int
)

const (
	NoValue Value = -1
	NoBlock Block = -1
	NoFunc  Func  = -1
)

const (
	NotEq BinaryOp = iota
	Eq
	Gt
	Lt
	Ge
	Le
	Add
	Sub
	Mul
	Div
	Mod
	And
	Or
	Xor
	Shl
	Shr
	Sar
)

var opNames = []string{
	NotEq: "ne",
	Eq:    "eq",
	Gt:    "gt",
	Lt:    "lt",
	Ge:    "ge",
	Le:    "le",
	Add:   "add",
	Sub:   "sub",
	Mul:   "mul",
	Div:   "div",
	Mod:   "mod",
	And:   "and",
	Or:    "or",
	Xor:   "xor",
	Shl:   "shl",
	Shr:   "shr",
	Sar:   "sar",
}

func New() *Program {
	return &Program{}
}

func (p *Program) Value(v Value) *ValueData { return p.Values[v] }
func (p *Program) Block(b Block) *BlockData { return p.Blocks[b] }
func (p *Program) Func(f Func) *FuncData    { return p.Funcs[f] }

func (p *Program) FuncByName(name string) Func {
	for i, f := range p.Funcs {
		if f.Name == name {
			return Func(i)
		}
	}

	return NoFunc
}

// Defined reports whether the function has a body.
func (f *FuncData) Defined() bool { return len(f.Blocks) != 0 }

func (x Integer) Operands() []Value     { return nil }
func (x ZeroInit) Operands() []Value    { return nil }
func (x Undef) Operands() []Value       { return nil }
func (x FuncArgRef) Operands() []Value  { return nil }
func (x Alloc) Operands() []Value       { return nil }
func (x GlobalAlloc) Operands() []Value { return []Value{x.Init} }
func (x Load) Operands() []Value        { return []Value{x.Src} }
func (x Store) Operands() []Value       { return []Value{x.Value, x.Dest} }
func (x GetPtr) Operands() []Value      { return []Value{x.Src, x.Index} }
func (x GetElemPtr) Operands() []Value  { return []Value{x.Src, x.Index} }
func (x Binary) Operands() []Value      { return []Value{x.L, x.R} }
func (x Branch) Operands() []Value      { return []Value{x.Cond} }
func (x Jump) Operands() []Value        { return nil }
func (x *Call) Operands() []Value       { return x.Args }

func (x Return) Operands() []Value {
	if x.Value == NoValue {
		return nil
	}

	return []Value{x.Value}
}

// Targets returns blocks the terminator transfers control to.
func Targets(k Kind) []Block {
	switch k := k.(type) {
	case Branch:
		return []Block{k.True, k.False}
	case Jump:
		return []Block{k.Target}
	}

	return nil
}

func IsTerminator(k Kind) bool {
	switch k.(type) {
	case Branch, Jump, Return:
		return true
	}

	return false
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "op?"
	}

	return opNames[op]
}

func (v Value) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if v == NoValue {
		return e.AppendNil(b)
	}

	return e.AppendInt(b, int(v))
}

func (bl Block) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if bl == NoBlock {
		return e.AppendNil(b)
	}

	return e.AppendInt(b, int(bl))
}

func (op BinaryOp) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, op.String())
}
