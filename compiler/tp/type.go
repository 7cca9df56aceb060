package tp

import (
	"strconv"
	"strings"
)

type (
	Type interface {
		Size() int
		String() string
	}

	int32Type struct{}
	unitType  struct{}

	Ptr struct {
		X Type
	}

	Array struct {
		X   Type
		Len int
	}

	Func struct {
		In  []Type
		Out Type
	}
)

// Int32 and Unit are the only scalar types. They compare equal with ==.
var (
	Int32 Type = int32Type{}
	Unit  Type = unitType{}
)

const WordSize = 4

func Pointer(x Type) *Ptr { return &Ptr{X: x} }

func NewArray(x Type, n int) *Array { return &Array{X: x, Len: n} }

func NewFunc(out Type, in ...Type) *Func { return &Func{In: in, Out: out} }

func IsUnit(t Type) bool { return t == nil || t == Unit }

func (int32Type) Size() int      { return WordSize }
func (int32Type) String() string { return "i32" }

func (unitType) Size() int      { return 0 }
func (unitType) String() string { return "unit" }

func (x *Ptr) Size() int      { return WordSize }
func (x *Ptr) String() string { return "*" + x.X.String() }

func (x *Array) Size() int { return x.X.Size() * x.Len }

func (x *Array) String() string {
	return "[" + x.X.String() + ", " + strconv.Itoa(x.Len) + "]"
}

func (x *Func) Size() int { return 0 }

func (x *Func) String() string {
	var b strings.Builder

	b.WriteByte('(')

	for i, t := range x.In {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(t.String())
	}

	b.WriteByte(')')

	if !IsUnit(x.Out) {
		b.WriteString(": ")
		b.WriteString(x.Out.String())
	}

	return b.String()
}

// Equal compares types structurally.
func Equal(a, b Type) bool {
	if a == b {
		return true
	}

	switch a := a.(type) {
	case *Ptr:
		b, ok := b.(*Ptr)
		return ok && Equal(a.X, b.X)
	case *Array:
		b, ok := b.(*Array)
		return ok && a.Len == b.Len && Equal(a.X, b.X)
	case *Func:
		b, ok := b.(*Func)
		if !ok || len(a.In) != len(b.In) || !Equal(a.Out, b.Out) {
			return false
		}

		for i := range a.In {
			if !Equal(a.In[i], b.In[i]) {
				return false
			}
		}

		return true
	}

	return false
}
