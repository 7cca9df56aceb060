package symbols

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/tp"
)

type (
	Tag int

	Symbol struct {
		Name string
		Tag  Tag

		Level int
		Scope int

		Const int32

		// Value is the memoized Integer of a Constant
		// or the Alloc/GlobalAlloc pointer of a Variable.
		Value ir.Value

		Func   ir.Func
		Params []tp.Type
		Ret    tp.Type
	}

	// Table is a stack of lexical scopes.
	Table struct {
		frames []frame
		scopes int
	}

	frame struct {
		level int
		scope int
		fn    bool
		names map[string]*Symbol
	}
)

const (
	Constant Tag = iota
	Variable
	Function
)

var ErrRedefined = errors.New("redefined")

func New() *Table {
	t := &Table{}
	t.push(false)

	return t
}

func NewConstant(name string, x int32) *Symbol {
	return &Symbol{Name: name, Tag: Constant, Const: x, Value: ir.NoValue, Func: ir.NoFunc}
}

func NewVariable(name string, ptr ir.Value) *Symbol {
	return &Symbol{Name: name, Tag: Variable, Value: ptr, Func: ir.NoFunc}
}

func NewFunction(name string, f ir.Func, params []tp.Type, ret tp.Type) *Symbol {
	return &Symbol{Name: name, Tag: Function, Value: ir.NoValue, Func: f, Params: params, Ret: ret}
}

// Indent opens a function frame.
func (t *Table) Indent() { t.push(true) }

// Dedent closes the innermost function frame and every block scope inside it.
func (t *Table) Dedent() {
	for len(t.frames) > 1 {
		fn := t.top().fn
		t.frames = t.frames[:len(t.frames)-1]

		if fn {
			return
		}
	}

	panic("dedent at global scope")
}

func (t *Table) EnterScope() { t.push(false) }

func (t *Table) LeaveScope() {
	if len(t.frames) == 1 || t.top().fn {
		panic("leave scope without enter")
	}

	t.frames = t.frames[:len(t.frames)-1]
}

// Level is the function nesting depth, 0 at global scope.
func (t *Table) Level() int { return t.top().level }

// Scope is the id of the innermost scope. Ids are never reused.
func (t *Table) Scope() int { return t.top().scope }

func (t *Table) Global() bool { return len(t.frames) == 1 }

func (t *Table) Add(s *Symbol) error {
	f := t.top()

	if _, ok := f.names[s.Name]; ok {
		return errors.Wrap(ErrRedefined, "%v", s.Name)
	}

	s.Level = f.level
	s.Scope = f.scope
	f.names[s.Name] = s

	return nil
}

// Lookup returns every visible symbol with the name, innermost first.
func (t *Table) Lookup(name string) (r []*Symbol) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if s, ok := t.frames[i].names[name]; ok {
			r = append(r, s)
		}
	}

	return r
}

// Get returns the innermost visible symbol or nil.
func (t *Table) Get(name string) *Symbol {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if s, ok := t.frames[i].names[name]; ok {
			return s
		}
	}

	return nil
}

// Here returns the symbol declared in the innermost scope or nil.
func (t *Table) Here(name string) *Symbol {
	return t.top().names[name]
}

// Saw reports whether s was declared in a scope that is still open.
func (t *Table) Saw(s *Symbol) bool {
	for i := len(t.frames) - 1; i >= 0; i-- {
		f := &t.frames[i]

		if f.scope == s.Scope {
			return f.names[s.Name] == s
		}
	}

	return false
}

func (t *Table) push(fn bool) {
	level := 0
	if len(t.frames) != 0 {
		level = t.top().level
	}

	if fn {
		level++
	}

	t.frames = append(t.frames, frame{
		level: level,
		scope: t.scopes,
		fn:    fn,
		names: map[string]*Symbol{},
	})

	t.scopes++
}

func (t *Table) top() *frame { return &t.frames[len(t.frames)-1] }

func (x Tag) String() string {
	switch x {
	case Constant:
		return "const"
	case Variable:
		return "var"
	case Function:
		return "func"
	default:
		return "tag?"
	}
}

func (s *Symbol) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)
	b = e.AppendKeyString(b, "name", s.Name)
	b = e.AppendKeyString(b, "tag", s.Tag.String())
	b = e.AppendKeyInt64(b, "level", int64(s.Level))
	b = e.AppendKeyInt64(b, "scope", int64(s.Scope))

	return b
}
