package ir

import "github.com/slowlang/sysyc/compiler/tp"

type LibFunc struct {
	Name string
	Type *tp.Func
}

// Library lists runtime functions every program can call.
var Library = []LibFunc{
	{"getint", tp.NewFunc(tp.Int32)},
	{"getch", tp.NewFunc(tp.Int32)},
	{"getarray", tp.NewFunc(tp.Int32, tp.Pointer(tp.Int32))},
	{"putint", tp.NewFunc(tp.Unit, tp.Int32)},
	{"putch", tp.NewFunc(tp.Unit, tp.Int32)},
	{"putarray", tp.NewFunc(tp.Unit, tp.Int32, tp.Pointer(tp.Int32))},
	{"starttime", tp.NewFunc(tp.Unit)},
	{"stoptime", tp.NewFunc(tp.Unit)},
	{"usleep", tp.NewFunc(tp.Int32, tp.Int32)},
}

// DeclareLibrary adds Library declarations to p. It must be called
// before any other function is created.
func (p *Program) DeclareLibrary() []Func {
	fs := make([]Func, len(Library))

	for i, l := range Library {
		fs[i] = p.NewFunc(l.Name, l.Type)
	}

	return fs
}
