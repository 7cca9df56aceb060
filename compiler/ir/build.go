package ir

import (
	"fmt"

	"github.com/slowlang/sysyc/compiler/tp"
)

func (p *Program) add(t tp.Type, name string, k Kind) Value {
	v := Value(len(p.Values))

	p.Values = append(p.Values, &ValueData{
		Type:  t,
		Name:  name,
		Kind:  k,
		Block: NoBlock,
	})

	for _, op := range k.Operands() {
		p.use(op, v)
	}

	for _, b := range Targets(k) {
		p.Blocks[b].UsedBy = append(p.Blocks[b].UsedBy, v)
	}

	return v
}

func (p *Program) use(op, by Value) {
	if op == NoValue {
		return
	}

	d := p.Values[op]
	d.UsedBy = append(d.UsedBy, by)
}

func (p *Program) unuse(op, by Value) {
	if op == NoValue {
		return
	}

	d := p.Values[op]

	for i := len(d.UsedBy) - 1; i >= 0; i-- {
		if d.UsedBy[i] == by {
			d.UsedBy = append(d.UsedBy[:i], d.UsedBy[i+1:]...)
			return
		}
	}
}

func (p *Program) Integer(x int32) Value {
	return p.add(tp.Int32, "", Integer{Value: x})
}

func (p *Program) ZeroInit(t tp.Type) Value {
	return p.add(t, "", ZeroInit{})
}

func (p *Program) Alloc(base tp.Type, name string) Value {
	return p.add(tp.Pointer(base), name, Alloc{})
}

// GlobalAlloc creates a global variable and appends it to p.Globals.
func (p *Program) GlobalAlloc(name string, init Value) Value {
	t := p.Values[init].Type

	v := p.add(tp.Pointer(t), name, GlobalAlloc{Init: init})
	p.Globals = append(p.Globals, v)

	return v
}

func (p *Program) Load(src Value) Value {
	return p.add(p.base(src), "", Load{Src: src})
}

func (p *Program) Store(val, dest Value) Value {
	return p.add(tp.Unit, "", Store{Value: val, Dest: dest})
}

func (p *Program) GetPtr(src, idx Value) Value {
	return p.add(p.Values[src].Type, "", GetPtr{Src: src, Index: idx})
}

func (p *Program) GetElemPtr(src, idx Value) Value {
	var t tp.Type = tp.Unit

	if arr, ok := p.base(src).(*tp.Array); ok {
		t = tp.Pointer(arr.X)
	}

	return p.add(t, "", GetElemPtr{Src: src, Index: idx})
}

func (p *Program) Binary(op BinaryOp, l, r Value) Value {
	return p.add(tp.Int32, "", Binary{Op: op, L: l, R: r})
}

func (p *Program) Branch(cond Value, t, f Block) Value {
	return p.add(tp.Unit, "", Branch{Cond: cond, True: t, False: f})
}

func (p *Program) Jump(target Block) Value {
	return p.add(tp.Unit, "", Jump{Target: target})
}

// Call creates a call with no arguments. Use AddArg to fill them in.
func (p *Program) Call(callee Func) Value {
	return p.add(p.Funcs[callee].Type.Out, "", &Call{Callee: callee})
}

func (p *Program) AddArg(call, arg Value) {
	c := p.Values[call].Kind.(*Call)
	c.Args = append(c.Args, arg)

	p.use(arg, call)
}

// Return with NoValue returns unit.
func (p *Program) Return(v Value) Value {
	return p.add(tp.Unit, "", Return{Value: v})
}

func (p *Program) NewFunc(name string, t *tp.Func) Func {
	f := Func(len(p.Funcs))

	p.Funcs = append(p.Funcs, &FuncData{
		Name: name,
		Type: t,
	})

	return f
}

// AddParam creates the next FuncArgRef of f.
func (p *Program) AddParam(f Func, name string) Value {
	fd := p.Funcs[f]
	i := len(fd.Params)

	if i >= len(fd.Type.In) {
		panic(fmt.Sprintf("func %v: param %d out of signature %v", fd.Name, i, fd.Type))
	}

	v := p.add(fd.Type.In[i], name, FuncArgRef{Index: i})
	fd.Params = append(fd.Params, v)

	return v
}

func (p *Program) NewBlock(f Func, name string) Block {
	b := Block(len(p.Blocks))

	p.Blocks = append(p.Blocks, &BlockData{
		Name: name,
		Func: f,
	})

	fd := p.Funcs[f]
	fd.Blocks = append(fd.Blocks, b)

	return b
}

// Terminated reports whether the block's last instruction is a terminator.
func (p *Program) Terminated(b Block) bool {
	insts := p.Blocks[b].Insts
	if len(insts) == 0 {
		return false
	}

	return IsTerminator(p.Values[insts[len(insts)-1]].Kind)
}

// Append inserts v at the end of b. b must not be terminated.
func (p *Program) Append(b Block, v Value) {
	if p.Terminated(b) {
		panic(fmt.Sprintf("append value %d to terminated block %v", v, p.Blocks[b].Name))
	}

	p.insert(b, v)
}

// TryAppend is Append which drops v and unlinks it from its operands
// if b is already terminated.
func (p *Program) TryAppend(b Block, v Value) bool {
	if p.Terminated(b) {
		p.checkFree(v)
		p.discard(v)

		return false
	}

	p.insert(b, v)

	return true
}

func (p *Program) insert(b Block, v Value) {
	p.checkFree(v)

	bd := p.Blocks[b]
	bd.Insts = append(bd.Insts, v)
	p.Values[v].Block = b
}

func (p *Program) checkFree(v Value) {
	if d := p.Values[v]; d.Block != NoBlock {
		panic(fmt.Sprintf("value %d is already in block %v", v, p.Blocks[d.Block].Name))
	}
}

func (p *Program) discard(v Value) {
	d := p.Values[v]

	for _, op := range d.Kind.Operands() {
		p.unuse(op, v)
	}

	for _, t := range Targets(d.Kind) {
		bd := p.Blocks[t]

		for i := len(bd.UsedBy) - 1; i >= 0; i-- {
			if bd.UsedBy[i] == v {
				bd.UsedBy = append(bd.UsedBy[:i], bd.UsedBy[i+1:]...)
				break
			}
		}
	}
}

func (p *Program) base(ptr Value) tp.Type {
	switch t := p.Values[ptr].Type.(type) {
	case *tp.Ptr:
		return t.X
	default:
		panic(fmt.Sprintf("value %d is not a pointer: %v", ptr, t))
	}
}
