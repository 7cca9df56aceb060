package back

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/sysyc/compiler/asm"
	"github.com/slowlang/sysyc/compiler/asm/riscv"
	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/set"
	"github.com/slowlang/sysyc/compiler/tp"
)

type (
	Compiler struct{}

	// UnsupportedError is raised for IR the generator has no lowering for.
	UnsupportedError struct {
		What string
	}

	pkgContext struct {
		*ir.Program
	}

	funContext struct {
		*pkgContext

		tr tlog.Span

		fn    *ir.FuncData
		frame frame

		// stack holds Alloc addresses and homes of cross-block values.
		stack map[ir.Value]int
		// slots are block-local register slots.
		slots map[ir.Value]int

		blocks map[ir.Block]blockInfo

		cur ir.Block

		// clobbered slots are reloaded from the save area while a call is set up.
		clobbered set.Bitmap
	}

	operand struct {
		pre asm.Lines
		reg riscv.Reg
	}
)

func New() *Compiler { return &Compiler{} }

// CompileProgram appends RISC-V assembly for p to b.
// Unsupported IR results in an error and no output.
func (c *Compiler) CompileProgram(ctx context.Context, b []byte, p *ir.Program) (res []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile program", "funcs", len(p.Funcs), "globals", len(p.Globals))
	defer tr.Finish("err", &err)

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		u, ok := r.(UnsupportedError)
		if !ok {
			panic(r)
		}

		res, err = nil, u
	}()

	pc := &pkgContext{Program: p}

	b = pc.compileData(b)

	b = asm.Directive(b, ".text")

	for _, f := range p.Funcs {
		if !f.Defined() {
			continue
		}

		b, err = c.compileFunc(ctx, b, pc, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	if tr.If("omit_out") {
		b = nil
	}

	return b, nil
}

func (p *pkgContext) compileData(b []byte) []byte {
	if len(p.Globals) == 0 {
		return b
	}

	b = asm.Directive(b, ".data")

	for _, g := range p.Globals {
		gd := p.Value(g)
		init := p.Value(gd.Kind.(ir.GlobalAlloc).Init)

		b = asm.Directive(b, ".globl", gd.Name)
		b = asm.Label(b, gd.Name)

		switch k := init.Kind.(type) {
		case ir.Integer:
			b = asm.Directive(b, ".word", k.Value)
		case ir.ZeroInit:
			b = asm.Directive(b, ".zero", init.Type.Size())
		default:
			unsupported("global initializer %T", k)
		}
	}

	b = append(b, '\n')

	return b
}

func (c *Compiler) compileFunc(ctx context.Context, b []byte, p *pkgContext, fn *ir.FuncData) (_ []byte, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: compile func", "name", fn.Name)
	defer tr.Finish("err", &err)

	f := &funContext{
		pkgContext: p,
		tr:         tr,
		fn:         fn,
		stack:      map[ir.Value]int{},
		slots:      map[ir.Value]int{},
		blocks:     map[ir.Block]blockInfo{},
	}

	f.layout()

	if tr.If("dump_frame") {
		tr.Printw("frame", "size", f.frame.Size, "arg_spill", f.frame.ArgSpill, "saved", f.frame.Saved,
			"locals", f.frame.Locals, "spill", f.frame.Spill, "homes", f.frame.Homes, "max_slots", f.frame.MaxSlots)
	}

	b = asm.Directive(b, ".globl", fn.Name)
	b = asm.Label(b, fn.Name)

	b = f.addSP(b, -f.frame.Size)
	b = f.store(b, riscv.RA, f.frame.raOff(), riscv.T0)

	for _, blk := range fn.Blocks {
		f.cur = blk

		b = asm.Label(b, f.Block(blk).Name)

		for i, v := range f.Block(blk).Insts {
			b = f.inst(b, i, v)
		}
	}

	b = append(b, '\n')

	return b, nil
}

func (f *funContext) inst(b []byte, i int, v ir.Value) []byte {
	d := f.Value(v)

	switch k := d.Kind.(type) {
	case ir.Alloc:
	case ir.Load:
		dst := f.destReg(v)

		src := f.Value(k.Src)

		switch src.Kind.(type) {
		case ir.Alloc:
			b = f.load(b, dst, f.stackOff(k.Src))
		case ir.GlobalAlloc:
			b = asm.Instr(b, "la", dst, src.Name)
			b = asm.Instr(b, "lw", dst, asm.Mem(0, dst))
		default:
			op := f.operand(k.Src, riscv.T0)
			b = append(b, op.pre...)
			b = asm.Instr(b, "lw", dst, asm.Mem(0, op.reg))
		}

		b = f.writeBack(b, v, dst)
	case ir.Store:
		val := f.operand(k.Value, riscv.T0)
		b = append(b, val.pre...)

		dest := f.Value(k.Dest)

		switch dest.Kind.(type) {
		case ir.Alloc:
			b = f.store(b, val.reg, f.stackOff(k.Dest), riscv.T1)
		case ir.GlobalAlloc:
			b = asm.Instr(b, "la", riscv.T1, dest.Name)
			b = asm.Instr(b, "sw", val.reg, asm.Mem(0, riscv.T1))
		default:
			ptr := f.operand(k.Dest, riscv.T1)
			b = append(b, ptr.pre...)
			b = asm.Instr(b, "sw", val.reg, asm.Mem(0, ptr.reg))
		}
	case ir.Binary:
		b = f.binary(b, v, k)
	case ir.Branch:
		cond := f.operand(k.Cond, riscv.T0)
		b = append(b, cond.pre...)

		b = asm.Instr(b, "bnez", cond.reg, f.Block(k.True).Name)
		b = asm.Instr(b, "j", f.Block(k.False).Name)
	case ir.Jump:
		b = asm.Instr(b, "j", f.Block(k.Target).Name)
	case *ir.Call:
		b = f.call(b, i, v, k)
	case ir.Return:
		if k.Value != ir.NoValue {
			b = f.into(b, k.Value, riscv.A0)
		}

		b = f.load(b, riscv.RA, f.frame.raOff())
		b = f.addSP(b, f.frame.Size)
		b = asm.Instr(b, "ret")
	case ir.GetPtr:
		unsupported("getptr")
	case ir.GetElemPtr:
		unsupported("getelemptr")
	default:
		unsupported("instruction %T", k)
	}

	return b
}

func (f *funContext) binary(b []byte, v ir.Value, k ir.Binary) []byte {
	ops := f.prepare(k.L, k.R)

	for _, op := range ops {
		b = append(b, op.pre...)
	}

	dst := f.destReg(v)
	l, r := ops[0].reg, ops[1].reg

	switch k.Op {
	case ir.NotEq:
		b = asm.Instr(b, "xor", dst, l, r)
		b = asm.Instr(b, "snez", dst, dst)
	case ir.Eq:
		b = asm.Instr(b, "xor", dst, l, r)
		b = asm.Instr(b, "seqz", dst, dst)
	case ir.Gt:
		b = asm.Instr(b, "sgt", dst, l, r)
	case ir.Lt:
		b = asm.Instr(b, "slt", dst, l, r)
	case ir.Ge:
		b = asm.Instr(b, "slt", dst, l, r)
		b = asm.Instr(b, "seqz", dst, dst)
	case ir.Le:
		b = asm.Instr(b, "sgt", dst, l, r)
		b = asm.Instr(b, "seqz", dst, dst)
	default:
		m, ok := mnemonics[k.Op]
		if !ok {
			unsupported("binary operator %v", k.Op)
		}

		b = asm.Instr(b, m, dst, l, r)
	}

	return f.writeBack(b, v, dst)
}

var mnemonics = map[ir.BinaryOp]string{
	ir.Add: "add",
	ir.Sub: "sub",
	ir.Mul: "mul",
	ir.Div: "div",
	ir.Mod: "rem",
	ir.And: "and",
	ir.Or:  "or",
	ir.Xor: "xor",
	ir.Shl: "sll",
	ir.Sar: "sra",
}

func (f *funContext) call(b []byte, i int, v ir.Value, k *ir.Call) []byte {
	callee := f.Func(k.Callee)
	info := f.blocks[f.cur]

	// keep slots are used after the call and restored.
	// live ones are saved: keep plus a-band arguments, which are
	// reloaded from the save area while a0..a7 are filled.
	live := set.MakeBitmap(riscv.Budget)
	keep := set.MakeBitmap(riscv.Budget)

	for _, u := range f.Block(f.cur).Insts[:i] {
		s, ok := f.slots[u]
		if !ok || s >= riscv.Budget {
			continue
		}

		last, ok := info.lastUse[u]
		if !ok || last < i {
			continue
		}

		if last > i {
			keep.Set(s)
			live.Set(s)
		} else if riscv.IsArg(riscv.Slot(s)) {
			live.Set(s)
		}
	}

	f.tr.V("call").Printw("call", "callee", callee.Name, "args", len(k.Args), "live", live, "keep", keep, "saved", live.Size(), "from", loc.Caller(1))

	live.Range(func(s int) bool {
		b = f.store(b, riscv.Slot(s), f.frame.saveOff(s), riscv.T0)
		return true
	})

	f.clobbered = live.Filter(func(s int) bool { return riscv.IsArg(riscv.Slot(s)) })

	for j, a := range k.Args {
		if ref, ok := f.Value(a).Kind.(ir.FuncArgRef); ok {
			unsupported("argument %d of %v passed to %v directly", ref.Index, f.fn.Name, callee.Name)
		}

		if j < len(riscv.Args) {
			b = f.into(b, a, riscv.Args[j])
			continue
		}

		op := f.operand(a, riscv.T0)
		b = append(b, op.pre...)
		b = f.store(b, op.reg, (j-len(riscv.Args))*riscv.WordSize, riscv.T1)
	}

	f.clobbered = set.Bitmap{}

	b = asm.Instr(b, "call", callee.Name)

	if !tp.IsUnit(f.Value(v).Type) {
		if r := f.destReg(v); r == riscv.T0 {
			b = f.writeBack(b, v, riscv.A0)
		} else if r != riscv.A0 {
			b = asm.Instr(b, "mv", r, riscv.A0)
		}
	}

	keep.Range(func(s int) bool {
		b = f.load(b, riscv.Slot(s), f.frame.saveOff(s))
		return true
	})

	return b
}

func (f *funContext) prepare(vals ...ir.Value) []operand {
	ops := make([]operand, len(vals))

	for i, v := range vals {
		ops[i] = f.operand(v, riscv.Scratch[i])
	}

	return ops
}

// operand resolves v to a register, loading it into scratch if needed.
func (f *funContext) operand(v ir.Value, scratch riscv.Reg) (op operand) {
	d := f.Value(v)
	op.reg = scratch

	switch k := d.Kind.(type) {
	case ir.Integer:
		if k.Value == 0 {
			op.reg = riscv.Zero
			return op
		}

		op.pre = op.pre.Instr("li", scratch, k.Value)
	case ir.ZeroInit, ir.Undef:
		op.reg = riscv.Zero
	case ir.FuncArgRef:
		if k.Index < len(riscv.Args) {
			op.reg = riscv.Args[k.Index]
			return op
		}

		op.pre = f.load(op.pre, scratch, f.frame.Size+(k.Index-len(riscv.Args))*riscv.WordSize)
	case ir.Alloc:
		off := f.stackOff(v)

		if riscv.FitsImm(off) {
			op.pre = op.pre.Instr("addi", scratch, riscv.SP, off)
		} else {
			op.pre = op.pre.Instr("li", scratch, off)
			op.pre = op.pre.Instr("add", scratch, riscv.SP, scratch)
		}
	case ir.GlobalAlloc:
		op.pre = op.pre.Instr("la", scratch, d.Name)
	default:
		if off, ok := f.stack[v]; ok {
			op.pre = f.load(op.pre, scratch, off)
			return op
		}

		s, ok := f.slots[v]
		if !ok {
			panic(fmt.Sprintf("func %v: value %d (%T) has no location", f.fn.Name, v, k))
		}

		if d.Block != f.cur {
			panic(fmt.Sprintf("func %v: value %d of block %v used in %v without a home", f.fn.Name, v, f.Block(d.Block).Name, f.Block(f.cur).Name))
		}

		switch r := riscv.Slot(s); {
		case r == riscv.NoReg:
			op.pre = f.load(op.pre, scratch, f.frame.spillOff(s))
		case f.clobbered.IsSet(s):
			op.pre = f.load(op.pre, scratch, f.frame.saveOff(s))
		default:
			op.reg = r
		}
	}

	return op
}

// into puts v into register r.
func (f *funContext) into(b []byte, v ir.Value, r riscv.Reg) []byte {
	op := f.operand(v, r)
	b = append(b, op.pre...)

	if op.reg != r {
		b = asm.Instr(b, "mv", r, op.reg)
	}

	return b
}

// destReg is the register an instruction computes v into.
func (f *funContext) destReg(v ir.Value) riscv.Reg {
	if _, ok := f.stack[v]; ok {
		return riscv.T0
	}

	s, ok := f.slots[v]
	if !ok {
		panic(fmt.Sprintf("func %v: value %d has no slot", f.fn.Name, v))
	}

	if r := riscv.Slot(s); r != riscv.NoReg {
		return r
	}

	return riscv.T0
}

// writeBack stores v computed into r to its stack location if it has one.
func (f *funContext) writeBack(b []byte, v ir.Value, r riscv.Reg) []byte {
	tmp := riscv.T1
	if r == riscv.T1 {
		tmp = riscv.T0
	}

	if off, ok := f.stack[v]; ok {
		return f.store(b, r, off, tmp)
	}

	s := f.slots[v]
	if riscv.Slot(s) != riscv.NoReg {
		return b
	}

	f.tr.V("slot").Printw("spill", "val", v, "slot", s, "off", f.frame.spillOff(s))

	return f.store(b, r, f.frame.spillOff(s), tmp)
}

func (f *funContext) stackOff(v ir.Value) int {
	off, ok := f.stack[v]
	if !ok {
		panic(fmt.Sprintf("func %v: value %d has no stack offset", f.fn.Name, v))
	}

	return off
}

// load emits lw r, off(sp). r is used as the address register for far offsets.
func (f *funContext) load(b []byte, r riscv.Reg, off int) []byte {
	if riscv.FitsImm(off) {
		return asm.Instr(b, "lw", r, asm.Mem(off, riscv.SP))
	}

	b = asm.Instr(b, "li", r, off)
	b = asm.Instr(b, "add", r, riscv.SP, r)
	b = asm.Instr(b, "lw", r, asm.Mem(0, r))

	return b
}

// store emits sw r, off(sp) using tmp for far offsets.
func (f *funContext) store(b []byte, r riscv.Reg, off int, tmp riscv.Reg) []byte {
	if riscv.FitsImm(off) {
		return asm.Instr(b, "sw", r, asm.Mem(off, riscv.SP))
	}

	b = asm.Instr(b, "li", tmp, off)
	b = asm.Instr(b, "add", tmp, riscv.SP, tmp)
	b = asm.Instr(b, "sw", r, asm.Mem(0, tmp))

	return b
}

func (f *funContext) addSP(b []byte, x int) []byte {
	if riscv.FitsImm(x) {
		return asm.Instr(b, "addi", riscv.SP, riscv.SP, x)
	}

	b = asm.Instr(b, "li", riscv.T0, x)
	b = asm.Instr(b, "add", riscv.SP, riscv.SP, riscv.T0)

	return b
}

func unsupported(format string, args ...any) {
	panic(UnsupportedError{What: fmt.Sprintf(format, args...)})
}

func (e UnsupportedError) Error() string {
	return "unsupported: " + e.What
}
