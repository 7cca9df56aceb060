package back

import (
	"fmt"

	"github.com/slowlang/sysyc/compiler/asm/riscv"
	"github.com/slowlang/sysyc/compiler/ir"
	"github.com/slowlang/sysyc/compiler/tp"
)

type (
	// frame sizes are in words, Size in bytes.
	//
	// Layout from sp up: outgoing args, saved registers, locals,
	// spilled slots, cross-block homes, return address.
	frame struct {
		ArgSpill int
		Saved    int
		Locals   int
		Spill    int
		Homes    int

		MaxSlots int
		HasCall  bool

		Size int
	}

	blockInfo struct {
		// lastUse is the index of the last instruction using a slotted value.
		lastUse map[ir.Value]int
	}
)

// layout assigns stack offsets and register slots and sizes the frame.
func (f *funContext) layout() {
	homes := f.findHomes()

	var localBytes int
	allocs := []ir.Value{}

	for _, b := range f.fn.Blocks {
		slot := 0
		info := blockInfo{lastUse: map[ir.Value]int{}}

		for i, v := range f.Block(b).Insts {
			d := f.Value(v)

			for _, op := range d.Kind.Operands() {
				if f.Value(op).Block == b {
					info.lastUse[op] = i
				}
			}

			switch k := d.Kind.(type) {
			case ir.Alloc:
				base := d.Type.(*tp.Ptr).X
				if base != tp.Int32 {
					unsupported("alloc of %v", base)
				}

				f.stack[v] = localBytes
				localBytes += base.Size()
				allocs = append(allocs, v)
			case *ir.Call:
				f.frame.HasCall = true

				if extra := len(k.Args) - len(riscv.Args); extra > f.frame.ArgSpill {
					f.frame.ArgSpill = extra
				}
			case ir.GetPtr:
				unsupported("getptr")
			case ir.GetElemPtr:
				unsupported("getelemptr")
			}

			if !slotted(d) {
				continue
			}

			if _, ok := homes[v]; ok {
				continue
			}

			f.slots[v] = slot
			slot++
		}

		f.blocks[b] = info

		if slot > f.frame.MaxSlots {
			f.frame.MaxSlots = slot
		}
	}

	fr := &f.frame

	fr.Locals = localBytes / riscv.WordSize
	fr.Spill = max(fr.MaxSlots-riscv.Budget, 0)
	fr.Homes = len(homes)

	if fr.HasCall {
		fr.Saved = min(fr.MaxSlots, riscv.Budget)
	}

	words := fr.ArgSpill + fr.Saved + fr.Locals + fr.Spill + fr.Homes + 1
	fr.Size = alignUp(words*riscv.WordSize, riscv.StackAlign)

	base := (fr.ArgSpill + fr.Saved) * riscv.WordSize
	for _, v := range allocs {
		f.stack[v] += base
	}

	base = (fr.ArgSpill + fr.Saved + fr.Locals + fr.Spill) * riscv.WordSize
	for v, h := range homes {
		f.stack[v] = base + h*riscv.WordSize
	}
}

// findHomes numbers slotted values used outside their defining block
// in order of first cross-block use.
func (f *funContext) findHomes() map[ir.Value]int {
	homes := map[ir.Value]int{}

	for _, b := range f.fn.Blocks {
		for _, v := range f.Block(b).Insts {
			for _, op := range f.Value(v).Kind.Operands() {
				od := f.Value(op)

				if !slotted(od) || od.Block == b {
					continue
				}

				if od.Block == ir.NoBlock {
					panic(fmt.Sprintf("func %v: operand %d of %d is not in any block", f.fn.Name, op, v))
				}

				if _, ok := homes[op]; !ok {
					homes[op] = len(homes)
				}
			}
		}
	}

	return homes
}

// slotted values are instruction results kept in a block-local slot.
func slotted(d *ir.ValueData) bool {
	switch d.Kind.(type) {
	case ir.Load, ir.Binary, *ir.Call, ir.GetPtr, ir.GetElemPtr:
		return !tp.IsUnit(d.Type)
	}

	return false
}

func (fr *frame) spillOff(slot int) int {
	return (slot - riscv.Budget + fr.Locals + fr.Saved + fr.ArgSpill) * riscv.WordSize
}

func (fr *frame) saveOff(slot int) int {
	return (fr.ArgSpill + slot) * riscv.WordSize
}

func (fr *frame) raOff() int {
	return fr.Size - riscv.WordSize
}

func alignUp(x, a int) int {
	return (x + a - 1) / a * a
}
