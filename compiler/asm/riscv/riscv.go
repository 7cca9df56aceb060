package riscv

import "tlog.app/go/tlog/tlwire"

type Reg int

const (
	Zero Reg = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6

	NoReg Reg = -1
)

const (
	WordSize   = 4
	StackAlign = 16

	ImmMin = -2048
	ImmMax = 2047
)

var names = [...]string{
	"x0", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var (
	// Temps hold block-local values first.
	Temps = []Reg{T2, T3, T4, T5, T6}

	// Args pass call arguments. Between calls they hold block-local values after Temps.
	Args = []Reg{A0, A1, A2, A3, A4, A5, A6, A7}

	// Scratch registers are never allocated. Operand preparation uses them.
	Scratch = []Reg{T0, T1}
)

// Budget is the number of values a block keeps in registers.
var Budget = len(Temps) + len(Args)

// Slot returns the register for a block-local value slot or NoReg if it spills.
func Slot(s int) Reg {
	switch {
	case s < len(Temps):
		return Temps[s]
	case s < Budget:
		return Args[s-len(Temps)]
	default:
		return NoReg
	}
}

func FitsImm(x int) bool {
	return x >= ImmMin && x <= ImmMax
}

// IsArg reports whether r carries call arguments.
func IsArg(r Reg) bool {
	return r >= A0 && r <= A7
}

func (r Reg) String() string {
	if r < 0 || int(r) >= len(names) {
		return "reg?"
	}

	return names[r]
}

func (r Reg) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, r.String())
}
