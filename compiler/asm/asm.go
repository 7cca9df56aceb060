package asm

import "fmt"

const indent = "  "

type (
	// Lines is a sequence of rendered assembly lines.
	Lines []byte
)

// Label appends "name:".
func Label(b []byte, name string) []byte {
	b = append(b, name...)
	b = append(b, ':', '\n')

	return b
}

// Directive appends an indented assembler directive like ".globl main".
func Directive(b []byte, name string, args ...any) []byte {
	b = append(b, indent...)
	b = append(b, name...)

	for i, a := range args {
		if i == 0 {
			b = append(b, ' ')
		} else {
			b = append(b, ", "...)
		}

		b = fmt.Append(b, a)
	}

	b = append(b, '\n')

	return b
}

// Instr appends "op a, b, c".
func Instr(b []byte, op string, args ...any) []byte {
	return Directive(b, op, args...)
}

// Mem renders an off(base) address.
func Mem(off int, base fmt.Stringer) string {
	return fmt.Sprintf("%d(%v)", off, base)
}

func (l Lines) Instr(op string, args ...any) Lines {
	return Instr(l, op, args...)
}
