package cpu

import (
	"iter"
)

// Opcode is a line of assembled code or data.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      uint16   // Load address.
	Words     []string // Source words.
	Data      []byte   // Encoded bytes.
	IsCode    bool     // Data is a single instruction.
	LinkLabel string   // Label linked into the instruction address.
}

// Code returns the instruction of the opcode.
func (op *Opcode) Code() (code Code, ok bool) {
	if !op.IsCode || len(op.Data) != PC_STEP {
		return
	}

	code = Code(uint16(op.Data[0])<<8 | uint16(op.Data[1]))
	ok = true

	return
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Offset int
}

// Debug finds the opcode containing an address.
// The returned Opcode is nil if no opcode contains the address.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && int(addr) < int(op.Addr)+len(op.Data) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Offset: int(addr - op.Addr),
			}
			break
		}
	}

	return
}

// Binary returns the program image, to be loaded at PROGRAM_START.
func (prog *Program) Binary() (rom []byte) {
	for _, op := range prog.Opcodes {
		rom = append(rom, op.Data...)
	}

	return
}

// Codes iterates over the instructions of the program.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for n := range prog.Opcodes {
			op := &prog.Opcodes[n]
			code, ok := op.Code()
			if !ok {
				continue
			}
			if !yield(op.Addr, code) {
				return
			}
		}
	}
}
