package cpu

import (
	"fmt"
	"strings"

	"github.com/ezrec/chip8/memory"
)

const (
	REGISTER_COUNT = 16  // General purpose registers, V0-VF
	REGISTER_FLAG  = 0xF // VF, the flag register.
	PC_STEP        = 2   // Bytes per instruction.

	PC_MASK = memory.ADDRESS_MASK &^ (PC_STEP - 1) // Instruction aligned address bits.
)

// Registers is the processor state of the CHIP-8.
type Registers struct {
	V     [REGISTER_COUNT]byte // V0-VF
	I     uint16               // Index register.
	PC    uint16               // Program counter.
	Delay byte                 // Delay timer.
	Sound byte                 // Sound timer.
	Stack Stack                // Subroutine return addresses.
}

func (r *Registers) Get(index byte) byte {
	return r.V[index&0xF]
}

func (r *Registers) Set(index byte, value byte) {
	r.V[index&0xF] = value
}

// Add adds to a register, wrapping at 8 bits. VF is not affected.
func (r *Registers) Add(index byte, value byte) {
	r.V[index&0xF] += value
}

// IncrPC advances the program counter by one instruction.
func (r *Registers) IncrPC() {
	r.PC += PC_STEP
}

// DecrDelay decrements the delay timer, stopping at zero.
func (r *Registers) DecrDelay() {
	if r.Delay > 0 {
		r.Delay--
	}
}

// DecrSound decrements the sound timer, stopping at zero.
func (r *Registers) DecrSound() {
	if r.Sound > 0 {
		r.Sound--
	}
}

// Push a return address onto the stack.
func (r *Registers) Push(addr uint16) (err error) {
	if !r.Stack.Push(addr) {
		err = ErrStackFull
	}
	return
}

// Pop a return address from the stack.
func (r *Registers) Pop() (addr uint16, err error) {
	addr, ok := r.Stack.Pop()
	if !ok {
		err = ErrStackEmpty
	}
	return
}

// Reset clears all registers, empties the stack, and sets the PC
// to the start of the program area.
func (r *Registers) Reset() {
	*r = Registers{PC: memory.PROGRAM_START}
}

// String returns the registers as a dump suitable for logging.
func (r *Registers) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "   pc: %03X\n", r.PC)
	fmt.Fprintf(&sb, "    i: %03X\n", r.I)
	for n, v := range r.V {
		fmt.Fprintf(&sb, "   v%X: %02X\n", n, v)
	}
	fmt.Fprintf(&sb, "delay: %02X\n", r.Delay)
	fmt.Fprintf(&sb, "sound: %02X\n", r.Sound)
	top, ok := r.Stack.Peek()
	if ok {
		fmt.Fprintf(&sb, "stack: %03X (%d)\n", top, r.Stack.Pointer)
	} else {
		fmt.Fprintf(&sb, "stack: ---\n")
	}

	return sb.String()
}
