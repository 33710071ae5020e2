package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"
	"time"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/keypad"
	"github.com/ezrec/chip8/memory"
)

var _cpu_defines = map[string]string{
	"STACK_LIMIT":    fmt.Sprintf("%v", STACK_LIMIT),
	"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
	"PC_STEP":        fmt.Sprintf("%v", PC_STEP),
}

// Random is the source of random bytes for the RND instruction.
type Random interface {
	Uint32() uint32
}

// Quirks selects between the behaviors of CHIP-8 interpreter variants.
type Quirks struct {
	StoreIncrementsIndex bool // Fx55 advances I by x+1.
	LoadIncrementsIndex  bool // Fx65 advances I by x+1.
	ShiftUsesVy          bool // 8xy6 and 8xyE shift Vy into Vx.
}

// DefaultQuirks are the quirks of a freshly created Cpu.
var DefaultQuirks = Quirks{
	StoreIncrementsIndex: true,
}

// QuirkPresets are the named quirk sets.
var QuirkPresets = map[string]Quirks{
	"original": DefaultQuirks,
	"cosmac": {
		StoreIncrementsIndex: true,
		LoadIncrementsIndex:  true,
		ShiftUsesVy:          true,
	},
	"modern": {},
}

// Cpu is the CHIP-8 processor, attached to its memory and devices.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Registers // Processor registers.

	Memory  *memory.Memory   // Address space.
	Display *display.Display // Monochrome display.
	Keypad  *keypad.Keypad   // Hex keypad.
	Random  Random           // Source for RND.
	Quirks  Quirks           // Interpreter variant behaviors.

	Ticks int // CPU ticks counter.
}

// NewCpu creates a new CPU with fresh memory and devices.
func NewCpu() (cpu *Cpu) {
	seed := uint64(time.Now().UnixNano())

	cpu = &Cpu{
		Memory:  memory.NewMemory(),
		Display: &display.Display{},
		Keypad:  &keypad.Keypad{},
		Random:  rand.New(rand.NewPCG(seed, seed>>32)),
		Quirks:  DefaultQuirks,
	}
	cpu.Registers.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = cpu.Registers.String()
	text += fmt.Sprintf("ticks: %v\n", cpu.Ticks)

	return
}

// Reset the CPU state.
// - Clears the registers and stack, and sets PC to the program start.
// - Zeros the tick counter.
// - Clears the display and releases all keys.
//
// Memory, including any loaded program, is left intact.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Registers.Reset()
	cpu.Display.Reset()
	cpu.Keypad.Reset()
	cpu.Ticks = 0
}

// FetchCode fetches the instruction at the PC.
// An odd PC fetches the instruction word it falls within.
func (cpu *Cpu) FetchCode() (code Code) {
	code = Code(cpu.Memory.ReadOpcode(cpu.PC & PC_MASK))
	return
}

// Tick executes a single CPU instruction cycle.
// Both timers are decremented once per tick, even if the
// instruction fails.
func (cpu *Cpu) Tick(ctx context.Context) (code Code, err error) {
	defer func() {
		cpu.DecrDelay()
		cpu.DecrSound()
		cpu.Ticks++
	}()

	code = cpu.FetchCode()

	err = cpu.Execute(ctx, code)

	return
}

// setFlag sets VF to 1 or 0.
func (cpu *Cpu) setFlag(flag bool) {
	var value byte
	if flag {
		value = 1
	}
	cpu.Set(REGISTER_FLAG, value)
}

// Execute executes a single instruction.
// A failed instruction has no effect on the CPU state.
func (cpu *Cpu) Execute(ctx context.Context, code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%03x: %04x %v", cpu.PC, uint16(code), code)
	}

	op, err := code.Decode()
	if err != nil {
		return
	}

	x := code.X()
	y := code.Y()
	vx := cpu.Get(x)
	vy := cpu.Get(y)

	next_pc := (cpu.PC & PC_MASK) + PC_STEP

	skip := func(cond bool) {
		if cond {
			next_pc += PC_STEP
		}
	}

	// Source for the shift instructions.
	shift := vx
	if cpu.Quirks.ShiftUsesVy {
		shift = vy
	}

	switch op {
	case OP_CLS:
		cpu.Display.Clear()
	case OP_RET:
		next_pc, err = cpu.Pop()
		if err != nil {
			return
		}
	case OP_SYS:
		// Machine language subroutines are ignored.
	case OP_JP:
		next_pc = code.NNN()
	case OP_CALL:
		err = cpu.Push(next_pc)
		if err != nil {
			return
		}
		next_pc = code.NNN()
	case OP_SE_BYTE:
		skip(vx == code.KK())
	case OP_SNE_BYTE:
		skip(vx != code.KK())
	case OP_SE_REG:
		skip(vx == vy)
	case OP_SNE_REG:
		skip(vx != vy)
	case OP_LD_BYTE:
		cpu.Set(x, code.KK())
	case OP_ADD_BYTE:
		cpu.Add(x, code.KK())
	case OP_LD_REG:
		cpu.Set(x, vy)
	case OP_OR:
		cpu.Set(x, vx|vy)
	case OP_AND:
		cpu.Set(x, vx&vy)
	case OP_XOR:
		cpu.Set(x, vx^vy)
	case OP_ADD_REG:
		sum := uint16(vx) + uint16(vy)
		cpu.Set(x, byte(sum))
		cpu.setFlag(sum > 0xFF)
	case OP_SUB:
		cpu.Set(x, vx-vy)
		cpu.setFlag(vx >= vy)
	case OP_SUBN:
		cpu.Set(x, vy-vx)
		cpu.setFlag(vy >= vx)
	case OP_SHR:
		cpu.Set(x, shift>>1)
		cpu.setFlag((shift & 0x01) != 0)
	case OP_SHL:
		cpu.Set(x, shift<<1)
		cpu.setFlag((shift & 0x80) != 0)
	case OP_LD_I:
		cpu.I = code.NNN()
	case OP_JP_V0:
		next_pc = code.NNN() + uint16(cpu.Get(0))
	case OP_RND:
		cpu.Set(x, byte(cpu.Random.Uint32())&code.KK())
	case OP_DRW:
		rows := cpu.Memory.ReadBytes(cpu.I&memory.ADDRESS_MASK, int(code.N()))
		collision := cpu.Display.DrawSprite(int(vx), int(vy), rows)
		cpu.setFlag(collision)
	case OP_SKP:
		skip(cpu.Keypad.Key(vx & 0xF))
	case OP_SKNP:
		skip(!cpu.Keypad.Key(vx & 0xF))
	case OP_LD_VX_DT:
		cpu.Set(x, cpu.Delay)
	case OP_LD_VX_K:
		var key byte
		key, err = cpu.Keypad.WaitForKey(ctx)
		if err != nil {
			return
		}
		cpu.Set(x, key)
	case OP_LD_DT_VX:
		cpu.Delay = vx
	case OP_LD_ST_VX:
		cpu.Sound = vx
	case OP_ADD_I:
		cpu.I += uint16(vx)
	case OP_LD_F:
		cpu.I = memory.FontAddress(vx)
	case OP_LD_B:
		digits := [3]byte{vx / 100, (vx / 10) % 10, vx % 10}
		for n, digit := range digits {
			cpu.Memory.Poke((cpu.I+uint16(n))&memory.ADDRESS_MASK, digit)
		}
	case OP_LD_MEM_VX:
		for n := range uint16(x) + 1 {
			cpu.Memory.Poke((cpu.I+n)&memory.ADDRESS_MASK, cpu.Get(byte(n)))
		}
		if cpu.Quirks.StoreIncrementsIndex {
			cpu.I += uint16(x) + 1
		}
	case OP_LD_VX_MEM:
		for n := range uint16(x) + 1 {
			cpu.Set(byte(n), cpu.Memory.Peek((cpu.I+n)&memory.ADDRESS_MASK))
		}
		if cpu.Quirks.LoadIncrementsIndex {
			cpu.I += uint16(x) + 1
		}
	default:
		err = ErrOpcodeDecode
		return
	}

	// The PC stays instruction aligned, and wraps at the end of memory.
	cpu.PC = next_pc & PC_MASK

	return
}
