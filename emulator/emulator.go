// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator assembles the CHIP-8 machine from its CPU and devices,
// and drives it.
package emulator

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/keypad"
)

const (
	DEFAULT_HZ = 60 // Default step rate, and the timer rate.
)

var _emulator_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", display.WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", display.HEIGHT),
	"KEY_COUNT":      fmt.Sprintf("%v", keypad.KEY_COUNT),
}

// Emulator state. CPU + memory + display + keypad.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Memory.Defines(),
	)
}

// Load a ROM image. There is no program listing for a ROM.
func (emu *Emulator) Load(rom []byte) (err error) {
	err = emu.Memory.Load(rom)
	if err != nil {
		return
	}

	emu.Program = &cpu.Program{}

	if emu.Verbose {
		log.Printf("emulator: loaded %d bytes", len(rom))
	}

	return
}

// LoadProgram loads an assembled program, and keeps its listing.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.Load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Assemble assembles the source, with the emulator defines predefined,
// and loads the result.
func (emu *Emulator) Assemble(input io.Reader) (prog *cpu.Program, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(input)
	if err != nil {
		return
	}

	err = emu.LoadProgram(prog)

	return
}

// Reset the machine, leaving memory intact.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	return emu.Cpu.FetchCode()
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.PC)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// KeyDown presses a key.
func (emu *Emulator) KeyDown(index byte) {
	emu.Keypad.SetKey(index&0xF, true)
}

// KeyUp releases a key.
func (emu *Emulator) KeyUp(index byte) {
	emu.Keypad.SetKey(index&0xF, false)
}

// Snapshot returns a copy of the display.
func (emu *Emulator) Snapshot() display.Frame {
	return emu.Display.Snapshot()
}

// Sounding returns true while the sound timer is running.
func (emu *Emulator) Sounding() bool {
	return emu.Sound > 0
}

// Step performs a single step of the emulator.
// If the display was modified since the last step, a snapshot of
// the display is returned.
func (emu *Emulator) Step(ctx context.Context) (code cpu.Code, frame *display.Frame, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.PC
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Address: pc, LineNo: lineno, Err: err}
		}
	}()

	code, err = emu.Cpu.Tick(ctx)

	if emu.Display.ModCheck() {
		snapshot := emu.Display.Snapshot()
		frame = &snapshot
		if emu.Verbose {
			log.Printf("emulator: frame\n%v", frame)
		}
	}

	return
}

// Run steps the emulator at hz steps per second, calling onFrame with
// each modified display. Run stops at the first error, or when the
// context is done. A program must have been loaded.
func (emu *Emulator) Run(ctx context.Context, hz int, onFrame func(frame *display.Frame)) (err error) {
	if !emu.Memory.Loaded() {
		err = ErrNoProgram
		return
	}

	if hz <= 0 {
		hz = DEFAULT_HZ
	}

	if emu.Verbose {
		log.Printf("emulator: running %d bytes at %d Hz", emu.Memory.Size(), hz)
	}

	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
		}

		var frame *display.Frame
		_, frame, err = emu.Step(ctx)
		if frame != nil && onFrame != nil {
			onFrame(frame)
		}
		if err != nil {
			return
		}
	}
}
