// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the 4KB address space of the CHIP-8 machine.
//
// The interpreter area (0x000-0x1FF) holds the hexadecimal font glyphs at
// FONT_BASE. Programs are loaded at PROGRAM_START and may use the remainder
// of the address space.
package memory

import (
	"fmt"
	"iter"
	"maps"
)

const (
	MEMORY_SIZE     = 0x1000                      // Size of the address space.
	ADDRESS_MASK    = MEMORY_SIZE - 1             // Mask of a valid address.
	PROGRAM_START   = 0x200                       // Load address of programs.
	PROGRAM_SIZE    = MEMORY_SIZE - PROGRAM_START // Largest loadable program.
	FONT_BASE       = 0x050                       // Address of the font glyphs.
	FONT_GLYPH_SIZE = 5                           // Bytes per glyph.
	FONT_SIZE       = FONT_GLYPH_SIZE * len(font) // Total font bytes.
)

var _memory_defines = map[string]string{
	"MEMORY_SIZE":     fmt.Sprintf("0x%x", MEMORY_SIZE),
	"PROGRAM_START":   fmt.Sprintf("0x%x", PROGRAM_START),
	"PROGRAM_SIZE":    fmt.Sprintf("0x%x", PROGRAM_SIZE),
	"FONT_BASE":       fmt.Sprintf("0x%x", FONT_BASE),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%v", FONT_GLYPH_SIZE),
}

// font glyphs for the hex digits 0-F, one row per byte, MSB leftmost.
var font = [16][FONT_GLYPH_SIZE]byte{
	{0xF0, 0x90, 0x90, 0x90, 0xF0}, // 0
	{0x20, 0x60, 0x20, 0x20, 0x70}, // 1
	{0xF0, 0x10, 0xF0, 0x80, 0xF0}, // 2
	{0xF0, 0x10, 0xF0, 0x10, 0xF0}, // 3
	{0x90, 0x90, 0xF0, 0x10, 0x10}, // 4
	{0xF0, 0x80, 0xF0, 0x10, 0xF0}, // 5
	{0xF0, 0x80, 0xF0, 0x90, 0xF0}, // 6
	{0xF0, 0x10, 0x20, 0x40, 0x40}, // 7
	{0xF0, 0x90, 0xF0, 0x90, 0xF0}, // 8
	{0xF0, 0x90, 0xF0, 0x10, 0xF0}, // 9
	{0xF0, 0x90, 0xF0, 0x90, 0x90}, // A
	{0xE0, 0x90, 0xE0, 0x90, 0xE0}, // B
	{0xF0, 0x80, 0x80, 0x80, 0xF0}, // C
	{0xE0, 0x90, 0x90, 0x90, 0xE0}, // D
	{0xF0, 0x80, 0xF0, 0x80, 0xF0}, // E
	{0xF0, 0x80, 0xF0, 0x80, 0x80}, // F
}

// FontAddress returns the address of the glyph for a hex digit.
// Only the low nibble of the digit is used.
func FontAddress(digit byte) uint16 {
	return FONT_BASE + uint16(digit&0xf)*FONT_GLYPH_SIZE
}

// Memory is the CHIP-8 address space.
type Memory struct {
	Data [MEMORY_SIZE]byte // Raw memory contents.

	size   int  // Size of the loaded program.
	loaded bool // Set once a program has been loaded.
}

// NewMemory creates a new memory with the font installed.
func NewMemory() (mem *Memory) {
	mem = &Memory{}
	mem.Reset()

	return
}

// Defines for the memory layout.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(_memory_defines)
}

// Reset zeros memory and reinstalls the font.
func (mem *Memory) Reset() {
	clear(mem.Data[:])
	for n, glyph := range font {
		copy(mem.Data[FONT_BASE+n*FONT_GLYPH_SIZE:], glyph[:])
	}
	mem.size = 0
	mem.loaded = false
}

// Loaded returns true if a program has been loaded.
func (mem *Memory) Loaded() bool {
	return mem.loaded
}

// Size returns the size of the loaded program.
func (mem *Memory) Size() int {
	return mem.size
}

// Load copies a program image to PROGRAM_START.
// The rest of the program area is zeroed.
func (mem *Memory) Load(rom []byte) (err error) {
	if len(rom) > PROGRAM_SIZE {
		err = fmt.Errorf("%w: %v > %v", ErrRomTooLarge, len(rom), PROGRAM_SIZE)
		return
	}

	program := mem.Data[PROGRAM_START:]
	clear(program)
	copy(program, rom)
	mem.size = len(rom)
	mem.loaded = true

	return
}

// check panics if the address is outside of memory.
func check(addr uint16) {
	if int(addr) >= MEMORY_SIZE {
		panic(ErrAddress(addr))
	}
}

// Peek reads a single byte.
func (mem *Memory) Peek(addr uint16) byte {
	check(addr)
	return mem.Data[addr]
}

// Poke writes a single byte.
func (mem *Memory) Poke(addr uint16, value byte) {
	check(addr)
	mem.Data[addr] = value
}

// ReadOpcode reads the big-endian instruction word at addr.
func (mem *Memory) ReadOpcode(addr uint16) uint16 {
	hi := mem.Peek(addr)
	lo := mem.Peek(addr + 1)
	return (uint16(hi) << 8) | uint16(lo)
}

// ReadBytes returns a copy of count bytes starting at addr.
// Addresses wrap at the end of memory.
func (mem *Memory) ReadBytes(addr uint16, count int) (data []byte) {
	data = make([]byte, count)
	for n := range count {
		data[n] = mem.Data[(int(addr)+n)&ADDRESS_MASK]
	}

	return
}
