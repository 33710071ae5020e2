// Package cpu implements the processor and assembler for the CHIP-8 system.
//
// The CPU consists of sixteen 8-bit general-purpose registers (V0-VF, with VF
// doubling as the flag register), a 16-bit index register (I), a program
// counter, delay and sound timers, and a 16 entry call stack. It executes the
// 35 standard CHIP-8 opcodes against the memory, display, and keypad devices.
//
// The assembler provides the conventional CHIP-8 mnemonics, supporting macros,
// labels, equates, data directives, and compile-time expression evaluation.
package cpu
