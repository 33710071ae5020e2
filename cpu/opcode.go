package cpu

import (
	"fmt"
	"iter"

	"github.com/ezrec/chip8/memory"
)

// Code is a single 16-bit CHIP-8 instruction word.
type Code uint16

// CodeOp is the decoded operation of a Code.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_CLS       = CodeOp(0)  // cls
	OP_RET       = CodeOp(1)  // ret
	OP_SYS       = CodeOp(2)  // sys
	OP_JP        = CodeOp(3)  // jp
	OP_CALL      = CodeOp(4)  // call
	OP_SE_BYTE   = CodeOp(5)  // se
	OP_SNE_BYTE  = CodeOp(6)  // sne
	OP_SE_REG    = CodeOp(7)  // se
	OP_LD_BYTE   = CodeOp(8)  // ld
	OP_ADD_BYTE  = CodeOp(9)  // add
	OP_LD_REG    = CodeOp(10) // ld
	OP_OR        = CodeOp(11) // or
	OP_AND       = CodeOp(12) // and
	OP_XOR       = CodeOp(13) // xor
	OP_ADD_REG   = CodeOp(14) // add
	OP_SUB       = CodeOp(15) // sub
	OP_SHR       = CodeOp(16) // shr
	OP_SUBN      = CodeOp(17) // subn
	OP_SHL       = CodeOp(18) // shl
	OP_SNE_REG   = CodeOp(19) // sne
	OP_LD_I      = CodeOp(20) // ld
	OP_JP_V0     = CodeOp(21) // jp
	OP_RND       = CodeOp(22) // rnd
	OP_DRW       = CodeOp(23) // drw
	OP_SKP       = CodeOp(24) // skp
	OP_SKNP      = CodeOp(25) // sknp
	OP_LD_VX_DT  = CodeOp(26) // ld
	OP_LD_VX_K   = CodeOp(27) // ld
	OP_LD_DT_VX  = CodeOp(28) // ld
	OP_LD_ST_VX  = CodeOp(29) // ld
	OP_ADD_I     = CodeOp(30) // add
	OP_LD_F      = CodeOp(31) // ld
	OP_LD_B      = CodeOp(32) // ld
	OP_LD_MEM_VX = CodeOp(33) // ld
	OP_LD_VX_MEM = CodeOp(34) // ld
)

// MakeCode assembles a code from its four nibbles, most significant first.
func MakeCode(h, v1, v2, v3 byte) Code {
	return Code(uint16(h&0xF)<<12 | uint16(v1&0xF)<<8 | uint16(v2&0xF)<<4 | uint16(v3&0xF))
}

// makeCodeXKK creates a code of the form hxkk.
func makeCodeXKK(h, x, kk byte) Code {
	return Code(uint16(h&0xF)<<12 | uint16(x&0xF)<<8 | uint16(kk))
}

// makeCodeNNN creates a code of the form hnnn.
func makeCodeNNN(h byte, nnn uint16) Code {
	return Code(uint16(h&0xF)<<12 | (nnn & memory.ADDRESS_MASK))
}

// Nibbles splits the code into its four nibbles, most significant first.
func (code Code) Nibbles() (h, v1, v2, v3 byte) {
	word := uint16(code)
	h = byte((word >> 12) & 0xF)
	v1 = byte((word >> 8) & 0xF)
	v2 = byte((word >> 4) & 0xF)
	v3 = byte((word >> 0) & 0xF)
	return
}

// X is the first register operand.
func (code Code) X() byte {
	return byte((code >> 8) & 0xF)
}

// Y is the second register operand.
func (code Code) Y() byte {
	return byte((code >> 4) & 0xF)
}

// N is the low nibble.
func (code Code) N() byte {
	return byte(code & 0xF)
}

// KK is the low byte.
func (code Code) KK() byte {
	return byte(code & 0xFF)
}

// NNN is the low 12 bit address.
func (code Code) NNN() uint16 {
	return uint16(code) & memory.ADDRESS_MASK
}

var _alu_ops = [16]CodeOp{
	0x0: OP_LD_REG,
	0x1: OP_OR,
	0x2: OP_AND,
	0x3: OP_XOR,
	0x4: OP_ADD_REG,
	0x5: OP_SUB,
	0x6: OP_SHR,
	0x7: OP_SUBN,
	0xE: OP_SHL,
}

var _f_ops = map[byte]CodeOp{
	0x07: OP_LD_VX_DT,
	0x0A: OP_LD_VX_K,
	0x15: OP_LD_DT_VX,
	0x18: OP_LD_ST_VX,
	0x1E: OP_ADD_I,
	0x29: OP_LD_F,
	0x33: OP_LD_B,
	0x55: OP_LD_MEM_VX,
	0x65: OP_LD_VX_MEM,
}

// Decode determines the operation of the code.
// Codes that are not one of the standard CHIP-8 instructions
// return ErrOpcodeDecode.
func (code Code) Decode() (op CodeOp, err error) {
	h, _, _, n := code.Nibbles()

	switch h {
	case 0x0:
		switch code {
		case 0x00E0:
			op = OP_CLS
		case 0x00EE:
			op = OP_RET
		default:
			op = OP_SYS
		}
	case 0x1:
		op = OP_JP
	case 0x2:
		op = OP_CALL
	case 0x3:
		op = OP_SE_BYTE
	case 0x4:
		op = OP_SNE_BYTE
	case 0x5:
		op = OP_SE_REG
	case 0x6:
		op = OP_LD_BYTE
	case 0x7:
		op = OP_ADD_BYTE
	case 0x8:
		switch n {
		case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0xE:
			op = _alu_ops[n]
		default:
			err = ErrOpcodeDecode
		}
	case 0x9:
		op = OP_SNE_REG
	case 0xA:
		op = OP_LD_I
	case 0xB:
		op = OP_JP_V0
	case 0xC:
		op = OP_RND
	case 0xD:
		op = OP_DRW
	case 0xE:
		switch code.KK() {
		case 0x9E:
			op = OP_SKP
		case 0xA1:
			op = OP_SKNP
		default:
			err = ErrOpcodeDecode
		}
	case 0xF:
		var ok bool
		op, ok = _f_ops[code.KK()]
		if !ok {
			err = ErrOpcodeDecode
		}
	}

	return
}

// String returns the assembly language representation of this code.
// Codes which do not decode are rendered as a .word directive.
func (code Code) String() (out string) {
	op, err := code.Decode()
	if err != nil {
		return fmt.Sprintf(".word $%04x", uint16(code))
	}

	x := code.X()
	y := code.Y()

	var args string
	switch op {
	case OP_CLS, OP_RET:
		return op.String()
	case OP_SYS, OP_JP, OP_CALL:
		args = fmt.Sprintf("$%03x", code.NNN())
	case OP_SE_BYTE, OP_SNE_BYTE, OP_LD_BYTE, OP_ADD_BYTE, OP_RND:
		args = fmt.Sprintf("v%x, $%02x", x, code.KK())
	case OP_SE_REG, OP_SNE_REG, OP_LD_REG, OP_OR, OP_AND, OP_XOR, OP_ADD_REG, OP_SUB, OP_SUBN, OP_SHR, OP_SHL:
		args = fmt.Sprintf("v%x, v%x", x, y)
	case OP_LD_I:
		args = fmt.Sprintf("i, $%03x", code.NNN())
	case OP_JP_V0:
		args = fmt.Sprintf("v0, $%03x", code.NNN())
	case OP_DRW:
		args = fmt.Sprintf("v%x, v%x, %d", x, y, code.N())
	case OP_SKP, OP_SKNP:
		args = fmt.Sprintf("v%x", x)
	case OP_LD_VX_DT:
		args = fmt.Sprintf("v%x, dt", x)
	case OP_LD_VX_K:
		args = fmt.Sprintf("v%x, k", x)
	case OP_LD_DT_VX:
		args = fmt.Sprintf("dt, v%x", x)
	case OP_LD_ST_VX:
		args = fmt.Sprintf("st, v%x", x)
	case OP_ADD_I:
		args = fmt.Sprintf("i, v%x", x)
	case OP_LD_F:
		args = fmt.Sprintf("f, v%x", x)
	case OP_LD_B:
		args = fmt.Sprintf("b, v%x", x)
	case OP_LD_MEM_VX:
		args = fmt.Sprintf("[i], v%x", x)
	case OP_LD_VX_MEM:
		args = fmt.Sprintf("v%x, [i]", x)
	}

	out = fmt.Sprintf("%v %v", op.String(), args)

	return
}

// Disassemble walks a ROM image, yielding each code with its
// load address. A trailing odd byte is yielded as the high byte
// of a code.
func Disassemble(rom []byte) iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for n := 0; n < len(rom); n += PC_STEP {
			word := uint16(rom[n]) << 8
			if n+1 < len(rom) {
				word |= uint16(rom[n+1])
			}
			if !yield(uint16(memory.PROGRAM_START+n), Code(word)) {
				return
			}
		}
	}
}
