package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Decode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		op   CodeOp
		text string
	}){
		{0x00E0, OP_CLS, "cls"},
		{0x00EE, OP_RET, "ret"},
		{0x0123, OP_SYS, "sys $123"},
		{0x12A0, OP_JP, "jp $2a0"},
		{0x2345, OP_CALL, "call $345"},
		{0x3A0C, OP_SE_BYTE, "se va, $0c"},
		{0x4B0D, OP_SNE_BYTE, "sne vb, $0d"},
		{0x5120, OP_SE_REG, "se v1, v2"},
		{0x610A, OP_LD_BYTE, "ld v1, $0a"},
		{0x7FFF, OP_ADD_BYTE, "add vf, $ff"},
		{0x8120, OP_LD_REG, "ld v1, v2"},
		{0x8121, OP_OR, "or v1, v2"},
		{0x8122, OP_AND, "and v1, v2"},
		{0x8123, OP_XOR, "xor v1, v2"},
		{0x8124, OP_ADD_REG, "add v1, v2"},
		{0x8125, OP_SUB, "sub v1, v2"},
		{0x8126, OP_SHR, "shr v1, v2"},
		{0x8127, OP_SUBN, "subn v1, v2"},
		{0x812E, OP_SHL, "shl v1, v2"},
		{0x9120, OP_SNE_REG, "sne v1, v2"},
		{0xA123, OP_LD_I, "ld i, $123"},
		{0xB123, OP_JP_V0, "jp v0, $123"},
		{0xC1F0, OP_RND, "rnd v1, $f0"},
		{0xD015, OP_DRW, "drw v0, v1, 5"},
		{0xE29E, OP_SKP, "skp v2"},
		{0xE2A1, OP_SKNP, "sknp v2"},
		{0xF307, OP_LD_VX_DT, "ld v3, dt"},
		{0xF30A, OP_LD_VX_K, "ld v3, k"},
		{0xF315, OP_LD_DT_VX, "ld dt, v3"},
		{0xF318, OP_LD_ST_VX, "ld st, v3"},
		{0xF31E, OP_ADD_I, "add i, v3"},
		{0xF329, OP_LD_F, "ld f, v3"},
		{0xF333, OP_LD_B, "ld b, v3"},
		{0xF355, OP_LD_MEM_VX, "ld [i], v3"},
		{0xF365, OP_LD_VX_MEM, "ld v3, [i]"},
	}

	for _, entry := range table {
		op, err := entry.code.Decode()
		assert.NoError(err, entry.text)
		assert.Equal(entry.op, op, entry.text)
		assert.Equal(entry.text, entry.code.String())
	}
}

func TestCode_Decode_Lenient(t *testing.T) {
	assert := assert.New(t)

	// The trailing nibble of 5xy_ and 9xy_ is ignored.
	op, err := Code(0x5127).Decode()
	assert.NoError(err)
	assert.Equal(OP_SE_REG, op)

	op, err = Code(0x912F).Decode()
	assert.NoError(err)
	assert.Equal(OP_SNE_REG, op)
}

func TestCode_Decode_Invalid(t *testing.T) {
	assert := assert.New(t)

	table := []Code{0x8008, 0x8009, 0x800A, 0x800B, 0x800C, 0x800D, 0x800F, 0xE000, 0xE0A2, 0xF000, 0xF066}

	for _, code := range table {
		_, err := code.Decode()
		assert.ErrorIs(err, ErrOpcodeDecode, code)
	}

	assert.Equal(".word $800f", Code(0x800F).String())
}

func TestCode_Nibbles(t *testing.T) {
	assert := assert.New(t)

	h, v1, v2, v3 := Code(0xD125).Nibbles()
	assert.Equal([]byte{0xD, 0x1, 0x2, 0x5}, []byte{h, v1, v2, v3})
	assert.Equal(Code(0xD125), MakeCode(0xD, 0x1, 0x2, 0x5))

	// Only the low nibble of each argument is used.
	assert.Equal(Code(0xD125), MakeCode(0x1D, 0x21, 0x32, 0x45))

	assert.Equal(Code(0x6A42), makeCodeXKK(0x6, 0xA, 0x42))
	assert.Equal(Code(0x1ABC), makeCodeNNN(0x1, 0xFABC))
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	rom := []byte{0x00, 0xE0, 0x61, 0x0A, 0xD0}

	var addrs []uint16
	var codes []Code
	for addr, code := range Disassemble(rom) {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint16{0x200, 0x202, 0x204}, addrs)
	assert.Equal([]Code{0x00E0, 0x610A, 0xD000}, codes)

	// Early termination.
	count := 0
	for range Disassemble(rom) {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestCodeOp_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("cls", OP_CLS.String())
	assert.Equal("sknp", OP_SKNP.String())
	assert.Equal("ld", OP_LD_VX_MEM.String())
	assert.Equal("CodeOp(35)", CodeOp(35).String())
}
