package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Data: []byte{0x60, 0x10}, IsCode: true},
			{LineNo: 2, Addr: 0x202, Words: []string{".byte", "1", "2", "3"},
				Data: []byte{1, 2, 3}},
			{LineNo: 3, Addr: 0x205, Words: []string{".align"},
				Data: []byte{0}},
			{LineNo: 4, Addr: 0x206, Words: []string{"jp", "start"},
				Data: []byte{0x12, 0x00}, IsCode: true, LinkLabel: "start"},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	table := [](struct {
		addr   uint16
		lineno int
		offset int
	}){
		{0x200, 1, 0},
		{0x201, 1, 1},
		{0x202, 2, 0},
		{0x204, 2, 2},
		{0x205, 3, 0},
		{0x206, 4, 0},
		{0x207, 4, 1},
	}

	for _, entry := range table {
		dbg := prog.Debug(entry.addr)
		if assert.NotNil(dbg.Opcode, entry.addr) {
			assert.Equal(entry.lineno, dbg.LineNo, entry.addr)
			assert.Equal(entry.offset, dbg.Offset, entry.addr)
		}
	}
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0x1FF)
	assert.Nil(dbg.Opcode)

	dbg = prog.Debug(0x208)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Offset)

	dbg = (&Program{}).Debug(0x200)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()
	assert.Equal([]byte{0x60, 0x10, 1, 2, 3, 0, 0x12, 0x00}, prog.Binary())

	assert.Nil((&Program{}).Binary())
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	var addrs []uint16
	var codes []Code
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint16{0x200, 0x206}, addrs)
	assert.Equal([]Code{0x6010, 0x1200}, codes)

	count := 0
	for range prog.Codes() {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestProgram_Assembled(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"start:",
		"  ld v0, 0x10",
		"  jp start",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal([]byte{0x60, 0x10, 0x12, 0x00}, prog.Binary())

	dbg := prog.Debug(0x202)
	assert.Equal(3, dbg.LineNo)
	code, ok := dbg.Code()
	assert.True(ok)
	assert.Equal("jp $200", code.String())
}
