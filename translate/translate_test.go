package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("stack full", From("stack full"))
	assert.Equal("bad opcode 0x00ff", From("bad opcode 0x%04x", uint16(0xff)))
}

func TestNewPrinter(t *testing.T) {
	assert := assert.New(t)

	p := NewPrinter()
	assert.NotNil(p)
	assert.Equal("line 3 x", p.Sprintf("line %d %v", 3, "x"))

	p = NewPrinter("fr-FR", "en-US")
	assert.NotNil(p)
	assert.Equal("0x0a", p.Sprintf("0x%02x", 10))
}
