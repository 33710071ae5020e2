package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay_DrawSprite(t *testing.T) {
	assert := assert.New(t)

	disp := &Display{}
	assert.False(disp.ModCheck())

	collision := disp.DrawSprite(10, 5, []byte{0xF0})
	assert.False(collision)
	assert.True(disp.ModCheck())
	assert.False(disp.ModCheck())

	frame := disp.Snapshot()
	assert.Equal(4, frame.Lit())
	for x := 10; x < 14; x++ {
		assert.True(frame.Pixel(x, 5))
	}
	assert.False(frame.Pixel(14, 5))
	assert.False(frame.Pixel(9, 5))

	collision = disp.DrawSprite(10, 5, []byte{0xF0})
	assert.True(collision)
	assert.True(disp.ModCheck())

	frame = disp.Snapshot()
	assert.Equal(0, frame.Lit())
}

func TestDisplay_DrawSprite_Bits(t *testing.T) {
	assert := assert.New(t)

	disp := &Display{}
	disp.DrawSprite(0, 0, []byte{0x81, 0x42})

	frame := disp.Snapshot()
	assert.Equal(4, frame.Lit())
	assert.True(frame.Pixel(0, 0))
	assert.True(frame.Pixel(7, 0))
	assert.True(frame.Pixel(1, 1))
	assert.True(frame.Pixel(6, 1))
}

func TestDisplay_DrawSprite_Wrap(t *testing.T) {
	assert := assert.New(t)

	disp := &Display{}
	collision := disp.DrawSprite(62, 31, []byte{0xF0, 0xF0})
	assert.False(collision)

	frame := disp.Snapshot()
	assert.Equal(8, frame.Lit())

	table := [](struct {
		x, y int
	}){
		{62, 31}, {63, 31}, {0, 31}, {1, 31},
		{62, 0}, {63, 0}, {0, 0}, {1, 0},
	}

	for _, entry := range table {
		assert.True(frame.Pixel(entry.x, entry.y), "%v,%v", entry.x, entry.y)
	}
}

func TestDisplay_DrawSprite_Partial(t *testing.T) {
	assert := assert.New(t)

	disp := &Display{}
	disp.DrawSprite(0, 0, []byte{0x80})

	// Overlaps only at (0,0); everything else toggles on.
	collision := disp.DrawSprite(0, 0, []byte{0xC0})
	assert.True(collision)

	frame := disp.Snapshot()
	assert.False(frame.Pixel(0, 0))
	assert.True(frame.Pixel(1, 0))

	// Empty sprite still marks the display modified.
	disp.ModCheck()
	assert.False(disp.DrawSprite(3, 3, nil))
	assert.True(disp.ModCheck())
}

func TestDisplay_Clear(t *testing.T) {
	assert := assert.New(t)

	disp := &Display{}
	disp.DrawSprite(0, 0, []byte{0xff, 0xff})
	disp.ModCheck()

	disp.Clear()
	assert.True(disp.ModCheck())
	frame := disp.Snapshot()
	assert.Equal(0, frame.Lit())

	disp.DrawSprite(0, 0, []byte{0xff})
	disp.Reset()
	assert.False(disp.ModCheck())
	frame = disp.Snapshot()
	assert.Equal(0, frame.Lit())
}

func TestDisplay_Snapshot(t *testing.T) {
	assert := assert.New(t)

	disp := &Display{}
	disp.DrawSprite(0, 0, []byte{0x80})

	frame := disp.Snapshot()
	disp.Clear()

	assert.True(frame.Pixel(0, 0))
	assert.Equal(1, frame.Lit())
}

func TestFrame_String(t *testing.T) {
	assert := assert.New(t)

	disp := &Display{}
	disp.DrawSprite(1, 0, []byte{0x80})
	frame := disp.Snapshot()

	lines := strings.Split(strings.TrimSuffix(frame.String(), "\n"), "\n")
	assert.Equal(HEIGHT+2, len(lines))
	assert.Equal("+"+strings.Repeat("-", WIDTH)+"+", lines[0])
	assert.Equal("| #"+strings.Repeat(" ", WIDTH-2)+"|", lines[1])
	assert.Equal(lines[0], lines[HEIGHT+1])
}
