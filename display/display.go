// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package display implements the 64x32 monochrome frame buffer.
package display

import (
	"strings"
)

const (
	WIDTH  = 64             // Width in pixels.
	HEIGHT = 32             // Height in pixels.
	CELLS  = WIDTH * HEIGHT // Total pixel cells.

	SPRITE_WIDTH = 8 // Pixels per sprite row.
)

// Frame is an immutable copy of the display cells, addressed as y*WIDTH+x.
type Frame [CELLS]bool

// Pixel returns the state of the pixel at (x, y).
func (fr *Frame) Pixel(x, y int) bool {
	return fr[y*WIDTH+x]
}

// Lit returns the number of lit pixels.
func (fr *Frame) Lit() (count int) {
	for _, cell := range fr {
		if cell {
			count++
		}
	}
	return
}

// String renders the frame as text, '#' for lit pixels, inside a border.
func (fr *Frame) String() string {
	var sb strings.Builder

	border := "+" + strings.Repeat("-", WIDTH) + "+\n"

	sb.WriteString(border)
	for y := range HEIGHT {
		sb.WriteByte('|')
		for x := range WIDTH {
			if fr.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)

	return sb.String()
}

// Display is the frame buffer with its modified flag.
type Display struct {
	cells    Frame
	modified bool
}

// Reset clears the display and the modified flag.
func (disp *Display) Reset() {
	clear(disp.cells[:])
	disp.modified = false
}

// Clear all pixels.
func (disp *Display) Clear() {
	clear(disp.cells[:])
	disp.modified = true
}

// DrawSprite XORs the sprite rows onto the display at (x, y).
// The most significant bit of each row is the leftmost pixel. Each pixel
// wraps around the display edges independently.
// Returns true if any lit pixel was turned off.
func (disp *Display) DrawSprite(x, y int, rows []byte) (collision bool) {
	for r, row := range rows {
		py := (y + r) % HEIGHT
		for b := range SPRITE_WIDTH {
			if row&(0x80>>b) == 0 {
				continue
			}
			px := (x + b) % WIDTH
			cell := &disp.cells[py*WIDTH+px]
			if *cell {
				collision = true
			}
			*cell = !*cell
		}
	}

	disp.modified = true

	return
}

// ModCheck returns true once after each change to the display.
func (disp *Display) ModCheck() (modified bool) {
	modified = disp.modified
	disp.modified = false
	return
}

// Snapshot returns a copy of the display.
func (disp *Display) Snapshot() Frame {
	return disp.cells
}
