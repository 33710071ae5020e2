// Package desktop is a windowed front end for the CHIP-8 emulator.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/frontend"
	"github.com/ezrec/chip8/keypad"
)

const (
	SCALE           = 10 // Window pixels per display pixel.
	STATUS_HEIGHT   = 16 // Status line height, in window pixels.
	BYTES_PER_PIXEL = 4  // RGBA
)

// KEYS maps each keypad index to a host key, in the shared layout.
var KEYS = keysOf(frontend.LAYOUT)

// keysOf maps a layout of lowercase letters and digits to host keys.
func keysOf(layout string) (keys [keypad.KEY_COUNT]ebiten.Key) {
	for n, ch := range layout {
		switch {
		case ch >= 'a' && ch <= 'z':
			keys[n] = ebiten.KeyA + ebiten.Key(ch-'a')
		case ch >= '0' && ch <= '9':
			keys[n] = ebiten.KeyDigit0 + ebiten.Key(ch-'0')
		default:
			panic(fmt.Sprintf("desktop: no key for %q", ch))
		}
	}

	return
}

// pixelsOf renders a frame as RGBA pixels.
func pixelsOf(frame *display.Frame) (pixels []byte) {
	pixels = make([]byte, display.CELLS*BYTES_PER_PIXEL)
	for n, lit := range frame {
		var level byte
		if lit {
			level = 0xff
		}
		pixel := pixels[n*BYTES_PER_PIXEL:]
		pixel[0] = level
		pixel[1] = level
		pixel[2] = level
		pixel[3] = 0xff
	}

	return
}

// Game is the ebiten game running an emulator.
type Game struct {
	emu    *emulator.Emulator
	cancel context.CancelFunc
	done   chan error
	keys   [keypad.KEY_COUNT]bool

	mutex    sync.Mutex
	frame    display.Frame
	pc       uint16
	sounding bool
	image    *ebiten.Image

	finished bool
	err      error
}

// onFrame records the latest display state. Called from the emulator goroutine.
func (game *Game) onFrame(frame *display.Frame) {
	game.mutex.Lock()
	defer game.mutex.Unlock()

	game.frame = *frame
	game.pc = game.emu.PC
	game.sounding = game.emu.Sounding()
}

// finish records the emulator result.
func (game *Game) finish(err error) {
	game.finished = true
	if !errors.Is(err, context.Canceled) {
		game.err = err
	}
}

// Update polls the keyboard.
func (game *Game) Update() error {
	select {
	case err := <-game.done:
		game.finish(err)
		return ebiten.Termination
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		game.cancel()
		return nil
	}

	for index, key := range KEYS {
		pressed := ebiten.IsKeyPressed(key)
		if pressed == game.keys[index] {
			continue
		}
		game.keys[index] = pressed
		if pressed {
			game.emu.KeyDown(byte(index))
		} else {
			game.emu.KeyUp(byte(index))
		}
	}

	return nil
}

// Draw the display, scaled, and the status line.
func (game *Game) Draw(screen *ebiten.Image) {
	game.mutex.Lock()
	pixels := pixelsOf(&game.frame)
	status := fmt.Sprintf("pc %03x  [esc] quit", game.pc)
	if game.sounding {
		status += "  *beep*"
	}
	game.mutex.Unlock()

	if game.image == nil {
		game.image = ebiten.NewImage(display.WIDTH, display.HEIGHT)
	}
	game.image.WritePixels(pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(SCALE, SCALE)
	screen.DrawImage(game.image, op)

	ebitenutil.DebugPrintAt(screen, status, 0, display.HEIGHT*SCALE)
}

// Layout is the fixed logical screen size.
func (game *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return display.WIDTH * SCALE, display.HEIGHT*SCALE + STATUS_HEIGHT
}

// Run the emulator in a window until Escape is pressed, the window is
// closed, the emulator fails, or the context is done.
func Run(ctx context.Context, emu *emulator.Emulator, hz int) (err error) {
	if !emu.Memory.Loaded() {
		err = emulator.ErrNoProgram
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	game := &Game{
		emu:    emu,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	go func() {
		game.done <- emu.Run(ctx, hz, game.onFrame)
	}()

	ebiten.SetWindowSize(display.WIDTH*SCALE, display.HEIGHT*SCALE+STATUS_HEIGHT)
	ebiten.SetWindowTitle("chip8")

	err = ebiten.RunGame(game)

	// The window was closed with the emulator still running.
	if !game.finished {
		cancel()
		game.finish(<-game.done)
	}

	if err == nil {
		err = game.err
	}

	return
}
