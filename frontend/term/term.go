// Package term is a terminal front end for the CHIP-8 emulator.
package term

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/frontend"
	"github.com/ezrec/chip8/keypad"
)

const (
	DEFAULT_HOLD = 150 * time.Millisecond // Key hold time.
	CELL_WIDTH   = 2                      // Terminal columns per pixel.
)

// Terminal renders the display with termbox, and feeds it keys.
type Terminal struct {
	Hz   int           // Emulator steps per second.
	Hold time.Duration // Time a key stays pressed, as terminals report no release.

	emu     *emulator.Emulator
	mutex   sync.Mutex
	release [keypad.KEY_COUNT]*time.Timer
}

// NewTerminal creates a terminal front end for an emulator.
func NewTerminal(emu *emulator.Emulator) (term *Terminal) {
	term = &Terminal{
		Hz:   emulator.DEFAULT_HZ,
		Hold: DEFAULT_HOLD,
		emu:  emu,
	}

	return
}

// press presses a key, and releases it after the hold time.
// Repeated presses extend the hold.
func (term *Terminal) press(index byte) {
	term.mutex.Lock()
	defer term.mutex.Unlock()

	term.emu.KeyDown(index)

	timer := term.release[index]
	if timer != nil {
		timer.Stop()
	}
	term.release[index] = time.AfterFunc(term.Hold, func() {
		term.emu.KeyUp(index)
	})
}

// stop cancels all pending key releases.
func (term *Terminal) stop() {
	term.mutex.Lock()
	defer term.mutex.Unlock()

	for n, timer := range term.release {
		if timer != nil {
			timer.Stop()
			term.release[n] = nil
		}
	}
}

// cellsOf renders a frame as terminal cells.
func cellsOf(frame *display.Frame) (cells [display.HEIGHT][display.WIDTH * CELL_WIDTH]termbox.Cell) {
	for y := range display.HEIGHT {
		for x := range display.WIDTH * CELL_WIDTH {
			bg := termbox.ColorDefault
			if frame.Pixel(x/CELL_WIDTH, y) {
				bg = termbox.ColorWhite
			}
			cells[y][x] = termbox.Cell{Ch: ' ', Fg: termbox.ColorDefault, Bg: bg}
		}
	}

	return
}

// update is the state rendered after a display change.
type update struct {
	frame    *display.Frame
	pc       uint16
	sounding bool
}

// draw renders a frame and the status line.
func (term *Terminal) draw(up update) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	if up.frame != nil {
		for y, row := range cellsOf(up.frame) {
			for x, cell := range row {
				termbox.SetCell(x, y, cell.Ch, cell.Fg, cell.Bg)
			}
		}
	}

	status := fmt.Sprintf("pc %03x  [esc] quit", up.pc)
	if up.sounding {
		status += "  *beep*"
	}
	for n, ch := range status {
		termbox.SetCell(n, display.HEIGHT, ch, termbox.ColorDefault, termbox.ColorDefault)
	}

	termbox.Flush()
}

// Run the emulator in the terminal until Esc is pressed, the emulator
// fails, or the context is done.
func (term *Terminal) Run(ctx context.Context) (err error) {
	if !term.emu.Memory.Loaded() {
		err = emulator.ErrNoProgram
		return
	}

	err = termbox.Init()
	if err != nil {
		return
	}
	defer termbox.Close()

	termbox.SetInputMode(termbox.InputEsc)

	// The log would scribble over the display.
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer term.stop()

	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	defer termbox.Interrupt()

	last := update{pc: term.emu.PC}
	term.draw(last)

	updates := make(chan update, 1)
	done := make(chan error, 1)
	go func() {
		done <- term.emu.Run(ctx, term.Hz, func(frame *display.Frame) {
			// Only the latest frame matters.
			select {
			case <-updates:
			default:
			}
			updates <- update{
				frame:    frame,
				pc:       term.emu.PC,
				sounding: term.emu.Sounding(),
			}
		})
	}()

	for {
		select {
		case ev := <-events:
			switch ev.Type {
			case termbox.EventKey:
				if ev.Key == termbox.KeyEsc {
					cancel()
				} else if index, ok := frontend.KeyOf(ev.Ch); ok {
					term.press(index)
				}
			case termbox.EventResize:
				term.draw(last)
			case termbox.EventError:
				err = ev.Err
				cancel()
			}
		case up := <-updates:
			last = up
			term.draw(last)
		case run_err := <-done:
			if err == nil && !errors.Is(run_err, context.Canceled) {
				err = run_err
			}
			return
		}
	}
}
