package memory

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Memory errors
	ErrRomTooLarge = errors.New(f("rom too large"))
)

// ErrAddress is raised (by panic) on an access outside of the address space.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address 0x%x out of range", int(ea))
}
