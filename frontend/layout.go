// Package frontend holds what the CHIP-8 front ends share.
package frontend

import (
	"strings"
	"unicode"
)

// LAYOUT maps each hex key to a key of a QWERTY keyboard.
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  =>  q w e r
//	7 8 9 E      a s d f
//	A 0 B F      z x c v
const LAYOUT = "x123qweasdzc4rfv"

// KeyOf returns the hex key for a keyboard character.
func KeyOf(ch rune) (index byte, ok bool) {
	n := strings.IndexRune(LAYOUT, ch)
	if n < 0 && unicode.IsUpper(ch) {
		n = strings.IndexRune(LAYOUT, unicode.ToLower(ch))
	}
	if n < 0 {
		return
	}

	index = byte(n)
	ok = true

	return
}
