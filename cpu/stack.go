package cpu

import (
	"slices"
)

const (
	STACK_LIMIT = 16 // Maximum stack depth
)

// Stack is the subroutine return address stack.
type Stack struct {
	Data    [STACK_LIMIT]uint16
	Pointer int // Number of entries in use, 0..STACK_LIMIT.
}

// Push a value, returning false if the stack is full.
func (s *Stack) Push(value uint16) (ok bool) {
	if s.Full() {
		return
	}

	s.Data[s.Pointer] = value
	s.Pointer++

	return true
}

func (s *Stack) Pop() (value uint16, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Pointer--
	}
	return
}

func (s *Stack) Empty() bool {
	return s.Pointer == 0
}

func (s *Stack) Full() bool {
	return s.Pointer == STACK_LIMIT
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Pointer-1], true
}

// Entries returns a copy of the in-use portion of the stack, oldest first.
func (s *Stack) Entries() []uint16 {
	return slices.Clone(s.Data[:s.Pointer])
}

func (s *Stack) Reset() {
	clear(s.Data[:])
	s.Pointer = 0
}
