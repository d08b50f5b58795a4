package cpu

import (
	"fmt"
	"strings"
)

const (
	STACK_SLOTS = 16 // Storage slots of a hardware stack.
	STACK_LIMIT = 15 // Values retained before the oldest is evicted.
)

// Stack is a bounded hardware stack of 16-bit values.
//
// Pushing onto a full stack evicts the oldest value. Popping an empty
// stack returns zero. Both are silent to the instruction set.
type Stack struct {
	Pointer int
	Data    [STACK_SLOTS]uint16
}

// Push a value, returning false if the oldest value was evicted to make room.
func (s *Stack) Push(value uint16) (ok bool) {
	if s.Pointer < STACK_LIMIT {
		s.Data[s.Pointer] = value
		s.Pointer++
		return true
	}

	copy(s.Data[:STACK_LIMIT-1], s.Data[1:STACK_LIMIT])
	s.Data[STACK_LIMIT-1] = value

	return false
}

// Pop the top value, or zero if the stack is empty.
func (s *Stack) Pop() (value uint16) {
	if s.Pointer > 0 {
		s.Pointer--
		value = s.Data[s.Pointer]
	}
	return
}

// Peek at the top value without removing it.
func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Pointer-1], true
}

// Len returns the number of stored values.
func (s *Stack) Len() int {
	return s.Pointer
}

func (s *Stack) Empty() bool {
	return s.Pointer == 0
}

func (s *Stack) Full() bool {
	return s.Pointer == STACK_LIMIT
}

// Values returns the stored values, bottom first.
func (s *Stack) Values() []uint16 {
	values := make([]uint16, s.Pointer)
	copy(values, s.Data[:s.Pointer])
	return values
}

func (s *Stack) Reset() {
	s.Pointer = 0
	clear(s.Data[:])
}

// String returns the stack contents, top first.
func (s *Stack) String() string {
	words := make([]string, 0, s.Pointer)
	for n := s.Pointer - 1; n >= 0; n-- {
		words = append(words, fmt.Sprintf("%04x", s.Data[n]))
	}
	return "{" + strings.Join(words, " ") + "}"
}
