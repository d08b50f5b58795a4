package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.True(s.Empty())
	assert.False(s.Full())

	assert.True(s.Push(0x1234))
	assert.False(s.Empty())
	assert.Equal(1, s.Len())
	assert.Equal(uint16(0x1234), s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Push(0x1234)
	s.Push(0xabcd)

	assert.Equal(uint16(0xabcd), s.Pop())
	assert.Equal(1, s.Len())
	assert.Equal(uint16(0x1234), s.Pop())
	assert.Equal(0, s.Len())
}

func TestStack_Pop_Empty(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.Equal(uint16(0), s.Pop())
	assert.Equal(uint16(0), s.Pop())
	assert.True(s.Empty())
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	_, ok := s.Peek()
	assert.False(ok)

	s.Push(0x1234)
	s.Push(0xabcd)

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(uint16(0xabcd), val)
	assert.Equal(2, s.Len())
}

func TestStack_Full(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	for i := range STACK_LIMIT {
		assert.False(s.Full())
		assert.True(s.Push(uint16(i)))
	}

	assert.True(s.Full())
	assert.Equal(STACK_LIMIT, s.Len())
}

func TestStack_Evict(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	for i := range 20 {
		ok := s.Push(uint16(100 + i))
		assert.Equal(i < STACK_LIMIT, ok, i)
	}

	assert.Equal(STACK_LIMIT, s.Len())

	// The most recent 15 survive, newest on top.
	for i := 19; i >= 5; i-- {
		assert.Equal(uint16(100+i), s.Pop(), i)
	}

	// The oldest 5 were discarded.
	assert.True(s.Empty())
	assert.Equal(uint16(0), s.Pop())
}

func TestStack_Values(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.Equal([]uint16{}, s.Values())
	assert.Equal("{}", s.String())

	s.Push(1)
	s.Push(2)
	s.Push(0xbeef)
	assert.Equal([]uint16{1, 2, 0xbeef}, s.Values())
	assert.Equal("{beef 0002 0001}", s.String())

	s.Reset()
	assert.True(s.Empty())
	assert.Equal(uint16(0), s.Data[0])
}
