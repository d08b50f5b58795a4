package io

import (
	"iter"
)

const (
	SERIAL_CAPACITY = 256 // Maximum queued bytes in a serial buffer.
)

// Serial is a bounded FIFO of bytes.
// Puts past capacity are dropped and reported by the return value only.
type Serial struct {
	ReadIndex  int
	WriteIndex int
	Size       int
	Data       [SERIAL_CAPACITY]byte
}

var _ Channel = (*Serial)(nil)

// Rewind empties the buffer.
func (sb *Serial) Rewind() {
	sb.ReadIndex = 0
	sb.WriteIndex = 0
	sb.Size = 0
}

// Clear is an alias of Rewind.
func (sb *Serial) Clear() {
	sb.Rewind()
}

// Len returns the number of queued bytes.
func (sb *Serial) Len() int {
	return sb.Size
}

// HasBytes returns true if at least one byte is queued.
func (sb *Serial) HasBytes() bool {
	return sb.Size > 0
}

// Full returns true if the buffer is at capacity.
func (sb *Serial) Full() bool {
	return sb.Size >= SERIAL_CAPACITY
}

// Put queues a byte, returning false if the buffer was full.
func (sb *Serial) Put(value byte) (ok bool) {
	if sb.Full() {
		return
	}

	sb.Data[sb.WriteIndex] = value
	sb.WriteIndex++
	if sb.WriteIndex == SERIAL_CAPACITY {
		sb.WriteIndex = 0
	}
	sb.Size++

	ok = true
	return
}

// PutAll queues bytes in order, stopping at the first one that does not fit.
func (sb *Serial) PutAll(values []byte) (ok bool) {
	for _, value := range values {
		if !sb.Put(value) {
			return false
		}
	}

	return true
}

// PutString queues the bytes of a string.
func (sb *Serial) PutString(text string) (ok bool) {
	return sb.PutAll([]byte(text))
}

// Send implements Channel.
func (sb *Serial) Send(value byte) (err error) {
	if !sb.Put(value) {
		err = ErrChannelFull
	}
	return
}

// Take dequeues the oldest byte.
func (sb *Serial) Take() (value byte, ok bool) {
	if sb.Size == 0 {
		return
	}

	value = sb.Data[sb.ReadIndex]
	sb.ReadIndex++
	if sb.ReadIndex == SERIAL_CAPACITY {
		sb.ReadIndex = 0
	}
	sb.Size--

	ok = true
	return
}

// TakeAll dequeues every queued byte, oldest first.
func (sb *Serial) TakeAll() (values []byte) {
	for value := range sb.Receive() {
		values = append(values, value)
	}
	return
}

// Receive returns an iterator that dequeues bytes until the buffer is empty.
func (sb *Serial) Receive() iter.Seq[byte] {
	return func(yield func(value byte) bool) {
		for {
			value, ok := sb.Take()
			if !ok {
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}
