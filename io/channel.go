// Package io provides the byte channels attached to the jello machine.
// It includes the bounded serial FIFO used for the machine's input and
// output buffers (Serial), and a Tape that moves bytes between a serial
// channel and host readers and writers.
package io

import (
	"iter"
)

// Channel defines the interface for all byte channels of the machine.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Receive returns an iterator that yields bytes from the channel.
	Receive() iter.Seq[byte]
	// Send writes a single byte to the channel.
	Send(value byte) error
}
