package io

import (
	"io"
	"iter"
)

// Tape provides sequential host I/O for a machine serial channel.
// It wraps an io.Reader for input and io.Writer for output.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	Written int // Total bytes sent to Output.
}

var _ Channel = (*Tape)(nil)

// Rewind is not possible on a tape.
func (tc *Tape) Rewind() {
}

// Receive returns an iterator that yields bytes from the input stream
// until it is exhausted or fails.
func (tc *Tape) Receive() iter.Seq[byte] {
	return func(yield func(value byte) bool) {
		if tc.Input == nil {
			return
		}
		for {
			var one [1]byte
			n, err := tc.Input.Read(one[:])
			if n == 1 {
				if !yield(one[0]) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}

// Send writes a single byte to the output stream.
// A tape without an output discards the byte.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		return
	}

	_, err = tc.Output.Write([]byte{value})
	if err == nil {
		tc.Written++
	}

	return
}

// Drain moves every queued byte from a channel to the tape output.
func (tc *Tape) Drain(from Channel) (n int, err error) {
	for value := range from.Receive() {
		err = tc.Send(value)
		if err != nil {
			return
		}
		n++
	}

	return
}

// Fill moves bytes from the tape input into a serial buffer until either
// the input is exhausted or the buffer is full.
func (tc *Tape) Fill(to *Serial) (n int) {
	if to.Full() {
		return
	}

	for value := range tc.Receive() {
		to.Put(value)
		n++
		if to.Full() {
			break
		}
	}

	return
}
