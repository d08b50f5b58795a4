// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bytes"
	"context"
	"log"
	"time"

	"github.com/ezrec/jello/cpu"
	"github.com/ezrec/jello/io"
)

// TraceLevel selects the emulator trace output.
type TraceLevel int

//go:generate go tool stringer -linecomment -type=TraceLevel
const (
	TRACE_NONE  = TraceLevel(0) // none
	TRACE_STEP  = TraceLevel(1) // step
	TRACE_STATE = TraceLevel(2) // state
)

// Emulator state. CPU + program listing + host tape.
type Emulator struct {
	Trace    TraceLevel   // Trace level of executed instructions.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Tape     io.Tape // Host side of the serial buffers.
	Buffered bool    // If set, output is held until Flush.

	buffer bytes.Buffer
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Load a program and reset the emulator.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	emu.Program = prog

	err = emu.Reset()
	return
}

// Reset the machine and reload the program.
// The input buffer is left empty; see Feed.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Trace >= TRACE_STEP

	emu.Cpu.Reset()
	emu.buffer.Reset()

	err = emu.Cpu.Load(emu.Program.Binary)
	return
}

// Feed fills the input buffer from the tape input, blocking until the
// buffer is full or the input is exhausted.
func (emu *Emulator) Feed() (n int) {
	n = emu.Tape.Fill(&emu.Cpu.Input)
	if emu.Trace >= TRACE_STEP {
		log.Printf("emulator: %d bytes of input", n)
	}

	return
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(emu.Cpu.Ip)
}

// drain moves program output to the tape, or to the buffer if buffered.
func (emu *Emulator) drain() (err error) {
	if emu.Buffered {
		for value := range emu.Cpu.Output.Receive() {
			emu.buffer.WriteByte(value)
		}
		return
	}

	_, err = emu.Tape.Drain(&emu.Cpu.Output)
	return
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Cpu.Flags.Halt {
		done = true
		return
	}

	emu.Cpu.Verbose = emu.Trace >= TRACE_STEP

	lineno := emu.LineNo()
	ip := emu.Cpu.Ip
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Ip: ip, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	if emu.Trace >= TRACE_STATE {
		log.Printf("%v", emu.Cpu.String())
	}

	err = emu.drain()
	if err != nil {
		return
	}

	done = emu.Cpu.Flags.Halt
	return
}

// Run ticks the emulator until the program halts, fails, or the context
// is done. The clock throttle delay is abandoned when the context is done.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	sleep := emu.Cpu.Sleep
	defer func() { emu.Cpu.Sleep = sleep }()

	emu.Cpu.Sleep = func(delay time.Duration) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	for {
		err = ctx.Err()
		if err != nil {
			return
		}

		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}
}

// Buffer returns the held program output.
func (emu *Emulator) Buffer() []byte {
	return emu.buffer.Bytes()
}

// Flush writes the held program output to the tape.
func (emu *Emulator) Flush() (err error) {
	for _, value := range emu.buffer.Bytes() {
		err = emu.Tape.Send(value)
		if err != nil {
			return
		}
	}

	emu.buffer.Reset()

	return
}
