package cpu

import (
	"errors"

	"github.com/ezrec/jello/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrDivideByZero = errors.New(f("divide by zero"))
	ErrProgramSize  = errors.New(f("program exceeds memory"))

	// Assembler errors
	ErrInstructionUnknown = errors.New(f("unknown instruction"))
	ErrArgumentCount      = errors.New(f("argument count mismatch"))
	ErrOperandWide        = errors.New(f("argument(s) too many bytes"))
	ErrOperandNarrow      = errors.New(f("argument(s) too few bytes"))
	ErrOperandParse       = errors.New(f("could not parse argument"))
	ErrStringUnterminated = errors.New(f("unterminated string"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label name missing"))
	ErrDataAddress        = errors.New(f("data address error"))
	ErrDataAddressLength  = errors.New(f("data address length error"))
	ErrDataValue          = errors.New(f("data value error"))
	ErrDataLength         = errors.New(f("data length error"))
	ErrDataOverlap        = errors.New(f("data overlaps program"))
)

// ErrLabelMissing is a reference to a label that is never declared.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode is a fault raised while executing an opcode.
type ErrOpcode Opcode

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x %v", byte(eo), Opcode(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrLabel names the label of a label declaration error.
type ErrLabel struct {
	Err   error
	Label string
	First int // Line of the first declaration.
}

func (err *ErrLabel) Error() string {
	return f("%v '%v' (first declared on line %d)", err.Err, err.Label, err.First)
}

func (err *ErrLabel) Unwrap() error {
	return err.Err
}

// ErrSize reports a count that did not match the instruction definition.
type ErrSize struct {
	Err      error
	Expected int
	Got      int
}

func (err *ErrSize) Error() string {
	return f("%v, expected %d but got %d", err.Err, err.Expected, err.Got)
}

func (err *ErrSize) Unwrap() error {
	return err.Err
}

// ErrSyntax locates an assembly error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrAddress is a data placement address that collides with earlier bytes.
type ErrAddress struct {
	Err     error
	Address uint16
}

func (err *ErrAddress) Error() string {
	return f("%v at 0x%04x", err.Err, err.Address)
}

func (err *ErrAddress) Unwrap() error {
	return err.Err
}
