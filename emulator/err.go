package emulator

import (
	"github.com/ezrec/jello/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Ip     uint16
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d [%04x] %v", err.LineNo, err.Ip, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
