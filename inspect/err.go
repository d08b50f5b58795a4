package inspect

import (
	"errors"

	"github.com/ezrec/jello/translate"
)

var f = translate.From

var (
	ErrNoValue = errors.New(f("expression has no value"))
)

// ErrExpression reports a failed expression.
type ErrExpression struct {
	Expr string
	Err  error
}

func (err *ErrExpression) Error() string {
	return f("expression '%v': %v", err.Expr, err.Err)
}

func (err *ErrExpression) Unwrap() error {
	return err.Err
}

// ErrAddress is a memory address outside of the machine.
type ErrAddress struct {
	Address int
}

func (err *ErrAddress) Error() string {
	return f("address %d out of range", err.Address)
}
