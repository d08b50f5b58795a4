package io

import (
	"errors"

	"github.com/ezrec/jello/translate"
)

var f = translate.From

var (
	// Serial errors
	ErrChannelFull = errors.New(f("serial channel full"))
)
