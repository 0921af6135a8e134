package qhash

import "github.com/pkg/errors"

var (
	ErrEmptyInput    = errors.New("qhash: input must contain at least one byte")
	ErrInvalidConfig = errors.New("qhash: invalid configuration")
	ErrUnknownMode   = errors.New("qhash: unknown output mode")
)
