package core

import "errors"

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrUnknownOperationType = errors.New("unknown operation type")
	ErrEmptyAccount         = errors.New("empty account number")
)
