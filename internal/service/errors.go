package serviceerrors

import "errors"

var (
	ErrInvalidItem      = errors.New("invalid item")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrContextCanceled  = errors.New("context canceled")
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)
