package pricing

import "errors"

var (
	// ErrInvalidArgument is returned when a name is empty or a price or quantity is negative.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNilReference is returned when a required item or order is missing.
	ErrNilReference = errors.New("nil reference")
)
