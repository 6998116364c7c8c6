package ddn

import "errors"

// Package errors.
var (
	// ErrInvalidArgument is returned when a constructor precondition is
	// violated (wrong queue type, back buffer count out of range).
	ErrInvalidArgument = errors.New("ddn: invalid argument")

	// ErrNilDevice is returned when a nil Device is passed to a constructor.
	ErrNilDevice = errors.New("ddn: nil device")

	// ErrNilQueue is returned when a nil queue is passed to a constructor.
	ErrNilQueue = errors.New("ddn: nil command queue")

	// ErrClosed is returned when operating on a closed fence, queue or swap chain.
	ErrClosed = errors.New("ddn: use of closed object")
)
