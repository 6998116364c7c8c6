package soft

import "errors"

// Software device errors.
var (
	// ErrForeignObject is returned when a fence, queue, list or back buffer
	// was not created by this package.
	ErrForeignObject = errors.New("soft: object not created by the software device")

	// ErrDestroyed is returned for operations on a destroyed object and is
	// delivered to waiters pending when their fence is destroyed.
	ErrDestroyed = errors.New("soft: object destroyed")

	// ErrQueueType is returned for an unknown queue type or a present
	// engine on a non-direct queue.
	ErrQueueType = errors.New("soft: unsupported queue type")

	// ErrListOpen is returned when an unclosed command list is executed.
	ErrListOpen = errors.New("soft: command list is still recording")

	// ErrListClosed is returned when recording into a closed command list.
	ErrListClosed = errors.New("soft: command list is closed")

	// ErrBuffersInUse is returned by ResizeBuffers while submitted work
	// still references the back buffers.
	ErrBuffersInUse = errors.New("soft: back buffers in use")

	// ErrBufferIndex is returned for an out-of-range back buffer index.
	ErrBufferIndex = errors.New("soft: back buffer index out of range")

	// ErrUnsupportedFormat is returned for back buffer formats other than
	// 8-bit RGBA.
	ErrUnsupportedFormat = errors.New("soft: unsupported back buffer format")

	// ErrTearingUnsupported is returned when a present asks for tearing on
	// an engine created without it.
	ErrTearingUnsupported = errors.New("soft: tearing not enabled on this engine")
)
