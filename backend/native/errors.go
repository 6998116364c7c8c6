//go:build !nogpu

package native

import "errors"

// Native device errors.
var (
	// ErrNilHALDevice is returned when the host supplies no HAL device.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrNilHALQueue is returned when the host supplies no HAL queue.
	ErrNilHALQueue = errors.New("native: HAL queue is nil")

	// ErrNoProvider is returned by Init when the backend has no device handle.
	ErrNoProvider = errors.New("native: no device handle")

	// ErrNoHAL is returned by Init when the device handle does not expose
	// HAL objects.
	ErrNoHAL = errors.New("native: device handle does not expose HAL objects")

	// ErrForeignObject is returned when a fence, queue, list or back buffer
	// was not created by this device.
	ErrForeignObject = errors.New("native: object not created by this device")

	// ErrDestroyed is returned for operations on a destroyed object and is
	// delivered to waiters pending when their fence is destroyed.
	ErrDestroyed = errors.New("native: object destroyed")

	// ErrQueueType is returned for an unknown queue type or a present
	// engine on a non-direct queue.
	ErrQueueType = errors.New("native: unsupported queue type")

	// ErrListOpen is returned when an unclosed command list is executed.
	ErrListOpen = errors.New("native: command list is still recording")

	// ErrListClosed is returned when closing a command list twice.
	ErrListClosed = errors.New("native: command list is closed")

	// ErrWaitUnsubmitted is returned by a GPU-side wait on a value that has
	// not been signaled yet. The HAL queue runs in order, so only values
	// already submitted can be waited on.
	ErrWaitUnsubmitted = errors.New("native: wait on a fence value not yet signaled")

	// ErrBuffersInUse is returned by ResizeBuffers while submitted work has
	// not retired.
	ErrBuffersInUse = errors.New("native: back buffers in use")

	// ErrBufferIndex is returned for an out-of-range back buffer index or
	// buffer count.
	ErrBufferIndex = errors.New("native: back buffer index out of range")

	// ErrUnsupportedFormat is returned for back buffer formats the
	// offscreen ring cannot render to.
	ErrUnsupportedFormat = errors.New("native: unsupported back buffer format")

	// ErrTearingUnsupported is returned when tearing is requested. The
	// offscreen ring has no tearing present mode.
	ErrTearingUnsupported = errors.New("native: tearing not supported")

	// ErrGPUTimeout is returned when a readback does not complete in time.
	ErrGPUTimeout = errors.New("native: GPU wait timed out")
)
