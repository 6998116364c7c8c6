package ddn

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// MaxBackBufferCount is the largest number of back buffers a SwapChain
// accepts.
const MaxBackBufferCount = 16

// QueueType identifies the kind of work a hardware queue accepts.
type QueueType uint8

const (
	// QueueTypeDirect accepts graphics, compute and copy work. Only direct
	// queues can drive presentation.
	QueueTypeDirect QueueType = iota

	// QueueTypeCompute accepts compute and copy work.
	QueueTypeCompute

	// QueueTypeCopy accepts copy work only.
	QueueTypeCopy
)

// String returns the queue type name.
func (t QueueType) String() string {
	switch t {
	case QueueTypeDirect:
		return "direct"
	case QueueTypeCompute:
		return "compute"
	case QueueTypeCopy:
		return "copy"
	default:
		return fmt.Sprintf("QueueType(%d)", uint8(t))
	}
}

// CommandList is an opaque handle to recorded device work.
// The concrete type is defined by the backend; nil is the null handle.
type CommandList any

// Resource is an opaque handle to a device resource such as a back buffer.
type Resource any

// DeviceFence is the device-side completion object behind a Fence.
//
// Implementations must be safe for concurrent use: the completed value is
// advanced by the device while the CPU polls it.
type DeviceFence interface {
	// CompletedValue returns the last value the device reports as reached.
	CompletedValue() uint64

	// Signal sets the fence to value on the device's default timeline.
	Signal(value uint64) error

	// NotifyOnCompletion arranges a single send on event once the completed
	// value is >= value. The send is nil on completion, or the device error
	// that makes completion impossible. If the value is already reached the
	// send may happen before NotifyOnCompletion returns, so event must be
	// buffered.
	NotifyOnCompletion(value uint64, event chan<- error) error

	// Destroy releases the device fence.
	Destroy()
}

// Device creates fences and hardware queues.
type Device interface {
	// CreateFence creates a device fence whose completed value starts at initial.
	CreateFence(initial uint64) (DeviceFence, error)

	// CreateQueue creates a hardware submission queue of the given type.
	CreateQueue(t QueueType) (HardwareQueue, error)
}

// HardwareQueue is a device submission queue. Work submitted to one queue
// retires in submission order.
type HardwareQueue interface {
	// Type returns the kind of work the queue accepts.
	Type() QueueType

	// Device returns the device that owns the queue.
	Device() Device

	// ExecuteCommandLists submits lists for execution in slice order.
	ExecuteCommandLists(lists []CommandList) error

	// Signal sets fence to value once all previously submitted work on this
	// queue has retired.
	Signal(fence DeviceFence, value uint64) error

	// Wait makes the queue itself pause until fence reaches value.
	// It does not block the calling goroutine.
	Wait(fence DeviceFence, value uint64) error

	// Destroy releases the queue.
	Destroy()
}

// Surface is the window-side target a presentation engine displays into.
type Surface interface {
	// Width returns the client area width in pixels.
	Width() uint32

	// Height returns the client area height in pixels.
	Height() uint32
}

// PresentFlags modify a single Present call.
type PresentFlags uint32

const (
	// PresentAllowTearing allows the present to be displayed outside the
	// vertical blank. Valid only with sync interval 0 on an engine created
	// with AllowTearing.
	PresentAllowTearing PresentFlags = 1 << iota
)

// PresentEngineDesc describes the buffer storage of a presentation engine.
type PresentEngineDesc struct {
	BufferCount  uint32
	Width        uint32
	Height       uint32
	Format       gputypes.TextureFormat
	AllowTearing bool
}

// PresentEngine owns the presentable buffers of a surface and decides which
// buffer is active after each present.
type PresentEngine interface {
	// CurrentBackBufferIndex returns the slot the next frame renders into.
	CurrentBackBufferIndex() uint32

	// BackBuffer returns a handle to the buffer in slot index.
	BackBuffer(index uint32) (Resource, error)

	// Desc returns the current buffer storage description.
	Desc() PresentEngineDesc

	// ResizeBuffers reallocates buffer storage. All handles returned by
	// BackBuffer must have been released and no device work may still
	// reference the buffers.
	ResizeBuffers(count, width, height uint32) error

	// Present queues the active buffer for display and advances the active
	// index. Presents are ordered after work already submitted on the queue
	// the engine was created with.
	Present(syncInterval uint32, flags PresentFlags) error

	// Destroy releases the engine and its buffers.
	Destroy()
}

// Factory creates presentation engines and reports platform capabilities.
type Factory interface {
	// SupportsTearing probes variable refresh rate support. A failed probe
	// reports false.
	SupportsTearing() bool

	// CreatePresentEngine creates an engine presenting to surface whose
	// presents are ordered on queue.
	CreatePresentEngine(queue HardwareQueue, surface Surface, desc PresentEngineDesc) (PresentEngine, error)
}
