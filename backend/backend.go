package backend

import (
	"errors"

	"github.com/gogpu/gputypes"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/render"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU device in backend/soft.
	BackendSoftware = "software"
	// BackendNative is the name of the wgpu HAL device in backend/native.
	BackendNative = "native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend is a device the frame loop can run on. It supplies the device
// that queues and fences are created on, the factory that creates present
// engines for a surface, and the renderer that records frames.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init initializes the backend.
	// This should be called before any other method.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Device returns the device queues and fences are created on.
	Device() ddn.Device

	// Factory returns the factory for present engines.
	Factory() ddn.Factory

	// Handle returns the host device handle the backend runs on.
	Handle() render.DeviceHandle

	// NewRenderer creates a renderer for back buffers of the given format.
	NewRenderer(format gputypes.TextureFormat) (render.Renderer, error)
}
