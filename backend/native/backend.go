//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/backend"
	"github.com/delivron/3dandelion/render"
)

// Register makes a native backend running on provider available to the
// registry. The host calls it once its GPU device exists.
func Register(provider render.DeviceHandle, opts ...Option) {
	backend.Register(backend.BackendNative, func() backend.Backend {
		return New(provider, opts...)
	})
}

// Option configures a Backend.
type Option func(*Backend)

// WithPresenter hands every presented back buffer to p instead of reading
// it back into the surface.
func WithPresenter(p Presenter) Option {
	return func(b *Backend) { b.presenter = p }
}

// Backend runs the frame loop on a host-owned wgpu HAL device.
type Backend struct {
	provider    render.DeviceHandle
	presenter   Presenter
	device      *Device
	factory     *Factory
	initialized bool
}

// New creates a native backend for provider. The provider must implement
// render.HALProvider.
func New(provider render.DeviceHandle, opts ...Option) *Backend {
	b := &Backend{provider: provider}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendNative }

// Init extracts the HAL device and queue from the provider.
func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}
	if b.provider == nil {
		return ErrNoProvider
	}
	hp, ok := b.provider.(render.HALProvider)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNoHAL, b.provider)
	}
	halDev, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return fmt.Errorf("%w: device is %T", ErrNoHAL, hp.HalDevice())
	}
	halQueue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return fmt.Errorf("%w: queue is %T", ErrNoHAL, hp.HalQueue())
	}
	device, err := NewDevice(halDev, halQueue)
	if err != nil {
		return err
	}
	b.device = device
	b.factory = NewFactory(device, b.presenter)
	b.initialized = true
	return nil
}

// Close waits for every queue to drain. The HAL device stays with the host.
func (b *Backend) Close() {
	if !b.initialized {
		return
	}
	b.device.Close()
	b.initialized = false
}

// Device returns the native device, or nil before Init.
func (b *Backend) Device() ddn.Device {
	if b.device == nil {
		return nil
	}
	return b.device
}

// Factory returns the present engine factory, or nil before Init.
func (b *Backend) Factory() ddn.Factory {
	if b.factory == nil {
		return nil
	}
	return b.factory
}

// Handle returns the host device handle.
func (b *Backend) Handle() render.DeviceHandle { return b.provider }

// NewRenderer returns the cube renderer for format. Undefined selects the
// provider's surface format, then RGBA8.
func (b *Backend) NewRenderer(format gputypes.TextureFormat) (render.Renderer, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if format == gputypes.TextureFormatUndefined {
		format = b.provider.SurfaceFormat()
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	return NewCubeRenderer(b.device, format)
}

var _ backend.Backend = (*Backend)(nil)
