package soft

import (
	"fmt"

	"github.com/gogpu/gg/text"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/font/gofont/goregular"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/backend"
	"github.com/delivron/3dandelion/render"
)

// overlaySize is the overlay text size in pixels.
const overlaySize = 14

// init registers the software backend on package import.
func init() {
	backend.Register(backend.BackendSoftware, func() backend.Backend {
		return New()
	})
}

// Backend is the software device backend.
type Backend struct {
	opts        []FactoryOption
	device      *Device
	factory     *Factory
	face        text.Face
	initialized bool
}

// New creates a software backend. The options configure its factory.
func New(opts ...FactoryOption) *Backend {
	return &Backend{opts: opts}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendSoftware }

// Init starts the device and loads the overlay font.
func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return fmt.Errorf("soft: load overlay font: %w", err)
	}
	b.face = source.Face(overlaySize)
	b.device = NewDevice()
	b.factory = NewFactory(b.opts...)
	b.initialized = true
	return nil
}

// Close stops every queue timeline.
func (b *Backend) Close() {
	if !b.initialized {
		return
	}
	b.device.Close()
	b.initialized = false
}

// Device returns the software device, or nil before Init.
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

// Handle returns the null device handle; no GPU is involved.
func (b *Backend) Handle() render.DeviceHandle { return render.NullDeviceHandle{} }

// NewRenderer returns the scene renderer with the text overlay on top.
func (b *Backend) NewRenderer(format gputypes.TextureFormat) (render.Renderer, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if format != gputypes.TextureFormatUndefined && !supportedFormat(format) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	return render.NewStack(NewSceneRenderer(), NewOverlayRenderer(b.face, overlaySize)), nil
}

var _ backend.Backend = (*Backend)(nil)
