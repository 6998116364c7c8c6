//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	ddn "github.com/delivron/3dandelion"
)

// targetUsage is the usage of every back buffer texture: rendered to,
// copied out for readback and sampled by a host compositor.
const targetUsage = gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageTextureBinding

// Target is one back buffer of the offscreen ring.
type Target struct {
	Texture hal.Texture
	View    hal.TextureView
	Slot    uint32
	Width   uint32
	Height  uint32
	Format  gputypes.TextureFormat
}

// TargetFromResource returns the target behind a swap chain resource.
func TargetFromResource(r ddn.Resource) (*Target, error) {
	t, ok := r.(*Target)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: back buffer is %T", ErrForeignObject, r)
	}
	return t, nil
}

// Presenter displays a rendered back buffer. It is called after the
// frame's work was submitted, and anything it submits to the same HAL
// queue runs after that work.
type Presenter interface {
	PresentTarget(target *Target, syncInterval uint32) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(target *Target, syncInterval uint32) error

// PresentTarget calls f.
func (f PresenterFunc) PresentTarget(target *Target, syncInterval uint32) error {
	return f(target, syncInterval)
}

// discard is the presenter used when the host displays nothing.
var discard = PresenterFunc(func(*Target, uint32) error { return nil })

// Factory creates offscreen present engines on a device.
type Factory struct {
	device    *Device
	presenter Presenter
}

// NewFactory returns a factory whose engines hand presented buffers to
// presenter. With a nil presenter, engines on a surface that implements
// Canvas read frames back into it, and other surfaces drop them.
func NewFactory(device *Device, presenter Presenter) *Factory {
	return &Factory{device: device, presenter: presenter}
}

// SupportsTearing reports false: the offscreen ring has no tearing mode.
func (f *Factory) SupportsTearing() bool { return false }

// CreatePresentEngine allocates desc.BufferCount textures.
func (f *Factory) CreatePresentEngine(queue ddn.HardwareQueue, surface ddn.Surface, desc ddn.PresentEngineDesc) (ddn.PresentEngine, error) {
	q, ok := queue.(*Queue)
	if !ok || q.device != f.device {
		return nil, fmt.Errorf("%w: queue is %T", ErrForeignObject, queue)
	}
	if q.Type() != ddn.QueueTypeDirect {
		return nil, fmt.Errorf("%w: present on %s queue", ErrQueueType, q.Type())
	}
	if !supportedFormat(desc.Format) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	if desc.BufferCount == 0 || desc.BufferCount > ddn.MaxBackBufferCount {
		return nil, fmt.Errorf("%w: %d buffers", ErrBufferIndex, desc.BufferCount)
	}
	if desc.AllowTearing {
		return nil, ErrTearingUnsupported
	}

	e := &PresentEngine{device: f.device, queue: q, surface: surface, presenter: f.presenter}
	if e.presenter == nil {
		e.presenter = discard
		if canvas, ok := surface.(Canvas); ok {
			e.readback = NewReadback(f.device, canvas)
			e.presenter = e.readback
		}
	}
	if err := e.allocate(desc); err != nil {
		if e.readback != nil {
			e.readback.Close()
		}
		return nil, err
	}
	return e, nil
}

func supportedFormat(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return false
}

// PresentEngine is a ring of offscreen textures. Present hands the current
// texture to the presenter and advances the index round-robin.
type PresentEngine struct {
	device    *Device
	queue     *Queue
	surface   ddn.Surface
	presenter Presenter
	readback  *Readback

	mu        sync.Mutex
	desc      ddn.PresentEngineDesc
	targets   []*Target
	index     uint32
	destroyed bool
}

// CurrentBackBufferIndex returns the slot the next frame renders into.
func (e *PresentEngine) CurrentBackBufferIndex() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// BackBuffer returns the *Target in slot index.
func (e *PresentEngine) BackBuffer(index uint32) (ddn.Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil, ErrDestroyed
	}
	if int(index) >= len(e.targets) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBufferIndex, index, len(e.targets))
	}
	return e.targets[index], nil
}

// Desc returns the current ring description.
func (e *PresentEngine) Desc() ddn.PresentEngineDesc {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.desc
}

// ResizeBuffers reallocates the ring. A count of 0 keeps the current
// count. It fails with ErrBuffersInUse while submitted work has not
// retired.
func (e *PresentEngine) ResizeBuffers(count, width, height uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	if n := e.queue.InFlight(); n != 0 {
		return fmt.Errorf("%w: %d submissions in flight", ErrBuffersInUse, n)
	}
	if count == 0 {
		count = e.desc.BufferCount
	}
	if count > ddn.MaxBackBufferCount {
		return fmt.Errorf("%w: %d buffers", ErrBufferIndex, count)
	}
	desc := e.desc
	desc.BufferCount = count
	desc.Width = max(1, width)
	desc.Height = max(1, height)
	e.release()
	return e.allocate(desc)
}

// Present hands the current target to the presenter and advances the ring.
func (e *PresentEngine) Present(syncInterval uint32, flags ddn.PresentFlags) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	if flags&ddn.PresentAllowTearing != 0 {
		return ErrTearingUnsupported
	}
	if err := e.presenter.PresentTarget(e.targets[e.index], syncInterval); err != nil {
		return fmt.Errorf("native: present slot %d: %w", e.index, err)
	}
	e.index = (e.index + 1) % e.desc.BufferCount
	return nil
}

// Destroy releases the textures.
func (e *PresentEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.release()
	if e.readback != nil {
		e.readback.Close()
	}
}

func (e *PresentEngine) allocate(desc ddn.PresentEngineDesc) error {
	gpu := e.device.gpu
	targets := make([]*Target, 0, desc.BufferCount)
	for i := range desc.BufferCount {
		label := fmt.Sprintf("back_buffer_%d", i)
		tex, err := gpu.CreateTexture(&hal.TextureDescriptor{
			Label:         label,
			Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        desc.Format,
			Usage:         targetUsage,
		})
		if err != nil {
			destroyTargets(gpu, targets)
			return fmt.Errorf("native: create %s: %w", label, err)
		}
		view, err := gpu.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
		if err != nil {
			gpu.DestroyTexture(tex)
			destroyTargets(gpu, targets)
			return fmt.Errorf("native: create %s view: %w", label, err)
		}
		targets = append(targets, &Target{
			Texture: tex,
			View:    view,
			Slot:    i,
			Width:   desc.Width,
			Height:  desc.Height,
			Format:  desc.Format,
		})
	}
	e.desc = desc
	e.targets = targets
	e.index = 0
	return nil
}

func (e *PresentEngine) release() {
	destroyTargets(e.device.gpu, e.targets)
	e.targets = nil
}

func destroyTargets(gpu halDevice, targets []*Target) {
	for _, t := range targets {
		gpu.DestroyTextureView(t.View)
		gpu.DestroyTexture(t.Texture)
	}
}

var (
	_ ddn.Factory       = (*Factory)(nil)
	_ ddn.PresentEngine = (*PresentEngine)(nil)
)
