package soft

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	ddn "github.com/delivron/3dandelion"
)

// BackBuffer is one image of a software present engine's ring.
type BackBuffer struct {
	img        *image.RGBA
	slot       uint32
	generation uint64
	refs       *atomic.Int64
}

// Image returns the pixels. Only work running on the queue may touch them
// while the buffer is in flight.
func (b *BackBuffer) Image() *image.RGBA { return b.img }

// Slot returns the ring index of the buffer.
func (b *BackBuffer) Slot() uint32 { return b.slot }

// Generation counts how many times the ring was reallocated before this
// buffer was created.
func (b *BackBuffer) Generation() uint64 { return b.generation }

// acquire marks buffers as referenced by submitted work.
func acquire(buffers []*BackBuffer) {
	for _, b := range buffers {
		if b.refs != nil {
			b.refs.Add(1)
		}
	}
}

// release drops references taken by acquire.
func release(buffers []*BackBuffer) {
	for _, b := range buffers {
		if b.refs != nil {
			b.refs.Add(-1)
		}
	}
}

// Canvas is implemented by surfaces that display presented frames.
// window.Headless implements it.
type Canvas interface {
	ddn.Surface
	Blit(frame image.Image)
}

// Sink receives every presented frame, scaled to the surface size. It runs
// on the queue timeline and must not retain frame.
type Sink func(frame *image.RGBA)

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithTearing sets the result of the tearing probe. Default: true.
func WithTearing(supported bool) FactoryOption {
	return func(f *Factory) { f.tearing = supported }
}

// WithSink delivers presented frames to sink in addition to the surface.
func WithSink(sink Sink) FactoryOption {
	return func(f *Factory) { f.sink = sink }
}

// Factory creates software present engines.
type Factory struct {
	tearing bool
	sink    Sink
}

// NewFactory returns a factory with the given options.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{tearing: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SupportsTearing reports the configured tearing support.
func (f *Factory) SupportsTearing() bool { return f.tearing }

// CreatePresentEngine creates a flip ring of desc.BufferCount RGBA images
// presenting to surface. Presents are ordered on queue.
func (f *Factory) CreatePresentEngine(queue ddn.HardwareQueue, surface ddn.Surface, desc ddn.PresentEngineDesc) (ddn.PresentEngine, error) {
	q, ok := queue.(*Queue)
	if !ok {
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
	if desc.AllowTearing && !f.tearing {
		return nil, ErrTearingUnsupported
	}

	e := &PresentEngine{queue: q, surface: surface, sink: f.sink}
	e.allocate(desc)
	return e, nil
}

func supportedFormat(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return true
	}
	return false
}

// PresentEngine is a software flip ring. Present queues a copy of the
// current buffer to the surface on the queue timeline and advances the
// index round-robin.
type PresentEngine struct {
	queue   *Queue
	surface ddn.Surface
	sink    Sink

	mu         sync.Mutex
	desc       ddn.PresentEngineDesc
	buffers    []*BackBuffer
	index      uint32
	generation uint64
	refs       atomic.Int64
	presented  atomic.Uint64
	destroyed  bool
}

// CurrentBackBufferIndex returns the slot the next frame renders into.
func (e *PresentEngine) CurrentBackBufferIndex() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// BackBuffer returns the *BackBuffer in slot index.
func (e *PresentEngine) BackBuffer(index uint32) (ddn.Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil, ErrDestroyed
	}
	if int(index) >= len(e.buffers) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBufferIndex, index, len(e.buffers))
	}
	return e.buffers[index], nil
}

// Desc returns the current ring description.
func (e *PresentEngine) Desc() ddn.PresentEngineDesc {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.desc
}

// Presented returns the number of frames delivered to the surface.
func (e *PresentEngine) Presented() uint64 { return e.presented.Load() }

// ResizeBuffers reallocates the ring. A count of 0 keeps the current
// count. It fails with ErrBuffersInUse while any submitted work still
// references a buffer.
func (e *PresentEngine) ResizeBuffers(count, width, height uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	if n := e.refs.Load(); n != 0 {
		return fmt.Errorf("%w: %d pending references", ErrBuffersInUse, n)
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
	e.generation++
	e.allocate(desc)
	return nil
}

// Present queues the current buffer for display and advances the ring.
func (e *PresentEngine) Present(syncInterval uint32, flags ddn.PresentFlags) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	if flags&ddn.PresentAllowTearing != 0 && (!e.desc.AllowTearing || syncInterval != 0) {
		return ErrTearingUnsupported
	}

	buf := e.buffers[e.index]
	frame := []*BackBuffer{buf}
	acquire(frame)
	err := e.queue.enqueue(op{name: "present", run: func() error {
		defer release(frame)
		e.deliver(buf)
		return nil
	}})
	if err != nil {
		release(frame)
		return fmt.Errorf("soft: present: %w", err)
	}
	e.index = (e.index + 1) % e.desc.BufferCount
	return nil
}

// Destroy releases the ring. Work already queued still completes.
func (e *PresentEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
	e.buffers = nil
}

func (e *PresentEngine) allocate(desc ddn.PresentEngineDesc) {
	e.desc = desc
	e.buffers = make([]*BackBuffer, desc.BufferCount)
	for i := range e.buffers {
		e.buffers[i] = &BackBuffer{
			img:        image.NewRGBA(image.Rect(0, 0, int(desc.Width), int(desc.Height))),
			slot:       uint32(i),
			generation: e.generation,
			refs:       &e.refs,
		}
	}
	e.index = 0
}

// deliver runs on the queue timeline.
func (e *PresentEngine) deliver(buf *BackBuffer) {
	canvas, _ := e.surface.(Canvas)
	if canvas == nil && e.sink == nil {
		e.presented.Add(1)
		return
	}
	frame := buf.img
	w, h := int(max(1, e.surface.Width())), int(max(1, e.surface.Height()))
	if sb := frame.Bounds(); sb.Dx() != w || sb.Dy() != h {
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, sb, draw.Src, nil)
		frame = scaled
	}
	if canvas != nil {
		canvas.Blit(frame)
	}
	if e.sink != nil {
		e.sink(frame)
	}
	e.presented.Add(1)
}

var (
	_ ddn.Factory       = (*Factory)(nil)
	_ ddn.PresentEngine = (*PresentEngine)(nil)
)
