package ddn

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// backBuffer is one slot of the presentation ring.
type backBuffer struct {
	resource Resource

	// fenceValue is the ticket signaled when the slot was last vacated by
	// Present. The slot may be rendered into again once it is reached.
	fenceValue uint64
}

// SwapChain cycles a fixed ring of back buffers between the renderer and
// the display. Present never returns control to the caller before the
// newly active buffer's previous frame has retired on the device, so the
// renderer never writes into a buffer the device may still be using.
//
// A SwapChain is driven by the render goroutine only. The per-slot fence
// values are touched by nothing else and need no lock.
type SwapChain struct {
	queue   *CommandQueue
	fence   *Fence
	engine  PresentEngine
	buffers []backBuffer
	count   uint32
	tearing bool
	opts    swapChainOptions
	closed  bool
}

// NewSwapChain creates a swap chain with count back buffers presenting to
// surface, ordered on queue. The queue must be a direct queue and count
// must be within [2, MaxBackBufferCount]; violations return
// ErrInvalidArgument before any resource is created.
func NewSwapChain(factory Factory, queue *CommandQueue, surface Surface, count uint32, opts ...SwapChainOption) (*SwapChain, error) {
	if queue == nil {
		return nil, ErrNilQueue
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidArgument)
	}
	if surface == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrInvalidArgument)
	}
	if t := queue.Type(); t != QueueTypeDirect {
		return nil, fmt.Errorf("%w: expected direct command queue, got %s", ErrInvalidArgument, t)
	}
	if count < 2 || count > MaxBackBufferCount {
		return nil, fmt.Errorf("%w: back buffer count %d, expected 2 to %d", ErrInvalidArgument, count, MaxBackBufferCount)
	}

	options := defaultSwapChainOptions()
	for _, opt := range opts {
		opt(&options)
	}

	tearing := options.allowTearing && factory.SupportsTearing()

	fence, err := NewFence(queue.Device())
	if err != nil {
		return nil, err
	}

	desc := PresentEngineDesc{
		BufferCount:  count,
		Width:        max(1, surface.Width()),
		Height:       max(1, surface.Height()),
		Format:       options.format,
		AllowTearing: tearing,
	}
	engine, err := factory.CreatePresentEngine(queue.Hardware(), surface, desc)
	if err != nil {
		fence.Close()
		return nil, fmt.Errorf("ddn: create present engine: %w", err)
	}

	sc := &SwapChain{
		queue:   queue,
		fence:   fence,
		engine:  engine,
		count:   count,
		tearing: tearing,
		opts:    options,
	}
	if err := sc.acquireBackBuffers(); err != nil {
		engine.Destroy()
		fence.Close()
		return nil, err
	}

	Logger().Info("ddn: swap chain created",
		"buffers", count,
		"width", desc.Width,
		"height", desc.Height,
		"tearing", tearing)
	return sc, nil
}

// BackBufferCount returns the number of buffers in the ring.
func (sc *SwapChain) BackBufferCount() uint32 {
	return sc.count
}

// CurrentBackBufferIndex returns the slot the next frame renders into.
func (sc *SwapChain) CurrentBackBufferIndex() uint32 {
	return sc.engine.CurrentBackBufferIndex()
}

// CurrentBackBuffer returns the buffer the next frame renders into.
func (sc *SwapChain) CurrentBackBuffer() Resource {
	return sc.BackBuffer(sc.CurrentBackBufferIndex())
}

// BackBuffer returns the buffer in slot index, or nil if index is out of
// range.
func (sc *SwapChain) BackBuffer(index uint32) Resource {
	if int(index) >= len(sc.buffers) {
		return nil
	}
	return sc.buffers[index].resource
}

// TearingSupported reports whether presents are issued with
// PresentAllowTearing.
func (sc *SwapChain) TearingSupported() bool {
	return sc.tearing
}

// Width returns the current back buffer width.
func (sc *SwapChain) Width() uint32 {
	return sc.engine.Desc().Width
}

// Height returns the current back buffer height.
func (sc *SwapChain) Height() uint32 {
	return sc.engine.Desc().Height
}

// Format returns the back buffer pixel format.
func (sc *SwapChain) Format() gputypes.TextureFormat {
	return sc.engine.Desc().Format
}

// LastTicket returns the ticket issued by the most recent Present, or 0
// before the first.
func (sc *SwapChain) LastTicket() uint64 {
	return sc.fence.Value()
}

// Present hands the current buffer to the display and advances to the next
// one. It records a ticket for the vacated slot, presents, and then blocks
// until the newly active slot's previous ticket is reached.
func (sc *SwapChain) Present() error {
	if sc.closed {
		return ErrClosed
	}

	index := sc.engine.CurrentBackBufferIndex()
	if int(index) >= len(sc.buffers) {
		return fmt.Errorf("ddn: present: engine reported back buffer %d of %d", index, len(sc.buffers))
	}
	ticket, err := sc.queue.Signal(sc.fence)
	if err != nil {
		return fmt.Errorf("ddn: present: %w", err)
	}
	sc.buffers[index].fenceValue = ticket

	var flags PresentFlags
	if sc.tearing && sc.opts.syncInterval == 0 {
		flags |= PresentAllowTearing
	}
	if err := sc.engine.Present(sc.opts.syncInterval, flags); err != nil {
		return fmt.Errorf("ddn: present: %w", err)
	}

	next := sc.engine.CurrentBackBufferIndex()
	if int(next) >= len(sc.buffers) {
		return fmt.Errorf("ddn: present: engine reported back buffer %d of %d", next, len(sc.buffers))
	}
	Logger().Debug("ddn: presented", "slot", index, "ticket", ticket, "next", next, "wait", sc.buffers[next].fenceValue)
	if err := sc.fence.Wait(sc.buffers[next].fenceValue); err != nil {
		return fmt.Errorf("ddn: present: %w", err)
	}
	return nil
}

// Resize reallocates the back buffers at width x height. Zero dimensions
// are raised to 1. The owning queue is flushed before any buffer handle is
// released.
func (sc *SwapChain) Resize(width, height uint32) error {
	if sc.closed {
		return ErrClosed
	}
	width = max(1, width)
	height = max(1, height)

	if err := sc.queue.Flush(); err != nil {
		return fmt.Errorf("ddn: resize: %w", err)
	}

	sc.releaseBackBuffers()

	desc := sc.engine.Desc()
	if err := sc.engine.ResizeBuffers(desc.BufferCount, width, height); err != nil {
		return fmt.Errorf("ddn: resize buffers to %dx%d: %w", width, height, err)
	}
	if err := sc.acquireBackBuffers(); err != nil {
		return err
	}

	Logger().Info("ddn: swap chain resized", "width", width, "height", height)
	return nil
}

// OnResize returns a window resize hook that calls Resize and reports
// failures to onError.
func (sc *SwapChain) OnResize(onError func(error)) func(width, height uint32) {
	return func(width, height uint32) {
		if err := sc.Resize(width, height); err != nil && onError != nil {
			onError(err)
		}
	}
}

// Close drains the owning queue and releases the buffers, the engine and
// the fence. Close is idempotent.
func (sc *SwapChain) Close() error {
	if sc.closed {
		return nil
	}
	sc.closed = true

	err := sc.queue.Flush()
	sc.releaseBackBuffers()
	sc.engine.Destroy()
	sc.fence.Close()
	if err != nil {
		return fmt.Errorf("ddn: close swap chain: %w", err)
	}
	return nil
}

func (sc *SwapChain) releaseBackBuffers() {
	for i := range sc.buffers {
		sc.buffers[i].resource = nil
		sc.buffers[i].fenceValue = 0
	}
}

func (sc *SwapChain) acquireBackBuffers() error {
	if cap(sc.buffers) < int(sc.count) {
		sc.buffers = make([]backBuffer, sc.count)
	}
	sc.buffers = sc.buffers[:sc.count]
	for i := range sc.buffers {
		res, err := sc.engine.BackBuffer(uint32(i))
		if err != nil {
			return fmt.Errorf("ddn: get back buffer %d: %w", i, err)
		}
		sc.buffers[i].resource = res
	}
	return nil
}
