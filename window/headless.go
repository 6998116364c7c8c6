package window

import (
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// Headless is an off-screen Window driven by injected events. The CLI
// uses it for batch rendering and tests use it to script resizes, key
// presses and closes between frames.
type Headless struct {
	Emitter

	mu       sync.Mutex
	width    uint32
	height   uint32
	pending  []func()
	shown    bool
	closing  bool
	finished bool
	frame    *image.RGBA
	frames   int
}

// NewHeadless returns a headless window of the given size.
func NewHeadless(width, height uint32) *Headless {
	return &Headless{width: width, height: height}
}

// Width returns the client area width.
func (h *Headless) Width() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width
}

// Height returns the client area height.
func (h *Headless) Height() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height
}

// Show marks the window as shown.
func (h *Headless) Show() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown = true
}

// Shown reports whether Show has been called.
func (h *Headless) Shown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

// Resize queues a resize to width x height for the next Pump.
func (h *Headless) Resize(width, height uint32) {
	h.enqueue(func() {
		h.mu.Lock()
		h.width, h.height = width, height
		h.mu.Unlock()
		h.EmitResize(width, height)
	})
}

// KeyDown queues a key press for the next Pump.
func (h *Headless) KeyDown(key uint8) {
	h.enqueue(func() { h.EmitKeyDown(key) })
}

// KeyUp queues a key release for the next Pump.
func (h *Headless) KeyUp(key uint8) {
	h.enqueue(func() { h.EmitKeyUp(key) })
}

// Close requests the window to close.
func (h *Headless) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closing = true
}

// Pump delivers queued events in order, then Update and Render. After a
// Close request it delivers Destroy instead and returns false.
func (h *Headless) Pump() bool {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return false
	}
	events := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, ev := range events {
		ev()
	}

	h.mu.Lock()
	closing := h.closing
	if closing {
		h.finished = true
	}
	h.mu.Unlock()

	if closing {
		h.EmitDestroy()
		return false
	}
	h.EmitUpdate()
	h.EmitRender()
	return true
}

// Blit stores a copy of a presented frame. Present engines call it from
// their queue timeline.
func (h *Headless) Blit(frame image.Image) {
	b := frame.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), frame, b.Min, draw.Src)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = img
	h.frames++
}

// LastFrame returns the most recently presented frame, or nil.
func (h *Headless) LastFrame() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame
}

// FrameCount returns the number of frames presented to the window.
func (h *Headless) FrameCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

func (h *Headless) enqueue(ev func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, ev)
}

var _ Window = (*Headless)(nil)
