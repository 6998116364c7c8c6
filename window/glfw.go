//go:build glfw

package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLFW is a native window backed by GLFW. It is created without a client
// API; the backend attaches its own surface. All methods must be called
// from the goroutine that created it, which is locked to its OS thread.
type GLFW struct {
	Emitter

	win    *glfw.Window
	width  uint32
	height uint32
	closed bool
}

// NewGLFW opens a hidden window of the given size. Call Show to map it.
func NewGLFW(title string, width, height uint32) (*GLFW, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("window: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.False)

	win, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		glfw.Terminate()
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("window: create: %w", err)
	}

	w := &GLFW{win: win, width: width, height: height}
	if fw, fh := win.GetFramebufferSize(); fw > 0 && fh > 0 {
		w.width, w.height = uint32(fw), uint32(fh)
	}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = uint32(max(0, width)), uint32(max(0, height))
		w.EmitResize(w.width, w.height)
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		code, ok := translateKey(key)
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			w.EmitKeyDown(code)
		case glfw.Release:
			w.EmitKeyUp(code)
		}
	})
	return w, nil
}

// Width returns the framebuffer width.
func (w *GLFW) Width() uint32 { return w.width }

// Height returns the framebuffer height.
func (w *GLFW) Height() uint32 { return w.height }

// Handle returns the underlying GLFW window.
func (w *GLFW) Handle() *glfw.Window { return w.win }

// Show maps the window.
func (w *GLFW) Show() { w.win.Show() }

// Close requests the window to close.
func (w *GLFW) Close() { w.win.SetShouldClose(true) }

// Pump polls GLFW events and emits Update and Render. Once the window is
// asked to close it emits Destroy, destroys the window and returns false.
func (w *GLFW) Pump() bool {
	if w.closed {
		return false
	}
	glfw.PollEvents()
	if w.win.ShouldClose() {
		w.closed = true
		w.EmitDestroy()
		w.win.Destroy()
		glfw.Terminate()
		runtime.UnlockOSThread()
		return false
	}
	w.EmitUpdate()
	w.EmitRender()
	return true
}

func translateKey(key glfw.Key) (uint8, bool) {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ, key >= glfw.Key0 && key <= glfw.Key9:
		return uint8(key), true
	}
	switch key {
	case glfw.KeySpace:
		return KeySpace, true
	case glfw.KeyEscape:
		return KeyEscape, true
	case glfw.KeyEnter:
		return KeyEnter, true
	case glfw.KeyTab:
		return KeyTab, true
	case glfw.KeyBackspace:
		return KeyBackspace, true
	case glfw.KeyLeft:
		return KeyLeft, true
	case glfw.KeyRight:
		return KeyRight, true
	case glfw.KeyUp:
		return KeyUp, true
	case glfw.KeyDown:
		return KeyDown, true
	}
	return 0, false
}

var _ Window = (*GLFW)(nil)
