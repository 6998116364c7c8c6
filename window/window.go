package window

import ddn "github.com/delivron/3dandelion"

// Window is a native or scripted window the swap chain presents to.
type Window interface {
	ddn.Surface

	// Subscribe registers a listener and returns its unsubscribe func.
	Subscribe(l Listener) (unsubscribe func())

	// Show makes the window visible.
	Show()

	// Pump processes pending events and emits one Update and one Render.
	// It returns false once the window is closed; the Destroy event has
	// then been emitted exactly once.
	Pump() bool

	// Close requests the window to close. The next Pump emits Destroy.
	Close()
}
