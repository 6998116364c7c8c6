//go:build glfw

package main

import (
	"github.com/delivron/3dandelion/app"
	"github.com/delivron/3dandelion/window"
)

// openWindow opens a native window. The software backend does not draw
// into it; frames become visible once a host presenter is registered.
func openWindow(cfg app.Config) (window.Window, error) {
	w, err := window.NewGLFW(cfg.Title, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	return w, nil
}
