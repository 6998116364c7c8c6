//go:build !glfw

package main

import (
	"github.com/delivron/3dandelion/app"
	"github.com/delivron/3dandelion/window"
)

func openWindow(cfg app.Config) (window.Window, error) {
	return window.NewHeadless(cfg.Width, cfg.Height), nil
}
