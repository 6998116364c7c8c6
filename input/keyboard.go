// Package input tracks keyboard state from window events.
package input

import (
	"sync"

	"github.com/delivron/3dandelion/window"
)

// Keyboard records which keys are held down.
type Keyboard struct {
	mu      sync.RWMutex
	pressed [256]bool
}

// NewKeyboard returns a keyboard with every key released.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// IsKeyPressed reports whether key is held down.
func (k *Keyboard) IsKeyPressed(key uint8) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.pressed[key]
}

// OnKeyDown marks key as pressed.
func (k *Keyboard) OnKeyDown(key uint8) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed[key] = true
}

// OnKeyUp marks key as released.
func (k *Keyboard) OnKeyUp(key uint8) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed[key] = false
}

// Listener returns the window listener that feeds k.
func (k *Keyboard) Listener() window.Listener {
	return window.Listener{
		OnKeyDown: k.OnKeyDown,
		OnKeyUp:   k.OnKeyUp,
	}
}
