// Package window provides the window collaborators of the frame loop: the
// listener callback table, the event emitter that fans events out to
// listeners, and window implementations.
package window

import "sync"

// Listener is a table of window event callbacks. Nil entries are skipped.
type Listener struct {
	OnResize  func(width, height uint32)
	OnUpdate  func()
	OnRender  func()
	OnDestroy func()
	OnKeyDown func(key uint8)
	OnKeyUp   func(key uint8)
}

type subscription struct {
	l Listener
}

// Emitter delivers window events to subscribed listeners, most recently
// subscribed first. It is safe for concurrent use; callbacks run on the
// goroutine that emits the event and may subscribe or unsubscribe.
type Emitter struct {
	mu        sync.Mutex
	listeners []*subscription
}

// Subscribe registers l and returns a function that removes it. Calling
// the returned function more than once is harmless.
func (e *Emitter) Subscribe(l Listener) (unsubscribe func()) {
	s := &subscription{l: l}
	e.mu.Lock()
	e.listeners = append([]*subscription{s}, e.listeners...)
	e.mu.Unlock()
	return func() { e.remove(s) }
}

// Len returns the number of subscribed listeners.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

func (e *Emitter) remove(s *subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.listeners {
		if cur == s {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

func (e *Emitter) snapshot() []*subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*subscription(nil), e.listeners...)
}

// EmitResize notifies OnResize listeners.
func (e *Emitter) EmitResize(width, height uint32) {
	for _, s := range e.snapshot() {
		if s.l.OnResize != nil {
			s.l.OnResize(width, height)
		}
	}
}

// EmitUpdate notifies OnUpdate listeners.
func (e *Emitter) EmitUpdate() {
	for _, s := range e.snapshot() {
		if s.l.OnUpdate != nil {
			s.l.OnUpdate()
		}
	}
}

// EmitRender notifies OnRender listeners.
func (e *Emitter) EmitRender() {
	for _, s := range e.snapshot() {
		if s.l.OnRender != nil {
			s.l.OnRender()
		}
	}
}

// EmitDestroy notifies OnDestroy listeners.
func (e *Emitter) EmitDestroy() {
	for _, s := range e.snapshot() {
		if s.l.OnDestroy != nil {
			s.l.OnDestroy()
		}
	}
}

// EmitKeyDown notifies OnKeyDown listeners.
func (e *Emitter) EmitKeyDown(key uint8) {
	for _, s := range e.snapshot() {
		if s.l.OnKeyDown != nil {
			s.l.OnKeyDown(key)
		}
	}
}

// EmitKeyUp notifies OnKeyUp listeners.
func (e *Emitter) EmitKeyUp(key uint8) {
	for _, s := range e.snapshot() {
		if s.l.OnKeyUp != nil {
			s.l.OnKeyUp(key)
		}
	}
}
