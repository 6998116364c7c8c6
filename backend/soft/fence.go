package soft

import (
	"sync"

	ddn "github.com/delivron/3dandelion"
)

type waiter struct {
	value uint64
	event chan<- error
}

// Fence is a software completion counter. The completed value only grows.
// Notifications are sent without blocking, so each event channel needs
// room for one value.
type Fence struct {
	mu        sync.Mutex
	completed uint64
	waiters   []waiter
	destroyed bool
}

func newFence(initial uint64) *Fence {
	return &Fence{completed: initial}
}

// CompletedValue returns the highest value reached.
func (f *Fence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Signal sets the fence to value from the CPU.
func (f *Fence) Signal(value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrDestroyed
	}
	f.reachLocked(value)
	return nil
}

// NotifyOnCompletion sends nil on event once value is reached.
func (f *Fence) NotifyOnCompletion(value uint64, event chan<- error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrDestroyed
	}
	if f.completed >= value {
		notify(event, nil)
		return nil
	}
	f.waiters = append(f.waiters, waiter{value: value, event: event})
	return nil
}

// Destroy fails pending notifications with ErrDestroyed.
func (f *Fence) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return
	}
	f.destroyed = true
	for _, w := range f.waiters {
		notify(w.event, ErrDestroyed)
	}
	f.waiters = nil
}

// wait blocks until value is reached. Queue timelines use it for
// GPU-side waits.
func (f *Fence) wait(value uint64) error {
	event := make(chan error, 1)
	if err := f.NotifyOnCompletion(value, event); err != nil {
		return err
	}
	return <-event
}

func (f *Fence) reachLocked(value uint64) {
	if value <= f.completed {
		return
	}
	f.completed = value
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= value {
			notify(w.event, nil)
			continue
		}
		kept = append(kept, w)
	}
	clear(f.waiters[len(kept):])
	f.waiters = kept
}

func notify(event chan<- error, err error) {
	select {
	case event <- err:
	default:
	}
}

var _ ddn.DeviceFence = (*Fence)(nil)
