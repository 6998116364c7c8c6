//go:build !nogpu

package native

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/wgpu/hal"

	ddn "github.com/delivron/3dandelion"
)

// pollTimeout bounds each blocking HAL wait of the notification goroutine,
// so a destroyed fence stops polling within one interval.
const pollTimeout = 50 * time.Millisecond

type waiter struct {
	value uint64
	event chan<- error
}

// Fence adapts a hal.Fence. Values are set by submitting an empty batch
// that signals the fence, so a CPU Signal is ordered after the work
// already submitted to the device queue. Notifications come from a
// goroutine that polls the HAL fence while waiters are pending.
type Fence struct {
	device *Device
	raw    hal.Fence

	completed atomic.Uint64
	submitted atomic.Uint64

	mu        sync.Mutex
	waiters   []waiter
	polling   bool
	destroyed bool
	poller    sync.WaitGroup
}

func newFence(device *Device, initial uint64) (*Fence, error) {
	raw, err := device.gpu.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("native: create fence: %w", err)
	}
	f := &Fence{device: device, raw: raw}
	if initial > 0 {
		if err := device.queue.Submit(nil, raw, initial); err != nil {
			device.gpu.DestroyFence(raw)
			return nil, fmt.Errorf("native: initialize fence to %d: %w", initial, err)
		}
		f.completed.Store(initial)
		f.submitted.Store(initial)
	}
	return f, nil
}

// Raw returns the HAL fence.
func (f *Fence) Raw() hal.Fence { return f.raw }

// CompletedValue returns the highest value known to be reached. It checks
// the HAL fence without blocking.
func (f *Fence) CompletedValue() uint64 {
	if target := f.submitted.Load(); target > f.completed.Load() {
		if ok, err := f.device.gpu.Wait(f.raw, target, 0); err == nil && ok {
			f.reach(target)
		}
	}
	return f.completed.Load()
}

// Signal sets the fence to value once all previously submitted work has
// run.
func (f *Fence) Signal(value uint64) error {
	f.mu.Lock()
	destroyed := f.destroyed
	f.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	return f.device.signal(f, value)
}

// NotifyOnCompletion sends nil on event once value is reached.
func (f *Fence) NotifyOnCompletion(value uint64, event chan<- error) error {
	if f.CompletedValue() >= value {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.destroyed {
			return ErrDestroyed
		}
		notify(event, nil)
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrDestroyed
	}
	f.waiters = append(f.waiters, waiter{value: value, event: event})
	if !f.polling {
		f.polling = true
		f.poller.Add(1)
		go f.poll()
	}
	return nil
}

// Destroy fails pending notifications with ErrDestroyed and releases the
// HAL fence.
func (f *Fence) Destroy() {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return
	}
	f.destroyed = true
	for _, w := range f.waiters {
		notify(w.event, ErrDestroyed)
	}
	f.waiters = nil
	f.mu.Unlock()

	f.poller.Wait()
	f.device.gpu.DestroyFence(f.raw)
}

// wait blocks until value is reached.
func (f *Fence) wait(value uint64) error {
	event := make(chan error, 1)
	if err := f.NotifyOnCompletion(value, event); err != nil {
		return err
	}
	return <-event
}

func (f *Fence) noteSubmitted(value uint64) {
	for {
		cur := f.submitted.Load()
		if value <= cur || f.submitted.CompareAndSwap(cur, value) {
			return
		}
	}
}

// reach records value as completed and wakes the waiters it satisfies.
func (f *Fence) reach(value uint64) {
	for {
		cur := f.completed.Load()
		if value <= cur {
			break
		}
		if f.completed.CompareAndSwap(cur, value) {
			break
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	done := f.completed.Load()
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= done {
			notify(w.event, nil)
			continue
		}
		kept = append(kept, w)
	}
	clear(f.waiters[len(kept):])
	f.waiters = kept
}

func (f *Fence) poll() {
	defer f.poller.Done()
	for {
		f.mu.Lock()
		if f.destroyed || len(f.waiters) == 0 {
			f.polling = false
			f.mu.Unlock()
			return
		}
		next := f.waiters[0].value
		for _, w := range f.waiters[1:] {
			next = min(next, w.value)
		}
		f.mu.Unlock()

		ok, err := f.device.gpu.Wait(f.raw, next, pollTimeout)
		if err != nil {
			f.fail(fmt.Errorf("native: wait for fence value %d: %w", next, err))
			return
		}
		if ok {
			f.reach(next)
		}
	}
}

// fail delivers err to every waiter and stops polling.
func (f *Fence) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.waiters {
		notify(w.event, err)
	}
	f.waiters = nil
	f.polling = false
}

func notify(event chan<- error, err error) {
	select {
	case event <- err:
	default:
	}
}

var _ ddn.DeviceFence = (*Fence)(nil)
