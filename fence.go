package ddn

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Fence pairs a device completion object with a CPU-side counter of issued
// tickets. Each Signal returns a ticket one greater than the previous one,
// starting at 1; waiting on a ticket blocks until the device has reached it.
//
// A Fence is owned by exactly one CommandQueue or SwapChain. Signal is safe
// for concurrent use. Waits are serialized on the fence's single wait
// handle.
type Fence struct {
	fence    DeviceFence
	signaled atomic.Uint64

	waitMu sync.Mutex
	event  chan error
	closed atomic.Bool
}

// NewFence creates a fence on device with no tickets issued.
func NewFence(device Device) (*Fence, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	df, err := device.CreateFence(0)
	if err != nil {
		return nil, fmt.Errorf("ddn: create fence: %w", err)
	}
	return &Fence{
		fence: df,
		event: make(chan error, 1),
	}, nil
}

// Signal issues the next ticket and signals it on the device's default
// timeline. It does not block.
func (f *Fence) Signal() (uint64, error) {
	if f.closed.Load() {
		return 0, ErrClosed
	}
	value := f.signaled.Add(1)
	if err := f.fence.Signal(value); err != nil {
		return 0, fmt.Errorf("ddn: signal fence %d: %w", value, err)
	}
	return value, nil
}

// SignalQueue issues the next ticket and signals it through queue, so the
// ticket is reached only after work already submitted to queue retires.
// It does not block.
func (f *Fence) SignalQueue(queue HardwareQueue) (uint64, error) {
	if queue == nil {
		return 0, ErrNilQueue
	}
	if f.closed.Load() {
		return 0, ErrClosed
	}
	value := f.signaled.Add(1)
	if err := queue.Signal(f.fence, value); err != nil {
		return 0, fmt.Errorf("ddn: signal fence %d on %s queue: %w", value, queue.Type(), err)
	}
	return value, nil
}

// Wait blocks until the device has reached ticket. It returns at once,
// without touching the wait handle, when the ticket is already complete.
// There is no timeout: a device that never reaches ticket blocks the
// caller forever.
func (f *Fence) Wait(ticket uint64) error {
	if f.closed.Load() {
		return ErrClosed
	}
	if f.fence.CompletedValue() >= ticket {
		return nil
	}

	f.waitMu.Lock()
	defer f.waitMu.Unlock()

	Logger().Debug("ddn: waiting for fence", "ticket", ticket, "completed", f.fence.CompletedValue())
	if err := f.fence.NotifyOnCompletion(ticket, f.event); err != nil {
		return fmt.Errorf("ddn: register completion for fence %d: %w", ticket, err)
	}
	if err := <-f.event; err != nil {
		return fmt.Errorf("ddn: wait for fence %d: %w", ticket, err)
	}
	return nil
}

// WaitSignaled blocks until the most recently issued ticket is reached.
func (f *Fence) WaitSignaled() error {
	return f.Wait(f.signaled.Load())
}

// QueueWait makes queue pause on the device until the most recently issued
// ticket is reached. The calling goroutine does not block.
func (f *Fence) QueueWait(queue HardwareQueue) error {
	if queue == nil {
		return ErrNilQueue
	}
	value := f.signaled.Load()
	if err := queue.Wait(f.fence, value); err != nil {
		return fmt.Errorf("ddn: queue wait for fence %d: %w", value, err)
	}
	return nil
}

// Value returns the most recently issued ticket, or 0 if none.
func (f *Fence) Value() uint64 {
	return f.signaled.Load()
}

// Completed returns the last ticket the device reports as reached.
func (f *Fence) Completed() uint64 {
	return f.fence.CompletedValue()
}

// Close releases the device fence. Close is idempotent.
func (f *Fence) Close() {
	if f.closed.Swap(true) {
		return
	}
	f.waitMu.Lock()
	defer f.waitMu.Unlock()
	f.fence.Destroy()
}
