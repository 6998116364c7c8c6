package ddn

import (
	"fmt"
	"sync"
)

// CommandQueue collects recorded command lists and submits them, in
// insertion order, to one hardware queue. It embeds a Fence used to drain
// the queue.
//
// Add is safe to call from several producer goroutines. Clear, Execute and
// Flush are meant to be driven by the single render goroutine.
type CommandQueue struct {
	mu      sync.Mutex
	fence   *Fence
	queue   HardwareQueue
	pending []CommandList

	closeOnce sync.Once
}

// NewCommandQueue creates a hardware queue of type t on device together
// with its drain fence.
func NewCommandQueue(device Device, t QueueType) (*CommandQueue, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	fence, err := NewFence(device)
	if err != nil {
		return nil, err
	}
	hq, err := device.CreateQueue(t)
	if err != nil {
		fence.Close()
		return nil, fmt.Errorf("ddn: create %s queue: %w", t, err)
	}
	return &CommandQueue{
		fence: fence,
		queue: hq,
	}, nil
}

// Type returns the kind of work the queue accepts.
func (q *CommandQueue) Type() QueueType {
	return q.queue.Type()
}

// Hardware returns the underlying hardware queue.
func (q *CommandQueue) Hardware() HardwareQueue {
	return q.queue
}

// Device returns the device that owns the queue.
func (q *CommandQueue) Device() Device {
	return q.queue.Device()
}

// Add appends list to the pending set. A nil list is ignored.
func (q *CommandQueue) Add(list CommandList) {
	if list == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, list)
}

// Clear empties the pending set.
func (q *CommandQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.pending)
	q.pending = q.pending[:0]
}

// Pending returns the number of command lists waiting for Execute.
func (q *CommandQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Execute submits the pending set to the hardware queue in one call.
// An empty set issues no hardware call. The pending set is left intact;
// the caller clears it between frames.
func (q *CommandQueue) Execute() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	lists := make([]CommandList, len(q.pending))
	copy(lists, q.pending)

	Logger().Debug("ddn: execute command lists", "queue", q.queue.Type().String(), "count", len(lists))
	if err := q.queue.ExecuteCommandLists(lists); err != nil {
		return fmt.Errorf("ddn: execute %d command lists: %w", len(lists), err)
	}
	return nil
}

// Signal issues the next ticket of fence through this queue's timeline.
func (q *CommandQueue) Signal(fence *Fence) (uint64, error) {
	return fence.SignalQueue(q.queue)
}

// Wait makes this queue pause on the device until fence's latest ticket is
// reached. The calling goroutine does not block.
func (q *CommandQueue) Wait(fence *Fence) error {
	return fence.QueueWait(q.queue)
}

// Flush blocks until all work submitted to the queue so far has retired on
// the device. Use it before resizing presentable buffers and at shutdown.
func (q *CommandQueue) Flush() error {
	ticket, err := q.Signal(q.fence)
	if err != nil {
		return fmt.Errorf("ddn: flush: %w", err)
	}
	if err := q.Wait(q.fence); err != nil {
		return fmt.Errorf("ddn: flush: %w", err)
	}
	if err := q.fence.Wait(ticket); err != nil {
		return fmt.Errorf("ddn: flush: %w", err)
	}
	Logger().Debug("ddn: queue flushed", "queue", q.queue.Type().String(), "ticket", ticket)
	return nil
}

// Close releases the pending set, the drain fence and the hardware queue.
// It does not flush; call Flush first if work may still be in flight.
// Close is idempotent.
func (q *CommandQueue) Close() {
	q.closeOnce.Do(func() {
		q.Clear()
		q.fence.Close()
		q.queue.Destroy()
	})
}
