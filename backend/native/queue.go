//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	ddn "github.com/delivron/3dandelion"
)

// submission is a batch whose command buffers are freed once the retire
// fence reaches ticket.
type submission struct {
	ticket  uint64
	buffers []hal.CommandBuffer
}

// Queue is a hardware queue over the device's HAL queue. Each submission
// signals a private retire fence, and command buffers are freed once their
// submission has retired.
type Queue struct {
	device *Device
	typ    ddn.QueueType
	retire *Fence

	mu        sync.Mutex
	tickets   uint64
	inFlight  []submission
	destroyed bool
}

func newQueue(device *Device, t ddn.QueueType) (*Queue, error) {
	retire, err := newFence(device, 0)
	if err != nil {
		return nil, err
	}
	return &Queue{device: device, typ: t, retire: retire}, nil
}

// Type returns the queue type.
func (q *Queue) Type() ddn.QueueType { return q.typ }

// Device returns the device the queue was created on.
func (q *Queue) Device() ddn.Device { return q.device }

// ExecuteCommandLists submits closed lists created by Device.NewCommandList
// in one HAL submission. Nothing is submitted if any list is foreign or
// still recording.
func (q *Queue) ExecuteCommandLists(lists []ddn.CommandList) error {
	buffers := make([]hal.CommandBuffer, 0, len(lists))
	batch := make([]*CommandList, 0, len(lists))
	for i, l := range lists {
		cl, ok := l.(*CommandList)
		if !ok || cl == nil {
			return fmt.Errorf("%w: list %d is %T", ErrForeignObject, i, l)
		}
		if !cl.closed {
			return fmt.Errorf("%w: %q", ErrListOpen, cl.label)
		}
		if cl.buffer == nil {
			return fmt.Errorf("%w: %q already submitted", ErrListClosed, cl.label)
		}
		buffers = append(buffers, cl.buffer)
		batch = append(batch, cl)
	}
	if len(buffers) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.destroyed {
		return ErrDestroyed
	}
	q.reclaimLocked()

	ticket := q.tickets + 1
	if err := q.device.queue.Submit(buffers, q.retire.raw, ticket); err != nil {
		return fmt.Errorf("native: submit %d command buffers: %w", len(buffers), err)
	}
	q.tickets = ticket
	q.retire.noteSubmitted(ticket)
	q.inFlight = append(q.inFlight, submission{ticket: ticket, buffers: buffers})
	for _, cl := range batch {
		cl.buffer = nil
	}
	return nil
}

// Signal sets fence to value after all previously submitted work.
func (q *Queue) Signal(fence ddn.DeviceFence, value uint64) error {
	f, ok := fence.(*Fence)
	if !ok {
		return fmt.Errorf("%w: fence is %T", ErrForeignObject, fence)
	}
	return q.device.signal(f, value)
}

// Wait orders later work after fence reaches value. The HAL queue executes
// in submission order, so a value already signaled is satisfied by
// construction and Wait records nothing. Waiting on a value not signaled
// yet would need a cross-queue semaphore and fails with ErrWaitUnsubmitted.
func (q *Queue) Wait(fence ddn.DeviceFence, value uint64) error {
	f, ok := fence.(*Fence)
	if !ok {
		return fmt.Errorf("%w: fence is %T", ErrForeignObject, fence)
	}
	if f.device != q.device {
		return fmt.Errorf("%w: fence from another device", ErrForeignObject)
	}
	if submitted := f.submitted.Load(); value > submitted {
		return fmt.Errorf("%w: value %d, last signaled %d", ErrWaitUnsubmitted, value, submitted)
	}
	return nil
}

// Idle reports whether every submission has retired.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reclaimLocked()
	return len(q.inFlight) == 0
}

// InFlight returns the number of submissions not yet retired.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reclaimLocked()
	return len(q.inFlight)
}

// Destroy waits for submitted work to retire and frees its command
// buffers.
func (q *Queue) Destroy() {
	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return
	}
	q.destroyed = true
	last := q.tickets
	q.mu.Unlock()

	if last > 0 {
		if err := q.retire.wait(last); err != nil {
			ddn.Logger().Warn("native: queue did not drain", "queue", q.typ, "err", err)
		}
	}

	q.mu.Lock()
	for _, s := range q.inFlight {
		q.free(s)
	}
	q.inFlight = nil
	q.mu.Unlock()

	q.retire.Destroy()
	q.device.forget(q)
}

func (q *Queue) reclaimLocked() {
	done := q.retire.CompletedValue()
	n := 0
	for _, s := range q.inFlight {
		if s.ticket > done {
			break
		}
		q.free(s)
		n++
	}
	if n > 0 {
		clear(q.inFlight[:n])
		q.inFlight = q.inFlight[n:]
	}
}

func (q *Queue) free(s submission) {
	for _, b := range s.buffers {
		q.device.gpu.freeCommandBuffer(b)
	}
}

var _ ddn.HardwareQueue = (*Queue)(nil)
