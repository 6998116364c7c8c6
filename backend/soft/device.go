package soft

import (
	"fmt"
	"slices"
	"sync"

	ddn "github.com/delivron/3dandelion"
)

// Device is a software GPU. Each queue created on it runs its own
// timeline goroutine.
type Device struct {
	mu     sync.Mutex
	queues []*Queue
	fences int
}

// NewDevice returns a software device with no queues.
func NewDevice() *Device {
	return &Device{}
}

// CreateFence creates a fence whose completed value starts at initial.
func (d *Device) CreateFence(initial uint64) (ddn.DeviceFence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fences++
	return newFence(initial), nil
}

// CreateQueue starts a queue timeline of type t.
func (d *Device) CreateQueue(t ddn.QueueType) (ddn.HardwareQueue, error) {
	switch t {
	case ddn.QueueTypeDirect, ddn.QueueTypeCompute, ddn.QueueTypeCopy:
	default:
		return nil, fmt.Errorf("%w: %s", ErrQueueType, t)
	}
	q := newQueue(d, t)
	d.mu.Lock()
	d.queues = append(d.queues, q)
	d.mu.Unlock()
	ddn.Logger().Debug("soft: queue created", "type", t)
	return q, nil
}

// QueueCount returns the number of live queues.
func (d *Device) QueueCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// FenceCount returns the number of fences created.
func (d *Device) FenceCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fences
}

// Close destroys every live queue after its remaining work has run.
func (d *Device) Close() {
	d.mu.Lock()
	queues := slices.Clone(d.queues)
	d.mu.Unlock()
	for _, q := range queues {
		q.Destroy()
	}
}

func (d *Device) forget(q *Queue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queues = slices.DeleteFunc(d.queues, func(cur *Queue) bool { return cur == q })
}

var _ ddn.Device = (*Device)(nil)
