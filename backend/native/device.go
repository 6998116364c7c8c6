//go:build !nogpu

package native

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/wgpu/hal"

	ddn "github.com/delivron/3dandelion"
)

// Device adapts a HAL device and its queue. HAL exposes a single in-order
// queue; every hardware queue created here submits to it, so work on all
// of them is totally ordered.
type Device struct {
	gpu   halDevice
	queue halQueue

	mu     sync.Mutex
	queues []*Queue
	fences int
}

// NewDevice wraps a HAL device and queue owned by the host. The host keeps
// ownership; Close does not destroy them.
func NewDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	if queue == nil {
		return nil, ErrNilHALQueue
	}
	return newDevice(deviceAdapter{device}, queueAdapter{queue}), nil
}

func newDevice(gpu halDevice, queue halQueue) *Device {
	return &Device{gpu: gpu, queue: queue}
}

// CreateFence creates a fence whose completed value starts at initial.
func (d *Device) CreateFence(initial uint64) (ddn.DeviceFence, error) {
	f, err := newFence(d, initial)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.fences++
	d.mu.Unlock()
	return f, nil
}

// CreateQueue creates a hardware queue of type t on the HAL queue.
func (d *Device) CreateQueue(t ddn.QueueType) (ddn.HardwareQueue, error) {
	switch t {
	case ddn.QueueTypeDirect, ddn.QueueTypeCompute, ddn.QueueTypeCopy:
	default:
		return nil, fmt.Errorf("%w: %s", ErrQueueType, t)
	}
	q, err := newQueue(d, t)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.queues = append(d.queues, q)
	d.mu.Unlock()
	ddn.Logger().Debug("native: queue created", "type", t)
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

// Close destroys every live queue after its submitted work retires.
func (d *Device) Close() {
	d.mu.Lock()
	queues := slices.Clone(d.queues)
	d.mu.Unlock()
	for _, q := range queues {
		q.Destroy()
	}
}

// signal submits an empty batch that sets f to value.
func (d *Device) signal(f *Fence, value uint64) error {
	if f.device != d {
		return fmt.Errorf("%w: fence from another device", ErrForeignObject)
	}
	if err := d.queue.Submit(nil, f.raw, value); err != nil {
		return fmt.Errorf("native: signal fence to %d: %w", value, err)
	}
	f.noteSubmitted(value)
	return nil
}

func (d *Device) forget(q *Queue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queues = slices.DeleteFunc(d.queues, func(cur *Queue) bool { return cur == q })
}

var _ ddn.Device = (*Device)(nil)
