package soft

import (
	"fmt"
	"sync"

	ddn "github.com/delivron/3dandelion"
)

// op is one unit of work on a queue timeline.
type op struct {
	name string
	run  func() error
}

// Queue is a hardware queue backed by a goroutine. Submissions, signals
// and waits run on that goroutine strictly in the order they were issued,
// and each one finishes before the next starts.
type Queue struct {
	device *Device
	typ    ddn.QueueType

	mu          sync.Mutex
	cond        *sync.Cond
	ops         []op
	outstanding int
	err         error
	stopped     bool
	done        chan struct{}
}

func newQueue(device *Device, t ddn.QueueType) *Queue {
	q := &Queue{device: device, typ: t, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Type returns the queue type.
func (q *Queue) Type() ddn.QueueType { return q.typ }

// Device returns the device the queue was created on.
func (q *Queue) Device() ddn.Device { return q.device }

// ExecuteCommandLists submits closed lists created by NewCommandList.
// Nothing is submitted if any list is foreign or still recording.
func (q *Queue) ExecuteCommandLists(lists []ddn.CommandList) error {
	batch := make([]*CommandList, 0, len(lists))
	for i, l := range lists {
		cl, ok := l.(*CommandList)
		if !ok {
			return fmt.Errorf("%w: list %d is %T", ErrForeignObject, i, l)
		}
		if !cl.closed {
			return fmt.Errorf("%w: %q", ErrListOpen, cl.label)
		}
		batch = append(batch, cl)
	}
	if len(batch) == 0 {
		return nil
	}

	var targets []*BackBuffer
	for _, cl := range batch {
		targets = append(targets, cl.targets...)
	}
	acquire(targets)
	err := q.enqueue(op{name: "execute", run: func() error {
		defer release(targets)
		for _, cl := range batch {
			if err := cl.execute(); err != nil {
				return fmt.Errorf("soft: execute %q: %w", cl.label, err)
			}
		}
		return nil
	}})
	if err != nil {
		release(targets)
	}
	return err
}

// Signal sets fence to value once all previously issued work has run.
func (q *Queue) Signal(fence ddn.DeviceFence, value uint64) error {
	f, ok := fence.(*Fence)
	if !ok {
		return fmt.Errorf("%w: fence is %T", ErrForeignObject, fence)
	}
	return q.enqueue(op{name: "signal", run: func() error {
		return f.Signal(value)
	}})
}

// Wait stalls the timeline until fence reaches value. The CPU is not
// blocked.
func (q *Queue) Wait(fence ddn.DeviceFence, value uint64) error {
	f, ok := fence.(*Fence)
	if !ok {
		return fmt.Errorf("%w: fence is %T", ErrForeignObject, fence)
	}
	return q.enqueue(op{name: "wait", run: func() error {
		return f.wait(value)
	}})
}

// Idle reports whether every issued operation has finished.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding == 0
}

// WaitIdle blocks until every issued operation has finished.
func (q *Queue) WaitIdle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.outstanding > 0 {
		q.cond.Wait()
	}
}

// Err returns the first error raised while executing work, if any.
// Execution continues after an error.
func (q *Queue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Destroy runs the remaining work and stops the timeline.
func (q *Queue) Destroy() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.stopped = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
	q.device.forget(q)
}

func (q *Queue) enqueue(o op) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrDestroyed
	}
	q.ops = append(q.ops, o)
	q.outstanding++
	q.cond.Broadcast()
	return nil
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.ops) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if len(q.ops) == 0 {
			q.mu.Unlock()
			return
		}
		o := q.ops[0]
		q.ops[0] = op{}
		q.ops = q.ops[1:]
		q.mu.Unlock()

		err := o.run()
		if err != nil {
			ddn.Logger().Warn("soft: queue operation failed", "queue", q.typ, "op", o.name, "err", err)
		}

		q.mu.Lock()
		q.outstanding--
		if err != nil && q.err == nil {
			q.err = err
		}
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

var _ ddn.HardwareQueue = (*Queue)(nil)
