package ddn

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
)

// =============================================================================
// Mock Types for Testing
// =============================================================================

var errMockDevice = errors.New("mock: device failure")

// mockWaiter is a pending completion notification.
type mockWaiter struct {
	value uint64
	event chan<- error
}

// mockFence is a test double for DeviceFence with a manually driven
// completed value.
type mockFence struct {
	mu        sync.Mutex
	completed uint64
	waiters   []mockWaiter
	notifies  int
	signals   []uint64
	destroyed int

	// manual disables completion on Signal; the test calls complete.
	manual    bool
	signalErr error
	notifyErr error
	waitErr   error
}

func (f *mockFence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *mockFence) Signal(value uint64) error {
	f.mu.Lock()
	if f.signalErr != nil {
		f.mu.Unlock()
		return f.signalErr
	}
	f.signals = append(f.signals, value)
	manual := f.manual
	f.mu.Unlock()
	if !manual {
		f.complete(value)
	}
	return nil
}

func (f *mockFence) NotifyOnCompletion(value uint64, event chan<- error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notifies++
	if f.waitErr != nil {
		event <- f.waitErr
		return nil
	}
	if f.completed >= value {
		event <- nil
		return nil
	}
	f.waiters = append(f.waiters, mockWaiter{value: value, event: event})
	return nil
}

func (f *mockFence) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
}

// complete advances the completed value and fires reached notifications.
func (f *mockFence) complete(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value > f.completed {
		f.completed = value
	}
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= f.completed {
			w.event <- nil
			continue
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}

func (f *mockFence) notifyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifies
}

func (f *mockFence) pendingWaiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// mockSignal is a queue signal that has not retired yet.
type mockSignal struct {
	fence *mockFence
	value uint64
}

// mockQueue is a test double for HardwareQueue.
type mockQueue struct {
	device *mockDevice
	typ    QueueType

	mu          sync.Mutex
	submissions [][]CommandList
	signals     []uint64
	waits       []uint64
	inflight    []mockSignal
	tail        chan struct{}
	destroyed   int

	// manual keeps signals in flight until retire is called.
	manual bool
	// delay retires each signal after the given duration, in signal order.
	delay   time.Duration
	execErr error
}

func (q *mockQueue) Type() QueueType { return q.typ }
func (q *mockQueue) Device() Device  { return q.device }

func (q *mockQueue) ExecuteCommandLists(lists []CommandList) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.execErr != nil {
		return q.execErr
	}
	q.submissions = append(q.submissions, lists)
	return nil
}

func (q *mockQueue) Signal(fence DeviceFence, value uint64) error {
	mf := fence.(*mockFence)
	q.mu.Lock()
	q.signals = append(q.signals, value)
	switch {
	case q.manual:
		q.inflight = append(q.inflight, mockSignal{fence: mf, value: value})
		q.mu.Unlock()
	case q.delay > 0:
		d, prev, done := q.delay, q.tail, make(chan struct{})
		q.tail = done
		q.mu.Unlock()
		go func() {
			if prev != nil {
				<-prev
			}
			time.Sleep(d)
			mf.complete(value)
			close(done)
		}()
	default:
		q.mu.Unlock()
		mf.complete(value)
	}
	return nil
}

func (q *mockQueue) Wait(_ DeviceFence, value uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waits = append(q.waits, value)
	return nil
}

func (q *mockQueue) Destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.destroyed++
}

// retire completes every in-flight signal in submission order.
func (q *mockQueue) retire() {
	q.mu.Lock()
	inflight := q.inflight
	q.inflight = nil
	q.mu.Unlock()
	for _, s := range inflight {
		s.fence.complete(s.value)
	}
}

func (q *mockQueue) submissionCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.submissions)
}

// mockDevice is a test double for Device.
type mockDevice struct {
	mu     sync.Mutex
	fences []*mockFence
	queues []*mockQueue

	// queueType overrides the type reported by created queues.
	queueType *QueueType
	// manualFences creates fences whose Signal does not complete them.
	manualFences bool
	// manualQueues creates queues whose signals wait for retire.
	manualQueues bool
	queueDelay   time.Duration

	createFenceErr error
	createQueueErr error
}

func (d *mockDevice) CreateFence(initial uint64) (DeviceFence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createFenceErr != nil {
		return nil, d.createFenceErr
	}
	f := &mockFence{completed: initial, manual: d.manualFences}
	d.fences = append(d.fences, f)
	return f, nil
}

func (d *mockDevice) CreateQueue(t QueueType) (HardwareQueue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createQueueErr != nil {
		return nil, d.createQueueErr
	}
	if d.queueType != nil {
		t = *d.queueType
	}
	q := &mockQueue{device: d, typ: t, manual: d.manualQueues, delay: d.queueDelay}
	d.queues = append(d.queues, q)
	return q, nil
}

func (d *mockDevice) fenceCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.fences)
}

// mockBuffer is a test double for a back buffer resource.
type mockBuffer struct {
	slot          uint32
	width, height uint32
	generation    int
}

// mockEngine is a test double for PresentEngine.
type mockEngine struct {
	desc       PresentEngineDesc
	index      uint32
	generation int
	presents   []PresentFlags
	intervals  []uint32
	destroyed  int

	// next chooses the slot after a present; round-robin when nil.
	next      func(cur uint32) uint32
	onResize  func()
	resizeErr error
	bufferErr error
	presentErr error
}

func (e *mockEngine) CurrentBackBufferIndex() uint32 { return e.index }

func (e *mockEngine) BackBuffer(index uint32) (Resource, error) {
	if e.bufferErr != nil {
		return nil, e.bufferErr
	}
	return &mockBuffer{slot: index, width: e.desc.Width, height: e.desc.Height, generation: e.generation}, nil
}

func (e *mockEngine) Desc() PresentEngineDesc { return e.desc }

func (e *mockEngine) ResizeBuffers(count, width, height uint32) error {
	if e.onResize != nil {
		e.onResize()
	}
	if e.resizeErr != nil {
		return e.resizeErr
	}
	e.desc.BufferCount = count
	e.desc.Width = width
	e.desc.Height = height
	e.generation++
	e.index = 0
	return nil
}

func (e *mockEngine) Present(syncInterval uint32, flags PresentFlags) error {
	if e.presentErr != nil {
		return e.presentErr
	}
	e.presents = append(e.presents, flags)
	e.intervals = append(e.intervals, syncInterval)
	if e.next != nil {
		e.index = e.next(e.index)
	} else {
		e.index = (e.index + 1) % e.desc.BufferCount
	}
	return nil
}

func (e *mockEngine) Destroy() { e.destroyed++ }

// mockFactory is a test double for Factory.
type mockFactory struct {
	tearing   bool
	probes    int
	engines   []*mockEngine
	createErr error

	// configure is applied to each engine before it is returned.
	configure func(*mockEngine)
}

func (f *mockFactory) SupportsTearing() bool {
	f.probes++
	return f.tearing
}

func (f *mockFactory) CreatePresentEngine(_ HardwareQueue, _ Surface, desc PresentEngineDesc) (PresentEngine, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	e := &mockEngine{desc: desc}
	if f.configure != nil {
		f.configure(e)
	}
	f.engines = append(f.engines, e)
	return e, nil
}

// mockSurface is a test double for Surface.
type mockSurface struct {
	width, height uint32
}

func (s mockSurface) Width() uint32  { return s.width }
func (s mockSurface) Height() uint32 { return s.height }

// =============================================================================
// Helpers
// =============================================================================

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// newTestQueue creates a direct command queue on device.
func newTestQueue(t *testing.T, device *mockDevice) *CommandQueue {
	t.Helper()
	q, err := NewCommandQueue(device, QueueTypeDirect)
	if err != nil {
		t.Fatalf("NewCommandQueue: %v", err)
	}
	t.Cleanup(q.Close)
	return q
}

// newTestSwapChain creates a swap chain on a fresh mock factory.
func newTestSwapChain(t *testing.T, q *CommandQueue, count uint32, opts ...SwapChainOption) (*SwapChain, *mockFactory) {
	t.Helper()
	factory := &mockFactory{}
	sc, err := NewSwapChain(factory, q, mockSurface{width: 800, height: 600}, count, opts...)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	return sc, factory
}

func defaultFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
