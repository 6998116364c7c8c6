package soft

import (
	"errors"
	"image"
	"image/color"
	"reflect"
	"sync"
	"testing"
	"time"

	ddn "github.com/delivron/3dandelion"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := NewDevice()
	t.Cleanup(d.Close)
	return d
}

func newTestQueue(t *testing.T, d *Device, typ ddn.QueueType) *Queue {
	t.Helper()
	hq, err := d.CreateQueue(typ)
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	return hq.(*Queue)
}

// orderLog collects execution order across the timeline goroutine.
type orderLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *orderLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, s)
}

func (l *orderLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

func loggingList(t *testing.T, log *orderLog, bb *BackBuffer, names ...string) *CommandList {
	t.Helper()
	cl := NewCommandList("log")
	for _, name := range names {
		if err := cl.Draw(bb, func(*image.RGBA) error {
			log.add(name)
			return nil
		}); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return cl
}

func testBuffer() *BackBuffer {
	return &BackBuffer{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}
}

func TestCreateQueueTypes(t *testing.T) {
	d := newTestDevice(t)
	for _, typ := range []ddn.QueueType{ddn.QueueTypeDirect, ddn.QueueTypeCompute, ddn.QueueTypeCopy} {
		q := newTestQueue(t, d, typ)
		if q.Type() != typ {
			t.Errorf("Type() = %v, want %v", q.Type(), typ)
		}
		if q.Device() != ddn.Device(d) {
			t.Error("Device() does not return the creating device")
		}
	}
	if d.QueueCount() != 3 {
		t.Errorf("QueueCount() = %d, want 3", d.QueueCount())
	}
	if _, err := d.CreateQueue(ddn.QueueType(99)); !errors.Is(err, ErrQueueType) {
		t.Errorf("CreateQueue(99) error = %v, want ErrQueueType", err)
	}
}

func TestQueueRunsInIssueOrder(t *testing.T) {
	d := newTestDevice(t)
	q := newTestQueue(t, d, ddn.QueueTypeDirect)
	fence := newFence(0)
	var log orderLog
	bb := testBuffer()

	a := loggingList(t, &log, bb, "a1", "a2")
	b := loggingList(t, &log, bb, "b1")
	if err := q.ExecuteCommandLists([]ddn.CommandList{a, b}); err != nil {
		t.Fatalf("ExecuteCommandLists: %v", err)
	}
	if err := q.Signal(fence, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	c := loggingList(t, &log, bb, "c1")
	if err := q.ExecuteCommandLists([]ddn.CommandList{c}); err != nil {
		t.Fatalf("ExecuteCommandLists: %v", err)
	}
	q.WaitIdle()

	want := []string{"a1", "a2", "b1", "c1"}
	if got := log.get(); !reflect.DeepEqual(got, want) {
		t.Errorf("execution order = %v, want %v", got, want)
	}
	if fence.CompletedValue() != 1 {
		t.Errorf("fence = %d, want 1", fence.CompletedValue())
	}
}

func TestQueueSignalAfterPriorWork(t *testing.T) {
	d := newTestDevice(t)
	q := newTestQueue(t, d, ddn.QueueTypeDirect)
	fence := newFence(0)
	release := make(chan struct{})

	blocked := NewCommandList("blocked")
	_ = blocked.Draw(testBuffer(), func(*image.RGBA) error {
		<-release
		return nil
	})
	_ = blocked.Close()
	if err := q.ExecuteCommandLists([]ddn.CommandList{blocked}); err != nil {
		t.Fatalf("ExecuteCommandLists: %v", err)
	}
	if err := q.Signal(fence, 7); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if fence.CompletedValue() != 0 {
		t.Fatal("signal ran before earlier work finished")
	}
	if q.Idle() {
		t.Error("Idle() = true with work pending")
	}
	close(release)
	q.WaitIdle()
	if fence.CompletedValue() != 7 {
		t.Errorf("fence = %d, want 7", fence.CompletedValue())
	}
}

func TestQueueGPUWaitStallsTimeline(t *testing.T) {
	d := newTestDevice(t)
	q := newTestQueue(t, d, ddn.QueueTypeDirect)
	gate := newFence(0)
	fence := newFence(0)

	if err := q.Wait(gate, 1); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := q.Signal(fence, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if fence.CompletedValue() != 0 {
		t.Fatal("signal ran past an unsatisfied GPU-side wait")
	}
	if err := gate.Signal(1); err != nil {
		t.Fatalf("gate Signal: %v", err)
	}
	q.WaitIdle()
	if fence.CompletedValue() != 1 {
		t.Errorf("fence = %d, want 1", fence.CompletedValue())
	}
}

func TestQueueCrossQueueWait(t *testing.T) {
	d := newTestDevice(t)
	producer := newTestQueue(t, d, ddn.QueueTypeCopy)
	consumer := newTestQueue(t, d, ddn.QueueTypeDirect)
	shared := newFence(0)
	done := newFence(0)

	if err := consumer.Wait(shared, 1); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := consumer.Signal(done, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if err := producer.Signal(shared, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	consumer.WaitIdle()
	if done.CompletedValue() != 1 {
		t.Errorf("consumer fence = %d, want 1", done.CompletedValue())
	}
}

func TestExecuteRejectsBadLists(t *testing.T) {
	d := newTestDevice(t)
	q := newTestQueue(t, d, ddn.QueueTypeDirect)
	var log orderLog
	good := loggingList(t, &log, testBuffer(), "good")
	open := NewCommandList("open")

	if err := q.ExecuteCommandLists([]ddn.CommandList{good, "foreign"}); !errors.Is(err, ErrForeignObject) {
		t.Errorf("foreign list error = %v, want ErrForeignObject", err)
	}
	if err := q.ExecuteCommandLists([]ddn.CommandList{good, open}); !errors.Is(err, ErrListOpen) {
		t.Errorf("open list error = %v, want ErrListOpen", err)
	}
	q.WaitIdle()
	if got := log.get(); len(got) != 0 {
		t.Errorf("rejected batch partly executed: %v", got)
	}
	if err := q.Signal(struct{ ddn.DeviceFence }{}, 1); !errors.Is(err, ErrForeignObject) {
		t.Errorf("foreign fence error = %v, want ErrForeignObject", err)
	}
}

func TestQueueRecordsExecutionError(t *testing.T) {
	d := newTestDevice(t)
	q := newTestQueue(t, d, ddn.QueueTypeDirect)
	errDraw := errors.New("draw failed")
	fence := newFence(0)

	cl := NewCommandList("failing")
	_ = cl.Draw(testBuffer(), func(*image.RGBA) error { return errDraw })
	_ = cl.Close()
	if err := q.ExecuteCommandLists([]ddn.CommandList{cl}); err != nil {
		t.Fatalf("ExecuteCommandLists: %v", err)
	}
	if err := q.Signal(fence, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	q.WaitIdle()

	if !errors.Is(q.Err(), errDraw) {
		t.Errorf("Err() = %v, want draw error", q.Err())
	}
	if fence.CompletedValue() != 1 {
		t.Error("timeline stopped after a failed list")
	}
}

func TestQueueDestroy(t *testing.T) {
	d := newTestDevice(t)
	q := newTestQueue(t, d, ddn.QueueTypeDirect)
	fence := newFence(0)
	if err := q.Signal(fence, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	q.Destroy()
	q.Destroy()
	if fence.CompletedValue() != 1 {
		t.Error("Destroy dropped queued work")
	}
	if err := q.Signal(fence, 2); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Signal after Destroy = %v, want ErrDestroyed", err)
	}
	if d.QueueCount() != 0 {
		t.Errorf("QueueCount() = %d after Destroy, want 0", d.QueueCount())
	}
}

func TestCommandListLifecycle(t *testing.T) {
	bb := testBuffer()
	red := color.RGBA{R: 255, A: 255}
	cl := NewCommandList("life")
	if err := cl.Clear(bb, red); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := cl.Clear(nil, red); !errors.Is(err, ErrForeignObject) {
		t.Errorf("Clear(nil) error = %v, want ErrForeignObject", err)
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := cl.Close(); !errors.Is(err, ErrListClosed) {
		t.Errorf("second Close error = %v, want ErrListClosed", err)
	}
	if err := cl.Clear(bb, red); !errors.Is(err, ErrListClosed) {
		t.Errorf("record after Close error = %v, want ErrListClosed", err)
	}
	if cl.Len() != 1 || !cl.Closed() {
		t.Errorf("Len() = %d, Closed() = %v; want 1, true", cl.Len(), cl.Closed())
	}

	cl.Reset()
	if cl.Len() != 0 || cl.Closed() || len(cl.targets) != 0 {
		t.Error("Reset did not reopen an empty list")
	}
}
