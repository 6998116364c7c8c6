package ddn

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func newTestFence(t *testing.T, device *mockDevice) (*Fence, *mockFence) {
	t.Helper()
	f, err := NewFence(device)
	if err != nil {
		t.Fatalf("NewFence: %v", err)
	}
	t.Cleanup(f.Close)
	return f, device.fences[len(device.fences)-1]
}

func TestNewFenceNilDevice(t *testing.T) {
	if _, err := NewFence(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewFence(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestNewFenceCreateError(t *testing.T) {
	device := &mockDevice{createFenceErr: errMockDevice}
	_, err := NewFence(device)
	if !errors.Is(err, errMockDevice) {
		t.Errorf("NewFence error = %v, want wrapped device error", err)
	}
}

func TestFenceSignalTicketsStrictlyIncreasing(t *testing.T) {
	f, _ := newTestFence(t, &mockDevice{})

	var prev uint64
	for i := 1; i <= 10; i++ {
		ticket, err := f.Signal()
		if err != nil {
			t.Fatalf("Signal #%d: %v", i, err)
		}
		if ticket != uint64(i) {
			t.Errorf("Signal #%d = %d, want %d", i, ticket, i)
		}
		if ticket <= prev {
			t.Errorf("ticket %d not greater than previous %d", ticket, prev)
		}
		prev = ticket
	}
	if f.Value() != 10 {
		t.Errorf("Value() = %d, want 10", f.Value())
	}
}

func TestFenceSignalConcurrentUnique(t *testing.T) {
	f, _ := newTestFence(t, &mockDevice{})

	const producers, perProducer = 8, 100
	tickets := make([][]uint64, producers)

	var g errgroup.Group
	for p := range producers {
		g.Go(func() error {
			for range perProducer {
				ticket, err := f.Signal()
				if err != nil {
					return err
				}
				tickets[p] = append(tickets[p], ticket)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	seen := make(map[uint64]bool)
	for _, ts := range tickets {
		for i, ticket := range ts {
			if seen[ticket] {
				t.Fatalf("ticket %d issued twice", ticket)
			}
			seen[ticket] = true
			if i > 0 && ticket <= ts[i-1] {
				t.Errorf("producer tickets not increasing: %d after %d", ticket, ts[i-1])
			}
		}
	}
	if len(seen) != producers*perProducer {
		t.Errorf("unique tickets = %d, want %d", len(seen), producers*perProducer)
	}
	if f.Value() != producers*perProducer {
		t.Errorf("Value() = %d, want %d", f.Value(), producers*perProducer)
	}
}

func TestFenceSignalError(t *testing.T) {
	f, mf := newTestFence(t, &mockDevice{})
	mf.signalErr = errMockDevice

	if _, err := f.Signal(); !errors.Is(err, errMockDevice) {
		t.Errorf("Signal error = %v, want wrapped device error", err)
	}
	// The counter still advanced: the next ticket is never reused.
	if f.Value() != 1 {
		t.Errorf("Value() = %d, want 1", f.Value())
	}
}

func TestFenceWaitCompletedSkipsNotification(t *testing.T) {
	f, mf := newTestFence(t, &mockDevice{})

	for range 3 {
		if _, err := f.Signal(); err != nil {
			t.Fatalf("Signal: %v", err)
		}
	}
	for _, ticket := range []uint64{0, 1, 2, 3} {
		if err := f.Wait(ticket); err != nil {
			t.Fatalf("Wait(%d): %v", ticket, err)
		}
	}
	if err := f.WaitSignaled(); err != nil {
		t.Fatalf("WaitSignaled: %v", err)
	}
	if n := mf.notifyCount(); n != 0 {
		t.Errorf("NotifyOnCompletion calls = %d, want 0", n)
	}
}

func TestFenceWaitUnblocksAtTicket(t *testing.T) {
	device := &mockDevice{manualFences: true}
	f, mf := newTestFence(t, device)

	for want := uint64(1); want <= 3; want++ {
		ticket, err := f.Signal()
		if err != nil {
			t.Fatalf("Signal: %v", err)
		}
		if ticket != want {
			t.Fatalf("Signal = %d, want %d", ticket, want)
		}
	}

	done := make(chan error, 1)
	go func() { done <- f.Wait(2) }()

	eventually(t, "completion registration", func() bool { return mf.pendingWaiters() == 1 })
	select {
	case err := <-done:
		t.Fatalf("Wait(2) returned before completion: %v", err)
	default:
	}

	mf.complete(1)
	select {
	case err := <-done:
		t.Fatalf("Wait(2) returned at completed value 1: %v", err)
	case <-time.After(10 * time.Millisecond):
	}

	mf.complete(2)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait(2): %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait(2) did not unblock at completed value 2")
	}
	if got := f.Completed(); got != 2 {
		t.Errorf("Completed() = %d, want 2", got)
	}
	if n := mf.notifyCount(); n != 1 {
		t.Errorf("NotifyOnCompletion calls = %d, want 1", n)
	}
}

func TestFenceWaitSignaledWaitsForLatest(t *testing.T) {
	f, mf := newTestFence(t, &mockDevice{manualFences: true})
	for range 2 {
		if _, err := f.Signal(); err != nil {
			t.Fatalf("Signal: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- f.WaitSignaled() }()

	eventually(t, "completion registration", func() bool { return mf.pendingWaiters() == 1 })
	mf.complete(1)
	select {
	case <-done:
		t.Fatal("WaitSignaled returned before the latest ticket")
	case <-time.After(10 * time.Millisecond):
	}
	mf.complete(2)
	if err := <-done; err != nil {
		t.Fatalf("WaitSignaled: %v", err)
	}
}

func TestFenceWaitDeviceError(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mockFence)
	}{
		{"registration fails", func(mf *mockFence) { mf.notifyErr = errMockDevice }},
		{"completion fails", func(mf *mockFence) { mf.waitErr = errMockDevice }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, mf := newTestFence(t, &mockDevice{manualFences: true})
			tt.setup(mf)
			if _, err := f.Signal(); err != nil {
				t.Fatalf("Signal: %v", err)
			}
			if err := f.Wait(1); !errors.Is(err, errMockDevice) {
				t.Errorf("Wait error = %v, want wrapped device error", err)
			}
		})
	}
}

func TestFenceSignalQueue(t *testing.T) {
	device := &mockDevice{}
	f, _ := newTestFence(t, device)
	hq, err := device.CreateQueue(QueueTypeDirect)
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	mq := hq.(*mockQueue)

	for want := uint64(1); want <= 3; want++ {
		ticket, err := f.SignalQueue(hq)
		if err != nil {
			t.Fatalf("SignalQueue: %v", err)
		}
		if ticket != want {
			t.Errorf("SignalQueue = %d, want %d", ticket, want)
		}
	}
	if len(mq.signals) != 3 || mq.signals[2] != 3 {
		t.Errorf("queue signals = %v, want [1 2 3]", mq.signals)
	}

	if err := f.QueueWait(hq); err != nil {
		t.Fatalf("QueueWait: %v", err)
	}
	if len(mq.waits) != 1 || mq.waits[0] != 3 {
		t.Errorf("queue waits = %v, want [3]", mq.waits)
	}

	if _, err := f.SignalQueue(nil); !errors.Is(err, ErrNilQueue) {
		t.Errorf("SignalQueue(nil) error = %v, want ErrNilQueue", err)
	}
}

func TestFenceClose(t *testing.T) {
	device := &mockDevice{}
	f, err := NewFence(device)
	if err != nil {
		t.Fatalf("NewFence: %v", err)
	}
	mf := device.fences[0]

	f.Close()
	f.Close()
	if mf.destroyed != 1 {
		t.Errorf("Destroy calls = %d, want 1", mf.destroyed)
	}
	if _, err := f.Signal(); !errors.Is(err, ErrClosed) {
		t.Errorf("Signal after Close error = %v, want ErrClosed", err)
	}
	if err := f.Wait(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Wait after Close error = %v, want ErrClosed", err)
	}
}
